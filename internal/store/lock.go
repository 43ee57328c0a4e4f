package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// KeyCartLock guards read-modify-write cycles on the cart document.
const KeyCartLock = "shop:lock:cart"

// Mutex is a Redis-backed lock for the shop's JSON documents. Cart mutations
// load, modify, and rewrite a single key, so concurrent writers need it.
type Mutex struct {
	R            *redis.Client
	RetryBackoff time.Duration
}

// WithLock executes fn while holding the lock for key. The lock is released
// even when fn returns an error. Acquisition retries until the context ends.
func (m Mutex) WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error {
	if m.R == nil {
		return errors.New("store: redis client not configured")
	}
	if fn == nil {
		return errors.New("store: lock callback not provided")
	}
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	token := uuid.NewString()
	retry := m.RetryBackoff
	if retry <= 0 {
		retry = 50 * time.Millisecond
	}

	for {
		ok, err := m.R.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			return err
		}
		if ok {
			defer m.release(context.Background(), key, token)
			return fn(ctx)
		}
		timer := time.NewTimer(retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (m Mutex) release(ctx context.Context, key, token string) {
	const script = `if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
else
  return 0
end`
	if err := m.R.Eval(ctx, script, []string{key}, token).Err(); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unknown command") {
			_ = m.R.Del(ctx, key).Err()
		}
	}
}
