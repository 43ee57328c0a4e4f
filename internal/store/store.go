// Package store provides the key-value JSON persistence the shop relies on.
package store

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store reads and writes JSON documents keyed by string. Implementations must
// be safe for concurrent use.
type Store interface {
	// GetJSON unmarshals the document at key into dst. It reports whether the key existed.
	GetJSON(ctx context.Context, key string, dst any) (bool, error)
	// SetJSON serialises v as JSON and stores it at key.
	SetJSON(ctx context.Context, key string, v any) error
	// Delete removes the document at key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error
}

// Redis is a Store backed by a Redis keyspace.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis constructs a Redis store. A non-positive TTL means keys never expire.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

// GetJSON implements Store.
func (s *Redis) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	if s == nil || s.client == nil || key == "" {
		return false, nil
	}
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON implements Store.
func (s *Redis) SetJSON(ctx context.Context, key string, v any) error {
	if s == nil || s.client == nil || key == "" {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	ttl := s.ttl
	if ttl < 0 {
		ttl = 0
	}
	return s.client.Set(ctx, key, data, ttl).Err()
}

// Delete implements Store.
func (s *Redis) Delete(ctx context.Context, key string) error {
	if s == nil || s.client == nil || key == "" {
		return nil
	}
	return s.client.Del(ctx, key).Err()
}

// Memory is an in-process Store for tests and local development.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory constructs an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

// GetJSON implements Store.
func (s *Memory) GetJSON(_ context.Context, key string, dst any) (bool, error) {
	s.mu.RLock()
	data, ok := s.data[key]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON implements Store.
func (s *Memory) SetJSON(_ context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.data[key] = data
	s.mu.Unlock()
	return nil
}

// Delete implements Store.
func (s *Memory) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
	return nil
}
