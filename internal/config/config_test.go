package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tomatopickles404/shop-api/internal/config"
)

func TestLoadRequiresRedisURL(t *testing.T) {
	_, err := config.LoadForTests(map[string]string{
		"REDIS_URL": "",
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "REDIS_URL")
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.LoadForTests(map[string]string{
		"REDIS_URL":            "redis://localhost:6379/0",
		"PORT":                 "",
		"APP_ENV":              "",
		"CORS_ALLOWED_ORIGINS": "",
		"STORE_TTL":            "",
		"IDEMPOTENCY_TTL":      "",
		"SEED_ON_START":        "",
	})
	require.NoError(t, err)
	require.Equal(t, "development", cfg.AppEnv)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, time.Duration(0), cfg.StoreTTL)
	require.Equal(t, 10*time.Minute, cfg.IdempotencyTTL)
	require.True(t, cfg.SeedOnStart)
	require.Empty(t, cfg.CORSAllowedOrigins)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := config.LoadForTests(map[string]string{
		"REDIS_URL":            "redis://localhost:6379/1",
		"PORT":                 "9090",
		"APP_ENV":              "production",
		"CORS_ALLOWED_ORIGINS": "https://shop.example.com, https://admin.example.com",
		"STORE_TTL":            "24h",
		"SEED_ON_START":        "false",
	})
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTPAddr())
	require.Equal(t, "production", cfg.AppEnv)
	require.Equal(t, []string{"https://shop.example.com", "https://admin.example.com"}, cfg.CORSAllowedOrigins)
	require.Equal(t, 24*time.Hour, cfg.StoreTTL)
	require.False(t, cfg.SeedOnStart)
}
