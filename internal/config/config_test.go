package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(env(map[string]string{"JWT_SECRET": "s"}))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, StoreMemory, cfg.Store)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 6, cfg.Rules.Decks)
	assert.Equal(t, 52, cfg.Rules.ReshuffleBelow)
	assert.Equal(t, 20*time.Second, cfg.Rules.BettingTimeout)
	assert.Equal(t, 800*time.Millisecond, cfg.Rules.DealerDrawDelay)
	assert.EqualValues(t, 10, cfg.WSMsgsPerSec)
}

func TestFromEnvOverrides(t *testing.T) {
	cfg, err := FromEnv(env(map[string]string{
		"JWT_SECRET":       "s",
		"STORE":            "postgres",
		"DATABASE_URL":     "postgres://localhost/bj",
		"TURN_TIMEOUT":     "5s",
		"SHOE_DECKS":       "2",
		"LOG_DEV":          "true",
		"SETTLEMENT_DELAY": "1500ms",
	}))
	require.NoError(t, err)
	assert.Equal(t, StorePostgres, cfg.Store)
	assert.Equal(t, 5*time.Second, cfg.Rules.TurnTimeout)
	assert.Equal(t, 2, cfg.Rules.Decks)
	assert.True(t, cfg.LogDev)
	assert.Equal(t, 1500*time.Millisecond, cfg.Rules.SettlementDelay)
}

func TestFromEnvErrors(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing secret", map[string]string{}, "JWT_SECRET"},
		{"bad duration", map[string]string{"JWT_SECRET": "s", "TURN_TIMEOUT": "soon"}, "TURN_TIMEOUT"},
		{"bad int", map[string]string{"JWT_SECRET": "s", "SHOE_DECKS": "six"}, "SHOE_DECKS"},
		{"unknown store", map[string]string{"JWT_SECRET": "s", "STORE": "redis"}, "STORE"},
		{"postgres without url", map[string]string{"JWT_SECRET": "s", "STORE": "postgres"}, "DATABASE_URL"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := FromEnv(env(tc.env))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("JWT_SECRET=from-file\nHTTP_ADDR=:9999\n"), 0o600))
	t.Setenv("JWT_SECRET", "")
	t.Setenv("HTTP_ADDR", "")
	require.NoError(t, os.Unsetenv("JWT_SECRET"))
	require.NoError(t, os.Unsetenv("HTTP_ADDR"))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.JWTSecret)
	assert.Equal(t, ":9999", cfg.HTTPAddr)
}
