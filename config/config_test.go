package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	require.Equal(t, "ghanahealth-portal", cfg.AppName)
	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, "data", cfg.LocalStoreDir)
	require.Equal(t, time.Hour, cfg.AccessTTL)
	require.False(t, cfg.RemoteConfigured())
	require.True(t, cfg.MailSendEnabled)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SUPABASE_URL", "https://example.supabase.co")
	t.Setenv("SUPABASE_ANON_KEY", "anon-key")
	t.Setenv("JWT_ACCESS_TTL", "15m")
	t.Setenv("COOKIE_SECURE", "true")
	t.Setenv("REDIS_DB", "3")

	cfg := Load()
	require.True(t, cfg.RemoteConfigured())
	require.Equal(t, 15*time.Minute, cfg.AccessTTL)
	require.True(t, cfg.CookieSecure)
	require.Equal(t, 3, cfg.RedisDB)
}

func TestInvalidEnvFallsBackToDefaults(t *testing.T) {
	t.Setenv("JWT_ACCESS_TTL", "not-a-duration")
	t.Setenv("COOKIE_SECURE", "maybe")
	t.Setenv("REDIS_DB", "three")

	cfg := Load()
	require.Equal(t, time.Hour, cfg.AccessTTL)
	require.False(t, cfg.CookieSecure)
	require.Equal(t, 0, cfg.RedisDB)
}

func TestListSplitting(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000, https://app.example.com ,")
	t.Setenv("ELASTICSEARCH_ADDRS", "http://es1:9200,http://es2:9200")

	cfg := Load()
	require.Equal(t, []string{"http://localhost:3000", "https://app.example.com"}, cfg.CORSOrigins())
	require.Equal(t, []string{"http://es1:9200", "http://es2:9200"}, cfg.ESAddrs())
}
