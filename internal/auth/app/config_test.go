package app

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		AccessSecret:      "access-secret-0123456789abcdef-xx",
		RefreshSecret:     "refresh-secret-0123456789abcdef-x",
		RevocationBackend: "memory",
	}
}

func TestConfigValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		require.NoError(t, validConfig().Validate())
	})

	t.Run("missing access secret", func(t *testing.T) {
		cfg := validConfig()
		cfg.AccessSecret = ""
		require.ErrorContains(t, cfg.Validate(), "FOLIO_AUTH_ACCESS_SECRET")
	})

	t.Run("missing refresh secret", func(t *testing.T) {
		cfg := validConfig()
		cfg.RefreshSecret = ""
		require.ErrorContains(t, cfg.Validate(), "FOLIO_AUTH_REFRESH_SECRET")
	})

	t.Run("secrets must differ", func(t *testing.T) {
		cfg := validConfig()
		cfg.RefreshSecret = cfg.AccessSecret
		require.ErrorContains(t, cfg.Validate(), "must differ")
	})

	t.Run("redis backend needs an address", func(t *testing.T) {
		cfg := validConfig()
		cfg.RevocationBackend = "redis"
		require.ErrorContains(t, cfg.Validate(), "FOLIO_AUTH_REDIS_ADDR")

		cfg.RedisAddr = "localhost:6379"
		require.NoError(t, cfg.Validate())
	})

	t.Run("unknown backend", func(t *testing.T) {
		cfg := validConfig()
		cfg.RevocationBackend = "etcd"
		require.ErrorContains(t, cfg.Validate(), "unknown revocation backend")
	})
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()

	require.Equal(t, "folio-auth", cfg.Issuer)
	require.Equal(t, "folio", cfg.Audience)
	require.Equal(t, "memory", cfg.RevocationBackend)
	require.Equal(t, 8080, cfg.Port)
}
