package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, BackendDocument, cfg.Store.Backend)
	assert.Equal(t, "./data", cfg.Store.DataDir)
	assert.False(t, cfg.Store.UniqueNames)
	assert.Zero(t, cfg.Store.AutosaveRetries)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, 10*time.Minute, cfg.Calendar.CacheTTL)
	assert.Equal(t, "segreteria", cfg.Admin.Username)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("STORE_BACKEND", "Relational")
	t.Setenv("STORE_UNIQUE_NAMES", "true")
	t.Setenv("DB_DRIVER", "pgx")
	t.Setenv("CALENDAR_CACHE_TTL", "not-a-duration")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, ,http://b.test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, BackendRelational, cfg.Store.Backend)
	assert.True(t, cfg.Store.UniqueNames)
	assert.Equal(t, DriverPGX, cfg.Database.Driver)
	assert.Equal(t, 10*time.Minute, cfg.Calendar.CacheTTL)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
}
