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
	assert.Equal(t, StoreBackendCSV, cfg.Store.Backend)
	assert.Equal(t, 4, cfg.Recommend.MaxCount)
	assert.True(t, cfg.Recommend.Strict)
	assert.Equal(t, 12.0, cfg.Graduation.CreditsPerSemester)
	assert.Equal(t, 4, cfg.Graduation.MonthsPerSemester)
	assert.Equal(t, 10*time.Minute, cfg.Cache.TTL)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("STORE_BACKEND", "Postgres")
	t.Setenv("RECOMMEND_MAX_COUNT", "6")
	t.Setenv("RECOMMEND_SEED", "42")
	t.Setenv("RECOMMEND_STRICT", "false")
	t.Setenv("CACHE_TTL", "not-a-duration")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, ,http://b.test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StoreBackendPostgres, cfg.Store.Backend)
	assert.Equal(t, 6, cfg.Recommend.MaxCount)
	assert.Equal(t, int64(42), cfg.Recommend.Seed)
	assert.False(t, cfg.Recommend.Strict)
	assert.Equal(t, 10*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
}
