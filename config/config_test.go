package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	cfg, loaded, err := Load("does-not-exist.env")
	require.NoError(t, err)
	assert.False(t, loaded)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 2*time.Second, cfg.ProcessorInterval)
	assert.Equal(t, 10, cfg.ProcessorBatchSize)
	assert.Equal(t, 10*time.Second, cfg.ProcessorEventTimeout)
	assert.Equal(t, "tablehub.events", cfg.NATSSubject)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("PROCESSOR_INTERVAL", "500ms")
	t.Setenv("CORS_ORIGINS", "http://a.test,http://b.test")
	t.Setenv("SEED_TIMED_TABLES", "8")

	cfg, _, err := Load("does-not-exist.env")
	require.NoError(t, err)
	assert.Equal(t, "mysql", cfg.DBDriver)
	assert.Equal(t, 500*time.Millisecond, cfg.ProcessorInterval)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
	assert.Equal(t, 8, cfg.SeedTimedTables)
}

func TestLoadValidation(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DB_DRIVER", "oracle")

	_, _, err := Load("does-not-exist.env")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), "oracle")
}
