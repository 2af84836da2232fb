package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)

	assert.Equal(t, "localhost", cfg.Database.Postgres.Host)
	assert.Equal(t, "5432", cfg.Database.Postgres.Port)
	assert.Equal(t, 50, cfg.Database.Postgres.MaxConnections)

	assert.Equal(t, "https://query2.finance.yahoo.com", cfg.MarketData.BaseURL)
	assert.Equal(t, 8*time.Second, cfg.MarketData.Timeout)

	assert.Equal(t, 120, cfg.RateLimit.RequestsPerWindow)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9999")
	t.Setenv("POSTGRES_MAX_CONNECTIONS", "10")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")
	t.Setenv("MARKETDATA_RPS", "2.5")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9999", cfg.Server.Port)
	assert.Equal(t, 10, cfg.Database.Postgres.MaxConnections)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.Window)
	assert.Equal(t, 2.5, cfg.MarketData.RequestsPerSecond)
}

func TestLoadConfig_MalformedValuesFallBack(t *testing.T) {
	t.Setenv("POSTGRES_MAX_CONNECTIONS", "lots")
	t.Setenv("RATE_LIMIT_WINDOW", "soon")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.Database.Postgres.MaxConnections)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
}

func TestPostgresURL(t *testing.T) {
	cfg := PostgresConfig{
		Host: "db", Port: "5432", Database: "portfolio",
		User: "svc", Password: "secret",
	}

	assert.Equal(t, "postgres://svc:secret@db:5432/portfolio?sslmode=disable", cfg.PostgresURL())
}
