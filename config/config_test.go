package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("LOAN_PERIOD_DAYS", "")
	t.Setenv("SEED_FILE", "")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, DriverMemory, cfg.StoreDriver)
	assert.Equal(t, "builtin", cfg.SeedFile)
	assert.Equal(t, 14*24*time.Hour, cfg.LoanPeriod)
	assert.Equal(t, 3*24*time.Hour, cfg.DueSoonWindow)
	assert.Equal(t, 5, cfg.LoanLimit)
	assert.Equal(t, time.Hour, cfg.SweepInterval)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "SQLite")
	t.Setenv("LOAN_PERIOD_DAYS", "7")
	t.Setenv("LOAN_LIMIT", "3")
	t.Setenv("SWEEP_INTERVAL", "15m")
	t.Setenv("DEMO_LOGIN", "true")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, cfg.StoreDriver)
	assert.Empty(t, cfg.SeedFile)
	assert.Equal(t, 7*24*time.Hour, cfg.LoanPeriod)
	assert.Equal(t, 3, cfg.LoanLimit)
	assert.Equal(t, 15*time.Minute, cfg.SweepInterval)
	assert.True(t, cfg.DemoLogin)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("LOAN_LIMIT", "many")
	t.Setenv("SWEEP_INTERVAL", "-1s")
	t.Setenv("DEMO_LOGIN", "maybe")

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOAN_LIMIT")
	assert.Contains(t, err.Error(), "SWEEP_INTERVAL")
	assert.Contains(t, err.Error(), "DEMO_LOGIN")
}

func TestValidateEnv(t *testing.T) {
	t.Setenv("STORE_DRIVER", DriverPostgres)
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("POSTGRES_DSN", "")
	cfg, err := Load()
	require.NoError(t, err)

	err = ValidateEnv(cfg, zap.NewNop())
	assert.ErrorContains(t, err, "POSTGRES_DSN")

	t.Setenv("POSTGRES_DSN", "postgres://localhost/library")
	cfg, err = Load()
	require.NoError(t, err)
	assert.NoError(t, ValidateEnv(cfg, zap.NewNop()))
}

func TestValidateEnv_DefaultSecret(t *testing.T) {
	t.Setenv("STORE_DRIVER", DriverMemory)
	t.Setenv("JWT_SECRET", defaultJWTSecret)
	cfg, err := Load()
	require.NoError(t, err)

	assert.ErrorContains(t, ValidateEnv(cfg, zap.NewNop()), "JWT_SECRET")
}

func TestValidateEnv_UnknownDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "redis")
	t.Setenv("JWT_SECRET", "s3cret")
	cfg, err := Load()
	require.NoError(t, err)

	assert.ErrorContains(t, ValidateEnv(cfg, zap.NewNop()), "STORE_DRIVER")
}
