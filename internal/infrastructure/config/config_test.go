package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	// Save original env vars and restore after tests
	originalEnv := map[string]string{
		"GRANTFLOW_APP_NAME":          os.Getenv("GRANTFLOW_APP_NAME"),
		"GRANTFLOW_APP_ENV":           os.Getenv("GRANTFLOW_APP_ENV"),
		"GRANTFLOW_APP_PORT":          os.Getenv("GRANTFLOW_APP_PORT"),
		"GRANTFLOW_DATABASE_HOST":     os.Getenv("GRANTFLOW_DATABASE_HOST"),
		"GRANTFLOW_DATABASE_PASSWORD": os.Getenv("GRANTFLOW_DATABASE_PASSWORD"),
		"GRANTFLOW_DATABASE_SSLMODE":  os.Getenv("GRANTFLOW_DATABASE_SSLMODE"),
		"GRANTFLOW_BANK_BASE_URL":     os.Getenv("GRANTFLOW_BANK_BASE_URL"),
		"GRANTFLOW_JWT_SECRET":        os.Getenv("GRANTFLOW_JWT_SECRET"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	clearEnv := func() {
		for k := range originalEnv {
			os.Unsetenv(k)
		}
	}

	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv()

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "grantflow-backend", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "grantflow", cfg.Database.DBName)
		assert.Equal(t, "disable", cfg.Database.SSLMode)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, "http://localhost:9090", cfg.Bank.BaseURL)
		assert.Equal(t, "PLATFORM_FUNDING", cfg.Bank.FundingAccount)
		assert.False(t, cfg.IsProduction())
	})

	t.Run("env vars override defaults", func(t *testing.T) {
		clearEnv()
		os.Setenv("GRANTFLOW_APP_PORT", "9999")
		os.Setenv("GRANTFLOW_DATABASE_HOST", "db.internal")
		os.Setenv("GRANTFLOW_BANK_BASE_URL", "https://bank.example.com")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "9999", cfg.App.Port)
		assert.Equal(t, "db.internal", cfg.Database.Host)
		assert.Equal(t, "https://bank.example.com", cfg.Bank.BaseURL)
	})

	t.Run("production requires jwt secret and db password", func(t *testing.T) {
		clearEnv()
		os.Setenv("GRANTFLOW_APP_ENV", "production")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt.secret")
	})

	t.Run("production rejects short jwt secret", func(t *testing.T) {
		clearEnv()
		os.Setenv("GRANTFLOW_APP_ENV", "production")
		os.Setenv("GRANTFLOW_JWT_SECRET", "short")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least 32 characters")
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "secret",
		DBName:   "grantflow",
		SSLMode:  "disable",
	}
	assert.Equal(t,
		"host=localhost port=5432 user=postgres password=secret dbname=grantflow sslmode=disable",
		d.DSN())
}
