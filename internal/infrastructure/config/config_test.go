package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnvKeys = []string{
	"DOCS_APP_NAME",
	"DOCS_APP_ENV",
	"DOCS_APP_PORT",
	"DOCS_DATABASE_DRIVER",
	"DOCS_DATABASE_HOST",
	"DOCS_DATABASE_PORT",
	"DOCS_DATABASE_PASSWORD",
	"DOCS_DATABASE_SSLMODE",
	"DOCS_DATABASE_MAX_OPEN_CONNS",
	"DOCS_DATABASE_MAX_IDLE_CONNS",
	"DOCS_JWT_SECRET",
	"DOCS_JWT_ALLOW_HEADER_ACTOR",
	"DOCS_NUMBERING_MAX_ATTEMPTS",
	"DOCS_STORAGE_TYPE",
	"DOCS_MAIL_ENABLED",
	"DOCS_MAIL_HOST",
	"DOCS_SESSION_TTL",
}

// clearEnv blanks every key; viper ignores empty environment values.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configEnvKeys {
		t.Setenv(k, "")
	}
}

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "bizdocs", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "http://localhost:8080", cfg.App.PublicBaseURL)
		assert.Equal(t, "postgres", cfg.Database.Driver)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "bizdocs", cfg.Database.DBName)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Numbering.MaxAttempts)
		assert.Equal(t, "stub", cfg.Storage.Type)
		assert.Equal(t, 2*time.Hour, cfg.Session.TTL)
		assert.Equal(t, "admin", cfg.JWT.AdminRole)
		assert.Equal(t, "/metrics", cfg.Metrics.Path)
	})

	t.Run("loads values from environment variables with DOCS prefix", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("DOCS_APP_NAME", "docs-test")
		t.Setenv("DOCS_APP_PORT", "9000")
		t.Setenv("DOCS_DATABASE_DRIVER", "sqlite")
		t.Setenv("DOCS_DATABASE_HOST", "db.local")
		t.Setenv("DOCS_NUMBERING_MAX_ATTEMPTS", "3")
		t.Setenv("DOCS_SESSION_TTL", "30m")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "docs-test", cfg.App.Name)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "sqlite", cfg.Database.Driver)
		assert.Equal(t, "db.local", cfg.Database.Host)
		assert.Equal(t, 3, cfg.Numbering.MaxAttempts)
		assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
	})

	t.Run("rejects unknown database driver", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("DOCS_DATABASE_DRIVER", "mysql")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.driver")
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("DOCS_DATABASE_MAX_OPEN_CONNS", "10")
		t.Setenv("DOCS_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("rejects unknown storage type", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("DOCS_STORAGE_TYPE", "ftp")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage.type")
	})

	t.Run("mail requires a host when enabled", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("DOCS_MAIL_ENABLED", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "mail.host")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	setValidProductionBase := func(t *testing.T) {
		clearEnv(t)
		t.Setenv("DOCS_APP_ENV", "production")
		t.Setenv("DOCS_JWT_SECRET", "this-is-a-very-secure-jwt-secret-key-32chars")
		t.Setenv("DOCS_DATABASE_PASSWORD", "secure-password")
		t.Setenv("DOCS_DATABASE_SSLMODE", "require")
	}

	t.Run("passes validation with valid production config", func(t *testing.T) {
		setValidProductionBase(t)

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})

	t.Run("requires jwt.secret at least 32 characters in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("DOCS_JWT_SECRET", "short-secret")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least 32 characters")
	})

	t.Run("refuses header actors in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("DOCS_JWT_ALLOW_HEADER_ACTOR", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "allow_header_actor")
	})

	t.Run("requires SSL enabled in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("DOCS_DATABASE_SSLMODE", "disable")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.sslmode cannot be 'disable' in production")
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "testuser",
			Password: "testpass",
			DBName:   "testdb",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost:5432")
		assert.Contains(t, dsn, "testuser")
		assert.Contains(t, dsn, "testdb")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{Host: "localhost", Port: 5432, User: "user", Password: "pass@word#123", DBName: "db", SSLMode: "disable"}
		assert.Contains(t, cfg.DSN(), "pass%40word%23123")
	})
}

func TestRedisConfig_Addr(t *testing.T) {
	cfg := RedisConfig{Host: "cache", Port: 6380}
	assert.Equal(t, "cache:6380", cfg.Addr())
}
