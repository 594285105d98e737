package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/lms-backend/internal/data/db"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "a")
	t.Setenv("JWT_REFRESH_SECRET", "b")
	t.Setenv("PORT", "")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", "")
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4318")
	t.Setenv("OTEL_SAMPLER_RATIO", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "5001", cfg.Port)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTokenTTL)
	assert.Equal(t, db.Config{Driver: db.DriverSQLite, DSN: "lms.db"}, cfg.DB)
	assert.Equal(t, "b", cfg.SessionSecret)
	assert.False(t, cfg.Production())
	assert.True(t, cfg.OtelEnabled)
	assert.Equal(t, "collector:4318", cfg.OtelEndpoint)
	assert.Equal(t, 0.1, cfg.OtelSampleRatio)
}

func TestLoadConfigRequiresDistinctSecrets(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("JWT_REFRESH_SECRET", "b")
	_, err := LoadConfig()
	assert.Error(t, err)

	t.Setenv("JWT_SECRET", "same")
	t.Setenv("JWT_REFRESH_SECRET", "same")
	_, err = LoadConfig()
	assert.Error(t, err)
}

func TestDBConfigPicksDockerURLInProduction(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("DATABASE_URL_LOCAL", "postgres://local")
	t.Setenv("DATABASE_URL_DOCKER", "postgres://docker")

	assert.Equal(t, "postgres://local", dbConfig(false).DSN)
	assert.Equal(t, "postgres://docker", dbConfig(true).DSN)
	assert.Equal(t, db.DriverPostgres, dbConfig(true).Driver)
}
