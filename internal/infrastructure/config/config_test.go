package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "catalog-bridge", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "8080", cfg.App.Port)
	assert.False(t, cfg.IsProduction())

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 20, cfg.Database.MaxOpenConns)

	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, 6379, cfg.Redis.Port)

	assert.Equal(t, "getItems", cfg.Source.ItemQuery)
	assert.Equal(t, 250, cfg.Source.PageSize)
	assert.Equal(t, 30, cfg.Source.TimeoutSeconds)
	assert.Empty(t, cfg.Source.BaseURL)

	assert.Equal(t, 25, cfg.Sync.BatchSize)
	assert.Equal(t, 50, cfg.Sync.StaleBatchSize)
	assert.False(t, cfg.Sync.CronEnabled)
	assert.Equal(t, time.Hour, cfg.Sync.CronInterval)

	assert.Equal(t, "gallery", cfg.Media.GalleryRoot)
	assert.Equal(t, 15*time.Second, cfg.HTTP.ReadTimeout)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("CATBRIDGE_APP_ENV", "production")
	t.Setenv("CATBRIDGE_SOURCE_BASE_URL", "https://erp.example.com/s1services")
	t.Setenv("CATBRIDGE_SOURCE_ITEM_QUERY", "getWebItems")
	t.Setenv("CATBRIDGE_SYNC_BATCH_SIZE", "100")
	t.Setenv("CATBRIDGE_SYNC_CRON_ENABLED", "true")
	t.Setenv("CATBRIDGE_SYNC_CRON_INTERVAL", "15m")
	t.Setenv("CATBRIDGE_REDIS_ENABLED", "true")
	t.Setenv("CATBRIDGE_DATABASE_PASSWORD", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "https://erp.example.com/s1services", cfg.Source.BaseURL)
	assert.Equal(t, "getWebItems", cfg.Source.ItemQuery)
	assert.Equal(t, 100, cfg.Sync.BatchSize)
	assert.True(t, cfg.Sync.CronEnabled)
	assert.Equal(t, 15*time.Minute, cfg.Sync.CronInterval)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "secret", cfg.Database.Password)
	assert.Contains(t, cfg.Database.DSN(), "password=secret")
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	t.Setenv("CATBRIDGE_SYNC_BATCH_SIZE", "-1")
	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, cfg.Validate())

	cfg.Source.PageSize = -1
	assert.Error(t, cfg.Validate())
	cfg.Source.PageSize = 0

	cfg.Source.BaseURL = "ftp://erp.example.com"
	assert.Error(t, cfg.Validate())

	cfg.Source.BaseURL = "http://erp.example.com"
	assert.NoError(t, cfg.Validate())
}

func TestDatabaseDSN(t *testing.T) {
	c := DatabaseConfig{
		Host: "db", Port: 5432, User: "u", Password: "p", DBName: "cat", SSLMode: "disable",
	}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=cat sslmode=disable", c.DSN())
}
