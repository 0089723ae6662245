package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xpolarzero/nightwatch/internal/domain"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("CRON_SECRET", "secret")
	t.Setenv("TWITTERAPI_API_KEY", "key")
	t.Setenv("TELEGRAM_API_ID", "12345")
	t.Setenv("TELEGRAM_API_HASH", "hash")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "5432", cfg.Database.Port)
	assert.Equal(t, 200, cfg.Sync.BatchSize)
	assert.Equal(t, time.Hour, cfg.Search.CacheTTL)
	assert.Equal(t, "8080", cfg.Service.Port)
	require.Len(t, cfg.Sync.Sources, 2)
	assert.Equal(t, domain.PlatformTwitter, cfg.Sync.Sources[0].Platform)
}

func TestLoad_MissingSecretFails(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CRON_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestParseSources(t *testing.T) {
	sources, err := parseSources("twitter:zachxbt, telegram:investigations")
	require.NoError(t, err)
	assert.Equal(t, []domain.Source{
		{Platform: domain.PlatformTwitter, Handle: "zachxbt"},
		{Platform: domain.PlatformTelegram, Handle: "investigations"},
	}, sources)
}

func TestParseSources_RejectsMalformedEntries(t *testing.T) {
	_, err := parseSources("twitter")
	assert.Error(t, err)

	_, err = parseSources("mastodon:someone")
	assert.Error(t, err)
}

func TestGetDSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "db",
		Port:     "5433",
		User:     "u",
		Password: "p",
		DBName:   "archive",
		SSLMode:  "require",
	}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=archive sslmode=require", cfg.GetDSN())
}
