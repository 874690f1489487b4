package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{
		"PORT", "AQUARIUM_API_ADDR", "AQUARIUM_STORE", "DATABASE_URL", "MONGODB_URI",
		"MONGODB_DATABASE", "JWT_SECRET", "AQUARIUM_SESSION_TTL", "ALLOWED_ORIGINS",
		"AQUARIUM_SECURE_COOKIES", "AQUARIUM_LOGIN_PER_MINUTE", "AQUARIUM_MIGRATE_DRY_RUN",
		"TANK_API_BASE_URL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadAPIDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := LoadAPIFromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, StoreMemory, cfg.StoreDriver)
	assert.Equal(t, 30*24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 10*time.Minute, cfg.TicketTTL)
	assert.Equal(t, 5.0, cfg.LoginPerMinute)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.AllowedOrigins)
}

func TestLoadAPIOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DATABASE_URL", "postgres://localhost/aquarium")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("AQUARIUM_SESSION_TTL", "not-a-duration")
	t.Setenv("AQUARIUM_SECURE_COOKIES", "true")

	cfg, err := LoadAPIFromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, StorePostgres, cfg.StoreDriver)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, 30*24*time.Hour, cfg.SessionTTL)
	assert.True(t, cfg.SecureCookies)
}

func TestLoadAPIRequiresSecretAndStoreURL(t *testing.T) {
	clearEnv(t)
	_, err := LoadAPIFromEnv()
	assert.ErrorContains(t, err, "JWT_SECRET")

	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("AQUARIUM_STORE", "mongo")
	_, err = LoadAPIFromEnv()
	assert.ErrorContains(t, err, "MONGODB_URI")

	t.Setenv("AQUARIUM_STORE", "redis")
	_, err = LoadAPIFromEnv()
	assert.ErrorContains(t, err, "unknown AQUARIUM_STORE")
}

func TestLoadMigrate(t *testing.T) {
	clearEnv(t)
	_, err := LoadMigrateFromEnv()
	assert.Error(t, err)

	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	t.Setenv("AQUARIUM_MIGRATE_DRY_RUN", "1")
	cfg, err := LoadMigrateFromEnv()
	require.NoError(t, err)
	assert.Equal(t, StoreMongo, cfg.StoreDriver)
	assert.Equal(t, "aquarium", cfg.MongoDatabase)
	assert.True(t, cfg.DryRun)
}

func TestLoadCLITrimsSlash(t *testing.T) {
	clearEnv(t)
	assert.Equal(t, "http://localhost:8080", LoadCLIFromEnv().APIBaseURL)
	t.Setenv("TANK_API_BASE_URL", "https://tank.example/")
	assert.Equal(t, "https://tank.example", LoadCLIFromEnv().APIBaseURL)
}
