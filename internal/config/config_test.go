package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
)

func TestLoad_DefaultValues(t *testing.T) {
	os.Clearenv()

	cfg := Load()
	assert.NotNil(t, cfg)

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.True(t, cfg.DBEnabled)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "iheartcare", cfg.Database.Database)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, 10, cfg.Database.MaxConns)

	assert.True(t, cfg.RedisEnabled)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 0, cfg.Redis.DB)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)

	assert.Equal(t, 720, cfg.Auth.SessionTTLMinutes)
	assert.Equal(t, bcrypt.DefaultCost, cfg.Auth.BcryptCost)
	assert.True(t, cfg.Auth.SeedAdmin)
	assert.Equal(t, "admin", cfg.Auth.AdminUsername)
	assert.Empty(t, cfg.Auth.AdminPassword)
	assert.False(t, cfg.Auth.ShouldSeedAdmin())

	assert.Equal(t, "iheartcare:events", cfg.Events.Stream)
	assert.False(t, cfg.MQTT.Enabled)
	assert.Equal(t, "iheartcare/devices/+/measurements", cfg.MQTT.Topic)
	assert.Equal(t, 10, cfg.Device.HTTPTimeoutSeconds)
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	os.Clearenv()
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("DB_ENABLED", "false")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("REDIS_ADDR", "redis.internal:6380")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("SESSION_TTL_MINUTES", "30")
	t.Setenv("BCRYPT_COST", "4")
	t.Setenv("SEED_ADMIN", "false")
	t.Setenv("MQTT_ENABLED", "true")
	t.Setenv("MQTT_BROKER", "tcp://broker:1883")

	cfg := Load()

	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.False(t, cfg.DBEnabled)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, "redis.internal:6380", cfg.Redis.Addr)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, 30, cfg.Auth.SessionTTLMinutes)
	assert.Equal(t, 4, cfg.Auth.BcryptCost)
	assert.False(t, cfg.Auth.SeedAdmin)
	assert.True(t, cfg.MQTT.Enabled)
	assert.Equal(t, "tcp://broker:1883", cfg.MQTT.Broker)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	os.Clearenv()
	t.Setenv("DB_PORT", "not-a-port")
	t.Setenv("BCRYPT_COST", "99")

	cfg := Load()

	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, bcrypt.DefaultCost, cfg.Auth.BcryptCost)
}

func TestAuthConfig_ShouldSeedAdmin(t *testing.T) {
	os.Clearenv()
	t.Setenv("ADMIN_PASSWORD", "s3cret-admin")

	cfg := Load()
	assert.True(t, cfg.Auth.ShouldSeedAdmin())

	cfg.Auth.SeedAdmin = false
	assert.False(t, cfg.Auth.ShouldSeedAdmin())

	assert.False(t, AuthConfig{SeedAdmin: true}.ShouldSeedAdmin())
}
