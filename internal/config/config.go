package config

import (
	"os"
	"strconv"

	commoncfg "iheartcare/common/config"

	"golang.org/x/crypto/bcrypt"
)

// Config iheartcare HTTP service configuration.
type Config struct {
	HTTP struct {
		Addr string
	}
	DBEnabled    bool
	Database     commoncfg.DatabaseConfig
	RedisEnabled bool
	Redis        commoncfg.RedisConfig
	Log          struct {
		Level  string
		Format string
	}
	Auth   AuthConfig
	Events struct {
		Stream string
	}
	MQTT   MQTTConfig
	Device struct {
		HTTPTimeoutSeconds int
	}
}

// AuthConfig controls sessions, hashing and the bootstrap administrator.
type AuthConfig struct {
	SessionTTLMinutes int
	BcryptCost        int
	SeedAdmin         bool
	AdminUsername     string
	AdminPassword     string
}

// MQTTConfig device measurement ingestion (disabled by default).
type MQTTConfig struct {
	Enabled bool
	Topic   string
	commoncfg.MQTTConfig
}

// ShouldSeedAdmin seeding needs an explicit ADMIN_PASSWORD; there is no built-in default.
func (a AuthConfig) ShouldSeedAdmin() bool {
	return a.SeedAdmin && a.AdminPassword != ""
}

func Load() *Config {
	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")

	// Default to true: if the DB is unreachable the service falls back to the in-memory store.
	cfg.DBEnabled = getEnv("DB_ENABLED", "true") == "true"
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = parseInt(getEnv("DB_PORT", "5432"), 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "iheartcare")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = parseInt(getEnv("DB_MAX_CONNS", "10"), 10)
	cfg.Database.MaxIdle = cfg.Database.MaxConns / 2

	cfg.RedisEnabled = getEnv("REDIS_ENABLED", "true") == "true"
	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = parseInt(getEnv("REDIS_DB", "0"), 0)

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	cfg.Auth.SessionTTLMinutes = parseInt(getEnv("SESSION_TTL_MINUTES", "720"), 720)
	cfg.Auth.BcryptCost = parseInt(getEnv("BCRYPT_COST", strconv.Itoa(bcrypt.DefaultCost)), bcrypt.DefaultCost)
	if cfg.Auth.BcryptCost < bcrypt.MinCost || cfg.Auth.BcryptCost > bcrypt.MaxCost {
		cfg.Auth.BcryptCost = bcrypt.DefaultCost
	}
	cfg.Auth.SeedAdmin = getEnv("SEED_ADMIN", "true") == "true"
	cfg.Auth.AdminUsername = getEnv("ADMIN_USERNAME", "admin")
	cfg.Auth.AdminPassword = getEnv("ADMIN_PASSWORD", "")

	cfg.Events.Stream = getEnv("EVENTS_STREAM", "iheartcare:events")

	cfg.MQTT.Enabled = getEnv("MQTT_ENABLED", "false") == "true"
	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "tcp://localhost:1883")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "")
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")
	cfg.MQTT.QoS = 1
	cfg.MQTT.Topic = getEnv("MQTT_TOPIC", "iheartcare/devices/+/measurements")

	cfg.Device.HTTPTimeoutSeconds = parseInt(getEnv("DEVICE_HTTP_TIMEOUT_SECONDS", "10"), 10)

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}
