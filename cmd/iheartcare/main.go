package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"iheartcare/common/database"
	"iheartcare/common/logger"
	commonmqtt "iheartcare/common/mqtt"
	commonredis "iheartcare/common/redis"
	"iheartcare/internal/config"
	httpapi "iheartcare/internal/http"
	"iheartcare/internal/ingest"
	"iheartcare/internal/repository"
	"iheartcare/internal/service"
	"iheartcare/internal/store"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "iheartcare")
	if err != nil {
		log, _ = zap.NewProduction()
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Storage: PostgreSQL, or the in-memory store when it is disabled or unreachable.
	var db *sql.DB
	repos := repository.NewMemoryRepositories()
	if cfg.DBEnabled {
		if d, err := database.NewPostgresDB(&cfg.Database); err == nil {
			db = d
			repos = repository.NewPostgresRepositories(db)
			log.Info("DB enabled for iheartcare", zap.String("database", cfg.Database.Database))
		} else {
			log.Warn("DB enabled but connection failed, falling back to memory store", zap.Error(err))
		}
	} else {
		log.Warn("DB disabled, using memory store")
	}

	// Sessions and events: Redis, or memory sessions and dropped events.
	var redisClient *redis.Client
	var kv store.KV = store.NewMemoryKV()
	var events service.EventPublisher = service.NoopEventPublisher{}
	if cfg.RedisEnabled {
		c := commonredis.NewRedisClient(&cfg.Redis)
		if err := commonredis.Ping(ctx, c); err == nil {
			redisClient = c
			kv = store.NewRedisKV(c)
			events = service.NewRedisEventPublisher(c, cfg.Events.Stream, log)
			log.Info("Redis enabled for sessions and events", zap.String("addr", cfg.Redis.Addr))
		} else {
			_ = commonredis.Close(c)
			log.Warn("Redis enabled but unreachable, sessions kept in memory", zap.Error(err))
		}
	}
	sessions := store.NewKVSessionStore(kv, time.Duration(cfg.Auth.SessionTTLMinutes)*time.Minute)

	recorder := ingest.NewRecorder(repos.Devices, repos.Measurements, ingest.NewEvaluator(), events, log)
	services := service.NewServices(service.Dependencies{
		Repos:    repos,
		Sessions: sessions,
		Hasher:   service.NewPasswordHasher(cfg.Auth.BcryptCost),
		Events:   events,
		Fetcher:  ingest.NewDeviceClient(time.Duration(cfg.Device.HTTPTimeoutSeconds)*time.Second, log),
		Recorder: recorder,
		Logger:   log,
	})

	if cfg.Auth.SeedAdmin && !cfg.Auth.ShouldSeedAdmin() {
		log.Warn("SEED_ADMIN is set but ADMIN_PASSWORD is empty, administrator not seeded")
	}
	if cfg.Auth.ShouldSeedAdmin() {
		if _, err := services.Registration.EnsureAdmin(ctx, cfg.Auth.AdminUsername, cfg.Auth.AdminPassword); err != nil {
			log.Error("Failed to seed administrator", zap.Error(err))
		}
	}

	var mqttClient *commonmqtt.Client
	if cfg.MQTT.Enabled {
		mqttCfg := cfg.MQTT.MQTTConfig
		if mqttCfg.ClientID == "" {
			mqttCfg.ClientID = "iheartcare-" + uuid.NewString()
		}
		c, err := commonmqtt.NewClient(&mqttCfg, log)
		if err != nil {
			log.Warn("MQTT enabled but connection failed, device ingestion disabled", zap.Error(err))
		} else if err := ingest.NewMQTTConsumer(recorder, cfg.MQTT.Topic, log).Start(c); err != nil {
			log.Warn("MQTT subscription failed", zap.Error(err))
			c.Disconnect()
		} else {
			mqttClient = c
		}
	}

	router := httpapi.NewAPI(services, log)
	srv := service.NewServer(cfg.HTTP.Addr, router, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		log.Error("HTTP server stopped", zap.Error(err))
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
	if mqttClient != nil {
		mqttClient.Disconnect()
	}
	if redisClient != nil {
		_ = commonredis.Close(redisClient)
	}
	if db != nil {
		_ = database.Close(db)
	}
}
