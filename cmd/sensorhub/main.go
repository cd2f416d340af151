package main

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/rickhiram/Sensor-Dashboard/internal/alert"
	"github.com/rickhiram/Sensor-Dashboard/internal/config"
	httpapi "github.com/rickhiram/Sensor-Dashboard/internal/http"
	"github.com/rickhiram/Sensor-Dashboard/internal/ingest"
	"github.com/rickhiram/Sensor-Dashboard/internal/logger"
	"github.com/rickhiram/Sensor-Dashboard/internal/mqtt"
	"github.com/rickhiram/Sensor-Dashboard/internal/repository"
	serialport "github.com/rickhiram/Sensor-Dashboard/internal/serial"
	"github.com/rickhiram/Sensor-Dashboard/internal/service"
	"github.com/rickhiram/Sensor-Dashboard/internal/store"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, "sensorhub")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Repositories: postgres when available, memory fallback otherwise. The
	// engine must keep ingesting on a Pi with no database.
	var (
		db           *sql.DB
		sensorsRepo  repository.SensorsRepo
		projectsRepo repository.ProjectsRepo
		readingsRepo store.ReadingsRepo
	)
	if cfg.DBEnabled {
		if d, derr := openDB(ctx, cfg); derr == nil {
			db = d
			log.Info("database connected", zap.String("host", cfg.Database.Host))
		} else {
			log.Warn("database unavailable, falling back to memory repositories", zap.Error(derr))
		}
	}
	if db != nil {
		sensorsRepo = repository.NewPostgresSensorsRepo(db)
		projectsRepo = repository.NewPostgresProjectsRepo(db)
		readingsRepo = repository.NewPostgresReadingsRepo(db)
	} else {
		sensorsRepo = repository.NewMemorySensorsRepo()
		projectsRepo = repository.NewMemoryProjectsRepo()
		readingsRepo = repository.NewMemoryReadingsRepo()
	}

	registry := service.NewSensorRegistry(sensorsRepo)
	if err := registry.Load(ctx); err != nil {
		log.Fatal("failed to load sensor registry", zap.Error(err))
	}

	// Optional redis mirror of each sensor's current value.
	var kv store.KV
	var redisClient *redis.Client
	if cfg.RedisEnabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		kv = store.NewRedisKV(redisClient)
	}

	series := store.NewTimeSeries(store.NewCache(cfg.Store.WindowSize), readingsRepo, kv, cfg.Store.WriteTimeout, log)

	// Optional MQTT publisher for alert transitions.
	var pubs []alert.Publisher
	var mqttPub *mqtt.Publisher
	if cfg.MQTT.Enabled {
		p, perr := mqtt.NewPublisher(mqtt.Config{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID,
			Username: cfg.MQTT.Username,
			Password: cfg.MQTT.Password,
			Topic:    cfg.MQTT.Topic,
		}, log)
		if perr != nil {
			log.Warn("MQTT publisher unavailable, alerts stay local", zap.Error(perr))
		} else {
			mqttPub = p
			pubs = append(pubs, p)
		}
	}
	alerts := alert.NewEvaluator(log, pubs...)

	// Ingestion loop. A missing device is not fatal: the loop keeps retrying
	// and the API serves whatever is already stored.
	resolver := serialport.NewResolver(cfg.Serial.Device, cfg.Serial.Ports, cfg.Serial.Baud, cfg.Serial.ReadTimeout, log)
	parser := ingest.NewParser(cfg.Serial.Delimiter, registry)
	owner := ingest.NewOwner(cfg.Serial.LockFile)
	loop := ingest.NewLoop(resolver, parser, registry, series, alerts, owner,
		cfg.Ingest.BackoffMin, cfg.Ingest.BackoffMax, log)

	if err := loop.Start(ctx); err != nil {
		if errors.Is(err, ingest.ErrAlreadyOwned) {
			log.Fatal("another ingestion process holds the serial device lock",
				zap.String("lock_file", cfg.Serial.LockFile))
		}
		log.Fatal("failed to start ingestion loop", zap.Error(err))
	}

	admin := service.NewAdminService(registry, sensorsRepo, projectsRepo, log)
	query := service.NewQueryService(registry, series, alerts, projectsRepo)

	router := httpapi.NewRouter(log)
	router.RegisterSensorRoutes(httpapi.NewSensorHandler(query, admin, log))
	router.RegisterProjectRoutes(httpapi.NewProjectHandler(query, admin, log))
	router.RegisterStatusRoutes(httpapi.NewStatusHandler(loop))

	srv := service.NewServer(cfg.HTTP.Addr, router, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("shutdown signal received", zap.String("signal", sig.String()))
	case serr := <-errCh:
		log.Error("HTTP server exited", zap.Error(serr))
	}

	cancel()
	loop.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)

	if mqttPub != nil {
		mqttPub.Close()
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if db != nil {
		_ = db.Close()
	}
}

func openDB(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := repository.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
