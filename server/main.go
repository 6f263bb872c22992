package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/zrupay/zru-go/internal/api"
	"github.com/zrupay/zru-go/internal/config"
	"github.com/zrupay/zru-go/internal/constants"
	"github.com/zrupay/zru-go/internal/deduplication"
	"github.com/zrupay/zru-go/internal/logger"
	prometheus_monitoring "github.com/zrupay/zru-go/internal/monitoring"
	"github.com/zrupay/zru-go/internal/notification_database"
	"github.com/zrupay/zru-go/internal/notifications"
	"github.com/zrupay/zru-go/pkg/zru"
)

const (
	shutdownTimeout = 10 * time.Second
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("ZRU Notification Server - Version %s\n", constants.Version)

	configPath, err := config.GetConfigPath()
	if err != nil {
		fmt.Printf("Failed to get config path: %v\n", err)
		return constants.ConfigPathErr
	}

	err = config.LoadConfig(configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		return constants.ConfigLoadErr
	}
	cfg, err := config.GetConfig()
	if err != nil {
		fmt.Printf("Failed to get config: %v\n", err)
		return constants.ConfigGetErr
	}

	err = logger.InitLogger(&logger.Config{
		Level:      cfg.Log.Level,
		Filename:   cfg.Log.Filename,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	})
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		return constants.LoggerErr
	}
	defer logger.Sync()
	log := logger.Log

	log.Info("starting server",
		zap.String("config", configPath),
		zap.Bool("mocked", cfg.Mocked),
		zap.String("zru_base_url", cfg.ZRU.BaseURL),
		zap.Bool("postgres", cfg.Postgres.Enabled),
		zap.Bool("redis", cfg.Redis.Enabled),
	)

	var apiService api.ApiServicer
	if cfg.Mocked {
		apiService = api.NewMockedApiService()
	} else {
		zruClient, err := zru.New(cfg.ZRU.APIKey, cfg.ZRU.SecretKey, zru.Options{
			BaseURL:      cfg.ZRU.BaseURL,
			Timeout:      cfg.ZRU.Timeout,
			MaxRetries:   *cfg.ZRU.MaxRetries,
			RetryBackoff: cfg.ZRU.RetryBackoff,
			Logger:       log,
		})
		if err != nil {
			log.Error("failed to create ZRU client", zap.Error(err))
			return constants.ZRUClientErr
		}

		var notificationDatabaseService notification_database.Service
		if cfg.Postgres.Enabled {
			db, err := notification_database.New(
				ctx,
				cfg.Postgres.Username,
				cfg.Postgres.Password,
				cfg.Postgres.Host,
				cfg.Postgres.Database,
				cfg.Postgres.QueriesPath,
			)
			if err != nil {
				log.Error("failed to make notification database service", zap.Error(err))
				return constants.NotificationDatabaseErr
			}
			defer db.Close()
			notificationDatabaseService = db
		}

		var deduplicationService deduplication.Service
		if cfg.Redis.Enabled {
			dedup, err := deduplication.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.DedupTTL)
			if err != nil {
				log.Error("failed to make deduplication service", zap.Error(err))
				return constants.DeduplicationErr
			}
			defer dedup.Close()
			deduplicationService = dedup
		}

		notificationsService := notifications.New(
			zruClient,
			notificationDatabaseService,
			deduplicationService,
			log,
		)

		if cfg.Postgres.Enabled {
			notificationsService.WatchUnresolvedNotifications(ctx, cfg.Notifications.RetryWindow, cfg.Notifications.RetryInterval)
		}

		prometheus_monitoring.RecordMetrics(ctx, zruClient.Ping, cfg.Monitoring.StatusInterval)

		apiService = api.NewApiService(
			zruClient,
			notificationsService,
		)
	}

	router := api.NewRouter(apiService)

	// add Prometheus metrics to router
	router.Handle("/metrics", promhttp.Handler())

	hostString := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	server := http.Server{
		Addr:              hostString,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", hostString))
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err = <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("error starting server", zap.Error(err))
			return constants.ServerErr
		}
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err = server.Shutdown(shutdownCtx)
		if err != nil {
			log.Error("failed to shut down cleanly", zap.Error(err))
			return constants.ServerErr
		}
	}

	return constants.SuccessCode
}
