package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ratingwatch/internal/app/rating/config"
	"ratingwatch/internal/app/rating/extractor"
	"ratingwatch/internal/app/rating/fetcher"
	"ratingwatch/internal/app/rating/handler"
	"ratingwatch/internal/app/rating/infrastructure/messaging"
	"ratingwatch/internal/app/rating/processor"
	"ratingwatch/internal/app/rating/repository"
	"ratingwatch/internal/app/rating/service"
	"ratingwatch/pkg/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logger.Init("rating-service", logLevel)

	ctx := context.Background()

	pool, err := connectDB(ctx, cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	logger.Info().Str("database", cfg.Database.DBName).Msg("Connected to PostgreSQL")

	snapshotRepo := repository.NewSnapshotRepository(pool)

	// Схема создается и при старте, чтобы первый же запрос чтения
	// не платил за provisioning
	if err := snapshotRepo.EnsureSchema(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Failed to provision database schema")
	}

	pageFetcher := fetcher.NewPageFetcher(cfg.Source.UserAgent, cfg.Source.TimeoutSec)
	snapshotExtractor := extractor.NewExtractor()

	var publisher service.EventPublisher
	if cfg.Kafka.Enabled {
		kafkaProducer := messaging.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer kafkaProducer.Close()
		publisher = kafkaProducer
		logger.Info().Str("topic", cfg.Kafka.Topic).Msg("Initialized Kafka producer")
	}

	ratingService := service.NewRatingService(
		pageFetcher,
		snapshotExtractor,
		snapshotRepo,
		publisher,
		cfg.Source.URL,
	)

	cronScheduler := processor.NewCronScheduler(ratingService)
	if err := cronScheduler.Start(ctx, cfg.Cron.Schedule); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start cron scheduler")
	}
	defer cronScheduler.Stop()

	ratingHandler := handler.NewRatingHandler(ratingService, cfg.Cron.Secret)
	router := handler.SetupRoutes(ratingHandler)

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("address", cfg.Server.Address()).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	// Graceful shutdown по SIGINT/SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down rating-service")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	}

	logger.Info().Msg("rating-service stopped gracefully")
}

// connectDB устанавливает соединение с PostgreSQL с retry logic
// для устойчивости при запуске в Docker
func connectDB(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool
	var err error

	for i := 0; i < 10; i++ {
		pool, err = pgxpool.New(ctx, cfg.DSN())
		if err == nil {
			if pingErr := pool.Ping(ctx); pingErr == nil {
				return pool, nil
			} else {
				err = pingErr
				pool.Close()
			}
		}
		logger.Warn().Err(err).Int("attempt", i+1).Msg("Failed to connect to database, retrying")
		time.Sleep(3 * time.Second)
	}

	return nil, fmt.Errorf("failed to connect after 10 attempts: %w", err)
}
