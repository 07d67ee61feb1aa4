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

	"github.com/gdg-garage/checkin-api/internal/attendance"
	"github.com/gdg-garage/checkin-api/internal/auth"
	"github.com/gdg-garage/checkin-api/internal/cache"
	"github.com/gdg-garage/checkin-api/internal/config"
	"github.com/gdg-garage/checkin-api/internal/database"
	"github.com/gdg-garage/checkin-api/internal/handlers"
	"github.com/gdg-garage/checkin-api/internal/logging"
	"github.com/gdg-garage/checkin-api/internal/metrics"
	"github.com/gdg-garage/checkin-api/internal/notifier"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	// Load Configuration
	cfg := config.LoadConfig()
	log := logging.New(cfg.LogLevel, cfg.LogPretty)

	// Connect to Database
	db := database.Connect(cfg)
	if err := database.SeedAPIKey(db, cfg.BootstrapAPIKey); err != nil {
		log.Fatal().Err(err).Msg("failed to seed bootstrap api key")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Optional collaborators
	opts := attendance.Options{
		Logger:         log,
		Metrics:        metrics.New(prometheus.DefaultRegisterer),
		CouponAttempts: cfg.CouponIssueAttempts,
	}

	redisClient, err := cache.Connect(ctx, cfg.RedisURL)
	if err != nil {
		log.Warn().Err(err).Msg("stats cache disabled")
	}
	if redisClient != nil {
		defer redisClient.Close()
		opts.Cache = cache.NewRedisStats(redisClient, cfg.StatsCacheTTL)
	}

	var targets notifier.Multi
	if cfg.DiscordBotToken != "" {
		discordNotifier, err := notifier.NewDiscordFromToken(cfg.DiscordBotToken, cfg.DiscordNotificationsChannelID)
		if err != nil {
			log.Warn().Err(err).Msg("discord notifier not initialized")
		} else {
			targets = append(targets, discordNotifier)
		}
	}
	if cfg.AMQPURL != "" {
		publisher, err := notifier.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange, log)
		if err != nil {
			log.Warn().Err(err).Msg("amqp publisher not initialized")
		} else {
			defer publisher.Close()
			targets = append(targets, publisher)
		}
	}
	if len(targets) > 0 {
		opts.Notifier = targets
	}

	svc := attendance.NewService(db, opts)
	guard := auth.NewGuard(db, cfg.JWTSecret, cfg.StaffTokenTTL, log)
	if cfg.JWTSecret == "" {
		log.Warn().Msg("JWT_SECRET not set, staff tokens disabled")
	}

	// Initialize Router
	r := chi.NewRouter()

	// Register Routes
	handlers.RegisterRoutes(r, log, prometheus.DefaultGatherer,
		handlers.NewEventHandler(svc, guard, log),
		handlers.NewRegistrationHandler(svc, guard, log),
		handlers.NewCouponHandler(svc, log),
		handlers.NewAPIKeyHandler(db, guard),
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("graceful shutdown failed")
		}
	}()

	// Start Server
	log.Info().Str("port", cfg.Port).Str("driver", cfg.DatabaseDriver).Msg("starting server")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("failed to start server")
	}
	log.Info().Msg("server stopped")
}
