package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/parleychat/parley/internal/api"
	"github.com/parleychat/parley/internal/auth"
	"github.com/parleychat/parley/internal/chat"
	"github.com/parleychat/parley/internal/config"
	"github.com/parleychat/parley/internal/realtime"
	"github.com/parleychat/parley/internal/store"
	"github.com/parleychat/parley/internal/upload"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	var logger zerolog.Logger
	if cfg.IsDevelopment() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Logger()
	} else {
		logger = zerolog.New(os.Stdout).
			With().
			Timestamp().
			Logger()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize Redis store
	st, err := store.New(ctx, cfg.RedisURL, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection failed")
	}
	defer st.Close()
	if st.Configured() {
		logger.Info().Msg("connected to Redis")
	} else {
		logger.Warn().Msg("REDIS_URL not set, persistence disabled")
	}

	// Services
	authSvc := auth.NewService(st, logger)
	chatSvc := chat.NewService(st, logger)

	// Seed the admin account
	if st.Configured() {
		if err := authSvc.EnsureAdmin(ctx, cfg.AdminPassword); err != nil {
			logger.Error().Err(err).Msg("admin seeding failed")
		}
	}

	// File uploads
	uploads, err := upload.NewLocalStorage(cfg.UploadDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("upload directory unavailable")
	}

	// Realtime hub
	hub := realtime.NewHub(st, logger)
	go func() {
		if err := hub.Run(ctx); err != nil {
			logger.Error().Err(err).Msg("realtime hub stopped")
		}
	}()

	// Create router
	router := api.NewRouter(api.Deps{
		Logger:        logger,
		Store:         st,
		Auth:          authSvc,
		Chat:          chatSvc,
		Hub:           hub,
		Uploads:       uploads,
		SecureCookies: !cfg.IsDevelopment(),
	})

	// Create server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("env", cfg.Env).
			Msg("starting Parley server")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server...")

	// Stop the hub's subscriptions before draining connections.
	cancel()

	// Graceful shutdown with 30 second timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server stopped")
}
