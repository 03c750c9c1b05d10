package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/dvloznov/statement-importer/internal/api"
	"github.com/dvloznov/statement-importer/internal/app"
	"github.com/dvloznov/statement-importer/internal/jobs/inmemory"
	"github.com/dvloznov/statement-importer/internal/logger"
	"github.com/rs/zerolog"
)

func main() {
	// Parse command-line flags
	var (
		port    = flag.Int("port", 0, "HTTP server port (defaults to server.port)")
		envFile = flag.String("env", ".env", "Env file to load before reading the config")
	)
	flag.Parse()

	cfg, log, err := app.Bootstrap(*envFile)
	if err != nil {
		fallback := zerolog.New(os.Stderr)
		fallback.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	ctx := logger.WithContext(context.Background(), log)

	a, err := app.New(ctx, cfg, app.Options{})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer a.Close()

	// Initialize job infrastructure
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, jobStore)

	// Start worker in background to process jobs
	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	log.Info().Msg("Starting job worker")
	if err := jobQueue.Start(workerCtx, a.HandleJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job worker")
	}

	handler := api.NewRouter(api.RouterConfig{
		App:       a,
		Publisher: jobQueue,
		Jobs:      jobStore,
		Log:       log,
	})

	addr := ":" + strconv.Itoa(cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("addr", addr).Str("store", cfg.Store.Driver).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Stop job queue and wait for in-flight jobs
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}
	cancelWorker()

	if err := jobQueue.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close job queue")
	}

	log.Info().Msg("Server exited")
}
