package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/statement-importer/internal/app"
	"github.com/dvloznov/statement-importer/internal/jobs/inmemory"
	"github.com/dvloznov/statement-importer/internal/logger"
	"github.com/dvloznov/statement-importer/internal/scheduler"
	"github.com/rs/zerolog"
)

func main() {
	var (
		envFile = flag.String("env", ".env", "Env file to load before reading the config")
		now     = flag.Bool("now", false, "Queue a sync of every account at startup")
	)
	flag.Parse()

	cfg, log, err := app.Bootstrap(*envFile)
	if err != nil {
		fallback := zerolog.New(os.Stderr)
		fallback.Fatal().Err(err).Msg("Failed to load configuration")
	}

	ctx, cancel := context.WithCancel(logger.WithContext(context.Background(), log))
	defer cancel()

	a, err := app.New(ctx, cfg, app.Options{})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer a.Close()

	if a.Feed == nil {
		log.Fatal().Str("token_env", cfg.BankFeed.TokenEnv).Msg("Bank feed is not configured")
	}
	if len(cfg.BankFeed.Accounts) == 0 {
		log.Warn().Msg("No bank-feed accounts configured, nothing will be synced")
	}

	// Initialize job store and queue
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, jobStore)

	log.Info().Msg("Starting worker service")

	if err := jobQueue.Start(ctx, a.HandleJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job consumer")
	}

	sched, err := scheduler.New(scheduler.Config{
		Schedule: cfg.BankFeed.Schedule,
		UserID:   a.UserID(""),
		Accounts: cfg.BankFeed.Accounts,
	}, jobQueue, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create scheduler")
	}
	sched.Start()

	if *now {
		if err := sched.SyncAll(ctx); err != nil {
			log.Error().Err(err).Msg("Initial sync failed")
		}
	}

	log.Info().Msg("Worker service started, waiting for jobs...")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down worker service...")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := sched.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping scheduler")
	}

	// Stop the queue and wait for in-flight jobs
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during graceful shutdown")
	}
	cancel()

	log.Info().Msg("Worker service exited")
}
