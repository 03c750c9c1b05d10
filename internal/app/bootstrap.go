package app

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/dvloznov/statement-importer/internal/config"
	"github.com/dvloznov/statement-importer/internal/logger"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Bootstrap loads env files, then the configuration, and builds the logger
// at the configured level. Missing env files are skipped; with no names
// given ".env" in the working directory is tried.
func Bootstrap(envFiles ...string) (config.Config, zerolog.Logger, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return config.Config{}, zerolog.Logger{}, fmt.Errorf("Bootstrap: loading %s: %w", f, err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, zerolog.Logger{}, fmt.Errorf("Bootstrap: %w", err)
	}

	log, err := logger.NewWithLevel(cfg.Log.Level)
	if err != nil {
		return config.Config{}, zerolog.Logger{}, fmt.Errorf("Bootstrap: %w", err)
	}
	return cfg, log, nil
}
