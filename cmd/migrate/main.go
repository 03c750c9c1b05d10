package main

import (
	"context"
	"flag"
	"os"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/statement-importer/internal/app"
	"github.com/dvloznov/statement-importer/internal/config"
	infraBQ "github.com/dvloznov/statement-importer/internal/infra/bigquery"
	"github.com/dvloznov/statement-importer/internal/infra/sqlite"
	"github.com/dvloznov/statement-importer/internal/logger"
	"github.com/rs/zerolog"
)

func main() {
	var (
		driver     = flag.String("driver", "", "Store to migrate: sqlite or bigquery (defaults to store.driver)")
		sqlitePath = flag.String("sqlite-path", "", "SQLite database file (defaults to store.sqlite_path)")
		projectID  = flag.String("project", "", "GCP project ID (defaults to store.project_id)")
		datasetID  = flag.String("dataset", "", "BigQuery dataset ID (defaults to store.dataset)")
		appliedBy  = flag.String("applied-by", "migrate-cli", "Name of the tool applying migrations")
	)
	flag.Parse()

	cfg, log, err := app.Bootstrap()
	if err != nil {
		fallback := zerolog.New(os.Stderr)
		fallback.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if *driver == "" {
		*driver = cfg.Store.Driver
	}
	if *sqlitePath == "" {
		*sqlitePath = cfg.Store.SQLitePath
	}
	if *projectID == "" {
		*projectID = cfg.Store.ProjectID
	}
	if *datasetID == "" {
		*datasetID = cfg.Store.Dataset
	}

	ctx := logger.WithContext(context.Background(), log)

	switch *driver {
	case config.DriverSQLite:
		if err := sqlite.RunMigrations(*sqlitePath); err != nil {
			log.Fatal().Err(err).Str("path", *sqlitePath).Msg("Migration failed")
		}
		version, dirty, err := sqlite.MigrationVersion(*sqlitePath)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to read schema version")
		}
		log.Info().Str("path", *sqlitePath).Uint("version", version).Bool("dirty", dirty).Msg("SQLite schema is up to date")

	case config.DriverBigQuery:
		if *projectID == "" {
			log.Fatal().Msg("-project is required for the bigquery driver")
		}
		client, err := bigquery.NewClient(ctx, *projectID)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create BigQuery client")
		}
		defer client.Close()

		log.Info().Str("project", *projectID).Str("dataset", *datasetID).Msg("Connected to BigQuery")

		applied, err := infraBQ.NewMigrator(client, *projectID, *datasetID, *appliedBy).Up(ctx)
		if err != nil {
			log.Fatal().Err(err).Int("applied", applied).Msg("Migration failed")
		}
		log.Info().Int("applied", applied).Msg("BigQuery schema is up to date")

	default:
		log.Fatal().Str("driver", *driver).Msg("Unknown driver, use sqlite or bigquery")
	}
}
