package store

import (
	"context"
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/statement-importer/internal/config"
	"github.com/dvloznov/statement-importer/internal/domain"
	infraBQ "github.com/dvloznov/statement-importer/internal/infra/bigquery"
	"github.com/dvloznov/statement-importer/internal/infra/sqlite"
	"github.com/dvloznov/statement-importer/internal/pipeline"
)

// Store is everything the importer and its front ends need from a backend.
// Both the sqlite store and the BigQuery repository implement it.
type Store interface {
	pipeline.CategoryStore
	pipeline.TransactionStore
	pipeline.RunRecorder

	// ListTransactions returns stored transactions between start and end
	// inclusive, oldest first.
	ListTransactions(ctx context.Context, userID string, start, end civil.Date) ([]domain.StoredTransaction, error)

	// ListImportRuns returns the most recent runs of a user, newest first.
	ListImportRuns(ctx context.Context, userID string, limit int) ([]domain.ImportRun, error)

	// DeleteImportRun removes a run and the transactions it wrote.
	DeleteImportRun(ctx context.Context, userID, runID string) error

	Close() error
}

var (
	_ Store = (*sqlite.Store)(nil)
	_ Store = (*infraBQ.Repository)(nil)
)

// Open connects to the backend selected by cfg.Driver. A new sqlite
// database is migrated and seeded with the default categories.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		s, err := sqlite.NewStore(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("Open: %w", err)
		}
		if err := s.SeedDefaults(ctx); err != nil {
			s.Close()
			return nil, fmt.Errorf("Open: seeding categories: %w", err)
		}
		return s, nil
	case config.DriverBigQuery:
		repo, err := infraBQ.NewRepository(ctx, cfg.ProjectID, cfg.Dataset)
		if err != nil {
			return nil, fmt.Errorf("Open: %w", err)
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("Open: unknown store driver %q", cfg.Driver)
	}
}
