// Package app wires configuration, stores and the import pipeline for the
// api, worker and cli binaries.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dvloznov/statement-importer/internal/bankfeed"
	"github.com/dvloznov/statement-importer/internal/categorize"
	"github.com/dvloznov/statement-importer/internal/config"
	"github.com/dvloznov/statement-importer/internal/domain"
	"github.com/dvloznov/statement-importer/internal/gcsuploader"
	"github.com/dvloznov/statement-importer/internal/jobs"
	"github.com/dvloznov/statement-importer/internal/logger"
	"github.com/dvloznov/statement-importer/internal/pipeline"
	"github.com/dvloznov/statement-importer/internal/statement"
	"github.com/dvloznov/statement-importer/internal/store"
)

// ErrFeedNotConfigured is returned by SyncAccount when no bank-feed token is
// configured.
var ErrFeedNotConfigured = errors.New("bank feed is not configured")

// App holds the long-lived dependencies of a binary.
type App struct {
	Config   config.Config
	Store    store.Store
	Importer *pipeline.Importer
	Blobs    gcsuploader.BlobStore

	// Feed is nil when no bank-feed token is configured.
	Feed pipeline.FeedSource

	closers []func() error
}

// Options override parts of the wiring, mainly for tests.
type Options struct {
	Store      store.Store
	Classifier categorize.Classifier
	Blobs      gcsuploader.BlobStore
	Feed       pipeline.FeedSource
}

// New builds an App from cfg. Anything set in opts is used as is.
func New(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	log := logger.FromContext(ctx)
	a := &App{Config: cfg}

	a.Store = opts.Store
	if a.Store == nil {
		s, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return nil, fmt.Errorf("New: %w", err)
		}
		a.Store = s
		a.closers = append(a.closers, s.Close)
	}

	classifier := opts.Classifier
	if classifier == nil {
		c, err := newClassifier(ctx, cfg.Classifier)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("New: %w", err)
		}
		if c == nil {
			log.Warn().Str("provider", cfg.Classifier.Provider).Msg("AI categorization disabled, using keyword rules only")
		} else {
			classifier = c
		}
	}

	a.Blobs = opts.Blobs
	if a.Blobs == nil {
		if cfg.Storage.Bucket != "" {
			gcs, err := gcsuploader.NewGCSBlobStore(ctx, cfg.Storage.Bucket)
			if err != nil {
				a.Close()
				return nil, fmt.Errorf("New: %w", err)
			}
			a.Blobs = gcs
			a.closers = append(a.closers, gcs.Close)
		} else {
			log.Warn().Msg("No storage bucket configured, async uploads are kept in memory")
			a.Blobs = gcsuploader.NewMemoryBlobStore("local")
		}
	}

	a.Feed = opts.Feed
	if a.Feed == nil {
		if token := cfg.BankFeed.ResolveToken(); token != "" {
			a.Feed = bankfeed.NewClient(ctx, cfg.BankFeed.BaseURL, token, nil)
		}
	}

	a.Importer = pipeline.NewImporter(pipeline.Config{
		Categories:    a.Store,
		Transactions:  a.Store,
		Runs:          a.Store,
		Classifier:    classifier,
		BatchSize:     cfg.Classifier.BatchSize,
		Concurrency:   cfg.Classifier.Concurrency,
		FeedPageLimit: cfg.BankFeed.PageLimit,
	})

	return a, nil
}

// newClassifier returns nil when AI categorization is off or has no key.
func newClassifier(ctx context.Context, cfg config.ClassifierConfig) (categorize.Classifier, error) {
	if cfg.Provider != config.ProviderGemini {
		return nil, nil
	}
	key := cfg.ResolveAPIKey()
	if key == "" {
		return nil, nil
	}
	backend, err := categorize.NewGeminiBackend(ctx, key, cfg.Model, cfg.Timeout)
	if err != nil {
		return nil, err
	}
	return categorize.NewBatchClassifier(backend), nil
}

// Close releases what New opened.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// UserID returns userID or the configured default.
func (a *App) UserID(userID string) string {
	if userID != "" {
		return userID
	}
	if a.Config.Import.UserID != "" {
		return a.Config.Import.UserID
	}
	return pipeline.DefaultUserID
}

// SyncAccount imports every page of a bank-feed account.
func (a *App) SyncAccount(ctx context.Context, userID, accountID string) (domain.ImportSummary, error) {
	if a.Feed == nil {
		return domain.ImportSummary{}, ErrFeedNotConfigured
	}
	return a.Importer.ImportFeed(ctx, a.UserID(userID), a.Feed, accountID)
}

// HandleJob is the jobs.JobHandler for import jobs. Failures a retry cannot
// fix are marked permanent.
func (a *App) HandleJob(ctx context.Context, job *jobs.ImportJob) (*domain.ImportSummary, error) {
	var (
		summary domain.ImportSummary
		err     error
	)

	switch job.Type {
	case jobs.JobTypeImportFile:
		data, ferr := a.Blobs.Fetch(ctx, job.BlobURI)
		if ferr != nil {
			return nil, fmt.Errorf("HandleJob: fetching %s: %w", job.BlobURI, ferr)
		}
		filename := job.Filename
		if filename == "" {
			filename = gcsuploader.ExtractFilenameFromURI(job.BlobURI)
		}
		summary, err = a.Importer.Import(ctx, a.UserID(job.UserID), pipeline.Input{Filename: filename, Data: data})
	case jobs.JobTypeSyncFeed:
		summary, err = a.SyncAccount(ctx, job.UserID, job.AccountID)
	default:
		return nil, jobs.Permanent(fmt.Errorf("HandleJob: unknown job type %q", job.Type))
	}

	if err != nil {
		if IsInputError(err) {
			return nil, jobs.Permanent(err)
		}
		return nil, err
	}
	return &summary, nil
}

// IsInputError reports whether err is caused by the input itself rather
// than by a transient failure: an unrecognized file, a file without usable
// rows, a misbehaving feed or a rejected feed request.
func IsInputError(err error) bool {
	var (
		formatErr *statement.FormatUnrecognizedError
		emptyErr  *pipeline.EmptyInputError
		apiErr    *bankfeed.APIError
	)
	switch {
	case errors.As(err, &formatErr), errors.As(err, &emptyErr):
		return true
	case errors.Is(err, bankfeed.ErrLoopingCursor), errors.Is(err, bankfeed.ErrPageLimit):
		return true
	case errors.Is(err, ErrFeedNotConfigured):
		return true
	case errors.As(err, &apiErr):
		return apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 && apiErr.StatusCode != http.StatusTooManyRequests
	}
	return false
}
