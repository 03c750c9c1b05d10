package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/dvloznov/statement-importer/internal/bankfeed"
	"github.com/dvloznov/statement-importer/internal/config"
	"github.com/dvloznov/statement-importer/internal/domain"
	"github.com/dvloznov/statement-importer/internal/gcsuploader"
	"github.com/dvloznov/statement-importer/internal/infra/sqlite"
	"github.com/dvloznov/statement-importer/internal/jobs"
	"github.com/dvloznov/statement-importer/internal/pipeline"
	"github.com/dvloznov/statement-importer/internal/statement"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockFeed struct {
	FetchPageFunc func(ctx context.Context, accountID, key string) (domain.FeedPage, error)
}

func (m *mockFeed) FetchPage(ctx context.Context, accountID, key string) (domain.FeedPage, error) {
	return m.FetchPageFunc(ctx, accountID, key)
}

func testConfig(t *testing.T) config.Config {
	return config.Config{
		Store:      config.StoreConfig{Driver: config.DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "app.db")},
		Classifier: config.ClassifierConfig{Provider: config.ProviderNone, BatchSize: 50, Concurrency: 2},
		BankFeed:   config.BankFeedConfig{PageLimit: 10},
		Import:     config.ImportConfig{UserID: "tester"},
	}
}

func newTestApp(t *testing.T, opts Options) *App {
	t.Helper()
	a, err := New(context.Background(), testConfig(t), opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

const marchCSV = "Datum;Naam / Omschrijving;Bedrag (EUR);Af Bij\n01-03-2024;Albert Heijn 1234;25,47;Af\n05-03-2024;Onbekende winkel;3,00;Af\n"

func TestHandleJobImportsStagedFile(t *testing.T) {
	blobs := gcsuploader.NewMemoryBlobStore("local")
	a := newTestApp(t, Options{Blobs: blobs})
	ctx := context.Background()

	uri, err := blobs.Upload(ctx, "uploads/tester/1/march.csv", []byte(marchCSV), "text/csv")
	require.NoError(t, err)

	summary, err := a.HandleJob(ctx, &jobs.ImportJob{Type: jobs.JobTypeImportFile, BlobURI: uri})
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, 2, summary.Imported)
	assert.Equal(t, 1, summary.KeywordCategorized)
	assert.Equal(t, 1, summary.Uncategorized)

	runs, err := a.Store.ListImportRuns(ctx, "tester", 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "march.csv", runs[0].SourceName)

	// The same file again is fully deduplicated.
	again, err := a.HandleJob(ctx, &jobs.ImportJob{Type: jobs.JobTypeImportFile, BlobURI: uri, Filename: "march.csv"})
	require.NoError(t, err)
	assert.Equal(t, 0, again.Imported)
	assert.Equal(t, 2, again.Skipped)
}

func TestReimportAfterUnfinishedRunSkipsDuplicates(t *testing.T) {
	a := newTestApp(t, Options{})
	ctx := context.Background()
	in := pipeline.Input{Filename: "march.csv", Data: []byte(marchCSV)}

	first, err := a.Importer.Import(ctx, "tester", in)
	require.NoError(t, err)
	require.Equal(t, 2, first.Imported)

	// Rows persisted but the run never got marked finished.
	db := a.Store.(*sqlite.Store).DB()
	_, err = db.ExecContext(ctx, "UPDATE import_runs SET status = ?", domain.RunStatusRunning)
	require.NoError(t, err)

	again, err := a.Importer.Import(ctx, "tester", in)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Imported)
	assert.Equal(t, 2, again.Skipped)

	var n int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM transactions").Scan(&n))
	assert.Equal(t, 2, n)
}

func TestHandleJobMarksBadFilesPermanent(t *testing.T) {
	blobs := gcsuploader.NewMemoryBlobStore("local")
	a := newTestApp(t, Options{Blobs: blobs})
	ctx := context.Background()

	uri, err := blobs.Upload(ctx, "uploads/x.csv", []byte("Foo;Bar\n1;2\n"), "text/csv")
	require.NoError(t, err)

	_, err = a.HandleJob(ctx, &jobs.ImportJob{Type: jobs.JobTypeImportFile, BlobURI: uri})
	require.Error(t, err)
	assert.True(t, jobs.IsPermanent(err))

	// A missing blob may be a transient storage problem.
	_, err = a.HandleJob(ctx, &jobs.ImportJob{Type: jobs.JobTypeImportFile, BlobURI: "gs://local/missing.csv"})
	require.Error(t, err)
	assert.False(t, jobs.IsPermanent(err))

	_, err = a.HandleJob(ctx, &jobs.ImportJob{Type: "unknown"})
	assert.True(t, jobs.IsPermanent(err))
}

func TestSyncAccount(t *testing.T) {
	feed := &mockFeed{FetchPageFunc: func(ctx context.Context, accountID, key string) (domain.FeedPage, error) {
		return domain.FeedPage{Items: []domain.FeedItem{
			{Amount: "12.50", Direction: "DBIT", BookingDate: "2024-03-04", CreditorName: "Jumbo"},
		}}, nil
	}}
	a := newTestApp(t, Options{Feed: feed})

	summary, err := a.SyncAccount(context.Background(), "", "acc-1")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Imported)
	assert.Equal(t, 1, summary.KeywordCategorized)

	jobSummary, err := a.HandleJob(context.Background(), &jobs.ImportJob{Type: jobs.JobTypeSyncFeed, AccountID: "acc-1"})
	require.NoError(t, err)
	assert.Equal(t, 1, jobSummary.Skipped)
}

func TestSyncAccountWithoutFeed(t *testing.T) {
	a := newTestApp(t, Options{})

	_, err := a.SyncAccount(context.Background(), "u", "acc-1")
	assert.ErrorIs(t, err, ErrFeedNotConfigured)
}

func TestUserID(t *testing.T) {
	a := &App{}
	assert.Equal(t, pipeline.DefaultUserID, a.UserID(""))
	a.Config.Import.UserID = "me"
	assert.Equal(t, "me", a.UserID(""))
	assert.Equal(t, "other", a.UserID("other"))
}

func TestIsInputError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"format", fmt.Errorf("step: %w", &statement.FormatUnrecognizedError{}), true},
		{"empty", &pipeline.EmptyInputError{Source: pipeline.SourcePDF}, true},
		{"looping cursor", fmt.Errorf("x: %w", bankfeed.ErrLoopingCursor), true},
		{"page limit", bankfeed.ErrPageLimit, true},
		{"bad request", &bankfeed.APIError{StatusCode: 400}, true},
		{"rate limited", &bankfeed.APIError{StatusCode: 429}, false},
		{"server error", &bankfeed.APIError{StatusCode: 503}, false},
		{"other", errors.New("connection reset"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsInputError(tt.err))
		})
	}
}
