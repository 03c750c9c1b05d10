package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/statement-importer/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func day(d int) civil.Date {
	return civil.Date{Year: 2024, Month: 3, Day: d}
}

func categorized(d int, amount string, typ domain.TransactionType, desc, cat string) domain.CategorizedTransaction {
	tx := domain.CategorizedTransaction{ParsedTransaction: domain.ParsedTransaction{
		Date:        day(d),
		Description: desc,
		Amount:      decimal.RequireFromString(amount),
		Type:        typ,
	}}
	if cat != "" {
		tx.CategoryID = cat
		tx.CategorySource = domain.SourceKeyword
	}
	return tx
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.db")
	require.NoError(t, RunMigrations(path))
	require.NoError(t, RunMigrations(path))

	version, dirty, err := MigrationVersion(path)
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)
}

func TestSeedDefaults(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SeedDefaults(ctx))
	require.NoError(t, s.SeedDefaults(ctx))

	cats, err := s.ListCategories(ctx, "anyone")
	require.NoError(t, err)
	require.Len(t, cats, len(defaultCategories))
	assert.Equal(t, "Salaris", cats[0].Name)
	assert.Equal(t, DefaultCategoryID("Salaris"), cats[0].ID)
	assert.Equal(t, domain.TypeIncome, cats[0].Type)
	assert.Contains(t, cats[0].Keywords, "salaris")
}

func TestListCategoriesScopesByUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertCategory(ctx, "", domain.Category{ID: "shared", Name: "Shared", Type: domain.TypeExpense}, 1))
	require.NoError(t, s.UpsertCategory(ctx, "alice", domain.Category{ID: "mine", Name: "Mine", Type: domain.TypeIncome, Keywords: []string{"x"}}, 0))

	alice, err := s.ListCategories(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, alice, 2)
	assert.Equal(t, "mine", alice[0].ID)
	assert.Equal(t, []string{"x"}, alice[0].Keywords)

	bob, err := s.ListCategories(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, bob, 1)
	assert.Equal(t, "shared", bob[0].ID)
	assert.Empty(t, bob[0].Keywords)
}

func TestTransactionRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	runID, err := s.StartImportRun(ctx, "u1", "delimited", "march.csv")
	require.NoError(t, err)

	txs := []domain.CategorizedTransaction{
		categorized(15, "45.30", domain.TypeExpense, "Albert Heijn 1234", "groceries"),
		categorized(1, "2500.00", domain.TypeIncome, "Salaris maart", ""),
		categorized(31, "0.10", domain.TypeExpense, "Rente", ""),
	}
	require.NoError(t, s.InsertTransactions(ctx, "u1", runID, txs))

	// An unfinished run already blocks duplicates but is not listed.
	window, err := s.QueryTransactionsByDateRange(ctx, "u1", day(1), day(31))
	require.NoError(t, err)
	assert.Len(t, window, 3)

	listed, err := s.ListTransactions(ctx, "u1", day(1), day(31))
	require.NoError(t, err)
	assert.Empty(t, listed)

	require.NoError(t, s.MarkImportRunSucceeded(ctx, runID, domain.ImportSummary{Imported: 3, Total: 3, KeywordCategorized: 1, Uncategorized: 2}))

	window, err = s.QueryTransactionsByDateRange(ctx, "u1", day(1), day(15))
	require.NoError(t, err)
	require.Len(t, window, 2)
	assert.Equal(t, day(1), window[0].Date)
	assert.True(t, decimal.RequireFromString("2500").Equal(window[0].Amount))
	assert.Equal(t, "Albert Heijn 1234", window[1].Description)

	listed, err = s.ListTransactions(ctx, "u1", day(1), day(31))
	require.NoError(t, err)
	require.Len(t, listed, 3)
	assert.Equal(t, runID, listed[1].RunID)
	assert.Equal(t, "groceries", listed[1].CategoryID)
	assert.Equal(t, domain.SourceKeyword, listed[1].CategorySource)
	assert.Equal(t, domain.SourceNone, listed[0].CategorySource)

	other, err := s.ListTransactions(ctx, "u2", day(1), day(31))
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestDedupWindowByRunStatus(t *testing.T) {
	tests := []struct {
		name     string
		finish   func(t *testing.T, s *Store, runID string)
		inWindow bool
	}{
		{
			name:     "running",
			finish:   func(t *testing.T, s *Store, runID string) {},
			inWindow: true,
		},
		{
			name: "succeeded",
			finish: func(t *testing.T, s *Store, runID string) {
				require.NoError(t, s.MarkImportRunSucceeded(context.Background(), runID, domain.ImportSummary{Imported: 1, Total: 1}))
			},
			inWindow: true,
		},
		{
			name: "failed",
			finish: func(t *testing.T, s *Store, runID string) {
				s.MarkImportRunFailed(context.Background(), runID, errors.New("insert aborted"))
			},
			inWindow: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			ctx := context.Background()

			runID, err := s.StartImportRun(ctx, "u1", "delimited", "march.csv")
			require.NoError(t, err)
			require.NoError(t, s.InsertTransactions(ctx, "u1", runID, []domain.CategorizedTransaction{
				categorized(5, "12.50", domain.TypeExpense, "Jumbo", ""),
			}))
			tt.finish(t, s, runID)

			window, err := s.QueryTransactionsByDateRange(ctx, "u1", day(1), day(31))
			require.NoError(t, err)
			if tt.inWindow {
				require.Len(t, window, 1)
				assert.Equal(t, "Jumbo", window[0].Description)
			} else {
				assert.Empty(t, window)
			}
		})
	}
}

func TestImportRunLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ok, err := s.StartImportRun(ctx, "u1", "pdf", "a.pdf")
	require.NoError(t, err)
	require.NoError(t, s.MarkImportRunSucceeded(ctx, ok, domain.ImportSummary{Imported: 2, Total: 3, AICategorized: 1, KeywordCategorized: 1, Uncategorized: 1, Skipped: 1, Errors: []string{"x"}}))

	failed, err := s.StartImportRun(ctx, "u1", "delimited", "b.csv")
	require.NoError(t, err)
	s.MarkImportRunFailed(ctx, failed, errors.New("could not find date column"))

	runs, err := s.ListImportRuns(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	byID := map[string]domain.ImportRun{}
	for _, r := range runs {
		byID[r.ID] = r
	}

	require.NotNil(t, byID[ok].Summary)
	assert.Equal(t, domain.RunStatusSuccess, byID[ok].Status)
	assert.Equal(t, 2, byID[ok].Summary.Categorized)
	assert.Equal(t, 1, byID[ok].Summary.Skipped)
	assert.NotNil(t, byID[ok].FinishedAt)

	assert.Equal(t, domain.RunStatusFailed, byID[failed].Status)
	assert.Equal(t, "could not find date column", byID[failed].ErrorMessage)
	assert.Nil(t, byID[failed].Summary)
}

func TestDeleteImportRun(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	runID, err := s.StartImportRun(ctx, "u1", "delimited", "march.csv")
	require.NoError(t, err)
	require.NoError(t, s.InsertTransactions(ctx, "u1", runID, []domain.CategorizedTransaction{
		categorized(2, "10.00", domain.TypeExpense, "Jumbo", ""),
	}))
	require.NoError(t, s.MarkImportRunSucceeded(ctx, runID, domain.ImportSummary{Imported: 1, Total: 1}))

	assert.ErrorIs(t, s.DeleteImportRun(ctx, "someone-else", runID), domain.ErrRunNotFound)

	require.NoError(t, s.DeleteImportRun(ctx, "u1", runID))

	listed, err := s.ListTransactions(ctx, "u1", day(1), day(31))
	require.NoError(t, err)
	assert.Empty(t, listed)

	assert.ErrorIs(t, s.DeleteImportRun(ctx, "u1", runID), domain.ErrRunNotFound)
}
