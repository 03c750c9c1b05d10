package pipeline

import (
	"context"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/statement-importer/internal/bankfeed"
	"github.com/dvloznov/statement-importer/internal/domain"
)

// CategoryStore supplies the category catalog of a user.
type CategoryStore interface {
	ListCategories(ctx context.Context, userID string) ([]domain.Category, error)
}

// TransactionStore reads the dedup window and persists new transactions.
type TransactionStore interface {
	QueryTransactionsByDateRange(ctx context.Context, userID string, start, end civil.Date) ([]domain.ExistingTransaction, error)
	InsertTransactions(ctx context.Context, userID, runID string, txs []domain.CategorizedTransaction) error
}

// RunRecorder keeps one record per import run.
type RunRecorder interface {
	StartImportRun(ctx context.Context, userID, source, filename string) (string, error)
	MarkImportRunSucceeded(ctx context.Context, runID string, summary domain.ImportSummary) error
	MarkImportRunFailed(ctx context.Context, runID string, runErr error)
}

// TextExtractor turns PDF bytes into text, one line per text row.
type TextExtractor interface {
	ExtractText(ctx context.Context, data []byte) (string, error)
}

// FeedSource is a paged bank-aggregation feed.
type FeedSource = bankfeed.PageSource
