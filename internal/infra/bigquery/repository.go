package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/dvloznov/statement-importer/internal/domain"
)

// Repository is the BigQuery-backed store of categories, transactions and
// import runs. It holds a shared BigQuery client to avoid creating a new
// connection for each operation.
type Repository struct {
	client  *bigquery.Client
	dataset string
}

// NewRepository creates a Repository for dataset in projectID.
func NewRepository(ctx context.Context, projectID, dataset string) (*Repository, error) {
	if projectID == "" {
		return nil, fmt.Errorf("NewRepository: project id is required")
	}
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewRepository: creating client: %w", err)
	}
	return &Repository{client: client, dataset: dataset}, nil
}

// Client exposes the underlying client, e.g. for the migrator.
func (r *Repository) Client() *bigquery.Client {
	return r.client
}

// Close closes the BigQuery client connection.
func (r *Repository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

func (r *Repository) ListCategories(ctx context.Context, userID string) ([]domain.Category, error) {
	return ListCategoriesWithClient(ctx, r.client, r.dataset, userID)
}

func (r *Repository) QueryTransactionsByDateRange(ctx context.Context, userID string, start, end civil.Date) ([]domain.ExistingTransaction, error) {
	return QueryTransactionWindowWithClient(ctx, r.client, r.dataset, userID, start, end)
}

func (r *Repository) InsertTransactions(ctx context.Context, userID, runID string, txs []domain.CategorizedTransaction) error {
	return InsertTransactionsWithClient(ctx, r.client, r.dataset, userID, runID, txs)
}

func (r *Repository) ListTransactions(ctx context.Context, userID string, start, end civil.Date) ([]domain.StoredTransaction, error) {
	return ListTransactionsWithClient(ctx, r.client, r.dataset, userID, start, end)
}

func (r *Repository) StartImportRun(ctx context.Context, userID, source, filename string) (string, error) {
	return StartImportRunWithClient(ctx, r.client, r.dataset, userID, source, filename)
}

func (r *Repository) MarkImportRunSucceeded(ctx context.Context, runID string, summary domain.ImportSummary) error {
	return MarkImportRunSucceededWithClient(ctx, r.client, r.dataset, runID, summary)
}

func (r *Repository) MarkImportRunFailed(ctx context.Context, runID string, runErr error) {
	MarkImportRunFailedWithClient(ctx, r.client, r.dataset, runID, runErr)
}

func (r *Repository) ListImportRuns(ctx context.Context, userID string, limit int) ([]domain.ImportRun, error) {
	return ListImportRunsWithClient(ctx, r.client, r.dataset, userID, limit)
}

func (r *Repository) DeleteImportRun(ctx context.Context, userID, runID string) error {
	return DeleteImportRunWithClient(ctx, r.client, r.dataset, userID, runID)
}
