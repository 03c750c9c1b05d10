package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/dvloznov/statement-importer/internal/domain"
	"google.golang.org/api/iterator"
)

const transactionsTable = "transactions"

// InsertTransactionsWithClient inserts a batch of transactions of one import
// run using the provided BigQuery client.
func InsertTransactionsWithClient(ctx context.Context, client *bigquery.Client, dataset, userID, runID string, txs []domain.CategorizedTransaction) error {
	if len(txs) == 0 {
		return nil
	}

	now := time.Now()
	rows := make([]*TransactionRow, 0, len(txs))
	for _, tx := range txs {
		rows = append(rows, NewTransactionRow(userID, runID, tx, now))
	}

	inserter := client.Dataset(dataset).Table(transactionsTable).Inserter()
	if err := inserter.Put(ctx, rows); err != nil {
		return fmt.Errorf("InsertTransactions: inserting rows: %w", err)
	}

	return nil
}

// QueryTransactionWindowWithClient returns the date, amount and description
// of a user's transactions between start and end inclusive. Rows of failed
// runs are ignored; rows of a run still marked RUNNING count, since they were
// inserted even if the run was never marked finished.
func QueryTransactionWindowWithClient(ctx context.Context, client *bigquery.Client, dataset, userID string, start, end civil.Date) ([]domain.ExistingTransaction, error) {
	stored, err := queryTransactions(ctx, client, dataset, userID, start, end, domain.RunStatusSuccess, domain.RunStatusRunning)
	if err != nil {
		return nil, fmt.Errorf("QueryTransactionWindow: %w", err)
	}
	out := make([]domain.ExistingTransaction, 0, len(stored))
	for _, s := range stored {
		out = append(out, domain.ExistingTransaction{Date: s.Date, Amount: s.Amount, Description: s.Description})
	}
	return out, nil
}

// ListTransactionsWithClient returns a user's transactions of successful runs
// between start and end inclusive, oldest first.
func ListTransactionsWithClient(ctx context.Context, client *bigquery.Client, dataset, userID string, start, end civil.Date) ([]domain.StoredTransaction, error) {
	stored, err := queryTransactions(ctx, client, dataset, userID, start, end, domain.RunStatusSuccess)
	if err != nil {
		return nil, fmt.Errorf("ListTransactions: %w", err)
	}
	return stored, nil
}

func queryTransactions(ctx context.Context, client *bigquery.Client, dataset, userID string, start, end civil.Date, statuses ...string) ([]domain.StoredTransaction, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT
			t.transaction_id,
			t.import_run_id,
			t.transaction_date,
			CAST(t.amount AS STRING) AS amount,
			t.type,
			t.description,
			t.category_id,
			t.category_source,
			t.created_ts
		FROM %[1]s.transactions t
		INNER JOIN %[1]s.import_runs r
		  ON t.import_run_id = r.import_run_id
		WHERE t.user_id = @user_id
		  AND t.transaction_date >= @start_date
		  AND t.transaction_date <= @end_date
		  AND r.status IN UNNEST(@statuses)
		ORDER BY t.transaction_date, t.created_ts
	`, dataset))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "start_date", Value: start},
		{Name: "end_date", Value: end},
		{Name: "statuses", Value: statuses},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("query read: %w", err)
	}

	var out []domain.StoredTransaction
	for {
		var r transactionReadRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iter next: %w", err)
		}
		tx, err := r.toDomain()
		if err != nil {
			return nil, fmt.Errorf("transaction %s: amount %q: %w", r.TransactionID, r.Amount, err)
		}
		out = append(out, tx)
	}

	return out, nil
}
