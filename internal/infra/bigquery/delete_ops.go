package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/statement-importer/internal/domain"
)

// DeleteImportRunWithClient undoes an import: it deletes the transactions
// written by the run and then the run record itself. It returns
// domain.ErrRunNotFound when the user has no such run.
func DeleteImportRunWithClient(ctx context.Context, client *bigquery.Client, dataset, userID, importRunID string) error {
	// Transactions first so a failure never leaves rows pointing at a
	// missing run.
	if _, err := deleteByRun(ctx, client, dataset, transactionsTable, userID, importRunID); err != nil {
		return fmt.Errorf("DeleteImportRun: deleting transactions: %w", err)
	}

	n, err := deleteByRun(ctx, client, dataset, importRunsTable, userID, importRunID)
	if err != nil {
		return fmt.Errorf("DeleteImportRun: deleting run: %w", err)
	}
	if n == 0 {
		return domain.ErrRunNotFound
	}

	return nil
}

// deleteByRun deletes the rows of table that belong to the run and returns
// how many were removed, or -1 when BigQuery reports no count.
func deleteByRun(ctx context.Context, client *bigquery.Client, dataset, table, userID, importRunID string) (int64, error) {
	q := client.Query(fmt.Sprintf(`
		DELETE FROM %s.%s
		WHERE import_run_id = @import_run_id
		  AND user_id = @user_id
	`, dataset, table))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "import_run_id", Value: importRunID},
		{Name: "user_id", Value: userID},
	}

	job, err := q.Run(ctx)
	if err != nil {
		return 0, fmt.Errorf("running query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return 0, fmt.Errorf("waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return 0, fmt.Errorf("job error: %w", err)
	}

	if status.Statistics != nil {
		if qs, ok := status.Statistics.Details.(*bigquery.QueryStatistics); ok {
			return qs.NumDMLAffectedRows, nil
		}
	}
	// Count unavailable.
	return -1, nil
}
