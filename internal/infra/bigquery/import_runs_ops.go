package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/statement-importer/internal/domain"
	"github.com/dvloznov/statement-importer/internal/logger"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
)

const (
	importRunsTable = "import_runs"

	// maxErrorMessageLen bounds the error_message column.
	maxErrorMessageLen = 2000
)

// runQuery runs a DML statement and waits for it to finish.
func runQuery(ctx context.Context, q *bigquery.Query) error {
	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("running query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("job error: %w", err)
	}

	return nil
}

// StartImportRunWithClient inserts a new row into import_runs with
// status=RUNNING and returns the generated import_run_id.
func StartImportRunWithClient(ctx context.Context, client *bigquery.Client, dataset, userID, source, sourceName string) (string, error) {
	importRunID := uuid.NewString()

	q := client.Query(fmt.Sprintf(`
		INSERT %s.%s (
			import_run_id,
			user_id,
			source,
			source_name,
			started_ts,
			status
		)
		VALUES (
			@import_run_id,
			@user_id,
			@source,
			@source_name,
			@started_ts,
			@status
		)
	`, dataset, importRunsTable))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "import_run_id", Value: importRunID},
		{Name: "user_id", Value: userID},
		{Name: "source", Value: source},
		{Name: "source_name", Value: sourceName},
		{Name: "started_ts", Value: time.Now()},
		{Name: "status", Value: domain.RunStatusRunning},
	}

	if err := runQuery(ctx, q); err != nil {
		return "", fmt.Errorf("StartImportRun: %w", err)
	}

	return importRunID, nil
}

// MarkImportRunFailedWithClient sets status=FAILED, finished_ts and
// error_message. Failures are logged, not returned, so that the original
// import error reaches the caller.
func MarkImportRunFailedWithClient(ctx context.Context, client *bigquery.Client, dataset, importRunID string, runErr error) {
	log := logger.FromContext(ctx)

	errMsg := ""
	if runErr != nil {
		errMsg = runErr.Error()
		if len(errMsg) > maxErrorMessageLen {
			errMsg = errMsg[:maxErrorMessageLen]
		}
	}

	q := client.Query(fmt.Sprintf(`
		UPDATE %s.%s
		SET status = @status,
		    finished_ts = @finished_ts,
		    error_message = @error_message
		WHERE import_run_id = @import_run_id
	`, dataset, importRunsTable))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "status", Value: domain.RunStatusFailed},
		{Name: "finished_ts", Value: time.Now()},
		{Name: "error_message", Value: errMsg},
		{Name: "import_run_id", Value: importRunID},
	}

	if err := runQuery(ctx, q); err != nil {
		log.Error().
			Err(err).
			Str("import_run_id", importRunID).
			Msg("MarkImportRunFailed: update failed")
	}
}

// MarkImportRunSucceededWithClient sets status=SUCCESS, finished_ts and the
// summary counters.
func MarkImportRunSucceededWithClient(ctx context.Context, client *bigquery.Client, dataset, importRunID string, summary domain.ImportSummary) error {
	q := client.Query(fmt.Sprintf(`
		UPDATE %s.%s
		SET status = @status,
		    finished_ts = @finished_ts,
		    error_message = "",
		    imported = @imported,
		    total = @total,
		    ai_categorized = @ai_categorized,
		    keyword_categorized = @keyword_categorized,
		    uncategorized = @uncategorized,
		    skipped = @skipped,
		    row_errors = @row_errors
		WHERE import_run_id = @import_run_id
	`, dataset, importRunsTable))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "status", Value: domain.RunStatusSuccess},
		{Name: "finished_ts", Value: time.Now()},
		{Name: "imported", Value: summary.Imported},
		{Name: "total", Value: summary.Total},
		{Name: "ai_categorized", Value: summary.AICategorized},
		{Name: "keyword_categorized", Value: summary.KeywordCategorized},
		{Name: "uncategorized", Value: summary.Uncategorized},
		{Name: "skipped", Value: summary.Skipped},
		{Name: "row_errors", Value: len(summary.Errors)},
		{Name: "import_run_id", Value: importRunID},
	}

	if err := runQuery(ctx, q); err != nil {
		return fmt.Errorf("MarkImportRunSucceeded: %w", err)
	}

	return nil
}

// ListImportRunsWithClient returns the most recent import runs of a user,
// newest first.
func ListImportRunsWithClient(ctx context.Context, client *bigquery.Client, dataset, userID string, limit int) ([]domain.ImportRun, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT
			import_run_id,
			user_id,
			source,
			IFNULL(source_name, "") AS source_name,
			started_ts,
			finished_ts,
			status,
			IFNULL(error_message, "") AS error_message,
			imported,
			total,
			ai_categorized,
			keyword_categorized,
			uncategorized,
			skipped,
			row_errors
		FROM %s.%s
		WHERE user_id = @user_id
		ORDER BY started_ts DESC
		LIMIT @limit
	`, dataset, importRunsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "limit", Value: limit},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListImportRuns: query read: %w", err)
	}

	var out []domain.ImportRun
	for {
		var r ImportRunRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListImportRuns: iter next: %w", err)
		}
		out = append(out, r.ToDomain())
	}

	return out, nil
}
