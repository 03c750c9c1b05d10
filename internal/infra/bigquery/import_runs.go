package bigquery

import (
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/statement-importer/internal/domain"
)

type ImportRunRow struct {
	ImportRunID string `bigquery:"import_run_id"` // REQUIRED
	UserID      string `bigquery:"user_id"`       // REQUIRED

	Source     string `bigquery:"source"`      // REQUIRED: delimited, spreadsheet, pdf or feed
	SourceName string `bigquery:"source_name"` // file name or account id

	StartedTS  time.Time              `bigquery:"started_ts"`  // REQUIRED
	FinishedTS bigquery.NullTimestamp `bigquery:"finished_ts"` // NULLABLE

	Status       string `bigquery:"status"`        // REQUIRED
	ErrorMessage string `bigquery:"error_message"` // empty unless FAILED

	// Summary counters, NULL until the run finishes.
	Imported           bigquery.NullInt64 `bigquery:"imported"`
	Total              bigquery.NullInt64 `bigquery:"total"`
	AICategorized      bigquery.NullInt64 `bigquery:"ai_categorized"`
	KeywordCategorized bigquery.NullInt64 `bigquery:"keyword_categorized"`
	Uncategorized      bigquery.NullInt64 `bigquery:"uncategorized"`
	Skipped            bigquery.NullInt64 `bigquery:"skipped"`
	RowErrors          bigquery.NullInt64 `bigquery:"row_errors"`
}

// ToDomain converts the row into an import run. The summary is only set once
// the run succeeded.
func (r ImportRunRow) ToDomain() domain.ImportRun {
	run := domain.ImportRun{
		ID:           r.ImportRunID,
		UserID:       r.UserID,
		Source:       r.Source,
		SourceName:   r.SourceName,
		Status:       r.Status,
		ErrorMessage: r.ErrorMessage,
		StartedAt:    r.StartedTS,
	}
	if r.FinishedTS.Valid {
		finished := r.FinishedTS.Timestamp
		run.FinishedAt = &finished
	}
	if r.Status == domain.RunStatusSuccess {
		run.Summary = &domain.ImportSummary{
			Imported:           int(r.Imported.Int64),
			Total:              int(r.Total.Int64),
			Categorized:        int(r.AICategorized.Int64 + r.KeywordCategorized.Int64),
			AICategorized:      int(r.AICategorized.Int64),
			KeywordCategorized: int(r.KeywordCategorized.Int64),
			Uncategorized:      int(r.Uncategorized.Int64),
			Skipped:            int(r.Skipped.Int64),
			Errors:             []string{},
		}
	}
	return run
}
