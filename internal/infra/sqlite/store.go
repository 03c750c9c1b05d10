package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/statement-importer/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Store is the local sqlite store of categories, transactions and import
// runs.
type Store struct {
	db *sql.DB
}

// NewStore migrates the database at path and opens it.
func NewStore(path string) (*Store, error) {
	if err := RunMigrations(path); err != nil {
		return nil, fmt.Errorf("NewStore: %w", err)
	}
	db, err := Open(path)
	if err != nil {
		return nil, fmt.Errorf("NewStore: opening %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// DB exposes the underlying handle.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Close() error {
	return s.db.Close()
}

// UpsertCategory inserts or replaces a category. An empty userID makes the
// category shared by every user.
func (s *Store) UpsertCategory(ctx context.Context, userID string, c domain.Category, position int) error {
	keywords := c.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	kw, err := json.Marshal(keywords)
	if err != nil {
		return fmt.Errorf("UpsertCategory: encoding keywords: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
	INSERT INTO categories(id, user_id, name, type, keywords, position, is_active)
	VALUES (?, ?, ?, ?, ?, ?, 1)
	ON CONFLICT(id) DO UPDATE SET
	 user_id=excluded.user_id,
	 name=excluded.name,
	 type=excluded.type,
	 keywords=excluded.keywords,
	 position=excluded.position,
	 is_active=1;
	`, c.ID, nullString(userID), c.Name, string(c.Type), string(kw), position)
	if err != nil {
		return fmt.Errorf("UpsertCategory: %w", err)
	}
	return nil
}

// ListCategories returns the active categories visible to userID in catalog
// order.
func (s *Store) ListCategories(ctx context.Context, userID string) ([]domain.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT id, name, type, keywords FROM categories
	WHERE is_active = 1 AND (user_id IS NULL OR user_id = ?)
	ORDER BY position, name`, userID)
	if err != nil {
		return nil, fmt.Errorf("ListCategories: %w", err)
	}
	defer rows.Close()

	var out []domain.Category
	for rows.Next() {
		var (
			c        domain.Category
			typ, kws string
		)
		if err := rows.Scan(&c.ID, &c.Name, &typ, &kws); err != nil {
			return nil, fmt.Errorf("ListCategories: scan: %w", err)
		}
		c.Type = domain.TransactionType(typ)
		if err := json.Unmarshal([]byte(kws), &c.Keywords); err != nil {
			return nil, fmt.Errorf("ListCategories: category %s: keywords: %w", c.ID, err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListCategories: %w", err)
	}
	return out, nil
}

// InsertTransactions writes the transactions of one run in a single
// transaction.
func (s *Store) InsertTransactions(ctx context.Context, userID, runID string, txs []domain.CategorizedTransaction) error {
	if len(txs) == 0 {
		return nil
	}
	created := now()
	err := WithTx(s.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO transactions(
		 id, user_id, import_run_id, date, amount, type, description, category_id, category_source, created_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, t := range txs {
			_, err := stmt.ExecContext(ctx,
				uuid.NewString(), userID, runID, t.Date.String(), t.Amount.String(), string(t.Type),
				t.Description, nullString(t.CategoryID), nullString(string(t.CategorySource)), created)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("InsertTransactions: %w", err)
	}
	return nil
}

// QueryTransactionsByDateRange returns the dedup window: transactions between
// start and end inclusive of runs that succeeded or never finished. Rows of
// a run stuck in RUNNING are stored, so they must block a re-import.
func (s *Store) QueryTransactionsByDateRange(ctx context.Context, userID string, start, end civil.Date) ([]domain.ExistingTransaction, error) {
	stored, err := s.queryTransactions(ctx, userID, start, end, domain.RunStatusSuccess, domain.RunStatusRunning)
	if err != nil {
		return nil, fmt.Errorf("QueryTransactionsByDateRange: %w", err)
	}
	out := make([]domain.ExistingTransaction, 0, len(stored))
	for _, t := range stored {
		out = append(out, domain.ExistingTransaction{Date: t.Date, Amount: t.Amount, Description: t.Description})
	}
	return out, nil
}

// ListTransactions returns a user's transactions of successful runs between
// start and end inclusive, oldest first.
func (s *Store) ListTransactions(ctx context.Context, userID string, start, end civil.Date) ([]domain.StoredTransaction, error) {
	stored, err := s.queryTransactions(ctx, userID, start, end, domain.RunStatusSuccess)
	if err != nil {
		return nil, fmt.Errorf("ListTransactions: %w", err)
	}
	return stored, nil
}

// queryTransactions reads transactions of runs in one of statuses.
func (s *Store) queryTransactions(ctx context.Context, userID string, start, end civil.Date, statuses ...string) ([]domain.StoredTransaction, error) {
	args := []interface{}{userID, start.String(), end.String()}
	for _, st := range statuses {
		args = append(args, st)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(statuses)), ",")

	// ISO dates compare correctly as text.
	rows, err := s.db.QueryContext(ctx, `
	SELECT t.id, t.import_run_id, t.date, t.amount, t.type, t.description,
	       t.category_id, t.category_source, t.created_at
	FROM transactions t
	JOIN import_runs r ON r.id = t.import_run_id
	WHERE t.user_id = ? AND t.date >= ? AND t.date <= ? AND r.status IN (`+placeholders+`)
	ORDER BY t.date, t.created_at`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.StoredTransaction
	for rows.Next() {
		var (
			t                 domain.StoredTransaction
			date, amount, typ string
			category, catSrc  sql.NullString
		)
		if err := rows.Scan(&t.ID, &t.RunID, &date, &amount, &typ, &t.Description, &category, &catSrc, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		if t.Date, err = civil.ParseDate(date); err != nil {
			return nil, fmt.Errorf("transaction %s: date %q: %w", t.ID, date, err)
		}
		if t.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("transaction %s: amount %q: %w", t.ID, amount, err)
		}
		t.Type = domain.TransactionType(typ)
		t.CategoryID = category.String
		t.CategorySource = domain.CategorySource(catSrc.String)
		out = append(out, t)
	}
	return out, rows.Err()
}

// StartImportRun records a RUNNING run and returns its id.
func (s *Store) StartImportRun(ctx context.Context, userID, source, filename string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO import_runs(id, user_id, source, source_name, status, started_at)
	VALUES(?, ?, ?, ?, ?, ?)`, id, userID, source, filename, domain.RunStatusRunning, now())
	if err != nil {
		return "", fmt.Errorf("StartImportRun: %w", err)
	}
	return id, nil
}

// MarkImportRunSucceeded stores the summary counters and sets SUCCESS.
func (s *Store) MarkImportRunSucceeded(ctx context.Context, runID string, summary domain.ImportSummary) error {
	_, err := s.db.ExecContext(ctx, `
	UPDATE import_runs SET
	 status = ?, finished_at = ?, error_message = '',
	 imported = ?, total = ?, ai_categorized = ?, keyword_categorized = ?,
	 uncategorized = ?, skipped = ?, row_errors = ?
	WHERE id = ?`,
		domain.RunStatusSuccess, now(),
		summary.Imported, summary.Total, summary.AICategorized, summary.KeywordCategorized,
		summary.Uncategorized, summary.Skipped, len(summary.Errors), runID)
	if err != nil {
		return fmt.Errorf("MarkImportRunSucceeded: %w", err)
	}
	return nil
}

// MarkImportRunFailed sets FAILED with the error message. A failed update is
// ignored so the import error reaches the caller.
func (s *Store) MarkImportRunFailed(ctx context.Context, runID string, runErr error) {
	msg := ""
	if runErr != nil {
		msg = runErr.Error()
	}
	_, _ = s.db.ExecContext(ctx, `
	UPDATE import_runs SET status = ?, finished_at = ?, error_message = ?
	WHERE id = ?`, domain.RunStatusFailed, now(), msg, runID)
}

// ListImportRuns returns the most recent runs of a user, newest first.
func (s *Store) ListImportRuns(ctx context.Context, userID string, limit int) ([]domain.ImportRun, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT id, user_id, source, source_name, status, error_message, started_at, finished_at,
	       imported, total, ai_categorized, keyword_categorized, uncategorized, skipped
	FROM import_runs
	WHERE user_id = ?
	ORDER BY started_at DESC, rowid DESC
	LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("ListImportRuns: %w", err)
	}
	defer rows.Close()

	var out []domain.ImportRun
	for rows.Next() {
		var (
			r                                  domain.ImportRun
			finished                           sql.NullTime
			imported, total, ai, kw, unc, skip sql.NullInt64
		)
		if err := rows.Scan(&r.ID, &r.UserID, &r.Source, &r.SourceName, &r.Status, &r.ErrorMessage,
			&r.StartedAt, &finished, &imported, &total, &ai, &kw, &unc, &skip); err != nil {
			return nil, fmt.Errorf("ListImportRuns: scan: %w", err)
		}
		if finished.Valid {
			f := finished.Time
			r.FinishedAt = &f
		}
		if r.Status == domain.RunStatusSuccess {
			r.Summary = &domain.ImportSummary{
				Imported:           int(imported.Int64),
				Total:              int(total.Int64),
				Categorized:        int(ai.Int64 + kw.Int64),
				AICategorized:      int(ai.Int64),
				KeywordCategorized: int(kw.Int64),
				Uncategorized:      int(unc.Int64),
				Skipped:            int(skip.Int64),
				Errors:             []string{},
			}
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListImportRuns: %w", err)
	}
	return out, nil
}

// DeleteImportRun removes a run and the transactions it wrote.
func (s *Store) DeleteImportRun(ctx context.Context, userID, runID string) error {
	err := WithTx(s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE import_run_id = ? AND user_id = ?`, runID, userID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM import_runs WHERE id = ? AND user_id = ?`, runID, userID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return domain.ErrRunNotFound
		}
		return nil
	})
	if errors.Is(err, domain.ErrRunNotFound) {
		return err
	}
	if err != nil {
		return fmt.Errorf("DeleteImportRun: %w", err)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
