package domain

import (
	"errors"
	"time"
)

// StoredTransaction is a persisted transaction as returned by listing queries.
type StoredTransaction struct {
	ID    string `json:"id"`
	RunID string `json:"run_id"`
	CategorizedTransaction
	CreatedAt time.Time `json:"created_at"`
}

// Import run statuses.
const (
	RunStatusRunning = "RUNNING"
	RunStatusSuccess = "SUCCESS"
	RunStatusFailed  = "FAILED"
)

// ImportRun is the bookkeeping record of one ingestion run.
type ImportRun struct {
	ID           string         `json:"id"`
	UserID       string         `json:"user_id"`
	Source       string         `json:"source"`
	SourceName   string         `json:"source_name,omitempty"`
	Status       string         `json:"status"`
	ErrorMessage string         `json:"error_message,omitempty"`
	StartedAt    time.Time      `json:"started_at"`
	FinishedAt   *time.Time     `json:"finished_at,omitempty"`
	Summary      *ImportSummary `json:"summary,omitempty"`
}

// ErrRunNotFound is returned when an import run does not exist for the user.
var ErrRunNotFound = errors.New("import run not found")
