package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/dvloznov/statement-importer/internal/domain"
)

// JobType represents the type of job to be executed.
type JobType string

const (
	// JobTypeImportFile imports a statement file staged in blob storage.
	JobTypeImportFile JobType = "import_file"
	// JobTypeSyncFeed imports every page of a bank-feed account.
	JobTypeSyncFeed JobType = "sync_feed"
)

// JobStatus represents the current status of a job.
type JobStatus string

const (
	// JobStatusPending indicates the job is waiting to be processed.
	JobStatusPending JobStatus = "pending"
	// JobStatusRunning indicates the job is currently being processed.
	JobStatusRunning JobStatus = "running"
	// JobStatusCompleted indicates the job completed successfully.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed indicates the job failed.
	JobStatusFailed JobStatus = "failed"
	// JobStatusRetrying indicates the job failed and is being retried.
	JobStatusRetrying JobStatus = "retrying"
)

// DefaultMaxRetries applies when a published job does not set MaxRetries.
const DefaultMaxRetries = 3

// ErrJobNotFound is returned by a JobStore for an unknown job id.
var ErrJobNotFound = errors.New("job not found")

// ImportJob is one asynchronous import: a staged statement file or a feed
// account to sync.
type ImportJob struct {
	JobID  string  `json:"job_id"`
	Type   JobType `json:"type"`
	UserID string  `json:"user_id"`

	// BlobURI and Filename are set for file imports.
	BlobURI  string `json:"blob_uri,omitempty"`
	Filename string `json:"filename,omitempty"`

	// AccountID is set for feed syncs.
	AccountID string `json:"account_id,omitempty"`

	Status      JobStatus  `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Summary is filled when the import finished.
	Summary *domain.ImportSummary `json:"summary,omitempty"`

	Error      string `json:"error,omitempty"`
	RetryCount int    `json:"retry_count"`
	MaxRetries int    `json:"max_retries"`
}

// Job is a generic interface for all job types.
type Job interface {
	// GetID returns the unique job identifier.
	GetID() string

	// GetType returns the job type.
	GetType() JobType

	// GetStatus returns the current job status.
	GetStatus() JobStatus
}

// GetID implements the Job interface.
func (j *ImportJob) GetID() string {
	return j.JobID
}

// GetType implements the Job interface.
func (j *ImportJob) GetType() JobType {
	return j.Type
}

// GetStatus implements the Job interface.
func (j *ImportJob) GetStatus() JobStatus {
	return j.Status
}

// Publisher defines the interface for publishing jobs to a queue.
type Publisher interface {
	// PublishImport enqueues an import job and returns once it is stored.
	PublishImport(ctx context.Context, job *ImportJob) error

	// Close closes the publisher and releases resources.
	Close() error
}

// Consumer defines the interface for consuming jobs from a queue.
type Consumer interface {
	// Start begins consuming jobs from the queue.
	// The handler function is called for each job received.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming jobs and waits for in-flight jobs to complete.
	Stop(ctx context.Context) error
}

// JobHandler processes a job. A returned error is retried unless it is
// marked with Permanent. The summary, when not nil, is stored on the job.
type JobHandler func(ctx context.Context, job *ImportJob) (*domain.ImportSummary, error)

// JobStore defines the interface for storing and retrieving job status.
type JobStore interface {
	// SaveJob saves or updates a job's state.
	SaveJob(ctx context.Context, job *ImportJob) error

	// GetJob retrieves a job by ID. It returns ErrJobNotFound for unknown ids.
	GetJob(ctx context.Context, jobID string) (*ImportJob, error)

	// ListJobs retrieves jobs with optional filtering, newest first.
	ListJobs(ctx context.Context, filter JobFilter) ([]*ImportJob, error)

	// UpdateJobStatus updates the status of a job.
	UpdateJobStatus(ctx context.Context, jobID string, status JobStatus, errorMsg string) error
}

// JobFilter defines filtering criteria for listing jobs.
type JobFilter struct {
	UserID string
	Type   JobType
	Status JobStatus

	// Limit limits the number of results.
	Limit int

	// Offset for pagination.
	Offset int
}

// permanentError marks a failure that a retry cannot fix.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not retryable.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}
