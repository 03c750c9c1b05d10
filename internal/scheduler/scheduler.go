// Package scheduler queues periodic bank-feed syncs.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dvloznov/statement-importer/internal/jobs"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// DefaultSchedule syncs every configured account once a day.
const DefaultSchedule = "0 6 * * *"

// Config selects what is synced and when.
type Config struct {
	// Schedule is a standard five-field cron expression.
	Schedule string
	UserID   string
	Accounts []string

	// Location defaults to UTC.
	Location *time.Location
}

// Scheduler publishes one sync job per account on every tick. The jobs are
// run by whatever consumes the publisher.
type Scheduler struct {
	cron      *cron.Cron
	cfg       Config
	publisher jobs.Publisher
	log       zerolog.Logger
}

// New validates the schedule and registers the sync. Call Start to run it.
func New(cfg Config, publisher jobs.Publisher, log zerolog.Logger) (*Scheduler, error) {
	if cfg.Schedule == "" {
		cfg.Schedule = DefaultSchedule
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	s := &Scheduler{
		cron:      cron.New(cron.WithLocation(cfg.Location)),
		cfg:       cfg,
		publisher: publisher,
		log:       log,
	}

	if _, err := s.cron.AddFunc(cfg.Schedule, func() {
		if err := s.SyncAll(context.Background()); err != nil {
			s.log.Error().Err(err).Msg("Scheduled feed sync failed")
		}
	}); err != nil {
		return nil, fmt.Errorf("New: invalid schedule %q: %w", cfg.Schedule, err)
	}

	return s, nil
}

// SyncAll queues a sync job for every configured account.
func (s *Scheduler) SyncAll(ctx context.Context) error {
	var errs []error
	for _, accountID := range s.cfg.Accounts {
		job := &jobs.ImportJob{
			Type:      jobs.JobTypeSyncFeed,
			UserID:    s.cfg.UserID,
			AccountID: accountID,
		}
		if err := s.publisher.PublishImport(ctx, job); err != nil {
			errs = append(errs, fmt.Errorf("account %s: %w", accountID, err))
			continue
		}
		s.log.Info().Str("job_id", job.JobID).Str("account_id", accountID).Msg("Feed sync queued")
	}
	if len(errs) > 0 {
		return fmt.Errorf("SyncAll: %w", errors.Join(errs...))
	}
	return nil
}

// Start runs the schedule in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().
		Str("schedule", s.cfg.Schedule).
		Strs("accounts", s.cfg.Accounts).
		Time("next_run", s.Next()).
		Msg("Feed sync scheduler started")
}

// Next returns the time of the next scheduled sync.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	if !entries[0].Next.IsZero() {
		return entries[0].Next
	}
	return entries[0].Schedule.Next(time.Now().In(s.cfg.Location))
}

// Stop halts the schedule and waits for a running tick to finish or ctx to
// expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
