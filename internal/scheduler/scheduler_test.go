package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dvloznov/statement-importer/internal/jobs"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockPublisher struct {
	PublishImportFunc func(ctx context.Context, job *jobs.ImportJob) error
	published         []*jobs.ImportJob
}

func (m *mockPublisher) PublishImport(ctx context.Context, job *jobs.ImportJob) error {
	if m.PublishImportFunc != nil {
		if err := m.PublishImportFunc(ctx, job); err != nil {
			return err
		}
	}
	m.published = append(m.published, job)
	return nil
}

func (m *mockPublisher) Close() error { return nil }

func TestNewRejectsBadSchedule(t *testing.T) {
	_, err := New(Config{Schedule: "every day"}, &mockPublisher{}, zerolog.Nop())
	assert.Error(t, err)
}

func TestNewDefaults(t *testing.T) {
	s, err := New(Config{}, &mockPublisher{}, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, DefaultSchedule, s.cfg.Schedule)

	next := s.Next()
	require.False(t, next.IsZero())
	assert.Equal(t, 6, next.UTC().Hour())
	assert.Equal(t, 0, next.UTC().Minute())
}

func TestSyncAllQueuesOneJobPerAccount(t *testing.T) {
	pub := &mockPublisher{}
	s, err := New(Config{UserID: "u1", Accounts: []string{"acc-1", "acc-2"}}, pub, zerolog.Nop())
	require.NoError(t, err)

	require.NoError(t, s.SyncAll(context.Background()))

	require.Len(t, pub.published, 2)
	for i, want := range []string{"acc-1", "acc-2"} {
		assert.Equal(t, jobs.JobTypeSyncFeed, pub.published[i].Type)
		assert.Equal(t, "u1", pub.published[i].UserID)
		assert.Equal(t, want, pub.published[i].AccountID)
	}
}

func TestSyncAllContinuesAfterFailure(t *testing.T) {
	pub := &mockPublisher{PublishImportFunc: func(ctx context.Context, job *jobs.ImportJob) error {
		if job.AccountID == "acc-1" {
			return errors.New("queue is closed")
		}
		return nil
	}}
	s, err := New(Config{Accounts: []string{"acc-1", "acc-2"}}, pub, zerolog.Nop())
	require.NoError(t, err)

	err = s.SyncAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "account acc-1")
	require.Len(t, pub.published, 1)
	assert.Equal(t, "acc-2", pub.published[0].AccountID)
}

func TestStartStop(t *testing.T) {
	s, err := New(Config{Schedule: "@every 1h"}, &mockPublisher{}, zerolog.Nop())
	require.NoError(t, err)

	s.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Stop(ctx))
}
