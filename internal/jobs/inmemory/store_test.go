package inmemory

import (
	"context"
	"testing"
	"time"

	"github.com/dvloznov/statement-importer/internal/domain"
	"github.com/dvloznov/statement-importer/internal/jobs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreGetJobNotFound(t *testing.T) {
	_, err := NewStore().GetJob(context.Background(), "missing")
	assert.ErrorIs(t, err, jobs.ErrJobNotFound)
}

func TestStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	job := &jobs.ImportJob{JobID: "j1", Summary: &domain.ImportSummary{Errors: []string{"a"}}}
	require.NoError(t, s.SaveJob(ctx, job))

	job.Summary.Errors[0] = "changed"

	got, err := s.GetJob(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, got.Summary.Errors)
}

func TestStoreListJobs(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	for i, j := range []jobs.ImportJob{
		{JobID: "a", UserID: "u1", Type: jobs.JobTypeImportFile, Status: jobs.JobStatusCompleted},
		{JobID: "b", UserID: "u1", Type: jobs.JobTypeSyncFeed, Status: jobs.JobStatusFailed},
		{JobID: "c", UserID: "u2", Type: jobs.JobTypeImportFile, Status: jobs.JobStatusCompleted},
		{JobID: "d", UserID: "u1", Type: jobs.JobTypeImportFile, Status: jobs.JobStatusPending},
	} {
		j := j
		j.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, s.SaveJob(ctx, &j))
	}

	ids := func(list []*jobs.ImportJob) []string {
		var out []string
		for _, j := range list {
			out = append(out, j.JobID)
		}
		return out
	}

	tests := []struct {
		name   string
		filter jobs.JobFilter
		want   []string
	}{
		{"all newest first", jobs.JobFilter{}, []string{"d", "c", "b", "a"}},
		{"by user", jobs.JobFilter{UserID: "u1"}, []string{"d", "b", "a"}},
		{"by type", jobs.JobFilter{Type: jobs.JobTypeSyncFeed}, []string{"b"}},
		{"by status", jobs.JobFilter{Status: jobs.JobStatusCompleted}, []string{"c", "a"}},
		{"limit", jobs.JobFilter{Limit: 2}, []string{"d", "c"}},
		{"offset", jobs.JobFilter{Offset: 3}, []string{"a"}},
		{"offset past end", jobs.JobFilter{Offset: 9}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListJobs(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestStoreUpdateJobStatus(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.SaveJob(ctx, &jobs.ImportJob{JobID: "j1", Status: jobs.JobStatusPending}))

	require.NoError(t, s.UpdateJobStatus(ctx, "j1", jobs.JobStatusFailed, "boom"))
	got, err := s.GetJob(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, jobs.JobStatusFailed, got.Status)
	assert.Equal(t, "boom", got.Error)

	assert.ErrorIs(t, s.UpdateJobStatus(ctx, "nope", jobs.JobStatusFailed, ""), jobs.ErrJobNotFound)
}
