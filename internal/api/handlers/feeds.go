package handlers

import (
	"context"
	"net/http"

	"github.com/dvloznov/statement-importer/internal/api/middleware"
	"github.com/dvloznov/statement-importer/internal/domain"
	"github.com/dvloznov/statement-importer/internal/jobs"
	"github.com/dvloznov/statement-importer/internal/logger"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// FeedSyncer imports every page of a bank-feed account.
type FeedSyncer interface {
	SyncAccount(ctx context.Context, userID, accountID string) (domain.ImportSummary, error)
}

// FeedsHandler handles bank-feed endpoints.
type FeedsHandler struct {
	syncer    FeedSyncer
	publisher jobs.Publisher
	log       zerolog.Logger
}

// NewFeedsHandler creates a new feeds handler. publisher may be nil.
func NewFeedsHandler(syncer FeedSyncer, publisher jobs.Publisher, log zerolog.Logger) *FeedsHandler {
	return &FeedsHandler{
		syncer:    syncer,
		publisher: publisher,
		log:       log,
	}
}

// SyncAccount handles POST /api/feeds/{accountID}/sync
// With ?async=true the sync is queued as a job instead.
func (h *FeedsHandler) SyncAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserIDFromContext(ctx)
	accountID := mux.Vars(r)["accountID"]

	if r.URL.Query().Get("async") == "true" {
		if h.publisher == nil {
			middleware.WriteError(w, http.StatusServiceUnavailable, "Async imports are not enabled")
			return
		}
		job := &jobs.ImportJob{Type: jobs.JobTypeSyncFeed, UserID: userID, AccountID: accountID}
		if err := h.publisher.PublishImport(ctx, job); err != nil {
			h.log.Error().Err(err).Str("account_id", accountID).Msg("Failed to enqueue sync job")
			middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue sync job")
			return
		}
		middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
			"job_id":     job.JobID,
			"account_id": accountID,
			"status":     string(job.Status),
		})
		return
	}

	log := logger.FromContext(ctx).With().Str("user_id", userID).Str("account_id", accountID).Logger()
	summary, err := h.syncer.SyncAccount(ctx, userID, accountID)
	if err != nil {
		writeImportError(w, log, err)
		return
	}

	log.Info().Int("imported", summary.Imported).Int("skipped", summary.Skipped).Msg("Feed synced")
	middleware.WriteJSON(w, http.StatusOK, summary)
}
