package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/dvloznov/statement-importer/internal/api/middleware"
	"github.com/dvloznov/statement-importer/internal/domain"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// defaultRunLimit applies when GET /api/runs has no limit.
const defaultRunLimit = 50

// RunStore lists and undoes import runs.
type RunStore interface {
	ListImportRuns(ctx context.Context, userID string, limit int) ([]domain.ImportRun, error)
	DeleteImportRun(ctx context.Context, userID, runID string) error
}

// RunsHandler handles import-run endpoints.
type RunsHandler struct {
	store RunStore
	log   zerolog.Logger
}

// NewRunsHandler creates a new runs handler.
func NewRunsHandler(store RunStore, log zerolog.Logger) *RunsHandler {
	return &RunsHandler{
		store: store,
		log:   log,
	}
}

// ListRuns handles GET /api/runs
func (h *RunsHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := defaultRunLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	runs, err := h.store.ListImportRuns(ctx, middleware.UserIDFromContext(ctx), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list import runs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list import runs")
		return
	}
	if runs == nil {
		runs = []domain.ImportRun{}
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
	})
}

// DeleteRun handles DELETE /api/runs/{id}
// It removes the run together with every transaction it imported.
func (h *RunsHandler) DeleteRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	runID := mux.Vars(r)["id"]

	err := h.store.DeleteImportRun(ctx, middleware.UserIDFromContext(ctx), runID)
	if errors.Is(err, domain.ErrRunNotFound) {
		middleware.WriteError(w, http.StatusNotFound, "Import run not found")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("run_id", runID).Msg("Failed to delete import run")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to delete import run")
		return
	}

	h.log.Info().Str("run_id", runID).Msg("Import run deleted")
	w.WriteHeader(http.StatusNoContent)
}
