package handlers

import (
	"net/http"

	"github.com/dvloznov/statement-importer/internal/api/middleware"
	"github.com/dvloznov/statement-importer/internal/domain"
	"github.com/dvloznov/statement-importer/internal/pipeline"
	"github.com/rs/zerolog"
)

// CategoriesHandler handles category-related endpoints.
type CategoriesHandler struct {
	store pipeline.CategoryStore
	log   zerolog.Logger
}

// NewCategoriesHandler creates a new categories handler.
func NewCategoriesHandler(store pipeline.CategoryStore, log zerolog.Logger) *CategoriesHandler {
	return &CategoriesHandler{
		store: store,
		log:   log,
	}
}

// ListCategories handles GET /api/categories
func (h *CategoriesHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	categories, err := h.store.ListCategories(ctx, middleware.UserIDFromContext(ctx))
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list categories")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list categories")
		return
	}
	if categories == nil {
		categories = []domain.Category{}
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"categories": categories,
		"count":      len(categories),
	})
}
