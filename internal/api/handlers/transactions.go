package handlers

import (
	"context"
	"net/http"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/statement-importer/internal/api/middleware"
	"github.com/dvloznov/statement-importer/internal/domain"
	"github.com/rs/zerolog"
)

// TransactionLister reads stored transactions.
type TransactionLister interface {
	ListTransactions(ctx context.Context, userID string, start, end civil.Date) ([]domain.StoredTransaction, error)
}

// TransactionsHandler handles transaction-related endpoints.
type TransactionsHandler struct {
	store TransactionLister
	log   zerolog.Logger

	// now is replaced in tests.
	now func() time.Time
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(store TransactionLister, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{
		store: store,
		log:   log,
		now:   time.Now,
	}
}

// ListTransactions handles GET /api/transactions
// start_date defaults to one year ago and end_date to today.
func (h *TransactionsHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	today := civil.DateOf(h.now())
	startDate := today.AddYears(-1)
	endDate := today

	if s := query.Get("start_date"); s != "" {
		d, err := civil.ParseDate(s)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid start_date format")
			return
		}
		startDate = d
	}
	if s := query.Get("end_date"); s != "" {
		d, err := civil.ParseDate(s)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid end_date format")
			return
		}
		endDate = d
	}
	if endDate.Before(startDate) {
		middleware.WriteError(w, http.StatusBadRequest, "end_date is before start_date")
		return
	}

	transactions, err := h.store.ListTransactions(ctx, middleware.UserIDFromContext(ctx), startDate, endDate)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to query transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to query transactions")
		return
	}

	// Return array directly for frontend compatibility
	if transactions == nil {
		transactions = []domain.StoredTransaction{}
	}
	middleware.WriteJSON(w, http.StatusOK, transactions)
}
