// Package api exposes the importer over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/dvloznov/statement-importer/internal/api/handlers"
	"github.com/dvloznov/statement-importer/internal/api/middleware"
	"github.com/dvloznov/statement-importer/internal/app"
	"github.com/dvloznov/statement-importer/internal/jobs"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// RouterConfig holds what the HTTP routes are served from. Publisher and
// Jobs may be nil, which disables the async endpoints.
type RouterConfig struct {
	App       *app.App
	Publisher jobs.Publisher
	Jobs      jobs.JobStore
	Log       zerolog.Logger
}

// NewRouter builds the HTTP handler with all routes and middleware.
func NewRouter(cfg RouterConfig) http.Handler {
	log := cfg.Log
	a := cfg.App

	importsHandler := handlers.NewImportsHandler(a.Importer, a.Blobs, cfg.Publisher, log)
	feedsHandler := handlers.NewFeedsHandler(a, cfg.Publisher, log)
	categoriesHandler := handlers.NewCategoriesHandler(a.Store, log)
	transactionsHandler := handlers.NewTransactionsHandler(a.Store, log)
	runsHandler := handlers.NewRunsHandler(a.Store, log)

	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	}).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.UserID(a.UserID("")))

	api.HandleFunc("/imports", importsHandler.Import).Methods(http.MethodPost)
	api.HandleFunc("/imports/async", importsHandler.EnqueueImport).Methods(http.MethodPost)
	api.HandleFunc("/feeds/{accountID}/sync", feedsHandler.SyncAccount).Methods(http.MethodPost)
	api.HandleFunc("/categories", categoriesHandler.ListCategories).Methods(http.MethodGet)
	api.HandleFunc("/transactions", transactionsHandler.ListTransactions).Methods(http.MethodGet)
	api.HandleFunc("/runs", runsHandler.ListRuns).Methods(http.MethodGet)
	api.HandleFunc("/runs/{id}", runsHandler.DeleteRun).Methods(http.MethodDelete)

	if cfg.Jobs != nil {
		jobsHandler := handlers.NewJobsHandler(cfg.Jobs, log)
		api.HandleFunc("/jobs", jobsHandler.ListJobs).Methods(http.MethodGet)
		api.HandleFunc("/jobs/{id}", jobsHandler.GetJob).Methods(http.MethodGet)
	}

	// Outermost first: panics are caught after the request id and logger
	// are in place.
	return middleware.RequestID(
		middleware.Logger(log)(
			middleware.Recovery(log)(
				middleware.CORS(r),
			),
		),
	)
}
