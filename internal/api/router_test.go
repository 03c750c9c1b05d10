package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dvloznov/statement-importer/internal/app"
	"github.com/dvloznov/statement-importer/internal/config"
	"github.com/dvloznov/statement-importer/internal/domain"
	"github.com/dvloznov/statement-importer/internal/jobs/inmemory"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const marchCSV = "Datum;Naam / Omschrijving;Bedrag (EUR);Af Bij\n01-03-2024;Albert Heijn 1234;25,47;Af\n05-03-2024;Onbekende winkel;3,00;Af\n"

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	cfg := config.Config{
		Store:      config.StoreConfig{Driver: config.DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "api.db")},
		Classifier: config.ClassifierConfig{Provider: config.ProviderNone, BatchSize: 50, Concurrency: 1},
		BankFeed:   config.BankFeedConfig{PageLimit: 10},
		Import:     config.ImportConfig{UserID: "default"},
	}
	a, err := app.New(context.Background(), cfg, app.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	jobStore := inmemory.NewStore()
	return NewRouter(RouterConfig{
		App:       a,
		Publisher: inmemory.NewQueue(10, jobStore),
		Jobs:      jobStore,
		Log:       zerolog.Nop(),
	})
}

func do(h http.Handler, method, target, body, user string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "text/csv")
	}
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestImportListAndUndo(t *testing.T) {
	h := newTestRouter(t)

	rec := do(h, http.MethodPost, "/api/imports?filename=march.csv", marchCSV, "alice")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var summary domain.ImportSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 2, summary.Imported)
	assert.Equal(t, 1, summary.KeywordCategorized)

	rec = do(h, http.MethodGet, "/api/transactions?start_date=2024-03-01&end_date=2024-03-31", "", "alice")
	require.Equal(t, http.StatusOK, rec.Code)
	var txs []domain.StoredTransaction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &txs))
	assert.Len(t, txs, 2)

	// Another user sees nothing.
	rec = do(h, http.MethodGet, "/api/transactions?start_date=2024-03-01&end_date=2024-03-31", "", "bob")
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = do(h, http.MethodGet, "/api/runs", "", "alice")
	require.Equal(t, http.StatusOK, rec.Code)
	var runs struct {
		Runs []domain.ImportRun `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &runs))
	require.Len(t, runs.Runs, 1)

	rec = do(h, http.MethodDelete, "/api/runs/"+runs.Runs[0].ID, "", "bob")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(h, http.MethodDelete, "/api/runs/"+runs.Runs[0].ID, "", "alice")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(h, http.MethodGet, "/api/transactions?start_date=2024-03-01&end_date=2024-03-31", "", "alice")
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestUnrecognizedFileIsUnprocessable(t *testing.T) {
	h := newTestRouter(t)

	rec := do(h, http.MethodPost, "/api/imports?filename=x.csv", "Foo;Bar\n1;2\n", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), `"headers"`)
}

func TestFeedSyncWithoutTokenIsUnavailable(t *testing.T) {
	h := newTestRouter(t)

	rec := do(h, http.MethodPost, "/api/feeds/acc-1/sync", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRouting(t *testing.T) {
	h := newTestRouter(t)

	tests := []struct {
		name   string
		method string
		target string
		want   int
	}{
		{"health", http.MethodGet, "/health", http.StatusOK},
		{"categories", http.MethodGet, "/api/categories", http.StatusOK},
		{"jobs", http.MethodGet, "/api/jobs", http.StatusOK},
		{"unknown job", http.MethodGet, "/api/jobs/nope", http.StatusNotFound},
		{"unknown route", http.MethodGet, "/api/nope", http.StatusNotFound},
		{"wrong method", http.MethodGet, "/api/imports", http.StatusMethodNotAllowed},
		{"preflight", http.MethodOptions, "/api/imports", http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(h, tt.method, tt.target, "", "")
			assert.Equal(t, tt.want, rec.Code)
			assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
		})
	}
}
