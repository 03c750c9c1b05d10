package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dvloznov/statement-importer/internal/logger"
	"github.com/stretchr/testify/assert"
)

func TestRequestIDAndUserID(t *testing.T) {
	var gotRequestID, gotUser string
	h := RequestID(UserID("default")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRequestID = RequestIDFromContext(r.Context())
		gotUser = UserIDFromContext(r.Context())
	})))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.NotEmpty(t, gotRequestID)
	assert.Equal(t, gotRequestID, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "default", gotUser)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-1")
	req.Header.Set(UserIDHeader, "alice")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "req-1", gotRequestID)
	assert.Equal(t, "alice", gotUser)
}

func TestLoggerInjectsRequestLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	h := RequestID(Logger(logger.NewWithWriter(buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())
		log.Info().Msg("inside handler")
		w.WriteHeader(http.StatusTeapot)
	})))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-42")
	h.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	assert.Contains(t, out, "inside handler")
	assert.Contains(t, out, `"request_id":"req-42"`)
	assert.Contains(t, out, `"status":418`)
}

func TestRecovery(t *testing.T) {
	h := Recovery(logger.NewWithWriter(&bytes.Buffer{}))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, rec.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	called := false
	h := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/imports", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, called)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), UserIDHeader)
}
