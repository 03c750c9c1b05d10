package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/dvloznov/statement-importer/internal/api/middleware"
	"github.com/dvloznov/statement-importer/internal/app"
	"github.com/dvloznov/statement-importer/internal/bankfeed"
	"github.com/dvloznov/statement-importer/internal/domain"
	"github.com/dvloznov/statement-importer/internal/pipeline"
	"github.com/dvloznov/statement-importer/internal/statement"
	"github.com/rs/zerolog"
)

// formatErrorResponse tells the caller which columns were found and how
// close they came to the ones that are required.
type formatErrorResponse struct {
	Error       string              `json:"error"`
	Headers     []string            `json:"headers"`
	Missing     []domain.ColumnRole `json:"missing"`
	Suggestions map[string]string   `json:"suggestions,omitempty"`
}

// writeImportError maps a failed import to a status code. Problems with the
// input are reported verbatim so the user can fix the file.
func writeImportError(w http.ResponseWriter, log zerolog.Logger, err error) {
	var (
		formatErr *statement.FormatUnrecognizedError
		emptyErr  *pipeline.EmptyInputError
		apiErr    *bankfeed.APIError
	)

	switch {
	case errors.As(err, &formatErr):
		headers := formatErr.Headers
		if headers == nil {
			headers = []string{}
		}
		middleware.WriteJSON(w, http.StatusUnprocessableEntity, formatErrorResponse{
			Error:       formatErr.Error(),
			Headers:     headers,
			Missing:     formatErr.Missing,
			Suggestions: formatErr.Suggestions,
		})
	case errors.As(err, &emptyErr):
		middleware.WriteError(w, http.StatusUnprocessableEntity, emptyErr.Error())
	case errors.Is(err, app.ErrFeedNotConfigured):
		middleware.WriteError(w, http.StatusServiceUnavailable, err.Error())
	case errors.As(err, &apiErr), errors.Is(err, bankfeed.ErrLoopingCursor), errors.Is(err, bankfeed.ErrPageLimit):
		log.Warn().Err(err).Msg("Bank feed request failed")
		middleware.WriteError(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		log.Error().Err(err).Msg("Import timed out")
		middleware.WriteError(w, http.StatusGatewayTimeout, "Import timed out")
	default:
		log.Error().Err(err).Msg("Import failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Import failed")
	}
}
