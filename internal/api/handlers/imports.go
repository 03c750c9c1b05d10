package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/dvloznov/statement-importer/internal/api/middleware"
	"github.com/dvloznov/statement-importer/internal/domain"
	"github.com/dvloznov/statement-importer/internal/gcsuploader"
	"github.com/dvloznov/statement-importer/internal/jobs"
	"github.com/dvloznov/statement-importer/internal/logger"
	"github.com/dvloznov/statement-importer/internal/pipeline"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// MaxUploadBytes caps the size of an uploaded statement.
const MaxUploadBytes = 20 << 20

// Importer runs one synchronous file import.
type Importer interface {
	Import(ctx context.Context, userID string, in pipeline.Input) (domain.ImportSummary, error)
}

// ImportsHandler handles statement uploads.
type ImportsHandler struct {
	importer  Importer
	blobs     gcsuploader.BlobStore
	publisher jobs.Publisher
	log       zerolog.Logger
}

// NewImportsHandler creates a new imports handler. blobs and publisher may
// be nil, in which case async imports are refused.
func NewImportsHandler(importer Importer, blobs gcsuploader.BlobStore, publisher jobs.Publisher, log zerolog.Logger) *ImportsHandler {
	return &ImportsHandler{
		importer:  importer,
		blobs:     blobs,
		publisher: publisher,
		log:       log,
	}
}

// Import handles POST /api/imports
// The file is sent either as the multipart field "file" or as the raw body
// with ?filename=. ?kind= forces delimited, spreadsheet or pdf.
func (h *ImportsHandler) Import(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserIDFromContext(ctx)

	in, err := readUpload(w, r)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	log := logger.FromContext(ctx).With().Str("user_id", userID).Str("filename", in.Filename).Logger()
	summary, err := h.importer.Import(ctx, userID, in)
	if err != nil {
		writeImportError(w, log, err)
		return
	}

	log.Info().Int("imported", summary.Imported).Int("skipped", summary.Skipped).Msg("Statement imported")
	middleware.WriteJSON(w, http.StatusOK, summary)
}

// EnqueueImport handles POST /api/imports/async
// The file is staged in blob storage and imported by a worker. The response
// carries the job id to poll.
func (h *ImportsHandler) EnqueueImport(w http.ResponseWriter, r *http.Request) {
	if h.blobs == nil || h.publisher == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, "Async imports are not enabled")
		return
	}

	ctx := r.Context()
	userID := middleware.UserIDFromContext(ctx)

	in, err := readUpload(w, r)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	name := in.Filename
	if name == "" {
		name = "statement"
	}
	objectName := gcsuploader.ObjectName(userID, uuid.NewString(), name)
	uri, err := h.blobs.Upload(ctx, objectName, in.Data, contentType(name))
	if err != nil {
		h.log.Error().Err(err).Str("object", objectName).Msg("Failed to stage upload")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to store file")
		return
	}

	job := &jobs.ImportJob{
		Type:     jobs.JobTypeImportFile,
		UserID:   userID,
		BlobURI:  uri,
		Filename: name,
	}
	if err := h.publisher.PublishImport(ctx, job); err != nil {
		h.log.Error().Err(err).Msg("Failed to enqueue import job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue import job")
		return
	}

	h.log.Info().Str("job_id", job.JobID).Str("blob_uri", uri).Msg("Import job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id":   job.JobID,
		"blob_uri": uri,
		"status":   string(job.Status),
	})
}

// readUpload reads the statement from a multipart form or the raw body.
func readUpload(w http.ResponseWriter, r *http.Request) (pipeline.Input, error) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)

	in := pipeline.Input{Kind: pipeline.Source(r.URL.Query().Get("kind"))}
	switch in.Kind {
	case pipeline.SourceAuto, pipeline.SourceDelimited, pipeline.SourceSpreadsheet, pipeline.SourcePDF:
	default:
		return pipeline.Input{}, fmt.Errorf("unknown kind %q", in.Kind)
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		file, header, err := r.FormFile("file")
		if err != nil {
			if errors.Is(err, http.ErrMissingFile) {
				return pipeline.Input{}, errors.New("file is required")
			}
			return pipeline.Input{}, uploadReadError(err)
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return pipeline.Input{}, uploadReadError(err)
		}
		in.Filename = filepath.Base(header.Filename)
		in.Data = data
	} else {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			return pipeline.Input{}, uploadReadError(err)
		}
		if name := r.URL.Query().Get("filename"); name != "" {
			in.Filename = filepath.Base(name)
		}
		in.Data = data
	}

	if len(in.Data) == 0 {
		return pipeline.Input{}, errors.New("file is required")
	}
	return in, nil
}

func uploadReadError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return fmt.Errorf("file exceeds %d bytes", tooLarge.Limit)
	}
	return fmt.Errorf("reading upload: %w", err)
}

func contentType(filename string) string {
	switch filepath.Ext(filename) {
	case ".pdf":
		return "application/pdf"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".csv":
		return "text/csv"
	default:
		return "application/octet-stream"
	}
}
