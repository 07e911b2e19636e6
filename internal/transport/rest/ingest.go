package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/heartmarshall/modelboard-ingest/internal/domain"
	"github.com/heartmarshall/modelboard-ingest/internal/service/ingest"
)

// ingestService defines what IngestHandler needs from the ingest workflow.
type ingestService interface {
	Inspect(ctx context.Context, in ingest.UploadInput) (*ingest.UploadResult, error)
	CheckDuplicate(ctx context.Context, filename string) (*ingest.DuplicateStatus, error)
	Preview(ctx context.Context, in ingest.PreviewInput) (*ingest.PreviewResult, error)
	Regenerate(ctx context.Context, in ingest.RegenerateInput) (*ingest.PreviewResult, error)
	Confirm(ctx context.Context, in ingest.ConfirmInput) (*ingest.ApplyReport, error)
	DeleteBySource(ctx context.Context, source string) (*domain.DeleteResult, error)
}

// IngestHandler serves the upload review endpoints. Every request carries
// the file again; nothing is kept between calls.
type IngestHandler struct {
	svc      ingestService
	log      *slog.Logger
	maxBytes int64
}

// NewIngestHandler creates an IngestHandler. maxBytes bounds the whole
// multipart body.
func NewIngestHandler(svc ingestService, logger *slog.Logger, maxBytes int64) *IngestHandler {
	if maxBytes <= 0 {
		maxBytes = 32 << 20
	}
	return &IngestHandler{
		svc:      svc,
		log:      logger.With("handler", "ingest"),
		maxBytes: maxBytes,
	}
}

// Upload handles POST /api/uploads.
func (h *IngestHandler) Upload(w http.ResponseWriter, r *http.Request) {
	in, ok := h.readUpload(w, r)
	if !ok {
		return
	}

	res, err := h.svc.Inspect(r.Context(), in)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	msg := "context inferred"
	if res.NeedsGender {
		msg = "select a gender to continue"
	}
	writeOK(w, msg, res)
}

// Check handles POST /api/uploads/check. The file is optional; a filename
// form field is enough.
func (h *IngestHandler) Check(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := r.ParseMultipartForm(h.maxBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		writeFail(w, http.StatusBadRequest, "invalid multipart form", nil)
		return
	}

	filename := strings.TrimSpace(r.FormValue("filename"))
	if _, hdr, err := r.FormFile("file"); err == nil {
		filename = hdr.Filename
	}

	res, err := h.svc.CheckDuplicate(r.Context(), filename)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	msg := "source not ingested yet"
	if res.Exists {
		msg = fmt.Sprintf("source %q already has %d records", res.SourceID, res.Existing)
	}
	writeOK(w, msg, res)
}

// Preview handles POST /api/uploads/preview.
func (h *IngestHandler) Preview(w http.ResponseWriter, r *http.Request) {
	in, ok := h.readUpload(w, r)
	if !ok {
		return
	}

	res, err := h.svc.Preview(r.Context(), ingest.PreviewInput{Upload: in})
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeOK(w, "mapping proposed", res)
}

// Regenerate handles POST /api/uploads/regenerate.
func (h *IngestHandler) Regenerate(w http.ResponseWriter, r *http.Request) {
	in, ok := h.readUpload(w, r)
	if !ok {
		return
	}
	prev, err := decodeMapping(r.FormValue("mapping"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	res, err := h.svc.Regenerate(r.Context(), ingest.RegenerateInput{
		Upload:   in,
		Previous: prev,
		Feedback: r.FormValue("feedback"),
	})
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeOK(w, "mapping regenerated", res)
}

// Confirm handles POST /api/uploads/confirm.
func (h *IngestHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	in, ok := h.readUpload(w, r)
	if !ok {
		return
	}

	m, err := decodeMapping(r.FormValue("mapping"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	agencyID, err := parseAgencyID(r.FormValue("agency_id"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	enrich, err := parseFlag(r.FormValue("enrich"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	report, err := h.svc.Confirm(r.Context(), ingest.ConfirmInput{
		Upload:   in,
		Mapping:  m,
		AgencyID: agencyID,
		Enrich:   enrich,
	})
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	msg := fmt.Sprintf("%d inserted, %d existing, %d skipped, %d failed",
		report.Inserted, report.Existing, report.Skipped, report.Failed)
	writeOK(w, msg, report)
}

// DeleteSource handles DELETE /api/sources/{sourceID}.
func (h *IngestHandler) DeleteSource(w http.ResponseWriter, r *http.Request) {
	source := mux.Vars(r)["sourceID"]

	res, err := h.svc.DeleteBySource(r.Context(), source)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeOK(w, fmt.Sprintf("deleted %d records from %s", res.Models, res.SourceID), res)
}

// readUpload parses the multipart form and returns the uploaded file. On
// failure the response is already written.
func (h *IngestHandler) readUpload(w http.ResponseWriter, r *http.Request) (ingest.UploadInput, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeFail(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit), nil)
			return ingest.UploadInput{}, false
		}
		writeFail(w, http.StatusBadRequest, "expected a multipart form with a file field", nil)
		return ingest.UploadInput{}, false
	}

	file, hdr, err := r.FormFile("file")
	if err != nil {
		writeFail(w, http.StatusBadRequest, "a file is required", nil)
		return ingest.UploadInput{}, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.log.ErrorContext(r.Context(), "read upload", slog.String("error", err.Error()))
		writeFail(w, http.StatusBadRequest, "could not read the uploaded file", nil)
		return ingest.UploadInput{}, false
	}

	return ingest.UploadInput{
		Filename: hdr.Filename,
		Data:     data,
		Gender:   r.FormValue("gender"),
	}, true
}

func decodeMapping(raw string) (domain.Mapping, error) {
	var m domain.Mapping
	if strings.TrimSpace(raw) == "" {
		return m, domain.UserInputError("a mapping is required")
	}
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return m, domain.UserInputError("mapping is not valid JSON: %v", err)
	}
	return m, nil
}

func parseAgencyID(raw string) (*uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, domain.UserInputError("agency_id %q is not a valid id", raw)
	}
	return &id, nil
}

func parseFlag(raw string) (bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, domain.UserInputError("enrich must be true or false")
	}
	return v, nil
}

// handleError maps the error taxonomy to a status and envelope. Shape
// errors are checked first: they may wrap a validation error.
func (h *IngestHandler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		shape      *domain.MappingShapeError
		conflict   *domain.ConflictError
		validation *domain.ValidationError
	)
	switch {
	case errors.As(err, &shape):
		h.log.WarnContext(r.Context(), "unusable mapping proposal", slog.String("error", err.Error()))
		writeFail(w, http.StatusUnprocessableEntity,
			"the mapping assistant returned something that is not a usable mapping; regenerate to try again",
			map[string]string{"reason": shape.Reason.Error(), "snippet": shape.Snippet})
	case errors.As(err, &conflict):
		writeFail(w, http.StatusConflict,
			fmt.Sprintf("source %q was already ingested; delete it before uploading again", conflict.SourceID),
			map[string]any{"sourceId": conflict.SourceID, "existing": conflict.Existing})
	case errors.As(err, &validation):
		writeFail(w, http.StatusBadRequest, err.Error(), map[string]any{"fields": validation.Errors})
	case errors.Is(err, domain.ErrUserInput), errors.Is(err, domain.ErrValidation):
		writeFail(w, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, domain.ErrNotFound):
		writeFail(w, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, domain.ErrProposerOverloaded):
		writeFail(w, http.StatusServiceUnavailable, "the mapping assistant is overloaded, try again in a minute", nil)
	case errors.Is(err, domain.ErrProposerAuth):
		h.log.ErrorContext(r.Context(), "proposer rejected credentials", slog.String("error", err.Error()))
		writeFail(w, http.StatusInternalServerError, "the mapping assistant rejected the configured credentials", nil)
	case errors.Is(err, domain.ErrConfig):
		h.log.ErrorContext(r.Context(), "proposer not configured", slog.String("error", err.Error()))
		writeFail(w, http.StatusInternalServerError, "the mapping assistant is not configured", nil)
	default:
		h.log.ErrorContext(r.Context(), "internal error", slog.String("error", err.Error()))
		writeFail(w, http.StatusInternalServerError, "internal server error", nil)
	}
}
