package imports

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/rpattn/econgate/internal/auth"
	"github.com/rpattn/econgate/internal/domain"
	"github.com/rpattn/econgate/internal/export"

	"github.com/google/uuid"
)

// Handler exposes the import lifecycle as an HTTP endpoint tree under
// /imports. Caller identity is read from the request context; the identity
// middleware must run in front of this handler.
type Handler struct {
	service        *Service
	exporter       *export.Service
	maxUploadBytes int64
}

// NewHTTPHandler wraps the lifecycle service and the export encoder.
func NewHTTPHandler(service *Service, exporter *export.Service, maxUploadBytes int64) http.Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 32 << 20
	}
	return &Handler{service: service, exporter: exporter, maxUploadBytes: maxUploadBytes}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/imports"), "/")

	if path == "" {
		switch r.Method {
		case http.MethodPost:
			h.handleCreate(w, r)
		case http.MethodGet:
			h.handleList(w, r)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	if path == "stats/summary" {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.handleSummary(w, r)
		return
	}

	segments := strings.Split(path, "/")
	id, err := uuid.Parse(segments[0])
	if err != nil {
		writeError(w, fmt.Errorf("invalid import id %q: %w", segments[0], domain.ErrValidation))
		return
	}

	switch {
	case len(segments) == 1:
		switch r.Method {
		case http.MethodGet:
			h.handleGet(w, r, id)
		case http.MethodPatch:
			h.handleRename(w, r, id)
		case http.MethodDelete:
			h.handleDelete(w, r, id)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	case len(segments) == 2 && segments[1] == "rows" && r.Method == http.MethodGet:
		h.handleRows(w, r, id)
	case len(segments) == 2 && segments[1] == "approve" && r.Method == http.MethodPost:
		h.handleApprove(w, r, id)
	case len(segments) == 2 && segments[1] == "reject" && r.Method == http.MethodPost:
		h.handleReject(w, r, id)
	case len(segments) == 3 && segments[1] == "download" && segments[2] == "csv" && r.Method == http.MethodGet:
		h.handleDownload(w, r, id)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		writeError(w, fmt.Errorf("invalid form data: %s: %w", err, domain.ErrValidation))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, fmt.Errorf("file is required: %w", domain.ErrValidation))
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		writeError(w, fmt.Errorf("failed to read file: %s: %w", err, domain.ErrValidation))
		return
	}

	identity := auth.IdentityFromContext(r.Context())
	created, err := h.service.Create(r.Context(), identity, header.Filename, r.FormValue("display_name"), content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	var status *domain.ImportStatus
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		parsed, ok := domain.ParseImportStatus(strings.ToUpper(raw))
		if !ok {
			writeError(w, fmt.Errorf("invalid status %q: %w", raw, domain.ErrValidation))
			return
		}
		status = &parsed
	}

	imports, err := h.service.List(r.Context(), status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, imports)
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	imp, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, imp)
}

type renamePayload struct {
	DisplayName string `json:"display_name"`
}

func (h *Handler) handleRename(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	defer r.Body.Close()
	var payload renamePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, fmt.Errorf("invalid payload: %s: %w", err, domain.ErrValidation))
		return
	}

	identity := auth.IdentityFromContext(r.Context())
	updated, err := h.service.Rename(r.Context(), identity, id, payload.DisplayName)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	identity := auth.IdentityFromContext(r.Context())
	if err := h.service.Delete(r.Context(), identity, id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRows(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	query := r.URL.Query()

	page := 1
	if raw := strings.TrimSpace(query.Get("page")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, fmt.Errorf("page must be a positive integer: %w", domain.ErrValidation))
			return
		}
		page = parsed
	}
	pageSize := defaultPageSize
	if raw := strings.TrimSpace(query.Get("page_size")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, fmt.Errorf("page_size must be a positive integer: %w", domain.ErrValidation))
			return
		}
		pageSize = parsed
	}

	filter := domain.RowFilter{
		Series:   strings.TrimSpace(query.Get("series")),
		DateFrom: strings.TrimSpace(query.Get("date_from")),
		DateTo:   strings.TrimSpace(query.Get("date_to")),
	}

	result, err := h.service.Rows(r.Context(), id, page, pageSize, filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	identity := auth.IdentityFromContext(r.Context())
	approved, err := h.service.Approve(r.Context(), identity, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, approved)
}

type rejectPayload struct {
	Reason string `json:"reason"`
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	defer r.Body.Close()
	var payload rejectPayload
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeError(w, fmt.Errorf("invalid payload: %s: %w", err, domain.ErrValidation))
			return
		}
	}

	identity := auth.IdentityFromContext(r.Context())
	rejected, err := h.service.Reject(r.Context(), identity, id, payload.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rejected)
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	imp, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(imp)))

	if _, err := h.exporter.WriteCSV(r.Context(), w, id); err != nil {
		// Headers are gone; all we can do is log the broken stream.
		log.Printf("[export] streaming import %s failed: %v", id, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		status = http.StatusConflict
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		log.Printf("[http] internal error: %v", err)
		message = "internal error"
	}
	writeJSON(w, status, map[string]string{"error": message})
}
