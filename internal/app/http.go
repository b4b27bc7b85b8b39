package app

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"prodvision/api/internal/align"
	"prodvision/api/internal/search"
	"prodvision/api/internal/store"
)

type HTTPServer struct {
	service    *Service
	corsOrigin string
}

func NewHTTPServer(service *Service, corsOrigin string) *HTTPServer {
	return &HTTPServer{service: service, corsOrigin: corsOrigin}
}

func (s *HTTPServer) Handler() http.Handler {
	return s.withMiddleware(http.HandlerFunc(s.handle))
}

func (s *HTTPServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		writeJSON(w, http.StatusNoContent, map[string]any{})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/health" {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/ready" {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := "ready"
		statusCode := http.StatusOK
		checks := map[string]any{
			"database": map[string]any{"status": "ok"},
		}

		if err := s.service.Ready(ctx); err != nil {
			status = "not_ready"
			statusCode = http.StatusServiceUnavailable
			checks["database"] = map[string]any{
				"status": "error",
				"error":  err.Error(),
			}
		}

		writeJSON(w, statusCode, map[string]any{
			"ok":     status == "ready",
			"status": status,
			"checks": checks,
		})
		return
	}

	parts := splitPath(r.URL.Path)
	if len(parts) < 2 || parts[0] != "api" {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
		return
	}

	switch {
	case parts[1] == "entries" && len(parts) == 2:
		switch r.Method {
		case http.MethodGet:
			s.handleListEntries(w, r)
		case http.MethodPost:
			s.handleCreateEntry(w, r)
		default:
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		}
		return

	case parts[1] == "entries" && len(parts) == 3:
		key, err := parseEntryID(parts[2])
		if err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error(), nil)
			return
		}
		switch r.Method {
		case http.MethodGet:
			s.handleGetEntry(w, r, key)
		case http.MethodPut:
			s.handleUpdateEntry(w, r, key)
		case http.MethodDelete:
			s.handleDeleteEntry(w, r, key)
		default:
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		}
		return

	case parts[1] == "entries" && len(parts) == 4 && parts[3] == "rows" && r.Method == http.MethodGet:
		key, err := parseEntryID(parts[2])
		if err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error(), nil)
			return
		}
		s.handleEntryRows(w, r, key)
		return

	case parts[1] == "rows" && len(parts) == 2 && r.Method == http.MethodGet:
		s.handleListRows(w, r)
		return

	case parts[1] == "rows" && len(parts) == 3:
		switch r.Method {
		case http.MethodPut:
			s.handleUpdateRow(w, r, parts[2])
		case http.MethodDelete:
			s.handleDeleteRow(w, r, parts[2])
		default:
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		}
		return

	case parts[1] == "summary" && len(parts) == 2 && r.Method == http.MethodGet:
		s.handleSummary(w, r)
		return

	case parts[1] == "search" && len(parts) == 2 && r.Method == http.MethodGet:
		s.handleSearch(w, r)
		return

	case parts[1] == "settings" && len(parts) == 3:
		switch r.Method {
		case http.MethodGet:
			s.handleGetSettings(w, r, parts[2])
		case http.MethodPut:
			s.handleUpdateSettings(w, r, parts[2])
		default:
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		}
		return
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

func (s *HTTPServer) handleListEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := s.service.ListEntries(r.Context(),
		r.URL.Query().Get("application"),
		r.URL.Query().Get("startDate"),
		r.URL.Query().Get("endDate"))
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (s *HTTPServer) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	var body EntryInput
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	entry, err := s.service.CreateEntry(r.Context(), body)
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (s *HTTPServer) handleGetEntry(w http.ResponseWriter, r *http.Request, key store.GroupingKey) {
	entry, err := s.service.GetEntry(r.Context(), key)
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *HTTPServer) handleUpdateEntry(w http.ResponseWriter, r *http.Request, key store.GroupingKey) {
	var body EntryInput
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	entry, err := s.service.UpdateEntry(r.Context(), key, body)
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *HTTPServer) handleDeleteEntry(w http.ResponseWriter, r *http.Request, key store.GroupingKey) {
	if err := s.service.DeleteEntry(r.Context(), key); err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": key.String()})
}

func (s *HTTPServer) handleEntryRows(w http.ResponseWriter, r *http.Request, key store.GroupingKey) {
	expanded := r.URL.Query().Get("expanded") == "true"
	rows, err := s.service.EntryRows(r.Context(), key, expanded)
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rows": rows})
}

func (s *HTTPServer) handleListRows(w http.ResponseWriter, r *http.Request) {
	rows, err := s.service.ListRows(r.Context(),
		r.URL.Query().Get("application"),
		store.KindFilter(r.URL.Query().Get("kind")),
		r.URL.Query().Get("startDate"),
		r.URL.Query().Get("endDate"))
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rows": rows})
}

func (s *HTTPServer) handleUpdateRow(w http.ResponseWriter, r *http.Request, rowID string) {
	var body RowPatchInput
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	row, err := s.service.UpdateRow(r.Context(), rowID, body)
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusOK, row)
}

func (s *HTTPServer) handleDeleteRow(w http.ResponseWriter, r *http.Request, rowID string) {
	if err := s.service.DeleteRow(r.Context(), rowID); err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": rowID})
}

func (s *HTTPServer) handleSummary(w http.ResponseWriter, r *http.Request) {
	counts, err := s.service.Summary(r.Context(), r.URL.Query().Get("application"))
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

func (s *HTTPServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := search.Query{
		Text:              r.URL.Query().Get("q"),
		FilterApplication: r.URL.Query().Get("application"),
		FilterKind:        r.URL.Query().Get("kind"),
	}
	if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil {
		query.Limit = limit
	}
	if offset, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil {
		query.Offset = offset
	}
	writeJSON(w, http.StatusOK, s.service.Search(query))
}

func (s *HTTPServer) handleGetSettings(w http.ResponseWriter, r *http.Request, applicationName string) {
	values, err := s.service.Settings(r.Context(), applicationName)
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"settings": values})
}

func (s *HTTPServer) handleUpdateSettings(w http.ResponseWriter, r *http.Request, applicationName string) {
	var body map[string]string
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	if err := s.service.UpdateSettings(r.Context(), applicationName, body); err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"settings": body})
}

// parseEntryID splits an entry id of the form "<date>_<applicationName>" into
// its grouping key. The date never contains an underscore, application names
// can contain anything but.
func parseEntryID(id string) (store.GroupingKey, error) {
	date, applicationName, found := strings.Cut(id, "_")
	if !found || date == "" || applicationName == "" {
		return store.GroupingKey{}, fmt.Errorf("entry id %q is not <date>_<application>", id)
	}
	return store.GroupingKey{Date: date, ApplicationName: applicationName}, nil
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = randomRequestID()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(writer.Header(), s.corsOrigin)
		writer.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(writer, r)

		log.Printf(`{"request_id":"%s","method":"%s","path":"%s","status":%d,"duration_ms":%d}`,
			requestID,
			r.Method,
			r.URL.Path,
			writer.status,
			time.Since(started).Milliseconds(),
		)
	})
}

type requestIDKey struct{}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func randomRequestID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func setCORSHeaders(header http.Header, corsOrigin string) {
	header.Set("Access-Control-Allow-Origin", corsOrigin)
	header.Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
	header.Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
	header.Set("Cache-Control", "no-store")
	header.Set("Content-Type", "application/json")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	response := map[string]any{
		"code":  code,
		"error": message,
	}
	if details != nil {
		response["details"] = details
	}
	writeJSON(w, status, response)
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, http.ErrBodyReadAfterClose) {
			return nil
		}
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func mapError(err error) (status int, code, message string, details any) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details
	}
	var validationErr *align.ValidationError
	if errors.As(err, &validationErr) {
		return http.StatusBadRequest, "VALIDATION_FAILED", validationErr.Error(),
			map[string]any{"position": validationErr.Position}
	}
	var notFoundErr *store.NotFoundError
	if errors.As(err, &notFoundErr) {
		return http.StatusNotFound, "NOT_FOUND", notFoundErr.Error(), map[string]any{
			"id":          notFoundErr.ID,
			"groupingKey": notFoundErr.GroupingKey,
		}
	}
	var inconsistencyErr *align.InconsistencyError
	if errors.As(err, &inconsistencyErr) {
		return http.StatusInternalServerError, "ALIGNMENT_INCONSISTENT", inconsistencyErr.Error(),
			map[string]any{
				"groupingKey": inconsistencyErr.GroupingKey,
				"position":    inconsistencyErr.Position,
				"kind":        inconsistencyErr.Kind,
			}
	}
	if errors.Is(err, sql.ErrNoRows) {
		return http.StatusNotFound, "NOT_FOUND", "Not found", nil
	}
	return http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil
}
