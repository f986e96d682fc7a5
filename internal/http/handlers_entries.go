package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"ninedelights/internal/core"
)

// entryPayload is the JSON body of entry mutations. RowIndex is a
// pointer so "absent" and "zero" stay distinguishable.
type entryPayload struct {
	RowIndex     *int   `json:"rowIndex"`
	Date         string `json:"date"`
	Delight      string `json:"delight"`
	Description  string `json:"description"`
	WildcardName string `json:"wildcardName"`
	ImageURL     string `json:"imageUrl"`
}

func (p entryPayload) toEntry() core.Entry {
	return core.Entry{
		Date:         sanitizeInput(p.Date),
		Type:         core.DelightType(sanitizeInput(p.Delight)),
		Description:  sanitizeInput(p.Description),
		WildcardName: sanitizeInput(p.WildcardName),
		ImageURL:     sanitizeInput(p.ImageURL),
	}
}

func (s *Server) handleDelights(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListEntries(w, r)
	case http.MethodPost:
		s.handleCreateEntry(w, r)
	case http.MethodPut:
		s.handleUpdateEntry(w, r)
	case http.MethodDelete:
		s.handleDeleteEntry(w, r)
	default:
		methodNotAllowed(w, "GET", "POST", "PUT", "DELETE")
	}
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if q.Get("all") == "true" {
		entries, err := s.listAll(r.Context())
		if err != nil {
			slog.ErrorContext(r.Context(), "List all entries failed", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to load entries")
			return
		}
		writeJSON(w, http.StatusOK, entries)
		return
	}

	start, end := q.Get("start"), q.Get("end")
	if start == "" || end == "" {
		writeError(w, http.StatusBadRequest, "Missing start or end")
		return
	}
	if _, err := core.ParseDay(start); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start date")
		return
	}
	if _, err := core.ParseDay(end); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end date")
		return
	}

	entries, err := s.listWindow(r.Context(), start, end)
	if err != nil {
		slog.ErrorContext(r.Context(), "List entries failed", "error", err, "start", start, "end", end)
		writeError(w, http.StatusInternalServerError, "Failed to load entries")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	if !s.requireAuth(w, r) {
		return
	}

	var p entryPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	entry := p.toEntry()
	if err := entry.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	cctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()
	ref, err := s.store.Append(cctx, entry)
	if err != nil {
		slog.ErrorContext(r.Context(), "Entry append failed", "error", err, "date", entry.Date, "delight", entry.Type)
		writeError(w, http.StatusInternalServerError, "Failed to save entry")
		return
	}

	s.invalidateCaches()
	slog.InfoContext(r.Context(), "Entry created", "ref", ref, "date", entry.Date, "delight", entry.Type)
	writeSuccess(w)
}

func (s *Server) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	if !s.requireAuth(w, r) {
		return
	}

	var p entryPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if p.RowIndex == nil {
		writeError(w, http.StatusBadRequest, "Missing rowIndex")
		return
	}

	entry := p.toEntry()
	if err := entry.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	cctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()
	if err := s.store.Update(cctx, *p.RowIndex, entry); err != nil {
		if errors.Is(err, core.ErrInvalidRow) {
			writeError(w, http.StatusBadRequest, "Invalid rowIndex")
			return
		}
		slog.ErrorContext(r.Context(), "Entry update failed", "error", err, "row", *p.RowIndex)
		writeError(w, http.StatusInternalServerError, "Failed to update entry")
		return
	}

	s.invalidateCaches()
	slog.InfoContext(r.Context(), "Entry updated", "row", *p.RowIndex, "date", entry.Date)
	writeSuccess(w)
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	if !s.requireAuth(w, r) {
		return
	}

	var p entryPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if p.RowIndex == nil {
		writeError(w, http.StatusBadRequest, "Missing rowIndex")
		return
	}

	cctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()
	if err := s.store.Delete(cctx, *p.RowIndex); err != nil {
		if errors.Is(err, core.ErrInvalidRow) {
			writeError(w, http.StatusBadRequest, "Invalid rowIndex")
			return
		}
		slog.ErrorContext(r.Context(), "Entry delete failed", "error", err, "row", *p.RowIndex)
		writeError(w, http.StatusInternalServerError, "Failed to delete entry")
		return
	}

	s.invalidateCaches()
	slog.InfoContext(r.Context(), "Entry deleted", "row", *p.RowIndex)
	writeSuccess(w)
}

// requireAuth writes a 401 and returns false when the request carries no
// valid edit token.
func (s *Server) requireAuth(w http.ResponseWriter, r *http.Request) bool {
	if s.gate.Authenticated(r) {
		return true
	}
	writeError(w, http.StatusUnauthorized, "Unauthorized")
	return false
}
