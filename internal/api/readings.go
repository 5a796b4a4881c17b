package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

const maxReadingsLimit = 200

// handleInstrumentReadings returns recent readings for an instrument,
// newest first.
func (s *Server) handleInstrumentReadings(w http.ResponseWriter, r *http.Request) {
	entry, ok := s.instrumentFromPath(w, r)
	if !ok {
		return
	}

	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "reading history unavailable")
		return
	}

	limit, err := parseLimitParam(r.URL.Query().Get("limit"))
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	readings, err := s.store.History(r.Context(), entry.ID, limit)
	if err != nil {
		s.logger.Error("loading reading history", "instrument", entry.ID, "error", err)
		writeInternalError(w, "failed to load readings")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"instrument": entry.ID,
		"count":      len(readings),
		"readings":   readings,
	})
}

// handleSessionReadings returns every reading in a session, oldest first.
func (s *Server) handleSessionReadings(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	if sessionID == "" || len(sessionID) > maxPathParamLen {
		writeBadRequest(w, "invalid session ID")
		return
	}

	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "reading history unavailable")
		return
	}

	readings, err := s.store.SessionReadings(r.Context(), sessionID)
	if err != nil {
		s.logger.Error("loading session readings", "session", sessionID, "error", err)
		writeInternalError(w, "failed to load readings")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session":  sessionID,
		"count":    len(readings),
		"readings": readings,
	})
}

// parseLimitParam parses the ?limit query parameter. Zero means the store
// default; the store clamps the upper bound as well, this check just gives
// the client a clear error.
func parseLimitParam(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return 0, fmt.Errorf("limit must be a positive integer")
	}
	if limit > maxReadingsLimit {
		return 0, fmt.Errorf("limit must be at most %d", maxReadingsLimit)
	}
	return limit, nil
}
