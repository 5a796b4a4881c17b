package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/calder-instruments/bench-core/internal/instrument"
)

// maxPathParamLen bounds identifiers taken from the URL.
const maxPathParamLen = 100

// InstrumentSummary is one row of the instrument list.
type InstrumentSummary struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Adapter    string `json:"adapter"`
	Properties int    `json:"properties"`
}

// PropertyInfo describes one property of an instrument.
type PropertyInfo struct {
	Name     string `json:"name"`
	Doc      string `json:"doc,omitempty"`
	Readable bool   `json:"readable"`
	Writable bool   `json:"writable"`
	Dynamic  bool   `json:"dynamic"`
}

// InstrumentDetail is the full description of one instrument.
type InstrumentDetail struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Adapter    string         `json:"adapter"`
	Properties []PropertyInfo `json:"properties"`
}

// handleListInstruments returns every registered instrument.
func (s *Server) handleListInstruments(w http.ResponseWriter, _ *http.Request) {
	entries := s.registry.List()

	summaries := make([]InstrumentSummary, 0, len(entries))
	for _, entry := range entries {
		summaries = append(summaries, InstrumentSummary{
			ID:         entry.ID,
			Name:       entry.Owner.Name(),
			Adapter:    entry.AdapterKind,
			Properties: len(entry.Owner.Properties()),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"instruments": summaries,
		"count":       len(summaries),
	})
}

// handleGetInstrument returns one instrument with its property catalogue.
func (s *Server) handleGetInstrument(w http.ResponseWriter, r *http.Request) {
	entry, ok := s.instrumentFromPath(w, r)
	if !ok {
		return
	}

	names := entry.Owner.Properties()
	properties := make([]PropertyInfo, 0, len(names))
	for _, name := range names {
		p, _ := entry.Owner.Property(name)
		properties = append(properties, PropertyInfo{
			Name:     name,
			Doc:      p.Doc(),
			Readable: p.Readable(),
			Writable: p.Writable(),
			Dynamic:  p.IsDynamic(),
		})
	}

	writeJSON(w, http.StatusOK, InstrumentDetail{
		ID:         entry.ID,
		Name:       entry.Owner.Name(),
		Adapter:    entry.AdapterKind,
		Properties: properties,
	})
}

// handleGetProperty reads a property through the instrument pipeline.
func (s *Server) handleGetProperty(w http.ResponseWriter, r *http.Request) {
	entry, ok := s.instrumentFromPath(w, r)
	if !ok {
		return
	}

	property := chi.URLParam(r, "property")
	if property == "" || len(property) > maxPathParamLen {
		writeBadRequest(w, "invalid property name")
		return
	}

	value, err := entry.Owner.Get(property)
	if err != nil {
		s.writePropertyError(w, err, "reading property failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"instrument": entry.ID,
		"property":   property,
		"value":      value,
	})
}

// setPropertyRequest is the body for PUT property requests.
type setPropertyRequest struct {
	Value any `json:"value"`
}

// handleSetProperty writes a property through the instrument pipeline.
func (s *Server) handleSetProperty(w http.ResponseWriter, r *http.Request) {
	entry, ok := s.instrumentFromPath(w, r)
	if !ok {
		return
	}

	property := chi.URLParam(r, "property")
	if property == "" || len(property) > maxPathParamLen {
		writeBadRequest(w, "invalid property name")
		return
	}

	var req setPropertyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Value == nil {
		writeBadRequest(w, "value is required")
		return
	}

	if err := entry.Owner.Set(property, req.Value); err != nil {
		s.writePropertyError(w, err, "setting property failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"instrument": entry.ID,
		"property":   property,
		"value":      req.Value,
	})
}

// handleResetInstrument issues the SCPI reset command.
func (s *Server) handleResetInstrument(w http.ResponseWriter, r *http.Request) {
	entry, ok := s.instrumentFromPath(w, r)
	if !ok {
		return
	}

	if err := entry.Owner.Reset(); err != nil {
		writeInstrumentError(w, "reset failed")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// instrumentFromPath resolves the {id} path parameter against the registry,
// writing the error response itself when the lookup fails.
func (s *Server) instrumentFromPath(w http.ResponseWriter, r *http.Request) (*instrument.Entry, bool) {
	id := chi.URLParam(r, "id")
	if id == "" || len(id) > maxPathParamLen {
		writeBadRequest(w, "invalid instrument ID")
		return nil, false
	}

	entry, err := s.registry.Get(id)
	if err != nil {
		writeNotFound(w, "instrument not found")
		return nil, false
	}
	return entry, true
}

// writePropertyError maps property pipeline errors onto HTTP responses.
func (s *Server) writePropertyError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, instrument.ErrUnknownProperty):
		writeNotFound(w, "property not found")
	case errors.Is(err, instrument.ErrNotReadable),
		errors.Is(err, instrument.ErrNotWritable),
		errors.Is(err, instrument.ErrUnreadableAttribute),
		errors.Is(err, instrument.ErrUnwritableAttribute):
		writeError(w, http.StatusMethodNotAllowed, ErrCodeNotAllowed, err.Error())
	case errors.Is(err, instrument.ErrInvalidValue),
		errors.Is(err, instrument.ErrNotInMap):
		writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
	default:
		s.logger.Error("instrument exchange failed", "error", err)
		writeInstrumentError(w, fallback)
	}
}
