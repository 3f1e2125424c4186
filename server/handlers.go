package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"

	"github.com/go-chi/chi/v5"

	"github.com/spektr-org/pivot/engine"
	"github.com/spektr-org/pivot/export"
	"github.com/spektr-org/pivot/schema"
)

// FieldInfo describes one source column for clients building a layout.
type FieldInfo struct {
	Name        string           `json:"name"`
	DisplayName string           `json:"displayName"`
	Type        engine.FieldType `json:"type"`
	Role        schema.Role      `json:"role,omitempty"`
}

// ============================================================================
// FIELDS & RENDERING
// ============================================================================

func (s *Server) handleFields(w http.ResponseWriter, r *http.Request) {
	fields := make([]FieldInfo, s.src.FieldCount())
	for i := range fields {
		info := FieldInfo{
			Name:        s.src.FieldName(i),
			DisplayName: s.src.FieldName(i),
			Type:        s.src.FieldType(i),
		}
		if s.sch != nil {
			if meta := s.sch.Field(info.Name); meta != nil {
				info.DisplayName = meta.DisplayName
				info.Role = meta.Role
			}
		}
		fields[i] = info
	}
	writeJSON(w, r, http.StatusOK, fields)
}

func (s *Server) handlePivot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.decodeSnapshot(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rm, err := s.render(*snap)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, rm)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	exporter, err := export.ForFormat(chi.URLParam(r, "format"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	snap, err := s.decodeSnapshot(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.writeExport(w, r, exporter, *snap)
}

// render builds a fresh model, applies the snapshot and renders it.
func (s *Server) render(snap engine.Snapshot) (*engine.RenderModel, error) {
	m := engine.NewModel(s.src, s.opts.EngineOptions...)
	if err := m.Restore(snap); err != nil {
		return nil, err
	}
	if err := m.Calculate(); err != nil {
		return nil, err
	}
	return m.Render()
}

func (s *Server) writeExport(w http.ResponseWriter, r *http.Request, exporter export.Exporter, snap engine.Snapshot) {
	rm, err := s.render(snap)
	if err != nil {
		writeError(w, r, err)
		return
	}

	// Buffer so a failed export still gets a proper error status
	var buf bytes.Buffer
	if err := exporter.Export(&buf, rm); err != nil {
		writeError(w, r, err)
		return
	}

	name := fileName(snap.Name)
	w.Header().Set("Content-Type", exporter.MimeType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.%s"`, name, exporter.Extension()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func fileName(name string) string {
	name = unsafeFileChars.ReplaceAllString(name, "_")
	if name == "" {
		return "pivot"
	}
	return name
}

// ============================================================================
// NAMED CONFIGURATIONS
// ============================================================================

func (s *Server) handleListConfigs(w http.ResponseWriter, r *http.Request) {
	names, err := s.store.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, r, http.StatusOK, names)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.Load(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, snap)
}

func (s *Server) handlePutConfig(w http.ResponseWriter, r *http.Request) {
	snap, err := s.decodeSnapshot(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	snap.Name = chi.URLParam(r, "name")

	// Reject configurations that would not restore
	if err := engine.NewModel(s.src, s.opts.EngineOptions...).Restore(*snap); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.store.Save(r.Context(), *snap); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, snap)
}

func (s *Server) handleDeleteConfig(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "name")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleConfigPivot renders a stored configuration, as JSON or, with
// ?format=, through an exporter.
func (s *Server) handleConfigPivot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.Load(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	if format := r.URL.Query().Get("format"); format != "" {
		exporter, err := export.ForFormat(format)
		if err != nil {
			writeError(w, r, err)
			return
		}
		s.writeExport(w, r, exporter, *snap)
		return
	}

	rm, err := s.render(*snap)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, rm)
}

func (s *Server) decodeSnapshot(w http.ResponseWriter, r *http.Request) (*engine.Snapshot, error) {
	body := http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()

	var snap engine.Snapshot
	if err := dec.Decode(&snap); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, fmt.Errorf("%w: limit is %d bytes", errTooLarge, maxErr.Limit)
		}
		return nil, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return &snap, nil
}
