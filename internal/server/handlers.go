package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/aTrapDeer/catalyst-backend/internal/blob"
	"github.com/aTrapDeer/catalyst-backend/internal/content"
	"github.com/aTrapDeer/catalyst-backend/internal/render"
	"github.com/aTrapDeer/catalyst-backend/internal/store"
	"github.com/go-chi/chi"
	log "github.com/sirupsen/logrus"
)

type Response struct {
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, content.ErrNotFound),
		errors.Is(err, content.ErrUnknownCollection),
		errors.Is(err, blob.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, content.ErrValidation), errors.Is(err, content.ErrImport):
		code = http.StatusBadRequest
	case errors.Is(err, store.ErrConflict):
		code = http.StatusConflict
	}
	if code == http.StatusInternalServerError {
		log.Errorf("request failed: %v", err)
	}
	writeJSON(w, code, Response{Error: err.Error()})
}

func idParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid id %q", content.ErrValidation, chi.URLParam(r, "id"))
	}
	return id, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Response{Message: "catalyst content service is running"})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "collection")
	ep, err := s.endpoint(name)
	if err != nil {
		writeError(w, err)
		return
	}
	data, err := s.getCachedData("api:"+name, func() (interface{}, error) {
		log.Debugf("Fetching %s from store", name)
		return ep.list(r.Context())
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	ep, err := s.endpoint(chi.URLParam(r, "collection"))
	if err != nil {
		writeError(w, err)
		return
	}
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	rec, err := ep.get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	ep, err := s.endpoint(chi.URLParam(r, "collection"))
	if err != nil {
		writeError(w, err)
		return
	}
	rec, err := ep.create(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ep, err := s.endpoint(chi.URLParam(r, "collection"))
	if err != nil {
		writeError(w, err)
		return
	}
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	rec, err := ep.update(r, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "collection")
	ep, err := s.endpoint(name)
	if err != nil {
		writeError(w, err)
		return
	}
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	log.Infof("Attempting to delete %s with ID: %d", name, id)
	removed, err := ep.remove(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	msg := fmt.Sprintf("%s %d deleted successfully", name, id)
	if !removed {
		msg = fmt.Sprintf("%s %d does not exist, nothing deleted", name, id)
	}
	writeJSON(w, http.StatusOK, Response{Message: msg, Data: map[string]bool{"deleted": removed}})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "collection")
	ep, err := s.endpoint(name)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := ep.clear(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Message: name + " cleared"})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.Snapshot(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, render.CountsOf(snap, s.store.Now()))
}

// handleExport offers every collection as a download and keeps a copy in
// the blob store when one is configured.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	now := s.store.Now()
	snap, err := s.store.Export(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	doc, err := store.MarshalExport(snap)
	if err != nil {
		writeError(w, err)
		return
	}
	if s.blobs != nil {
		if info, err := blob.Archive(r.Context(), s.blobs, doc, now); err != nil {
			log.Warnf("export not archived: %v", err)
		} else {
			log.Infof("export archived as %s", info.Key)
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", content.ExportFileName(now)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(doc); err != nil {
		log.Errorf("Failed to write export: %v", err)
	}
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 16*maxBodyBytes))
	if err != nil {
		writeError(w, fmt.Errorf("%w: %s", content.ErrImport, err))
		return
	}
	if err := s.store.Import(r.Context(), data); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Message: "Data imported successfully!"})
}

func (s *Server) handleClearAll(w http.ResponseWriter, r *http.Request) {
	if err := s.store.ClearAll(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Message: "All data cleared"})
}

func (s *Server) handleListArchives(w http.ResponseWriter, r *http.Request) {
	if s.blobs == nil {
		writeJSON(w, http.StatusOK, []blob.Info{})
		return
	}
	infos, err := s.blobs.List(r.Context(), blob.ArchivePrefix)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, infos)
}

func (s *Server) readArchive(r *http.Request) ([]byte, error) {
	if s.blobs == nil {
		return nil, blob.ErrNotFound
	}
	return blob.ReadArchive(r.Context(), s.blobs, blob.ArchivePrefix+chi.URLParam(r, "name"))
}

func (s *Server) handleGetArchive(w http.ResponseWriter, r *http.Request) {
	doc, err := s.readArchive(r)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := io.Copy(w, bytes.NewReader(doc)); err != nil {
		log.Errorf("Failed to write archive: %v", err)
	}
}

func (s *Server) handleRestoreArchive(w http.ResponseWriter, r *http.Request) {
	doc, err := s.readArchive(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.store.Import(r.Context(), doc); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Message: "archive restored"})
}
