package server

import (
	"bytes"
	"net/http"

	"github.com/aTrapDeer/catalyst-backend/internal/content"
	"github.com/aTrapDeer/catalyst-backend/internal/store"
	"github.com/go-chi/chi"
	log "github.com/sirupsen/logrus"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.servePage(w, r, "page:index", func(buf *bytes.Buffer) error {
		snap, err := s.store.Snapshot(r.Context())
		if err != nil {
			return err
		}
		return s.renderer.PublicPage(buf, snap, s.store.Now())
	})
}

func (s *Server) handleAdmin(w http.ResponseWriter, r *http.Request) {
	s.servePage(w, r, "page:admin", func(buf *bytes.Buffer) error {
		snap, err := s.store.Snapshot(r.Context())
		if err != nil {
			return err
		}
		return s.renderer.AdminPage(buf, snap)
	})
}

func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	s.servePage(w, r, "page:blog:"+chi.URLParam(r, "id"), func(buf *bytes.Buffer) error {
		post, err := store.For(s.store, content.Blog).Get(r.Context(), id)
		if err != nil {
			return err
		}
		return s.renderer.PostPage(buf, post)
	})
}

func (s *Server) servePage(w http.ResponseWriter, r *http.Request, key string, build func(*bytes.Buffer) error) {
	page, err := s.getCachedData(key, func() (interface{}, error) {
		var buf bytes.Buffer
		if err := build(&buf); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(page.([]byte)); err != nil {
		log.Errorf("Failed to write page %s: %v", key, err)
	}
}
