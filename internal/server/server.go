// Package server is the HTTP side of the content service: the admin API,
// the rendered pages and the live change stream.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aTrapDeer/catalyst-backend/internal/blob"
	"github.com/aTrapDeer/catalyst-backend/internal/content"
	"github.com/aTrapDeer/catalyst-backend/internal/metrics"
	"github.com/aTrapDeer/catalyst-backend/internal/notify"
	"github.com/aTrapDeer/catalyst-backend/internal/render"
	"github.com/aTrapDeer/catalyst-backend/internal/store"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/httprate"
	"github.com/patrickmn/go-cache"
	"github.com/rs/cors"
	log "github.com/sirupsen/logrus"
)

type Options struct {
	Addr         string
	FrontendURLs []string
	// RateLimit is the number of writes per minute allowed from one IP. Zero disables the limit.
	RateLimit int
	CacheTTL  time.Duration
}

type Server struct {
	store     *store.Store
	renderer  *render.Renderer
	blobs     blob.Store
	opts      Options
	cache     *cache.Cache
	hub       *Hub
	endpoints map[string]endpoint
	subs      []*notify.Subscription

	// gen counts cache flushes. A fetch that overlaps a flush is not cached.
	gen     atomic.Uint64
	cacheMu sync.Mutex
}

// New wires the handlers. blobs may be nil, in which case exports are
// not archived.
func New(st *store.Store, rd *render.Renderer, blobs blob.Store, opts Options) *Server {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	s := &Server{
		store:     st,
		renderer:  rd,
		blobs:     blobs,
		opts:      opts,
		cache:     cache.New(opts.CacheTTL, 2*opts.CacheTTL),
		hub:       NewHub(st.Bus(), opts.FrontendURLs),
		endpoints: endpoints(st),
	}
	// any write makes every cached page and listing stale
	s.subs = append(s.subs, st.Bus().Subscribe(notify.All, func(c notify.Change) {
		log.Debugf("flushing cache after change of %s", c.Key)
		s.cacheMu.Lock()
		s.gen.Add(1)
		s.cache.Flush()
		s.cacheMu.Unlock()
	}))
	return s
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(CustomLoggerMiddleware())
	r.Use(middleware.Recoverer)

	c := cors.New(cors.Options{
		AllowedOrigins: s.opts.FrontendURLs,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	})
	r.Use(c.Handler)

	r.Get("/ws/changes", s.hub.HandleWebSocket)
	r.Handle("/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		r.Get("/health", s.handleHealth)
		r.Get("/", s.handleIndex)
		r.Get("/admin", s.handleAdmin)
		r.Get("/blog/{id}", s.handlePost)
		r.Get("/blog/{id}/", s.handlePost)

		r.Route("/api", func(r chi.Router) {
			r.Get("/stats", s.handleStats)
			r.Get("/export", s.handleExport)
			r.Get("/exports", s.handleListArchives)
			r.Get("/exports/{name}", s.handleGetArchive)
			r.Get("/{collection}", s.handleList)
			r.Get("/{collection}/{id}", s.handleGet)

			r.Group(func(r chi.Router) {
				if s.opts.RateLimit > 0 {
					// to protect the admin api from any over requests
					r.Use(httprate.LimitByIP(s.opts.RateLimit, 1*time.Minute))
				}
				r.Post("/import", s.handleImport)
				r.Post("/exports/{name}/restore", s.handleRestoreArchive)
				r.Delete("/data", s.handleClearAll)
				r.Post("/{collection}", s.handleCreate)
				r.Delete("/{collection}", s.handleClear)
				r.Put("/{collection}/{id}", s.handleUpdate)
				r.Delete("/{collection}/{id}", s.handleDelete)
			})
		})
	})
	return r
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:         s.opts.Addr,
		Handler:      s.Router(),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	log.Infof("catalyst content service running at %s", server.Addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	s.Close()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("catalyst content service gracefully stopped")
	return nil
}

// Close detaches the server from the change bus and drops websocket clients.
func (s *Server) Close() {
	for _, sub := range s.subs {
		sub.Unsubscribe()
	}
	s.subs = nil
	s.hub.Close()
}

// getCachedData returns the cached value of key, computing it with fetch on a miss.
func (s *Server) getCachedData(key string, fetch func() (interface{}, error)) (interface{}, error) {
	if data, found := s.cache.Get(key); found {
		return data, nil
	}

	gen := s.gen.Load()
	data, err := fetch()
	if err != nil {
		return nil, err
	}

	s.cacheMu.Lock()
	if s.gen.Load() == gen {
		s.cache.Set(key, data, cache.DefaultExpiration)
	}
	s.cacheMu.Unlock()
	return data, nil
}

func (s *Server) endpoint(name string) (endpoint, error) {
	ep, ok := s.endpoints[name]
	if !ok {
		return endpoint{}, content.ErrUnknownCollection
	}
	return ep, nil
}
