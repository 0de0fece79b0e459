// Package server exposes the catalog over HTTP for a web UI. Reads come
// from the entity store; writes go through the catalog service and the
// transfer engine.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/datacatalog/internal/catalog"
	"github.com/mesh-intelligence/datacatalog/internal/store"
	"github.com/mesh-intelligence/datacatalog/internal/transfer"
	"github.com/mesh-intelligence/datacatalog/pkg/types"
)

// Request headers understood by the API.
const (
	HeaderUser           = "X-Catalog-User"
	HeaderConfirmReplace = "X-Confirm-Replace"
)

// maxImportBytes bounds an import request body.
const maxImportBytes = 32 << 20

// CatalogServer serves the HTTP API.
type CatalogServer struct {
	Router *chi.Mux

	store    *store.Store
	catalog  *catalog.Service
	transfer *transfer.Engine
	logger   *zap.Logger
}

// New returns a server with no routes mounted; call MountHandlers.
func New(st *store.Store, svc *catalog.Service, engine *transfer.Engine, logger *zap.Logger) *CatalogServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogServer{
		Router:   chi.NewRouter(),
		store:    st,
		catalog:  svc,
		transfer: engine,
		logger:   logger,
	}
}

// MountHandlers installs middleware and every route.
func (s *CatalogServer) MountHandlers() {
	s.Router.Use(middleware.RequestID)
	s.Router.Use(middleware.Recoverer)
	s.Router.Use(s.requestLogger)
	s.Router.Use(sessionFromHeader)

	s.Router.Get("/status", s.getStatus)
	s.Router.Route("/datatypes", func(r chi.Router) {
		r.Get("/", s.listDataTypes)
		r.Post("/", s.createDataType)
		r.Get("/{id}", s.getDataType)
		r.Put("/{id}", s.updateDataType)
		r.Delete("/{id}", s.deleteDataType)
		r.Get("/{id}/datasets", s.listDatasetsForDataType)
		r.Put("/{id}/links", s.replaceLinks(types.SideDataType))
	})
	s.Router.Route("/datasets", func(r chi.Router) {
		r.Get("/", s.listDatasets)
		r.Post("/", s.createDataset)
		r.Get("/{id}", s.getDataset)
		r.Put("/{id}", s.updateDataset)
		r.Delete("/{id}", s.deleteDataset)
		r.Get("/{id}/datatypes", s.listDataTypesForDataset)
		r.Put("/{id}/links", s.replaceLinks(types.SideDataset))
	})
	s.Router.Route("/categories", func(r chi.Router) {
		r.Get("/", s.listCategories)
		r.Post("/", s.createCategory)
		r.Put("/{id}", s.updateCategory)
		r.Delete("/{id}", s.deleteCategory)
	})
	s.Router.Get("/export", s.export)
	s.Router.Post("/import", s.importCatalog)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *CatalogServer) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.logger.Info("listening", zap.String("addr", addr))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *CatalogServer) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

// sessionFromHeader attaches a session when the request names a user.
// Mutating handlers fail with ErrNoSession without one.
func sessionFromHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user := r.Header.Get(HeaderUser); user != "" {
			r = r.WithContext(types.WithSession(r.Context(), types.Session{User: user}))
		}
		next.ServeHTTP(w, r)
	})
}

func (s *CatalogServer) getStatus(w http.ResponseWriter, r *http.Request) {
	versions := make(map[string]uint64, len(types.CollectionNames))
	ready := true
	for _, c := range types.CollectionNames {
		versions[c] = s.store.Version(c)
		if s.store.Applied(c) == 0 {
			ready = false
		}
	}
	sendJSON(w, http.StatusOK, map[string]any{"ready": ready, "versions": versions})
}
