package httpapi

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/oshokin/media-cache/internal/service/media"
)

const (
	// defaultRequestTimeout bounds every request except the event stream.
	defaultRequestTimeout = 30 * time.Second
	// heartbeatInterval is the pause between two keep-alive comments on the event stream.
	heartbeatInterval = 15 * time.Second
)

// Server serves the media service over HTTP.
type Server struct {
	// service executes every request.
	service media.Service
	// baseCtx outlives single requests; downloads started over HTTP run under it.
	baseCtx context.Context //nolint:containedctx // Background transfers must survive the request that started them.
	// background tracks downloads started over HTTP.
	background sync.WaitGroup
}

// NewServer creates a server whose background downloads are bound to baseCtx.
func NewServer(baseCtx context.Context, service media.Service) *Server {
	return &Server{
		service: service,
		baseCtx: baseCtx,
	}
}

// Router returns the HTTP handler of the API.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.accessLog)

	r.Route("/api/v1", func(r chi.Router) {
		// The event stream is long-lived and must not be cut by the request timeout.
		r.Get("/events", s.handleEvents)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(defaultRequestTimeout))

			r.Get("/health", s.handleHealth)
			r.Get("/version", s.handleVersion)
			r.Get("/statistics", s.handleStatistics)
			r.Post("/catalog/reload", s.handleReload)

			r.Route("/items", func(r chi.Router) {
				r.Get("/", s.handleListItems)
				r.Get("/{id}", s.handleGetItem)
				r.Post("/{id}/download", s.handleStartDownload)
				r.Delete("/{id}/download", s.handleRemoveDownload)
				r.Post("/{id}/cancel", s.handleCancelDownload)
				r.Post("/{id}/play", s.handlePlay)
			})
		})
	})

	return r
}

// Wait blocks until every download started over HTTP has ended.
func (s *Server) Wait() {
	s.background.Wait()
}
