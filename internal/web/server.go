// Package web serves datasets over HTTP: a JSON rows endpoint that remote
// tables fetch from and server-rendered HTML table pages.
package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JonMunkholm/tablekit/internal/config"
	"github.com/JonMunkholm/tablekit/internal/metrics"
	"github.com/JonMunkholm/tablekit/internal/store"
	"github.com/JonMunkholm/tablekit/internal/web/middleware"
)

// Server is the tablekit HTTP server.
type Server struct {
	cfg     *config.Config
	rows    store.RowSource
	metrics *metrics.Metrics
	router  *chi.Mux
	server  *http.Server
	limiter *rateLimiter
	views   *viewLimiter
	// metricsHandler serves /metrics.
	metricsHandler http.Handler
}

// Option customizes a Server.
type Option func(*Server)

// WithMetricsHandler replaces the default promhttp handler, for servers
// using their own registry.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metricsHandler = h }
}

// NewServer creates a new Server instance. A nil m uses metrics.Default.
func NewServer(cfg *config.Config, rows store.RowSource, m *metrics.Metrics, opts ...Option) *Server {
	if m == nil {
		m = metrics.Default()
	}
	s := &Server{
		cfg:            cfg,
		rows:           rows,
		metrics:        m,
		router:         chi.NewRouter(),
		views:          newViewLimiter(cfg.Table.MaxConcurrentViews, cfg.Table.ViewWait),
		metricsHandler: promhttp.Handler(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Metrics(s.metrics))
	s.router.Use(chimw.Recoverer)
	if s.cfg.Server.RequestTimeout > 0 {
		s.router.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))
	}
	s.router.Use(s.securityHeaders)

	if s.cfg.Rate.Enabled {
		s.limiter = newRateLimiter(s.cfg.Rate.RequestsPerMinute, s.cfg.Rate.Burst, 3*time.Minute)
		go s.limiter.run(time.Minute)
		s.router.Use(s.limiter.middleware)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/", s.handleIndex)
	s.router.Get("/tables/{key}", s.handleTableView)
	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/metrics", s.metricsHandler)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(&s.cfg.Security))

		r.Get("/tables", s.handleListTables)
		r.Get("/tables/{key}/rows", s.handleRows)
		r.Post("/tables/{key}/rows", s.handleRows)
	})
}

// Start begins listening for HTTP requests on the configured address.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}
	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server and waits for table pages that are
// still rendering.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.limiter != nil {
		s.limiter.close()
	}
	var err error
	if s.server != nil {
		err = s.server.Shutdown(ctx)
	}
	if drainErr := s.views.WaitForDrain(ctx); err == nil {
		err = drainErr
	}
	return err
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func (s *Server) securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		if s.cfg.Security.EnableCSP {
			// Rendered tables use inline style attributes only.
			w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:")
		}
		next.ServeHTTP(w, r)
	})
}
