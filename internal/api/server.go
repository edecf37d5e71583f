// Package api exposes the analyzer over HTTP: analysis requests, run
// uploads, file exports and a replay of the dummy data set.
package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"randlab/internal"
	"randlab/internal/analyzer"
	"randlab/internal/config"
	"randlab/internal/metrics"
)

const (
	defaultReadTimeout     = 30 * time.Second
	defaultIdleTimeout     = 120 * time.Second
	defaultShutdownTimeout = 10 * time.Second
)

// Server routes HTTP requests to the analyzer and the exporters.
type Server struct {
	router   *chi.Mux
	analyzer *analyzer.Analyzer
	config   *config.Config
	logger   *internal.Logger
	now      func() time.Time
}

// NewServer creates a server with middleware and routes installed.
func NewServer(cfg *config.Config, az *analyzer.Analyzer, logger *internal.Logger) *Server {
	if logger == nil {
		logger = internal.NewDefaultLogger()
	}
	s := &Server{
		router:   chi.NewRouter(),
		analyzer: az,
		config:   cfg,
		logger:   logger.WithComponent("API"),
		now:      time.Now,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures HTTP middleware
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	if s.config.Metrics {
		s.router.Use(s.recordMetrics)
	}
	s.router.Use(s.cors)
	s.router.Use(s.limitBody)
}

// setupRoutes configures the application routes
func (s *Server) setupRoutes() {
	s.router.Get("/", s.handleRoot)
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/providers", s.handleProviders)

	s.router.Post("/analyze", s.handleAnalyze)
	s.router.Post("/upload/csv", s.handleUpload)

	// Exports take the runs and the analysis in the request.
	s.router.Get("/download/csv", s.handleDownloadCSV)
	s.router.Post("/download/xlsx", s.handleDownloadXLSX)
	s.router.Post("/download/report", s.handleDownloadReport)
	s.router.Post("/download/pdf", s.handleDownloadPDF)

	s.router.Get("/dummy-data", s.handleDummyData)
	s.router.Get("/dummy-data/stream", s.handleDummyStream)

	if s.config.Metrics {
		s.router.Handle("/metrics", metrics.Handler())
	}
}

// recordMetrics counts requests by route pattern and status.
func (s *Server) recordMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		metrics.RecordHTTPRequest(route, ww.Status())
	})
}

// cors answers browser preflight requests and tags responses for the
// configured origins. A "*" entry allows any origin.
func (s *Server) cors(next http.Handler) http.Handler {
	allowed := make(map[string]bool, len(s.config.Server.CORSOrigins))
	for _, origin := range s.config.Server.CORSOrigins {
		allowed[origin] = true
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && (allowed[origin] || allowed["*"]) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, Cache-Control, X-Analysis-ID")
			h.Set("Access-Control-Expose-Headers", "Content-Disposition, X-Analysis-ID, X-Dataset-Hash")
			h.Add("Vary", "Origin")
			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, s.config.Server.MaxBodyBytes)
		}
		next.ServeHTTP(w, r)
	})
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: defaultReadTimeout,
		IdleTimeout:       defaultIdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(listener)
	}()
	s.logger.Info("Listening on %s", listener.Addr())

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
