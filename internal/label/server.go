package label

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Server handles HTTP requests for label analysis
type Server struct {
	service *Service
	router  chi.Router

	mu   sync.Mutex
	http *http.Server
}

// NewServer creates a new Server with a default router
func NewServer(service *Service) *Server {
	return NewServerWithRouter(service, chi.NewRouter())
}

// NewServerWithRouter creates a new Server with a custom router for testing
func NewServerWithRouter(service *Service, router chi.Router) *Server {
	s := &Server{
		service: service,
		router:  router,
	}
	s.registerRoutes()
	return s
}

// registerRoutes registers the middleware and all API routes on the router
func (s *Server) registerRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         3600,
	}))

	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		// Pipeline stages
		r.Post("/normalize", s.handleNormalize)
		r.Post("/extract", s.handleExtract)
		r.Post("/classify", s.handleClassify)
		r.Post("/analyze", s.handleAnalyze)

		r.Post("/scans", s.handleScan)

		// Caller-held products
		r.Post("/products", s.handleManualEntry)
		r.Post("/dashboard", s.handleDashboard)
		r.Post("/report", s.handleReport)
	})
}

// Start starts the HTTP server and blocks until it stops. A server stopped
// by Shutdown returns nil.
func (s *Server) Start(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Lock()
	s.http = srv
	s.mu.Unlock()

	slog.Info("Starting server", "address", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops a server started with Start, waiting for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.http
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// ServeHTTP implements http.Handler for testing
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
