package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Server serves the operational surface of the session service: health
// probes and Prometheus metrics. Session traffic never flows through it.
type Server struct {
	httpServer *http.Server
	port       int
}

// NewServer creates an observability server on the given port.
func NewServer(port int) *Server {
	return &Server{port: port}
}

// Start serves /health, /health/live, /health/ready and /metrics. It
// blocks until the server stops.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", HealthHandler())
	mux.HandleFunc("/health/live", LivenessHandler())
	mux.HandleFunc("/health/ready", ReadinessHandler())
	mux.Handle("/metrics", MetricsHandler())

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           mux,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
