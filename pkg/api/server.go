package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/gridpool/gridpool/pkg/log"
	"github.com/gridpool/gridpool/pkg/manager"
	"github.com/gridpool/gridpool/pkg/metrics"
)

// Server exposes the engine over HTTP/JSON. Authentication is left to
// a fronting proxy; the privileged routes should not be reachable from
// contributor networks.
type Server struct {
	manager *manager.Manager
	http    *http.Server
	logger  zerolog.Logger
}

// NewServer creates a new API server
func NewServer(mgr *manager.Manager) *Server {
	s := &Server{
		manager: mgr,
		logger:  log.WithComponent("api"),
	}
	s.http = &http.Server{
		Handler:      s.routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/nodes", s.instrument("contribute_node", s.handleContributeNode))
	mux.HandleFunc("GET /v1/nodes", s.instrument("list_nodes", s.handleListNodes))
	mux.HandleFunc("DELETE /v1/nodes", s.instrument("remove_node_now", s.handleRemoveNodeNow))
	mux.HandleFunc("POST /v1/nodes/release", s.instrument("release_node", s.handleReleaseNode))
	mux.HandleFunc("POST /v1/nodes/release/cancel", s.instrument("cancel_release", s.handleCancelRelease))
	mux.HandleFunc("GET /v1/nodes/pending-removals", s.instrument("pending_removals", s.handlePendingRemovals))
	mux.HandleFunc("POST /v1/removals/run", s.instrument("run_removal_batch", s.handleRunRemovalBatch))

	mux.HandleFunc("POST /v1/jobs", s.instrument("submit_job", s.handleSubmitJob))
	mux.HandleFunc("GET /v1/jobs", s.instrument("list_jobs", s.handleListJobs))

	mux.HandleFunc("GET /v1/resources/assigned", s.instrument("assigned", s.handleAssigned))
	mux.HandleFunc("GET /v1/resources/reserved", s.instrument("reserved", s.handleReserved))
	mux.HandleFunc("GET /v1/resources/available", s.instrument("available", s.handleAvailable))
	mux.HandleFunc("GET /v1/resources/available-until", s.instrument("available_until", s.handleAvailableUntil))

	mux.HandleFunc("PUT /v1/policies", s.instrument("set_policies", s.handleSetPolicies))

	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /healthz", metrics.HealthHandler())
	mux.HandleFunc("GET /readyz", metrics.ReadyHandler())

	return mux
}

// instrument wraps a handler with request metrics and logging.
func (s *Server) instrument(route string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		timer := metrics.NewTimer()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		h(sw, r)

		metrics.APIRequestsTotal.WithLabelValues(route, fmt.Sprint(sw.status)).Inc()
		metrics.APIRequestDuration.WithLabelValues(route).Observe(timer.Duration().Seconds())
		s.logger.Debug().
			Str("route", route).
			Int("status", sw.status).
			Dur("duration", timer.Duration()).
			Msg("request handled")
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Start starts the HTTP server
func (s *Server) Start(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	metrics.RegisterComponent("api", true, "")
	s.logger.Info().Str("addr", addr).Msg("HTTP API listening")
	if err := s.http.Serve(lis); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = s.http.Shutdown(ctx)
}
