// Package httpstatus serves the supervisor's minimal status surface:
// liveness, a JSON snapshot of the latest observations, and a Prometheus
// scrape endpoint. It intentionally ships no HTML, CSS, or client-side
// script — a dashboard is out of scope.
package httpstatus

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cjkrolak/thermostat-supervisor/internal/driver"

	log "github.com/sirupsen/logrus"
)

// Server exposes /healthz, /statusz, and /metrics over plain HTTP.
type Server struct {
	logger *log.Logger
	http   *http.Server

	mu     sync.RWMutex
	latest map[string]driver.Observation
}

// New builds a Server bound to addr. reg may be nil, in which case
// /metrics serves the default global Prometheus registry.
func New(addr string, reg *prometheus.Registry, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.StandardLogger()
	}
	s := &Server{logger: logger, latest: make(map[string]driver.Observation)}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/statusz", s.handleStatusz)
	if reg != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	} else {
		mux.Handle("/metrics", promhttp.Handler())
	}

	s.http = &http.Server{Addr: addr, Handler: mux}
	return s
}

// RecordObservation updates the cached snapshot /statusz serves for one
// zone.
func (s *Server) RecordObservation(obs driver.Observation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest[obs.ZoneID] = obs
}

// Start blocks serving HTTP until the server is stopped or fails.
func (s *Server) Start() error {
	s.logger.Infof("status server starting on %s", s.http.Addr)
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *Server) handleStatusz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	s.mu.RLock()
	snapshot := make(map[string]driver.Observation, len(s.latest))
	for k, v := range s.latest {
		snapshot[k] = v
	}
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snapshot); err != nil {
		s.logger.Warnf("statusz encode failed: %v", err)
	}
}
