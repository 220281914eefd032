package http

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/rcrowley/go-metrics"
)

func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	registry := s.registry
	if registry == nil {
		registry = metrics.DefaultRegistry
	}
	w.Header().Set("Content-Type", "application/json")
	metrics.WriteJSONOnce(registry, w)
}

// Health answers 200 when every backend responds, 503 otherwise.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	result := make(map[string]string, len(names))
	for _, name := range names {
		if err := s.checks[name](ctx); err != nil {
			s.logger.Warn("Health check failed", "backend", name, "error", err)
			result[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		result[name] = "ok"
	}

	writeJSON(w, status, result)
}
