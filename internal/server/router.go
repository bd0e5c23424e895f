// Package server exposes the analyzer's read-only HTTP surface: health,
// scheduler status, task lookup and Prometheus metrics.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/telhawk-systems/telhawk-analyzer/internal/jobstore"
	"github.com/telhawk-systems/telhawk-analyzer/internal/scheduler"
)

// Router builds the HTTP handler.
type Router struct {
	sched  *scheduler.Scheduler
	store  jobstore.Store
	logger *slog.Logger
}

// New creates the router.
func New(sched *scheduler.Scheduler, store jobstore.Store, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{sched: sched, store: store, logger: logger}
}

// Handler returns the configured mux.
func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.health)
	mux.HandleFunc("/api/v1/status", rt.status)
	mux.HandleFunc("/api/v1/tasks/", rt.task)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func (rt *Router) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) status(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, rt.sched.Status())
}

func (rt *Router) task(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/v1/tasks/")
	if id == "" || strings.Contains(id, "/") {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	rec, err := rt.store.GetTask(r.Context(), id)
	if err != nil {
		if errors.Is(err, jobstore.ErrTaskNotFound) {
			http.Error(w, "Not found", http.StatusNotFound)
			return
		}
		rt.logger.Error("task lookup failed", "task_id", id, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
