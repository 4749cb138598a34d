package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const readyTimeout = 2 * time.Second

// HealthHandler provides health check endpoints
type HealthHandler struct {
	checker *HealthChecker
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(checker *HealthChecker) *HealthHandler {
	return &HealthHandler{
		checker: checker,
	}
}

// NewOpsRouter serves health, readiness and metrics on the ops listener
func NewOpsRouter(h *HealthHandler, metrics http.Handler) chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)

	h.RegisterRoutes(router)
	if metrics != nil {
		router.Handle("/metrics", metrics)
	}
	return router
}

// RegisterRoutes registers health check endpoints
func (h *HealthHandler) RegisterRoutes(router chi.Router) {
	router.Get("/health", h.handleHealthStatus)
	router.Get("/health/live", h.handleLiveness)
	router.Get("/ready", h.handleReadiness)
}

// handleHealthStatus returns complete health status
func (h *HealthHandler) handleHealthStatus(w http.ResponseWriter, r *http.Request) {
	status := h.checker.Check(r.Context())

	httpStatus := http.StatusOK
	if status.Status != "healthy" {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, status)
}

// handleLiveness checks if the process is serving at all
func (h *HealthHandler) handleLiveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "alive",
		"message": "Service is running",
	})
}

// handleReadiness checks that the store answers
func (h *HealthHandler) handleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if err := h.checker.Ready(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":  "not_ready",
			"message": "Service is not ready: " + err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ready",
		"message": "Service is ready to serve requests",
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
