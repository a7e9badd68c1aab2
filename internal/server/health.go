package server

import (
	"encoding/json"
	"net/http"
	"time"
)

// HealthResponse represents the JSON response for health endpoints
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Service   string            `json:"service"`
	Version   string            `json:"version,omitempty"`
	Checks    map[string]string `json:"checks,omitempty"`
	Details   map[string]string `json:"details,omitempty"`
}

// LivenessHandler reports that the process is up. It always returns 200.
func (s *Server) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s.logger.DebugContext(ctx, "liveness check requested")

	writeHealth(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Service:   serviceName,
		Version:   serviceVersion,
	})
}

// ReadinessHandler returns 200 when storage is accessible and 503 otherwise
func (s *Server) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s.logger.DebugContext(ctx, "readiness check requested")

	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Service:   serviceName,
		Version:   serviceVersion,
		Checks:    make(map[string]string),
	}

	if s.storageManager != nil && s.storageManager.IsAccessible() {
		response.Checks["storage"] = "accessible"
		writeHealth(w, http.StatusOK, response)
		s.logger.DebugContext(ctx, "readiness check completed", "status", "healthy")
		return
	}

	response.Status = "unhealthy"
	response.Checks["storage"] = "inaccessible"
	writeHealth(w, http.StatusServiceUnavailable, response)
	s.logger.ErrorContext(ctx, "readiness check failed", "status", "unhealthy", "storage", "inaccessible")
}

func writeHealth(w http.ResponseWriter, status int, response HealthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(response)
}
