package http

import (
	"encoding/json"
	"net/http"
	"time"
)

// ServiceStatus reports whether each upstream dependency is usable.
type ServiceStatus interface {
	GeminiConfigured() bool
	AzureSpeechConfigured() bool
	GrammarCheckerAvailable() bool
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	status ServiceStatus
	ready  bool
}

func NewHealthHandler(status ServiceStatus) *HealthHandler {
	return &HealthHandler{status: status, ready: true}
}

// SetReady sets the ready state.
func (h *HealthHandler) SetReady(ready bool) {
	h.ready = ready
}

// Health reports overall service health and per-dependency availability.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"services": map[string]bool{
			"gemini":       h.status.GeminiConfigured(),
			"azure_speech": h.status.AzureSpeechConfigured(),
			"languagetool": h.status.GrammarCheckerAvailable(),
		},
	})
}

// Ready checks if the service is ready to receive traffic.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if !h.ready {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "not_ready",
		})
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status": "ready",
	})
}

// Live checks if the service is alive (for Kubernetes liveness probe).
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status": "alive",
	})
}
