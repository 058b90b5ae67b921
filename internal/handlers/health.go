package handlers

import (
	"net/http"
)

// HealthHandler responds with service health information.
type HealthHandler struct{}

type healthStatus struct {
	Status string `json:"status"`
}

// Handle implements GET /healthcheck.
func (HealthHandler) Handle(w http.ResponseWriter, r *http.Request) error {
	return respond(w, r, http.StatusOK, healthStatus{Status: "OK"}, "Health check passed")
}
