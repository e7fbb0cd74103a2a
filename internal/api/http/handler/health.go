package handler

import (
	"net/http"

	"api-gateway/internal/api/http/response"
)

// Health reports gateway liveness.
func Health(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Root answers the bare path so probes and humans get something useful.
func Root(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{"message": "API gateway is running"})
}
