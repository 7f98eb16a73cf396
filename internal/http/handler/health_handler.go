package handler

import (
	"net/http"
)

// HealthCheckHandler returns HTTP 200 OK. It is used for liveness checks
// by Docker or other services.
func HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
