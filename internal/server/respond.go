package server

import (
	"encoding/json"
	"net/http"

	"github.com/tandemapp/tandem-server/internal/logger"
)

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode response", "err", err)
	}
}

// Fail writes an error response body of the form {"error": "..."}.
func Fail(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}
