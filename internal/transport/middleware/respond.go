package middleware

import (
	"encoding/json"
	"net/http"
)

// fail writes the failure envelope used by every API response.
func fail(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
		"success": false,
		"message": message,
	})
}
