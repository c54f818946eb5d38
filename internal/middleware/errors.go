package middleware

import (
	"encoding/json"
	"net/http"
)

// writeError emits the API error envelope for failures raised before a
// handler runs.
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"code": code, "message": message},
	})
}
