package httpapi

import (
	"encoding/json"
	"net/http"
)

// writeJSON is the 200-OK encoder for handler happy paths; error responses
// go through WriteError so they carry the envelope and request id.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// methodMux dispatches one route by HTTP method and rejects the rest, so
// handlers never need their own method checks.
func methodMux(byMethod map[string]http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h, ok := byMethod[r.Method]
		if !ok {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h(w, r)
	}
}
