package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// respondJSON sends a JSON response with appropriate headers.
func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// respondMessage sends the standard {success, message} envelope.
func respondMessage(w http.ResponseWriter, status int, success bool, message string) {
	respondJSON(w, status, map[string]any{"success": success, "message": message})
}

// decodeJSON reads the request body into dst. A malformed body is the
// caller's 400.
func decodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

// parsePage extracts the page/size query parameters with defaults, clamping
// both to sane positive values.
func parsePage(r *http.Request, defaultSize int64) (page, size int64) {
	page = parseInt64Default(r.URL.Query().Get("page"), 1)
	size = parseInt64Default(r.URL.Query().Get("size"), defaultSize)
	return page, size
}

func parseInt64Default(raw string, def int64) int64 {
	if raw == "" {
		return def
	}
	if v, err := strconv.ParseInt(raw, 10, 64); err == nil && v > 0 {
		return v
	}
	return def
}
