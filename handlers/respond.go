package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// Response is the JSON envelope mirroring the store result tuples:
// business-rule rejections arrive as success=false with the store's
// message, never as transport errors.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// queryUint parses an optional numeric query parameter, returning nil when
// absent or unparseable.
func queryUint(r *http.Request, name string) *uint {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || v == 0 {
		return nil
	}
	u := uint(v)
	return &u
}

// queryInt parses an optional numeric query parameter with a default,
// clamped to [min, max].
func queryInt(r *http.Request, name string, def, min, max int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
