// Package api provides HTTP API handlers for the JaJanken round history.
package api

import (
	"encoding/json"
	"net/http"
)

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// WriteError writes a JSON error response.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, errorResponse{Error: message})
}

// WriteKindError writes a JSON error response carrying a machine-readable
// failure kind.
func WriteKindError(w http.ResponseWriter, status int, message, kind string) {
	WriteJSON(w, status, errorResponse{Error: message, Kind: kind})
}
