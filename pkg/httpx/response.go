package httpx

import (
	"encoding/json"
	"net/http"
)

// Envelope is the canonical response body: a human-readable message plus an
// optional data payload.
type Envelope struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
// It automatically sets the Content-Type header.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteMessage writes an Envelope with only a message.
func WriteMessage(w http.ResponseWriter, code int, message string) {
	WriteJSON(w, code, Envelope{Message: message})
}

// WriteData writes an Envelope with a message and a data payload.
func WriteData(w http.ResponseWriter, code int, message string, data any) {
	WriteJSON(w, code, Envelope{Message: message, Data: data})
}

// NoCache sets the Cache-Control and Pragma headers to prevent caching.
// Required for responses carrying verification tokens.
func NoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}
