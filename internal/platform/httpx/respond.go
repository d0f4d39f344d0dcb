// Package httpx provides HTTP response utilities for the JSON envelope
// shared by every endpoint: {"success": bool, "data": ..., "message": ...}.
package httpx

import (
	"encoding/json"
	"net/http"
)

// Envelope is the wire shape of every response body.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
}

// JSON sends a successful envelope with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		Fail(w, http.StatusInternalServerError, "")
		return
	}
	write(w, status, Envelope{Success: true, Data: raw})
}

// Fail sends a failed envelope with the given status code and message.
func Fail(w http.ResponseWriter, status int, message string) {
	write(w, status, Envelope{Success: false, Message: message})
}

// DecodeJSON decodes a JSON request body into the target struct.
func DecodeJSON(r *http.Request, target any) error {
	return json.NewDecoder(r.Body).Decode(target)
}

func write(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}
