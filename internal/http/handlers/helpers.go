package handlers

import (
	"encoding/json"
	"net/http"
)

// envelope is the uniform response shape of the API.
type envelope struct {
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func writeEnvelope(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, envelope{
		Status:  "success",
		Code:    status,
		Message: message,
		Data:    data,
	})
}

func jsonError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, envelope{
		Status:  "error",
		Code:    status,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
