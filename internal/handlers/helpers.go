package handlers

import (
	"encoding/json"
	"net/http"
)

// maxErrorMessageLength caps error messages sent to clients
const maxErrorMessageLength = 200

// respondJSON sends data as the JSON response body
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// sanitizeErrorMessage keeps client-facing error messages short
func sanitizeErrorMessage(message string) string {
	if len(message) > maxErrorMessageLength {
		return message[:maxErrorMessageLength] + "..."
	}
	return message
}

// respondJSONError sends an {"error": message} response
func respondJSONError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: sanitizeErrorMessage(message)})
}

// ErrorResponse is the body of every failed API response
type ErrorResponse struct {
	Error string `json:"error"`
}
