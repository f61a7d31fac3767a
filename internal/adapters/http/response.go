package http

import (
	"encoding/json"
	"net/http"
)

type apiError struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeSuccess merges data into the response envelope at the top level so the
// frontend reads fields directly off the body, next to the success flag.
func writeSuccess(w http.ResponseWriter, statusCode int, data map[string]any) {
	payload := map[string]any{"success": true}
	for k, v := range data {
		payload[k] = v
	}
	writeJSON(w, statusCode, payload)
}

func writeMessage(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]any{
		"success": true,
		"message": message,
	})
}

func writeError(w http.ResponseWriter, statusCode int, code, message string) {
	writeJSON(w, statusCode, apiError{
		Success: false,
		Error:   message,
		Code:    code,
	})
}
