package utils

import (
	"encoding/json"
	"net/http"

	"qrorder-be/internal/logger"

	"go.uber.org/zap"
)

// ErrorBody is the JSON envelope of every error response.
type ErrorBody struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Status    int    `json:"status"`
	RequestID string `json:"request_id,omitempty"`
}

func StrPtr(s string) *string {
	return &s
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.L().Warn("failed to encode response", zap.Error(err))
	}
}

// WriteJSONError writes the error envelope. code is the machine-readable error code.
func WriteJSONError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	body := ErrorBody{
		Error:   code,
		Message: message,
		Status:  status,
	}
	if r != nil {
		body.RequestID = logger.RequestIDFrom(r.Context())
	}
	WriteJSON(w, status, body)
}
