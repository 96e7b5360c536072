// Package respond writes the {code, message, data} envelope every endpoint returns.
package respond

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

// Envelope wraps every API payload.
type Envelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// JSON writes data with a human readable message.
func JSON(w http.ResponseWriter, status int, message string, data any) {
	write(w, Envelope{Code: status, Message: message, Data: data})
}

// Error writes an envelope without data.
func Error(w http.ResponseWriter, status int, message string) {
	write(w, Envelope{Code: status, Message: message})
}

// Errorf formats the message before writing it as an error envelope.
func Errorf(w http.ResponseWriter, status int, format string, args ...any) {
	Error(w, status, fmt.Sprintf(format, args...))
}

func write(w http.ResponseWriter, payload Envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(payload.Code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Warn("encode response envelope", zap.Int("status", payload.Code), zap.Error(err))
	}
}
