package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/datastackhq/stackctl/pkg/errors"
	"github.com/datastackhq/stackctl/pkg/serializer"
)

// ErrorResponse is the JSON body returned for every API error.
type ErrorResponse struct {
	Code      errors.ErrorCode `json:"code"`
	Message   string           `json:"message"`
	Details   map[string]any   `json:"details,omitempty"`
	RequestID string           `json:"requestId"`
	Timestamp time.Time        `json:"timestamp"`
	Retryable bool             `json:"retryable"`
}

// writeError writes a structured error response, carrying the request ID
// from the context when present.
func writeError(w http.ResponseWriter, r *http.Request, statusCode int,
	code errors.ErrorCode, message string, retryable bool, details map[string]any) {
	requestID, _ := r.Context().Value(contextKeyRequestID).(string)
	if requestID == "" {
		requestID = uuid.New().String()
	}

	serializer.RespondJSON(w, statusCode, ErrorResponse{
		Code:      code,
		Message:   message,
		Details:   details,
		RequestID: requestID,
		Timestamp: time.Now().UTC(),
		Retryable: retryable,
	})
}
