// Package httputil holds the JSON response helpers shared by every handler.
package httputil

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	dErrors "avd/pkg/domain-errors"
)

// maxBodyBytes bounds request bodies decoded by DecodeAndPrepare.
const maxBodyBytes = 1 << 20

// Validatable is implemented by request DTOs that normalize and check themselves.
type Validatable interface {
	Validate() error
}

type errorResponse struct {
	Error            string   `json:"error"`
	ErrorDescription string   `json:"error_description,omitempty"`
	Details          []string `json:"details,omitempty"`
	RetryAfter       int      `json:"retry_after,omitempty"`
}

// WriteJSON writes v as a JSON body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps err to its status and writes the error body. Internal errors
// never expose their message.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	status := dErrors.ToHTTPStatus(code)
	body := errorResponse{Error: string(code)}

	if de, ok := dErrors.As(err); ok && code != dErrors.CodeInternal {
		body.ErrorDescription = de.Message
		body.Details = de.Details
		if code == dErrors.CodeRateLimited {
			body.RetryAfter = de.RetryAfter
			w.Header().Set("Retry-After", strconv.Itoa(de.RetryAfter))
		}
	}
	WriteJSON(w, status, body)
}

// DecodeAndPrepare decodes the request body into T and runs its Validate hook.
// On failure it writes the error response and returns false.
func DecodeAndPrepare[T any, PT interface {
	*T
	Validatable
}](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (*T, bool) {
	var req T
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		logger.WarnContext(ctx, "failed to decode request body",
			"error", err,
			"request_id", requestID,
		)
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid JSON body"))
		return nil, false
	}
	if err := PT(&req).Validate(); err != nil {
		logger.WarnContext(ctx, "invalid request",
			"error", err,
			"request_id", requestID,
		)
		WriteError(w, err)
		return nil, false
	}
	return &req, true
}
