// Package handler exposes the entity validators over HTTP so clients can
// check a payload before submitting the mutation.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"avd/internal/authz"
	"avd/internal/validation"
	dErrors "avd/pkg/domain-errors"
	"avd/pkg/platform/httputil"
	"avd/pkg/requestcontext"
)

var kinds = map[string]validation.EntityKind{
	string(validation.EntityEmployee):        validation.EntityEmployee,
	string(validation.EntityEvaluationCycle): validation.EntityEvaluationCycle,
}

// fieldsRequest is the loose field map a validator decodes itself.
type fieldsRequest map[string]any

func (r *fieldsRequest) Validate() error {
	if len(*r) == 0 {
		return dErrors.New(dErrors.CodeBadRequest, "at least one field is required")
	}
	return nil
}

type Handler struct {
	gate   *authz.Gate
	logger *slog.Logger
}

func New(gate *authz.Gate, logger *slog.Logger) *Handler {
	return &Handler{gate: gate, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.With(h.gate.Require("validation.check", authz.Requirement{})).
		Post("/validate/{kind}", h.handleValidate)
}

// handleValidate answers 200 with the result when the data is valid and 400
// with every violated rule otherwise.
func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	kind, ok := kinds[chi.URLParam(r, "kind")]
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "unknown entity kind"))
		return
	}
	req, ok := httputil.DecodeAndPrepare[fieldsRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result := validation.Validate(kind, *req)
	if err := result.Err(); err != nil {
		h.logger.InfoContext(ctx, "validation failed",
			"kind", kind,
			"violations", len(result.Errors),
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}
