// Package handler serves the read-only audit trail to administrators.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"avd/internal/authz"
	"avd/pkg/domain"
	dErrors "avd/pkg/domain-errors"
	"avd/pkg/platform/audit"
	"avd/pkg/platform/httputil"
	pstrings "avd/pkg/platform/strings"
	"avd/pkg/requestcontext"
)

// Reader is the audit query surface.
type Reader interface {
	List(ctx context.Context, filter audit.Filter) ([]audit.Entry, error)
	Latest(ctx context.Context, resource, resourceID string) (*audit.Entry, error)
}

type Handler struct {
	reader  Reader
	gate    *authz.Gate
	limiter func(http.Handler) http.Handler
	logger  *slog.Logger
}

// New builds the handler. limiter may be nil.
func New(reader Reader, gate *authz.Gate, limiter func(http.Handler) http.Handler, logger *slog.Logger) *Handler {
	return &Handler{reader: reader, gate: gate, limiter: limiter, logger: logger}
}

type listResponse struct {
	Entries []audit.Entry `json:"entries"`
	Limit   int           `json:"limit"`
	Offset  int           `json:"offset"`
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/admin/audit", func(r chi.Router) {
		if h.limiter != nil {
			r.Use(h.limiter)
		}
		r.Use(h.gate.Require("audit.list", authz.Needs(authz.PermViewAuditLog)))
		r.Get("/", h.handleList)
		r.Get("/latest", h.handleLatest)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filter, err := ParseFilter(r.URL.Query())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	entries, err := h.reader.List(ctx, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list audit entries",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	filter = filter.Normalize()
	httputil.WriteJSON(w, http.StatusOK, listResponse{Entries: entries, Limit: filter.Limit, Offset: filter.Offset})
}

func (h *Handler) handleLatest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	entry, err := h.reader.Latest(r.Context(), q.Get("resource"), q.Get("resource_id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, entry)
}

// ParseFilter reads actor_id, action (repeatable or comma-separated),
// resource, resource_id, success, from, to (RFC 3339), limit and offset.
func ParseFilter(q url.Values) (audit.Filter, error) {
	var (
		f        audit.Filter
		problems []string
	)
	if v := q.Get("actor_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			problems = append(problems, "actor_id must be a positive integer")
		}
		f.ActorID = domain.UserID(id)
	}
	f.Actions = pstrings.SplitList(q["action"]...)
	f.Resource = strings.TrimSpace(q.Get("resource"))
	f.ResourceID = strings.TrimSpace(q.Get("resource_id"))
	if v := q.Get("success"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			problems = append(problems, "success must be true or false")
		}
		f.Success = &b
	}
	problems = parseTime(q.Get("from"), "from", &f.From, problems)
	problems = parseTime(q.Get("to"), "to", &f.To, problems)
	problems = parseInt(q.Get("limit"), "limit", &f.Limit, problems)
	problems = parseInt(q.Get("offset"), "offset", &f.Offset, problems)

	if len(problems) > 0 {
		return audit.Filter{}, dErrors.Validation("invalid audit filter", problems)
	}
	return f, nil
}

func parseTime(raw, field string, dst *time.Time, problems []string) []string {
	if raw == "" {
		return problems
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return append(problems, field+" must be an RFC 3339 timestamp")
	}
	*dst = t
	return problems
}

func parseInt(raw, field string, dst *int, problems []string) []string {
	if raw == "" {
		return problems
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return append(problems, field+" must be a non-negative integer")
	}
	*dst = n
	return problems
}
