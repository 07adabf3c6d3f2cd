// Package handler exposes the personnel service over HTTP. Every write is
// routed through the mutation interceptor; reads only need an authorization
// check.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"avd/internal/authz"
	"avd/internal/interceptor"
	"avd/internal/personnel/models"
	"avd/pkg/domain"
	dErrors "avd/pkg/domain-errors"
	"avd/pkg/platform/httputil"
	"avd/pkg/requestcontext"
)

// Service is the personnel surface the handler depends on.
type Service interface {
	CreateEmployee(ctx context.Context, in models.EmployeeInput) (*models.Employee, error)
	GetEmployee(ctx context.Context, id domain.EmployeeID) (*models.Employee, error)
	UpdateEmployee(ctx context.Context, upd models.EmployeeUpdate) (*models.Employee, error)
	DeleteEmployee(ctx context.Context, id domain.EmployeeID) (*models.Employee, error)

	CreateCycle(ctx context.Context, in models.CycleInput) (*models.Cycle, error)
	GetCycle(ctx context.Context, id domain.CycleID) (*models.Cycle, error)
	UpdateCycle(ctx context.Context, upd models.CycleUpdate) (*models.Cycle, error)
	StartCycle(ctx context.Context, id domain.CycleID) (*models.Cycle, error)
	CloseCycle(ctx context.Context, id domain.CycleID) (*models.Cycle, error)
	DeleteCycle(ctx context.Context, id domain.CycleID) (*models.Cycle, error)

	CreateEvaluation(ctx context.Context, in models.EvaluationInput) (*models.Evaluation, error)
	GetEvaluation(ctx context.Context, id domain.EvaluationID) (*models.Evaluation, error)
	UpdateEvaluation(ctx context.Context, upd models.EvaluationUpdate) (*models.Evaluation, error)
	ApproveEvaluation(ctx context.Context, id domain.EvaluationID) (*models.Evaluation, error)
}

// Operations lists every mutation this handler wraps with its requirement.
var Operations = map[string]authz.Requirement{
	"employees.create":    authz.Needs(authz.PermCreateEmployees),
	"employees.update":    authz.Needs(authz.PermUpdateEmployees),
	"employees.delete":    authz.Needs(authz.PermDeleteEmployees),
	"cycles.create":       authz.Needs(authz.PermManageCycles),
	"cycles.update":       authz.Needs(authz.PermManageCycles),
	"cycles.start":        authz.Needs(authz.PermManageCycles),
	"cycles.close":        authz.Needs(authz.PermManageCycles),
	"cycles.delete":       authz.Needs(authz.PermManageCycles),
	"evaluations.create":  authz.Needs(authz.PermCreateEvaluations),
	"evaluations.update":  authz.Needs(authz.PermUpdateEvaluations),
	"evaluations.approve": authz.Needs(authz.PermApproveEvaluations),
}

type Handler struct {
	logger *slog.Logger
	gate   *authz.Gate
	svc    Service

	createEmployee interceptor.Handler[models.EmployeeInput, *models.Employee]
	updateEmployee interceptor.Handler[models.EmployeeUpdate, *models.Employee]
	deleteEmployee interceptor.Handler[domain.EmployeeID, *models.Employee]

	createCycle interceptor.Handler[models.CycleInput, *models.Cycle]
	updateCycle interceptor.Handler[models.CycleUpdate, *models.Cycle]
	startCycle  interceptor.Handler[domain.CycleID, *models.Cycle]
	closeCycle  interceptor.Handler[domain.CycleID, *models.Cycle]
	deleteCycle interceptor.Handler[domain.CycleID, *models.Cycle]

	createEvaluation  interceptor.Handler[models.EvaluationInput, *models.Evaluation]
	updateEvaluation  interceptor.Handler[models.EvaluationUpdate, *models.Evaluation]
	approveEvaluation interceptor.Handler[domain.EvaluationID, *models.Evaluation]
}

func New(svc Service, i *interceptor.Interceptor, gate *authz.Gate, logger *slog.Logger) *Handler {
	op := func(name string) interceptor.Operation {
		return interceptor.Operation{Name: name, Requirement: Operations[name]}
	}
	return &Handler{
		logger: logger,
		gate:   gate,
		svc:    svc,

		createEmployee: interceptor.Wrap(i, op("employees.create"), svc.CreateEmployee),
		updateEmployee: interceptor.Wrap(i, op("employees.update"), svc.UpdateEmployee),
		deleteEmployee: interceptor.Wrap(i, op("employees.delete"), svc.DeleteEmployee),

		createCycle: interceptor.Wrap(i, op("cycles.create"), svc.CreateCycle),
		updateCycle: interceptor.Wrap(i, op("cycles.update"), svc.UpdateCycle),
		startCycle:  interceptor.Wrap(i, op("cycles.start"), svc.StartCycle),
		closeCycle:  interceptor.Wrap(i, op("cycles.close"), svc.CloseCycle),
		deleteCycle: interceptor.Wrap(i, op("cycles.delete"), svc.DeleteCycle),

		createEvaluation:  interceptor.Wrap(i, op("evaluations.create"), svc.CreateEvaluation),
		updateEvaluation:  interceptor.Wrap(i, op("evaluations.update"), svc.UpdateEvaluation),
		approveEvaluation: interceptor.Wrap(i, op("evaluations.approve"), svc.ApproveEvaluation),
	}
}

// Register mounts the personnel routes.
func (h *Handler) Register(r chi.Router) {
	r.Route("/employees", func(r chi.Router) {
		r.Post("/", h.handleCreateEmployee)
		r.With(h.gate.Require("employees.get", authz.Needs(authz.PermViewEmployees))).Get("/{id}", h.handleGetEmployee)
		r.Put("/{id}", h.handleUpdateEmployee)
		r.Delete("/{id}", h.handleDeleteEmployee)
	})
	r.Route("/cycles", func(r chi.Router) {
		r.Post("/", h.handleCreateCycle)
		r.With(h.gate.Require("cycles.get", authz.Needs(authz.PermViewEvaluations))).Get("/{id}", h.handleGetCycle)
		r.Put("/{id}", h.handleUpdateCycle)
		r.Post("/{id}/start", h.handleStartCycle)
		r.Post("/{id}/close", h.handleCloseCycle)
		r.Delete("/{id}", h.handleDeleteCycle)
	})
	r.Route("/evaluations", func(r chi.Router) {
		r.Post("/", h.handleCreateEvaluation)
		r.With(h.gate.Require("evaluations.get", authz.Needs(authz.PermViewEvaluations))).Get("/{id}", h.handleGetEvaluation)
		r.Put("/{id}", h.handleUpdateEvaluation)
		r.Post("/{id}/approve", h.handleApproveEvaluation)
	})
}

// -----------------------------------------------------------------------------
// Employees
// -----------------------------------------------------------------------------

func (h *Handler) handleCreateEmployee(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[models.EmployeeRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	h.respond(w, r, http.StatusCreated, func() (any, error) {
		return h.createEmployee(ctx, req.Input())
	})
}

func (h *Handler) handleGetEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	h.respond(w, r, http.StatusOK, func() (any, error) {
		return h.svc.GetEmployee(r.Context(), domain.EmployeeID(id))
	})
}

func (h *Handler) handleUpdateEmployee(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.EmployeeRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	h.respond(w, r, http.StatusOK, func() (any, error) {
		return h.updateEmployee(ctx, models.EmployeeUpdate{ID: domain.EmployeeID(id), EmployeeInput: req.Input()})
	})
}

func (h *Handler) handleDeleteEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	h.respond(w, r, http.StatusOK, func() (any, error) {
		return h.deleteEmployee(r.Context(), domain.EmployeeID(id))
	})
}

// -----------------------------------------------------------------------------
// Cycles
// -----------------------------------------------------------------------------

func (h *Handler) handleCreateCycle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[models.CycleRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	h.respond(w, r, http.StatusCreated, func() (any, error) {
		return h.createCycle(ctx, req.Input())
	})
}

func (h *Handler) handleGetCycle(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	h.respond(w, r, http.StatusOK, func() (any, error) {
		return h.svc.GetCycle(r.Context(), domain.CycleID(id))
	})
}

func (h *Handler) handleUpdateCycle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.CycleRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	h.respond(w, r, http.StatusOK, func() (any, error) {
		return h.updateCycle(ctx, models.CycleUpdate{ID: domain.CycleID(id), CycleInput: req.Input()})
	})
}

func (h *Handler) handleStartCycle(w http.ResponseWriter, r *http.Request) {
	h.cycleTransition(w, r, h.startCycle)
}

func (h *Handler) handleCloseCycle(w http.ResponseWriter, r *http.Request) {
	h.cycleTransition(w, r, h.closeCycle)
}

func (h *Handler) handleDeleteCycle(w http.ResponseWriter, r *http.Request) {
	h.cycleTransition(w, r, h.deleteCycle)
}

func (h *Handler) cycleTransition(w http.ResponseWriter, r *http.Request, fn interceptor.Handler[domain.CycleID, *models.Cycle]) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	h.respond(w, r, http.StatusOK, func() (any, error) {
		return fn(r.Context(), domain.CycleID(id))
	})
}

// -----------------------------------------------------------------------------
// Evaluations
// -----------------------------------------------------------------------------

func (h *Handler) handleCreateEvaluation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[models.EvaluationRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	h.respond(w, r, http.StatusCreated, func() (any, error) {
		return h.createEvaluation(ctx, req.Input())
	})
}

func (h *Handler) handleGetEvaluation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	h.respond(w, r, http.StatusOK, func() (any, error) {
		return h.svc.GetEvaluation(r.Context(), domain.EvaluationID(id))
	})
}

func (h *Handler) handleUpdateEvaluation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.EvaluationCommentsRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	h.respond(w, r, http.StatusOK, func() (any, error) {
		return h.updateEvaluation(ctx, models.EvaluationUpdate{ID: domain.EvaluationID(id), Comments: req.Comments})
	})
}

func (h *Handler) handleApproveEvaluation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	h.respond(w, r, http.StatusOK, func() (any, error) {
		return h.approveEvaluation(r.Context(), domain.EvaluationID(id))
	})
}

// -----------------------------------------------------------------------------
// helpers
// -----------------------------------------------------------------------------

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, status int, call func() (any, error)) {
	out, err := call()
	if err != nil {
		ctx := r.Context()
		if dErrors.CodeOf(err) == dErrors.CodeInternal {
			h.logger.ErrorContext(ctx, "personnel request failed",
				"error", err,
				"path", r.URL.Path,
				"request_id", requestcontext.RequestID(ctx),
			)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, status, out)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "id must be a positive integer"))
		return 0, false
	}
	return id, true
}
