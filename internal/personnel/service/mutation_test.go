package service_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auditservice "avd/internal/audit/service"
	"avd/internal/authz"
	"avd/internal/interceptor"
	"avd/internal/personnel/models"
	"avd/internal/personnel/service"
	"avd/internal/personnel/store/memory"
	ratelimit "avd/internal/ratelimit/service"
	ratelimitmemory "avd/internal/ratelimit/store/memory"
	"avd/internal/txrunner"
	dErrors "avd/pkg/domain-errors"
	"avd/pkg/platform/audit"
	auditmemory "avd/pkg/platform/audit/store/memory"
	"avd/pkg/testutil"
)

type wired struct {
	service *service.Service
	runner  *countingRunner
	audit   *auditmemory.InMemoryStore
	create  interceptor.Handler[models.EmployeeInput, *models.Employee]
	update  interceptor.Handler[models.EmployeeUpdate, *models.Employee]
}

func wire(t *testing.T) wired {
	t.Helper()
	store := memory.New()
	inner, err := txrunner.NewMemoryRunner(store)
	require.NoError(t, err)
	runner := &countingRunner{inner: inner}
	svc, err := service.New(store, store, runner)
	require.NoError(t, err)

	auditStore := auditmemory.NewInMemoryStore()
	logger, err := auditservice.New(auditStore)
	require.NoError(t, err)
	limiter, err := ratelimit.New(ratelimitmemory.New())
	require.NoError(t, err)
	i, err := interceptor.New(limiter, authz.NewGate(), logger)
	require.NoError(t, err)

	return wired{
		service: svc,
		runner:  runner,
		audit:   auditStore,
		create: interceptor.Wrap(i, interceptor.Operation{
			Name:        "employees.create",
			Requirement: authz.Needs(authz.PermCreateEmployees),
		}, svc.CreateEmployee),
		update: interceptor.Wrap(i, interceptor.Operation{
			Name:        "employees.update",
			Requirement: authz.Needs(authz.PermUpdateEmployees),
		}, svc.UpdateEmployee),
	}
}

func entries(t *testing.T, store *auditmemory.InMemoryStore) []audit.Entry {
	t.Helper()
	out, err := store.List(context.Background(), audit.Filter{})
	require.NoError(t, err)
	return out
}

func TestContributorCannotCreateEmployee(t *testing.T) {
	w := wire(t)

	_, err := w.create(testutil.AsActor(testutil.Contributor), validEmployee())

	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeForbidden))
	assert.Zero(t, w.runner.opened)
	for _, e := range entries(t, w.audit) {
		assert.False(t, e.Success, "a rejected caller must not leave a success entry")
	}
}

func TestInvalidTaxIDFailsBeforeTransaction(t *testing.T) {
	w := wire(t)
	in := validEmployee()
	in.TaxID = "123.456.789-00"

	_, err := w.create(testutil.AsActor(testutil.HR), in)

	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeValidation))
	de, _ := dErrors.As(err)
	assert.Contains(t, de.Details, "invalid tax id")
	assert.Zero(t, w.runner.opened)

	got := entries(t, w.audit)
	require.LessOrEqual(t, len(got), 2)
	for _, e := range got {
		assert.False(t, e.Success)
	}
}

func TestUpdateAuditCarriesBothSides(t *testing.T) {
	w := wire(t)
	ctx := testutil.AsActor(testutil.HR)

	created, err := w.create(ctx, validEmployee())
	require.NoError(t, err)

	upd := models.EmployeeUpdate{ID: created.ID, EmployeeInput: validEmployee()}
	upd.Name = "Maria Souza"
	_, err = w.update(ctx, upd)
	require.NoError(t, err)

	latest, err := w.audit.Latest(context.Background(), "employees", created.ID.String())
	require.NoError(t, err)
	// the critical record is written by the inner layer, so the regular entry lands last
	assert.Equal(t, "employees.update", latest.Action)

	updates, err := w.audit.List(context.Background(), audit.Filter{Actions: []string{"employees.update"}})
	require.NoError(t, err)
	require.Len(t, updates, 1)
	assert.True(t, updates[0].Success)

	var before, after map[string]any
	require.NoError(t, json.Unmarshal(updates[0].OldValue, &before))
	require.NoError(t, json.Unmarshal(updates[0].NewValue, &after))
	assert.Equal(t, "Maria Silva", before["name"])
	assert.Equal(t, "Maria Souza", after["name"])
}
