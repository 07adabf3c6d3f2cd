package handler

import (
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"avd/internal/authz"
	"avd/internal/validation"
	"avd/pkg/testutil"
)

func newRouter() http.Handler {
	r := chi.NewRouter()
	New(authz.NewGate(), slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)
	return r
}

func TestValidateEmployee(t *testing.T) {
	router := newRouter()

	testutil.Given(t, "a complete employee payload", func(t *testing.T) {
		body := map[string]any{
			"name":       "Maria Souza",
			"email":      "maria@example.com",
			"tax_id":     "529.982.247-25",
			"phone":      "(11) 98765-4321",
			"birth_date": "1990-05-17",
			"hire_date":  "2020-01-06",
		}
		req := testutil.WithActor(testutil.NewJSONRequest(t, http.MethodPost, "/validate/employee", body), testutil.Contributor)
		rr := testutil.DoRequest(router, req)

		testutil.Then(t, "the result is valid", func(t *testing.T) {
			testutil.AssertStatus(t, rr, http.StatusOK)
			result := testutil.UnmarshalResponse[validation.Result](t, rr)
			assert.True(t, result.Valid)
			assert.Empty(t, result.Errors)
		})
	})

	testutil.Given(t, "a payload with a bad tax id and a short name", func(t *testing.T) {
		body := map[string]any{"name": "Jo", "email": "jo@example.com", "tax_id": "111.111.111-11"}
		req := testutil.WithActor(testutil.NewJSONRequest(t, http.MethodPost, "/validate/employee", body), testutil.HR)
		rr := testutil.DoRequest(router, req)

		testutil.Then(t, "every violation is listed", func(t *testing.T) {
			testutil.AssertStatus(t, rr, http.StatusBadRequest)
			resp := testutil.UnmarshalErrorResponse(t, rr)
			assert.Equal(t, "validation_error", resp["error"])
			assert.Contains(t, resp["details"], "invalid tax id")
			assert.Contains(t, resp["details"], "name must be at least 3 characters")
		})
	})
}

func TestValidateCycleTooShort(t *testing.T) {
	body := map[string]any{"name": "Q1", "start_date": "2024-01-01", "end_date": "2024-01-03"}
	req := testutil.WithActor(testutil.NewJSONRequest(t, http.MethodPost, "/validate/evaluation_cycle", body), testutil.HR)
	rr := testutil.DoRequest(newRouter(), req)

	testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation_error")
}

func TestValidateRejects(t *testing.T) {
	router := newRouter()

	t.Run("unknown kind", func(t *testing.T) {
		req := testutil.WithActor(testutil.NewJSONRequest(t, http.MethodPost, "/validate/payroll", map[string]any{"a": 1}), testutil.HR)
		testutil.AssertStatusAndError(t, testutil.DoRequest(router, req), http.StatusNotFound, "not_found")
	})

	t.Run("empty body", func(t *testing.T) {
		req := testutil.WithActor(testutil.NewJSONRequest(t, http.MethodPost, "/validate/employee", map[string]any{}), testutil.HR)
		testutil.AssertStatusAndError(t, testutil.DoRequest(router, req), http.StatusBadRequest, "bad_request")
	})

	t.Run("anonymous caller", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/validate/employee", map[string]any{"name": "Maria"})
		testutil.AssertStatusAndError(t, testutil.DoRequest(router, req), http.StatusUnauthorized, "unauthorized")
	})
}
