package cmd

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	audithandler "avd/internal/audit/handler"
	auditservice "avd/internal/audit/service"
	jwttoken "avd/internal/jwt_token"
	"avd/internal/platform/config"
	"avd/internal/validation"
	"avd/pkg/domain"
	"avd/pkg/platform/audit"
	auditmemory "avd/pkg/platform/audit/store/memory"
	"avd/pkg/testutil"
)

func memoryConfig() *config.Config {
	return &config.Config{
		Server: config.Server{Addr: ":0", ShutdownTimeout: time.Second},
		Kafka:  config.Kafka{Topic: config.DefaultKafkaTopic},
		Auth:   config.Auth{JWTSigningKey: "test-key", Issuer: "avd", Audience: "avd-api"},
		RateLimit: config.RateLimit{
			MaxRequests:   50,
			Window:        time.Minute,
			IdleWindows:   config.DefaultIdleWindows,
			MaxKeys:       1000,
			SweepInterval: time.Minute,
		},
		Audit: config.Audit{Timeout: time.Second},
		Log:   config.Log{Level: "error", Format: "text"},
	}
}

// =============================================================================
// Server Wiring Test Suite
// =============================================================================
// Justification for unit tests: buildApp is the only place where the
// interceptor, stores and routes meet. These tests drive the assembled router
// with real bearer tokens against the in-memory backend.

type AppSuite struct {
	suite.Suite
	app *app
	jwt *jwttoken.JWTService
}

func TestAppSuite(t *testing.T) {
	suite.Run(t, new(AppSuite))
}

func (s *AppSuite) SetupTest() {
	cfg := memoryConfig()
	a, err := buildApp(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), prometheus.NewRegistry())
	s.Require().NoError(err)
	s.app = a
	s.jwt = jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer, cfg.Auth.Audience)
}

func (s *AppSuite) TearDownTest() {
	s.app.Close()
}

func (s *AppSuite) do(actor *domain.Actor, method, path string, body any) *http.Request {
	var req *http.Request
	if body != nil {
		req = testutil.NewJSONRequest(s.T(), method, path, body)
	} else {
		req = testutil.NewRequest(s.T(), method, path)
	}
	if actor != nil {
		token, err := s.jwt.GenerateAccessToken(*actor, time.Minute)
		s.Require().NoError(err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func (s *AppSuite) TestMemoryBackendStartsWithoutWorkersFailing() {
	s.Len(s.app.workers, 1, "only the rate limit sweeper runs without kafka")

	rr := testutil.DoRequest(s.app.router, s.do(nil, http.MethodGet, "/health", nil))
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
}

func (s *AppSuite) TestMutationIsAuditedAndQueryable() {
	body := map[string]any{
		"name":       "Maria Silva",
		"email":      "maria@example.com",
		"tax_id":     "529.982.247-25",
		"birth_date": "1990-04-12",
		"hire_date":  "2020-01-06",
	}

	testutil.When(s.T(), "HR creates an employee", func(t *testing.T) {
		rr := testutil.DoRequest(s.app.router, s.do(testutil.HR, http.MethodPost, "/employees/", body))
		testutil.AssertStatus(t, rr, http.StatusCreated)
	})

	testutil.Then(s.T(), "an admin sees the entry in the audit trail", func(t *testing.T) {
		rr := testutil.DoRequest(s.app.router, s.do(testutil.Admin, http.MethodGet, "/admin/audit/?action=employees.create", nil))
		testutil.AssertStatus(t, rr, http.StatusOK)
		resp := testutil.UnmarshalResponse[struct {
			Entries []audit.Entry `json:"entries"`
		}](t, rr)
		require.NotEmpty(t, resp.Entries)
		assert.Equal(t, testutil.HR.ID, resp.Entries[0].ActorID)
		assert.True(t, resp.Entries[0].Success)
	})

	testutil.And(s.T(), "a contributor cannot read it", func(t *testing.T) {
		rr := testutil.DoRequest(s.app.router, s.do(testutil.Contributor, http.MethodGet, "/admin/audit/", nil))
		testutil.AssertStatusAndError(t, rr, http.StatusForbidden, "forbidden")
	})
}

func (s *AppSuite) TestValidationEndpointIsMounted() {
	body := map[string]any{"name": "Q1", "start_date": "2024-01-01", "end_date": "2024-01-02"}
	rr := testutil.DoRequest(s.app.router, s.do(testutil.HR, http.MethodPost, "/validate/evaluation_cycle", body))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
}

func TestReadFields(t *testing.T) {
	t.Run("pairs", func(t *testing.T) {
		fields, err := readFields([]string{"name=Maria Souza", "email=maria@example.com", "note=a=b"}, nil)
		require.NoError(t, err)
		assert.Equal(t, "Maria Souza", fields["name"])
		assert.Equal(t, "a=b", fields["note"])
	})

	t.Run("stdin json", func(t *testing.T) {
		fields, err := readFields(nil, strings.NewReader(`{"name":"Q1","start_date":"2024-01-01"}`))
		require.NoError(t, err)
		assert.Equal(t, "Q1", fields["name"])
	})

	t.Run("malformed pair", func(t *testing.T) {
		_, err := readFields([]string{"=x"}, nil)
		require.Error(t, err)
	})
}

func TestValidateCommandExitsNonZeroWhenInvalid(t *testing.T) {
	var out bytes.Buffer
	validateCmd.SetOut(&out)
	validateCmd.SetIn(strings.NewReader(`{"name":"Jo","email":"not-an-email"}`))
	t.Cleanup(func() {
		validateCmd.SetOut(nil)
		validateCmd.SetIn(nil)
		validateFields = nil
	})

	err := runValidate(validateCmd, []string{string(validation.EntityEmployee)})
	require.ErrorIs(t, err, errInvalidData)
	assert.Contains(t, out.String(), "- invalid email")
	assert.Contains(t, out.String(), "- name must be at least 3 characters")
}

func TestTokenOptions(t *testing.T) {
	a, err := tokenOptions{userID: 3, role: "GESTOR", ttl: time.Hour}.actor()
	require.NoError(t, err)
	assert.Equal(t, domain.RoleManager, a.Role)

	_, err = tokenOptions{userID: 3, role: "root", ttl: time.Hour}.actor()
	require.Error(t, err)

	_, err = tokenOptions{role: "rh", ttl: time.Hour}.actor()
	require.Error(t, err)
}

func TestAuditListOutput(t *testing.T) {
	logger, err := auditservice.New(auditmemory.NewInMemoryStore())
	require.NoError(t, err)
	ctx := testutil.AsActor(testutil.HR)
	logger.LogCreate(ctx, audit.NewContext(testutil.HR, "cycles.create", "1"), map[string]string{"name": "Q1"})
	logger.LogError(ctx, audit.NewContext(testutil.HR, "cycles.delete", "1"), "cycle has evaluations")

	opts := auditListOptions{resource: "cycles", success: "false", limit: 10}
	filter, err := audithandler.ParseFilter(opts.query())
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, listEntries(ctx, logger, filter, &out))
	assert.Contains(t, out.String(), `"action": "cycles.delete"`)
	assert.NotContains(t, out.String(), `"action": "cycles.create"`)
}
