package httputil

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "avd/pkg/domain-errors"
)

func TestWriteError(t *testing.T) {
	t.Run("internal error omits description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeInternal, "db failed"))

		require.Equal(t, http.StatusInternalServerError, w.Code)
		var body map[string]any
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "internal_error", body["error"])
		assert.NotContains(t, body, "error_description")
	})

	t.Run("validation error lists details", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.Validation("employee data is invalid", []string{"invalid email"}))

		require.Equal(t, http.StatusBadRequest, w.Code)
		var body map[string]any
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "validation_error", body["error"])
		assert.Equal(t, []any{"invalid email"}, body["details"])
	})

	t.Run("rate limit sets Retry-After", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.RateLimited(42))

		require.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, "42", w.Header().Get("Retry-After"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.EqualValues(t, 42, body["retry_after"])
	})

	t.Run("plain error is internal", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, io.ErrUnexpectedEOF)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

type nameRequest struct {
	Name string `json:"name"`
}

func (r *nameRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	return nil
}

func TestDecodeAndPrepare(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("valid body is normalized", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"  Ana "}`))
		req, ok := DecodeAndPrepare[nameRequest](w, r, logger, context.Background(), "req-1")
		require.True(t, ok)
		assert.Equal(t, "Ana", req.Name)
	})

	t.Run("unknown fields are rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"nome":"Ana"}`))
		_, ok := DecodeAndPrepare[nameRequest](w, r, logger, context.Background(), "req-2")
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("validate failure is written", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":" "}`))
		_, ok := DecodeAndPrepare[nameRequest](w, r, logger, context.Background(), "req-3")
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
