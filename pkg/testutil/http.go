// Package testutil provides common test utilities for service, handler and integration tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// NewJSONRequest creates an HTTP request with JSON body.
// The body is marshaled to JSON automatically.
func NewJSONRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		require.NoError(t, err, "failed to marshal request body")
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req := httptest.NewRequest(method, path, bodyReader)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// NewRequest creates a simple HTTP request without a body.
func NewRequest(t *testing.T, method, path string) *http.Request {
	t.Helper()
	return httptest.NewRequest(method, path, nil)
}

// DoRequest executes a request against a handler and returns the recorder.
func DoRequest(handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

// ReadBody reads the response body as bytes.
func ReadBody(t *testing.T, rr *httptest.ResponseRecorder) []byte {
	t.Helper()
	body, err := io.ReadAll(rr.Body)
	require.NoError(t, err, "failed to read response body")
	return body
}

// UnmarshalResponse unmarshals the response body into the target struct.
func UnmarshalResponse[T any](t *testing.T, rr *httptest.ResponseRecorder) *T {
	t.Helper()
	body := ReadBody(t, rr)
	var result T
	require.NoError(t, json.Unmarshal(body, &result), "failed to unmarshal response")
	return &result
}

// UnmarshalErrorResponse unmarshals the response body as an error response.
func UnmarshalErrorResponse(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	body := ReadBody(t, rr)
	var result map[string]any
	require.NoError(t, json.Unmarshal(body, &result), "failed to unmarshal error response")
	return result
}

// AssertStatus asserts the response status code matches expected.
func AssertStatus(t *testing.T, rr *httptest.ResponseRecorder, expected int) {
	t.Helper()
	assert.Equal(t, expected, rr.Code, "unexpected status code")
}

// AssertErrorCode asserts the response contains the expected error code.
func AssertErrorCode(t *testing.T, rr *httptest.ResponseRecorder, expectedCode string) {
	t.Helper()
	errResp := UnmarshalErrorResponse(t, rr)
	assert.Equal(t, expectedCode, errResp["error"], "unexpected error code")
}

// AssertStatusAndError asserts both status code and error code.
func AssertStatusAndError(t *testing.T, rr *httptest.ResponseRecorder, expectedStatus int, expectedCode string) {
	t.Helper()
	AssertStatus(t, rr, expectedStatus)
	AssertErrorCode(t, rr, expectedCode)
}

// AssertErrorDetails asserts the itemized details of a validation error.
func AssertErrorDetails(t *testing.T, rr *httptest.ResponseRecorder, contains string) {
	t.Helper()
	errResp := UnmarshalErrorResponse(t, rr)
	details, ok := errResp["details"].([]any)
	require.True(t, ok, "expected details array in error response")
	for _, d := range details {
		if s, _ := d.(string); s == contains {
			return
		}
	}
	t.Errorf("expected detail %q in %v", contains, details)
}
