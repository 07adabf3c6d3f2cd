package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TestContext drives a running avd server over HTTP and remembers what the
// scenario created so later steps can refer to it by name.
type TestContext struct {
	baseURL    string
	signingKey []byte
	client     *http.Client

	token    string
	clientIP string
	saved    map[string]string

	lastStatus  int
	lastBody    []byte
	lastHeaders http.Header
}

func NewTestContext(baseURL, signingKey string) *TestContext {
	return &TestContext{
		baseURL:    baseURL,
		signingKey: []byte(signingKey),
		client:     &http.Client{Timeout: 10 * time.Second},
		saved:      map[string]string{},
	}
}

// Reset clears per-scenario state. Each scenario gets its own client IP so
// rate limit windows do not leak between scenarios.
func (tc *TestContext) Reset() {
	tc.token = ""
	tc.saved = map[string]string{}
	tc.lastStatus = 0
	tc.lastBody = nil
	tc.lastHeaders = nil
	n := ipSeq.Add(1)
	tc.clientIP = fmt.Sprintf("10.%d.%d.%d", (n>>16)&0xff, (n>>8)&0xff, n&0xff)
	// {run} keeps unique fields such as emails distinct across scenarios and reruns.
	tc.saved["run"] = strconv.FormatUint(uint64(n), 10)
}

// ipSeq starts from the clock so reruns against the same server get fresh windows.
var ipSeq = func() *atomic.Uint32 {
	var v atomic.Uint32
	v.Store(uint32(time.Now().Unix()))
	return &v
}()

var roleIDs = map[string]int64{"admin": 1, "rh": 2, "gestor": 3, "colaborador": 4}

// AuthenticateAs mints a token for a fixed user of the given role.
func (tc *TestContext) AuthenticateAs(role string) error {
	id, ok := roleIDs[role]
	if !ok {
		return fmt.Errorf("unknown role %q", role)
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": id,
		"name":    "e2e " + role,
		"email":   role + "@e2e.test",
		"role":    role,
		"sub":     strconv.FormatInt(id, 10),
		"iss":     "avd",
		"aud":     []string{"avd-api"},
		"iat":     now.Unix(),
		"exp":     now.Add(10 * time.Minute).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tc.signingKey)
	if err != nil {
		return err
	}
	tc.token = signed
	return nil
}

func (tc *TestContext) Anonymous() { tc.token = "" }

var placeholder = regexp.MustCompile(`\{([a-z_]+)\}`)

// Expand replaces {name} with a value saved earlier in the scenario.
func (tc *TestContext) Expand(s string) string {
	return placeholder.ReplaceAllStringFunc(s, func(m string) string {
		if v, ok := tc.saved[m[1:len(m)-1]]; ok {
			return v
		}
		return m
	})
}

func (tc *TestContext) Save(name, value string) { tc.saved[name] = value }

// Request sends a JSON request and records the response.
func (tc *TestContext) Request(method, path string, body []byte) error {
	req, err := http.NewRequestWithContext(context.Background(), method, tc.baseURL+tc.Expand(path), bytes.NewReader(body))
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tc.token != "" {
		req.Header.Set("Authorization", "Bearer "+tc.token)
	}
	req.Header.Set("X-Forwarded-For", tc.clientIP)

	resp, err := tc.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	tc.lastBody, err = io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	tc.lastStatus = resp.StatusCode
	tc.lastHeaders = resp.Header
	return nil
}

func (tc *TestContext) LastStatus() int           { return tc.lastStatus }
func (tc *TestContext) LastBody() []byte          { return tc.lastBody }
func (tc *TestContext) LastHeader(h string) string { return tc.lastHeaders.Get(h) }

// Field reads a top-level or dotted field ("entries.0.action") from the last body.
func (tc *TestContext) Field(path string) (any, error) {
	var doc any
	if err := json.Unmarshal(tc.lastBody, &doc); err != nil {
		return nil, fmt.Errorf("response is not JSON: %w", err)
	}
	return lookup(doc, path)
}
