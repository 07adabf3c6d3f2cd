package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	Request(method, path string, body []byte) error
	LastStatus() int
	LastHeader(h string) string
}

// RegisterSteps registers rate limiting step definitions.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &ratelimitSteps{tc: tc}

	ctx.Step(`^I keep sending (GET|POST) requests to "([^"]*)" until rate limited, at most (\d+) times$`, steps.floodUntilLimited)
	ctx.Step(`^at least (\d+) requests? should have been accepted before the limit$`, steps.acceptedBeforeLimit)
	ctx.Step(`^the Retry-After header should be a positive number of seconds$`, steps.retryAfterPositive)
}

type ratelimitSteps struct {
	tc       TestContext
	accepted int
}

func (s *ratelimitSteps) floodUntilLimited(_ context.Context, method, path string, max int) error {
	s.accepted = 0
	var body []byte
	if method == http.MethodPost {
		body = []byte(`{}`)
	}
	for range max {
		if err := s.tc.Request(method, path, body); err != nil {
			return err
		}
		if s.tc.LastStatus() == http.StatusTooManyRequests {
			return nil
		}
		s.accepted++
	}
	return fmt.Errorf("no 429 after %d requests", max)
}

func (s *ratelimitSteps) acceptedBeforeLimit(_ context.Context, n int) error {
	if s.accepted < n {
		return fmt.Errorf("limited after %d requests, expected at least %d", s.accepted, n)
	}
	return nil
}

func (s *ratelimitSteps) retryAfterPositive(_ context.Context) error {
	v, err := strconv.Atoi(s.tc.LastHeader("Retry-After"))
	if err != nil || v <= 0 {
		return fmt.Errorf("Retry-After %q is not a positive integer", s.tc.LastHeader("Retry-After"))
	}
	return nil
}
