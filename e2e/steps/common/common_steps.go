package common

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	AuthenticateAs(role string) error
	Anonymous()
	Request(method, path string, body []byte) error
	Save(name, value string)
	Expand(s string) string
	LastStatus() int
	LastBody() []byte
	LastHeader(h string) string
	Field(path string) (any, error)
}

// RegisterSteps registers identity, request and assertion steps shared by every feature.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	s := &commonSteps{tc: tc}

	ctx.Step(`^I am authenticated as "([^"]*)"$`, s.authenticatedAs)
	ctx.Step(`^I am not authenticated$`, s.notAuthenticated)

	ctx.Step(`^I send a (GET|POST|PUT|DELETE) request to "([^"]*)"$`, s.send)
	ctx.Step(`^I send a (POST|PUT) request to "([^"]*)" with body:$`, s.sendWithBody)

	ctx.Step(`^the response status should be (\d+)$`, s.statusShouldBe)
	ctx.Step(`^the response field "([^"]*)" should be "([^"]*)"$`, s.fieldShouldBe)
	ctx.Step(`^the error code should be "([^"]*)"$`, s.errorCodeShouldBe)
	ctx.Step(`^the error details should include "([^"]*)"$`, s.detailsShouldInclude)
	ctx.Step(`^the response header "([^"]*)" should be present$`, s.headerPresent)
	ctx.Step(`^I save the response field "([^"]*)" as "([^"]*)"$`, s.saveField)
}

type commonSteps struct {
	tc TestContext
}

func (s *commonSteps) authenticatedAs(_ context.Context, role string) error {
	return s.tc.AuthenticateAs(role)
}

func (s *commonSteps) notAuthenticated(_ context.Context) error {
	s.tc.Anonymous()
	return nil
}

func (s *commonSteps) send(_ context.Context, method, path string) error {
	return s.tc.Request(method, path, nil)
}

func (s *commonSteps) sendWithBody(_ context.Context, method, path string, body *godog.DocString) error {
	return s.tc.Request(method, path, []byte(s.tc.Expand(body.Content)))
}

func (s *commonSteps) statusShouldBe(_ context.Context, expected int) error {
	if got := s.tc.LastStatus(); got != expected {
		return fmt.Errorf("expected status %d, got %d: %s", expected, got, s.tc.LastBody())
	}
	return nil
}

func (s *commonSteps) fieldShouldBe(_ context.Context, field, expected string) error {
	v, err := s.tc.Field(field)
	if err != nil {
		return err
	}
	if got := stringify(v); got != s.tc.Expand(expected) {
		return fmt.Errorf("field %s: expected %q, got %q", field, expected, got)
	}
	return nil
}

func (s *commonSteps) errorCodeShouldBe(ctx context.Context, code string) error {
	return s.fieldShouldBe(ctx, "error", code)
}

func (s *commonSteps) detailsShouldInclude(_ context.Context, detail string) error {
	var body struct {
		Details []string `json:"details"`
	}
	if err := json.Unmarshal(s.tc.LastBody(), &body); err != nil {
		return err
	}
	for _, d := range body.Details {
		if d == detail {
			return nil
		}
	}
	return fmt.Errorf("details %s do not include %q", strings.Join(body.Details, "; "), detail)
}

func (s *commonSteps) headerPresent(_ context.Context, header string) error {
	if s.tc.LastHeader(header) == "" {
		return fmt.Errorf("header %s missing", header)
	}
	return nil
}

func (s *commonSteps) saveField(_ context.Context, field, name string) error {
	v, err := s.tc.Field(field)
	if err != nil {
		return err
	}
	s.tc.Save(name, stringify(v))
	return nil
}

// stringify renders a decoded JSON value the way feature files write it.
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}
