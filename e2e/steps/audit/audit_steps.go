package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	AuthenticateAs(role string) error
	Request(method, path string, body []byte) error
	Expand(s string) string
	LastStatus() int
	LastBody() []byte
}

// RegisterSteps registers audit trail step definitions. Queries switch the
// scenario identity to admin.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &auditSteps{tc: tc}

	ctx.Step(`^an admin lists the audit trail for "([^"]*)" "([^"]*)"$`, steps.listFor)
	ctx.Step(`^the audit trail should contain (\d+) entr(?:y|ies)$`, steps.shouldContain)
	ctx.Step(`^audit entry (\d+) should have action "([^"]*)" and success "(true|false)"$`, steps.entryShouldBe)
	ctx.Step(`^audit entry (\d+) should record "([^"]*)" changing from "([^"]*)" to "([^"]*)"$`, steps.entryShouldRecordChange)
}

type entry struct {
	Action   string         `json:"action"`
	Success  bool           `json:"success"`
	OldValue map[string]any `json:"old_value"`
	NewValue map[string]any `json:"new_value"`
}

type auditSteps struct {
	tc      TestContext
	entries []entry
}

func (s *auditSteps) listFor(_ context.Context, resource, resourceID string) error {
	if err := s.tc.AuthenticateAs("admin"); err != nil {
		return err
	}
	q := url.Values{"resource": {resource}, "resource_id": {s.tc.Expand(resourceID)}}
	if err := s.tc.Request(http.MethodGet, "/admin/audit/?"+q.Encode(), nil); err != nil {
		return err
	}
	if s.tc.LastStatus() != http.StatusOK {
		return fmt.Errorf("audit query returned %d: %s", s.tc.LastStatus(), s.tc.LastBody())
	}
	var resp struct {
		Entries []entry `json:"entries"`
	}
	if err := json.Unmarshal(s.tc.LastBody(), &resp); err != nil {
		return err
	}
	s.entries = resp.Entries
	return nil
}

func (s *auditSteps) shouldContain(_ context.Context, n int) error {
	if len(s.entries) != n {
		return fmt.Errorf("expected %d audit entries, got %d", n, len(s.entries))
	}
	return nil
}

// entry numbers count from 1, newest first.
func (s *auditSteps) at(n int) (entry, error) {
	if n < 1 || n > len(s.entries) {
		return entry{}, fmt.Errorf("no audit entry %d (have %d)", n, len(s.entries))
	}
	return s.entries[n-1], nil
}

func (s *auditSteps) entryShouldBe(_ context.Context, n int, action, success string) error {
	e, err := s.at(n)
	if err != nil {
		return err
	}
	if e.Action != action || fmt.Sprint(e.Success) != success {
		return fmt.Errorf("entry %d: got %s success=%t", n, e.Action, e.Success)
	}
	return nil
}

func (s *auditSteps) entryShouldRecordChange(_ context.Context, n int, field, from, to string) error {
	e, err := s.at(n)
	if err != nil {
		return err
	}
	if got := fmt.Sprint(e.OldValue[field]); got != from {
		return fmt.Errorf("entry %d old %s: got %q", n, field, got)
	}
	if got := fmt.Sprint(e.NewValue[field]); got != to {
		return fmt.Errorf("entry %d new %s: got %q", n, field, got)
	}
	return nil
}
