package validation

import (
	"fmt"
	"strings"
	"time"
)

// EntityKind names a validatable entity.
type EntityKind string

const (
	EntityEmployee        EntityKind = "employee"
	EntityEvaluationCycle EntityKind = "evaluation_cycle"
)

// DateLayout is the wire format for date-only fields.
const DateLayout = "2006-01-02"

// Validate decodes a loose field map into the entity's candidate and runs
// its validator. Decoding problems are reported alongside rule violations.
func Validate(kind EntityKind, fields map[string]any) Result {
	d := decoder{fields: fields}
	switch kind {
	case EntityEmployee:
		c := EmployeeCandidate{
			Name:      d.str("name"),
			Email:     d.str("email"),
			TaxID:     d.str("tax_id"),
			Phone:     d.str("phone"),
			BirthDate: d.date("birth_date"),
			HireDate:  d.date("hire_date"),
		}
		return d.merge(ValidateEmployeeData(c), map[string][]string{
			"birth date is required": {"birth_date"},
			"hire date is required":  {"hire_date"},
		})
	case EntityEvaluationCycle:
		c := CycleCandidate{
			Name:      d.str("name"),
			StartDate: d.date("start_date"),
			EndDate:   d.date("end_date"),
		}
		return d.merge(ValidateEvaluationCycleData(c), map[string][]string{
			"start and end dates are required": {"start_date", "end_date"},
		})
	default:
		return Result{Valid: false, Errors: []string{"unknown entity kind"}}
	}
}

type decoder struct {
	fields map[string]any
	errs   []string
	// failed holds the keys whose values could not be decoded.
	failed map[string]bool
}

func (d *decoder) str(key string) string {
	v, ok := d.fields[key]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		d.errs = append(d.errs, key+" must be a string")
		return ""
	}
	return s
}

func (d *decoder) date(key string) time.Time {
	t, ok := d.parseDate(key)
	if !ok {
		d.errs = append(d.errs, fmt.Sprintf("%s must be a date (YYYY-MM-DD)", key))
		if d.failed == nil {
			d.failed = map[string]bool{}
		}
		d.failed[key] = true
	}
	return t
}

func (d *decoder) parseDate(key string) (time.Time, bool) {
	v, ok := d.fields[key]
	if !ok || v == nil {
		return time.Time{}, true
	}
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		if strings.TrimSpace(t) == "" {
			return time.Time{}, true
		}
		if parsed, err := ParseDate(t); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// merge puts decoding errors ahead of rule violations. A "required" message
// listed in required is dropped when every key it covers either failed to
// decode or holds a value, since the decoding error already names the field.
func (d *decoder) merge(r Result, required map[string][]string) Result {
	if len(d.errs) == 0 {
		return r
	}
	errs := append([]string(nil), d.errs...)
	for _, msg := range r.Errors {
		if keys, ok := required[msg]; ok && d.covered(keys) {
			continue
		}
		errs = append(errs, msg)
	}
	return Result{Valid: false, Errors: errs}
}

func (d *decoder) covered(keys []string) bool {
	anyFailed := false
	for _, key := range keys {
		if d.failed[key] {
			anyFailed = true
			continue
		}
		if v, ok := d.fields[key]; !ok || v == nil {
			return false
		}
		if s, ok := d.fields[key].(string); ok && strings.TrimSpace(s) == "" {
			return false
		}
	}
	return anyFailed
}

// ParseDate accepts YYYY-MM-DD or a full RFC 3339 timestamp.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
