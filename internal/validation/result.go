package validation

import dErrors "avd/pkg/domain-errors"

// Result is the outcome of one validation pass. Errors keeps rule order.
type Result struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

func ok() Result { return Result{Valid: true, Errors: []string{}} }

// collector accumulates violated rules.
type collector struct {
	errs []string
}

func (c *collector) check(passed bool, msg string) {
	if !passed {
		c.errs = append(c.errs, msg)
	}
}

func (c *collector) result() Result {
	if len(c.errs) == 0 {
		return ok()
	}
	return Result{Valid: false, Errors: c.errs}
}

// Err converts a failing result into a validation error carrying every message.
// A passing result yields nil.
func (r Result) Err() error {
	if r.Valid {
		return nil
	}
	return dErrors.Validation("validation failed", r.Errors)
}

// Assert is the call-site helper: it returns the validation error for a
// failing result and nil otherwise.
func Assert(r Result) error {
	return r.Err()
}
