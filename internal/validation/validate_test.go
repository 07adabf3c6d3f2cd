package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	t.Run("employee from loose fields", func(t *testing.T) {
		r := Validate(EntityEmployee, map[string]any{
			"name":       "Bruno Lima",
			"email":      "bruno@example.com",
			"tax_id":     "123.456.789-09",
			"birth_date": "1985-02-20",
			"hire_date":  "2010-05-03T00:00:00Z",
		})
		assert.True(t, r.Valid, r.Errors)
	})

	t.Run("decoding errors come first", func(t *testing.T) {
		r := Validate(EntityEmployee, map[string]any{
			"name":       42,
			"email":      "bruno@example.com",
			"birth_date": "20/02/1985",
			"hire_date":  "2010-05-03",
		})
		assert.False(t, r.Valid)
		assert.Equal(t, "name must be a string", r.Errors[0])
		assert.Equal(t, "birth_date must be a date (YYYY-MM-DD)", r.Errors[1])
	})

	t.Run("malformed date is reported once", func(t *testing.T) {
		r := Validate(EntityEmployee, map[string]any{
			"name":       "Bruno Lima",
			"email":      "bruno@example.com",
			"birth_date": "20/02/1985",
		})
		assert.Equal(t, []string{
			"birth_date must be a date (YYYY-MM-DD)",
			"hire date is required",
		}, r.Errors)
	})

	t.Run("cycle with a malformed date", func(t *testing.T) {
		r := Validate(EntityEvaluationCycle, map[string]any{
			"name":       "H1",
			"start_date": "2024-01-01",
			"end_date":   "soon",
		})
		assert.Equal(t, []string{"end_date must be a date (YYYY-MM-DD)"}, r.Errors)

		r = Validate(EntityEvaluationCycle, map[string]any{
			"name":       "H1",
			"start_date": "soon",
		})
		assert.Equal(t, []string{
			"start_date must be a date (YYYY-MM-DD)",
			"start and end dates are required",
		}, r.Errors, "a missing end date is still reported")
	})

	t.Run("cycle", func(t *testing.T) {
		r := Validate(EntityEvaluationCycle, map[string]any{
			"name":       "H1",
			"start_date": "2024-01-01",
			"end_date":   "2024-01-05",
		})
		assert.Equal(t, []string{"cycle must be at least 7 days long"}, r.Errors)
	})

	t.Run("unknown kind", func(t *testing.T) {
		r := Validate("payroll", nil)
		assert.False(t, r.Valid)
		assert.Equal(t, []string{"unknown entity kind"}, r.Errors)
	})
}
