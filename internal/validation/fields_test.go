package validation

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	valid := []string{"ana@example.com", "a.b+c@sub.domain.org", "x@y.z"}
	for _, s := range valid {
		assert.True(t, ValidateEmail(s), s)
	}
	invalid := []string{"", "ana", "ana@", "@example.com", "ana@example", "ana example@x.com", "ana@@x.com"}
	for _, s := range invalid {
		assert.False(t, ValidateEmail(s), s)
	}
}

func TestValidateNationalTaxID(t *testing.T) {
	t.Run("formatting does not matter", func(t *testing.T) {
		assert.Equal(t, ValidateNationalTaxID("12345678909"), ValidateNationalTaxID("123.456.789-09"))
		assert.True(t, ValidateNationalTaxID("123.456.789-09"))
		assert.True(t, ValidateNationalTaxID("529.982.247-25"))
	})

	t.Run("repeated digits are always invalid", func(t *testing.T) {
		for d := '0'; d <= '9'; d++ {
			assert.False(t, ValidateNationalTaxID(strings.Repeat(string(d), 11)))
		}
	})

	t.Run("wrong check digits", func(t *testing.T) {
		assert.False(t, ValidateNationalTaxID("123.456.789-00"))
		assert.False(t, ValidateNationalTaxID("529.982.247-52"))
	})

	t.Run("wrong length", func(t *testing.T) {
		assert.False(t, ValidateNationalTaxID("1234567890"))
		assert.False(t, ValidateNationalTaxID("123456789090"))
		assert.False(t, ValidateNationalTaxID(""))
	})
}

func TestValidatePhone(t *testing.T) {
	assert.True(t, ValidatePhone("(11) 98765-4321"))
	assert.True(t, ValidatePhone("1133334444"))
	assert.False(t, ValidatePhone("98765-4321"))
	assert.False(t, ValidatePhone("+55 (11) 98765-4321"))
}

func TestValidatePastDateAt(t *testing.T) {
	now := time.Date(2024, 6, 10, 9, 30, 0, 0, time.UTC)

	assert.True(t, ValidatePastDateAt(time.Date(2024, 6, 9, 0, 0, 0, 0, time.UTC), now))
	assert.True(t, ValidatePastDateAt(time.Date(2024, 6, 10, 23, 59, 0, 0, time.UTC), now), "later today still counts as today")
	assert.False(t, ValidatePastDateAt(time.Date(2024, 6, 11, 0, 0, 0, 0, time.UTC), now))
}

func TestValidateDateRange(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.True(t, ValidateDateRange(start, start.Add(time.Hour)))
	assert.False(t, ValidateDateRange(start, start))
	assert.False(t, ValidateDateRange(start, start.Add(-time.Hour)))
}
