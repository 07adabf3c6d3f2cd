// Package validation checks candidate business data before it is written.
//
// Field validators are pure and total: they never panic and never touch I/O.
// Entity validators compose them and accumulate every violated rule so the
// caller can show a complete correction list in one round trip.
package validation

import (
	"regexp"
	"time"
	"unicode"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateEmail reports whether s has the shape local@domain.tld.
func ValidateEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// ValidateNationalTaxID checks an 11-digit tax id (CPF) with its two
// mod-11 check digits. Formatting characters are ignored.
func ValidateNationalTaxID(s string) bool {
	digits := onlyDigits(s)
	if len(digits) != 11 || allSame(digits) {
		return false
	}
	return checkDigit(digits[:9], 10) == digits[9] &&
		checkDigit(digits[:10], 11) == digits[10]
}

// checkDigit computes one CPF check digit over prefix with weights
// descending from firstWeight to 2.
func checkDigit(prefix []int, firstWeight int) int {
	sum := 0
	for i, d := range prefix {
		sum += d * (firstWeight - i)
	}
	rem := sum % 11
	if rem < 2 {
		return 0
	}
	return 11 - rem
}

// ValidatePhone accepts 10 or 11 digits once formatting is stripped.
func ValidatePhone(s string) bool {
	n := len(onlyDigits(s))
	return n == 10 || n == 11
}

// ValidatePastDate reports whether d is today or earlier.
func ValidatePastDate(d time.Time) bool {
	return ValidatePastDateAt(d, time.Now())
}

// ValidatePastDateAt compares calendar dates only, in d's location, so any
// instant during today counts as not in the future.
func ValidatePastDateAt(d, now time.Time) bool {
	return !dateOf(d).After(dateOf(now.In(d.Location())))
}

// ValidateDateRange reports whether end is strictly after start.
func ValidateDateRange(start, end time.Time) bool {
	return end.After(start)
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func onlyDigits(s string) []int {
	out := make([]int, 0, len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			out = append(out, int(r-'0'))
		}
	}
	return out
}

func allSame(digits []int) bool {
	for _, d := range digits[1:] {
		if d != digits[0] {
			return false
		}
	}
	return true
}

// isBlank reports whether s has no visible characters.
func isBlank(s string) bool {
	for _, r := range s {
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}
