package validation

import (
	"strings"
	"time"
	"unicode/utf8"
)

const (
	minNameLength    = 3
	minAgeAtHire     = 14
	minCycleLength   = 7 * 24 * time.Hour
	msgCycleTooShort = "cycle must be at least 7 days long"
)

// EmployeeCandidate is the field set checked before an employee is written.
// Empty TaxID and Phone mean "not provided".
type EmployeeCandidate struct {
	Name      string
	Email     string
	TaxID     string
	Phone     string
	BirthDate time.Time
	HireDate  time.Time
}

// CycleCandidate is the field set checked before an evaluation cycle is written.
type CycleCandidate struct {
	Name      string
	StartDate time.Time
	EndDate   time.Time
}

// ValidateEmployeeData checks every employee rule and reports all violations.
func ValidateEmployeeData(c EmployeeCandidate) Result {
	return validateEmployeeAt(c, time.Now())
}

func validateEmployeeAt(c EmployeeCandidate, now time.Time) Result {
	var v collector
	v.check(utf8.RuneCountInString(strings.TrimSpace(c.Name)) >= minNameLength,
		"name must be at least 3 characters")
	v.check(ValidateEmail(c.Email), "invalid email")
	if !isBlank(c.TaxID) {
		v.check(ValidateNationalTaxID(c.TaxID), "invalid tax id")
	}
	if !isBlank(c.Phone) {
		v.check(ValidatePhone(c.Phone), "invalid phone")
	}

	birthKnown := !c.BirthDate.IsZero()
	hireKnown := !c.HireDate.IsZero()
	v.check(birthKnown, "birth date is required")
	v.check(hireKnown, "hire date is required")
	if birthKnown {
		v.check(ValidatePastDateAt(c.BirthDate, now), "birth date must be in the past")
	}
	if hireKnown {
		v.check(ValidatePastDateAt(c.HireDate, now), "hire date must be in the past")
	}
	if birthKnown && hireKnown {
		v.check(AgeAt(c.BirthDate, c.HireDate) >= minAgeAtHire,
			"employee must be at least 14 years old at hire date")
	}
	return v.result()
}

// ValidateEvaluationCycleData checks an evaluation cycle's name and period.
func ValidateEvaluationCycleData(c CycleCandidate) Result {
	var v collector
	v.check(!isBlank(c.Name), "cycle name is required")
	if c.StartDate.IsZero() || c.EndDate.IsZero() {
		v.check(false, "start and end dates are required")
		return v.result()
	}
	if !ValidateDateRange(c.StartDate, c.EndDate) {
		v.check(false, "end date must be after start date")
		return v.result()
	}
	v.check(c.EndDate.Sub(c.StartDate) >= minCycleLength, msgCycleTooShort)
	return v.result()
}

// AgeAt returns completed years between birth and at.
func AgeAt(birth, at time.Time) int {
	age := at.Year() - birth.Year()
	if at.Month() < birth.Month() || (at.Month() == birth.Month() && at.Day() < birth.Day()) {
		age--
	}
	return age
}
