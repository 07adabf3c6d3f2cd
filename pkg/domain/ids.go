package domain

import (
	"strconv"
	"strings"

	dErrors "avd/pkg/domain-errors"
)

// Numeric identifiers assigned by the persistence layer. Distinct types keep
// an employee id from being passed where a cycle id is expected.
type (
	UserID       int64
	EmployeeID   int64
	CycleID      int64
	EvaluationID int64
)

func (id UserID) IsZero() bool       { return id == 0 }
func (id EmployeeID) IsZero() bool   { return id == 0 }
func (id CycleID) IsZero() bool      { return id == 0 }
func (id EvaluationID) IsZero() bool { return id == 0 }

func (id UserID) String() string       { return strconv.FormatInt(int64(id), 10) }
func (id EmployeeID) String() string   { return strconv.FormatInt(int64(id), 10) }
func (id CycleID) String() string      { return strconv.FormatInt(int64(id), 10) }
func (id EvaluationID) String() string { return strconv.FormatInt(int64(id), 10) }

// ParseUserID parses a positive user id.
func ParseUserID(s string) (UserID, error) {
	n, err := parsePositive(s, "user id")
	return UserID(n), err
}

// ParseEmployeeID parses a positive employee id.
func ParseEmployeeID(s string) (EmployeeID, error) {
	n, err := parsePositive(s, "employee id")
	return EmployeeID(n), err
}

// ParseCycleID parses a positive cycle id.
func ParseCycleID(s string) (CycleID, error) {
	n, err := parsePositive(s, "cycle id")
	return CycleID(n), err
}

// ParseEvaluationID parses a positive evaluation id.
func ParseEvaluationID(s string) (EvaluationID, error) {
	n, err := parsePositive(s, "evaluation id")
	return EvaluationID(n), err
}

func parsePositive(s, what string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, dErrors.New(dErrors.CodeInvalidInput, what+" cannot be empty")
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid "+what)
	}
	if n <= 0 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, what+" must be positive")
	}
	return n, nil
}
