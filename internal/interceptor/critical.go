package interceptor

import "strings"

// CriticalOperations are the lifecycle-sensitive writes that get the extra
// two-sided audit record.
var CriticalOperations = []string{
	"process.start",
	"process.complete",
	"process.delete",
	"employees.create",
	"employees.update",
	"employees.delete",
	"cycles.create",
	"cycles.update",
	"cycles.delete",
	"evaluations.create",
	"evaluations.update",
	"evaluations.approve",
}

// verbOf returns the last dotted segment of an operation name.
func verbOf(op string) string {
	if i := strings.LastIndexByte(op, '.'); i >= 0 {
		return op[i+1:]
	}
	return op
}
