package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"avd/pkg/domain"
)

func TestIdentity(t *testing.T) {
	assert.Equal(t, "user:7", Identity(&domain.Actor{ID: 7, Role: domain.RoleHR}, "10.0.0.1"))
	assert.Equal(t, "ip:10.0.0.1", Identity(nil, "10.0.0.1"))
	assert.Equal(t, "ip:__1", Identity(nil, "::1"), "delimiters in addresses are escaped")
	assert.Equal(t, "ip:unknown", Identity(&domain.Actor{}, ""))
}

func TestScoped(t *testing.T) {
	assert.Equal(t, "user:7:employees.import", Scoped("user:7", "employees.import"))
	assert.Equal(t, "user:7:a_b", Scoped("user:7", "a:b"))
}

func TestRetryAfterSeconds(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 30, RetryAfterSeconds(now.Add(30*time.Second), now))
	assert.Equal(t, 2, RetryAfterSeconds(now.Add(1500*time.Millisecond), now), "rounds up")
	assert.Equal(t, 1, RetryAfterSeconds(now, now), "never below one second")
}

func TestReject(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	d := Reject(10, now.Add(time.Minute), now)
	assert.False(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
	assert.Equal(t, 60, d.RetryAfter)
}
