package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "avd/pkg/domain-errors"
)

// IDs must be positive integers at trust boundaries.
func TestParseID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseEmployeeID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects non numeric", func(t *testing.T) {
		_, err := ParseCycleID("abc")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects zero and negatives", func(t *testing.T) {
		_, err := ParseUserID("0")
		require.Error(t, err)
		_, err = ParseEvaluationID("-4")
		require.Error(t, err)
	})

	t.Run("accepts positive ids", func(t *testing.T) {
		id, err := ParseEmployeeID(" 42 ")
		require.NoError(t, err)
		assert.Equal(t, EmployeeID(42), id)
		assert.Equal(t, "42", id.String())
	})
}

func TestParseRole(t *testing.T) {
	for _, r := range AllRoles {
		parsed, err := ParseRole(string(r))
		require.NoError(t, err)
		assert.Equal(t, r, parsed)
	}

	r, err := ParseRole(" RH ")
	require.NoError(t, err)
	assert.Equal(t, RoleHR, r)

	_, err = ParseRole("superuser")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestActorIsAuthenticated(t *testing.T) {
	var nilActor *Actor
	assert.False(t, nilActor.IsAuthenticated())
	assert.False(t, (&Actor{Role: RoleAdmin}).IsAuthenticated())
	assert.False(t, (&Actor{ID: 1, Role: "ghost"}).IsAuthenticated())
	assert.True(t, (&Actor{ID: 1, Role: RoleContributor}).IsAuthenticated())
}
