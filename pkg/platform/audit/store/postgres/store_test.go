package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	audit "avd/pkg/platform/audit"
)

func TestBuildWhere(t *testing.T) {
	t.Run("empty filter has no clause", func(t *testing.T) {
		where, args := buildWhere(audit.Filter{})
		assert.Empty(t, where)
		assert.Empty(t, args)
	})

	t.Run("placeholders are numbered in order", func(t *testing.T) {
		ok := true
		where, args := buildWhere(audit.Filter{
			ActorID:  4,
			Actions:  []string{"employees.create", "employees.update"},
			Resource: "employees",
			Success:  &ok,
			From:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		})
		assert.Equal(t,
			"WHERE actor_id = $1 AND action = ANY($2) AND resource = $3 AND success = $4 AND created_at >= $5",
			where)
		assert.Len(t, args, 5)
	})
}

func TestNullableJSON(t *testing.T) {
	assert.Nil(t, nullableJSON(nil))
	assert.Equal(t, `{"a":1}`, nullableJSON([]byte(`{"a":1}`)))
}
