package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"avd/pkg/domain"
	audit "avd/pkg/platform/audit"
	"avd/pkg/platform/sentinel"
)

func entry(action, resourceID string, success bool, ts time.Time) audit.Entry {
	e := audit.NewEntry(audit.NewContext(&domain.Actor{ID: 1, Role: domain.RoleHR}, action, resourceID), ts)
	e.Success = success
	return e
}

func TestListNewestFirstWithPagination(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range 5 {
		require.NoError(t, s.Append(ctx, entry("employees.update", fmt.Sprint(i), true, base.Add(time.Duration(i)*time.Minute))))
	}

	got, err := s.List(ctx, audit.Filter{Resource: "employees", Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "3", got[0].ResourceID)
	assert.Equal(t, "2", got[1].ResourceID)
}

func TestLatest(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	now := time.Now()

	_, err := s.Latest(ctx, "cycles", "")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	require.NoError(t, s.Append(ctx, entry("cycles.create", "1", true, now)))
	require.NoError(t, s.Append(ctx, entry("cycles.update", "1", false, now.Add(time.Second))))
	require.NoError(t, s.Append(ctx, entry("employees.create", "1", true, now.Add(2*time.Second))))

	latest, err := s.Latest(ctx, "cycles", "1")
	require.NoError(t, err)
	assert.Equal(t, "cycles.update", latest.Action)
	assert.False(t, latest.Success)
}
