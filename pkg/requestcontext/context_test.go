package requestcontext

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"avd/pkg/domain"
)

func TestActorIsCopied(t *testing.T) {
	actor := &domain.Actor{ID: 7, Role: domain.RoleHR}
	ctx := WithActor(context.Background(), actor)
	actor.Role = domain.RoleAdmin

	got := Actor(ctx)
	require.NotNil(t, got)
	assert.Equal(t, domain.RoleHR, got.Role)
}

func TestMissingValuesFallBack(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, Actor(ctx))
	assert.Empty(t, ClientIP(ctx))
	assert.Empty(t, RequestID(ctx))
	assert.WithinDuration(t, time.Now(), Now(ctx), time.Second)
}

func TestRequestScopedTime(t *testing.T) {
	fixed := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	ctx := WithTime(context.Background(), fixed)
	assert.Equal(t, fixed, Now(ctx))
}
