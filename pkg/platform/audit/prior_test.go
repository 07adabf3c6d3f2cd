package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPriorState(t *testing.T) {
	t.Run("recorded value is returned", func(t *testing.T) {
		ctx := WithPriorState(context.Background())
		_, ok := PriorState(ctx)
		assert.False(t, ok)

		RecordPrior(ctx, map[string]string{"name": "old"})
		v, ok := PriorState(ctx)
		assert.True(t, ok)
		assert.Equal(t, map[string]string{"name": "old"}, v)
	})

	t.Run("unprepared context ignores records", func(t *testing.T) {
		ctx := context.Background()
		RecordPrior(ctx, "ignored")
		_, ok := PriorState(ctx)
		assert.False(t, ok)
	})
}
