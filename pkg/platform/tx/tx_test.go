package tx

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScope(t *testing.T) {
	ctx := context.Background()
	assert.False(t, Active(ctx))

	assert.Equal(t, ctx, WithTx(ctx, nil), "nil tx leaves context untouched")

	scoped := WithScope(ctx)
	assert.True(t, Active(scoped))
	_, ok := From(scoped)
	assert.False(t, ok, "memory scope carries no sql transaction")

	sqlScoped := WithTx(ctx, &sql.Tx{})
	assert.True(t, Active(sqlScoped))
	got, ok := From(sqlScoped)
	assert.True(t, ok)
	assert.NotNil(t, got)
}
