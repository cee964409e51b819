package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertIsIdempotent(t *testing.T) {
	r := New()
	ctx := context.Background()

	require.NoError(t, r.Upsert(ctx, "100"))
	require.NoError(t, r.Upsert(ctx, "200"))
	require.NoError(t, r.Upsert(ctx, "100"))

	ids, err := r.ListAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"100", "200"}, ids)
}

func TestListAllReturnsSnapshot(t *testing.T) {
	r := New()
	ctx := context.Background()
	_ = r.Upsert(ctx, "1")

	snap, _ := r.ListAll(ctx)
	_ = r.Upsert(ctx, "2")

	assert.Equal(t, []string{"1"}, snap)
}
