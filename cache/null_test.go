package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNullBinAlwaysMisses(t *testing.T) {
	ctx := context.Background()
	bin := NewNull()

	assert.NoError(t, bin.Set(ctx, "key", "value", Permanent))
	item, found := bin.Get(ctx, nil, "key")
	assert.False(t, found)
	assert.Nil(t, item)

	found2, missing := bin.GetMulti(ctx, NewSession(), []string{"a", "b"})
	assert.Empty(t, found2)
	assert.Equal(t, []string{"a", "b"}, missing)
}

func TestNullBinDiscardsEverything(t *testing.T) {
	ctx := context.Background()
	bin := NewNull()

	assert.NoError(t, bin.Set(ctx, "key", make(chan int), Temporary))
	assert.NoError(t, bin.Delete(ctx, "key"))
	assert.NoError(t, bin.DeleteMulti(ctx, []string{"a", "b"}))
	assert.NoError(t, bin.DeletePrefix(ctx, "pre"))
	assert.NoError(t, bin.Flush(ctx))
	assert.NoError(t, bin.Expire(ctx, NewSession()))
	bin.GarbageCollect(ctx)
	assert.True(t, bin.IsEmpty(ctx))
}
