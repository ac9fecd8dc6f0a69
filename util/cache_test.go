// util/cache_test.go
package util_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/pbirs-tools/admin-api/util"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()

	t.Run("set then get", func(t *testing.T) {
		cache := util.NewMemoryCache()
		cache.Set(ctx, "k", []byte("v"), time.Minute)

		value, ok := cache.Get(ctx, "k")
		assert.True(t, ok)
		assert.Equal(t, []byte("v"), value)
	})

	t.Run("missing key", func(t *testing.T) {
		cache := util.NewMemoryCache()
		_, ok := cache.Get(ctx, "absent")
		assert.False(t, ok)
	})

	t.Run("expired entry is a miss", func(t *testing.T) {
		cache := util.NewMemoryCache()
		cache.Set(ctx, "k", []byte("v"), 10*time.Millisecond)
		time.Sleep(25 * time.Millisecond)

		_, ok := cache.Get(ctx, "k")
		assert.False(t, ok)
	})

	t.Run("delete removes entry", func(t *testing.T) {
		cache := util.NewMemoryCache()
		cache.Set(ctx, "k", []byte("v"), time.Minute)
		cache.Delete(ctx, "k")

		_, ok := cache.Get(ctx, "k")
		assert.False(t, ok)
	})

	t.Run("overwrite refreshes value and deadline", func(t *testing.T) {
		cache := util.NewMemoryCache()
		cache.Set(ctx, "k", []byte("old"), 10*time.Millisecond)
		cache.Set(ctx, "k", []byte("new"), time.Minute)
		time.Sleep(25 * time.Millisecond)

		value, ok := cache.Get(ctx, "k")
		assert.True(t, ok)
		assert.Equal(t, []byte("new"), value)
	})
}
