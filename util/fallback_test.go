// util/fallback_test.go
package util_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pbirs-tools/admin-api/util"
)

func succeed(v string) util.Attempt[string] {
	return func(ctx context.Context) (*string, error) { return &v, nil }
}

func fail(err error) util.Attempt[string] {
	return func(ctx context.Context) (*string, error) { return nil, err }
}

func empty() util.Attempt[string] {
	return func(ctx context.Context) (*string, error) { return nil, nil }
}

func TestTryInOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("first success wins", func(t *testing.T) {
		called := false
		result, err := util.TryInOrder(ctx, []util.Attempt[string]{
			succeed("first"),
			func(ctx context.Context) (*string, error) {
				called = true
				return nil, nil
			},
		})
		assert.NoError(t, err)
		assert.Equal(t, "first", *result)
		assert.False(t, called, "later attempts must not run after a success")
	})

	t.Run("failures are skipped", func(t *testing.T) {
		result, err := util.TryInOrder(ctx, []util.Attempt[string]{
			fail(errors.New("boom")),
			empty(),
			succeed("third"),
		})
		assert.NoError(t, err)
		assert.Equal(t, "third", *result)
	})

	t.Run("all failed returns last error", func(t *testing.T) {
		last := errors.New("last")
		result, err := util.TryInOrder(ctx, []util.Attempt[string]{
			fail(errors.New("first")),
			fail(last),
		})
		assert.Nil(t, result)
		assert.Equal(t, last, err)
	})

	t.Run("all empty returns nothing", func(t *testing.T) {
		result, err := util.TryInOrder(ctx, []util.Attempt[string]{empty(), empty()})
		assert.Nil(t, result)
		assert.NoError(t, err)
	})

	t.Run("no attempts returns nothing", func(t *testing.T) {
		result, err := util.TryInOrder[string](ctx, nil)
		assert.Nil(t, result)
		assert.NoError(t, err)
	})
}

func TestTryWrites(t *testing.T) {
	ctx := context.Background()

	t.Run("stops at first success", func(t *testing.T) {
		calls := 0
		err := util.TryWrites(ctx, []util.WriteAttempt{
			func(ctx context.Context) error { calls++; return errors.New("nope") },
			func(ctx context.Context) error { calls++; return nil },
			func(ctx context.Context) error { calls++; return nil },
		})
		assert.NoError(t, err)
		assert.Equal(t, 2, calls)
	})

	t.Run("exhaustion is terminal with last error", func(t *testing.T) {
		last := errors.New("last write failure")
		err := util.TryWrites(ctx, []util.WriteAttempt{
			func(ctx context.Context) error { return errors.New("first") },
			func(ctx context.Context) error { return last },
		})
		assert.Equal(t, last, err)
	})

	t.Run("empty attempt list is an error", func(t *testing.T) {
		assert.Error(t, util.TryWrites(ctx, nil))
	})
}
