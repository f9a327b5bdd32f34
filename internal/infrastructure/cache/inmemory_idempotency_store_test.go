package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestStore(t *testing.T) (*InMemoryIdempotencyStore, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)}
	s := NewInMemoryIdempotencyStore(time.Hour)
	s.now = clock.now
	t.Cleanup(func() { _ = s.Close() })
	return s, clock
}

func TestInMemoryIdempotencyStore_MarkProcessed(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()

	fresh, err := s.MarkProcessed(ctx, "gateway:order_1:pay_1", time.Minute)
	require.NoError(t, err)
	assert.True(t, fresh)

	fresh, err = s.MarkProcessed(ctx, "gateway:order_1:pay_1", time.Minute)
	require.NoError(t, err)
	assert.False(t, fresh, "replayed callback is detected")

	clock.advance(2 * time.Minute)
	fresh, err = s.MarkProcessed(ctx, "gateway:order_1:pay_1", time.Minute)
	require.NoError(t, err)
	assert.True(t, fresh, "expired key can be marked again")
}

func TestInMemoryIdempotencyStore_IsProcessed(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()

	ok, err := s.IsProcessed(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	_, _ = s.MarkProcessed(ctx, "k", time.Minute)
	ok, _ = s.IsProcessed(ctx, "k")
	assert.True(t, ok)

	clock.advance(time.Minute)
	ok, _ = s.IsProcessed(ctx, "k")
	assert.False(t, ok, "expiry is exclusive")
}

func TestInMemoryIdempotencyStore_Release(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, _ = s.MarkProcessed(ctx, "k", time.Hour)
	require.NoError(t, s.Release(ctx, "k"))

	fresh, err := s.MarkProcessed(ctx, "k", time.Hour)
	require.NoError(t, err)
	assert.True(t, fresh, "released key can be retried")
	assert.NoError(t, s.Release(ctx, "missing"))
}

func TestInMemoryIdempotencyStore_Sweep(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()

	_, _ = s.MarkProcessed(ctx, "short", time.Minute)
	_, _ = s.MarkProcessed(ctx, "long", time.Hour)
	clock.advance(10 * time.Minute)

	s.sweep()
	assert.Equal(t, 1, s.Len())
}

func TestInMemoryIdempotencyStore_CloseTwice(t *testing.T) {
	s := NewInMemoryIdempotencyStore(time.Millisecond)
	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())
}
