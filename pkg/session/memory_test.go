package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_SaveAndGet(t *testing.T) {
	store := NewMemoryStore(10, time.Hour)
	ctx := context.Background()

	sess := testSession("abc")
	require.NoError(t, store.Save(ctx, sess, time.Hour))

	got, err := store.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "user-123", got.Subject)
	assert.Equal(t, []string{"admins", "devs"}, got.Groups)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	store := NewMemoryStore(10, time.Hour)
	ctx := context.Background()

	sess := testSession("abc")
	require.NoError(t, store.Save(ctx, sess, time.Hour))
	sess.Groups[0] = "mutated"

	got, err := store.Get(ctx, "abc")
	require.NoError(t, err)
	got.Groups[1] = "mutated"

	again, err := store.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, []string{"admins", "devs"}, again.Groups)
}

func TestMemoryStore_GetMissing(t *testing.T) {
	store := NewMemoryStore(10, time.Hour)

	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_PerSessionTTL(t *testing.T) {
	store := NewMemoryStore(10, time.Hour)
	now := time.Now()
	store.now = func() time.Time { return now }
	ctx := context.Background()

	sess := testSession("abc")
	sess.ExpiresAt = time.Time{}
	require.NoError(t, store.Save(ctx, sess, time.Minute))

	_, err := store.Get(ctx, "abc")
	require.NoError(t, err)

	store.now = func() time.Time { return now.Add(2 * time.Minute) }
	_, err = store.Get(ctx, "abc")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, store.Len())
}

func TestMemoryStore_Eviction(t *testing.T) {
	store := NewMemoryStore(2, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testSession("a"), time.Hour))
	require.NoError(t, store.Save(ctx, testSession("b"), time.Hour))
	require.NoError(t, store.Save(ctx, testSession("c"), time.Hour))

	_, err := store.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 2, store.Len())
}

func TestMemoryStore_Delete(t *testing.T) {
	store := NewMemoryStore(10, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testSession("abc"), time.Hour))
	require.NoError(t, store.Delete(ctx, "abc"))
	assert.NoError(t, store.Delete(ctx, "abc"))

	_, err := store.Get(ctx, "abc")
	assert.ErrorIs(t, err, ErrNotFound)
}
