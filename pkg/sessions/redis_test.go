package sessions_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/fortress-build/identity/pkg/sessions"
)

func newRedisStore(t *testing.T, opts ...sessions.RedisOption) (*sessions.RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return sessions.NewRedisStore(client, opts...), mr
}

func TestRedisStore_LoadSave(t *testing.T) {
	t.Parallel()

	t.Run("returns ErrNotFound for unknown token", func(t *testing.T) {
		t.Parallel()

		store, _ := newRedisStore(t)

		_, err := store.Load(context.Background(), "missing")
		require.ErrorIs(t, err, sessions.ErrNotFound)
	})

	t.Run("round-trips a record", func(t *testing.T) {
		t.Parallel()

		store, _ := newRedisStore(t)

		ctx := context.Background()
		rec := &sessions.Record{ID: "sid", Data: map[string]string{"k": "v"}}
		require.NoError(t, store.Save(ctx, "tok", rec, time.Minute))

		got, err := store.Load(ctx, "tok")
		require.NoError(t, err)
		require.Equal(t, "sid", got.ID)
		require.Equal(t, "v", got.Data["k"])
	})

	t.Run("expires with the TTL", func(t *testing.T) {
		t.Parallel()

		store, mr := newRedisStore(t)

		ctx := context.Background()
		rec := &sessions.Record{ID: "sid", Data: map[string]string{}}
		require.NoError(t, store.Save(ctx, "tok", rec, time.Minute))

		mr.FastForward(2 * time.Minute)

		_, err := store.Load(ctx, "tok")
		require.ErrorIs(t, err, sessions.ErrNotFound)
	})

	t.Run("namespaces keys with the prefix", func(t *testing.T) {
		t.Parallel()

		store, mr := newRedisStore(t, sessions.WithPrefix("app:sess"))

		ctx := context.Background()
		rec := &sessions.Record{ID: "sid", Data: map[string]string{}}
		require.NoError(t, store.Save(ctx, "tok", rec, time.Minute))

		require.True(t, mr.Exists("app:sess:tok"))
	})
}

func TestRedisStore_Delete(t *testing.T) {
	t.Parallel()

	store, _ := newRedisStore(t)

	ctx := context.Background()
	rec := &sessions.Record{ID: "sid", Data: map[string]string{}}
	require.NoError(t, store.Save(ctx, "tok", rec, time.Minute))

	require.NoError(t, store.Delete(ctx, "tok"))
	_, err := store.Load(ctx, "tok")
	require.ErrorIs(t, err, sessions.ErrNotFound)

	// Idempotent.
	require.NoError(t, store.Delete(ctx, "tok"))
}
