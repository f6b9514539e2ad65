package sessions_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fortress-build/identity/pkg/sessions"
)

func TestMemory_LoadSave(t *testing.T) {
	t.Parallel()

	t.Run("returns ErrNotFound for unknown token", func(t *testing.T) {
		t.Parallel()

		store := sessions.NewMemory()
		defer store.Close()

		_, err := store.Load(context.Background(), "missing")
		require.ErrorIs(t, err, sessions.ErrNotFound)
	})

	t.Run("round-trips a record", func(t *testing.T) {
		t.Parallel()

		store := sessions.NewMemory()
		defer store.Close()

		ctx := context.Background()
		rec := &sessions.Record{ID: "sid", Data: map[string]string{"k": "v"}}
		require.NoError(t, store.Save(ctx, "tok", rec, time.Minute))

		got, err := store.Load(ctx, "tok")
		require.NoError(t, err)
		require.Equal(t, "sid", got.ID)
		require.Equal(t, "v", got.Data["k"])
	})

	t.Run("returns ErrNotFound after TTL elapses", func(t *testing.T) {
		t.Parallel()

		store := sessions.NewMemory(sessions.WithCleanupInterval(0))
		defer store.Close()

		ctx := context.Background()
		rec := &sessions.Record{ID: "sid", Data: map[string]string{}}
		require.NoError(t, store.Save(ctx, "tok", rec, time.Millisecond))

		time.Sleep(5 * time.Millisecond)

		_, err := store.Load(ctx, "tok")
		require.ErrorIs(t, err, sessions.ErrNotFound)
	})

	t.Run("copies data on save and load", func(t *testing.T) {
		t.Parallel()

		store := sessions.NewMemory()
		defer store.Close()

		ctx := context.Background()
		data := map[string]string{"k": "v"}
		rec := &sessions.Record{ID: "sid", Data: data}
		require.NoError(t, store.Save(ctx, "tok", rec, time.Minute))

		data["k"] = "mutated"

		got, err := store.Load(ctx, "tok")
		require.NoError(t, err)
		require.Equal(t, "v", got.Data["k"])
	})
}

func TestMemory_Delete(t *testing.T) {
	t.Parallel()

	store := sessions.NewMemory()
	defer store.Close()

	ctx := context.Background()
	rec := &sessions.Record{ID: "sid", Data: map[string]string{}}
	require.NoError(t, store.Save(ctx, "tok", rec, time.Minute))

	require.NoError(t, store.Delete(ctx, "tok"))
	_, err := store.Load(ctx, "tok")
	require.ErrorIs(t, err, sessions.ErrNotFound)

	// Deleting an unknown token is not an error.
	require.NoError(t, store.Delete(ctx, "tok"))
}

func TestMemory_Close(t *testing.T) {
	t.Parallel()

	store := sessions.NewMemory()
	require.NoError(t, store.Close())
	require.NoError(t, store.Close()) // idempotent

	rec := &sessions.Record{ID: "sid", Data: map[string]string{}}
	err := store.Save(context.Background(), "tok", rec, time.Minute)
	require.ErrorIs(t, err, sessions.ErrClosed)
}
