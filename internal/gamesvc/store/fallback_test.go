package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skygames/skyjack-services/internal/gamesvc/models"
	"github.com/skygames/skyjack-services/internal/gamesvc/store"
	"github.com/skygames/skyjack-services/internal/gamesvc/store/mem"
)

var errDown = errors.New("connection refused")

// downStore mimics an unreachable durable backend.
type downStore struct{ store.Store }

func (downStore) CreateRoom(ctx context.Context, code string) (*models.Room, error) {
	return nil, errDown
}

func (downStore) GetRoomByCode(ctx context.Context, code string) (*models.Room, error) {
	return nil, errDown
}

func TestRouterWithoutPrimary(t *testing.T) {
	fallback := mem.New()
	r := store.NewRouter(nil, fallback)
	ctx := context.Background()

	room, backend, err := r.Create(ctx, "AAAAAA")
	require.NoError(t, err)
	assert.Equal(t, "AAAAAA", room.Code)
	assert.Equal(t, store.Store(fallback), backend)

	got, backend, err := r.Lookup(ctx, "AAAAAA")
	require.NoError(t, err)
	assert.Equal(t, room.ID, got.ID)
	assert.Equal(t, store.Store(fallback), backend)
}

func TestRouterFallsBackWhenPrimaryIsDown(t *testing.T) {
	fallback := mem.New()
	r := store.NewRouter(downStore{}, fallback)
	ctx := context.Background()

	room, backend, err := r.Create(ctx, "BBBBBB")
	require.NoError(t, err)
	assert.Equal(t, store.Store(fallback), backend, "room placed in the fallback")

	// every later touch resolves to the same backend
	_, backend, err = r.Lookup(ctx, room.Code)
	require.NoError(t, err)
	assert.Equal(t, store.Store(fallback), backend)
}

func TestRouterPrimaryWins(t *testing.T) {
	primary := mem.New()
	fallback := mem.New()
	r := store.NewRouter(primary, fallback)
	ctx := context.Background()

	_, backend, err := r.Create(ctx, "CCCCCC")
	require.NoError(t, err)
	assert.Equal(t, store.Store(primary), backend)

	_, err = fallback.GetRoomByCode(ctx, "CCCCCC")
	assert.ErrorIs(t, err, store.ErrNotFound, "fallback never sees the room")
}

func TestRouterDuplicateCodeIsNotAnOutage(t *testing.T) {
	primary := mem.New()
	r := store.NewRouter(primary, mem.New())
	ctx := context.Background()

	_, _, err := r.Create(ctx, "DDDDDD")
	require.NoError(t, err)

	_, _, err = r.Create(ctx, "DDDDDD")
	assert.ErrorIs(t, err, store.ErrDuplicate, "a taken code must not fall back")
}

func TestRouterForget(t *testing.T) {
	fallback := mem.New()
	r := store.NewRouter(downStore{}, fallback)
	ctx := context.Background()

	room, _, err := r.Create(ctx, "EEEEEE")
	require.NoError(t, err)
	require.NoError(t, fallback.DeleteRoom(ctx, room.ID))
	r.Forget(room.Code)

	_, _, err = r.Lookup(ctx, room.Code)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
