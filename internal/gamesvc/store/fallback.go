package store

import (
	"context"
	"errors"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/skygames/skyjack-services/internal/gamesvc/models"
)

// Router owns the dual-backend policy: every room lives in exactly one
// backend, decided where its creation succeeded. When the durable backend
// is unreachable at creation time the room is placed in the fallback and
// stays there for its whole lifetime; backends are never mixed for one room.
type Router struct {
	primary  Store // nil when the durable backend never came up
	fallback Store
	owners   sync.Map // room code -> Store
}

func NewRouter(primary, fallback Store) *Router {
	return &Router{primary: primary, fallback: fallback}
}

// Create makes the room in the primary backend, falling back to the
// in-memory store when the primary is unreachable. A duplicate code is a
// real answer, not an outage, and is returned as-is.
func (r *Router) Create(ctx context.Context, code string) (*models.Room, Store, error) {
	if r.primary != nil {
		room, err := r.primary.CreateRoom(ctx, code)
		if err == nil {
			r.owners.Store(code, r.primary)
			return room, r.primary, nil
		}
		if errors.Is(err, ErrDuplicate) {
			return nil, nil, err
		}
		log.Warnf("primary store unavailable for room create, using fallback: %v", err)
	}

	room, err := r.fallback.CreateRoom(ctx, code)
	if err != nil {
		return nil, nil, err
	}
	r.owners.Store(code, r.fallback)
	return room, r.fallback, nil
}

// Lookup resolves the backend a room lives in and returns the room from it.
// Unpinned codes (first touch after a restart) probe primary then fallback.
func (r *Router) Lookup(ctx context.Context, code string) (*models.Room, Store, error) {
	if st, ok := r.owners.Load(code); ok {
		backend := st.(Store)
		room, err := backend.GetRoomByCode(ctx, code)
		if err != nil {
			return nil, nil, err
		}
		return room, backend, nil
	}

	if r.primary != nil {
		room, err := r.primary.GetRoomByCode(ctx, code)
		if err == nil {
			r.owners.Store(code, r.primary)
			return room, r.primary, nil
		}
		if !errors.Is(err, ErrNotFound) {
			log.Warnf("primary store lookup failed for room %s, trying fallback: %v", code, err)
		}
	}

	room, err := r.fallback.GetRoomByCode(ctx, code)
	if err != nil {
		return nil, nil, err
	}
	r.owners.Store(code, r.fallback)
	return room, r.fallback, nil
}

// Forget drops the backend pin, used after a room delete.
func (r *Router) Forget(code string) {
	r.owners.Delete(code)
}
