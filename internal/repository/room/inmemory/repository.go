package inmemory

import (
	"context"
	"sync"

	"github.com/streamsync/server/internal/domain"
	"github.com/streamsync/server/internal/repository/room"
)

// repo keeps room aggregates in a plain map. Values are cloned on the
// way in and out so callers never share state with the store.
type repo struct {
	rooms map[string]*domain.Room
	mu    sync.RWMutex
}

func NewRepo() *repo {
	return &repo{rooms: make(map[string]*domain.Room)}
}

func (r *repo) GetRoom(_ context.Context, roomID string) (*domain.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.rooms[roomID]
	if !ok {
		return nil, room.ErrRoomNotFound
	}

	return stored.Clone(), nil
}

func (r *repo) SetRoom(_ context.Context, roomID string, state *domain.Room) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rooms[roomID] = state.Clone()

	return nil
}

func (r *repo) RemoveRoom(_ context.Context, roomID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[roomID]; !ok {
		return room.ErrRoomNotFound
	}

	delete(r.rooms, roomID)

	return nil
}
