package room

import (
	"context"
	"errors"

	"github.com/streamsync/server/internal/domain"
)

var ErrRoomNotFound = errors.New("room not found")

// Store is the keyed collection of room aggregates injected into the
// room service. Implementations hand out copies; the service is the
// only writer for a given key at a time.
type Store interface {
	GetRoom(ctx context.Context, roomID string) (*domain.Room, error)
	SetRoom(ctx context.Context, roomID string, state *domain.Room) error
	RemoveRoom(ctx context.Context, roomID string) error
}
