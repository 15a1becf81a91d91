package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/streamsync/server/internal/domain"
	"github.com/streamsync/server/internal/repository/room"
)

// repo stores each room aggregate as one JSON value with a TTL, so
// abandoned rooms expire even if no disconnect was ever observed.
type repo struct {
	rc  *redis.Client
	ttl time.Duration
}

func NewRepo(rc *redis.Client, ttl time.Duration) *repo {
	return &repo{rc: rc, ttl: ttl}
}

func (r *repo) roomKey(roomID string) string {
	return "room:" + roomID
}

func (r *repo) GetRoom(ctx context.Context, roomID string) (*domain.Room, error) {
	data, err := r.rc.Get(ctx, r.roomKey(roomID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, room.ErrRoomNotFound
		}

		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	var state domain.Room
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal room: %w", err)
	}

	return &state, nil
}

func (r *repo) SetRoom(ctx context.Context, roomID string, state *domain.Room) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal room: %w", err)
	}

	if err := r.rc.Set(ctx, r.roomKey(roomID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set room: %w", err)
	}

	return nil
}

func (r *repo) RemoveRoom(ctx context.Context, roomID string) error {
	removed, err := r.rc.Del(ctx, r.roomKey(roomID)).Result()
	if err != nil {
		return fmt.Errorf("failed to remove room: %w", err)
	}
	if removed == 0 {
		return room.ErrRoomNotFound
	}

	return nil
}
