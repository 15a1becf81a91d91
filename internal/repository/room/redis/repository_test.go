package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamsync/server/internal/domain"
	"github.com/streamsync/server/internal/repository/room"
)

func newTestRepo(t *testing.T) (*repo, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rc := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rc.Close() })

	return NewRepo(rc, time.Hour), mr
}

func TestRoomRoundTrip(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()

	state := domain.NewRoom()
	state.AddParticipant("alice")
	state.Queue.Add(domain.QueueEntry{VideoID: "v1", Title: "Intro", AddedBy: "alice"})
	state.Player = domain.PlaybackState{VideoID: "v1", Title: "Intro", CurrentTime: 12.5, IsPlaying: true}
	state.Version = 3

	require.NoError(t, r.SetRoom(ctx, "ab12cd", state))

	got, err := r.GetRoom(ctx, "ab12cd")
	require.NoError(t, err)
	assert.Equal(t, state, got)
}

func TestGetRoomNotFound(t *testing.T) {
	r, _ := newTestRepo(t)

	_, err := r.GetRoom(context.Background(), "missing")
	assert.ErrorIs(t, err, room.ErrRoomNotFound)
}

func TestRemoveRoom(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, r.SetRoom(ctx, "ab12cd", domain.NewRoom()))
	require.NoError(t, r.RemoveRoom(ctx, "ab12cd"))

	_, err := r.GetRoom(ctx, "ab12cd")
	assert.ErrorIs(t, err, room.ErrRoomNotFound)

	assert.ErrorIs(t, r.RemoveRoom(ctx, "ab12cd"), room.ErrRoomNotFound)
}

func TestRoomExpires(t *testing.T) {
	r, mr := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, r.SetRoom(ctx, "ab12cd", domain.NewRoom()))
	assert.Greater(t, mr.TTL("room:ab12cd"), time.Duration(0))

	mr.FastForward(2 * time.Hour)

	_, err := r.GetRoom(ctx, "ab12cd")
	assert.ErrorIs(t, err, room.ErrRoomNotFound)
}
