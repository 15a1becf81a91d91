package room

import (
	"context"
	"fmt"

	"github.com/gorilla/websocket"

	"github.com/streamsync/server/internal/domain"
)

type VideoActionParams struct {
	Conn        *websocket.Conn
	Control     domain.ControlType
	CurrentTime float64
}

// VideoAction applies a direct host control to the playback state and
// relays the raw command to every other connection. The sender's own
// player is already where it wants to be; echoing the command back
// would cause a visible jump.
func (s *service) VideoAction(ctx context.Context, params *VideoActionParams) error {
	sess, err := s.hostSession(params.Conn)
	if err != nil {
		return err
	}

	lock := s.locks.get(sess.RoomID)
	lock.Lock()
	defer lock.Unlock()

	room, err := s.roomRepo.GetRoom(ctx, sess.RoomID)
	if err != nil {
		return fmt.Errorf("failed to get room: %w", err)
	}

	room.Player.Apply(params.Control, params.CurrentTime)

	if err := s.roomRepo.SetRoom(ctx, sess.RoomID, room); err != nil {
		return fmt.Errorf("failed to set room: %w", err)
	}

	conns := s.sessionRepo.GetConnsByRoomID(sess.RoomID)
	s.sender.Broadcast(ctx, othersOf(conns, params.Conn),
		domain.SyncControlOf(params.Control, params.CurrentTime))

	return nil
}
