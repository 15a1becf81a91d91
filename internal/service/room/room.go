package room

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/streamsync/server/internal/domain"
	roomRepo "github.com/streamsync/server/internal/repository/room"
	"github.com/streamsync/server/internal/repository/session"
)

type JoinRoomParams struct {
	Conn     *websocket.Conn
	RoomID   string
	Username string
	IsHost   bool
}

// JoinRoom binds the connection to the room, lazily creating the room
// aggregate, and brings the joiner up to date: participant list to
// everyone, queue snapshot to the joiner, join notice to the others
// and, when playback is active, the two-phase late-joiner sync.
func (s *service) JoinRoom(ctx context.Context, params *JoinRoomParams) error {
	if _, err := s.sessionRepo.GetByConn(params.Conn); err == nil {
		return ErrAlreadyJoined
	}

	lock := s.locks.get(params.RoomID)
	lock.Lock()
	defer lock.Unlock()

	room, err := s.roomRepo.GetRoom(ctx, params.RoomID)
	if err != nil {
		if !errors.Is(err, roomRepo.ErrRoomNotFound) {
			return fmt.Errorf("failed to get room: %w", err)
		}
		room = domain.NewRoom()
	}

	if s.membersLimit > 0 && len(room.Participants) >= s.membersLimit {
		return ErrMembersLimitReached
	}

	room.AddParticipant(params.Username)
	if err := s.roomRepo.SetRoom(ctx, params.RoomID, room); err != nil {
		return fmt.Errorf("failed to set room: %w", err)
	}

	if err := s.sessionRepo.Add(params.Conn, session.Session{
		ID:       uuid.NewString(),
		RoomID:   params.RoomID,
		Username: params.Username,
		IsHost:   params.IsHost,
	}); err != nil {
		return fmt.Errorf("failed to add session: %w", err)
	}

	conns := s.sessionRepo.GetConnsByRoomID(params.RoomID)
	s.sender.Broadcast(ctx, conns, domain.ParticipantsUpdated(room.Participants))
	s.sender.Send(ctx, params.Conn, domain.NewQueueUpdated(room.Queue))
	s.sender.Broadcast(ctx, othersOf(conns, params.Conn),
		domain.SystemMessage(fmt.Sprintf("%s joined the watch party.", params.Username)))

	if room.Player.HasVideo() {
		s.syncLateJoiner(ctx, params.RoomID, room, params.Conn)
	}

	return nil
}

// syncLateJoiner runs the two-phase handshake: load now, play/pause
// after the sync delay. Phase two reads whatever room state exists at
// fire time and is dropped when the room is gone or its queue moved on.
func (s *service) syncLateJoiner(ctx context.Context, roomID string, room *domain.Room, conn *websocket.Conn) {
	title := room.Player.Title
	if title == "" {
		title = "Loading..."
	}
	s.sender.Send(ctx, conn, domain.SyncLoadOf(room.Player.VideoID, title))

	s.scheduleEmission(ctx, roomID, room.Version, s.syncDelay, func(ctx context.Context, room *domain.Room) {
		s.sender.Send(ctx, conn, domain.SyncStateOf(room.Player.IsPlaying, room.Player.CurrentTime))
	})
}

// scheduleEmission defers emit by delay, guarded by the room's
// generation counter: at fire time the room is reloaded and the
// callback is skipped when the room no longer exists or any queue
// mutation bumped its version in the meantime.
func (s *service) scheduleEmission(ctx context.Context, roomID string, version uint64, delay time.Duration, emit func(ctx context.Context, room *domain.Room)) {
	ctx = context.WithoutCancel(ctx)

	time.AfterFunc(delay, func() {
		lock := s.locks.get(roomID)
		lock.Lock()
		defer lock.Unlock()

		room, err := s.roomRepo.GetRoom(ctx, roomID)
		if err != nil {
			s.logger.DebugContext(ctx, "deferred emission dropped, room is gone", "room_id", roomID)
			return
		}
		if room.Version != version {
			s.logger.DebugContext(ctx, "deferred emission dropped, queue moved on",
				"room_id", roomID, "scheduled_version", version, "current_version", room.Version)
			return
		}

		emit(ctx, room)
	})
}

// Disconnect removes the connection's session and its name from the
// room, tearing the room down when the last participant is gone.
// Disconnect ordering is not guaranteed, so a missing room is a no-op.
func (s *service) Disconnect(ctx context.Context, conn *websocket.Conn) error {
	sess, err := s.sessionRepo.RemoveByConn(conn)
	s.sender.Forget(conn)
	if err != nil {
		return ErrNotJoined
	}

	lock := s.locks.get(sess.RoomID)
	lock.Lock()
	defer lock.Unlock()

	room, err := s.roomRepo.GetRoom(ctx, sess.RoomID)
	if err != nil {
		if errors.Is(err, roomRepo.ErrRoomNotFound) {
			return nil
		}

		return fmt.Errorf("failed to get room: %w", err)
	}

	room.RemoveParticipant(sess.Username)

	if room.Empty() {
		if err := s.roomRepo.RemoveRoom(ctx, sess.RoomID); err != nil {
			return fmt.Errorf("failed to remove room: %w", err)
		}

		return nil
	}

	if err := s.roomRepo.SetRoom(ctx, sess.RoomID, room); err != nil {
		return fmt.Errorf("failed to set room: %w", err)
	}

	conns := s.sessionRepo.GetConnsByRoomID(sess.RoomID)
	s.sender.Broadcast(ctx, conns, domain.ParticipantsUpdated(room.Participants))
	s.sender.Broadcast(ctx, conns,
		domain.SystemMessage(fmt.Sprintf("%s left the watch party.", sess.Username)))

	return nil
}
