package room

import (
	"context"
	"fmt"

	"github.com/gorilla/websocket"

	"github.com/streamsync/server/internal/domain"
)

type QueueAddParams struct {
	Conn    *websocket.Conn
	VideoID string
	Title   string
}

// QueueAdd appends an entry. Adding to an idle empty queue selects the
// entry and starts playback.
func (s *service) QueueAdd(ctx context.Context, params *QueueAddParams) error {
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

	if s.queueLimit > 0 && room.Queue.Len() >= s.queueLimit {
		return ErrQueueLimitReached
	}

	title := params.Title
	if title == "" {
		title = fmt.Sprintf("Video %d", room.Queue.Len()+1)
	}

	becameCurrent := room.Queue.Add(domain.QueueEntry{
		VideoID: params.VideoID,
		Title:   title,
		AddedBy: sess.Username,
	})
	room.Version++

	conns := s.sessionRepo.GetConnsByRoomID(sess.RoomID)
	if becameCurrent {
		s.playSelected(ctx, sess.RoomID, room, conns)
	}

	if err := s.roomRepo.SetRoom(ctx, sess.RoomID, room); err != nil {
		return fmt.Errorf("failed to set room: %w", err)
	}

	s.sender.Broadcast(ctx, conns, domain.NewQueueUpdated(room.Queue))
	s.sender.Broadcast(ctx, conns,
		domain.SystemMessage(fmt.Sprintf("%s added %q to the queue.", sess.Username, title)))

	return nil
}

type QueueSkipParams struct {
	Conn *websocket.Conn
}

// QueueSkip advances to the next entry, or clears playback when the
// queue ran out.
func (s *service) QueueSkip(ctx context.Context, params *QueueSkipParams) error {
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

	advanced := room.Queue.Advance()
	room.Version++

	conns := s.sessionRepo.GetConnsByRoomID(sess.RoomID)
	if advanced {
		s.playSelected(ctx, sess.RoomID, room, conns)
	} else {
		room.Player.Clear()
		s.sender.Broadcast(ctx, conns, domain.SyncLoadOf("", "Queue finished"))
	}

	if err := s.roomRepo.SetRoom(ctx, sess.RoomID, room); err != nil {
		return fmt.Errorf("failed to set room: %w", err)
	}

	s.sender.Broadcast(ctx, conns, domain.NewQueueUpdated(room.Queue))
	s.sender.Broadcast(ctx, conns,
		domain.SystemMessage(fmt.Sprintf("%s skipped to the next video.", sess.Username)))

	return nil
}

type QueuePlayAtParams struct {
	Conn  *websocket.Conn
	Index int
}

// QueuePlayAt jumps the cursor to a specific entry.
func (s *service) QueuePlayAt(ctx context.Context, params *QueuePlayAtParams) error {
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

	if !room.Queue.Select(params.Index) {
		return ErrIndexOutOfRange
	}
	room.Version++

	conns := s.sessionRepo.GetConnsByRoomID(sess.RoomID)
	s.playSelected(ctx, sess.RoomID, room, conns)

	if err := s.roomRepo.SetRoom(ctx, sess.RoomID, room); err != nil {
		return fmt.Errorf("failed to set room: %w", err)
	}

	s.sender.Broadcast(ctx, conns, domain.NewQueueUpdated(room.Queue))

	return nil
}

type QueueRemoveParams struct {
	Conn  *websocket.Conn
	Index int
}

// QueueRemove deletes an entry. Removing the current entry recomputes
// the cursor and playback state together.
func (s *service) QueueRemove(ctx context.Context, params *QueueRemoveParams) error {
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

	outcome := room.Queue.Remove(params.Index)
	if outcome == domain.RemoveOutOfRange {
		return ErrIndexOutOfRange
	}
	room.Version++

	conns := s.sessionRepo.GetConnsByRoomID(sess.RoomID)
	switch outcome {
	case domain.RemoveNewCurrent:
		s.playSelected(ctx, sess.RoomID, room, conns)
	case domain.RemoveCleared:
		room.Player.Clear()
		s.sender.Broadcast(ctx, conns, domain.SyncLoadOf("", "Queue empty"))
	}

	if err := s.roomRepo.SetRoom(ctx, sess.RoomID, room); err != nil {
		return fmt.Errorf("failed to set room: %w", err)
	}

	s.sender.Broadcast(ctx, conns, domain.NewQueueUpdated(room.Queue))
	s.sender.Broadcast(ctx, conns,
		domain.SystemMessage(fmt.Sprintf("%s removed a video from the queue.", sess.Username)))

	return nil
}

// playSelected replaces the playback state wholesale with the entry
// under the cursor, broadcasts its load command and schedules the
// deferred play that gives clients time to buffer.
func (s *service) playSelected(ctx context.Context, roomID string, room *domain.Room, conns []*websocket.Conn) {
	entry := room.Queue.Current()
	if entry == nil {
		return
	}

	room.Player = domain.PlaybackState{
		VideoID:     entry.VideoID,
		Title:       entry.Title,
		CurrentTime: 0,
		IsPlaying:   true,
	}

	s.sender.Broadcast(ctx, conns, domain.SyncLoadOf(entry.VideoID, entry.Title))

	s.scheduleEmission(ctx, roomID, room.Version, s.autoplayDelay, func(ctx context.Context, room *domain.Room) {
		conns := s.sessionRepo.GetConnsByRoomID(roomID)
		s.sender.Broadcast(ctx, conns, domain.SyncControlOf(domain.ControlPlay, room.Player.CurrentTime))
	})
}
