package room

import (
	"context"

	"github.com/gorilla/websocket"

	"github.com/streamsync/server/internal/domain"
)

type ChatMessageParams struct {
	Conn     *websocket.Conn
	Username string
	Message  string
}

// ChatMessage relays a chat line verbatim to the whole room, sender
// included.
func (s *service) ChatMessage(ctx context.Context, params *ChatMessageParams) error {
	sess, err := s.sessionRepo.GetByConn(params.Conn)
	if err != nil {
		return ErrNotJoined
	}

	conns := s.sessionRepo.GetConnsByRoomID(sess.RoomID)
	s.sender.Broadcast(ctx, conns, domain.ChatMessage{
		Username: params.Username,
		Message:  params.Message,
	})

	return nil
}

// PlayerReady acknowledges the client-side readiness hint immediately
// and unconditionally; it is not part of the late-joiner handshake.
func (s *service) PlayerReady(ctx context.Context, conn *websocket.Conn) error {
	return s.sender.Send(ctx, conn, domain.PlayerReadyAck{})
}
