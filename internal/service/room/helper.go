package room

import (
	"github.com/gorilla/websocket"

	"github.com/streamsync/server/internal/repository/session"
)

func othersOf(conns []*websocket.Conn, exclude *websocket.Conn) []*websocket.Conn {
	others := make([]*websocket.Conn, 0, len(conns))
	for _, conn := range conns {
		if conn != exclude {
			others = append(others, conn)
		}
	}

	return others
}

// hostSession resolves the sender's session and enforces the host gate
// every mutating command shares.
func (s *service) hostSession(conn *websocket.Conn) (session.Session, error) {
	sess, err := s.sessionRepo.GetByConn(conn)
	if err != nil {
		return session.Session{}, ErrNotJoined
	}
	if !sess.IsHost {
		return session.Session{}, ErrPermissionDenied
	}

	return sess, nil
}
