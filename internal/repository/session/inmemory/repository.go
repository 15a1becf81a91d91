package inmemory

import (
	"sync"

	"github.com/gorilla/websocket"

	"github.com/streamsync/server/internal/repository/session"
)

type repo struct {
	sessions map[*websocket.Conn]session.Session
	rooms    map[string]map[*websocket.Conn]struct{}
	mu       sync.RWMutex
}

func NewRepo() *repo {
	return &repo{
		sessions: make(map[*websocket.Conn]session.Session),
		rooms:    make(map[string]map[*websocket.Conn]struct{}),
	}
}

func (r *repo) Add(conn *websocket.Conn, s session.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[conn]; ok {
		return session.ErrAlreadyExists
	}

	r.sessions[conn] = s

	conns, ok := r.rooms[s.RoomID]
	if !ok {
		conns = make(map[*websocket.Conn]struct{})
		r.rooms[s.RoomID] = conns
	}
	conns[conn] = struct{}{}

	return nil
}

func (r *repo) GetByConn(conn *websocket.Conn) (session.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[conn]
	if !ok {
		return session.Session{}, session.ErrNotFound
	}

	return s, nil
}

func (r *repo) RemoveByConn(conn *websocket.Conn) (session.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[conn]
	if !ok {
		return session.Session{}, session.ErrNotFound
	}

	delete(r.sessions, conn)

	if conns, ok := r.rooms[s.RoomID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(r.rooms, s.RoomID)
		}
	}

	return s, nil
}

func (r *repo) GetConnsByRoomID(roomID string) []*websocket.Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]*websocket.Conn, 0, len(r.rooms[roomID]))
	for conn := range r.rooms[roomID] {
		conns = append(conns, conn)
	}

	return conns
}
