package wssender

import (
	"context"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/streamsync/server/internal/domain"
)

type envelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Repo is the outbound sink: it serializes events into the wire
// envelope and owns a write lock per connection, since gorilla conns
// do not allow concurrent writers and deferred emissions run on timer
// goroutines.
type Repo struct {
	locks  map[*websocket.Conn]*sync.Mutex
	mu     sync.Mutex
	logger *slog.Logger
}

func NewRepo(logger *slog.Logger) *Repo {
	return &Repo{
		locks:  make(map[*websocket.Conn]*sync.Mutex),
		logger: logger,
	}
}

func (r *Repo) lockFor(conn *websocket.Conn) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()

	lock, ok := r.locks[conn]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[conn] = lock
	}

	return lock
}

func (r *Repo) Send(ctx context.Context, conn *websocket.Conn, event domain.Event) error {
	lock := r.lockFor(conn)
	lock.Lock()
	defer lock.Unlock()

	if err := conn.WriteJSON(envelope{Type: event.EventType(), Payload: event}); err != nil {
		r.logger.DebugContext(ctx, "failed to write event", "event", event.EventType(), "error", err)
		return err
	}

	return nil
}

// Broadcast writes the event to every connection; one failed write
// never aborts delivery to the rest.
func (r *Repo) Broadcast(ctx context.Context, conns []*websocket.Conn, event domain.Event) {
	for _, conn := range conns {
		r.Send(ctx, conn, event)
	}
}

// Forget drops the write lock of a closed connection.
func (r *Repo) Forget(conn *websocket.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.locks, conn)
}
