package room

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/streamsync/server/internal/domain"
	"github.com/streamsync/server/internal/repository/session"
)

var (
	ErrAlreadyJoined       = errors.New("connection already joined a room")
	ErrNotJoined           = errors.New("connection is not joined to a room")
	ErrPermissionDenied    = errors.New("permission denied")
	ErrIndexOutOfRange     = errors.New("index out of range")
	ErrMembersLimitReached = errors.New("members limit reached")
	ErrQueueLimitReached   = errors.New("queue limit reached")
)

type iRoomRepo interface {
	GetRoom(ctx context.Context, roomID string) (*domain.Room, error)
	SetRoom(ctx context.Context, roomID string, state *domain.Room) error
	RemoveRoom(ctx context.Context, roomID string) error
}

type iSessionRepo interface {
	Add(conn *websocket.Conn, s session.Session) error
	GetByConn(conn *websocket.Conn) (session.Session, error)
	RemoveByConn(conn *websocket.Conn) (session.Session, error)
	GetConnsByRoomID(roomID string) []*websocket.Conn
}

type iSender interface {
	Send(ctx context.Context, conn *websocket.Conn, event domain.Event) error
	Broadcast(ctx context.Context, conns []*websocket.Conn, event domain.Event)
	Forget(conn *websocket.Conn)
}

type Config struct {
	// SyncDelay separates the late-joiner load from the following
	// play/pause command so the client player has time to initialize.
	SyncDelay time.Duration
	// AutoplayDelay separates a queue-driven load from its play command.
	AutoplayDelay time.Duration
	// MembersLimit and QueueLimit are disabled when 0.
	MembersLimit int
	QueueLimit   int
}

type service struct {
	roomRepo    iRoomRepo
	sessionRepo iSessionRepo
	sender      iSender
	logger      *slog.Logger

	syncDelay     time.Duration
	autoplayDelay time.Duration
	membersLimit  int
	queueLimit    int

	locks roomLocks
}

func NewService(roomRepo iRoomRepo, sessionRepo iSessionRepo, sender iSender, logger *slog.Logger, cfg *Config) *service {
	return &service{
		roomRepo:      roomRepo,
		sessionRepo:   sessionRepo,
		sender:        sender,
		logger:        logger,
		syncDelay:     cfg.SyncDelay,
		autoplayDelay: cfg.AutoplayDelay,
		membersLimit:  cfg.MembersLimit,
		queueLimit:    cfg.QueueLimit,
		locks:         roomLocks{locks: make(map[string]*sync.Mutex)},
	}
}

// roomLocks serializes event handling per room: every mutation runs
// from event receipt through the completion of its emissions under the
// room's mutex, so commands for the same room never interleave.
type roomLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (l *roomLocks) get(roomID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	lock, ok := l.locks[roomID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[roomID] = lock
	}

	return lock
}
