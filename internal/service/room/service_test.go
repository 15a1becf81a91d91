package room

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamsync/server/internal/domain"
	roomrepo "github.com/streamsync/server/internal/repository/room"
	roominmemory "github.com/streamsync/server/internal/repository/room/inmemory"
	sessioninmemory "github.com/streamsync/server/internal/repository/session/inmemory"
)

type sentEvent struct {
	conn  *websocket.Conn
	event domain.Event
}

// fakeSender records emissions instead of writing to sockets.
type fakeSender struct {
	mu     sync.Mutex
	events []sentEvent
}

func (f *fakeSender) Send(_ context.Context, conn *websocket.Conn, event domain.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.events = append(f.events, sentEvent{conn: conn, event: event})
	return nil
}

func (f *fakeSender) Broadcast(ctx context.Context, conns []*websocket.Conn, event domain.Event) {
	for _, conn := range conns {
		f.Send(ctx, conn, event)
	}
}

func (f *fakeSender) Forget(*websocket.Conn) {}

func (f *fakeSender) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.events = nil
}

func (f *fakeSender) all() []sentEvent {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]sentEvent(nil), f.events...)
}

func (f *fakeSender) eventsFor(conn *websocket.Conn) []domain.Event {
	events := []domain.Event{}
	for _, e := range f.all() {
		if e.conn == conn {
			events = append(events, e.event)
		}
	}

	return events
}

func (f *fakeSender) syncsFor(conn *websocket.Conn) []domain.SyncVideo {
	syncs := []domain.SyncVideo{}
	for _, event := range f.eventsFor(conn) {
		if sync, ok := event.(domain.SyncVideo); ok {
			syncs = append(syncs, sync)
		}
	}

	return syncs
}

func (f *fakeSender) chatsFor(conn *websocket.Conn) []domain.ChatMessage {
	chats := []domain.ChatMessage{}
	for _, event := range f.eventsFor(conn) {
		if chat, ok := event.(domain.ChatMessage); ok {
			chats = append(chats, chat)
		}
	}

	return chats
}

const (
	testDelay = 10 * time.Millisecond
	// settle is long enough for every scheduled emission to have fired
	settle = 200 * time.Millisecond
)

type testEnv struct {
	svc    *service
	sender *fakeSender
	store  roomrepo.Store
	ctx    context.Context
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := roominmemory.NewRepo()
	sender := &fakeSender{}
	svc := NewService(store, sessioninmemory.NewRepo(), sender, slog.Default(), &Config{
		SyncDelay:     testDelay,
		AutoplayDelay: testDelay,
	})

	return &testEnv{svc: svc, sender: sender, store: store, ctx: context.Background()}
}

func (e *testEnv) join(t *testing.T, conn *websocket.Conn, roomID, username string, isHost bool) {
	t.Helper()

	err := e.svc.JoinRoom(e.ctx, &JoinRoomParams{Conn: conn, RoomID: roomID, Username: username, IsHost: isHost})
	require.NoError(t, err)
}

func (e *testEnv) room(t *testing.T, roomID string) *domain.Room {
	t.Helper()

	room, err := e.store.GetRoom(e.ctx, roomID)
	require.NoError(t, err)
	return room
}

func TestJoinRoomBroadcastsState(t *testing.T) {
	e := newTestEnv(t)
	host := &websocket.Conn{}
	guest := &websocket.Conn{}

	e.join(t, host, "ab12cd", "alice", true)

	hostEvents := e.sender.eventsFor(host)
	require.Len(t, hostEvents, 2)
	assert.Equal(t, domain.ParticipantsUpdated{"alice"}, hostEvents[0])
	snapshot, ok := hostEvents[1].(domain.QueueUpdated)
	require.True(t, ok)
	assert.Empty(t, snapshot.Queue)
	assert.Equal(t, -1, snapshot.CurrentIndex)
	assert.Nil(t, snapshot.CurrentVideo)

	e.sender.reset()
	e.join(t, guest, "ab12cd", "bob", false)

	assert.Contains(t, e.sender.eventsFor(host), domain.ParticipantsUpdated{"alice", "bob"})
	assert.Contains(t, e.sender.eventsFor(guest), domain.ParticipantsUpdated{"alice", "bob"})

	// the join notice goes to the others only
	require.Len(t, e.sender.chatsFor(host), 1)
	assert.Equal(t, domain.SystemMessage("bob joined the watch party."), e.sender.chatsFor(host)[0])
	assert.Empty(t, e.sender.chatsFor(guest))

	assert.Equal(t, []string{"alice", "bob"}, e.room(t, "ab12cd").Participants)
}

func TestJoinRoomTwiceDropped(t *testing.T) {
	e := newTestEnv(t)
	conn := &websocket.Conn{}

	e.join(t, conn, "ab12cd", "alice", true)

	err := e.svc.JoinRoom(e.ctx, &JoinRoomParams{Conn: conn, RoomID: "other", Username: "alice", IsHost: true})
	assert.ErrorIs(t, err, ErrAlreadyJoined)
}

func TestQueueAddStartsPlayback(t *testing.T) {
	e := newTestEnv(t)
	host := &websocket.Conn{}
	e.join(t, host, "ab12cd", "alice", true)
	e.sender.reset()

	err := e.svc.QueueAdd(e.ctx, &QueueAddParams{Conn: host, VideoID: "v1", Title: "Intro"})
	require.NoError(t, err)

	syncs := e.sender.syncsFor(host)
	require.Len(t, syncs, 1)
	assert.Equal(t, domain.SyncLoadOf("v1", "Intro"), syncs[0])

	require.Len(t, e.sender.chatsFor(host), 1)
	assert.Equal(t, `alice added "Intro" to the queue.`, e.sender.chatsFor(host)[0].Message)

	room := e.room(t, "ab12cd")
	assert.Equal(t, 0, room.Queue.CurrentIndex)
	assert.Equal(t, domain.PlaybackState{VideoID: "v1", Title: "Intro", CurrentTime: 0, IsPlaying: true}, room.Player)

	// deferred autoplay
	time.Sleep(settle)
	syncs = e.sender.syncsFor(host)
	require.Len(t, syncs, 2)
	assert.Equal(t, domain.SyncPlay, syncs[1].Type)
	require.NotNil(t, syncs[1].CurrentTime)
	assert.Equal(t, 0.0, *syncs[1].CurrentTime)
}

func TestQueueAddDefaultTitle(t *testing.T) {
	e := newTestEnv(t)
	host := &websocket.Conn{}
	e.join(t, host, "ab12cd", "alice", true)

	require.NoError(t, e.svc.QueueAdd(e.ctx, &QueueAddParams{Conn: host, VideoID: "v1"}))
	require.NoError(t, e.svc.QueueAdd(e.ctx, &QueueAddParams{Conn: host, VideoID: "v2"}))

	room := e.room(t, "ab12cd")
	assert.Equal(t, "Video 1", room.Queue.Entries[0].Title)
	assert.Equal(t, "Video 2", room.Queue.Entries[1].Title)
}

func TestQueueAddSecondDoesNotInterrupt(t *testing.T) {
	e := newTestEnv(t)
	host := &websocket.Conn{}
	e.join(t, host, "ab12cd", "alice", true)
	require.NoError(t, e.svc.QueueAdd(e.ctx, &QueueAddParams{Conn: host, VideoID: "v1", Title: "Intro"}))
	e.sender.reset()

	require.NoError(t, e.svc.QueueAdd(e.ctx, &QueueAddParams{Conn: host, VideoID: "v2", Title: "Next"}))

	assert.Empty(t, e.sender.syncsFor(host), "adding to a playing queue must not load anything")
	assert.Equal(t, 0, e.room(t, "ab12cd").Queue.CurrentIndex)
}

func TestNonHostCommandsDropped(t *testing.T) {
	e := newTestEnv(t)
	host := &websocket.Conn{}
	guest := &websocket.Conn{}
	e.join(t, host, "ab12cd", "alice", true)
	e.join(t, guest, "ab12cd", "bob", false)
	e.sender.reset()

	assert.ErrorIs(t, e.svc.QueueAdd(e.ctx, &QueueAddParams{Conn: guest, VideoID: "v1"}), ErrPermissionDenied)
	assert.ErrorIs(t, e.svc.QueueSkip(e.ctx, &QueueSkipParams{Conn: guest}), ErrPermissionDenied)
	assert.ErrorIs(t, e.svc.VideoAction(e.ctx, &VideoActionParams{Conn: guest, Control: domain.ControlPause, CurrentTime: 1}), ErrPermissionDenied)

	assert.Empty(t, e.sender.all(), "dropped commands must not produce broadcasts")

	room := e.room(t, "ab12cd")
	assert.Equal(t, 0, room.Queue.Len())
	assert.False(t, room.Player.HasVideo())
}

func TestUnjoinedCommandsDropped(t *testing.T) {
	e := newTestEnv(t)
	conn := &websocket.Conn{}

	assert.ErrorIs(t, e.svc.QueueAdd(e.ctx, &QueueAddParams{Conn: conn, VideoID: "v1"}), ErrNotJoined)
	assert.ErrorIs(t, e.svc.VideoAction(e.ctx, &VideoActionParams{Conn: conn, Control: domain.ControlPlay}), ErrNotJoined)
	assert.ErrorIs(t, e.svc.ChatMessage(e.ctx, &ChatMessageParams{Conn: conn, Username: "x", Message: "hi"}), ErrNotJoined)
	assert.ErrorIs(t, e.svc.Disconnect(e.ctx, conn), ErrNotJoined)
	assert.Empty(t, e.sender.all())
}

func TestQueueSkipAdvances(t *testing.T) {
	e := newTestEnv(t)
	host := &websocket.Conn{}
	e.join(t, host, "ab12cd", "alice", true)
	require.NoError(t, e.svc.QueueAdd(e.ctx, &QueueAddParams{Conn: host, VideoID: "v1", Title: "First"}))
	require.NoError(t, e.svc.QueueAdd(e.ctx, &QueueAddParams{Conn: host, VideoID: "v2", Title: "Second"}))
	e.sender.reset()

	require.NoError(t, e.svc.QueueSkip(e.ctx, &QueueSkipParams{Conn: host}))

	syncs := e.sender.syncsFor(host)
	require.NotEmpty(t, syncs)
	assert.Equal(t, domain.SyncLoadOf("v2", "Second"), syncs[0])

	room := e.room(t, "ab12cd")
	assert.Equal(t, 1, room.Queue.CurrentIndex)
	assert.Equal(t, "v2", room.Player.VideoID)
}

func TestQueueSkipAtEndClearsPlayback(t *testing.T) {
	e := newTestEnv(t)
	host := &websocket.Conn{}
	e.join(t, host, "ab12cd", "alice", true)
	require.NoError(t, e.svc.QueueAdd(e.ctx, &QueueAddParams{Conn: host, VideoID: "v1", Title: "Only"}))
	e.sender.reset()

	require.NoError(t, e.svc.QueueSkip(e.ctx, &QueueSkipParams{Conn: host}))

	syncs := e.sender.syncsFor(host)
	require.Len(t, syncs, 1)
	assert.Equal(t, domain.SyncLoadOf("", "Queue finished"), syncs[0])

	room := e.room(t, "ab12cd")
	assert.Equal(t, -1, room.Queue.CurrentIndex)
	assert.Equal(t, 1, room.Queue.Len(), "skip must not drop entries")
	assert.False(t, room.Player.HasVideo())
}

func TestQueuePlayAt(t *testing.T) {
	e := newTestEnv(t)
	host := &websocket.Conn{}
	e.join(t, host, "ab12cd", "alice", true)
	require.NoError(t, e.svc.QueueAdd(e.ctx, &QueueAddParams{Conn: host, VideoID: "v1", Title: "First"}))
	require.NoError(t, e.svc.QueueAdd(e.ctx, &QueueAddParams{Conn: host, VideoID: "v2", Title: "Second"}))
	e.sender.reset()

	require.NoError(t, e.svc.QueuePlayAt(e.ctx, &QueuePlayAtParams{Conn: host, Index: 1}))
	syncs := e.sender.syncsFor(host)
	require.NotEmpty(t, syncs)
	assert.Equal(t, domain.SyncLoadOf("v2", "Second"), syncs[0])

	e.sender.reset()
	assert.ErrorIs(t, e.svc.QueuePlayAt(e.ctx, &QueuePlayAtParams{Conn: host, Index: 5}), ErrIndexOutOfRange)
	assert.Empty(t, e.sender.all())
	assert.Equal(t, 1, e.room(t, "ab12cd").Queue.CurrentIndex)
}

func TestQueueRemoveBeforeCurrent(t *testing.T) {
	e := newTestEnv(t)
	host := &websocket.Conn{}
	e.join(t, host, "ab12cd", "alice", true)
	require.NoError(t, e.svc.QueueAdd(e.ctx, &QueueAddParams{Conn: host, VideoID: "v1", Title: "First"}))
	require.NoError(t, e.svc.QueueAdd(e.ctx, &QueueAddParams{Conn: host, VideoID: "v2", Title: "Second"}))
	require.NoError(t, e.svc.QueuePlayAt(e.ctx, &QueuePlayAtParams{Conn: host, Index: 1}))
	time.Sleep(settle)
	e.sender.reset()

	require.NoError(t, e.svc.QueueRemove(e.ctx, &QueueRemoveParams{Conn: host, Index: 0}))

	assert.Empty(t, e.sender.syncsFor(host), "removing a non-current entry must not disrupt playback")

	room := e.room(t, "ab12cd")
	assert.Equal(t, 0, room.Queue.CurrentIndex)
	assert.Equal(t, "v2", room.Player.VideoID)
}

func TestQueueRemoveCurrentPlaysNext(t *testing.T) {
	e := newTestEnv(t)
	host := &websocket.Conn{}
	e.join(t, host, "ab12cd", "alice", true)
	require.NoError(t, e.svc.QueueAdd(e.ctx, &QueueAddParams{Conn: host, VideoID: "v1", Title: "First"}))
	require.NoError(t, e.svc.QueueAdd(e.ctx, &QueueAddParams{Conn: host, VideoID: "v2", Title: "Second"}))
	time.Sleep(settle)
	e.sender.reset()

	require.NoError(t, e.svc.QueueRemove(e.ctx, &QueueRemoveParams{Conn: host, Index: 0}))

	syncs := e.sender.syncsFor(host)
	require.NotEmpty(t, syncs)
	assert.Equal(t, domain.SyncLoadOf("v2", "Second"), syncs[0])
	assert.Equal(t, 0, e.room(t, "ab12cd").Queue.CurrentIndex)
}

func TestQueueRemoveOnlyEntryClearsPlayback(t *testing.T) {
	e := newTestEnv(t)
	host := &websocket.Conn{}
	e.join(t, host, "ab12cd", "alice", true)
	require.NoError(t, e.svc.QueueAdd(e.ctx, &QueueAddParams{Conn: host, VideoID: "v1", Title: "Only"}))
	e.sender.reset()

	require.NoError(t, e.svc.QueueRemove(e.ctx, &QueueRemoveParams{Conn: host, Index: 0}))

	syncs := e.sender.syncsFor(host)
	require.Len(t, syncs, 1)
	assert.Equal(t, domain.SyncLoadOf("", "Queue empty"), syncs[0])

	room := e.room(t, "ab12cd")
	assert.Equal(t, 0, room.Queue.Len())
	assert.Equal(t, -1, room.Queue.CurrentIndex)
	assert.False(t, room.Player.HasVideo())

	// no stale autoplay may fire for the removed entry
	time.Sleep(settle)
	assert.Len(t, e.sender.syncsFor(host), 1)
}

func TestDeferredPlayDroppedAfterQueueMutation(t *testing.T) {
	e := newTestEnv(t)
	host := &websocket.Conn{}
	e.join(t, host, "ab12cd", "alice", true)
	require.NoError(t, e.svc.QueueAdd(e.ctx, &QueueAddParams{Conn: host, VideoID: "v1", Title: "First"}))
	require.NoError(t, e.svc.QueueAdd(e.ctx, &QueueAddParams{Conn: host, VideoID: "v2", Title: "Second"}))

	// the skip bumps the generation before v1's autoplay fires
	require.NoError(t, e.svc.QueueSkip(e.ctx, &QueueSkipParams{Conn: host}))
	time.Sleep(settle)

	var plays int
	for _, sync := range e.sender.syncsFor(host) {
		if sync.Type == domain.SyncPlay {
			plays++
		}
	}
	assert.Equal(t, 1, plays, "only the emission scheduled by the latest mutation may fire")
}

func TestVideoActionRelaysToOthers(t *testing.T) {
	e := newTestEnv(t)
	host := &websocket.Conn{}
	guest := &websocket.Conn{}
	e.join(t, host, "ab12cd", "alice", true)
	e.join(t, guest, "ab12cd", "bob", false)
	require.NoError(t, e.svc.QueueAdd(e.ctx, &QueueAddParams{Conn: host, VideoID: "v1", Title: "Intro"}))
	time.Sleep(settle)
	e.sender.reset()

	require.NoError(t, e.svc.VideoAction(e.ctx, &VideoActionParams{Conn: host, Control: domain.ControlPause, CurrentTime: 12.5}))

	assert.Empty(t, e.sender.syncsFor(host), "the sender must not receive its own echo")
	syncs := e.sender.syncsFor(guest)
	require.Len(t, syncs, 1)
	assert.Equal(t, domain.SyncPause, syncs[0].Type)
	require.NotNil(t, syncs[0].CurrentTime)
	assert.Equal(t, 12.5, *syncs[0].CurrentTime)

	room := e.room(t, "ab12cd")
	assert.False(t, room.Player.IsPlaying)
	assert.Equal(t, 12.5, room.Player.CurrentTime)

	// seek keeps the pause state
	require.NoError(t, e.svc.VideoAction(e.ctx, &VideoActionParams{Conn: host, Control: domain.ControlSeek, CurrentTime: 99}))
	room = e.room(t, "ab12cd")
	assert.False(t, room.Player.IsPlaying)
	assert.Equal(t, 99.0, room.Player.CurrentTime)
}

func TestChatMessageBroadcastVerbatim(t *testing.T) {
	e := newTestEnv(t)
	host := &websocket.Conn{}
	guest := &websocket.Conn{}
	e.join(t, host, "ab12cd", "alice", true)
	e.join(t, guest, "ab12cd", "bob", false)
	e.sender.reset()

	require.NoError(t, e.svc.ChatMessage(e.ctx, &ChatMessageParams{Conn: guest, Username: "bob", Message: "hi all"}))

	want := domain.ChatMessage{Username: "bob", Message: "hi all"}
	assert.Equal(t, []domain.ChatMessage{want}, e.sender.chatsFor(host))
	assert.Equal(t, []domain.ChatMessage{want}, e.sender.chatsFor(guest))
}

func TestPlayerReadyAck(t *testing.T) {
	e := newTestEnv(t)
	conn := &websocket.Conn{}

	require.NoError(t, e.svc.PlayerReady(e.ctx, conn))

	events := e.sender.eventsFor(conn)
	require.Len(t, events, 1)
	assert.Equal(t, domain.PlayerReadyAck{}, events[0])
}

func TestLateJoinerTwoPhaseSync(t *testing.T) {
	e := newTestEnv(t)
	host := &websocket.Conn{}
	guest := &websocket.Conn{}
	e.join(t, host, "ab12cd", "alice", true)
	require.NoError(t, e.svc.QueueAdd(e.ctx, &QueueAddParams{Conn: host, VideoID: "v1", Title: "Intro"}))
	time.Sleep(settle)
	require.NoError(t, e.svc.VideoAction(e.ctx, &VideoActionParams{Conn: host, Control: domain.ControlPause, CurrentTime: 30}))
	e.sender.reset()

	e.join(t, guest, "ab12cd", "bob", false)

	syncs := e.sender.syncsFor(guest)
	require.Len(t, syncs, 1, "phase two must not arrive before the delay")
	assert.Equal(t, domain.SyncLoadOf("v1", "Intro"), syncs[0])

	time.Sleep(settle)

	syncs = e.sender.syncsFor(guest)
	require.Len(t, syncs, 2)
	assert.Equal(t, domain.SyncPause, syncs[1].Type)
	require.NotNil(t, syncs[1].CurrentTime)
	assert.Equal(t, 30.0, *syncs[1].CurrentTime)
}

func TestJoinWithoutPlaybackSkipsSync(t *testing.T) {
	e := newTestEnv(t)
	host := &websocket.Conn{}
	e.join(t, host, "ab12cd", "alice", true)

	time.Sleep(settle)
	assert.Empty(t, e.sender.syncsFor(host))
}

func TestDisconnectTearsDownEmptyRoom(t *testing.T) {
	e := newTestEnv(t)
	host := &websocket.Conn{}
	guest := &websocket.Conn{}
	e.join(t, host, "ab12cd", "alice", true)
	e.join(t, guest, "ab12cd", "bob", false)
	require.NoError(t, e.svc.QueueAdd(e.ctx, &QueueAddParams{Conn: host, VideoID: "v1", Title: "Intro"}))
	time.Sleep(settle)
	e.sender.reset()

	require.NoError(t, e.svc.Disconnect(e.ctx, guest))

	assert.Contains(t, e.sender.eventsFor(host), domain.ParticipantsUpdated{"alice"})
	require.Len(t, e.sender.chatsFor(host), 1)
	assert.Equal(t, domain.SystemMessage("bob left the watch party."), e.sender.chatsFor(host)[0])

	require.NoError(t, e.svc.Disconnect(e.ctx, host))

	_, err := e.store.GetRoom(e.ctx, "ab12cd")
	assert.ErrorIs(t, err, roomrepo.ErrRoomNotFound)

	// a fresh join re-initializes the room from scratch
	e.sender.reset()
	again := &websocket.Conn{}
	e.join(t, again, "ab12cd", "carol", true)

	room := e.room(t, "ab12cd")
	assert.Equal(t, []string{"carol"}, room.Participants)
	assert.Equal(t, 0, room.Queue.Len())
	assert.False(t, room.Player.HasVideo())
}

func TestMembersLimit(t *testing.T) {
	store := roominmemory.NewRepo()
	sender := &fakeSender{}
	svc := NewService(store, sessioninmemory.NewRepo(), sender, slog.Default(), &Config{
		SyncDelay:     testDelay,
		AutoplayDelay: testDelay,
		MembersLimit:  1,
	})
	ctx := context.Background()

	require.NoError(t, svc.JoinRoom(ctx, &JoinRoomParams{Conn: &websocket.Conn{}, RoomID: "ab12cd", Username: "alice", IsHost: true}))

	err := svc.JoinRoom(ctx, &JoinRoomParams{Conn: &websocket.Conn{}, RoomID: "ab12cd", Username: "bob", IsHost: false})
	assert.ErrorIs(t, err, ErrMembersLimitReached)
}
