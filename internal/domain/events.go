package domain

// Event is one variant of the outbound message union. EventType is the
// discriminator written into the wire envelope.
type Event interface {
	EventType() string
}

const (
	EventUpdateParticipants = "update-participants"
	EventQueueUpdate        = "queue-update"
	EventSyncVideo          = "sync-video"
	EventChatMessage        = "chat-message"
	EventPlayerReadyAck     = "player-ready-ack"
)

// ParticipantsUpdated carries the full ordered participant list.
type ParticipantsUpdated []string

func (ParticipantsUpdated) EventType() string { return EventUpdateParticipants }

type QueueUpdated struct {
	Queue        []QueueEntry `json:"queue"`
	CurrentIndex int          `json:"currentIndex"`
	CurrentVideo *QueueEntry  `json:"currentVideo"`
}

func (QueueUpdated) EventType() string { return EventQueueUpdate }

// NewQueueUpdated snapshots a queue for broadcasting.
func NewQueueUpdated(q Queue) QueueUpdated {
	return QueueUpdated{
		Queue:        q.Clone().Entries,
		CurrentIndex: q.CurrentIndex,
		CurrentVideo: q.Current(),
	}
}

type SyncType string

const (
	SyncLoad  SyncType = "load"
	SyncPlay  SyncType = "play"
	SyncPause SyncType = "pause"
	SyncSeek  SyncType = "seek"
)

// SyncVideo is a player command. Load carries the video and title;
// play/pause/seek carry the timestamp.
type SyncVideo struct {
	Type        SyncType `json:"type"`
	VideoID     string   `json:"videoId,omitempty"`
	Title       string   `json:"title,omitempty"`
	CurrentTime *float64 `json:"currentTime,omitempty"`
}

func (SyncVideo) EventType() string { return EventSyncVideo }

func SyncLoadOf(videoID, title string) SyncVideo {
	return SyncVideo{Type: SyncLoad, VideoID: videoID, Title: title}
}

// SyncStateOf is the play-or-pause command matching the given state.
func SyncStateOf(isPlaying bool, currentTime float64) SyncVideo {
	t := SyncPause
	if isPlaying {
		t = SyncPlay
	}

	return SyncVideo{Type: t, CurrentTime: &currentTime}
}

func SyncControlOf(control ControlType, currentTime float64) SyncVideo {
	return SyncVideo{Type: SyncType(control), CurrentTime: &currentTime}
}

type ChatMessage struct {
	Username string `json:"username"`
	Message  string `json:"message"`
}

func (ChatMessage) EventType() string { return EventChatMessage }

// SystemMessage is a chat line attributed to the server itself.
func SystemMessage(message string) ChatMessage {
	return ChatMessage{Username: "System", Message: message}
}

type PlayerReadyAck struct{}

func (PlayerReadyAck) EventType() string { return EventPlayerReadyAck }
