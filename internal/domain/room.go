package domain

import "slices"

// Room is the aggregate addressed by one opaque key: participants,
// playback state and queue share a single lifecycle. Version counts
// queue mutations and guards deferred emissions against firing for a
// state that has since moved on.
type Room struct {
	Participants []string      `json:"participants"`
	Player       PlaybackState `json:"player"`
	Queue        Queue         `json:"queue"`
	Version      uint64        `json:"version"`
}

func NewRoom() *Room {
	return &Room{
		Participants: []string{},
		Queue:        NewQueue(),
	}
}

// AddParticipant appends the name. Names are not unique identifiers,
// so duplicates are kept.
func (r *Room) AddParticipant(username string) {
	r.Participants = append(r.Participants, username)
}

// RemoveParticipant removes the first occurrence of the name.
func (r *Room) RemoveParticipant(username string) bool {
	i := slices.Index(r.Participants, username)
	if i < 0 {
		return false
	}

	r.Participants = slices.Delete(r.Participants, i, i+1)
	return true
}

func (r *Room) Empty() bool {
	return len(r.Participants) == 0
}

func (r *Room) Clone() *Room {
	return &Room{
		Participants: slices.Clone(r.Participants),
		Player:       r.Player,
		Queue:        r.Queue.Clone(),
		Version:      r.Version,
	}
}
