package domain

import "slices"

// QueueEntry is immutable once created; removal is the only mutation
// to its existence.
type QueueEntry struct {
	VideoID string `json:"videoId"`
	Title   string `json:"title"`
	AddedBy string `json:"addedBy"`
}

// Queue is an ordered list of entries plus a cursor to the currently
// playing one. CurrentIndex is -1 or a valid index into Entries.
type Queue struct {
	Entries      []QueueEntry `json:"entries"`
	CurrentIndex int          `json:"currentIndex"`
}

func NewQueue() Queue {
	return Queue{Entries: []QueueEntry{}, CurrentIndex: -1}
}

func (q Queue) Len() int {
	return len(q.Entries)
}

func (q Queue) EntryAt(index int) (QueueEntry, bool) {
	if index < 0 || index >= len(q.Entries) {
		return QueueEntry{}, false
	}

	return q.Entries[index], true
}

// Current returns the entry under the cursor, or nil when nothing is
// selected.
func (q Queue) Current() *QueueEntry {
	entry, ok := q.EntryAt(q.CurrentIndex)
	if !ok {
		return nil
	}

	return &entry
}

// Add appends an entry and reports whether it became the current one,
// which happens only when the queue was empty and idle.
func (q *Queue) Add(entry QueueEntry) bool {
	q.Entries = append(q.Entries, entry)
	if q.CurrentIndex == -1 && len(q.Entries) == 1 {
		q.CurrentIndex = 0
		return true
	}

	return false
}

// Advance moves the cursor to the next entry. When the cursor is already
// at the last entry it resets to -1 and Advance reports false.
func (q *Queue) Advance() bool {
	if q.CurrentIndex < len(q.Entries)-1 {
		q.CurrentIndex++
		return true
	}

	q.CurrentIndex = -1
	return false
}

// Select moves the cursor to index; out-of-range indexes are rejected.
func (q *Queue) Select(index int) bool {
	if index < 0 || index >= len(q.Entries) {
		return false
	}

	q.CurrentIndex = index
	return true
}

type RemoveOutcome int

const (
	// RemoveOutOfRange means the queue was not touched.
	RemoveOutOfRange RemoveOutcome = iota
	// RemoveNoPlaybackChange means an entry other than the current one
	// was removed; the cursor still points at the same logical entry.
	RemoveNoPlaybackChange
	// RemoveNewCurrent means the current entry was removed and another
	// entry took its place under the cursor.
	RemoveNewCurrent
	// RemoveCleared means the current entry was removed and nothing is
	// left to play.
	RemoveCleared
)

// Remove deletes the entry at index, adjusting the cursor so it keeps
// pointing at the same logical entry where possible.
func (q *Queue) Remove(index int) RemoveOutcome {
	if index < 0 || index >= len(q.Entries) {
		return RemoveOutOfRange
	}

	q.Entries = slices.Delete(q.Entries, index, index+1)

	if index == q.CurrentIndex {
		if q.CurrentIndex >= len(q.Entries) {
			q.CurrentIndex = len(q.Entries) - 1
		}
		if q.CurrentIndex >= 0 {
			return RemoveNewCurrent
		}

		return RemoveCleared
	}

	if index < q.CurrentIndex {
		q.CurrentIndex--
	}

	return RemoveNoPlaybackChange
}

func (q Queue) Clone() Queue {
	return Queue{
		Entries:      slices.Clone(q.Entries),
		CurrentIndex: q.CurrentIndex,
	}
}
