package lavalink

import (
	"math/rand"
	"sync"

	"github.com/lunalink/lunalink/pkg/store"
)

// Queue is the ordered list of pending tracks for one player. Insertion
// order is playback order. Every mutation mirrors an encoded snapshot into
// the store under "queues.<guildId>" so a restarted process can rebuild the
// queue during session resume.
type Queue struct {
	mu      sync.Mutex
	guildID string
	store   store.Store
	tracks  []*Track
}

type queueSnapshot struct {
	Tracks []string `json:"tracks"`
}

func newQueue(guildID string, st store.Store) *Queue {
	return &Queue{guildID: guildID, store: st}
}

// persist mirrors the current contents to the store. Callers hold q.mu.
func (q *Queue) persist() {
	if q.store == nil {
		return
	}
	key := "queues." + q.guildID
	if len(q.tracks) == 0 {
		_ = q.store.Delete(key)
		return
	}
	snap := queueSnapshot{Tracks: make([]string, len(q.tracks))}
	for i, t := range q.tracks {
		snap.Tracks[i] = t.Encoded
	}
	_ = q.store.Set(key, snap)
}

// Add appends tracks to the tail.
func (q *Queue) Add(tracks ...*Track) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tracks = append(q.tracks, tracks...)
	q.persist()
}

// Unshift prepends a track to the head.
func (q *Queue) Unshift(t *Track) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tracks = append([]*Track{t}, q.tracks...)
	q.persist()
}

// Shift removes and returns the head, or nil when empty.
func (q *Queue) Shift() *Track {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.tracks) == 0 {
		return nil
	}
	t := q.tracks[0]
	q.tracks = q.tracks[1:]
	q.persist()
	return t
}

// Insert places a track at the given index, clamped to the queue bounds.
func (q *Queue) Insert(index int, t *Track) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if index < 0 {
		index = 0
	}
	if index > len(q.tracks) {
		index = len(q.tracks)
	}
	q.tracks = append(q.tracks[:index], append([]*Track{t}, q.tracks[index:]...)...)
	q.persist()
}

// Remove deletes and returns the track at index, or nil when out of range.
func (q *Queue) Remove(index int) *Track {
	q.mu.Lock()
	defer q.mu.Unlock()
	if index < 0 || index >= len(q.tracks) {
		return nil
	}
	t := q.tracks[index]
	q.tracks = append(q.tracks[:index], q.tracks[index+1:]...)
	q.persist()
	return t
}

// Get returns the track at index without removing it.
func (q *Queue) Get(index int) *Track {
	q.mu.Lock()
	defer q.mu.Unlock()
	if index < 0 || index >= len(q.tracks) {
		return nil
	}
	return q.tracks[index]
}

// All returns a copy of the queue contents.
func (q *Queue) All() []*Track {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]*Track, len(q.tracks))
	copy(out, q.tracks)
	return out
}

// SetTracks replaces the queue contents.
func (q *Queue) SetTracks(tracks []*Track) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tracks = append([]*Track(nil), tracks...)
	q.persist()
}

// Clear empties the queue.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tracks = nil
	q.persist()
}

// Shuffle randomizes the queue order.
func (q *Queue) Shuffle() {
	q.mu.Lock()
	defer q.mu.Unlock()
	rand.Shuffle(len(q.tracks), func(i, j int) {
		q.tracks[i], q.tracks[j] = q.tracks[j], q.tracks[i]
	})
	q.persist()
}

// Size reports the number of pending tracks. A non-zero size is the
// authoritative "has more to play" signal.
func (q *Queue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tracks)
}
