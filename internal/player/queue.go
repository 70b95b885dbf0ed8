package player

import (
	"math/rand"
	"time"
)

// TrackQueue is an ordered sequence of tracks. It is not goroutine
// safe: the playback loop is its only mutator, and external reads go
// through snapshots published by the loop.
type TrackQueue struct {
	tracks []Track
	rng    *rand.Rand
}

func NewTrackQueue() *TrackQueue {
	return &TrackQueue{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// EnqueueBack appends tracks preserving their order.
func (q *TrackQueue) EnqueueBack(tracks ...Track) {
	q.tracks = append(q.tracks, tracks...)
}

// EnqueueFront makes the track the next one dequeued in sequential
// mode.
func (q *TrackQueue) EnqueueFront(track Track) {
	q.tracks = append([]Track{track}, q.tracks...)
}

// DequeueNext removes and returns the front track, or a uniformly
// random one when shuffle is set. The second return is false on an
// empty queue.
func (q *TrackQueue) DequeueNext(shuffle bool) (Track, bool) {
	if len(q.tracks) == 0 {
		return Track{}, false
	}

	idx := 0
	if shuffle {
		idx = q.rng.Intn(len(q.tracks))
	}

	track := q.tracks[idx]
	q.tracks = append(q.tracks[:idx], q.tracks[idx+1:]...)
	return track, true
}

// RemoveAllByURI removes every track whose URI matches, preserving the
// relative order of survivors. Returns the number removed.
func (q *TrackQueue) RemoveAllByURI(uri string) int {
	kept := q.tracks[:0]
	removed := 0
	for _, t := range q.tracks {
		if t.URI == uri {
			removed++
			continue
		}
		kept = append(kept, t)
	}
	q.tracks = kept
	return removed
}

func (q *TrackQueue) Clear() {
	q.tracks = nil
}

// Snapshot returns a copy of the queue contents.
func (q *TrackQueue) Snapshot() []Track {
	out := make([]Track, len(q.tracks))
	copy(out, q.tracks)
	return out
}

func (q *TrackQueue) Len() int {
	return len(q.tracks)
}
