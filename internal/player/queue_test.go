package player

import "testing"

func track(uri string) Track {
	return Track{URI: uri, Title: uri, Kind: KindLocalFile}
}

func TestQueue_EnqueueBackPreservesOrder(t *testing.T) {
	q := NewTrackQueue()
	q.EnqueueBack(track("a"), track("b"), track("c"))

	for _, want := range []string{"a", "b", "c"} {
		got, ok := q.DequeueNext(false)
		if !ok {
			t.Fatalf("queue exhausted early, want %q", want)
		}
		if got.URI != want {
			t.Errorf("DequeueNext() = %q, want %q", got.URI, want)
		}
	}
	if _, ok := q.DequeueNext(false); ok {
		t.Error("DequeueNext() on empty queue should report not ok")
	}
}

func TestQueue_EnqueueFrontIsNextOut(t *testing.T) {
	q := NewTrackQueue()
	q.EnqueueBack(track("a"))
	q.EnqueueFront(track("b"))

	got, _ := q.DequeueNext(false)
	if got.URI != "b" {
		t.Errorf("first dequeue = %q, want b", got.URI)
	}
	got, _ = q.DequeueNext(false)
	if got.URI != "a" {
		t.Errorf("second dequeue = %q, want a", got.URI)
	}
}

func TestQueue_ShuffleDrainsEveryTrackOnce(t *testing.T) {
	q := NewTrackQueue()
	uris := []string{"a", "b", "c", "d", "e"}
	for _, u := range uris {
		q.EnqueueBack(track(u))
	}

	seen := map[string]int{}
	for range uris {
		got, ok := q.DequeueNext(true)
		if !ok {
			t.Fatal("queue exhausted early under shuffle")
		}
		seen[got.URI]++
	}

	if q.Len() != 0 {
		t.Errorf("Len() = %d after drain, want 0", q.Len())
	}
	for _, u := range uris {
		if seen[u] != 1 {
			t.Errorf("track %q dequeued %d times, want 1", u, seen[u])
		}
	}
}

func TestQueue_ShuffleVariesFirstPick(t *testing.T) {
	firsts := map[string]struct{}{}
	for trial := 0; trial < 50; trial++ {
		q := NewTrackQueue()
		q.EnqueueBack(track("a"), track("b"), track("c"), track("d"), track("e"))
		got, _ := q.DequeueNext(true)
		firsts[got.URI] = struct{}{}
	}
	if len(firsts) < 2 {
		t.Errorf("shuffle produced a single first pick across 50 trials: %v", firsts)
	}
}

func TestQueue_RemoveAllByURI(t *testing.T) {
	q := NewTrackQueue()
	q.EnqueueBack(track("a"), track("x"), track("b"), track("x"), track("c"))

	removed := q.RemoveAllByURI("x")
	if removed != 2 {
		t.Errorf("RemoveAllByURI removed %d, want 2", removed)
	}

	snap := q.Snapshot()
	want := []string{"a", "b", "c"}
	if len(snap) != len(want) {
		t.Fatalf("Len() = %d, want %d", len(snap), len(want))
	}
	for i, u := range want {
		if snap[i].URI != u {
			t.Errorf("survivor[%d] = %q, want %q", i, snap[i].URI, u)
		}
	}
}

func TestQueue_ClearAndSnapshotIsolation(t *testing.T) {
	q := NewTrackQueue()
	q.EnqueueBack(track("a"), track("b"))

	snap := q.Snapshot()
	q.Clear()

	if q.Len() != 0 {
		t.Errorf("Len() = %d after Clear, want 0", q.Len())
	}
	if len(snap) != 2 {
		t.Errorf("snapshot mutated by Clear: len = %d, want 2", len(snap))
	}
}
