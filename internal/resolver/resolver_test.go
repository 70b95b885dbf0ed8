package resolver

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hxnx/aria/internal/player"
)

type stubResolver struct {
	can    func(player.TrackRequest) bool
	tracks []player.Track
	err    error
	calls  int
}

func (s *stubResolver) CanResolve(req player.TrackRequest) bool {
	return s.can(req)
}

func (s *stubResolver) Resolve(_ context.Context, _ player.TrackRequest) ([]player.Track, error) {
	s.calls++
	return s.tracks, s.err
}

type memCache struct {
	entries map[string][]player.Track
	hits    int
	sets    int
}

func newMemCache() *memCache {
	return &memCache{entries: map[string][]player.Track{}}
}

func (c *memCache) TryGet(_ context.Context, key string) ([]player.Track, bool) {
	tracks, ok := c.entries[key]
	if ok {
		c.hits++
	}
	return tracks, ok
}

func (c *memCache) Set(_ context.Context, key string, tracks []player.Track, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.sets++
	c.entries[key] = tracks
}

func writeTempAudio(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("not really audio"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRouting_LocalPathGoesToLocalResolver(t *testing.T) {
	path := writeTempAudio(t, "a.mp3")

	remote := &stubResolver{can: func(req player.TrackRequest) bool {
		return looksLikeURL(req.Raw)
	}}
	routing := NewRouting(remote, NewLocalFile())

	tracks, err := routing.Resolve(context.Background(), player.TrackRequest{Raw: path})
	if err != nil {
		t.Fatalf("Resolve(%q) err = %v", path, err)
	}
	if len(tracks) != 1 {
		t.Fatalf("Resolve returned %d tracks, want 1", len(tracks))
	}
	if tracks[0].URI != path {
		t.Errorf("track uri = %q, want %q", tracks[0].URI, path)
	}
	if tracks[0].Kind != player.KindLocalFile {
		t.Errorf("track kind = %q, want local", tracks[0].Kind)
	}
	if remote.calls != 0 {
		t.Errorf("remote resolver was consulted %d times for a file path", remote.calls)
	}
}

func TestRouting_URLGoesToRemoteResolver(t *testing.T) {
	remote := &stubResolver{
		can:    func(req player.TrackRequest) bool { return looksLikeURL(req.Raw) },
		tracks: []player.Track{{URI: "https://x/y", Title: "y", Kind: player.KindRemote}},
	}
	routing := NewRouting(remote, NewLocalFile())

	tracks, err := routing.Resolve(context.Background(), player.TrackRequest{Raw: "https://x/y"})
	if err != nil {
		t.Fatalf("Resolve err = %v", err)
	}
	if remote.calls != 1 {
		t.Fatalf("remote resolver calls = %d, want 1", remote.calls)
	}
	if len(tracks) != 1 || tracks[0].Kind != player.KindRemote {
		t.Fatalf("unexpected tracks: %+v", tracks)
	}
}

func TestRouting_FirstCapableWinsExclusively(t *testing.T) {
	first := &stubResolver{
		can:    func(player.TrackRequest) bool { return true },
		tracks: []player.Track{{URI: "first"}},
	}
	second := &stubResolver{
		can:    func(player.TrackRequest) bool { return true },
		tracks: []player.Track{{URI: "second"}},
	}
	routing := NewRouting(first, second)

	tracks, err := routing.Resolve(context.Background(), player.TrackRequest{Raw: "anything"})
	if err != nil {
		t.Fatal(err)
	}
	if tracks[0].URI != "first" {
		t.Errorf("got %q, want the first capable resolver's output", tracks[0].URI)
	}
	if second.calls != 0 {
		t.Errorf("second resolver called %d times, want 0", second.calls)
	}
}

func TestRouting_NoHandlerError(t *testing.T) {
	never := &stubResolver{can: func(player.TrackRequest) bool { return false }}
	routing := NewRouting(never)

	if routing.CanResolve(player.TrackRequest{Raw: "x"}) {
		t.Error("CanResolve should be false when no inner resolver matches")
	}

	_, err := routing.Resolve(context.Background(), player.TrackRequest{Raw: "x"})
	if !errors.Is(err, ErrNoResolver) {
		t.Errorf("Resolve err = %v, want ErrNoResolver", err)
	}
}

func TestFirstTrack(t *testing.T) {
	some := &stubResolver{
		can:    func(player.TrackRequest) bool { return true },
		tracks: []player.Track{{URI: "a"}, {URI: "b"}},
	}
	tr, ok, err := FirstTrack(context.Background(), some, player.TrackRequest{Raw: "x"})
	if err != nil || !ok || tr.URI != "a" {
		t.Errorf("FirstTrack = %+v, %v, %v; want track a", tr, ok, err)
	}

	empty := &stubResolver{can: func(player.TrackRequest) bool { return true }}
	_, ok, err = FirstTrack(context.Background(), empty, player.TrackRequest{Raw: "x"})
	if err != nil || ok {
		t.Errorf("FirstTrack on empty yield = ok=%v err=%v, want absent", ok, err)
	}
}

func TestLocalFile_RejectsMissingAndDirectories(t *testing.T) {
	r := NewLocalFile()

	if _, err := r.Resolve(context.Background(), player.TrackRequest{Raw: "/does/not/exist.mp3"}); !errors.Is(err, ErrNotAFile) {
		t.Errorf("missing file err = %v, want ErrNotAFile", err)
	}

	dir := t.TempDir()
	if _, err := r.Resolve(context.Background(), player.TrackRequest{Raw: dir}); !errors.Is(err, ErrNotAFile) {
		t.Errorf("directory err = %v, want ErrNotAFile", err)
	}
}

func TestLocalFile_TitleFromBaseName(t *testing.T) {
	path := writeTempAudio(t, "my song.flac")

	tracks, err := NewLocalFile().Resolve(context.Background(), player.TrackRequest{Raw: path})
	if err != nil {
		t.Fatal(err)
	}
	if tracks[0].Title != "my song" {
		t.Errorf("title = %q, want %q", tracks[0].Title, "my song")
	}
}

func TestYTDLP_CanResolveHonorsHints(t *testing.T) {
	r := NewYTDLP("yt-dlp", nil, 0)

	cases := []struct {
		req  player.TrackRequest
		want bool
	}{
		{player.TrackRequest{Raw: "https://example.com/v"}, true},
		{player.TrackRequest{Raw: "some search", KindHint: player.KindRemote}, true},
		{player.TrackRequest{Raw: "/tmp/a.mp3"}, false},
		{player.TrackRequest{Raw: "https://example.com/v", KindHint: player.KindLocalFile}, false},
	}
	for _, c := range cases {
		if got := r.CanResolve(c.req); got != c.want {
			t.Errorf("CanResolve(%+v) = %v, want %v", c.req, got, c.want)
		}
	}
}

func TestYTDLP_CacheHitSkipsProcess(t *testing.T) {
	cache := newMemCache()
	cached := []player.Track{{URI: "https://x/y", Title: "cached", Kind: player.KindRemote}}
	cache.entries["https://x/y"] = cached

	// A missing binary guarantees the test fails loudly if the
	// resolver reaches for the subprocess despite the cache hit.
	r := NewYTDLP("definitely-not-a-binary", cache, time.Minute)

	tracks, err := r.Resolve(context.Background(), player.TrackRequest{Raw: "https://x/y"})
	if err != nil {
		t.Fatalf("Resolve err = %v, want cache hit", err)
	}
	if len(tracks) != 1 || tracks[0].Title != "cached" {
		t.Fatalf("tracks = %+v, want cached entry", tracks)
	}
	if cache.hits != 1 {
		t.Errorf("cache hits = %d, want 1", cache.hits)
	}
}

func TestMemCache_ZeroTTLDisables(t *testing.T) {
	cache := newMemCache()
	cache.Set(context.Background(), "k", []player.Track{{URI: "u"}}, 0)
	if _, ok := cache.TryGet(context.Background(), "k"); ok {
		t.Error("zero TTL must disable caching")
	}
}
