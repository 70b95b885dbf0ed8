package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/hxnx/aria/internal/player"
)

var ErrResolveFailed = errors.New("failed to resolve track metadata")

// YTDLP resolves remote media URLs (and free-text searches with a
// remote kind hint) through the yt-dlp binary. Resolution results are
// cached with a TTL when a RequestCache is attached; a zero TTL
// disables caching.
type YTDLP struct {
	Binary string
	Cache  RequestCache
	TTL    time.Duration
}

func NewYTDLP(binary string, cache RequestCache, ttl time.Duration) *YTDLP {
	if binary == "" {
		binary = "yt-dlp"
	}
	return &YTDLP{Binary: binary, Cache: cache, TTL: ttl}
}

func (r *YTDLP) CanResolve(req player.TrackRequest) bool {
	if req.KindHint == player.KindRemote {
		return true
	}
	if req.KindHint == player.KindLocalFile {
		return false
	}
	return looksLikeURL(req.Raw)
}

func (r *YTDLP) Resolve(ctx context.Context, req player.TrackRequest) ([]player.Track, error) {
	target := strings.TrimSpace(req.Raw)
	if target == "" {
		return nil, fmt.Errorf("%w: empty input", ErrResolveFailed)
	}
	if !looksLikeURL(target) {
		target = "ytsearch1:" + target
	}

	cacheKey := target
	if r.Cache != nil {
		if tracks, ok := r.Cache.TryGet(ctx, cacheKey); ok {
			return tracks, nil
		}
	}

	args := []string{
		"--no-warnings",
		"--dump-single-json",
		"--skip-download",
		"--no-playlist",
		target,
	}

	cmd := exec.CommandContext(ctx, r.Binary, args...)
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%w: yt-dlp failed: %v", ErrResolveFailed, commandError(err))
	}

	var root ytDLPItem
	if err := json.Unmarshal(output, &root); err != nil {
		return nil, fmt.Errorf("%w: invalid json: %v", ErrResolveFailed, err)
	}

	items := root.Entries
	if len(items) == 0 {
		items = []ytDLPItem{root}
	}

	tracks := make([]player.Track, 0, len(items))
	for _, item := range items {
		link := item.WebpageURL
		if link == "" {
			link = item.URL
		}
		if link == "" {
			continue
		}

		title := strings.TrimSpace(item.Title)
		if title == "" {
			title = "Unknown Title"
		}

		duration := time.Duration(item.Duration * float64(time.Second))
		if duration < 0 {
			duration = 0
		}

		tracks = append(tracks, player.Track{
			URI:      link,
			Title:    title,
			Kind:     player.KindRemote,
			Duration: duration,
		})
	}

	if len(tracks) == 0 {
		return nil, fmt.Errorf("%w: no usable entries", ErrResolveFailed)
	}

	if r.Cache != nil {
		r.Cache.Set(ctx, cacheKey, tracks, r.TTL)
	}
	return tracks, nil
}

// ResolveStreamURL asks yt-dlp for the best-audio stream URL of a
// remote track, for handing to the transcoder.
func (r *YTDLP) ResolveStreamURL(ctx context.Context, uri string) (string, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return "", fmt.Errorf("%w: empty input", ErrResolveFailed)
	}

	args := []string{
		"--no-warnings",
		"-f", "bestaudio",
		"-g",
		"--no-playlist",
		uri,
	}

	cmd := exec.CommandContext(ctx, r.Binary, args...)
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("%w: yt-dlp failed: %v", ErrResolveFailed, commandError(err))
	}

	streamURL := strings.TrimSpace(string(output))
	if idx := strings.IndexByte(streamURL, '\n'); idx >= 0 {
		streamURL = streamURL[:idx]
	}
	if streamURL == "" {
		return "", fmt.Errorf("%w: empty stream url", ErrResolveFailed)
	}
	return streamURL, nil
}

type ytDLPItem struct {
	ID         string      `json:"id"`
	Title      string      `json:"title"`
	WebpageURL string      `json:"webpage_url"`
	URL        string      `json:"url"`
	Duration   float64     `json:"duration"`
	Entries    []ytDLPItem `json:"entries"`
}

func commandError(err error) string {
	var exit *exec.ExitError
	if errors.As(err, &exit) && len(exit.Stderr) > 0 {
		return fmt.Sprintf("%v: %s", err, strings.TrimSpace(string(exit.Stderr)))
	}
	return err.Error()
}
