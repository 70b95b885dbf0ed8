package resolver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hxnx/aria/internal/player"
)

var ErrNotAFile = errors.New("input is not a playable file")

// LocalFile resolves filesystem paths into local tracks. It claims
// anything that is not a URL, so it belongs at the end of the routing
// order.
type LocalFile struct{}

func NewLocalFile() *LocalFile {
	return &LocalFile{}
}

func (r *LocalFile) CanResolve(req player.TrackRequest) bool {
	if req.KindHint == player.KindLocalFile {
		return true
	}
	if req.KindHint == player.KindRemote {
		return false
	}
	return !looksLikeURL(req.Raw)
}

func (r *LocalFile) Resolve(_ context.Context, req player.TrackRequest) ([]player.Track, error) {
	path := strings.TrimSpace(req.Raw)
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrNotAFile)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotAFile, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotAFile, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrNotAFile, abs)
	}

	title := strings.TrimSuffix(filepath.Base(abs), filepath.Ext(abs))
	return []player.Track{{
		URI:   abs,
		Title: title,
		Kind:  player.KindLocalFile,
	}}, nil
}
