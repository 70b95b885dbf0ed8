package audio

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/hxnx/aria/internal/player"
)

var ErrUnsupportedKind = errors.New("unsupported track kind")

// RoutingSource selects an inner source per track kind, with an
// optional fallback for unknown kinds.
type RoutingSource struct {
	routes   map[player.TrackKind]player.Source
	fallback player.Source
}

func NewRoutingSource(routes map[player.TrackKind]player.Source, fallback player.Source) *RoutingSource {
	return &RoutingSource{routes: routes, fallback: fallback}
}

func (s *RoutingSource) OpenReader(ctx context.Context, track player.Track) (player.Reader, error) {
	if inner, ok := s.routes[track.Kind]; ok {
		return inner.OpenReader(ctx, track)
	}
	if s.fallback != nil {
		return s.fallback.OpenReader(ctx, track)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedKind, track.Kind)
}

// Close disposes every distinct inner source exactly once; collected
// errors are aggregated.
func (s *RoutingSource) Close() error {
	seen := make(map[io.Closer]struct{})
	var errs []error

	closeOne := func(src player.Source) {
		closer, ok := src.(io.Closer)
		if !ok {
			return
		}
		if _, done := seen[closer]; done {
			return
		}
		seen[closer] = struct{}{}
		if err := closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	for _, inner := range s.routes {
		closeOne(inner)
	}
	if s.fallback != nil {
		closeOne(s.fallback)
	}
	return errors.Join(errs...)
}
