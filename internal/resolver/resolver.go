// Package resolver turns raw user inputs into playable tracks. A
// routing resolver dispatches to the first capable inner resolver;
// order is policy (remote resolvers first so URLs are never misread as
// file paths).
package resolver

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/hxnx/aria/internal/player"
)

var ErrNoResolver = errors.New("no resolver can handle input")

type Resolver interface {
	// CanResolve is a cheap, non-I/O capability check.
	CanResolve(req player.TrackRequest) bool

	// Resolve expands the request into zero or more tracks.
	Resolve(ctx context.Context, req player.TrackRequest) ([]player.Track, error)
}

// Routing holds an ordered list of inner resolvers and yields
// exclusively from the first one that can handle the request.
type Routing struct {
	resolvers []Resolver
}

func NewRouting(resolvers ...Resolver) *Routing {
	return &Routing{resolvers: resolvers}
}

func (r *Routing) CanResolve(req player.TrackRequest) bool {
	for _, inner := range r.resolvers {
		if inner.CanResolve(req) {
			return true
		}
	}
	return false
}

func (r *Routing) Resolve(ctx context.Context, req player.TrackRequest) ([]player.Track, error) {
	for _, inner := range r.resolvers {
		if inner.CanResolve(req) {
			return inner.Resolve(ctx, req)
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrNoResolver, req.Raw)
}

// FirstTrack resolves the request and returns the first emission, with
// ok=false when the resolver yielded nothing.
func FirstTrack(ctx context.Context, r Resolver, req player.TrackRequest) (player.Track, bool, error) {
	tracks, err := r.Resolve(ctx, req)
	if err != nil {
		return player.Track{}, false, err
	}
	if len(tracks) == 0 {
		return player.Track{}, false, nil
	}
	return tracks[0], true, nil
}

func looksLikeURL(value string) bool {
	if strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://") {
		return true
	}
	u, err := url.Parse(value)
	return err == nil && u.Scheme != "" && u.Host != ""
}
