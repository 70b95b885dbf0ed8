package player

import "context"

// Source opens a PCM byte stream for a track. Implementations live in
// internal/audio; the engine only depends on the contract.
type Source interface {
	OpenReader(ctx context.Context, track Track) (Reader, error)
}

// Reader is an async byte reader over decoded PCM. Read returns 0 and
// io.EOF at end of stream. Close must terminate any backing subprocess
// within a bounded grace period.
type Reader interface {
	Read(ctx context.Context, p []byte) (int, error)
	Close() error
}

// Sink consumes PCM. A Write call that suspends constitutes
// back-pressure. Complete is a per-track flush hook and may be a no-op.
type Sink interface {
	Write(ctx context.Context, p []byte) error
	Complete(ctx context.Context) error
	Close() error
}
