package player

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	// MaxAttempts bounds how often a session retries a transient
	// source failure before reporting EndFailed.
	MaxAttempts    = 3
	retryBaseDelay = 200 * time.Millisecond

	progressByteStep = 1 << 20
	progressTimeStep = 5 * time.Second
)

// session drives one track through the source→gate→sink copy pipeline.
// It is owned exclusively by the loop; termination is reported back as
// a sessionEnded command.
type session struct {
	track     Track
	source    Source
	sink      Sink
	format    PCMFormat
	gate      *PauseGate
	startedAt time.Time

	ctx    context.Context
	cancel context.CancelFunc

	done   chan struct{}
	result EndResult
}

func newSession(parent context.Context, track Track, source Source, sink Sink, format PCMFormat) *session {
	ctx, cancel := context.WithCancel(parent)
	return &session{
		track:     track,
		source:    source,
		sink:      sink,
		format:    format,
		gate:      NewPauseGate(true),
		startedAt: time.Now().UTC(),
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
}

// run executes the session to completion, records the result and
// releases await callers. Called exactly once, on the session
// goroutine.
func (s *session) run() EndResult {
	res := s.play()
	s.result = res
	close(s.done)
	return res
}

// sinkError marks a sink failure as fatal: unlike source errors it is
// never retried.
type sinkError struct {
	op  string
	err error
}

func (e *sinkError) Error() string { return "sink " + e.op + ": " + e.err.Error() }
func (e *sinkError) Unwrap() error { return e.err }

func (s *session) play() EndResult {
	var lastErr error
	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		err := s.attempt(s.ctx)
		if err == nil {
			return EndResult{Reason: EndCompleted}
		}
		if s.ctx.Err() != nil || errors.Is(err, context.Canceled) {
			return EndResult{Reason: EndCancelled}
		}

		var se *sinkError
		if errors.As(err, &se) {
			return EndResult{Reason: EndFailed, Details: err.Error(), Err: err}
		}

		lastErr = err
		log.WithError(err).WithField("track", s.track.URI).
			Warnf("playback attempt %d/%d failed", attempt, MaxAttempts)

		if attempt < MaxAttempts {
			select {
			case <-time.After(time.Duration(attempt) * retryBaseDelay):
			case <-s.ctx.Done():
				return EndResult{Reason: EndCancelled}
			}
		}
	}

	details := "maximum attempts reached"
	if lastErr != nil {
		details = lastErr.Error()
	}
	return EndResult{Reason: EndFailed, Details: details, Err: lastErr}
}

// attempt performs one open→copy→complete pass. The pause gate is
// awaited before each read so no decoded input is stranded mid-write
// while paused.
func (s *session) attempt(ctx context.Context) error {
	reader, err := s.source.OpenReader(ctx, s.track)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer reader.Close()

	bufp := copyBuffers.Get().(*[]byte)
	defer copyBuffers.Put(bufp)
	buf := *bufp

	var total, reportedBytes int64
	var reportedPos time.Duration

	for {
		if err := s.gate.Wait(ctx); err != nil {
			return err
		}

		n, rerr := reader.Read(ctx, buf)
		if n > 0 {
			if werr := s.sink.Write(ctx, buf[:n]); werr != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return &sinkError{op: "write", err: werr}
			}
			total += int64(n)

			pos := s.format.Position(total)
			if total-reportedBytes >= progressByteStep || pos-reportedPos >= progressTimeStep {
				reportedBytes = total
				reportedPos = pos
				log.WithFields(log.Fields{
					"track":    s.track.URI,
					"position": pos,
					"bytes":    total,
				}).Debug("playback progress")
			}
		}
		if rerr != nil {
			if errors.Is(rerr, io.EOF) {
				break
			}
			return fmt.Errorf("source read: %w", rerr)
		}
		if n == 0 {
			break
		}
	}

	if err := s.sink.Complete(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &sinkError{op: "complete", err: err}
	}
	return nil
}

func (s *session) pause() {
	s.gate.Reset()
}

func (s *session) resume() {
	s.gate.Set()
}

// dispose releases any parked pause waiter. The owner cancels the
// session context before calling this.
func (s *session) dispose() {
	s.gate.Set()
}

// await blocks until run has stored the final result.
func (s *session) await() EndResult {
	<-s.done
	return s.result
}

func (s *session) info(state State) SessionInfo {
	return SessionInfo{Track: s.track, State: state, StartedAt: s.startedAt}
}
