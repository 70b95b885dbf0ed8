package player

import (
	"context"
	"fmt"
	"sync/atomic"

	log "github.com/sirupsen/logrus"
)

// Events are emitted synchronously from the loop goroutine, never from
// inside externally owned locks.
type Events struct {
	OnStateChanged func(State)
	OnTrackChanged func(*Track)
	OnSessionEnded func(Track, EndResult)
	OnLoopFaulted  func(error)
}

// loop is the single consumer of the command channel. It exclusively
// owns the queue and the current session; every state transition runs
// on the loop goroutine.
type loop struct {
	cmds   chan command
	queue  *TrackQueue
	source Source
	sink   Sink
	format PCMFormat
	events Events

	// Shared with facade setters. Benign races: the latest observed
	// value wins at dequeue / repeat-policy time.
	repeat  *atomic.Value
	shuffle *atomic.Bool

	// Loop-goroutine only.
	state    State
	stopping bool
	current  *session

	// Read-only projections for the facade.
	stateMirror atomic.Value // State
	infoMirror  atomic.Pointer[SessionInfo]
	queueMirror atomic.Value // []Track
}

func newLoop(capacity int, source Source, sink Sink, format PCMFormat, events Events, repeat *atomic.Value, shuffle *atomic.Bool) *loop {
	l := &loop{
		cmds:    make(chan command, capacity),
		queue:   NewTrackQueue(),
		source:  source,
		sink:    sink,
		format:  format,
		events:  events,
		repeat:  repeat,
		shuffle: shuffle,
		state:   StateIdle,
	}
	l.stateMirror.Store(StateIdle)
	l.queueMirror.Store([]Track{})
	return l
}

// run consumes commands until the lifetime context is cancelled. A
// fault escaping the loop body terminates it and fires OnLoopFaulted;
// the cancellation sentinel does not.
func (l *loop) run(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("playback loop fault: %v", r)
		}
		l.shutdown()
		if err != nil && err != context.Canceled && l.events.OnLoopFaulted != nil {
			l.events.OnLoopFaulted(err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return context.Canceled
		case cmd := <-l.cmds:
			l.step(ctx, cmd)
		}
	}
}

func (l *loop) step(ctx context.Context, cmd command) {
	l.handle(ctx, cmd)
	l.autostart(ctx)
	l.publishMirrors()
}

// handle dispatches one command. Panics here are contained so a bad
// handler cannot take the whole loop down. Session construction in
// autostart is deliberately not shielded; the one PlayNow performs
// runs inside handle and is.
func (l *loop) handle(ctx context.Context, cmd command) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("command %T panicked: %v", cmd, r)
		}
	}()

	switch c := cmd.(type) {
	case enqueueTracksCmd:
		l.queue.EnqueueBack(c.tracks...)
		if l.state == StateStopped && l.current == nil {
			// Re-arm after Stop. The observable transition is the
			// StateChanged(Playing) emitted by autostart.
			l.state = StateIdle
		}

	case playNowCmd:
		l.reapCurrent()
		l.queue.RemoveAllByURI(c.track.URI)
		l.startTrack(ctx, c.track)

	case pauseCmd:
		if l.current != nil && l.state == StatePlaying {
			l.current.pause()
			l.setState(StatePaused)
		}

	case resumeCmd:
		if l.current != nil && l.state == StatePaused {
			l.current.resume()
			l.setState(StatePlaying)
		}

	case skipCmd:
		if l.current != nil {
			l.current.cancel()
			l.current.dispose()
		}

	case stopCmd:
		l.queue.Clear()
		if l.current != nil {
			l.stopping = true
			l.current.cancel()
			l.current.dispose()
		} else {
			l.setState(StateStopped)
		}

	case clearCmd:
		l.queue.Clear()

	case sessionEndedCmd:
		if c.session != l.current {
			// Session was already reaped by PlayNow or shutdown.
			return
		}
		l.finishCurrent(c.session.await())
	}
}

func (l *loop) finishCurrent(res EndResult) {
	s := l.current
	l.current = nil
	s.dispose()
	l.emitSessionEnded(s.track, res)

	// Re-enqueue is keyed off natural completion only: a skipped or
	// failed track never comes back, regardless of repeat mode. A
	// completion that races a Stop does not either, so Stop always
	// leaves the queue empty.
	if res.Reason == EndCompleted && !l.stopping {
		switch l.repeatMode() {
		case RepeatOne:
			l.queue.EnqueueFront(s.track)
		case RepeatAll:
			l.queue.EnqueueBack(s.track)
		}
	}

	if l.stopping {
		l.stopping = false
		l.setState(StateStopped)
	}
}

// reapCurrent cancels and awaits the current session synchronously so
// its successor cannot start before it is fully disposed. The stale
// sessionEnded command it already queued is dropped by the pointer
// check in handle.
func (l *loop) reapCurrent() {
	if l.current == nil {
		return
	}
	s := l.current
	l.current = nil
	s.cancel()
	s.dispose()
	res := s.await()
	l.emitSessionEnded(s.track, res)
}

// autostart runs after every command: no session, non-empty queue and
// not stopped means the next track begins.
func (l *loop) autostart(ctx context.Context) {
	if l.current != nil || l.state == StateStopped {
		return
	}

	track, ok := l.queue.DequeueNext(l.shuffle.Load())
	if !ok {
		if l.state == StatePlaying || l.state == StatePaused {
			l.emitTrackChanged(nil)
			l.setState(StateIdle)
		}
		return
	}
	l.startTrack(ctx, track)
}

func (l *loop) startTrack(ctx context.Context, track Track) {
	s := newSession(ctx, track, l.source, l.sink, l.format)
	l.current = s
	l.setState(StatePlaying)
	l.emitTrackChanged(&track)

	go func() {
		s.run()
		select {
		case l.cmds <- sessionEndedCmd{session: s}:
		case <-ctx.Done():
		}
	}()
}

func (l *loop) shutdown() {
	if l.current != nil {
		s := l.current
		l.current = nil
		s.cancel()
		s.dispose()
		res := s.await()
		l.emitSessionEnded(s.track, res)
	}
	if l.sink != nil {
		if err := l.sink.Close(); err != nil {
			log.WithError(err).Warn("sink close failed")
		}
	}
	l.publishMirrors()
}

func (l *loop) setState(st State) {
	if l.state == st {
		return
	}
	l.state = st
	l.stateMirror.Store(st)
	if l.events.OnStateChanged != nil {
		l.events.OnStateChanged(st)
	}
}

func (l *loop) emitTrackChanged(t *Track) {
	if l.events.OnTrackChanged != nil {
		l.events.OnTrackChanged(t)
	}
}

func (l *loop) emitSessionEnded(t Track, res EndResult) {
	if l.events.OnSessionEnded != nil {
		l.events.OnSessionEnded(t, res)
	}
}

func (l *loop) repeatMode() RepeatMode {
	if v, ok := l.repeat.Load().(RepeatMode); ok {
		return v
	}
	return RepeatNone
}

func (l *loop) publishMirrors() {
	l.stateMirror.Store(l.state)
	l.queueMirror.Store(l.queue.Snapshot())
	if l.current != nil {
		info := l.current.info(l.state)
		l.infoMirror.Store(&info)
	} else {
		l.infoMirror.Store(nil)
	}
}
