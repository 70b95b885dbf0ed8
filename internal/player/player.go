package player

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	log "github.com/sirupsen/logrus"
)

// DefaultQueueCapacity bounds the command channel.
const DefaultQueueCapacity = 256

var ErrPlayerClosed = errors.New("player is not running")

// Hooks let front-ends observe and shape player behaviour. Before
// hooks may transform their input; returning an empty slice or nil
// suppresses the action entirely.
type Hooks struct {
	OnStarted      func()
	OnStateChanged func(State)
	OnTrackChanged func(*Track)
	OnSessionEnded func(Track, EndResult)
	OnLoopFaulted  func(error)

	BeforeEnqueue func([]Track) []Track
	AfterEnqueue  func([]Track)
	BeforePlayNow func(Track) *Track
	AfterPlayNow  func(Track)
}

type Options struct {
	Source        Source
	Sink          Sink
	Format        PCMFormat // zero value selects DefaultPCMFormat
	QueueCapacity int
	Hooks         Hooks
}

// Player is the public transport surface. Every control call lowers to
// a command on the loop's channel, so all state transitions are
// serialised on the loop goroutine.
type Player struct {
	hooks Hooks
	loop  *loop

	repeat  atomic.Value // RepeatMode
	shuffle atomic.Bool

	lifetime context.Context
	cancel   context.CancelFunc
	done     chan struct{}

	started   atomic.Bool
	closed    atomic.Bool
	startOnce sync.Once
	closeOnce sync.Once
}

func New(opts Options) *Player {
	if opts.Format == (PCMFormat{}) {
		opts.Format = DefaultPCMFormat
	}
	if opts.QueueCapacity <= 0 {
		opts.QueueCapacity = DefaultQueueCapacity
	}

	p := &Player{
		hooks: opts.Hooks,
		done:  make(chan struct{}),
	}
	p.repeat.Store(RepeatNone)

	events := Events{
		OnStateChanged: p.hooks.OnStateChanged,
		OnTrackChanged: p.hooks.OnTrackChanged,
		OnSessionEnded: p.hooks.OnSessionEnded,
		OnLoopFaulted:  p.hooks.OnLoopFaulted,
	}
	p.loop = newLoop(opts.QueueCapacity, opts.Source, opts.Sink, opts.Format, events, &p.repeat, &p.shuffle)
	return p
}

// Start spawns the playback loop. Idempotent: the second call is a
// no-op.
func (p *Player) Start() {
	p.startOnce.Do(func() {
		ctx, cancel := context.WithCancel(context.Background())
		p.lifetime = ctx
		p.cancel = cancel
		p.started.Store(true)

		go func() {
			defer close(p.done)
			if err := p.loop.run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Error("playback loop terminated")
			}
		}()

		if p.hooks.OnStarted != nil {
			p.hooks.OnStarted()
		}
	})
}

// Enqueue appends tracks to the back of the queue, starting playback
// if the player is idle.
func (p *Player) Enqueue(tracks ...Track) error {
	if p.hooks.BeforeEnqueue != nil {
		tracks = p.hooks.BeforeEnqueue(tracks)
	}
	if len(tracks) == 0 {
		return nil
	}
	if err := p.send(enqueueTracksCmd{tracks: tracks}); err != nil {
		return err
	}
	if p.hooks.AfterEnqueue != nil {
		p.hooks.AfterEnqueue(tracks)
	}
	return nil
}

// PlayNow pre-empts the current session and plays the track
// immediately, removing any queued entries with the same URI.
func (p *Player) PlayNow(track Track) error {
	if p.hooks.BeforePlayNow != nil {
		t := p.hooks.BeforePlayNow(track)
		if t == nil {
			return nil
		}
		track = *t
	}
	if err := p.send(playNowCmd{track: track}); err != nil {
		return err
	}
	if p.hooks.AfterPlayNow != nil {
		p.hooks.AfterPlayNow(track)
	}
	return nil
}

func (p *Player) Pause() error {
	return p.send(pauseCmd{})
}

func (p *Player) Resume() error {
	return p.send(resumeCmd{})
}

func (p *Player) Skip() error {
	return p.send(skipCmd{})
}

// Stop cancels the current session and clears the queue. Errors from
// commanding a dead loop are logged and suppressed.
func (p *Player) Stop() {
	if err := p.send(stopCmd{}); err != nil {
		log.WithError(err).Debug("stop command dropped")
	}
}

func (p *Player) Clear() error {
	return p.send(clearCmd{})
}

func (p *Player) State() State {
	return p.loop.stateMirror.Load().(State)
}

func (p *Player) RepeatMode() RepeatMode {
	return p.repeat.Load().(RepeatMode)
}

func (p *Player) SetRepeatMode(mode RepeatMode) {
	p.repeat.Store(mode)
}

func (p *Player) Shuffle() bool {
	return p.shuffle.Load()
}

func (p *Player) SetShuffle(enabled bool) {
	p.shuffle.Store(enabled)
}

// CurrentSession returns a snapshot of the live session, or nil.
func (p *Player) CurrentSession() *SessionInfo {
	return p.loop.infoMirror.Load()
}

// QueueSnapshot returns a copy of the pending queue.
func (p *Player) QueueSnapshot() []Track {
	return p.loop.queueMirror.Load().([]Track)
}

// Close performs a soft stop, cancels the loop lifetime and awaits its
// termination. The loop disposes the sink and any live session on the
// way out.
func (p *Player) Close() error {
	p.closeOnce.Do(func() {
		p.closed.Store(true)
		if !p.started.Load() {
			return
		}
		// Soft stop, enqueued directly: send() already rejects
		// everything now that the closed flag is up.
		select {
		case p.loop.cmds <- stopCmd{}:
		default:
		}
		p.cancel()
		<-p.done
	})
	return nil
}

func (p *Player) send(cmd command) error {
	// The closed flag is checked before touching the channel: once the
	// loop is gone, both select cases below could be ready at once and
	// a command would nondeterministically vanish into the dead
	// channel instead of erroring.
	if !p.started.Load() || p.closed.Load() {
		return ErrPlayerClosed
	}
	select {
	case p.loop.cmds <- cmd:
		return nil
	case <-p.lifetime.Done():
		return ErrPlayerClosed
	}
}
