// Package audio holds the concrete source and sink implementations
// behind the player's pipeline contracts: an ffmpeg decoder subprocess
// exposed as a byte reader, an ffplay subprocess as a back-pressuring
// sink, and a kind-based router over sources.
package audio

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"sync"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/hxnx/aria/internal/player"
)

// KillGrace is how long a subprocess gets to exit after a polite
// termination request before it is force-killed.
const KillGrace = 2 * time.Second

// FFmpegSource decodes a track's URI (file path or direct stream URL)
// to raw PCM in the given profile through an ffmpeg subprocess.
type FFmpegSource struct {
	Binary string
	Format player.PCMFormat
}

func NewFFmpegSource(binary string, format player.PCMFormat) *FFmpegSource {
	if binary == "" {
		binary = "ffmpeg"
	}
	if format == (player.PCMFormat{}) {
		format = player.DefaultPCMFormat
	}
	return &FFmpegSource{Binary: binary, Format: format}
}

func (s *FFmpegSource) OpenReader(ctx context.Context, track player.Track) (player.Reader, error) {
	return s.open(ctx, track.URI)
}

func (s *FFmpegSource) open(ctx context.Context, input string) (player.Reader, error) {
	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-i", input,
		"-vn",
		"-f", "s16le",
		"-ac", strconv.Itoa(s.Format.Channels),
		"-ar", strconv.Itoa(s.Format.SampleRate),
		"pipe:1",
	}

	cmd := exec.Command(s.Binary, args...)
	// Own process group so cancellation can take the whole tree down.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("transcoder stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("transcoder stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start transcoder: %w", err)
	}

	go drainStderr(s.Binary, stderr)

	r := &processReader{
		cmd:    cmd,
		stdout: stdout,
		grace:  KillGrace,
		closed: make(chan struct{}),
	}

	go func() {
		select {
		case <-ctx.Done():
			r.signal(syscall.SIGKILL)
		case <-r.closed:
		}
	}()

	return r, nil
}

func drainStderr(name string, stderr io.Reader) {
	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			log.WithField("proc", name).Debug(line)
		}
	}
}

// processReader exposes a subprocess stdout as a player.Reader. Reads
// are plain blocking pipe reads; cancellation unblocks them by killing
// the process group.
type processReader struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	grace  time.Duration

	closeOnce sync.Once
	closed    chan struct{}

	waitOnce sync.Once
	waitErr  error
}

func (r *processReader) Read(ctx context.Context, p []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	n, err := r.stdout.Read(p)
	if err == nil {
		return n, nil
	}
	if ctx.Err() != nil {
		return n, ctx.Err()
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
		// EOF may mean a clean end or the transcoder bailing out on a
		// bad input; the exit status tells them apart.
		if werr := r.wait(); werr != nil {
			return n, fmt.Errorf("transcoder exited: %w", werr)
		}
		return n, io.EOF
	}
	return n, err
}

// Close terminates the subprocess: SIGTERM to the group, bounded
// grace, then SIGKILL.
func (r *processReader) Close() error {
	r.closeOnce.Do(func() {
		close(r.closed)
		r.terminate()
		_ = r.stdout.Close()
	})
	return nil
}

func (r *processReader) terminate() {
	if r.cmd.Process == nil {
		return
	}
	r.signal(syscall.SIGTERM)

	waited := make(chan struct{})
	go func() {
		r.wait()
		close(waited)
	}()

	timer := time.NewTimer(r.grace)
	defer timer.Stop()
	select {
	case <-waited:
	case <-timer.C:
		r.signal(syscall.SIGKILL)
		<-waited
	}
}

func (r *processReader) signal(sig syscall.Signal) {
	if r.cmd.Process == nil {
		return
	}
	// Negative pid addresses the whole process group.
	_ = syscall.Kill(-r.cmd.Process.Pid, sig)
}

func (r *processReader) wait() error {
	r.waitOnce.Do(func() {
		r.waitErr = r.cmd.Wait()
	})
	return r.waitErr
}

// RemoteSource opens tracks whose URI needs a stream-URL resolution
// step (e.g. a video page URL) before ffmpeg can decode it.
type RemoteSource struct {
	ResolveStream func(ctx context.Context, uri string) (string, error)
	Inner         *FFmpegSource
}

func NewRemoteSource(resolve func(ctx context.Context, uri string) (string, error), inner *FFmpegSource) *RemoteSource {
	return &RemoteSource{ResolveStream: resolve, Inner: inner}
}

func (s *RemoteSource) OpenReader(ctx context.Context, track player.Track) (player.Reader, error) {
	streamURL, err := s.ResolveStream(ctx, track.URI)
	if err != nil {
		return nil, fmt.Errorf("resolve stream url: %w", err)
	}
	return s.Inner.open(ctx, streamURL)
}
