package player

import (
	"sync"
	"time"
)

// PCMFormat describes the raw audio interchange profile between source
// and sink.
type PCMFormat struct {
	SampleRate     int
	Channels       int
	BytesPerSample int
}

// DefaultPCMFormat is the only profile traversed through the pipeline:
// 48 kHz, stereo, signed 16-bit little-endian.
var DefaultPCMFormat = PCMFormat{
	SampleRate:     48000,
	Channels:       2,
	BytesPerSample: 2,
}

// BytesPerSecond returns the byte rate of the profile.
func (f PCMFormat) BytesPerSecond() int {
	return f.SampleRate * f.Channels * f.BytesPerSample
}

// Position converts a byte count into a stream position.
func (f PCMFormat) Position(bytes int64) time.Duration {
	bps := f.BytesPerSecond()
	if bps <= 0 {
		return 0
	}
	millis := bytes * 1000 / int64(bps)
	return time.Duration(millis) * time.Millisecond
}

// DefaultBufferSize is the size of the pooled transfer buffers used by
// the copy loop.
const DefaultBufferSize = 80 * 1024

var copyBuffers = sync.Pool{
	New: func() any {
		buf := make([]byte, DefaultBufferSize)
		return &buf
	},
}
