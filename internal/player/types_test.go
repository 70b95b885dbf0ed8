package player

import (
	"errors"
	"testing"
	"time"
)

func TestParseRepeatMode(t *testing.T) {
	cases := []struct {
		in      string
		want    RepeatMode
		wantErr bool
	}{
		{"off", RepeatNone, false},
		{"one", RepeatOne, false},
		{"track", RepeatOne, false},
		{"all", RepeatAll, false},
		{"ALL", RepeatAll, false},
		{" one ", RepeatOne, false},
		{"queue", RepeatNone, true},
		{"", RepeatNone, true},
	}

	for _, c := range cases {
		got, err := ParseRepeatMode(c.in)
		if c.wantErr {
			if !errors.Is(err, ErrBadRepeatMode) {
				t.Errorf("ParseRepeatMode(%q) err = %v, want ErrBadRepeatMode", c.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseRepeatMode(%q) err = %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("ParseRepeatMode(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestParseShuffle(t *testing.T) {
	if got, err := ParseShuffle("on", false); err != nil || !got {
		t.Errorf("ParseShuffle(on) = %v, %v", got, err)
	}
	if got, err := ParseShuffle("off", true); err != nil || got {
		t.Errorf("ParseShuffle(off) = %v, %v", got, err)
	}
	if got, err := ParseShuffle("toggle", true); err != nil || got {
		t.Errorf("ParseShuffle(toggle, true) = %v, %v", got, err)
	}
	if got, err := ParseShuffle("toggle", false); err != nil || !got {
		t.Errorf("ParseShuffle(toggle, false) = %v, %v", got, err)
	}
	if _, err := ParseShuffle("maybe", false); !errors.Is(err, ErrBadShuffle) {
		t.Errorf("ParseShuffle(maybe) err = %v, want ErrBadShuffle", err)
	}
}

func TestPCMFormat_Position(t *testing.T) {
	f := DefaultPCMFormat

	if bps := f.BytesPerSecond(); bps != 192000 {
		t.Fatalf("BytesPerSecond() = %d, want 192000", bps)
	}
	if got := f.Position(192000); got != time.Second {
		t.Errorf("Position(192000) = %v, want 1s", got)
	}
	if got := f.Position(96000); got != 500*time.Millisecond {
		t.Errorf("Position(96000) = %v, want 500ms", got)
	}
	if got := f.Position(0); got != 0 {
		t.Errorf("Position(0) = %v, want 0", got)
	}
}
