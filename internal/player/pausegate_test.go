package player

import (
	"context"
	"testing"
	"time"
)

func TestPauseGate_WaitReturnsImmediatelyWhenSet(t *testing.T) {
	g := NewPauseGate(true)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := g.Wait(ctx); err != nil {
		t.Fatalf("Wait() on signalled gate returned %v", err)
	}
}

func TestPauseGate_SetReleasesParkedWaiter(t *testing.T) {
	g := NewPauseGate(false)

	done := make(chan error, 1)
	go func() {
		done <- g.Wait(context.Background())
	}()

	select {
	case err := <-done:
		t.Fatalf("waiter completed before Set: %v", err)
	case <-time.After(20 * time.Millisecond):
	}

	g.Set()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("released waiter returned %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("waiter not released by Set")
	}
}

func TestPauseGate_SetResetWaitSet(t *testing.T) {
	g := NewPauseGate(false)
	g.Set()
	g.Reset()

	done := make(chan error, 1)
	go func() {
		done <- g.Wait(context.Background())
	}()

	select {
	case <-done:
		t.Fatal("waiter ran through a reset gate")
	case <-time.After(20 * time.Millisecond):
	}

	g.Set()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("waiter returned %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("waiter not released")
	}
}

func TestPauseGate_CancelOneWaiterLeavesOthersParked(t *testing.T) {
	g := NewPauseGate(false)

	cancelled := make(chan error, 1)
	parked := make(chan error, 1)

	ctx, cancel := context.WithCancel(context.Background())
	go func() { cancelled <- g.Wait(ctx) }()
	go func() { parked <- g.Wait(context.Background()) }()

	cancel()

	select {
	case err := <-cancelled:
		if err != context.Canceled {
			t.Fatalf("cancelled waiter returned %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("cancelled waiter did not unblock")
	}

	select {
	case <-parked:
		t.Fatal("unrelated waiter was released by another waiter's cancellation")
	case <-time.After(20 * time.Millisecond):
	}

	g.Set()
	select {
	case err := <-parked:
		if err != nil {
			t.Fatalf("parked waiter returned %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("parked waiter not released by Set")
	}
}

func TestPauseGate_RepeatedSetAndResetAreIdempotent(t *testing.T) {
	g := NewPauseGate(false)

	g.Reset() // no-op while reset
	g.Set()
	g.Set() // no-op while set
	if !g.Signalled() {
		t.Error("gate should be signalled")
	}
	g.Reset()
	if g.Signalled() {
		t.Error("gate should be reset")
	}
}
