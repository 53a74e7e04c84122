package hal_test

import (
	"bytes"
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ember/hal"
	"ember/kernel"
)

func TestHostPortLatchesEarlyResume(t *testing.T) {
	p := hal.NewHostPort()

	// Resume before the matching Suspend must not be lost.
	p.Resume(3)
	done := make(chan struct{})
	go func() {
		p.Suspend(3)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("suspend did not observe earlier resume")
	}
}

func TestHostPortResumeIsIdempotent(t *testing.T) {
	p := hal.NewHostPort()

	p.Resume(1)
	p.Resume(1)
	p.Suspend(1)

	// The second resume was coalesced, so a fresh Suspend blocks.
	woke := make(chan struct{})
	go func() {
		p.Suspend(1)
		close(woke)
	}()
	select {
	case <-woke:
		t.Fatal("suspend returned without a pending resume")
	case <-time.After(50 * time.Millisecond):
	}
	p.Resume(1)
	<-woke
}

func TestHostPortStackCheck(t *testing.T) {
	p := hal.NewHostPort()
	require.True(t, p.StackOK(0))

	p.StackCheck = func(id kernel.TaskID) bool { return id != 2 }
	require.True(t, p.StackOK(0))
	require.False(t, p.StackOK(2))
}

func TestSimSleeperFullAndEarlyWake(t *testing.T) {
	var s hal.SimSleeper

	require.Equal(t, uint32(40), s.Sleep(kernel.SleepLight, 40))

	s.WakeEarlyAfter(5)
	require.Equal(t, uint32(5), s.Sleep(kernel.SleepDeep, 100))

	// An early-wake budget past the request does not extend the sleep.
	s.WakeEarlyAfter(100)
	require.Equal(t, uint32(7), s.Sleep(kernel.SleepLight, 7))

	reqs := s.Requests()
	require.Len(t, reqs, 3)
	require.Equal(t, hal.SleepRequest{Mode: kernel.SleepDeep, Ticks: 100, Slept: 5}, reqs[1])
}

func TestLoggerWritesLine(t *testing.T) {
	var buf bytes.Buffer
	log := hal.NewLogger(&buf)
	log.WriteLineString("hello from the kernel")

	out := buf.String()
	require.Contains(t, out, "hello from the kernel")
	require.Contains(t, out, `"time"`)
}

func TestRunTickerDeliversTicks(t *testing.T) {
	port := hal.NewHostPort()
	k, err := kernel.New(kernel.Config{Port: port})
	require.Equal(t, kernel.OK, err)

	ctx, cancel := context.WithCancel(context.Background())
	var stopped atomic.Bool
	go func() {
		hal.RunTicker(ctx, k, time.Millisecond)
		stopped.Store(true)
	}()

	deadline := time.After(2 * time.Second)
	for k.Now() < 5 {
		select {
		case <-deadline:
			t.Fatalf("only %d ticks delivered", k.Now())
		case <-time.After(time.Millisecond):
		}
	}
	cancel()
	require.Eventually(t, stopped.Load, time.Second, time.Millisecond)
}
