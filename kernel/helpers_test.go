package kernel

import (
	"sync"
	"testing"
	"time"
)

// testPort implements Port on goroutines. Each task has a latched gate: a
// resume delivered before the matching suspend is buffered, not lost.
type testPort struct {
	stackCheck func(TaskID) bool
	gates      [MaxTasks + 1]chan struct{}
}

func newTestPort() *testPort {
	p := &testPort{}
	for i := range p.gates {
		p.gates[i] = make(chan struct{}, 1)
	}
	return p
}

func (p *testPort) Spawn(id TaskID, fn func()) { go fn() }

func (p *testPort) Resume(id TaskID) {
	select {
	case p.gates[id] <- struct{}{}:
	default:
	}
}

func (p *testPort) Suspend(id TaskID) { <-p.gates[id] }

func (p *testPort) StackOK(id TaskID) bool {
	if p.stackCheck == nil {
		return true
	}
	return p.stackCheck(id)
}

// instantSleeper elapses every requested sleep immediately and in full, so
// kernel time advances deterministically whenever all tasks are blocked.
type instantSleeper struct{}

func (instantSleeper) Sleep(mode SleepMode, ticks uint32) uint32 { return ticks }

// testPlans has no latency and no stay limit, so wake-ups land exactly on
// the next deadline.
var testPlans = []SleepPlan{{Mode: SleepLight, MaxTicks: 1 << 30}}

func newTestKernel(t *testing.T, cfg Config) *Kernel {
	t.Helper()
	if cfg.Port == nil {
		cfg.Port = newTestPort()
	}
	if cfg.Sleeper == nil {
		cfg.Sleeper = instantSleeper{}
		cfg.SleepPlans = testPlans
	}
	k, err := New(cfg)
	if err != OK {
		t.Fatalf("New failed: %s", err)
	}
	return k
}

// runStart runs the kernel to completion with a watchdog, so a scheduling
// bug fails the test instead of hanging the suite.
func runStart(t *testing.T, k *Kernel, set TaskSet) Err {
	t.Helper()
	done := make(chan Err, 1)
	go func() { done <- k.Start(set) }()
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("kernel did not halt within 5s")
		return ErrFault
	}
}

// recorder collects an event trace across task goroutines.
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(e string) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	copy(out, r.events)
	return out
}

func expectEvents(t *testing.T, r *recorder, want ...string) {
	t.Helper()
	got := r.list()
	if len(got) != len(want) {
		t.Fatalf("expected %d events %v, got %v", len(want), want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event %d: expected %q, got %v", i, want[i], got)
		}
	}
}
