package hal

import (
	"sync"

	"ember/kernel"
)

// SleepRequest records one low-power entry made by the kernel's idle task.
type SleepRequest struct {
	Mode  kernel.SleepMode
	Ticks uint32
	Slept uint32
}

// SimSleeper simulates tickless low-power sleep. Each Sleep call "sleeps"
// for the full requested duration unless an early-wake budget is armed, in
// which case it wakes after that many ticks instead, the way an interrupt
// would cut real hardware sleep short.
type SimSleeper struct {
	mu       sync.Mutex
	requests []SleepRequest
	early    []uint32
}

// WakeEarlyAfter queues an early wake: the next Sleep call (one queued wake
// per call) returns after at most n ticks.
func (s *SimSleeper) WakeEarlyAfter(n uint32) {
	s.mu.Lock()
	s.early = append(s.early, n)
	s.mu.Unlock()
}

func (s *SimSleeper) Sleep(mode kernel.SleepMode, ticks uint32) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	slept := ticks
	if len(s.early) > 0 {
		n := s.early[0]
		s.early = s.early[1:]
		if n < slept {
			slept = n
		}
	}
	s.requests = append(s.requests, SleepRequest{Mode: mode, Ticks: ticks, Slept: slept})
	return slept
}

// Requests returns a copy of the sleep history.
func (s *SimSleeper) Requests() []SleepRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SleepRequest, len(s.requests))
	copy(out, s.requests)
	return out
}
