package kernel

// Semaphore is a counting semaphore with a fixed maximum. A binary
// semaphore is a counting semaphore with max 1. Units given while tasks
// wait are handed directly to the highest-priority waiter instead of
// passing through the count, so a give racing a take cannot lose the
// wake-up or leak the unit to a barger.
type Semaphore struct {
	k       *Kernel
	count   uint32
	max     uint32
	waiters waitQueue
}

// NewSemaphore creates a counting semaphore with the given initial count
// and maximum.
func NewSemaphore(k *Kernel, initial, max uint32) (*Semaphore, Err) {
	if k == nil || max == 0 || initial > max {
		return nil, ErrInvalidParam
	}
	return &Semaphore{k: k, count: initial, max: max, waiters: newWaitQueue()}, OK
}

// NewBinarySemaphore creates a semaphore with max 1, initially available
// or not.
func NewBinarySemaphore(k *Kernel, available bool) (*Semaphore, Err) {
	initial := uint32(0)
	if available {
		initial = 1
	}
	return NewSemaphore(k, initial, 1)
}

// Give releases one unit from task context. Fails with ErrOverflow when
// the count is already at the maximum and nobody is waiting.
func (s *Semaphore) Give() Err { return s.give(false) }

// GiveISR releases one unit from interrupt context. It never dispatches:
// if the wake outranks the running task, a switch is flagged for the next
// preemption point.
func (s *Semaphore) GiveISR() Err { return s.give(true) }

func (s *Semaphore) give(fromISR bool) Err {
	k := s.k
	k.cs.enter()
	defer k.cs.leave()
	if id := k.wqPop(&s.waiters); id != noTask {
		// Direct handoff: the unit goes to the waiter, not the count.
		if k.wakeTask(id, OK) {
			if fromISR {
				k.noteSwitchPending()
			} else {
				k.maybePreempt()
			}
		}
		if !fromISR {
			k.checkPending()
		}
		return OK
	}
	if s.count == s.max {
		return ErrOverflow
	}
	s.count++
	if !fromISR {
		k.checkPending()
	}
	return OK
}

// Take acquires one unit, blocking for up to timeout ticks. NoWait turns
// the call non-blocking; Forever disables the timeout.
func (s *Semaphore) Take(timeout uint32) Err {
	k := s.k
	k.cs.enter()
	defer k.cs.leave()
	if s.count > 0 {
		s.count--
		k.checkPending()
		return OK
	}
	if timeout == NoWait {
		return ErrWouldBlock
	}
	if k.current == idleID {
		return ErrInvalidHandle
	}
	return k.blockCurrent(&s.waiters, reasonSemaphore, timeout)
}

// TryTake acquires one unit without blocking.
func (s *Semaphore) TryTake() Err { return s.Take(NoWait) }

// Count returns the current count.
func (s *Semaphore) Count() uint32 {
	s.k.cs.enter()
	n := s.count
	s.k.cs.leave()
	return n
}
