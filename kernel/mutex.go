package kernel

// Mutex is a mutual-exclusion lock with priority inheritance and direct
// ownership transfer: Unlock hands the mutex straight to the
// highest-priority waiter, so a third task cannot steal it in between.
// The owner may lock recursively; each Lock needs a matching Unlock.
//
// Priority inheritance bounds priority inversion: while a higher-priority
// task waits, the holder runs at the waiter's priority, so a medium
// priority task cannot keep the holder off the CPU indefinitely. The
// kernel does not detect deadlock at runtime; acquisition order across
// tasks is the application's responsibility.
type Mutex struct {
	k        *Kernel
	owner    TaskID
	depth    uint32
	waiters  waitQueue
	nextHeld *Mutex // chain of mutexes held by the same owner
}

// NewMutex creates an unlocked mutex bound to k.
func NewMutex(k *Kernel) *Mutex {
	return &Mutex{k: k, owner: noTask, waiters: newWaitQueue()}
}

// Lock acquires m, blocking while another task holds it. If the caller
// outranks the holder, the holder is boosted to the caller's priority
// until it releases.
func (m *Mutex) Lock() Err {
	k := m.k
	k.cs.enter()
	defer k.cs.leave()
	cur := k.current
	if cur == idleID {
		return ErrInvalidHandle
	}
	if m.owner == noTask {
		m.claim(cur)
		k.checkPending()
		return OK
	}
	if m.owner == cur {
		m.depth++
		return OK
	}
	if k.tcbs[cur].prio > k.tcbs[m.owner].prio {
		k.setPrio(m.owner, k.tcbs[cur].prio)
	}
	// On OK the releasing task has already transferred ownership to us.
	return k.blockCurrent(&m.waiters, reasonMutex, Forever)
}

// TryLock acquires m only if it can do so immediately. It never blocks and
// never applies inheritance: a caller that will not wait has nothing to be
// boosted for.
func (m *Mutex) TryLock() Err {
	k := m.k
	k.cs.enter()
	defer k.cs.leave()
	cur := k.current
	if cur == idleID {
		return ErrInvalidHandle
	}
	switch m.owner {
	case noTask:
		m.claim(cur)
		k.checkPending()
		return OK
	case cur:
		m.depth++
		return OK
	default:
		return ErrWouldBlock
	}
}

// Unlock releases m. The caller's priority is restored to the maximum of
// its base priority and what its remaining held mutexes still require, so
// nested ownership releases correctly in any order. Ownership passes
// directly to the highest-priority waiter, if any.
func (m *Mutex) Unlock() Err {
	k := m.k
	k.cs.enter()
	defer k.cs.leave()
	cur := k.current
	if m.owner != cur {
		return ErrNotOwner
	}
	if m.depth > 1 {
		m.depth--
		return OK
	}
	k.dropHeld(cur, m)
	if next := k.wqPop(&m.waiters); next != noTask {
		m.owner = next
		m.depth = 1
		m.nextHeld = k.tcbs[next].held
		k.tcbs[next].held = m
		k.setPrio(cur, k.inheritedPrio(cur))
		k.wakeTask(next, OK)
	} else {
		m.owner = noTask
		m.depth = 0
		k.setPrio(cur, k.inheritedPrio(cur))
	}
	// The handed-off owner, or a ready task exposed by dropping a
	// boost, may outrank the caller.
	k.maybePreempt()
	k.checkPending()
	return OK
}

// Owned reports whether the calling task holds m.
func (m *Mutex) Owned() bool {
	k := m.k
	k.cs.enter()
	owned := m.owner == k.current
	k.cs.leave()
	return owned
}

func (m *Mutex) claim(cur TaskID) {
	m.owner = cur
	m.depth = 1
	m.nextHeld = m.k.tcbs[cur].held
	m.k.tcbs[cur].held = m
}

// dropHeld unlinks m from id's held-mutex chain.
func (k *Kernel) dropHeld(id TaskID, m *Mutex) {
	for p := &k.tcbs[id].held; *p != nil; p = &(*p).nextHeld {
		if *p == m {
			*p = m.nextHeld
			m.nextHeld = nil
			return
		}
	}
}

// inheritedPrio computes the effective priority for id: its base priority,
// raised to the highest-priority waiter across the mutexes it still holds.
func (k *Kernel) inheritedPrio(id TaskID) uint8 {
	p := k.tcbs[id].basePrio
	for m := k.tcbs[id].held; m != nil; m = m.nextHeld {
		if h := m.waiters.list.head; h != noTask && k.tcbs[h].prio > p {
			p = k.tcbs[h].prio
		}
	}
	return p
}
