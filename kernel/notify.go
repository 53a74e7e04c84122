package kernel

// Task notifications are the cheapest cross-context signal the kernel
// offers: one 32-bit word and a pending flag per task, living inside the
// TCB. They are the recommended primitive for interrupt-to-task handoff;
// NotifyISR never blocks and completes in bounded time.

// NotifyMode selects how a notified value combines with the pending word.
type NotifyMode uint8

const (
	// NotifySetBits ORs the value into the word (event-group style).
	NotifySetBits NotifyMode = iota
	// NotifyIncrement adds the value, saturating at the word maximum
	// (counting-semaphore style).
	NotifyIncrement
	// NotifyOverwrite replaces the word unconditionally (mailbox style,
	// latest value wins).
	NotifyOverwrite
	// NotifyOverwriteIfEmpty replaces the word only when no notification
	// is pending, failing with ErrOverflow otherwise, so a fast producer
	// cannot clobber an unread value.
	NotifyOverwriteIfEmpty
)

// Notify posts a notification to id from task context, waking it if it is
// waiting on its notification cell.
func (k *Kernel) Notify(id TaskID, value uint32, mode NotifyMode) Err {
	k.cs.enter()
	defer k.cs.leave()
	err := k.notifyLocked(id, value, mode, false)
	k.checkPending()
	return err
}

// NotifyISR posts a notification from interrupt context. It never
// dispatches; an outranking wake is flagged for the next preemption point.
func (k *Kernel) NotifyISR(id TaskID, value uint32, mode NotifyMode) Err {
	k.cs.enter()
	defer k.cs.leave()
	return k.notifyLocked(id, value, mode, true)
}

func (k *Kernel) notifyLocked(id TaskID, value uint32, mode NotifyMode, fromISR bool) Err {
	if int(id) >= k.ntasks {
		return ErrInvalidHandle
	}
	t := &k.tcbs[id]
	if t.state == stateInactive || t.state == stateTerminated {
		return ErrInvalidHandle
	}
	switch mode {
	case NotifySetBits:
		t.noteVal |= value
	case NotifyIncrement:
		if sum := t.noteVal + value; sum < t.noteVal {
			t.noteVal = ^uint32(0)
		} else {
			t.noteVal = sum
		}
	case NotifyOverwrite:
		t.noteVal = value
	case NotifyOverwriteIfEmpty:
		if t.notePending {
			return ErrOverflow
		}
		t.noteVal = value
	default:
		return ErrInvalidParam
	}
	t.notePending = true
	if t.state == stateBlocked && t.reason == reasonNotify {
		if k.wakeTask(id, OK) {
			if fromISR {
				k.noteSwitchPending()
			} else {
				k.maybePreempt()
			}
		}
	}
	return OK
}

// NotifyWait blocks until a notification is pending and returns the word.
// Bits in clearOnEntry are cleared before any wait, so a notify that races
// the wait is still observed in full; bits in clearOnExit are cleared
// after the word is read. The pending flag is consumed.
func (c *Context) NotifyWait(clearOnEntry, clearOnExit uint32, timeout uint32) (uint32, Err) {
	k := c.k
	k.cs.enter()
	defer k.cs.leave()
	t := &k.tcbs[c.id]
	if !t.notePending {
		t.noteVal &^= clearOnEntry
		if timeout == NoWait {
			return 0, ErrWouldBlock
		}
		if err := k.blockCurrent(nil, reasonNotify, timeout); err != OK {
			return 0, err
		}
	}
	v := t.noteVal
	t.noteVal &^= clearOnExit
	t.notePending = false
	k.checkPending()
	return v, OK
}

// NotifyPoll reads the notification word without blocking, clearing the
// given bits and consuming the pending flag when one is set.
func (c *Context) NotifyPoll(clearOnExit uint32) (uint32, Err) {
	k := c.k
	k.cs.enter()
	defer k.cs.leave()
	t := &k.tcbs[c.id]
	if !t.notePending {
		return 0, ErrWouldBlock
	}
	v := t.noteVal
	t.noteVal &^= clearOnExit
	t.notePending = false
	k.checkPending()
	return v, OK
}
