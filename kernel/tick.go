package kernel

// Tick advances kernel time by one tick: it wakes delayed tasks whose wake
// time arrived and charges the running task's time slice. It is called from
// interrupt context at the platform tick frequency, never blocks, and
// completes in time bounded by the number of tasks whose delay expires on
// this tick; only the delay-list head is inspected otherwise. It reports
// whether a context switch is pending.
func (k *Kernel) Tick() bool {
	k.cs.enter()
	k.tickLocked(1)
	pending := k.switchPending || k.rotatePending
	k.cs.leave()
	return pending
}

// tickLocked advances time by n ticks. Multi-tick advances come from
// tickless idle resynchronization and must leave the delay list exactly as
// n individual ticks would have.
func (k *Kernel) tickLocked(n uint32) {
	target := k.tick + uint64(n)
	for k.delayHead != noTask && k.tcbs[k.delayHead].wakeTick <= target {
		k.tick = k.tcbs[k.delayHead].wakeTick
		k.expireDelayHead()
	}
	k.tick = target

	// Round-robin accounting for the running task.
	if k.cfg.TimeSlice > 0 && k.current != idleID && k.tcbs[k.current].state == stateRunning {
		if k.slice > n {
			k.slice -= n
		} else {
			k.slice = k.cfg.TimeSlice
			p := k.tcbs[k.current].prio
			if !k.ready[p].empty() {
				k.rotatePending = true
			}
		}
	}
}

// expireDelayHead wakes the delay-list head. A task blocked on an object
// or a notification timed out; a plain delay completed normally.
func (k *Kernel) expireDelayHead() {
	id := k.delayHead
	t := &k.tcbs[id]
	k.delayRemove(id)
	outcome := OK
	if t.reason != reasonDelay {
		outcome = ErrTimeout
	}
	if k.wakeTask(id, outcome) {
		k.noteSwitchPending()
	}
}

// Delay blocks the calling task for the given number of ticks. A zero
// delay degenerates to a yield.
func (c *Context) Delay(ticks uint32) Err {
	k := c.k
	if ticks == 0 {
		c.Yield()
		return OK
	}
	k.cs.enter()
	err := k.blockCurrent(nil, reasonDelay, ticks)
	k.cs.leave()
	return err
}
