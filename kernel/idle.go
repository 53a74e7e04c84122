package kernel

// The idle task runs when no task is ready. With a Sleeper configured it
// implements tickless idle: instead of burning ticks it asks the platform
// to sleep until just before the next scheduled wake, then replays the
// elapsed time so the delay list advances exactly as if each tick had
// fired individually.

// idleLoop runs on the goroutine that called Start. Critical section held
// on entry and exit.
func (k *Kernel) idleLoop() {
	for !k.halted {
		if k.readyBits != 0 {
			k.switchPending, k.rotatePending = false, false
			k.switchTo(idleID, k.popReady())
			continue
		}
		k.idleSleep()
	}
}

// idleSleep suspends until the next scheduled wake or an external event.
func (k *Kernel) idleSleep() {
	if k.cfg.Sleeper != nil && k.delayHead != noTask {
		// Expired entries were woken during tick processing, so the head
		// is strictly in the future.
		want := k.tcbs[k.delayHead].wakeTick - k.tick
		if mode, budget, ok := pickSleep(k.cfg.SleepPlans, want); ok {
			k.cs.leave()
			slept := k.cfg.Sleeper.Sleep(mode, budget)
			k.cs.enter()
			if slept > 0 {
				k.tickLocked(slept)
			}
			return
		}
	}
	// No pending wake, or no sleep plan fits: park until interrupt
	// context produces work. idleParked gates the kick in
	// noteSwitchPending and Halt; it is only ever true here.
	k.idleParked = true
	k.cs.leave()
	k.cfg.Port.Suspend(idleID)
	k.cs.enter()
	k.idleParked = false
}

// pickSleep selects the deepest plan whose wake-up latency still meets the
// wanted deadline, capping the request at the plan's maximum stay. Plans
// are ordered shallowest first, so the last eligible plan wins.
func pickSleep(plans []SleepPlan, want uint64) (SleepMode, uint32, bool) {
	var best *SleepPlan
	for i := range plans {
		p := &plans[i]
		if uint64(p.WakeLatency) >= want {
			continue
		}
		best = p
	}
	if best == nil {
		return 0, 0, false
	}
	n := want - uint64(best.WakeLatency)
	if n > uint64(best.MaxTicks) {
		n = uint64(best.MaxTicks)
	}
	return best.Mode, uint32(n), true
}
