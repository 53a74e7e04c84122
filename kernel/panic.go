package kernel

import "runtime/debug"

// A panic escaping a task entry function is a fault: the kernel cannot
// know what invariants the task broke, so it halts into a diagnostic state
// rather than continue with a possibly corrupt task set.

// PanicInfo describes a panic captured from a task.
type PanicInfo struct {
	TaskID TaskID
	Name   string
	Value  any
	Stack  []byte
}

// SetPanicHandler installs a per-kernel panic handler, invoked before the
// kernel halts. It runs on the faulting goroutine and must not call back
// into the kernel. Must be set before Start.
func (k *Kernel) SetPanicHandler(fn func(PanicInfo)) {
	k.cs.enter()
	k.panicHandler = fn
	k.cs.leave()
}

// taskPanicked runs on the faulting task's goroutine, outside the critical
// section (user code never holds it).
func (k *Kernel) taskPanicked(id TaskID, value any) {
	info := PanicInfo{
		TaskID: id,
		Name:   k.tcbs[id].name,
		Value:  value,
		Stack:  debug.Stack(),
	}
	k.cs.enter()
	handler := k.panicHandler
	k.tcbs[id].state = stateTerminated
	k.halted = true
	k.haltErr = ErrFault
	k.current = idleID
	k.cs.leave()

	if handler != nil {
		handler(info)
	}
	k.logf("fatal: panic in task %q: %v", info.Name, value)
	k.cfg.Port.Resume(idleID)
}
