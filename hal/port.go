package hal

import "ember/kernel"

// HostPort runs each task on its own goroutine and implements the kernel's
// context-switch contract with per-task gates. A gate is a buffered channel
// of capacity one, so a Resume delivered before the matching Suspend is
// latched rather than lost.
type HostPort struct {
	// StackCheck, when set, is consulted on every switch away from a task.
	// Returning false makes the kernel treat the task as having overrun
	// its stack. Nil reports every stack as intact; goroutine stacks grow
	// on demand, so there is nothing to overrun on the host.
	StackCheck func(id kernel.TaskID) bool

	gates [kernel.MaxTasks + 1]chan struct{}
}

// NewHostPort builds a port with one gate per possible task plus the idle
// slot.
func NewHostPort() *HostPort {
	p := &HostPort{}
	for i := range p.gates {
		p.gates[i] = make(chan struct{}, 1)
	}
	return p
}

func (p *HostPort) Spawn(id kernel.TaskID, fn func()) {
	go fn()
}

func (p *HostPort) Resume(id kernel.TaskID) {
	select {
	case p.gates[id] <- struct{}{}:
	default:
		// Already latched; a second resume is idempotent.
	}
}

func (p *HostPort) Suspend(id kernel.TaskID) {
	<-p.gates[id]
}

func (p *HostPort) StackOK(id kernel.TaskID) bool {
	if p.StackCheck == nil {
		return true
	}
	return p.StackCheck(id)
}
