package kernel

import "sync"

// critSection is the host stand-in for interrupt masking. Everything the
// scheduler shares with interrupt context (ready structure, wait queues,
// delay list, notification words) is mutated only while it is held, and
// held sections must stay short and bounded: no blocking, no dispatch, no
// user code. On a bare-metal port this maps to a brief IRQ disable.
type critSection struct {
	mu sync.Mutex
}

func (c *critSection) enter() { c.mu.Lock() }
func (c *critSection) leave() { c.mu.Unlock() }
