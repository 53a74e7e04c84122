// Package pool provides StaticPool, a fixed-capacity lock-free block
// allocator. All storage is sized at construction; Get and Put are
// compare-and-swap operations on a tagged free-list head, never block, and
// are safe to call from interrupt context. There is no fragmentation and
// no heap traffic after construction, which is the only allocation
// discipline compatible with bounded real-time execution.
package pool

import (
	"sync/atomic"

	"ember/kernel"
)

// NoSlot is the index returned by a failed Get.
const NoSlot = uint32(0xFFFF_FFFF)

const (
	slotFree uint32 = iota
	slotLive
)

// StaticPool is a pool of n blocks of type T. Free blocks form a singly
// linked list threaded through next-indices; the list head carries a
// generation tag in its upper half so a pop racing a push of the same
// index cannot succeed on stale state (the ABA problem).
type StaticPool[T any] struct {
	slots []T
	next  []atomic.Uint32
	state []atomic.Uint32 // double-free guard
	head  atomic.Uint64   // tag<<32 | index
}

// New builds a pool of n blocks.
func New[T any](n int) (*StaticPool[T], kernel.Err) {
	if n <= 0 || uint32(n) >= NoSlot {
		return nil, kernel.ErrInvalidParam
	}
	p := &StaticPool[T]{
		slots: make([]T, n),
		next:  make([]atomic.Uint32, n),
		state: make([]atomic.Uint32, n),
	}
	for i := 0; i < n-1; i++ {
		p.next[i].Store(uint32(i + 1))
	}
	p.next[n-1].Store(NoSlot)
	p.head.Store(pack(0, 0))
	return p, kernel.OK
}

func pack(tag, idx uint32) uint64      { return uint64(tag)<<32 | uint64(idx) }
func unpack(h uint64) (uint32, uint32) { return uint32(h >> 32), uint32(h) }

// Get pops a free block index. It never blocks; when the pool is empty it
// fails with ErrPoolExhausted.
func (p *StaticPool[T]) Get() (uint32, kernel.Err) {
	for {
		h := p.head.Load()
		tag, idx := unpack(h)
		if idx == NoSlot {
			return NoSlot, kernel.ErrPoolExhausted
		}
		nxt := p.next[idx].Load()
		if p.head.CompareAndSwap(h, pack(tag+1, nxt)) {
			p.state[idx].Store(slotLive)
			return idx, kernel.OK
		}
	}
}

// Put returns a block to the pool. Out-of-range and double frees fail with
// ErrInvalidHandle and leave the pool untouched.
func (p *StaticPool[T]) Put(idx uint32) kernel.Err {
	if int64(idx) >= int64(len(p.slots)) {
		return kernel.ErrInvalidHandle
	}
	if !p.state[idx].CompareAndSwap(slotLive, slotFree) {
		return kernel.ErrInvalidHandle
	}
	for {
		h := p.head.Load()
		tag, old := unpack(h)
		p.next[idx].Store(old)
		if p.head.CompareAndSwap(h, pack(tag+1, idx)) {
			return kernel.OK
		}
	}
}

// Item returns the storage for a block index, or nil when out of range.
// The caller must hold the block (a Get without a matching Put).
func (p *StaticPool[T]) Item(idx uint32) *T {
	if int64(idx) >= int64(len(p.slots)) {
		return nil
	}
	return &p.slots[idx]
}

// Cap returns the pool capacity.
func (p *StaticPool[T]) Cap() int { return len(p.slots) }

// InUse counts live blocks. Under concurrent use the result is a snapshot.
func (p *StaticPool[T]) InUse() int {
	n := 0
	for i := range p.state {
		if p.state[i].Load() == slotLive {
			n++
		}
	}
	return n
}

// Lease is a scoped allocation: it holds one block and returns it exactly
// once, on whatever path releases it. The zero Lease is released.
type Lease[T any] struct {
	p   *StaticPool[T]
	idx uint32
}

// Acquire allocates a block wrapped in a Lease.
func (p *StaticPool[T]) Acquire() (Lease[T], kernel.Err) {
	idx, err := p.Get()
	if err != kernel.OK {
		return Lease[T]{}, err
	}
	return Lease[T]{p: p, idx: idx}, kernel.OK
}

// Value returns the leased block storage, or nil after release.
func (l *Lease[T]) Value() *T {
	if l.p == nil {
		return nil
	}
	return &l.p.slots[l.idx]
}

// Index returns the leased block index, or NoSlot after release.
func (l *Lease[T]) Index() uint32 {
	if l.p == nil {
		return NoSlot
	}
	return l.idx
}

// Release returns the block to the pool. Further calls are no-ops, so it
// is safe to defer and also release early.
func (l *Lease[T]) Release() {
	if l.p == nil {
		return
	}
	p := l.p
	l.p = nil
	p.Put(l.idx)
}
