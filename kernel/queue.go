package kernel

// Queue is a fixed-capacity FIFO of values of type T with blocking send and
// receive. Items are copied in and out: a queue of small values needs no
// pool, a queue of pool indices carries large payloads by reference.
//
// Item order is strict FIFO. The wait queues for blocked senders and
// receivers are priority-ordered like every other wait queue, so when a
// slot or item frees up the highest-priority blocked task is served first.
// Blocked peers park a pointer to their item (senders) or destination
// (receivers) and the unblocking side completes the transfer directly, so
// a timed-out call has performed no partial write.
type Queue[T any] struct {
	k       *Kernel
	slots   []T
	head    uint32 // index of the oldest item
	count   uint32
	sendW   waitQueue
	recvW   waitQueue
	sendSrc [MaxTasks]*T
	recvDst [MaxTasks]*T
}

// NewQueue creates a queue holding up to capacity items. Zero capacity is
// rejected: a slotless queue cannot satisfy its FIFO contract.
func NewQueue[T any](k *Kernel, capacity int) (*Queue[T], Err) {
	if k == nil || capacity <= 0 || capacity > 1<<16 {
		return nil, ErrInvalidParam
	}
	return &Queue[T]{
		k:     k,
		slots: make([]T, capacity),
		sendW: newWaitQueue(),
		recvW: newWaitQueue(),
	}, OK
}

func (q *Queue[T]) push(v T) {
	q.slots[(q.head+q.count)%uint32(len(q.slots))] = v
	q.count++
}

func (q *Queue[T]) pop() T {
	v := q.slots[q.head]
	q.head = (q.head + 1) % uint32(len(q.slots))
	q.count--
	return v
}

// Send enqueues item, blocking for up to timeout ticks while the queue is
// full. NoWait turns the call non-blocking; Forever disables the timeout.
func (q *Queue[T]) Send(item T, timeout uint32) Err {
	k := q.k
	k.cs.enter()
	defer k.cs.leave()
	// A waiting receiver implies an empty buffer: hand the item over.
	if id := k.wqPop(&q.recvW); id != noTask {
		*q.recvDst[id] = item
		q.recvDst[id] = nil
		if k.wakeTask(id, OK) {
			k.maybePreempt()
		}
		k.checkPending()
		return OK
	}
	if q.count < uint32(len(q.slots)) {
		q.push(item)
		k.checkPending()
		return OK
	}
	if timeout == NoWait {
		return ErrWouldBlock
	}
	cur := k.current
	if cur == idleID {
		return ErrInvalidHandle
	}
	q.sendSrc[cur] = &item
	err := k.blockCurrent(&q.sendW, reasonQueueSend, timeout)
	q.sendSrc[cur] = nil
	return err
}

// TrySend enqueues without blocking.
func (q *Queue[T]) TrySend(item T) Err { return q.Send(item, NoWait) }

// Recv dequeues the oldest item, blocking for up to timeout ticks while
// the queue is empty.
func (q *Queue[T]) Recv(timeout uint32) (T, Err) {
	var zero T
	k := q.k
	k.cs.enter()
	defer k.cs.leave()
	if q.count > 0 {
		item := q.pop()
		// A waiting sender implies the buffer was full: absorb its item
		// into the slot just freed, preserving FIFO order.
		if id := k.wqPop(&q.sendW); id != noTask {
			q.push(*q.sendSrc[id])
			q.sendSrc[id] = nil
			if k.wakeTask(id, OK) {
				k.maybePreempt()
			}
		}
		k.checkPending()
		return item, OK
	}
	if timeout == NoWait {
		return zero, ErrWouldBlock
	}
	cur := k.current
	if cur == idleID {
		return zero, ErrInvalidHandle
	}
	var out T
	q.recvDst[cur] = &out
	err := k.blockCurrent(&q.recvW, reasonQueueRecv, timeout)
	q.recvDst[cur] = nil
	if err != OK {
		return zero, err
	}
	return out, OK
}

// TryRecv dequeues without blocking.
func (q *Queue[T]) TryRecv() (T, Err) { return q.Recv(NoWait) }

// Len returns the number of buffered items.
func (q *Queue[T]) Len() int {
	q.k.cs.enter()
	n := int(q.count)
	q.k.cs.leave()
	return n
}

// Cap returns the queue capacity.
func (q *Queue[T]) Cap() int { return len(q.slots) }
