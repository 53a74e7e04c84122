package kernel

// Intrusive index-linked task lists. Link fields live in the TCB arena, so
// list membership never allocates and a task can be unlinked in O(1). A
// task is on at most one event list (a ready level or a single wait queue)
// at any instant.

// taskList is a FIFO of tasks chained through the event links.
type taskList struct {
	head, tail TaskID
}

func newTaskList() taskList { return taskList{head: noTask, tail: noTask} }

func (l *taskList) empty() bool { return l.head == noTask }

func (k *Kernel) listPushBack(l *taskList, id TaskID) {
	t := &k.tcbs[id]
	t.next = noTask
	t.prev = l.tail
	if l.tail == noTask {
		l.head = id
	} else {
		k.tcbs[l.tail].next = id
	}
	l.tail = id
}

func (k *Kernel) listPushFront(l *taskList, id TaskID) {
	t := &k.tcbs[id]
	t.prev = noTask
	t.next = l.head
	if l.head == noTask {
		l.tail = id
	} else {
		k.tcbs[l.head].prev = id
	}
	l.head = id
}

func (k *Kernel) listRemove(l *taskList, id TaskID) {
	t := &k.tcbs[id]
	if t.prev != noTask {
		k.tcbs[t.prev].next = t.next
	} else {
		l.head = t.next
	}
	if t.next != noTask {
		k.tcbs[t.next].prev = t.prev
	} else {
		l.tail = t.prev
	}
	t.next, t.prev = noTask, noTask
}

func (k *Kernel) listPopFront(l *taskList) TaskID {
	id := l.head
	if id != noTask {
		k.listRemove(l, id)
	}
	return id
}

// waitQueue holds the tasks blocked on one kernel object, ordered by
// current priority (highest first), FIFO among equals, so "wake the
// highest-priority waiter" is deterministic.
type waitQueue struct {
	list taskList
}

func newWaitQueue() waitQueue { return waitQueue{list: newTaskList()} }

func (q *waitQueue) empty() bool { return q.list.empty() }

func (k *Kernel) wqInsert(q *waitQueue, id TaskID) {
	prio := k.tcbs[id].prio
	at := q.list.head
	for at != noTask && k.tcbs[at].prio >= prio {
		at = k.tcbs[at].next
	}
	if at == noTask {
		k.listPushBack(&q.list, id)
	} else {
		// Insert immediately before at.
		prev := k.tcbs[at].prev
		t := &k.tcbs[id]
		t.next = at
		t.prev = prev
		k.tcbs[at].prev = id
		if prev == noTask {
			q.list.head = id
		} else {
			k.tcbs[prev].next = id
		}
	}
	k.tcbs[id].wq = q
}

func (k *Kernel) wqRemove(q *waitQueue, id TaskID) {
	k.listRemove(&q.list, id)
	k.tcbs[id].wq = nil
}

func (k *Kernel) wqPop(q *waitQueue) TaskID {
	id := k.listPopFront(&q.list)
	if id != noTask {
		k.tcbs[id].wq = nil
	}
	return id
}

// wqReposition re-sorts id after its current priority changed.
func (k *Kernel) wqReposition(q *waitQueue, id TaskID) {
	k.wqRemove(q, id)
	k.wqInsert(q, id)
}

// The delay list is singly linked through delayNext in ascending wake-tick
// order: the tick handler inspects only the head. Insertion is O(n), which
// is fine at embedded task-set sizes.

func (k *Kernel) delayInsert(id TaskID, wake uint64) {
	t := &k.tcbs[id]
	t.wakeTick = wake
	t.onDelay = true
	if k.delayHead == noTask || k.tcbs[k.delayHead].wakeTick > wake {
		t.delayNext = k.delayHead
		k.delayHead = id
		return
	}
	at := k.delayHead
	for k.tcbs[at].delayNext != noTask && k.tcbs[k.tcbs[at].delayNext].wakeTick <= wake {
		at = k.tcbs[at].delayNext
	}
	t.delayNext = k.tcbs[at].delayNext
	k.tcbs[at].delayNext = id
}

func (k *Kernel) delayRemove(id TaskID) {
	t := &k.tcbs[id]
	if !t.onDelay {
		return
	}
	if k.delayHead == id {
		k.delayHead = t.delayNext
	} else {
		at := k.delayHead
		for at != noTask && k.tcbs[at].delayNext != id {
			at = k.tcbs[at].delayNext
		}
		if at != noTask {
			k.tcbs[at].delayNext = t.delayNext
		}
	}
	t.onDelay = false
	t.delayNext = noTask
}
