// Package kernel implements a preemptive, priority-based task scheduler for
// hosted real-time workloads, together with its synchronization primitives:
// priority-inheritance mutexes, counting semaphores, fixed-capacity message
// queues, and per-task notifications.
//
// Tasks are registered once as a static set and scheduled strictly by
// priority, FIFO among equals. All shared scheduler state is mutated inside
// a short critical section; interrupt-context entry points (Tick, NotifyISR,
// GiveISR) never block and never dispatch, they flag a pending switch that
// is honored at the next preemption point.
package kernel

import (
	"fmt"
	"math/bits"
)

// Config wires a kernel to its platform and fixes its scheduling policy.
type Config struct {
	// Port supplies the context-switch primitive. Required.
	Port Port
	// Sleeper enables tickless idle. Optional; when nil the idle task
	// parks and an external source must drive Tick.
	Sleeper Sleeper
	// SleepPlans orders the sleep depths available to tickless idle,
	// shallowest first. DefaultSleepPlans is used when nil and a Sleeper
	// is set.
	SleepPlans []SleepPlan
	// Log receives lifecycle diagnostics. Optional.
	Log Logger
	// TimeSlice is the round-robin quantum in ticks for tasks sharing a
	// priority level. 0 disables slicing: equal-priority tasks run FIFO
	// until they block or yield.
	TimeSlice uint32
	// StackBudget caps the aggregate configured stack bytes of the task
	// set. 0 means unlimited.
	StackBudget uint32
	// UniquePriorities rejects task sets where two tasks share a priority.
	UniquePriorities bool
}

// Kernel is the scheduler state: the TCB arena, the ready structure, the
// delay list, and the time base. It is created once by New and lives for
// the process lifetime; there is no teardown.
type Kernel struct {
	cs  critSection
	cfg Config

	// tcbs is the task arena; slot idleID holds the idle context.
	tcbs   [MaxTasks + 1]tcb
	ntasks int

	current   TaskID
	ready     [NumPriorities]taskList
	readyBits uint32 // bit p set <=> ready[p] non-empty

	delayHead TaskID
	tick      uint64

	slice         uint32
	switchPending bool // set from interrupt context: higher-priority wake
	rotatePending bool // set from interrupt context: time slice expired
	idleParked    bool // idle goroutine is suspended on its gate

	panicHandler func(PanicInfo)

	started bool
	halted  bool
	haltErr Err
}

// New creates a kernel. The configuration is copied and immutable
// afterwards.
func New(cfg Config) (*Kernel, Err) {
	if cfg.Port == nil {
		return nil, ErrInvalidParam
	}
	if cfg.Sleeper != nil && len(cfg.SleepPlans) == 0 {
		cfg.SleepPlans = DefaultSleepPlans
	}
	k := &Kernel{cfg: cfg, current: idleID, delayHead: noTask}
	for i := range k.ready {
		k.ready[i] = newTaskList()
	}
	for i := range k.tcbs {
		t := &k.tcbs[i]
		t.next, t.prev, t.delayNext = noTask, noTask, noTask
	}
	return k, OK
}

// Start validates and registers the task set, transfers control to the
// highest-priority task, and turns the calling goroutine into the idle
// task. It returns only on Halt, on a fatal fault, or once every task has
// terminated.
func (k *Kernel) Start(set TaskSet) Err {
	lim := Limits{
		StackBudget:      k.cfg.StackBudget,
		UniquePriorities: k.cfg.UniquePriorities,
		RequireRun:       true,
	}
	if err := ValidateTaskSet(set, lim); err != nil {
		k.logf("start rejected: %v", err)
		return errKind(err)
	}

	k.cs.enter()
	if k.started {
		k.cs.leave()
		return ErrInvalidParam
	}
	k.started = true
	k.ntasks = len(set)
	for i := range set {
		id := TaskID(i)
		t := &k.tcbs[id]
		t.name = set[i].Name
		t.entry = set[i].Run
		t.basePrio = set[i].Priority
		t.prio = set[i].Priority
		t.stackBytes = set[i].StackBytes
		t.state = stateReady
		k.readyPushBack(id)
	}
	idle := &k.tcbs[idleID]
	idle.name = "idle"
	idle.state = stateRunning
	k.cs.leave()

	for i := range set {
		id := TaskID(i)
		k.cfg.Port.Spawn(id, func() { k.taskMain(id) })
	}

	k.logf("start: %d tasks", len(set))
	k.cs.enter()
	k.idleLoop()
	err := k.haltErr
	k.cs.leave()
	k.logf("halt: %s", err)
	return err
}

// Halt requests shutdown. Blocked tasks stay parked; the running task keeps
// the CPU until its next preemption point; Start returns once the idle task
// observes the request.
func (k *Kernel) Halt() {
	k.cs.enter()
	if !k.halted {
		k.halted = true
	}
	if k.idleParked {
		k.cfg.Port.Resume(idleID)
	}
	k.cs.leave()
}

// Halt requests shutdown from inside a task.
func (c *Context) Halt() { c.k.Halt() }

// Now returns the current tick count.
func (k *Kernel) Now() uint64 {
	k.cs.enter()
	t := k.tick
	k.cs.leave()
	return t
}

// Yield hands the CPU to the next ready task of the same or higher
// priority, moving the caller to the back of its level.
func (c *Context) Yield() {
	k := c.k
	k.cs.enter()
	if k.halted {
		k.switchTo(c.id, idleID)
		k.cs.leave()
		return
	}
	if top, ok := k.topReadyPrio(); ok && top >= k.tcbs[c.id].prio {
		k.switchOut(c.id, false)
	}
	k.cs.leave()
}

// taskMain is the goroutine body wrapping a task entry function.
func (k *Kernel) taskMain(id TaskID) {
	defer func() {
		if r := recover(); r != nil {
			k.taskPanicked(id, r)
		}
	}()
	// Wait for the first dispatch.
	k.cfg.Port.Suspend(id)
	ctx := &Context{k: k, id: id}
	k.tcbs[id].entry(ctx)
	k.exitCurrent(id)
}

// exitCurrent retires the calling task and hands control to the next ready
// task without suspending: the caller's goroutine is about to return. The
// caller names itself; k.current may already point elsewhere by the time
// the goroutine unwinds.
func (k *Kernel) exitCurrent(id TaskID) {
	k.cs.enter()
	t := &k.tcbs[id]
	t.state = stateTerminated
	t.reason = reasonNone

	allDone := true
	for i := 0; i < k.ntasks; i++ {
		if k.tcbs[i].state != stateTerminated {
			allDone = false
			break
		}
	}
	if allDone {
		k.halted = true
	}

	next := idleID
	if !k.halted {
		next = k.popReady()
	}
	k.current = next
	if next != idleID {
		k.tcbs[next].state = stateRunning
		k.slice = k.cfg.TimeSlice
	}
	k.cs.leave()
	k.cfg.Port.Resume(next)
}

//
// Ready structure
//

func (k *Kernel) readyPushBack(id TaskID) {
	p := k.tcbs[id].prio
	k.listPushBack(&k.ready[p], id)
	k.readyBits |= 1 << p
}

func (k *Kernel) readyPushFront(id TaskID) {
	p := k.tcbs[id].prio
	k.listPushFront(&k.ready[p], id)
	k.readyBits |= 1 << p
}

func (k *Kernel) readyRemove(id TaskID) {
	p := k.tcbs[id].prio
	k.listRemove(&k.ready[p], id)
	if k.ready[p].empty() {
		k.readyBits &^= 1 << p
	}
}

// topReadyPrio returns the highest non-empty ready level.
func (k *Kernel) topReadyPrio() (uint8, bool) {
	if k.readyBits == 0 {
		return 0, false
	}
	return uint8(bits.Len32(k.readyBits) - 1), true
}

// popReady dequeues the next task to run: head of the highest non-empty
// level, or the idle task.
func (k *Kernel) popReady() TaskID {
	p, ok := k.topReadyPrio()
	if !ok {
		return idleID
	}
	id := k.listPopFront(&k.ready[p])
	if k.ready[p].empty() {
		k.readyBits &^= 1 << p
	}
	return id
}

//
// Dispatch
//

// switchTo transfers control from the calling context, which names itself
// in from, to next. The critical section is held on entry, released across
// the actual switch, and reacquired before return; when the calling context
// is dispatched again, execution continues here.
func (k *Kernel) switchTo(from, next TaskID) {
	if next == from {
		if next != idleID {
			k.tcbs[next].state = stateRunning
		}
		return
	}
	var fatal string
	if from != idleID && !k.halted && !k.cfg.Port.StackOK(from) {
		// Continuing would corrupt unrelated memory; halt into a
		// diagnostic state instead.
		fatal = fmt.Sprintf("fatal: stack bounds violated by task %d (%s)", from, k.tcbs[from].name)
		k.halted = true
		k.haltErr = ErrStackOverflow
		next = idleID
	}
	k.current = next
	if next != idleID {
		k.tcbs[next].state = stateRunning
		k.slice = k.cfg.TimeSlice
	}
	k.cs.leave()
	if fatal != "" {
		k.logf("%s", fatal)
	}
	k.cfg.Port.Resume(next)
	for {
		k.cfg.Port.Suspend(from)
		k.cs.enter()
		if k.current == from {
			return
		}
		// A gate token latched while this context was still running.
		// The dispatch back to it has not happened yet; park again.
		k.cs.leave()
	}
}

// switchOut moves the running task back into the ready structure (front
// keeps its turn after a preemption, back yields it) and dispatches the
// next task.
func (k *Kernel) switchOut(cur TaskID, front bool) {
	t := &k.tcbs[cur]
	t.state = stateReady
	if front {
		k.readyPushFront(cur)
	} else {
		k.readyPushBack(cur)
	}
	k.switchTo(cur, k.popReady())
}

// blockCurrent removes the calling task from the running state, parks it on
// wq (priority ordered) and/or the delay list, and yields control. This is
// the only path by which a task leaves Running voluntarily. It returns the
// wait outcome: OK from the waker, ErrTimeout on expiry.
func (k *Kernel) blockCurrent(wq *waitQueue, reason blockReason, timeout uint32) Err {
	if timeout == NoWait {
		return ErrWouldBlock
	}
	if k.halted {
		return ErrHalted
	}
	cur := k.current
	t := &k.tcbs[cur]
	t.state = stateBlocked
	t.reason = reason
	t.waitErr = OK
	if wq != nil {
		k.wqInsert(wq, cur)
	}
	if timeout != Forever {
		k.delayInsert(cur, k.tick+uint64(timeout))
	}
	k.switchTo(cur, k.popReady())
	t.reason = reasonNone
	return t.waitErr
}

// wakeTask moves a blocked task back into the ready structure with the
// given outcome, unlinking it from its wait queue and the delay list.
// It reports whether the woken task outranks the running one; the caller
// decides how to act on that (dispatch now, or flag a pending switch from
// interrupt context). It never performs the switch itself.
func (k *Kernel) wakeTask(id TaskID, outcome Err) bool {
	t := &k.tcbs[id]
	if t.state != stateBlocked {
		return false
	}
	if t.wq != nil {
		k.wqRemove(t.wq, id)
	}
	if t.onDelay {
		k.delayRemove(id)
	}
	t.waitErr = outcome
	t.state = stateReady
	k.readyPushBack(id)
	if k.current == idleID {
		return true
	}
	return t.prio > k.tcbs[k.current].prio
}

// maybePreempt dispatches a strictly higher-priority ready task, moving the
// caller to the front of its level so it resumes first among equals.
func (k *Kernel) maybePreempt() {
	cur := k.current
	if cur == idleID || k.halted || k.tcbs[cur].state != stateRunning {
		return
	}
	if top, ok := k.topReadyPrio(); ok && top > k.tcbs[cur].prio {
		k.switchOut(cur, true)
	}
}

// noteSwitchPending records that interrupt context made a higher-priority
// task ready. The switch happens at the next preemption point; a parked
// idle task is kicked so it re-evaluates immediately. When the idle
// goroutine is running (a tickless resync, or Tick racing the idle loop)
// no kick is needed: it re-inspects readyBits itself, and a latched token
// would later satisfy a dispatch wait that was never signalled.
func (k *Kernel) noteSwitchPending() {
	k.switchPending = true
	if k.idleParked {
		k.cfg.Port.Resume(idleID)
	}
}

// checkPending honors a switch requested from interrupt context. Called at
// every preemption point in task context, with the critical section held.
func (k *Kernel) checkPending() {
	if k.halted {
		if cur := k.current; cur != idleID {
			k.switchTo(cur, idleID)
		}
		return
	}
	if !k.switchPending && !k.rotatePending {
		return
	}
	sp, rp := k.switchPending, k.rotatePending
	k.switchPending, k.rotatePending = false, false
	cur := k.current
	if cur == idleID {
		return
	}
	top, ok := k.topReadyPrio()
	if !ok {
		return
	}
	p := k.tcbs[cur].prio
	switch {
	case sp && top > p:
		k.switchOut(cur, true)
	case rp && top >= p:
		k.switchOut(cur, false)
	}
}

//
// Priorities
//

// setPrio changes a task's current priority, repositioning it in whatever
// scheduling structure it occupies.
func (k *Kernel) setPrio(id TaskID, prio uint8) {
	t := &k.tcbs[id]
	if t.prio == prio {
		return
	}
	switch {
	case t.state == stateReady:
		k.readyRemove(id)
		t.prio = prio
		k.readyPushBack(id)
	case t.state == stateBlocked && t.wq != nil:
		q := t.wq
		t.prio = prio
		k.wqReposition(q, id)
	default:
		t.prio = prio
	}
}

func (k *Kernel) logf(format string, args ...any) {
	if k.cfg.Log == nil {
		return
	}
	k.cfg.Log.WriteLineString(fmt.Sprintf(format, args...))
}
