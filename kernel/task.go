package kernel

// TaskID identifies a registered task. IDs are dense indices assigned in
// task-set order at Start and stay stable for the kernel lifetime.
type TaskID uint8

const (
	// MaxTasks bounds the task set, idle task excluded.
	MaxTasks = 32
	// NumPriorities is the number of discrete priority levels. Higher
	// values run first.
	NumPriorities = 32
	// MaxPriority is the highest allowed task priority.
	MaxPriority = NumPriorities - 1
)

const (
	// noTask is the list-link sentinel.
	noTask TaskID = 0xFF
	// idleID is the context slot of the builtin idle task.
	idleID TaskID = MaxTasks
)

// Timeouts are expressed in ticks.
const (
	// NoWait makes a blocking call fail with ErrWouldBlock instead of
	// waiting.
	NoWait uint32 = 0
	// Forever disables the timeout on a blocking call.
	Forever uint32 = ^uint32(0)
)

type taskState uint8

const (
	stateInactive taskState = iota
	stateReady
	stateRunning
	stateBlocked
	stateTerminated
)

func (s taskState) String() string {
	switch s {
	case stateInactive:
		return "inactive"
	case stateReady:
		return "ready"
	case stateRunning:
		return "running"
	case stateBlocked:
		return "blocked"
	case stateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

type blockReason uint8

const (
	reasonNone blockReason = iota
	reasonDelay
	reasonMutex
	reasonSemaphore
	reasonQueueSend
	reasonQueueRecv
	reasonNotify
)

// tcb is the task control block: per-task scheduling metadata. TCBs live in
// a fixed arena inside the Kernel and are never freed.
type tcb struct {
	name  string
	entry func(*Context)

	state    taskState
	reason   blockReason
	basePrio uint8
	prio     uint8 // current priority; >= basePrio, boosted by inheritance

	// Event links: membership in the ready list or exactly one wait queue,
	// never both.
	next, prev TaskID
	wq         *waitQueue

	// Delay links: membership in the wake-ordered delay list. Kept apart
	// from the event links so a timed wait can sit on a wait queue and the
	// delay list at once.
	delayNext TaskID
	onDelay   bool
	wakeTick  uint64

	// Outcome slot filled by the waker (OK) or by timeout expiry.
	waitErr Err

	// Notification cell. Lifetime equals the TCB's; no separate
	// allocation.
	noteVal     uint32
	notePending bool

	// Mutexes currently held, newest first. Needed to restore priority
	// correctly when nested mutexes are released out of order.
	held *Mutex

	stackBytes uint32
}

// Context is the task-local handle passed to every task entry function.
// Its methods may only be called from the task's own goroutine.
type Context struct {
	k  *Kernel
	id TaskID
}

// ID returns the calling task's identifier.
func (c *Context) ID() TaskID { return c.id }

// Name returns the calling task's configured name.
func (c *Context) Name() string { return c.k.tcbs[c.id].name }

// Kernel returns the kernel the task belongs to.
func (c *Context) Kernel() *Kernel { return c.k }
