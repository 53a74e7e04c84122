package kernel

// The kernel consumes its platform through the small interfaces below. It
// never reaches for ambient global state: the implementations are supplied
// once through Config and held for the kernel lifetime. Host
// implementations live in package hal; a bare-metal port would supply its
// own.

// Port is the context-switch primitive: it creates task execution contexts
// and transfers control between them. The kernel calls Resume and Suspend
// only at well-defined preemption points and never while holding the
// critical section.
type Port interface {
	// Spawn prepares an execution context for id; fn starts running when
	// the context is first resumed.
	Spawn(id TaskID, fn func())
	// Resume transfers control to the context for id. A resume delivered
	// before the matching suspend must not be lost.
	Resume(id TaskID)
	// Suspend parks the calling context until another context resumes it.
	Suspend(id TaskID)
	// StackOK reports whether the stack bounds for id are intact. The
	// kernel checks the outgoing task on every context switch; a failure
	// is fatal.
	StackOK(id TaskID) bool
}

// SleepMode selects a low-power sleep depth for tickless idle.
type SleepMode uint8

const (
	SleepLight SleepMode = iota
	SleepDeep
	SleepStandby
)

func (m SleepMode) String() string {
	switch m {
	case SleepLight:
		return "light"
	case SleepDeep:
		return "deep"
	case SleepStandby:
		return "standby"
	default:
		return "unknown"
	}
}

// Sleeper suspends the tick source for up to the requested number of ticks
// and reports how many ticks actually elapsed; an external interrupt may
// cut the sleep short. A kernel configured with a Sleeper must not also be
// driven by an external Tick source: the two are alternative timebases.
type Sleeper interface {
	Sleep(mode SleepMode, ticks uint32) uint32
}

// SleepPlan describes one sleep depth: the longest stay it permits and the
// wake-up latency it costs, both in ticks. Plans are listed shallowest
// first; the idle task picks the deepest plan whose latency still meets
// the next deadline.
type SleepPlan struct {
	Mode        SleepMode
	MaxTicks    uint32
	WakeLatency uint32
}

// DefaultSleepPlans is used when a Sleeper is configured without plans.
var DefaultSleepPlans = []SleepPlan{
	{Mode: SleepLight, MaxTicks: 64, WakeLatency: 0},
	{Mode: SleepDeep, MaxTicks: 1 << 16, WakeLatency: 2},
	{Mode: SleepStandby, MaxTicks: 1 << 24, WakeLatency: 10},
}

// Logger accepts newline-delimited diagnostic lines. The kernel logs only
// lifecycle events: start, halt, faults.
type Logger interface {
	WriteLineString(s string)
}
