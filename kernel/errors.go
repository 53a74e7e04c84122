package kernel

// Err is the kernel error kind. Every fallible kernel operation returns an
// Err; the kernel never panics across its API boundary, so the values stay
// usable from interrupt context.
type Err uint8

const (
	// OK is the success value. Callers compare against OK, not nil.
	OK Err = iota
	// ErrInvalidParam rejects a malformed argument or configuration.
	ErrInvalidParam
	// ErrWouldBlock is returned by non-blocking variants that cannot
	// complete immediately.
	ErrWouldBlock
	// ErrTimeout reports a blocking call that expired unsatisfied.
	ErrTimeout
	// ErrNotOwner rejects a mutex unlock by a task that does not hold it.
	ErrNotOwner
	// ErrOverflow reports a semaphore, queue, or budget capacity exceeded.
	ErrOverflow
	// ErrPoolExhausted reports a block pool with no free slots.
	ErrPoolExhausted
	// ErrInvalidHandle rejects a stale or out-of-range identifier.
	ErrInvalidHandle
	// ErrStackOverflow is fatal: a stack bounds check failed on a context
	// switch and the kernel halted into a diagnostic state.
	ErrStackOverflow
	// ErrPriorityRange rejects a priority outside the supported range.
	ErrPriorityRange
	// ErrHalted reports an operation attempted after the kernel halted.
	ErrHalted
	// ErrFault is fatal: a task panicked and the kernel halted.
	ErrFault
)

func (e Err) String() string {
	switch e {
	case OK:
		return "ok"
	case ErrInvalidParam:
		return "invalid parameter"
	case ErrWouldBlock:
		return "would block"
	case ErrTimeout:
		return "timeout"
	case ErrNotOwner:
		return "not owner"
	case ErrOverflow:
		return "overflow"
	case ErrPoolExhausted:
		return "pool exhausted"
	case ErrInvalidHandle:
		return "invalid handle"
	case ErrStackOverflow:
		return "stack overflow"
	case ErrPriorityRange:
		return "priority out of range"
	case ErrHalted:
		return "kernel halted"
	case ErrFault:
		return "task fault"
	default:
		return "unknown"
	}
}

// Error lets an Err travel through the standard error plumbing, so
// configuration errors can wrap a kind with fmt.Errorf("%w: ...").
func (e Err) Error() string { return e.String() }
