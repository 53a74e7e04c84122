package kernel

import (
	"errors"
	"fmt"
)

// TaskConfig describes one task in a declarative task set: everything the
// scheduler needs to size and place it is fixed before Start.
type TaskConfig struct {
	Name       string
	Priority   uint8
	StackBytes uint32
	Run        func(*Context)
}

// TaskSet is the static description of all tasks a kernel will run.
type TaskSet []TaskConfig

// Limits bound a task set at validation time.
type Limits struct {
	// StackBudget caps the aggregate configured stack bytes. 0 means
	// unlimited.
	StackBudget uint32
	// UniquePriorities rejects sets where two tasks share a priority.
	UniquePriorities bool
	// RequireRun demands an entry function per task. Start sets it;
	// offline validation of a manifest does not.
	RequireRun bool
}

// ValidateTaskSet checks a declarative task set against the kernel's
// builtin bounds and the given limits. The returned error wraps the Err
// kind, so errors.Is(err, ErrPriorityRange) and friends hold, and the
// message names the offending task.
func ValidateTaskSet(set TaskSet, lim Limits) error {
	if len(set) == 0 {
		return fmt.Errorf("%w: empty task set", ErrInvalidParam)
	}
	if len(set) > MaxTasks {
		return fmt.Errorf("%w: %d tasks exceeds the limit of %d", ErrInvalidParam, len(set), MaxTasks)
	}
	var prioOwner [NumPriorities]string
	names := make(map[string]struct{}, len(set))
	var totalStack uint64
	for i := range set {
		tc := &set[i]
		if tc.Name == "" {
			return fmt.Errorf("%w: task %d has no name", ErrInvalidParam, i)
		}
		if _, dup := names[tc.Name]; dup {
			return fmt.Errorf("%w: duplicate task name %q", ErrInvalidParam, tc.Name)
		}
		names[tc.Name] = struct{}{}
		if tc.Priority > MaxPriority {
			return fmt.Errorf("%w: task %q priority %d outside 0..%d",
				ErrPriorityRange, tc.Name, tc.Priority, MaxPriority)
		}
		if lim.UniquePriorities {
			if owner := prioOwner[tc.Priority]; owner != "" {
				return fmt.Errorf("%w: tasks %q and %q share priority %d",
					ErrPriorityRange, owner, tc.Name, tc.Priority)
			}
			prioOwner[tc.Priority] = tc.Name
		}
		if lim.RequireRun && tc.Run == nil {
			return fmt.Errorf("%w: task %q has no entry function", ErrInvalidParam, tc.Name)
		}
		totalStack += uint64(tc.StackBytes)
	}
	if lim.StackBudget > 0 && totalStack > uint64(lim.StackBudget) {
		return fmt.Errorf("%w: aggregate stack %d bytes exceeds budget %d",
			ErrOverflow, totalStack, lim.StackBudget)
	}
	return nil
}

// errKind extracts the Err kind a validation error wraps.
func errKind(err error) Err {
	var e Err
	if errors.As(err, &e) {
		return e
	}
	return ErrInvalidParam
}
