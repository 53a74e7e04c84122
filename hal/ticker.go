package hal

import (
	"context"
	"time"

	"ember/kernel"
)

// RunTicker delivers kernel ticks from wall-clock time until ctx is done.
// Each period elapses on the host clock and becomes one Tick call, entered
// the way a hardware timer interrupt would be. RunTicker returns ctx.Err().
func RunTicker(ctx context.Context, k *kernel.Kernel, period time.Duration) error {
	t := time.NewTicker(period)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			k.Tick()
		}
	}
}
