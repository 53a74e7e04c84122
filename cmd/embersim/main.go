// Command embersim runs the kernel on the host with a wall-clock tick
// source and a small demo workload: a producer/consumer pair passing pool
// blocks over a queue, a notification-driven blinker fed from simulated
// interrupt context, and a mutex-guarded shared counter.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"golang.org/x/sync/errgroup"

	"ember/hal"
	"ember/internal/buildinfo"
	"ember/kernel"
	"ember/pool"
)

type frame struct {
	seq     uint32
	payload [32]byte
}

func main() {
	var (
		hz      = flag.Int("hz", 1000, "Tick rate.")
		ticks   = flag.Uint64("ticks", 0, "Stop after N ticks (0 = run until interrupted).")
		slice   = flag.Uint("slice", 10, "Round-robin quantum in ticks (0 = disabled).")
		jsonOut = flag.Bool("json", false, "Structured log output instead of console format.")
	)
	flag.Parse()

	if err := run(*hz, *ticks, uint32(*slice), *jsonOut); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(hz int, ticks uint64, slice uint32, jsonOut bool) error {
	if hz <= 0 {
		return fmt.Errorf("invalid tick rate %d", hz)
	}
	log := hal.NewConsoleLogger(os.Stderr)
	if jsonOut {
		log = hal.NewLogger(os.Stderr)
	}
	log.WriteLineString("embersim " + buildinfo.Short())

	port := hal.NewHostPort()
	k, kerr := kernel.New(kernel.Config{
		Port:      port,
		Log:       log,
		TimeSlice: slice,
	})
	if kerr != kernel.OK {
		return fmt.Errorf("kernel: %s", kerr)
	}

	frames, kerr := pool.New[frame](8)
	if kerr != kernel.OK {
		return fmt.Errorf("frame pool: %s", kerr)
	}
	mailbox, kerr := kernel.NewQueue[uint32](k, 4)
	if kerr != kernel.OK {
		return fmt.Errorf("mailbox: %s", kerr)
	}
	counterMu := kernel.NewMutex(k)
	counter := 0

	const blinkerID = kernel.TaskID(0)

	set := kernel.TaskSet{
		{Name: "blinker", Priority: 20, StackBytes: 1024, Run: func(c *kernel.Context) {
			on := false
			for {
				v, err := c.NotifyWait(0, ^uint32(0), kernel.Forever)
				if err != kernel.OK {
					return
				}
				on = !on
				log.WriteLineString(fmt.Sprintf("blink %v after %d edges", on, v))
			}
		}},
		{Name: "producer", Priority: 10, StackBytes: 2048, Run: func(c *kernel.Context) {
			for seq := uint32(0); ; seq++ {
				idx, err := frames.Get()
				if err != kernel.OK {
					c.Delay(5)
					continue
				}
				f := frames.Item(idx)
				f.seq = seq
				for i := range f.payload {
					f.payload[i] = byte(seq + uint32(i))
				}
				if err := mailbox.Send(idx, kernel.Forever); err != kernel.OK {
					frames.Put(idx)
					return
				}
				if err := c.Delay(20); err != kernel.OK {
					return
				}
			}
		}},
		{Name: "consumer", Priority: 10, StackBytes: 2048, Run: func(c *kernel.Context) {
			for {
				idx, err := mailbox.Recv(kernel.Forever)
				if err != kernel.OK {
					return
				}
				f := frames.Item(idx)
				if f.seq%50 == 0 {
					log.WriteLineString(fmt.Sprintf("frame %d consumed, %d blocks live", f.seq, frames.InUse()))
				}
				frames.Put(idx)

				counterMu.Lock()
				counter++
				counterMu.Unlock()
			}
		}},
		{Name: "janitor", Priority: 10, StackBytes: 1024, Run: func(c *kernel.Context) {
			for {
				if err := c.Delay(500); err != kernel.OK {
					return
				}
				counterMu.Lock()
				n := counter
				counterMu.Unlock()
				log.WriteLineString(fmt.Sprintf("tick %d: %d frames counted", k.Now(), n))
			}
		}},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)

	g, ctx := errgroup.WithContext(ctx)
	period := time.Second / time.Duration(hz)

	g.Go(func() error {
		err := hal.RunTicker(ctx, k, period)
		k.Halt()
		if err == context.Canceled {
			return nil
		}
		return err
	})
	g.Go(func() error {
		// Edge source: simulated GPIO interrupt toggling the blinker.
		t := time.NewTicker(100 * period)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-t.C:
				k.NotifyISR(blinkerID, 1, kernel.NotifyIncrement)
			}
		}
	})
	if ticks > 0 {
		g.Go(func() error {
			for k.Now() < ticks {
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(period):
				}
			}
			cancel()
			return nil
		})
	}
	g.Go(func() error {
		defer cancel()
		if err := k.Start(set); err != kernel.OK {
			return fmt.Errorf("kernel stopped: %s", err)
		}
		return nil
	})

	return g.Wait()
}
