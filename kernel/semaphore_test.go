package kernel

import (
	"fmt"
	"testing"
)

func TestNewSemaphoreValidation(t *testing.T) {
	k := newTestKernel(t, Config{})
	if _, err := NewSemaphore(k, 0, 0); err != ErrInvalidParam {
		t.Fatalf("expected zero max to be rejected, got %s", err)
	}
	if _, err := NewSemaphore(k, 5, 3); err != ErrInvalidParam {
		t.Fatalf("expected initial > max to be rejected, got %s", err)
	}
	if _, err := NewSemaphore(nil, 0, 1); err != ErrInvalidParam {
		t.Fatalf("expected nil kernel to be rejected, got %s", err)
	}
}

func TestSemaphoreCountingBasics(t *testing.T) {
	k := newTestKernel(t, Config{})
	s, err := NewSemaphore(k, 2, 3)
	if err != OK {
		t.Fatalf("new: %s", err)
	}
	rc := runStart(t, k, TaskSet{
		{Name: "solo", Priority: 5, Run: func(c *Context) {
			if e := s.TryTake(); e != OK {
				t.Errorf("take 1: %s", e)
			}
			if e := s.TryTake(); e != OK {
				t.Errorf("take 2: %s", e)
			}
			if e := s.TryTake(); e != ErrWouldBlock {
				t.Errorf("expected empty semaphore to refuse, got %s", e)
			}
			for i := 0; i < 3; i++ {
				if e := s.Give(); e != OK {
					t.Errorf("give %d: %s", i, e)
				}
			}
			if e := s.Give(); e != ErrOverflow {
				t.Errorf("expected give at max to overflow, got %s", e)
			}
			if n := s.Count(); n != 3 {
				t.Errorf("expected count 3, got %d", n)
			}
		}},
	})
	if rc != OK {
		t.Fatalf("expected OK, got %s", rc)
	}
}

func TestBinarySemaphore(t *testing.T) {
	k := newTestKernel(t, Config{})
	s, err := NewBinarySemaphore(k, true)
	if err != OK {
		t.Fatalf("new: %s", err)
	}
	rc := runStart(t, k, TaskSet{
		{Name: "solo", Priority: 5, Run: func(c *Context) {
			if e := s.TryTake(); e != OK {
				t.Errorf("take: %s", e)
			}
			if e := s.TryTake(); e != ErrWouldBlock {
				t.Errorf("expected second take to refuse, got %s", e)
			}
			s.Give()
			if e := s.Give(); e != ErrOverflow {
				t.Errorf("expected binary give past 1 to overflow, got %s", e)
			}
		}},
	})
	if rc != OK {
		t.Fatalf("expected OK, got %s", rc)
	}
}

// Units go to waiters in priority order, not arrival order.
func TestSemaphoreWakesByPriority(t *testing.T) {
	k := newTestKernel(t, Config{})
	s, _ := NewSemaphore(k, 0, 3)
	rec := &recorder{}
	waiter := func(name string) func(*Context) {
		return func(c *Context) {
			if e := s.Take(Forever); e != OK {
				t.Errorf("%s take: %s", name, e)
				return
			}
			rec.add(name)
		}
	}
	err := runStart(t, k, TaskSet{
		{Name: "w3", Priority: 3, Run: waiter("w3")},
		{Name: "w7", Priority: 7, Run: waiter("w7")},
		{Name: "w5", Priority: 5, Run: waiter("w5")},
		{Name: "giver", Priority: 10, Run: func(c *Context) {
			c.Delay(5) // let all three park first
			s.Give()
			s.Give()
			s.Give()
		}},
	})
	if err != OK {
		t.Fatalf("expected OK, got %s", err)
	}
	expectEvents(t, rec, "w7", "w5", "w3")
}

// A give with a parked waiter hands the unit over directly: the count stays
// zero and a later taker cannot barge past the waiter.
func TestSemaphoreDirectHandoff(t *testing.T) {
	k := newTestKernel(t, Config{})
	s, _ := NewSemaphore(k, 0, 1)
	rec := &recorder{}
	err := runStart(t, k, TaskSet{
		{Name: "waiter", Priority: 20, Run: func(c *Context) {
			if e := s.Take(Forever); e != OK {
				t.Errorf("take: %s", e)
			}
			rec.add(fmt.Sprintf("waiter:count=%d", s.Count()))
		}},
		{Name: "giver", Priority: 5, Run: func(c *Context) {
			s.Give()
			rec.add("giver:done")
		}},
	})
	if err != OK {
		t.Fatalf("expected OK, got %s", err)
	}
	expectEvents(t, rec, "waiter:count=0", "giver:done")
}

func TestSemaphoreTakeTimesOutExactly(t *testing.T) {
	k := newTestKernel(t, Config{})
	s, _ := NewSemaphore(k, 0, 1)
	err := runStart(t, k, TaskSet{
		{Name: "waiter", Priority: 5, Run: func(c *Context) {
			if e := s.Take(25); e != ErrTimeout {
				t.Errorf("expected ErrTimeout, got %s", e)
			}
			if now := c.Kernel().Now(); now != 25 {
				t.Errorf("expected expiry at tick 25, got %d", now)
			}
		}},
	})
	if err != OK {
		t.Fatalf("expected OK, got %s", err)
	}
}

func TestSemaphoreGiveISRWakesWaiter(t *testing.T) {
	k := newTestKernel(t, Config{})
	s, _ := NewSemaphore(k, 0, 1)
	rec := &recorder{}
	err := runStart(t, k, TaskSet{
		{Name: "waiter", Priority: 20, Run: func(c *Context) {
			if e := s.Take(Forever); e != OK {
				t.Errorf("take: %s", e)
			}
			rec.add("waiter:woke")
		}},
		{Name: "kicker", Priority: 5, Run: func(c *Context) {
			if e := s.GiveISR(); e != OK {
				t.Errorf("give: %s", e)
			}
			rec.add("kicker:gave")
			c.Yield() // first preemption point after the interrupt
			rec.add("kicker:resumed")
		}},
	})
	if err != OK {
		t.Fatalf("expected OK, got %s", err)
	}
	expectEvents(t, rec, "kicker:gave", "waiter:woke", "kicker:resumed")
}

func TestSemaphoreBlockingOutsideTask(t *testing.T) {
	k := newTestKernel(t, Config{})
	s, _ := NewSemaphore(k, 0, 1)
	if e := s.Take(Forever); e != ErrInvalidHandle {
		t.Fatalf("expected blocking take outside task context to be rejected, got %s", e)
	}
	if e := s.TryTake(); e != ErrWouldBlock {
		t.Fatalf("expected non-blocking take to refuse normally, got %s", e)
	}
}
