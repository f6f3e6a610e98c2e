package pipeline

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestSchedulerAcquireRelease(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))

	s := NewScheduler(2)
	ctx := context.Background()

	if err := s.Acquire(ctx, "run-1"); err != nil {
		t.Fatalf("Acquire run-1: %v", err)
	}
	if err := s.Acquire(ctx, "run-2"); err != nil {
		t.Fatalf("Acquire run-2: %v", err)
	}

	// Third acquire must block until a slot frees.
	shortCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	if err := s.Acquire(shortCtx, "run-3"); err != context.DeadlineExceeded {
		t.Fatalf("Expected DeadlineExceeded, got %v", err)
	}

	s.Release("run-1")
	if err := s.Acquire(ctx, "run-4"); err != nil {
		t.Fatalf("Acquire after release: %v", err)
	}

	s.Release("run-2")
	s.Release("run-4")

	stats := s.Stats()
	if stats.Running != 0 {
		t.Errorf("Expected 0 running after releases, got %d", stats.Running)
	}
	if stats.TotalAdmitted != 3 {
		t.Errorf("Expected 3 total admitted, got %d", stats.TotalAdmitted)
	}
}

// At no point may more runs execute than the configured limit, and
// every waiter must eventually be admitted.
func TestSchedulerBoundsConcurrency(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))

	const limit = 3
	const runs = 20

	s := NewScheduler(limit)
	ctx := context.Background()

	var current, peak int32
	var wg sync.WaitGroup
	for i := 0; i < runs; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			runID := fmt.Sprintf("run-%d", id)
			if err := s.Acquire(ctx, runID); err != nil {
				t.Errorf("Acquire %s: %v", runID, err)
				return
			}
			defer s.Release(runID)

			n := atomic.AddInt32(&current, 1)
			for {
				old := atomic.LoadInt32(&peak)
				if n <= old || atomic.CompareAndSwapInt32(&peak, old, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&current, -1)
		}(i)
	}
	wg.Wait()

	if p := atomic.LoadInt32(&peak); p > limit {
		t.Errorf("Concurrency limit violated: peak %d > %d", p, limit)
	}
	if got := s.Stats().TotalAdmitted; got != runs {
		t.Errorf("Expected %d admitted, got %d", runs, got)
	}
}

func TestSchedulerCancelledWaiter(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))

	s := NewScheduler(1)
	ctx := context.Background()

	if err := s.Acquire(ctx, "holder"); err != nil {
		t.Fatalf("Acquire holder: %v", err)
	}

	waitCtx, cancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Acquire(waitCtx, "waiter")
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	if err := <-errCh; err != context.Canceled {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}

	// The cancelled waiter must not consume the slot.
	s.Release("holder")
	if err := s.Acquire(ctx, "next"); err != nil {
		t.Fatalf("Slot leaked after cancelled waiter: %v", err)
	}
	s.Release("next")
}

func TestSchedulerNonPositiveMax(t *testing.T) {
	s := NewScheduler(0)
	if s.Stats().MaxConcurrent != 1 {
		t.Errorf("Expected fallback to 1, got %d", s.Stats().MaxConcurrent)
	}
}
