package pipeline

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"letrado/internal/logging"
)

// =============================================================================
// ANALYSIS SCHEDULER - ADMISSION CONTROL FOR FULL PIPELINE RUNS
// =============================================================================
//
// The Scheduler bounds how many full analysis pipelines run at once.
// Excess requests wait in arrival order rather than being rejected.
// A slot covers a whole run; stages within a run are sequential and
// never re-acquire.

// RunPhase represents where a run is in its admission lifecycle.
type RunPhase int

const (
	PhaseWaiting RunPhase = iota
	PhaseRunning
	PhaseDone
	PhaseFailed
)

func (p RunPhase) String() string {
	switch p {
	case PhaseWaiting:
		return "waiting"
	case PhaseRunning:
		return "running"
	case PhaseDone:
		return "done"
	case PhaseFailed:
		return "failed"
	default:
		return fmt.Sprintf("unknown(%d)", p)
	}
}

// RunState tracks one admitted or waiting run.
type RunState struct {
	RunID    string
	Phase    RunPhase
	Enqueued time.Time
	Admitted time.Time
	WaitTime time.Duration
	Err      error
}

// Scheduler is the admission gate for pipeline runs. The weighted
// semaphore grants slots in FIFO order, so waiters are admitted in
// arrival order as slots free up.
type Scheduler struct {
	max int64
	sem *semaphore.Weighted

	mu     sync.RWMutex
	states map[string]*RunState

	running int32
	waiting int32
	total   int64
}

// NewScheduler creates a scheduler admitting at most max concurrent
// runs. Non-positive max falls back to 1.
func NewScheduler(max int) *Scheduler {
	if max <= 0 {
		max = 1
	}
	return &Scheduler{
		max:    int64(max),
		sem:    semaphore.NewWeighted(int64(max)),
		states: make(map[string]*RunState),
	}
}

// Acquire blocks until the run is admitted or ctx is cancelled. Every
// successful Acquire must be paired with exactly one Release; callers
// defer the release immediately after admission so every exit path,
// including panics and stage failures, frees the slot.
func (s *Scheduler) Acquire(ctx context.Context, runID string) error {
	state := &RunState{RunID: runID, Phase: PhaseWaiting, Enqueued: time.Now()}
	s.mu.Lock()
	s.states[runID] = state
	s.mu.Unlock()

	atomic.AddInt32(&s.waiting, 1)
	if n := atomic.LoadInt32(&s.running); int64(n) >= s.max {
		logging.Pipeline("Scheduler: run %s waiting for slot (running=%d/%d, waiting=%d)",
			runID, n, s.max, atomic.LoadInt32(&s.waiting))
	}

	err := s.sem.Acquire(ctx, 1)
	atomic.AddInt32(&s.waiting, -1)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		state.Phase = PhaseFailed
		state.Err = err
		delete(s.states, runID)
		logging.PipelineWarn("Scheduler: run %s cancelled while waiting (waited %v)",
			runID, time.Since(state.Enqueued))
		return err
	}

	state.Phase = PhaseRunning
	state.Admitted = time.Now()
	state.WaitTime = state.Admitted.Sub(state.Enqueued)
	atomic.AddInt32(&s.running, 1)
	atomic.AddInt64(&s.total, 1)
	if state.WaitTime > 100*time.Millisecond {
		logging.Pipeline("Scheduler: run %s admitted after %v", runID, state.WaitTime)
	}
	return nil
}

// Release frees the run's slot and drops its state tracking.
func (s *Scheduler) Release(runID string) {
	s.mu.Lock()
	if state, ok := s.states[runID]; ok {
		if state.Phase == PhaseRunning {
			state.Phase = PhaseDone
		}
		delete(s.states, runID)
	}
	s.mu.Unlock()

	atomic.AddInt32(&s.running, -1)
	s.sem.Release(1)
}

// Stats is a point-in-time snapshot for logging and the stats surface.
type Stats struct {
	MaxConcurrent int   `json:"max_concurrent"`
	Running       int   `json:"running"`
	Waiting       int   `json:"waiting"`
	TotalAdmitted int64 `json:"total_admitted"`
}

func (s *Scheduler) Stats() Stats {
	return Stats{
		MaxConcurrent: int(s.max),
		Running:       int(atomic.LoadInt32(&s.running)),
		Waiting:       int(atomic.LoadInt32(&s.waiting)),
		TotalAdmitted: atomic.LoadInt64(&s.total),
	}
}
