package workers

import (
	"context"
	"log"
	"time"
)

// StreakRecalculator is the part of the streak service the sweeper needs.
type StreakRecalculator interface {
	RecalculateAll(ctx context.Context) (int, error)
}

// SweepResult describes one finished sweep.
type SweepResult struct {
	Updated  int
	Err      error
	Duration time.Duration
}

// StreakWorker periodically recomputes every habit's streak counters.
// Entry writes keep counters fresh on their own; the sweep covers the days
// that pass without writes, when a current streak silently breaks.
type StreakWorker struct {
	recalculator StreakRecalculator
	interval     time.Duration
	jobs         chan struct{}

	// OnSweep, when set, is called after each sweep.
	OnSweep func(SweepResult)
}

func NewStreakWorker(recalculator StreakRecalculator, interval time.Duration) *StreakWorker {
	if interval <= 0 {
		interval = time.Hour
	}

	return &StreakWorker{
		recalculator: recalculator,
		interval:     interval,
		jobs:         make(chan struct{}, 1),
	}
}

// Start runs an initial sweep and then one per interval until ctx is done.
// The returned channel is closed once the worker has stopped.
func (w *StreakWorker) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})

	go func() {
		defer close(done)
		log.Printf("[WORKER] Streak sweeper started (every %s)", w.interval)

		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		w.Sweep(ctx)
		for {
			select {
			case <-ticker.C:
				w.Sweep(ctx)
			case <-w.jobs:
				w.Sweep(ctx)
			case <-ctx.Done():
				log.Println("[WORKER] Streak sweeper shutting down...")
				return
			}
		}
	}()

	return done
}

// Trigger asks for a sweep outside the schedule. A sweep already pending
// absorbs the request.
func (w *StreakWorker) Trigger() {
	select {
	case w.jobs <- struct{}{}:
	default:
		log.Println("[WORKER] Sweep already pending, request dropped")
	}
}

// Sweep recomputes all counters once.
func (w *StreakWorker) Sweep(ctx context.Context) SweepResult {
	start := time.Now()
	updated, err := w.recalculator.RecalculateAll(ctx)
	result := SweepResult{Updated: updated, Err: err, Duration: time.Since(start)}

	if err != nil {
		log.Printf("[WORKER] Streak sweep failed after %d updates: %v", updated, err)
	} else if updated > 0 {
		log.Printf("[WORKER] Streak sweep updated %d habits in %s", updated, result.Duration)
	}

	if w.OnSweep != nil {
		w.OnSweep(result)
	}
	return result
}
