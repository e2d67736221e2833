// Package progress tracks a running generate invocation's per-collection
// completion counts and optionally exposes them over HTTP as a live
// snapshot of an in-progress run.
package progress

import (
	"sync"
	"time"
)

// Reporter accumulates per-collection progress for one driver run. It is
// safe for concurrent use: the parallel driver mode has one goroutine per
// independent subgraph, each reporting its own collections' progress.
type Reporter struct {
	mu        sync.Mutex
	startedAt time.Time
	current   string
	totals    map[string]int
	done      map[string]int
	finished  map[string]bool
}

// NewReporter creates a Reporter for a run whose per-collection target
// counts are already known (driver.Run computes these before generating
// anything, per spec.md §4.5).
func NewReporter(totals map[string]int) *Reporter {
	done := make(map[string]int, len(totals))
	for name := range totals {
		done[name] = 0
	}
	return &Reporter{
		startedAt: time.Now(),
		totals:    totals,
		done:      done,
		finished:  make(map[string]bool, len(totals)),
	}
}

// SetCurrent marks collection as the one currently being generated.
func (r *Reporter) SetCurrent(collection string) {
	r.mu.Lock()
	r.current = collection
	r.mu.Unlock()
}

// Increment records one more record produced for collection.
func (r *Reporter) Increment(collection string) {
	r.mu.Lock()
	r.done[collection]++
	r.mu.Unlock()
}

// Finish marks a collection as fully generated and flushed.
func (r *Reporter) Finish(collection string) {
	r.mu.Lock()
	r.finished[collection] = true
	r.mu.Unlock()
}

// Snapshot is a point-in-time, JSON-serializable view of a run's progress.
type Snapshot struct {
	StartedAt time.Time       `json:"started_at"`
	ElapsedMS int64           `json:"elapsed_ms"`
	Current   string          `json:"current,omitempty"`
	Totals    map[string]int  `json:"totals"`
	Completed map[string]int  `json:"completed"`
	Finished  map[string]bool `json:"finished"`
}

// Snapshot returns the current state of the run.
func (r *Reporter) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	totals := make(map[string]int, len(r.totals))
	for k, v := range r.totals {
		totals[k] = v
	}
	done := make(map[string]int, len(r.done))
	for k, v := range r.done {
		done[k] = v
	}
	finished := make(map[string]bool, len(r.finished))
	for k, v := range r.finished {
		finished[k] = v
	}

	return Snapshot{
		StartedAt: r.startedAt,
		ElapsedMS: time.Since(r.startedAt).Milliseconds(),
		Current:   r.current,
		Totals:    totals,
		Completed: done,
		Finished:  finished,
	}
}
