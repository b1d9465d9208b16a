package index

import (
	"sync"
	"time"
)

// mark is one throughput sample: how many records had been processed at
// a point in time.
type mark struct {
	processed int64
	at        time.Time
}

// Progress is a point-in-time snapshot of a running index pass.
type Progress struct {
	Processed int64
	Skipped   int64
	Total     int64 // 0 when the corpus size is unknown
	// PerSecond is the throughput over the moving window, not the whole
	// run; long passes speed up and slow down with the shape of the
	// dump, and a lifetime average would lie about the ETA.
	PerSecond float64
	ETA       time.Duration // zero when Total is unknown
}

// Tracker accumulates record counts and derives throughput over a
// moving window of the most recent records. Safe for concurrent use by
// sharded passes.
type Tracker struct {
	mu        sync.Mutex
	processed int64
	skipped   int64
	total     int64
	window    int64
	marks     []mark
	started   time.Time
}

// NewTracker creates a tracker. window is the number of most-recent
// records the throughput estimate covers; total may be 0 when the
// corpus size is not known up front.
func NewTracker(window, total int64) *Tracker {
	if window <= 0 {
		window = 10000
	}
	now := time.Now()
	return &Tracker{
		window:  window,
		total:   total,
		marks:   []mark{{processed: 0, at: now}},
		started: now,
	}
}

// Observe counts n processed records.
func (t *Tracker) Observe(n int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.processed += n
	t.marks = append(t.marks, mark{processed: t.processed, at: time.Now()})

	// Drop marks that fell out of the window, always keeping one as the
	// baseline.
	for len(t.marks) > 1 && t.processed-t.marks[1].processed >= t.window {
		t.marks = t.marks[1:]
	}
}

// ObserveSkipped counts n records the source dropped.
func (t *Tracker) ObserveSkipped(n int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.skipped += n
}

// Snapshot returns the current progress.
func (t *Tracker) Snapshot() Progress {
	t.mu.Lock()
	defer t.mu.Unlock()

	p := Progress{
		Processed: t.processed,
		Skipped:   t.skipped,
		Total:     t.total,
	}

	oldest := t.marks[0]
	elapsed := time.Since(oldest.at)
	if span := t.processed - oldest.processed; span > 0 && elapsed > 0 {
		p.PerSecond = float64(span) / elapsed.Seconds()
	}

	if t.total > 0 && p.PerSecond > 0 {
		remaining := t.total - t.processed
		if remaining > 0 {
			p.ETA = time.Duration(float64(remaining)/p.PerSecond) * time.Second
		}
	}
	return p
}

// Elapsed reports total wall time since the tracker was created.
func (t *Tracker) Elapsed() time.Duration {
	return time.Since(t.started)
}
