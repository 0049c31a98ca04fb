package reembed

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// ProgressTracker prints periodic status lines for a reembedding run.
// Nothing is written until a report interval is crossed, so quiet runs
// stay quiet. Safe for concurrent use.
type ProgressTracker struct {
	writer   io.Writer
	total    int
	interval int

	mu         sync.Mutex
	done       int
	nextReport int
	begun      time.Time
}

// NewProgressTracker creates a tracker that writes to writer (typically
// os.Stderr) every interval chunks out of total.
func NewProgressTracker(writer io.Writer, total, interval int) *ProgressTracker {
	return &ProgressTracker{writer: writer, total: total, interval: interval}
}

// Start resets the tracker and begins timing. Updates before Start are
// dropped.
func (p *ProgressTracker) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.begun = time.Now()
	p.done = 0
	p.nextReport = p.interval
}

// Update records that current chunks have been processed so far, emitting a
// status line whenever the next report threshold is crossed.
func (p *ProgressTracker) Update(current int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.begun.IsZero() {
		return
	}

	p.done = min(current, p.total)
	if p.done >= p.nextReport {
		p.statusLine()
		p.nextReport = p.done + p.interval
	}
}

// Finish forces a final full-progress status line and a trailing newline.
func (p *ProgressTracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.begun.IsZero() {
		return
	}

	p.done = p.total
	p.statusLine()
	fmt.Fprintln(p.writer)
}

// Elapsed returns how long the run has been going, zero before Start.
func (p *ProgressTracker) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.begun.IsZero() {
		return 0
	}
	return time.Since(p.begun)
}

// statusLine writes one carriage-returned progress line. Callers hold the
// lock.
func (p *ProgressTracker) statusLine() {
	pct := 100.0
	if p.total > 0 {
		pct = float64(p.done) / float64(p.total) * 100.0
	}
	rate := float64(p.done) / time.Since(p.begun).Seconds()
	fmt.Fprintf(p.writer, "\r%d/%d chunks (%.1f%%), %.1f chunks/s", p.done, p.total, pct, rate)
}
