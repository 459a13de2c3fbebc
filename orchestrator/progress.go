package orchestrator

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// ProgressTracker prints a single updating line as documents finish.
type ProgressTracker struct {
	writer    io.Writer
	total     int
	done      int
	failed    int
	startTime time.Time
	started   bool
	mu        sync.Mutex
}

// NewProgressTracker creates a tracker for total documents writing to w
// (typically os.Stderr).
func NewProgressTracker(w io.Writer, total int) *ProgressTracker {
	return &ProgressTracker{writer: w, total: total}
}

// Start resets the counters and the clock.
func (p *ProgressTracker) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.startTime = time.Now()
	p.started = true
	p.done = 0
	p.failed = 0
}

// Done records one finished document and reprints the line.
func (p *ProgressTracker) Done(document string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}
	if p.done < p.total {
		p.done++
	}
	if err != nil {
		p.failed++
	}
	p.report(document)
}

// Finish prints the final line and a newline.
func (p *ProgressTracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}
	p.report("")
	fmt.Fprintln(p.writer)
}

// Completed returns the finished and failed document counts.
func (p *ProgressTracker) Completed() (done, failed int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done, p.failed
}

// Elapsed returns the time since Start.
func (p *ProgressTracker) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return 0
	}
	return time.Since(p.startTime)
}

// report must be called with the lock held.
func (p *ProgressTracker) report(last string) {
	percentage := 0.0
	if p.total > 0 {
		percentage = float64(p.done) / float64(p.total) * 100.0
	}
	line := fmt.Sprintf("\rDocuments: %d/%d (%.1f%%), %d failed, %s elapsed",
		p.done, p.total, percentage, p.failed, time.Since(p.startTime).Round(time.Second))
	if last != "" {
		line += ", last: " + last
	}
	fmt.Fprint(p.writer, line)
}
