package media

import (
	"sync"

	"github.com/oshokin/media-cache/internal/utils"
)

// progressTracker counts written bytes and reports the percent at a bounded rate:
// only when the percent grew by at least step points, or reached 100.
type progressTracker struct {
	mu sync.Mutex
	// total is the announced content length, -1 if unknown.
	total int64
	// written is the number of bytes written so far.
	written int64
	// step is the minimum percent delta between two reports.
	step int
	// lastReported is the last reported percent.
	lastReported int
	// report receives every emitted percent.
	report func(percent int)
}

func newProgressTracker(total int64, step int, report func(percent int)) *progressTracker {
	if step <= 0 {
		step = 1
	}

	return &progressTracker{
		total:  total,
		step:   step,
		report: report,
	}
}

// Write implements io.Writer. It never fails.
func (p *progressTracker) Write(data []byte) (int, error) {
	p.mu.Lock()

	p.written += int64(len(data))

	percent := utils.Percent(p.written, p.total)

	shouldReport := percent > p.lastReported &&
		(percent-p.lastReported >= p.step || percent == 100) //nolint:mnd // Complete transfer.
	if shouldReport {
		p.lastReported = percent
	}

	p.mu.Unlock()

	if shouldReport && p.report != nil {
		p.report(percent)
	}

	return len(data), nil
}

// Written returns the number of bytes seen so far.
func (p *progressTracker) Written() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.written
}
