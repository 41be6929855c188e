package analysis

import (
	"io"
	"sync"
)

const (
	progressSent    = 0.1
	progressHeaders = 0.3
	// progressCeiling is the highest fraction reported before the call returns.
	progressCeiling = 0.9
)

// progressTracker turns request milestones and body bytes into monotonic
// ProgressReporter calls. A nil tracker is inert.
type progressTracker struct {
	mu       sync.Mutex
	reporter ProgressReporter
	last     float64
}

func newProgressTracker(reporter ProgressReporter) *progressTracker {
	if reporter == nil {
		return nil
	}
	return &progressTracker{reporter: reporter}
}

func (t *progressTracker) report(fraction float64) {
	if t == nil {
		return
	}
	fraction = min(fraction, progressCeiling)
	t.mu.Lock()
	if fraction <= t.last {
		t.mu.Unlock()
		return
	}
	t.last = fraction
	t.mu.Unlock()
	t.reporter(fraction)
}

// wrap maps body reads onto the range between headers and the ceiling when
// the content length is known.
func (t *progressTracker) wrap(body io.Reader, size int64) io.Reader {
	if t == nil || size <= 0 {
		return body
	}
	return &progressReader{reader: body, size: size, tracker: t}
}

type progressReader struct {
	reader  io.Reader
	size    int64
	read    int64
	tracker *progressTracker
}

func (r *progressReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	if n > 0 {
		r.read += int64(n)
		ratio := float64(r.read) / float64(r.size)
		r.tracker.report(progressHeaders + ratio*(progressCeiling-progressHeaders))
	}
	return n, err
}
