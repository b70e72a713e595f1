package pacing

import (
	"context"
	"sync"
	"time"

	"github.com/secmon-lab/guildsweep/pkg/domain/interfaces"
)

// Timer pauses using a real timer
type Timer struct{}

var _ interfaces.Pacer = Timer{}

// NewTimer creates a pacer backed by time.Timer
func NewTimer() Timer {
	return Timer{}
}

// Pause blocks for d or until ctx is done
func (Timer) Pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Recorder records requested pauses without waiting
type Recorder struct {
	mu     sync.Mutex
	pauses []time.Duration
}

var _ interfaces.Pacer = (*Recorder)(nil)

// NewRecorder creates an empty Recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Pause records d and returns immediately
func (r *Recorder) Pause(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.pauses = append(r.pauses, d)
	return ctx.Err()
}

// Pauses returns a copy of the recorded durations
func (r *Recorder) Pauses() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]time.Duration(nil), r.pauses...)
}

// Total returns the sum of recorded durations
func (r *Recorder) Total() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	var total time.Duration
	for _, d := range r.pauses {
		total += d
	}
	return total
}
