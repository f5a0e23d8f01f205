package realtime

import (
	"sync"
	"time"
)

// Debouncer coalesces bursts of triggers into at most one callback per
// window. The first trigger arms a timer; triggers while armed are
// absorbed. Used by kiosk sessions so bulk score updates cause a single
// deferred refetch instead of a refetch storm.
type Debouncer struct {
	mu     sync.Mutex
	window time.Duration
	fn     func()
	timer  *time.Timer
	closed bool
}

// NewDebouncer creates a Debouncer firing fn at most once per window.
func NewDebouncer(window time.Duration, fn func()) *Debouncer {
	return &Debouncer{window: window, fn: fn}
}

// Trigger requests a callback. If none is pending, one fires after the
// window elapses; otherwise the trigger is absorbed.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed || d.timer != nil {
		return
	}
	d.timer = time.AfterFunc(d.window, func() {
		d.mu.Lock()
		d.timer = nil
		closed := d.closed
		d.mu.Unlock()
		if !closed {
			d.fn()
		}
	})
}

// Stop cancels any pending callback and rejects further triggers.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
