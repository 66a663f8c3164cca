package session

import (
	"sync"
	"time"
)

// Debouncer runs a task once a quiet period has elapsed since the last Arm.
// Re-arming supersedes the pending task rather than stacking a second one,
// so bursts collapse into a single run. The task reads whatever state it
// needs at fire time, keeping "latest wins" auditable.
type Debouncer struct {
	delay time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

// NewDebouncer creates a debouncer with the given quiet period.
func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Arm schedules fn after the quiet period, cancelling any pending task.
func (d *Debouncer) Arm(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, fn)
}

// Cancel drops any pending task and reports whether one was still pending.
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer == nil {
		return false
	}
	pending := d.timer.Stop()
	d.timer = nil
	return pending
}
