// internal/orchestrator/debounce.go
package orchestrator

import (
	"sync"
	"time"
)

// debouncer runs only the trailing call of a burst, once wait has elapsed
// without another Trigger.
type debouncer struct {
	mu      sync.Mutex
	wait    time.Duration
	timer   *time.Timer
	seq     uint64
	stopped bool
}

func newDebouncer(wait time.Duration) *debouncer {
	return &debouncer{wait: wait}
}

// Trigger schedules fn and cancels whatever was pending.
func (d *debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.seq++
	seq := d.seq
	d.timer = time.AfterFunc(d.wait, func() {
		d.mu.Lock()
		current := seq == d.seq && !d.stopped
		d.mu.Unlock()
		if current {
			fn()
		}
	})
}

// Stop cancels the pending call and ignores later triggers.
func (d *debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
}
