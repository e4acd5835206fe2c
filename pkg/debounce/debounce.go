// Package debounce provides a single-handle cancellable timer for
// coalescing rapid events into one deferred action.
package debounce

import (
	"sync"
	"time"
)

// Timer owns at most one pending callback. Arm replaces any pending
// callback with a new one; Stop cancels without firing. A stopped or
// fired Timer can be armed again.
type Timer struct {
	mu sync.Mutex
	t  *time.Timer
}

// New returns an idle Timer.
func New() *Timer {
	return &Timer{}
}

// Arm schedules fn to run after d, replacing any pending callback.
// fn runs on its own goroutine once the interval elapses without a
// further Arm or Stop.
func (tm *Timer) Arm(d time.Duration, fn func()) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	if tm.t != nil {
		tm.t.Stop()
	}
	tm.t = time.AfterFunc(d, fn)
}

// Stop cancels the pending callback, if any. It reports whether a
// pending callback was cancelled before firing.
func (tm *Timer) Stop() bool {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	if tm.t == nil {
		return false
	}
	stopped := tm.t.Stop()
	tm.t = nil
	return stopped
}
