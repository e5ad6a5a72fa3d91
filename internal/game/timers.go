package game

import (
	"sync"
	"time"
)

// timerRegistry is the single authoritative store for per-session
// one-shot timers. A session has at most one pending timer at a time
// (activation delay while starting, match clock while active, forced-end
// grace after expiry); arming replaces any previous timer for the id.
type timerRegistry struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
}

func newTimerRegistry() *timerRegistry {
	return &timerRegistry{timers: make(map[string]*time.Timer)}
}

// Arm schedules fn after d, replacing any pending timer for id. fn runs
// on the timer goroutine and must re-check that its owning entity still
// exists.
func (tr *timerRegistry) Arm(id string, d time.Duration, fn func()) {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	if existing, ok := tr.timers[id]; ok {
		existing.Stop()
	}
	tr.timers[id] = time.AfterFunc(d, func() {
		tr.mu.Lock()
		delete(tr.timers, id)
		tr.mu.Unlock()
		fn()
	})
}

// Cancel stops and removes the pending timer for id, if any.
func (tr *timerRegistry) Cancel(id string) {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	if t, ok := tr.timers[id]; ok {
		t.Stop()
		delete(tr.timers, id)
	}
}

// CancelAll stops every pending timer. Used at shutdown.
func (tr *timerRegistry) CancelAll() {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	for id, t := range tr.timers {
		t.Stop()
		delete(tr.timers, id)
	}
}

// Has reports whether a timer is pending for id.
func (tr *timerRegistry) Has(id string) bool {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	_, ok := tr.timers[id]
	return ok
}
