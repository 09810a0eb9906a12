// Package debounce coalesces bursts of calls into a single delayed action.
package debounce

import (
	"sync"
	"time"
)

// Scheduler owns at most one pending single-shot timer. Each Schedule call
// cancels the pending action and arms a new one, so for a burst of calls
// closer together than the delay only the last action runs.
//
// A Scheduler is safe for concurrent use. The zero value is ready to use.
type Scheduler struct {
	mu    sync.Mutex
	timer *time.Timer
	gen   uint64
}

// Schedule cancels any pending action and runs action once delay has passed
// without another Schedule or Cancel. Actions run on their own goroutine.
func (s *Scheduler) Schedule(action func(), delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()
	s.gen++
	gen := s.gen
	s.timer = time.AfterFunc(delay, func() {
		s.mu.Lock()
		// Stop cannot recall a timer whose func already started; the
		// generation check drops it.
		if gen != s.gen || s.timer == nil {
			s.mu.Unlock()
			return
		}
		s.timer = nil
		s.mu.Unlock()
		action()
	})
}

// Cancel drops the pending action, if any.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	s.gen++
}

// Pending reports whether an action is armed and has not fired yet.
func (s *Scheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

func (s *Scheduler) stopLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
