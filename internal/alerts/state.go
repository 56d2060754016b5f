package alerts

import (
	"sync"
	"time"
)

// State tracks the last fire time per metric. It lives for the process
// lifetime and starts empty, which means "never alerted". Per metric the
// recorded timestamp is monotonically non-decreasing.
type State struct {
	mu        sync.Mutex
	lastFired map[string]time.Time
}

// NewState returns an empty State.
func NewState() *State {
	return &State{lastFired: make(map[string]time.Time)}
}

// FireIfElapsed reports whether metric may fire at now given cooldown, and
// records now as the last fire time when it may. The read-check-write sequence
// runs as one critical section: of any number of concurrent callers observing
// the same threshold crossing, exactly one wins.
//
// An absent entry means the metric has never fired. The elapsed check is
// strict, so a zero cooldown lets every exceeding sample fire.
func (s *State) FireIfElapsed(metric string, cooldown time.Duration, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if last, ok := s.lastFired[metric]; ok && now.Sub(last) <= cooldown {
		return false
	}
	s.lastFired[metric] = now
	return true
}

// LastFired returns the recorded fire time for metric, if any.
func (s *State) LastFired(metric string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.lastFired[metric]
	return t, ok
}
