package store

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hostboard/hostboard/internal/sysinfo"
)

// maxEntries caps the history regardless of TTL; at the dashboard's 5-second
// refresh this holds about half an hour of samples.
const maxEntries = 360

// Entry is one recorded sample together with the time it was stored.
type Entry struct {
	Stats      *sysinfo.SystemStats
	RecordedAt time.Time
}

// Store is a thread-safe in-memory history of recent stat samples, oldest
// first. A background goroutine (Run) periodically evicts entries older than
// the configured TTL.
type Store struct {
	mu      sync.RWMutex
	entries []*Entry
	ttl     time.Duration
	now     func() time.Time // injectable for deterministic tests
}

// New creates a Store with the given TTL.
func New(ttl time.Duration) *Store {
	return &Store{
		ttl: ttl,
		now: time.Now,
	}
}

// Record appends a sample. Callers must not modify stats after calling Record.
func (s *Store) Record(stats *sysinfo.SystemStats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, &Entry{
		Stats:      stats,
		RecordedAt: s.now(),
	})
	if len(s.entries) > maxEntries {
		s.entries = s.entries[len(s.entries)-maxEntries:]
	}
}

// Latest returns the most recently recorded entry and whether one exists.
func (s *Store) Latest() (*Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.entries) == 0 {
		return nil, false
	}
	return s.entries[len(s.entries)-1], true
}

// Recent returns all entries recorded within the TTL, oldest first. Stale
// entries that have not yet been evicted are excluded.
func (s *Store) Recent() []*Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cutoff := s.now().Add(-s.ttl)
	out := make([]*Entry, 0, len(s.entries))
	for _, e := range s.entries {
		if e.RecordedAt.After(cutoff) {
			out = append(out, e)
		}
	}
	return out
}

// Count returns the total number of entries currently held, including stale ones.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Evict removes entries recorded before now minus TTL.
// It returns the number of entries removed.
func (s *Store) Evict(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := now.Add(-s.ttl)
	keep := s.entries[:0]
	for _, e := range s.entries {
		if e.RecordedAt.After(cutoff) {
			keep = append(keep, e)
		}
	}
	removed := len(s.entries) - len(keep)
	s.entries = keep
	return removed
}

// Run starts the background TTL eviction loop. It ticks at half the TTL
// interval (minimum 1 second) so stale samples disappear promptly. Run blocks
// until ctx is cancelled.
func (s *Store) Run(ctx context.Context) {
	interval := s.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := s.Evict(now); n > 0 {
				slog.Debug("store: evicted stale samples", "count", n)
			}
		}
	}
}
