package eventbus

import (
	"sync"
	"time"
)

// SeenSet remembers recently applied entity ids so that duplicate
// deliveries can be acknowledged without touching storage. It is a fast path
// only: entries expire, the set is bounded, and it is empty after a restart,
// so consumers must still check their store before applying a create.
type SeenSet struct {
	mu      sync.Mutex
	entries map[string]time.Time
	ttl     time.Duration
	max     int
	now     func() time.Time
}

// NewSeenSet creates a set holding at most max ids for ttl each.
func NewSeenSet(ttl time.Duration, max int) *SeenSet {
	if max <= 0 {
		max = 10000
	}
	return &SeenSet{
		entries: make(map[string]time.Time),
		ttl:     ttl,
		max:     max,
		now:     time.Now,
	}
}

// Seen reports whether id was added and has not expired.
func (s *SeenSet) Seen(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts, ok := s.entries[id]
	if !ok {
		return false
	}
	if s.now().Sub(ts) > s.ttl {
		delete(s.entries, id)
		return false
	}
	return true
}

// Add records id. When the set is full, expired entries are purged first and
// the oldest entry is evicted if that was not enough.
func (s *SeenSet) Add(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if _, ok := s.entries[id]; !ok && len(s.entries) >= s.max {
		s.evict(now)
	}
	s.entries[id] = now
}

func (s *SeenSet) evict(now time.Time) {
	var oldestID string
	var oldest time.Time
	for id, ts := range s.entries {
		if now.Sub(ts) > s.ttl {
			delete(s.entries, id)
			continue
		}
		if oldestID == "" || ts.Before(oldest) {
			oldestID, oldest = id, ts
		}
	}
	if len(s.entries) >= s.max && oldestID != "" {
		delete(s.entries, oldestID)
	}
}

// Len returns the number of tracked ids, expired ones included.
func (s *SeenSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
