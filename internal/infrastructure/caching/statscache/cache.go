package statscache

import (
	"context"
	"sync"
	"time"

	"github.com/baechuer/blood-drive-service/internal/application/profile"
)

type entry struct {
	summary    profile.Summary
	insertedAt time.Time
}

// Cache is an in-process TTL map. Entries are evicted only for staleness,
// when a lookup finds them expired, or by explicit invalidation.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	clock   profile.Clock
	entries map[profile.Key]entry
}

func New(ttl time.Duration, clock profile.Clock) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{
		ttl:     ttl,
		clock:   clock,
		entries: make(map[profile.Key]entry),
	}
}

func (c *Cache) Get(ctx context.Context, key profile.Key) (*profile.Summary, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if c.clock.Now().Sub(e.insertedAt) >= c.ttl {
		delete(c.entries, key)
		return nil, false, nil
	}
	s := e.summary
	s.Achievements = append([]profile.Achievement(nil), e.summary.Achievements...)
	s.Recent = append([]profile.RecentItem(nil), e.summary.Recent...)
	return &s, true, nil
}

func (c *Cache) Set(ctx context.Context, key profile.Key, s *profile.Summary) error {
	if s == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{summary: *s, insertedAt: c.clock.Now()}
	return nil
}

func (c *Cache) Invalidate(ctx context.Context, subjectIDs ...string) error {
	if len(subjectIDs) == 0 {
		return nil
	}
	drop := make(map[string]struct{}, len(subjectIDs))
	for _, id := range subjectIDs {
		drop[id] = struct{}{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if _, ok := drop[k.SubjectID]; ok {
			delete(c.entries, k)
		}
	}
	return nil
}

// Len reports the number of stored entries, fresh or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
