package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/baechuer/blood-drive-service/internal/application/profile"
	"github.com/baechuer/blood-drive-service/internal/domain"
)

var statsRoles = []domain.Role{domain.RoleDonor, domain.RoleOrganizer}

// StatsCache stores profile summaries with SET EX; Redis expiry enforces the TTL.
type StatsCache struct {
	c   *Client
	ttl time.Duration
}

func NewStatsCache(c *Client, ttl time.Duration) *StatsCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &StatsCache{c: c, ttl: ttl}
}

func statsKey(subjectID string, role domain.Role) string {
	return fmt.Sprintf("drive:stats:%s:%s", subjectID, role)
}

func (s *StatsCache) Get(ctx context.Context, key profile.Key) (*profile.Summary, bool, error) {
	var sum profile.Summary
	found, err := s.c.Get(ctx, statsKey(key.SubjectID, key.Role), &sum)
	if err != nil || !found {
		return nil, false, err
	}
	return &sum, true, nil
}

func (s *StatsCache) Set(ctx context.Context, key profile.Key, sum *profile.Summary) error {
	if sum == nil {
		return nil
	}
	return s.c.Set(ctx, statsKey(key.SubjectID, key.Role), sum, s.ttl)
}

func (s *StatsCache) Invalidate(ctx context.Context, subjectIDs ...string) error {
	keys := make([]string, 0, len(subjectIDs)*len(statsRoles))
	for _, id := range subjectIDs {
		for _, r := range statsRoles {
			keys = append(keys, statsKey(id, r))
		}
	}
	return s.c.Delete(ctx, keys...)
}
