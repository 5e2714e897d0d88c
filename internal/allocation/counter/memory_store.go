package counter

import (
	"context"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/salesdesk/internal/allocation/domain"
	salesemployeedomain "github.com/smallbiznis/salesdesk/internal/salesemployee/domain"
	"gorm.io/gorm"
)

// MemoryStore is a process-local CounterStore guarded by a mutex. It ignores
// the db handle and is meant for single-node caches and tests. Provide it into
// the daily_reset_hooks group so the daily reset clears it too.
type MemoryStore struct {
	mu       sync.Mutex
	counters map[snowflake.ID]domain.Counters
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{counters: make(map[snowflake.ID]domain.Counters)}
}

func (s *MemoryStore) Increment(_ context.Context, _ *gorm.DB, employeeID snowflake.ID, at time.Time) (domain.Counters, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.counters[employeeID]
	c.TodayCount++
	c.TotalCount++
	ts := at
	c.LastAssignedAt = &ts
	s.counters[employeeID] = c
	return c, nil
}

func (s *MemoryStore) Current(_ context.Context, _ *gorm.DB, ids []snowflake.ID) (map[snowflake.ID]domain.Counters, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[snowflake.ID]domain.Counters, len(ids))
	for _, id := range ids {
		if c, ok := s.counters[id]; ok {
			out[id] = c
		}
	}
	return out, nil
}

// ResetToday zeroes every today_count, leaving totals and timestamps alone.
func (s *MemoryStore) ResetToday() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, c := range s.counters {
		c.TodayCount = 0
		s.counters[id] = c
	}
}

var (
	_ domain.CounterStore                = (*MemoryStore)(nil)
	_ salesemployeedomain.DailyResetHook = (*MemoryStore)(nil)
)
