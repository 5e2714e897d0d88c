package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// CounterStore owns the per-employee load counters. Increment must be atomic
// with respect to concurrent callers; it never reads and then writes.
type CounterStore interface {
	Increment(ctx context.Context, db *gorm.DB, employeeID snowflake.ID, at time.Time) (Counters, error)
	// Current returns counters for ids. Ids without counters are absent from the map.
	Current(ctx context.Context, db *gorm.DB, ids []snowflake.ID) (map[snowflake.ID]Counters, error)
}

type EventRepository interface {
	Insert(ctx context.Context, db *gorm.DB, event *AssignmentEvent) error
	ListByLead(ctx context.Context, db *gorm.DB, leadID snowflake.ID) ([]*AssignmentEvent, error)
}
