package selector

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/salesdesk/internal/allocation/domain"
)

// Employee is the load view of a sales employee used for selection.
type Employee struct {
	ID              snowflake.ID
	RoundRobinOrder int
	TodayCount      int64
	LastAssignedAt  *time.Time
}

// Next returns the round-robin head: smallest round_robin_order, then the
// longest idle (never assigned first), then smallest id.
func Next(active []Employee) (snowflake.ID, error) {
	if len(active) == 0 {
		return 0, domain.ErrNoEligibleAssignee
	}
	best := active[0]
	for _, e := range active[1:] {
		if rotationLess(e, best) {
			best = e
		}
	}
	return best.ID, nil
}

// Pick keeps the candidates with the lowest today_count and breaks the tie
// with the round-robin ordering.
func Pick(candidates []Employee) (snowflake.ID, error) {
	if len(candidates) == 0 {
		return 0, domain.ErrNoEligibleAssignee
	}
	least := candidates[0].TodayCount
	for _, e := range candidates[1:] {
		if e.TodayCount < least {
			least = e.TodayCount
		}
	}
	tied := make([]Employee, 0, len(candidates))
	for _, e := range candidates {
		if e.TodayCount == least {
			tied = append(tied, e)
		}
	}
	return Next(tied)
}

func rotationLess(a, b Employee) bool {
	if a.RoundRobinOrder != b.RoundRobinOrder {
		return a.RoundRobinOrder < b.RoundRobinOrder
	}
	switch {
	case a.LastAssignedAt == nil && b.LastAssignedAt != nil:
		return true
	case a.LastAssignedAt != nil && b.LastAssignedAt == nil:
		return false
	case a.LastAssignedAt != nil && b.LastAssignedAt != nil && !a.LastAssignedAt.Equal(*b.LastAssignedAt):
		return a.LastAssignedAt.Before(*b.LastAssignedAt)
	}
	return a.ID < b.ID
}
