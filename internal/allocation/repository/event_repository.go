package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/salesdesk/internal/allocation/domain"
	"gorm.io/gorm"
)

type eventRepo struct{}

func ProvideEvents() domain.EventRepository {
	return &eventRepo{}
}

func (r *eventRepo) Insert(ctx context.Context, db *gorm.DB, event *domain.AssignmentEvent) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO lead_assignment_events (id, lead_id, sales_employee_id, method, rule_id, triggered_by, run_id, metadata, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID,
		event.LeadID,
		event.SalesEmployeeID,
		event.Method,
		event.RuleID,
		event.Trigger,
		event.RunID,
		event.Metadata,
		event.CreatedAt,
	).Error
}

func (r *eventRepo) ListByLead(ctx context.Context, db *gorm.DB, leadID snowflake.ID) ([]*domain.AssignmentEvent, error) {
	var events []*domain.AssignmentEvent
	err := db.WithContext(ctx).Raw(
		`SELECT id, lead_id, sales_employee_id, method, rule_id, triggered_by, run_id, metadata, created_at
		 FROM lead_assignment_events
		 WHERE lead_id = ?
		 ORDER BY created_at ASC, id ASC`,
		leadID,
	).Scan(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}
