package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/salesdesk/internal/allocation/domain"
	leaddomain "github.com/smallbiznis/salesdesk/internal/lead/domain"
	"github.com/smallbiznis/salesdesk/internal/observability/logger"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AssignManual overrides the automatic choice. The target must be active;
// an unchanged owner is reported as already assigned and nothing is written.
func (s *Service) AssignManual(ctx context.Context, req domain.ManualAssignRequest) (domain.Result, error) {
	leadID, err := snowflake.ParseString(strings.TrimSpace(req.LeadID))
	if err != nil || leadID == 0 {
		return domain.Result{}, domain.ErrInvalidLeadID
	}
	employeeID, err := snowflake.ParseString(strings.TrimSpace(req.SalesEmployeeID))
	if err != nil || employeeID == 0 {
		return domain.Result{}, domain.ErrInvalidEmployeeID
	}

	lead, err := s.leads.FindByID(ctx, s.db, leadID)
	if err != nil {
		return domain.Result{}, classifyStorageErr("load lead", err)
	}
	if lead == nil {
		return domain.Result{}, domain.ErrLeadNotFound
	}

	employee, err := s.employees.FindByID(ctx, s.db, employeeID)
	if err != nil {
		return domain.Result{}, classifyStorageErr("load employee", err)
	}
	if employee == nil {
		return domain.Result{}, domain.ErrEmployeeNotFound
	}
	if !employee.IsActive {
		return domain.Result{}, domain.ErrEmployeeInactive
	}

	if lead.AssignedSalesID != nil && *lead.AssignedSalesID == employeeID {
		return alreadyAssigned(*lead), nil
	}

	metadata := datatypes.JSONMap{}
	if lead.AssignedSalesID != nil {
		metadata["previous_sales_employee_id"] = lead.AssignedSalesID.String()
	}
	if note := strings.TrimSpace(req.Note); note != "" {
		metadata["note"] = note
	}

	now := s.clock.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.leads.Reassign(ctx, tx, leadID, employeeID, leaddomain.AssignmentMethodManual, now); err != nil {
			return err
		}
		if _, err := s.counters.Increment(ctx, tx, employeeID, now); err != nil {
			return err
		}
		return s.events.Insert(ctx, tx, &domain.AssignmentEvent{
			ID:              s.genID.Generate(),
			LeadID:          leadID,
			SalesEmployeeID: employeeID,
			Method:          leaddomain.AssignmentMethodManual,
			Trigger:         domain.TriggerManual,
			Metadata:        metadata,
			CreatedAt:       now,
		})
	})
	if err != nil {
		s.metrics.IncFailure(domain.ReasonCode(err))
		return domain.Result{}, classifyStorageErr("write manual assignment", err)
	}

	s.metrics.IncAssignment(string(leaddomain.AssignmentMethodManual))
	logger.WithContext(ctx, s.log).Info("lead assigned manually",
		zap.String("lead_id", leadID.String()),
		zap.String("sales_employee_id", employeeID.String()),
	)

	assignedAt := now
	return domain.Result{
		LeadID:          leadID,
		SalesEmployeeID: employeeID,
		Method:          leaddomain.AssignmentMethodManual,
		Outcome:         domain.OutcomeAssigned,
		AssignedAt:      &assignedAt,
	}, nil
}

func (s *Service) History(ctx context.Context, leadID string) ([]domain.AssignmentEvent, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(leadID))
	if err != nil || id == 0 {
		return nil, domain.ErrInvalidLeadID
	}

	lead, err := s.leads.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if lead == nil {
		return nil, domain.ErrLeadNotFound
	}

	items, err := s.events.ListByLead(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	events := make([]domain.AssignmentEvent, 0, len(items))
	for _, e := range items {
		if e == nil {
			continue
		}
		events = append(events, *e)
	}
	return events, nil
}
