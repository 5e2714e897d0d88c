package service

import (
	"context"

	"github.com/smallbiznis/salesdesk/internal/allocation/domain"
	leaddomain "github.com/smallbiznis/salesdesk/internal/lead/domain"
	"github.com/smallbiznis/salesdesk/internal/observability/logger"
	"go.uber.org/zap"
)

// Intake stores the lead, then tries to assign it. Assignment failures never
// fail the request; they surface as a reason code next to the stored lead.
func (s *Service) Intake(ctx context.Context, req leaddomain.CreateLeadRequest) (domain.IntakeResult, error) {
	lead, err := s.leadService.Create(ctx, req)
	if err != nil {
		return domain.IntakeResult{}, err
	}

	out := domain.IntakeResult{Lead: lead}
	if !s.cfg.Get().AssignOnCreate {
		return out, nil
	}

	result, err := s.Assign(ctx, domain.AssignRequest{
		LeadID:  lead.ID,
		Trigger: domain.TriggerLeadCreated,
	})
	if err != nil {
		code := domain.ReasonCode(err)
		out.AssignmentError = &code
		logger.WithContext(ctx, s.log).Warn("lead created without assignee",
			zap.String("lead_id", lead.ID.String()),
			zap.String("reason", code),
			zap.Error(err),
		)
		return out, nil
	}
	out.Assignment = &result

	fresh, err := s.leads.FindByID(ctx, s.db, lead.ID)
	if err == nil && fresh != nil {
		out.Lead = *fresh
	}
	return out, nil
}
