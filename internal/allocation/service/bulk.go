package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/smallbiznis/salesdesk/internal/allocation/domain"
	leaddomain "github.com/smallbiznis/salesdesk/internal/lead/domain"
	obscontext "github.com/smallbiznis/salesdesk/internal/observability/context"
	"github.com/smallbiznis/salesdesk/internal/observability/logger"
	"go.uber.org/zap"
)

const (
	bulkOutcomeCompleted = "completed"
	bulkOutcomePartial   = "partial"
	bulkOutcomeFailed    = "failed"
	bulkOutcomeRejected  = "rejected"

	releaseTimeout = 5 * time.Second
)

// DistributeAll assigns every lead that was unassigned when the run started,
// one at a time and in creation order. Only one run may be in flight across
// instances. When the run deadline passes the summary comes back with
// Partial set and no error.
func (s *Service) DistributeAll(ctx context.Context) (domain.Summary, error) {
	cfg := s.cfg.Get()
	ctx = obscontext.WithTrigger(ctx, string(domain.TriggerBulk))

	token, ok, err := s.locker.TryLock(ctx, bulkLockKey, cfg.BulkLockTTL)
	if err != nil {
		s.metrics.ObserveBulkRun(bulkOutcomeFailed, 0)
		return domain.Summary{}, fmt.Errorf("acquire bulk lock: %w", err)
	}
	if !ok {
		s.metrics.ObserveBulkRun(bulkOutcomeRejected, 0)
		return domain.Summary{}, domain.ErrBulkRunInProgress
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
		defer cancel()
		if err := s.locker.Release(releaseCtx, bulkLockKey, token); err != nil {
			s.log.Warn("release bulk lock failed", zap.Error(err))
		}
	}()

	runCtx, cancel := context.WithTimeout(ctx, cfg.BulkTimeout)
	defer cancel()

	summary := domain.Summary{
		RunID:     ulid.Make().String(),
		StartedAt: s.clock.Now(),
	}
	log := logger.WithContext(ctx, s.log).With(zap.String("run_id", summary.RunID))
	started := time.Now()

	leads, err := s.leads.ListUnassigned(runCtx, s.db)
	if err != nil {
		s.metrics.ObserveBulkRun(bulkOutcomeFailed, time.Since(started))
		log.Error("bulk distribution snapshot failed", zap.Error(err))
		return domain.Summary{}, classifyStorageErr("snapshot unassigned leads", err)
	}
	summary.TotalLeads = len(leads)

	s.distribute(runCtx, leads, &summary, log)
	summary.FinishedAt = s.clock.Now()

	outcome := bulkOutcomeCompleted
	if summary.Partial {
		outcome = bulkOutcomePartial
	}
	s.metrics.ObserveBulkRun(outcome, time.Since(started))
	s.metrics.AddBulkLeads("assigned", summary.AssignedCount)
	s.metrics.AddBulkLeads("no_eligible", summary.NoEligible)
	s.metrics.AddBulkLeads("skipped", summary.Skipped)
	s.metrics.AddBulkLeads("already_assigned", summary.AlreadyAssigned)

	log.Info("bulk distribution finished",
		zap.Int("total", summary.TotalLeads),
		zap.Int("assigned", summary.AssignedCount),
		zap.Int("by_rule", summary.AssignedByRule),
		zap.Int("by_round_robin", summary.AssignedByRoundRobin),
		zap.Int("no_eligible", summary.NoEligible),
		zap.Int("skipped", summary.Skipped),
		zap.Int("already_assigned", summary.AlreadyAssigned),
		zap.Bool("partial", summary.Partial),
	)
	return summary, nil
}

// distribute runs leads sequentially so counter updates from one assignment
// are visible to the next decision.
func (s *Service) distribute(ctx context.Context, leads []*leaddomain.Lead, summary *domain.Summary, log *zap.Logger) {
	for _, lead := range leads {
		if ctx.Err() != nil {
			summary.Partial = true
			return
		}
		if lead == nil {
			continue
		}

		result, err := s.Assign(ctx, domain.AssignRequest{
			LeadID:  lead.ID,
			Trigger: domain.TriggerBulk,
			RunID:   summary.RunID,
		})
		switch {
		case err == nil && result.Outcome == domain.OutcomeAlreadyAssigned:
			summary.AlreadyAssigned++
		case err == nil:
			summary.AssignedCount++
			if result.Method == leaddomain.AssignmentMethodProductBased {
				summary.AssignedByRule++
			} else {
				summary.AssignedByRoundRobin++
			}
		case errors.Is(err, domain.ErrNoEligibleAssignee):
			summary.NoEligible++
		case ctx.Err() != nil:
			summary.Partial = true
			return
		default:
			summary.Skipped++
			log.Warn("lead skipped during bulk distribution",
				zap.String("lead_id", lead.ID.String()),
				zap.String("reason", domain.ReasonCode(err)),
				zap.Error(err),
			)
		}
	}
}
