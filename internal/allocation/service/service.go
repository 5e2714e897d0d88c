package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/salesdesk/internal/allocation/domain"
	"github.com/smallbiznis/salesdesk/internal/allocation/selector"
	allocationruledomain "github.com/smallbiznis/salesdesk/internal/allocationrule/domain"
	"github.com/smallbiznis/salesdesk/internal/clock"
	"github.com/smallbiznis/salesdesk/internal/config"
	leaddomain "github.com/smallbiznis/salesdesk/internal/lead/domain"
	"github.com/smallbiznis/salesdesk/internal/lock"
	"github.com/smallbiznis/salesdesk/internal/observability/logger"
	"github.com/smallbiznis/salesdesk/internal/observability/metrics"
	productgroupdomain "github.com/smallbiznis/salesdesk/internal/productgroup/domain"
	salesemployeedomain "github.com/smallbiznis/salesdesk/internal/salesemployee/domain"
	"github.com/smallbiznis/salesdesk/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	bulkLockKey       = "salesdesk:allocation:bulk"
	maxCommitAttempts = 2
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Config   *config.AllocationConfigHolder
	Locker   lock.Locker
	Counters domain.CounterStore
	Events   domain.EventRepository
	Metrics  *metrics.AllocationMetrics `optional:"true"`

	LeadRepo         leaddomain.Repository
	LeadService      leaddomain.Service
	EmployeeRepo     salesemployeedomain.Repository
	RuleRepo         allocationruledomain.Repository
	ProductGroupRepo productgroupdomain.Repository
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	cfg      *config.AllocationConfigHolder
	locker   lock.Locker
	counters domain.CounterStore
	events   domain.EventRepository
	metrics  *metrics.AllocationMetrics

	leads         leaddomain.Repository
	leadService   leaddomain.Service
	employees     salesemployeedomain.Repository
	rules         allocationruledomain.Repository
	productGroups productgroupdomain.Repository
}

func New(p Params) domain.Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.SystemClock{}
	}
	locker := p.Locker
	if locker == nil {
		locker = lock.NewLocalLocker()
	}
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("allocation.service"),
		genID:         p.GenID,
		clock:         clk,
		cfg:           p.Config,
		locker:        locker,
		counters:      p.Counters,
		events:        p.Events,
		metrics:       p.Metrics,
		leads:         p.LeadRepo,
		leadService:   p.LeadService,
		employees:     p.EmployeeRepo,
		rules:         p.RuleRepo,
		productGroups: p.ProductGroupRepo,
	}
}

// decision is the outcome of candidate resolution for one lead.
type decision struct {
	employeeID snowflake.ID
	method     leaddomain.AssignmentMethod
	ruleID     *snowflake.ID
	candidates int
}

// Assign runs the allocation engine for one lead. An already assigned lead is
// reported with OutcomeAlreadyAssigned and nothing is written.
func (s *Service) Assign(ctx context.Context, req domain.AssignRequest) (domain.Result, error) {
	if req.LeadID == 0 {
		return domain.Result{}, domain.ErrInvalidLeadID
	}
	if req.Trigger == "" {
		req.Trigger = domain.TriggerSingle
	}
	log := logger.WithContext(ctx, s.log).With(
		zap.String("lead_id", req.LeadID.String()),
		zap.String("trigger", string(req.Trigger)),
	)

	lead, err := s.leads.FindByID(ctx, s.db, req.LeadID)
	if err != nil {
		return domain.Result{}, classifyStorageErr("load lead", err)
	}
	if lead == nil {
		return domain.Result{}, domain.ErrLeadNotFound
	}
	if lead.IsAssigned() {
		return alreadyAssigned(*lead), nil
	}

	d, err := s.decide(ctx, *lead)
	if err != nil {
		s.metrics.IncFailure(domain.ReasonCode(err))
		log.Info("lead left unassigned", zap.String("reason", domain.ReasonCode(err)))
		return domain.Result{LeadID: lead.ID}, err
	}

	result, err := s.commit(ctx, *lead, d, req)
	if err != nil {
		s.metrics.IncFailure(domain.ReasonCode(err))
		log.Warn("assignment write failed", zap.Error(err))
		return domain.Result{LeadID: lead.ID}, err
	}

	if result.Outcome == domain.OutcomeAssigned {
		s.metrics.IncAssignment(string(result.Method))
		log.Info("lead assigned",
			zap.String("sales_employee_id", result.SalesEmployeeID.String()),
			zap.String("method", string(result.Method)),
			zap.Int("candidates", d.candidates),
		)
	}
	return result, nil
}

// decide resolves candidates from the rule set, falls back to every active
// employee, and picks the least loaded one.
func (s *Service) decide(ctx context.Context, lead leaddomain.Lead) (decision, error) {
	employees, err := s.employees.ListActive(ctx, s.db)
	if err != nil {
		return decision{}, classifyStorageErr("load employees", err)
	}
	if len(employees) == 0 {
		return decision{}, domain.ErrNoEligibleAssignee
	}

	activeIDs := make([]snowflake.ID, 0, len(employees))
	active := make(map[snowflake.ID]struct{}, len(employees))
	for _, e := range employees {
		activeIDs = append(activeIDs, e.ID)
		active[e.ID] = struct{}{}
	}

	rules, err := s.rules.ListActive(ctx, s.db)
	if err != nil {
		return decision{}, classifyStorageErr("load rules", err)
	}
	knownGroups, err := s.knownGroups(ctx, rules)
	if err != nil {
		return decision{}, classifyStorageErr("load product groups", err)
	}

	counters, err := s.counters.Current(ctx, s.db, activeIDs)
	if err != nil {
		return decision{}, classifyStorageErr("load counters", err)
	}
	pool := make(map[snowflake.ID]selector.Employee, len(employees))
	for _, e := range employees {
		view := selector.Employee{
			ID:              e.ID,
			RoundRobinOrder: e.RoundRobinOrder,
			TodayCount:      e.TodayCount,
			LastAssignedAt:  e.LastAssignedAt,
		}
		if c, ok := counters[e.ID]; ok {
			view.TodayCount = c.TodayCount
			view.LastAssignedAt = c.LastAssignedAt
		}
		pool[e.ID] = view
	}

	match := selector.MatchRules(selector.KeyOf(lead), rules, knownGroups, active)

	d := decision{method: leaddomain.AssignmentMethodRoundRobin}
	candidateIDs := activeIDs
	if !match.Empty() {
		d.method = leaddomain.AssignmentMethodProductBased
		candidateIDs = match.Preferred()
	}

	candidates := make([]selector.Employee, 0, len(candidateIDs))
	for _, id := range candidateIDs {
		candidates = append(candidates, pool[id])
	}
	winner, err := selector.Pick(candidates)
	if err != nil {
		return decision{}, err
	}

	d.employeeID = winner
	d.candidates = len(candidates)
	if d.method == leaddomain.AssignmentMethodProductBased {
		d.ruleID = match.RuleFor(winner)
	}
	return d, nil
}

func (s *Service) knownGroups(ctx context.Context, rules []*allocationruledomain.AllocationRule) (map[snowflake.ID]struct{}, error) {
	referenced := make([]snowflake.ID, 0)
	for _, rule := range rules {
		referenced = append(referenced, rule.ProductGroupIDs...)
	}
	known := make(map[snowflake.ID]struct{}, len(referenced))
	if len(referenced) == 0 {
		return known, nil
	}
	existing, err := s.productGroups.ExistingIDs(ctx, s.db, referenced)
	if err != nil {
		return nil, err
	}
	for _, id := range existing {
		known[id] = struct{}{}
	}
	return known, nil
}

// commit writes the assignment, the counter increment and the history row in
// one transaction. The lead update only applies while the lead is unassigned,
// so a concurrent winner turns this call into a no-op.
func (s *Service) commit(ctx context.Context, lead leaddomain.Lead, d decision, req domain.AssignRequest) (domain.Result, error) {
	var (
		claimed bool
		now     time.Time
		err     error
	)
	for attempt := 1; attempt <= maxCommitAttempts; attempt++ {
		now = s.clock.Now()
		claimed = false
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			ok, err := s.leads.ClaimAssignment(ctx, tx, lead.ID, d.employeeID, d.method, now)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			claimed = true

			if _, err := s.counters.Increment(ctx, tx, d.employeeID, now); err != nil {
				return err
			}
			return s.events.Insert(ctx, tx, &domain.AssignmentEvent{
				ID:              s.genID.Generate(),
				LeadID:          lead.ID,
				SalesEmployeeID: d.employeeID,
				Method:          d.method,
				RuleID:          d.ruleID,
				Trigger:         req.Trigger,
				RunID:           req.RunID,
				Metadata: datatypes.JSONMap{
					"candidates": d.candidates,
				},
				CreatedAt: now,
			})
		})
		if err == nil || !db.IsTransientErr(err) || ctx.Err() != nil {
			break
		}
	}
	if err != nil {
		return domain.Result{}, classifyStorageErr("write assignment", err)
	}

	if !claimed {
		current, err := s.leads.FindByID(ctx, s.db, lead.ID)
		if err != nil {
			return domain.Result{}, classifyStorageErr("reload lead", err)
		}
		if current == nil {
			return domain.Result{}, domain.ErrLeadNotFound
		}
		return alreadyAssigned(*current), nil
	}

	assignedAt := now
	return domain.Result{
		LeadID:          lead.ID,
		SalesEmployeeID: d.employeeID,
		Method:          d.method,
		Outcome:         domain.OutcomeAssigned,
		RuleID:          d.ruleID,
		AssignedAt:      &assignedAt,
	}, nil
}

func alreadyAssigned(lead leaddomain.Lead) domain.Result {
	result := domain.Result{
		LeadID:     lead.ID,
		Outcome:    domain.OutcomeAlreadyAssigned,
		AssignedAt: lead.AssignedAt,
	}
	if lead.AssignedSalesID != nil {
		result.SalesEmployeeID = *lead.AssignedSalesID
	}
	if lead.AssignmentMethod != nil {
		result.Method = *lead.AssignmentMethod
	}
	return result
}

func classifyStorageErr(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", op, err)
	}
	if db.IsTransientErr(err) {
		return fmt.Errorf("%s: %w: %w", op, domain.ErrTransientStorage, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
