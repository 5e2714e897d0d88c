package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/salesdesk/internal/clock"
	"github.com/smallbiznis/salesdesk/internal/salesemployee/domain"
	"github.com/smallbiznis/salesdesk/pkg/db"
	"github.com/smallbiznis/salesdesk/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository

	ResetHooks []domain.DailyResetHook `group:"daily_reset_hooks"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	repo       domain.Repository
	resetHooks []domain.DailyResetHook
}

func New(p Params) domain.Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("salesemployee.service"),
		genID:      p.GenID,
		clock:      clk,
		repo:       p.Repo,
		resetHooks: p.ResetHooks,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateSalesEmployeeRequest) (domain.SalesEmployee, error) {
	code := strings.TrimSpace(req.Code)
	if code == "" || strings.ContainsAny(code, " \t\n") {
		return domain.SalesEmployee{}, domain.ErrInvalidCode
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.SalesEmployee{}, domain.ErrInvalidName
	}
	email := strings.TrimSpace(req.Email)
	if email != "" && !strings.Contains(email, "@") {
		return domain.SalesEmployee{}, domain.ErrInvalidEmail
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	var order int
	if req.RoundRobinOrder != nil {
		if *req.RoundRobinOrder < 0 {
			return domain.SalesEmployee{}, domain.ErrInvalidRoundRobinOrder
		}
		order = *req.RoundRobinOrder
	} else {
		next, err := s.repo.NextRoundRobinOrder(ctx, s.db)
		if err != nil {
			return domain.SalesEmployee{}, err
		}
		order = next
	}

	now := s.clock.Now()
	employee := domain.SalesEmployee{
		ID:              s.genID.Generate(),
		Code:            code,
		Name:            name,
		Email:           email,
		IsActive:        isActive,
		RoundRobinOrder: order,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.repo.Insert(ctx, s.db, &employee); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.SalesEmployee{}, domain.ErrDuplicateCode
		}
		return domain.SalesEmployee{}, err
	}

	s.log.Info("sales employee created",
		zap.String("sales_employee_id", employee.ID.String()),
		zap.Int("round_robin_order", employee.RoundRobinOrder),
	)
	return employee, nil
}

func (s *Service) List(ctx context.Context, req domain.ListSalesEmployeeRequest) (domain.ListSalesEmployeeResponse, error) {
	page := pagination.Pagination{PageToken: req.PageToken, PageSize: req.PageSize}
	items, err := s.repo.List(ctx, s.db, domain.ListSalesEmployeeFilter{IsActive: req.IsActive}, page)
	if err != nil {
		return domain.ListSalesEmployeeResponse{}, err
	}

	items, pageInfo := pagination.BuildCursorPageInfo(items, page.Size(), func(employee *domain.SalesEmployee) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{ID: employee.ID.String()})
		if err != nil {
			return ""
		}
		return token
	})

	employees := make([]domain.SalesEmployee, 0, len(items))
	for _, item := range items {
		employees = append(employees, *item)
	}
	return domain.ListSalesEmployeeResponse{PageInfo: pageInfo, SalesEmployees: employees}, nil
}

func (s *Service) GetByID(ctx context.Context, rawID string) (domain.SalesEmployee, error) {
	id, err := parseID(rawID)
	if err != nil {
		return domain.SalesEmployee{}, err
	}
	item, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.SalesEmployee{}, err
	}
	if item == nil {
		return domain.SalesEmployee{}, domain.ErrNotFound
	}
	return *item, nil
}

// Update patches profile fields. Load counters are owned by the allocation
// engine and the daily reset and cannot be edited here.
func (s *Service) Update(ctx context.Context, rawID string, req domain.UpdateSalesEmployeeRequest) (domain.SalesEmployee, error) {
	id, err := parseID(rawID)
	if err != nil {
		return domain.SalesEmployee{}, err
	}

	var updated domain.SalesEmployee
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if item == nil {
			return domain.ErrNotFound
		}

		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				return domain.ErrInvalidName
			}
			item.Name = name
		}
		if req.Email != nil {
			email := strings.TrimSpace(*req.Email)
			if email != "" && !strings.Contains(email, "@") {
				return domain.ErrInvalidEmail
			}
			item.Email = email
		}
		if req.IsActive != nil {
			item.IsActive = *req.IsActive
		}
		if req.RoundRobinOrder != nil {
			if *req.RoundRobinOrder < 0 {
				return domain.ErrInvalidRoundRobinOrder
			}
			item.RoundRobinOrder = *req.RoundRobinOrder
		}
		item.UpdatedAt = s.clock.Now()

		if err := s.repo.Update(ctx, tx, item); err != nil {
			return err
		}
		updated = *item
		return nil
	})
	if err != nil {
		return domain.SalesEmployee{}, err
	}

	s.log.Info("sales employee updated",
		zap.String("sales_employee_id", updated.ID.String()),
		zap.Bool("is_active", updated.IsActive),
	)
	return updated, nil
}

func (s *Service) ResetDailyCounts(ctx context.Context) (domain.ResetResult, error) {
	now := s.clock.Now()
	affected, err := s.repo.ResetTodayCounts(ctx, s.db, now)
	if err != nil {
		return domain.ResetResult{}, err
	}
	s.notifyReset()

	s.log.Info("daily counters reset", zap.Int64("employees", affected))
	return domain.ResetResult{Employees: affected, ResetAt: now}, nil
}

func (s *Service) ResetDailyCountsForDay(ctx context.Context, day string) (domain.ResetResult, error) {
	day = strings.TrimSpace(day)
	if _, err := time.Parse(time.DateOnly, day); err != nil {
		return domain.ResetResult{}, domain.ErrInvalidDay
	}

	now := s.clock.Now()
	result := domain.ResetResult{Day: day, ResetAt: now}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ledger := domain.CounterReset{
			ID:        s.genID.Generate(),
			ResetDate: day,
			CreatedAt: now,
		}
		claimed, err := s.repo.ClaimResetDay(ctx, tx, &ledger)
		if err != nil {
			return err
		}
		if !claimed {
			result.Skipped = true
			return nil
		}

		affected, err := s.repo.ResetTodayCounts(ctx, tx, now)
		if err != nil {
			return err
		}
		result.Employees = affected
		return s.repo.UpdateResetEmployees(ctx, tx, ledger.ID, affected)
	})
	if err != nil {
		return domain.ResetResult{}, err
	}

	if result.Skipped {
		s.log.Debug("daily counters already reset", zap.String("day", day))
	} else {
		s.notifyReset()
		s.log.Info("daily counters reset", zap.String("day", day), zap.Int64("employees", result.Employees))
	}
	return result, nil
}

func (s *Service) notifyReset() {
	for _, hook := range s.resetHooks {
		if hook != nil {
			hook.ResetToday()
		}
	}
}

func (s *Service) Workload(ctx context.Context) (domain.WorkloadReport, error) {
	items, err := s.repo.ListAll(ctx, s.db)
	if err != nil {
		return domain.WorkloadReport{}, err
	}

	report := domain.WorkloadReport{
		Employees:   make([]domain.WorkloadEntry, 0, len(items)),
		GeneratedAt: s.clock.Now(),
	}
	for _, item := range items {
		report.TodayTotal += item.TodayCount
		report.TotalTotal += item.TotalCount
	}
	for _, item := range items {
		entry := domain.WorkloadEntry{
			SalesEmployeeID: item.ID.String(),
			Code:            item.Code,
			Name:            item.Name,
			IsActive:        item.IsActive,
			TodayCount:      item.TodayCount,
			TotalCount:      item.TotalCount,
			LastAssignedAt:  item.LastAssignedAt,
		}
		if report.TodayTotal > 0 {
			entry.ShareOfToday = float64(item.TodayCount) / float64(report.TodayTotal)
		}
		report.Employees = append(report.Employees, entry)
	}
	return report, nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
