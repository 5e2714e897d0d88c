package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/smallbiznis/salesdesk/internal/allocationrule/domain"
	"github.com/smallbiznis/salesdesk/internal/clock"
	leaddomain "github.com/smallbiznis/salesdesk/internal/lead/domain"
	productgroupdomain "github.com/smallbiznis/salesdesk/internal/productgroup/domain"
	salesemployeedomain "github.com/smallbiznis/salesdesk/internal/salesemployee/domain"
	specializationdomain "github.com/smallbiznis/salesdesk/internal/specialization/domain"
	"github.com/smallbiznis/salesdesk/pkg/db"
	"github.com/smallbiznis/salesdesk/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB                 *gorm.DB
	Log                *zap.Logger
	GenID              *snowflake.Node
	Clock              clock.Clock
	Repo               domain.Repository
	ProductGroupRepo   productgroupdomain.Repository
	EmployeeRepo       salesemployeedomain.Repository
	SpecializationRepo specializationdomain.Repository
}

type Service struct {
	db                 *gorm.DB
	log                *zap.Logger
	genID              *snowflake.Node
	clock              clock.Clock
	repo               domain.Repository
	productGroupRepo   productgroupdomain.Repository
	employeeRepo       salesemployeedomain.Repository
	specializationRepo specializationdomain.Repository
}

func New(p Params) domain.Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &Service{
		db:                 p.DB,
		log:                p.Log.Named("allocationrule.service"),
		genID:              p.GenID,
		clock:              clk,
		repo:               p.Repo,
		productGroupRepo:   p.ProductGroupRepo,
		employeeRepo:       p.EmployeeRepo,
		specializationRepo: p.SpecializationRepo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.UpsertAllocationRuleRequest) (domain.AllocationRule, error) {
	now := s.clock.Now()
	rule := domain.AllocationRule{
		ID:        s.genID.Generate(),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.apply(ctx, tx, &rule, req); err != nil {
			return err
		}
		if err := s.repo.Insert(ctx, tx, &rule); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return domain.ErrDuplicateCode
			}
			return err
		}
		return nil
	})
	if err != nil {
		return domain.AllocationRule{}, err
	}

	s.log.Info("allocation rule created",
		zap.String("rule_id", rule.ID.String()),
		zap.String("code", rule.Code),
		zap.Int("product_groups", len(rule.ProductGroupIDs)),
		zap.Int("sales_employees", len(rule.SalesEmployeeIDs)),
	)
	return rule, nil
}

func (s *Service) List(ctx context.Context, req domain.ListAllocationRuleRequest) (domain.ListAllocationRuleResponse, error) {
	page := pagination.Pagination{PageToken: req.PageToken, PageSize: req.PageSize}
	items, err := s.repo.List(ctx, s.db, domain.ListAllocationRuleFilter{IsActive: req.IsActive}, page)
	if err != nil {
		return domain.ListAllocationRuleResponse{}, err
	}

	items, pageInfo := pagination.BuildCursorPageInfo(items, page.Size(), func(rule *domain.AllocationRule) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{ID: rule.ID.String()})
		if err != nil {
			return ""
		}
		return token
	})

	rules := make([]domain.AllocationRule, 0, len(items))
	for _, item := range items {
		rules = append(rules, normalize(*item))
	}
	return domain.ListAllocationRuleResponse{PageInfo: pageInfo, Rules: rules}, nil
}

func (s *Service) GetByID(ctx context.Context, rawID string) (domain.AllocationRule, error) {
	id, err := parseID(rawID, domain.ErrInvalidID)
	if err != nil {
		return domain.AllocationRule{}, err
	}
	item, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.AllocationRule{}, err
	}
	if item == nil {
		return domain.AllocationRule{}, domain.ErrNotFound
	}
	return normalize(*item), nil
}

func (s *Service) Update(ctx context.Context, rawID string, req domain.UpsertAllocationRuleRequest) (domain.AllocationRule, error) {
	id, err := parseID(rawID, domain.ErrInvalidID)
	if err != nil {
		return domain.AllocationRule{}, err
	}

	var rule domain.AllocationRule
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if item == nil {
			return domain.ErrNotFound
		}
		rule = *item

		if err := s.apply(ctx, tx, &rule, req); err != nil {
			return err
		}
		rule.UpdatedAt = s.clock.Now()
		if err := s.repo.Update(ctx, tx, &rule); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return domain.ErrDuplicateCode
			}
			return err
		}
		return nil
	})
	if err != nil {
		return domain.AllocationRule{}, err
	}

	s.log.Info("allocation rule updated", zap.String("rule_id", rule.ID.String()), zap.Bool("is_active", rule.IsActive))
	return normalize(rule), nil
}

func (s *Service) Delete(ctx context.Context, rawID string) error {
	id, err := parseID(rawID, domain.ErrInvalidID)
	if err != nil {
		return err
	}
	deleted, err := s.repo.Delete(ctx, s.db, id)
	if err != nil {
		return err
	}
	if !deleted {
		return domain.ErrNotFound
	}
	s.log.Info("allocation rule deleted", zap.String("rule_id", id.String()))
	return nil
}

func (s *Service) AutoFill(ctx context.Context, rawID string) (domain.AllocationRule, error) {
	id, err := parseID(rawID, domain.ErrInvalidID)
	if err != nil {
		return domain.AllocationRule{}, err
	}

	var (
		rule    domain.AllocationRule
		changed bool
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if item == nil {
			return domain.ErrNotFound
		}
		rule = *item
		if len(rule.ProductGroupIDs) == 0 {
			return nil
		}

		// groups deleted since the rule was written contribute nobody
		existing, err := s.productGroupRepo.ExistingIDs(ctx, tx, rule.ProductGroupIDs)
		if err != nil {
			return err
		}
		employees, err := s.specializationRepo.ActiveEmployeeIDsForGroups(ctx, tx, existing)
		if err != nil {
			return err
		}

		rule.SalesEmployeeIDs = datatypes.NewJSONSlice(dedupe(employees))
		rule.UpdatedAt = s.clock.Now()
		changed = true
		return s.repo.Update(ctx, tx, &rule)
	})
	if err != nil {
		return domain.AllocationRule{}, err
	}

	if changed {
		s.log.Info("allocation rule auto-filled",
			zap.String("rule_id", rule.ID.String()),
			zap.Int("sales_employees", len(rule.SalesEmployeeIDs)),
		)
	}
	return normalize(rule), nil
}

// apply validates req and copies it onto rule. Referenced product groups and
// employees must exist when the rule is written.
func (s *Service) apply(ctx context.Context, tx *gorm.DB, rule *domain.AllocationRule, req domain.UpsertAllocationRuleRequest) error {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.ErrInvalidName
	}
	code := strings.TrimSpace(req.Code)
	if code == "" {
		code = slug.Make(name)
	}
	if !slug.IsSlug(code) {
		return domain.ErrInvalidCode
	}

	group, err := leaddomain.ParseCustomerGroup(req.CustomerGroup)
	if err != nil {
		return err
	}

	productGroupIDs, err := parseIDs(req.ProductGroupIDs, domain.ErrInvalidProductGroupID)
	if err != nil {
		return err
	}
	if len(productGroupIDs) > 0 {
		existing, err := s.productGroupRepo.ExistingIDs(ctx, tx, productGroupIDs)
		if err != nil {
			return err
		}
		if len(existing) != len(productGroupIDs) {
			return domain.ErrUnknownProductGroup
		}
	}

	employeeIDs, err := parseIDs(req.SalesEmployeeIDs, domain.ErrInvalidSalesEmployee)
	if err != nil {
		return err
	}
	for _, employeeID := range employeeIDs {
		employee, err := s.employeeRepo.FindByID(ctx, tx, employeeID)
		if err != nil {
			return err
		}
		if employee == nil {
			return domain.ErrUnknownSalesEmployee
		}
	}

	rule.Code = code
	rule.Name = name
	rule.Description = strings.TrimSpace(req.Description)
	rule.CustomerGroup = group
	rule.ProductGroupIDs = datatypes.NewJSONSlice(productGroupIDs)
	rule.SalesEmployeeIDs = datatypes.NewJSONSlice(employeeIDs)
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}
	return nil
}

func normalize(rule domain.AllocationRule) domain.AllocationRule {
	if rule.ProductGroupIDs == nil {
		rule.ProductGroupIDs = datatypes.JSONSlice[snowflake.ID]{}
	}
	if rule.SalesEmployeeIDs == nil {
		rule.SalesEmployeeIDs = datatypes.JSONSlice[snowflake.ID]{}
	}
	return rule
}

func parseIDs(values []string, invalid error) ([]snowflake.ID, error) {
	out := make([]snowflake.ID, 0, len(values))
	for _, value := range values {
		id, err := parseID(value, invalid)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return dedupe(out), nil
}

func dedupe(ids []snowflake.ID) []snowflake.ID {
	seen := make(map[snowflake.ID]struct{}, len(ids))
	out := make([]snowflake.ID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func parseID(value string, invalid error) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, invalid
	}
	return id, nil
}
