package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/salesdesk/internal/clock"
	productgroupdomain "github.com/smallbiznis/salesdesk/internal/productgroup/domain"
	salesemployeedomain "github.com/smallbiznis/salesdesk/internal/salesemployee/domain"
	"github.com/smallbiznis/salesdesk/internal/specialization/domain"
	"github.com/smallbiznis/salesdesk/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB               *gorm.DB
	Log              *zap.Logger
	GenID            *snowflake.Node
	Clock            clock.Clock
	Repo             domain.Repository
	EmployeeRepo     salesemployeedomain.Repository
	ProductGroupRepo productgroupdomain.Repository
}

type Service struct {
	db               *gorm.DB
	log              *zap.Logger
	genID            *snowflake.Node
	clock            clock.Clock
	repo             domain.Repository
	employeeRepo     salesemployeedomain.Repository
	productGroupRepo productgroupdomain.Repository
}

func New(p Params) domain.Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &Service{
		db:               p.DB,
		log:              p.Log.Named("specialization.service"),
		genID:            p.GenID,
		clock:            clk,
		repo:             p.Repo,
		employeeRepo:     p.EmployeeRepo,
		productGroupRepo: p.ProductGroupRepo,
	}
}

func (s *Service) Create(ctx context.Context, rawEmployeeID string, req domain.CreateSpecializationRequest) (domain.Specialization, error) {
	employeeID, err := parseID(rawEmployeeID, domain.ErrInvalidEmployeeID)
	if err != nil {
		return domain.Specialization{}, err
	}
	groupID, err := parseID(req.ProductGroupID, domain.ErrInvalidProductGroupID)
	if err != nil {
		return domain.Specialization{}, err
	}

	item := domain.Specialization{
		ID:              s.genID.Generate(),
		SalesEmployeeID: employeeID,
		ProductGroupID:  groupID,
		IsPrimary:       req.IsPrimary,
		CreatedAt:       s.clock.Now(),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		employee, err := s.employeeRepo.FindByID(ctx, tx, employeeID)
		if err != nil {
			return err
		}
		if employee == nil {
			return domain.ErrEmployeeNotFound
		}
		group, err := s.productGroupRepo.FindByID(ctx, tx, groupID)
		if err != nil {
			return err
		}
		if group == nil {
			return domain.ErrProductGroupNotFound
		}

		if item.IsPrimary {
			if err := s.repo.ClearPrimary(ctx, tx, employeeID); err != nil {
				return err
			}
		}
		if err := s.repo.Insert(ctx, tx, &item); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return domain.ErrAlreadyExists
			}
			return err
		}
		return nil
	})
	if err != nil {
		return domain.Specialization{}, err
	}

	s.log.Info("specialization added",
		zap.String("sales_employee_id", employeeID.String()),
		zap.String("product_group_id", groupID.String()),
		zap.Bool("is_primary", item.IsPrimary),
	)
	return item, nil
}

func (s *Service) ListByEmployee(ctx context.Context, rawEmployeeID string) ([]domain.Specialization, error) {
	employeeID, err := parseID(rawEmployeeID, domain.ErrInvalidEmployeeID)
	if err != nil {
		return nil, err
	}

	employee, err := s.employeeRepo.FindByID(ctx, s.db, employeeID)
	if err != nil {
		return nil, err
	}
	if employee == nil {
		return nil, domain.ErrEmployeeNotFound
	}

	items, err := s.repo.ListByEmployee(ctx, s.db, employeeID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Specialization, 0, len(items))
	for _, item := range items {
		out = append(out, *item)
	}
	return out, nil
}

func (s *Service) Delete(ctx context.Context, rawEmployeeID, rawProductGroupID string) error {
	employeeID, err := parseID(rawEmployeeID, domain.ErrInvalidEmployeeID)
	if err != nil {
		return err
	}
	groupID, err := parseID(rawProductGroupID, domain.ErrInvalidProductGroupID)
	if err != nil {
		return err
	}

	deleted, err := s.repo.Delete(ctx, s.db, employeeID, groupID)
	if err != nil {
		return err
	}
	if !deleted {
		return domain.ErrNotFound
	}

	s.log.Info("specialization removed",
		zap.String("sales_employee_id", employeeID.String()),
		zap.String("product_group_id", groupID.String()),
	)
	return nil
}

func parseID(value string, invalid error) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, invalid
	}
	return id, nil
}
