package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/smallbiznis/salesdesk/internal/productgroup/domain"
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
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("productgroup.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateProductGroupRequest) (domain.ProductGroup, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.ProductGroup{}, domain.ErrInvalidName
	}

	code := strings.TrimSpace(req.Code)
	if code == "" {
		code = slug.Make(name)
	}
	if !slug.IsSlug(code) {
		return domain.ProductGroup{}, domain.ErrInvalidCode
	}

	now := time.Now().UTC()
	group := domain.ProductGroup{
		ID:          s.genID.Generate(),
		Code:        code,
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Insert(ctx, s.db, &group); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.ProductGroup{}, domain.ErrDuplicateCode
		}
		return domain.ProductGroup{}, err
	}

	s.log.Info("product group created", zap.String("product_group_id", group.ID.String()), zap.String("code", group.Code))
	return group, nil
}

func (s *Service) List(ctx context.Context, req domain.ListProductGroupRequest) (domain.ListProductGroupResponse, error) {
	page := pagination.Pagination{PageToken: req.PageToken, PageSize: req.PageSize}
	items, err := s.repo.List(ctx, s.db, page)
	if err != nil {
		return domain.ListProductGroupResponse{}, err
	}

	items, pageInfo := pagination.BuildCursorPageInfo(items, page.Size(), func(group *domain.ProductGroup) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{ID: group.ID.String()})
		if err != nil {
			return ""
		}
		return token
	})

	groups := make([]domain.ProductGroup, 0, len(items))
	for _, item := range items {
		groups = append(groups, *item)
	}
	return domain.ListProductGroupResponse{PageInfo: pageInfo, ProductGroups: groups}, nil
}

func (s *Service) GetByID(ctx context.Context, rawID string) (domain.ProductGroup, error) {
	id, err := parseID(rawID)
	if err != nil {
		return domain.ProductGroup{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.ProductGroup{}, err
	}
	if item == nil {
		return domain.ProductGroup{}, domain.ErrNotFound
	}
	return *item, nil
}

// Delete removes the group and the specializations that point at it. Rules and
// leads keep their references; the matcher ignores dangling ids.
func (s *Service) Delete(ctx context.Context, rawID string) error {
	id, err := parseID(rawID)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`DELETE FROM sales_specializations WHERE product_group_id = ?`, id).Error; err != nil {
			return err
		}
		deleted, err := s.repo.Delete(ctx, tx, id)
		if err != nil {
			return err
		}
		if !deleted {
			return domain.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info("product group deleted", zap.String("product_group_id", id.String()))
	return nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
