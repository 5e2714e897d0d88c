package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/salesdesk/internal/clock"
	"github.com/smallbiznis/salesdesk/internal/lead/domain"
	"github.com/smallbiznis/salesdesk/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("lead.service"),
		genID: p.GenID,
		clock: clk,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateLeadRequest) (domain.Lead, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Lead{}, domain.ErrInvalidName
	}

	email := strings.TrimSpace(req.Email)
	if email != "" && !strings.Contains(email, "@") {
		return domain.Lead{}, domain.ErrInvalidEmail
	}
	phone := strings.TrimSpace(req.Phone)
	if email == "" && phone == "" {
		return domain.Lead{}, domain.ErrInvalidContact
	}

	group, err := domain.ParseCustomerGroup(req.CustomerGroup)
	if err != nil {
		return domain.Lead{}, err
	}

	var interested *snowflake.ID
	if raw := strings.TrimSpace(req.InterestedProductGroupID); raw != "" {
		id, err := snowflake.ParseString(raw)
		if err != nil || id == 0 {
			return domain.Lead{}, domain.ErrInvalidProductGroupID
		}
		interested = &id
	}

	metadata := datatypes.JSONMap{}
	for k, v := range req.Metadata {
		metadata[k] = v
	}

	now := s.clock.Now()
	lead := domain.Lead{
		ID:                       s.genID.Generate(),
		Name:                     name,
		Phone:                    phone,
		Email:                    email,
		Source:                   strings.TrimSpace(req.Source),
		Status:                   domain.StatusNew,
		CustomerGroup:            group,
		InterestedProductGroupID: interested,
		Metadata:                 metadata,
		CreatedAt:                now,
		UpdatedAt:                now,
	}

	if err := s.repo.Insert(ctx, s.db, &lead); err != nil {
		return domain.Lead{}, err
	}

	s.log.Info("lead created",
		zap.String("lead_id", lead.ID.String()),
		zap.String("source", lead.Source),
	)
	return lead, nil
}

func (s *Service) List(ctx context.Context, req domain.ListLeadRequest) (domain.ListLeadResponse, error) {
	filter := domain.ListLeadFilter{Unassigned: req.Unassigned}
	if raw := strings.TrimSpace(req.Status); raw != "" {
		status, err := domain.ParseStatus(raw)
		if err != nil {
			return domain.ListLeadResponse{}, err
		}
		filter.Status = status
	}
	if raw := strings.TrimSpace(req.AssignedSalesID); raw != "" {
		id, err := snowflake.ParseString(raw)
		if err != nil || id == 0 {
			return domain.ListLeadResponse{}, domain.ErrInvalidSalesEmployeeID
		}
		filter.AssignedSalesID = &id
	}

	page := pagination.Pagination{PageToken: req.PageToken, PageSize: req.PageSize}
	items, err := s.repo.List(ctx, s.db, filter, page)
	if err != nil {
		return domain.ListLeadResponse{}, err
	}

	items, pageInfo := pagination.BuildCursorPageInfo(items, page.Size(), func(lead *domain.Lead) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{ID: lead.ID.String()})
		if err != nil {
			return ""
		}
		return token
	})

	leads := make([]domain.Lead, 0, len(items))
	for _, item := range items {
		leads = append(leads, *item)
	}
	return domain.ListLeadResponse{PageInfo: pageInfo, Leads: leads}, nil
}

func (s *Service) GetByID(ctx context.Context, rawID string) (domain.Lead, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(rawID))
	if err != nil || id == 0 {
		return domain.Lead{}, domain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Lead{}, err
	}
	if item == nil {
		return domain.Lead{}, domain.ErrNotFound
	}
	return *item, nil
}
