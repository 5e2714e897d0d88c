package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/salesdesk/internal/lead/domain"
	"github.com/smallbiznis/salesdesk/pkg/db/pagination"
	"gorm.io/gorm"
)

const leadColumns = `id, name, phone, email, source, status, customer_group, interested_product_group_id,
	assigned_sales_id, assignment_method, assigned_at, metadata, created_at, updated_at`

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, lead *domain.Lead) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO leads (`+leadColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		lead.ID,
		lead.Name,
		lead.Phone,
		lead.Email,
		lead.Source,
		lead.Status,
		lead.CustomerGroup,
		lead.InterestedProductGroupID,
		lead.AssignedSalesID,
		lead.AssignmentMethod,
		lead.AssignedAt,
		lead.Metadata,
		lead.CreatedAt,
		lead.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Lead, error) {
	var lead domain.Lead
	err := db.WithContext(ctx).Raw(
		`SELECT `+leadColumns+` FROM leads WHERE id = ?`,
		id,
	).Scan(&lead).Error
	if err != nil {
		return nil, err
	}
	if lead.ID == 0 {
		return nil, nil
	}
	return &lead, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListLeadFilter, page pagination.Pagination) ([]*domain.Lead, error) {
	stmt := db.WithContext(ctx).Model(&domain.Lead{})
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if filter.AssignedSalesID != nil {
		stmt = stmt.Where("assigned_sales_id = ?", *filter.AssignedSalesID)
	}
	if filter.Unassigned {
		stmt = stmt.Where("assigned_sales_id IS NULL")
	}
	stmt, err := page.Apply(stmt)
	if err != nil {
		return nil, err
	}
	var leads []*domain.Lead
	if err := stmt.Find(&leads).Error; err != nil {
		return nil, err
	}
	return leads, nil
}

func (r *repo) ListUnassigned(ctx context.Context, db *gorm.DB) ([]*domain.Lead, error) {
	var leads []*domain.Lead
	err := db.WithContext(ctx).Raw(
		`SELECT ` + leadColumns + ` FROM leads
		 WHERE assigned_sales_id IS NULL
		 ORDER BY created_at ASC, id ASC`,
	).Scan(&leads).Error
	if err != nil {
		return nil, err
	}
	return leads, nil
}

func (r *repo) ClaimAssignment(ctx context.Context, db *gorm.DB, id, salesID snowflake.ID, method domain.AssignmentMethod, at time.Time) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE leads
		 SET assigned_sales_id = ?, assignment_method = ?, assigned_at = ?, updated_at = ?
		 WHERE id = ? AND assigned_sales_id IS NULL`,
		salesID,
		method,
		at,
		at,
		id,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repo) Reassign(ctx context.Context, db *gorm.DB, id, salesID snowflake.ID, method domain.AssignmentMethod, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE leads
		 SET assigned_sales_id = ?, assignment_method = ?, assigned_at = ?, updated_at = ?
		 WHERE id = ?`,
		salesID,
		method,
		at,
		at,
		id,
	).Error
}
