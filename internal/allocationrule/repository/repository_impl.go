package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/salesdesk/internal/allocationrule/domain"
	"github.com/smallbiznis/salesdesk/pkg/db/pagination"
	"gorm.io/gorm"
)

const ruleColumns = `id, code, name, description, customer_group, product_group_ids, sales_employee_ids, is_active, created_at, updated_at`

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, rule *domain.AllocationRule) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO allocation_rules (`+ruleColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rule.ID,
		rule.Code,
		rule.Name,
		rule.Description,
		rule.CustomerGroup,
		rule.ProductGroupIDs,
		rule.SalesEmployeeIDs,
		rule.IsActive,
		rule.CreatedAt,
		rule.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.AllocationRule, error) {
	var rule domain.AllocationRule
	err := db.WithContext(ctx).Raw(
		`SELECT `+ruleColumns+` FROM allocation_rules WHERE id = ?`,
		id,
	).Scan(&rule).Error
	if err != nil {
		return nil, err
	}
	if rule.ID == 0 {
		return nil, nil
	}
	return &rule, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListAllocationRuleFilter, page pagination.Pagination) ([]*domain.AllocationRule, error) {
	stmt := db.WithContext(ctx).Model(&domain.AllocationRule{})
	if filter.IsActive != nil {
		stmt = stmt.Where("is_active = ?", *filter.IsActive)
	}
	stmt, err := page.Apply(stmt)
	if err != nil {
		return nil, err
	}
	var rules []*domain.AllocationRule
	if err := stmt.Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *repo) ListActive(ctx context.Context, db *gorm.DB) ([]*domain.AllocationRule, error) {
	var rules []*domain.AllocationRule
	err := db.WithContext(ctx).Raw(
		`SELECT ` + ruleColumns + ` FROM allocation_rules
		 WHERE is_active = true
		 ORDER BY created_at ASC, id ASC`,
	).Scan(&rules).Error
	if err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, rule *domain.AllocationRule) error {
	return db.WithContext(ctx).Exec(
		`UPDATE allocation_rules
		 SET code = ?, name = ?, description = ?, customer_group = ?, product_group_ids = ?,
		     sales_employee_ids = ?, is_active = ?, updated_at = ?
		 WHERE id = ?`,
		rule.Code,
		rule.Name,
		rule.Description,
		rule.CustomerGroup,
		rule.ProductGroupIDs,
		rule.SalesEmployeeIDs,
		rule.IsActive,
		rule.UpdatedAt,
		rule.ID,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error) {
	res := db.WithContext(ctx).Exec(`DELETE FROM allocation_rules WHERE id = ?`, id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
