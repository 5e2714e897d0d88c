package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/salesdesk/internal/specialization/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, specialization *domain.Specialization) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO sales_specializations (id, sales_employee_id, product_group_id, is_primary, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		specialization.ID,
		specialization.SalesEmployeeID,
		specialization.ProductGroupID,
		specialization.IsPrimary,
		specialization.CreatedAt,
	).Error
}

func (r *repo) ListByEmployee(ctx context.Context, db *gorm.DB, employeeID snowflake.ID) ([]*domain.Specialization, error) {
	var items []*domain.Specialization
	err := db.WithContext(ctx).Raw(
		`SELECT id, sales_employee_id, product_group_id, is_primary, created_at
		 FROM sales_specializations
		 WHERE sales_employee_id = ?
		 ORDER BY is_primary DESC, created_at ASC, id ASC`,
		employeeID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ClearPrimary(ctx context.Context, db *gorm.DB, employeeID snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`UPDATE sales_specializations SET is_primary = false WHERE sales_employee_id = ? AND is_primary = true`,
		employeeID,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, employeeID, productGroupID snowflake.ID) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`DELETE FROM sales_specializations WHERE sales_employee_id = ? AND product_group_id = ?`,
		employeeID,
		productGroupID,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) ActiveEmployeeIDsForGroups(ctx context.Context, db *gorm.DB, groupIDs []snowflake.ID) ([]snowflake.ID, error) {
	if len(groupIDs) == 0 {
		return []snowflake.ID{}, nil
	}
	var ids []snowflake.ID
	err := db.WithContext(ctx).Raw(
		`SELECT DISTINCT s.sales_employee_id
		 FROM sales_specializations s
		 JOIN sales_employees e ON e.id = s.sales_employee_id
		 WHERE s.product_group_id IN ? AND e.is_active = true
		 ORDER BY s.sales_employee_id ASC`,
		groupIDs,
	).Scan(&ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
