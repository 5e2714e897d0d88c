package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/salesdesk/internal/salesemployee/domain"
	"github.com/smallbiznis/salesdesk/pkg/db/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const employeeColumns = `id, code, name, email, is_active, round_robin_order, today_count, total_count, last_assigned_at, created_at, updated_at`

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, employee *domain.SalesEmployee) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO sales_employees (`+employeeColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		employee.ID,
		employee.Code,
		employee.Name,
		employee.Email,
		employee.IsActive,
		employee.RoundRobinOrder,
		employee.TodayCount,
		employee.TotalCount,
		employee.LastAssignedAt,
		employee.CreatedAt,
		employee.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.SalesEmployee, error) {
	var employee domain.SalesEmployee
	err := db.WithContext(ctx).Raw(
		`SELECT `+employeeColumns+` FROM sales_employees WHERE id = ?`,
		id,
	).Scan(&employee).Error
	if err != nil {
		return nil, err
	}
	if employee.ID == 0 {
		return nil, nil
	}
	return &employee, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListSalesEmployeeFilter, page pagination.Pagination) ([]*domain.SalesEmployee, error) {
	stmt := db.WithContext(ctx).Model(&domain.SalesEmployee{})
	if filter.IsActive != nil {
		stmt = stmt.Where("is_active = ?", *filter.IsActive)
	}
	stmt, err := page.Apply(stmt)
	if err != nil {
		return nil, err
	}
	var employees []*domain.SalesEmployee
	if err := stmt.Find(&employees).Error; err != nil {
		return nil, err
	}
	return employees, nil
}

func (r *repo) ListActive(ctx context.Context, db *gorm.DB) ([]*domain.SalesEmployee, error) {
	var employees []*domain.SalesEmployee
	err := db.WithContext(ctx).Raw(
		`SELECT ` + employeeColumns + ` FROM sales_employees
		 WHERE is_active = true
		 ORDER BY round_robin_order ASC, id ASC`,
	).Scan(&employees).Error
	if err != nil {
		return nil, err
	}
	return employees, nil
}

func (r *repo) ListAll(ctx context.Context, db *gorm.DB) ([]*domain.SalesEmployee, error) {
	var employees []*domain.SalesEmployee
	err := db.WithContext(ctx).Raw(
		`SELECT ` + employeeColumns + ` FROM sales_employees
		 ORDER BY round_robin_order ASC, id ASC`,
	).Scan(&employees).Error
	if err != nil {
		return nil, err
	}
	return employees, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, employee *domain.SalesEmployee) error {
	return db.WithContext(ctx).Exec(
		`UPDATE sales_employees
		 SET name = ?, email = ?, is_active = ?, round_robin_order = ?, updated_at = ?
		 WHERE id = ?`,
		employee.Name,
		employee.Email,
		employee.IsActive,
		employee.RoundRobinOrder,
		employee.UpdatedAt,
		employee.ID,
	).Error
}

func (r *repo) NextRoundRobinOrder(ctx context.Context, db *gorm.DB) (int, error) {
	var next int
	err := db.WithContext(ctx).Raw(
		`SELECT COALESCE(MAX(round_robin_order), 0) + 1 FROM sales_employees`,
	).Scan(&next).Error
	return next, err
}

func (r *repo) ResetTodayCounts(ctx context.Context, db *gorm.DB, at time.Time) (int64, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE sales_employees SET today_count = 0, updated_at = ?`,
		at,
	)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *repo) ClaimResetDay(ctx context.Context, db *gorm.DB, reset *domain.CounterReset) (bool, error) {
	res := db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "reset_date"}}, DoNothing: true}).
		Create(reset)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) UpdateResetEmployees(ctx context.Context, db *gorm.DB, id snowflake.ID, employees int64) error {
	return db.WithContext(ctx).Exec(
		`UPDATE allocation_counter_resets SET employees = ? WHERE id = ?`,
		employees,
		id,
	).Error
}
