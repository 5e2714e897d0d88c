package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/salesdesk/pkg/db/pagination"
	"gorm.io/gorm"
)

type ListSalesEmployeeFilter struct {
	IsActive *bool
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, employee *SalesEmployee) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*SalesEmployee, error)
	List(ctx context.Context, db *gorm.DB, filter ListSalesEmployeeFilter, page pagination.Pagination) ([]*SalesEmployee, error)
	// ListActive returns every active employee ordered by round_robin_order, id.
	ListActive(ctx context.Context, db *gorm.DB) ([]*SalesEmployee, error)
	ListAll(ctx context.Context, db *gorm.DB) ([]*SalesEmployee, error)
	Update(ctx context.Context, db *gorm.DB, employee *SalesEmployee) error
	NextRoundRobinOrder(ctx context.Context, db *gorm.DB) (int, error)

	ResetTodayCounts(ctx context.Context, db *gorm.DB, at time.Time) (int64, error)
	// ClaimResetDay records the reset for day and reports whether this caller won it.
	ClaimResetDay(ctx context.Context, db *gorm.DB, reset *CounterReset) (bool, error)
	UpdateResetEmployees(ctx context.Context, db *gorm.DB, id snowflake.ID, employees int64) error
}
