package domain

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/salesdesk/pkg/db/pagination"
)

type CreateSalesEmployeeRequest struct {
	Code            string `json:"code"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	IsActive        *bool  `json:"is_active"`
	RoundRobinOrder *int   `json:"round_robin_order"`
}

type UpdateSalesEmployeeRequest struct {
	Name            *string `json:"name"`
	Email           *string `json:"email"`
	IsActive        *bool   `json:"is_active"`
	RoundRobinOrder *int    `json:"round_robin_order"`
}

type ListSalesEmployeeRequest struct {
	PageToken string
	PageSize  int
	IsActive  *bool
}

type ListSalesEmployeeResponse struct {
	pagination.PageInfo
	SalesEmployees []SalesEmployee `json:"sales_employees"`
}

type ResetResult struct {
	Day       string    `json:"day,omitempty"`
	Employees int64     `json:"employees"`
	ResetAt   time.Time `json:"reset_at"`
	Skipped   bool      `json:"skipped"`
}

type WorkloadEntry struct {
	SalesEmployeeID string     `json:"sales_employee_id"`
	Code            string     `json:"code"`
	Name            string     `json:"name"`
	IsActive        bool       `json:"is_active"`
	TodayCount      int64      `json:"today_count"`
	TotalCount      int64      `json:"total_count"`
	LastAssignedAt  *time.Time `json:"last_assigned_at,omitempty"`
	ShareOfToday    float64    `json:"share_of_today"`
}

type WorkloadReport struct {
	Employees   []WorkloadEntry `json:"employees"`
	TodayTotal  int64           `json:"today_total"`
	TotalTotal  int64           `json:"total_total"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// DailyResetHook is told when today counts were zeroed in the database, so
// counters kept outside it can follow. Register with the daily_reset_hooks group.
type DailyResetHook interface {
	ResetToday()
}

type Service interface {
	Create(context.Context, CreateSalesEmployeeRequest) (SalesEmployee, error)
	List(context.Context, ListSalesEmployeeRequest) (ListSalesEmployeeResponse, error)
	GetByID(context.Context, string) (SalesEmployee, error)
	Update(context.Context, string, UpdateSalesEmployeeRequest) (SalesEmployee, error)

	// ResetDailyCounts zeroes today_count of every employee.
	ResetDailyCounts(context.Context) (ResetResult, error)
	// ResetDailyCountsForDay resets at most once per local day across instances.
	ResetDailyCountsForDay(ctx context.Context, day string) (ResetResult, error)
	Workload(context.Context) (WorkloadReport, error)
}

var (
	ErrInvalidName            = errors.New("invalid_name")
	ErrInvalidCode            = errors.New("invalid_code")
	ErrInvalidEmail           = errors.New("invalid_email")
	ErrInvalidRoundRobinOrder = errors.New("invalid_round_robin_order")
	ErrInvalidDay             = errors.New("invalid_day")
	ErrInvalidID              = errors.New("invalid_id")
	ErrDuplicateCode          = errors.New("duplicate_code")
	ErrNotFound               = errors.New("not_found")
)
