package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/salesdesk/pkg/db/pagination"
	"gorm.io/gorm"
)

type ListAllocationRuleFilter struct {
	IsActive *bool
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, rule *AllocationRule) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*AllocationRule, error)
	List(ctx context.Context, db *gorm.DB, filter ListAllocationRuleFilter, page pagination.Pagination) ([]*AllocationRule, error)
	// ListActive returns active rules in creation order.
	ListActive(ctx context.Context, db *gorm.DB) ([]*AllocationRule, error)
	Update(ctx context.Context, db *gorm.DB, rule *AllocationRule) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error)
}
