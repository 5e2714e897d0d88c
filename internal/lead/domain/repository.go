package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/salesdesk/pkg/db/pagination"
	"gorm.io/gorm"
)

type ListLeadFilter struct {
	Status          Status
	AssignedSalesID *snowflake.ID
	Unassigned      bool
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, lead *Lead) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Lead, error)
	List(ctx context.Context, db *gorm.DB, filter ListLeadFilter, page pagination.Pagination) ([]*Lead, error)
	// ListUnassigned snapshots the unassigned pool in created_at, id order.
	ListUnassigned(ctx context.Context, db *gorm.DB) ([]*Lead, error)
	// ClaimAssignment writes the assignment only while the lead is still
	// unassigned and reports whether this call won.
	ClaimAssignment(ctx context.Context, db *gorm.DB, id, salesID snowflake.ID, method AssignmentMethod, at time.Time) (bool, error)
	// Reassign overwrites the assignment unconditionally.
	Reassign(ctx context.Context, db *gorm.DB, id, salesID snowflake.ID, method AssignmentMethod, at time.Time) error
}
