package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/salesdesk/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, group *ProductGroup) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*ProductGroup, error)
	List(ctx context.Context, db *gorm.DB, page pagination.Pagination) ([]*ProductGroup, error)
	// ExistingIDs returns the subset of ids that still exist. A nil ids slice returns every id.
	ExistingIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]snowflake.ID, error)
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error)
}
