package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, specialization *Specialization) error
	ListByEmployee(ctx context.Context, db *gorm.DB, employeeID snowflake.ID) ([]*Specialization, error)
	ClearPrimary(ctx context.Context, db *gorm.DB, employeeID snowflake.ID) error
	Delete(ctx context.Context, db *gorm.DB, employeeID, productGroupID snowflake.ID) (bool, error)
	// ActiveEmployeeIDsForGroups returns distinct active employees specialising in any of groupIDs.
	ActiveEmployeeIDsForGroups(ctx context.Context, db *gorm.DB, groupIDs []snowflake.ID) ([]snowflake.ID, error)
}
