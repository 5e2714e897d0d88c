package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	leaddomain "github.com/smallbiznis/salesdesk/internal/lead/domain"
	"gorm.io/datatypes"
)

// AllocationRule maps a customer group and/or product groups to the sales
// employees eligible for matching leads. Unset dimensions match anything.
type AllocationRule struct {
	ID               snowflake.ID                      `gorm:"primaryKey" json:"id"`
	Code             string                            `gorm:"type:text;not null;uniqueIndex" json:"code"`
	Name             string                            `gorm:"type:text;not null" json:"name"`
	Description      string                            `gorm:"type:text" json:"description,omitempty"`
	CustomerGroup    *leaddomain.CustomerGroup         `gorm:"type:text" json:"customer_group,omitempty"`
	ProductGroupIDs  datatypes.JSONSlice[snowflake.ID] `gorm:"type:json;not null" json:"product_group_ids"`
	SalesEmployeeIDs datatypes.JSONSlice[snowflake.ID] `gorm:"type:json;not null" json:"sales_employee_ids"`
	IsActive         bool                              `gorm:"not null;default:true" json:"is_active"`
	CreatedAt        time.Time                         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt        time.Time                         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (AllocationRule) TableName() string { return "allocation_rules" }
