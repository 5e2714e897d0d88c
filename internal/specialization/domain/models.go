package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Specialization declares that a sales employee can handle a product group.
type Specialization struct {
	ID              snowflake.ID `gorm:"primaryKey" json:"id"`
	SalesEmployeeID snowflake.ID `gorm:"not null;uniqueIndex:ux_sales_specializations_pair" json:"sales_employee_id"`
	ProductGroupID  snowflake.ID `gorm:"not null;uniqueIndex:ux_sales_specializations_pair;index" json:"product_group_id"`
	IsPrimary       bool         `gorm:"not null;default:false" json:"is_primary"`
	CreatedAt       time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Specialization) TableName() string { return "sales_specializations" }
