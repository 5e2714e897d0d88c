package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// SalesEmployee is a staff member that can own leads. TodayCount, TotalCount
// and LastAssignedAt are the load counters maintained by the allocation engine.
type SalesEmployee struct {
	ID              snowflake.ID `gorm:"primaryKey" json:"id"`
	Code            string       `gorm:"type:text;not null;uniqueIndex" json:"code"`
	Name            string       `gorm:"type:text;not null" json:"name"`
	Email           string       `gorm:"type:text" json:"email,omitempty"`
	IsActive        bool         `gorm:"not null;default:true;index" json:"is_active"`
	RoundRobinOrder int          `gorm:"not null;default:0" json:"round_robin_order"`
	TodayCount      int64        `gorm:"not null;default:0" json:"today_count"`
	TotalCount      int64        `gorm:"not null;default:0" json:"total_count"`
	LastAssignedAt  *time.Time   `json:"last_assigned_at,omitempty"`
	CreatedAt       time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (SalesEmployee) TableName() string { return "sales_employees" }

// CounterReset marks a local day whose daily counters were already zeroed.
type CounterReset struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	ResetDate string       `gorm:"type:text;not null;uniqueIndex" json:"reset_date"`
	Employees int64        `gorm:"not null;default:0" json:"employees"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (CounterReset) TableName() string { return "allocation_counter_resets" }
