package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// ProductGroup is a catalogue bucket that leads express interest in and
// sales employees specialise in.
type ProductGroup struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	Code        string       `gorm:"type:text;not null;uniqueIndex" json:"code"`
	Name        string       `gorm:"type:text;not null" json:"name"`
	Description string       `gorm:"type:text" json:"description,omitempty"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (ProductGroup) TableName() string { return "product_groups" }
