package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// CustomerGroup is the closed set of customer segments used by allocation rules.
type CustomerGroup string

const (
	CustomerGroupRetail     CustomerGroup = "retail"
	CustomerGroupWholesale  CustomerGroup = "wholesale"
	CustomerGroupEnterprise CustomerGroup = "enterprise"
	CustomerGroupAgency     CustomerGroup = "agency"
	CustomerGroupGovernment CustomerGroup = "government"
)

var customerGroups = map[CustomerGroup]struct{}{
	CustomerGroupRetail:     {},
	CustomerGroupWholesale:  {},
	CustomerGroupEnterprise: {},
	CustomerGroupAgency:     {},
	CustomerGroupGovernment: {},
}

// ParseCustomerGroup normalises raw. Empty input yields nil (no group).
func ParseCustomerGroup(raw string) (*CustomerGroup, error) {
	value := CustomerGroup(strings.ToLower(strings.TrimSpace(raw)))
	if value == "" {
		return nil, nil
	}
	if _, ok := customerGroups[value]; !ok {
		return nil, ErrInvalidCustomerGroup
	}
	return &value, nil
}

type AssignmentMethod string

const (
	AssignmentMethodManual       AssignmentMethod = "manual"
	AssignmentMethodRoundRobin   AssignmentMethod = "round_robin"
	AssignmentMethodProductBased AssignmentMethod = "product_based"
)

type Status string

const (
	StatusNew       Status = "new"
	StatusContacted Status = "contacted"
	StatusQualified Status = "qualified"
	StatusConverted Status = "converted"
	StatusLost      Status = "lost"
)

// Lead is a prospective customer. A nil AssignedSalesID means the lead is in
// the allocation engine's unassigned pool.
type Lead struct {
	ID                       snowflake.ID      `gorm:"primaryKey" json:"id"`
	Name                     string            `gorm:"type:text;not null" json:"name"`
	Phone                    string            `gorm:"type:text" json:"phone,omitempty"`
	Email                    string            `gorm:"type:text" json:"email,omitempty"`
	Source                   string            `gorm:"type:text" json:"source,omitempty"`
	Status                   Status            `gorm:"type:text;not null;default:'new'" json:"status"`
	CustomerGroup            *CustomerGroup    `gorm:"type:text" json:"customer_group,omitempty"`
	InterestedProductGroupID *snowflake.ID     `json:"interested_product_group_id,omitempty"`
	AssignedSalesID          *snowflake.ID     `gorm:"index" json:"assigned_sales_id,omitempty"`
	AssignmentMethod         *AssignmentMethod `gorm:"type:text" json:"assignment_method,omitempty"`
	AssignedAt               *time.Time        `json:"assigned_at,omitempty"`
	Metadata                 datatypes.JSONMap `gorm:"type:json" json:"metadata,omitempty"`
	CreatedAt                time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP;index" json:"created_at"`
	UpdatedAt                time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Lead) TableName() string { return "leads" }

func (l Lead) IsAssigned() bool {
	return l.AssignedSalesID != nil && *l.AssignedSalesID != 0
}
