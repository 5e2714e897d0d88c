package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	leaddomain "github.com/smallbiznis/salesdesk/internal/lead/domain"
	"gorm.io/datatypes"
)

// Trigger names the entry point that asked for an assignment.
type Trigger string

const (
	TriggerLeadCreated Trigger = "lead_created"
	TriggerBulk        Trigger = "bulk"
	TriggerManual      Trigger = "manual"
	TriggerSingle      Trigger = "single"
)

type Outcome string

const (
	OutcomeAssigned        Outcome = "assigned"
	OutcomeAlreadyAssigned Outcome = "already_assigned"
)

// Result describes what an assignment attempt did to the lead.
type Result struct {
	LeadID          snowflake.ID                `json:"lead_id"`
	SalesEmployeeID snowflake.ID                `json:"sales_employee_id"`
	Method          leaddomain.AssignmentMethod `json:"method"`
	Outcome         Outcome                     `json:"outcome"`
	RuleID          *snowflake.ID               `json:"rule_id,omitempty"`
	AssignedAt      *time.Time                  `json:"assigned_at,omitempty"`
}

// Summary aggregates one bulk distribution run. Field names are camelCase to
// match the published bulk report, unlike the rest of the API.
type Summary struct {
	RunID                string    `json:"runId"`
	TotalLeads           int       `json:"totalLeads"`
	AssignedCount        int       `json:"assignedCount"`
	AssignedByRule       int       `json:"assignedByRule"`
	AssignedByRoundRobin int       `json:"assignedByRoundRobin"`
	NoEligible           int       `json:"noEligible"`
	Skipped              int       `json:"skipped"`
	AlreadyAssigned      int       `json:"alreadyAssigned"`
	Partial              bool      `json:"partial"`
	StartedAt            time.Time `json:"startedAt"`
	FinishedAt           time.Time `json:"finishedAt"`
}

// Counters is the load state of one sales employee.
type Counters struct {
	TodayCount     int64      `json:"today_count"`
	TotalCount     int64      `json:"total_count"`
	LastAssignedAt *time.Time `json:"last_assigned_at,omitempty"`
}

// AssignmentEvent is the append-only history of assignment writes.
type AssignmentEvent struct {
	ID              snowflake.ID                `gorm:"primaryKey" json:"id"`
	LeadID          snowflake.ID                `gorm:"not null;index" json:"lead_id"`
	SalesEmployeeID snowflake.ID                `gorm:"not null;index" json:"sales_employee_id"`
	Method          leaddomain.AssignmentMethod `gorm:"type:text;not null" json:"method"`
	RuleID          *snowflake.ID               `json:"rule_id,omitempty"`
	Trigger         Trigger                     `gorm:"column:triggered_by;type:text;not null" json:"trigger"`
	RunID           string                      `gorm:"type:text" json:"run_id,omitempty"`
	Metadata        datatypes.JSONMap           `gorm:"type:json" json:"metadata,omitempty"`
	CreatedAt       time.Time                   `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (AssignmentEvent) TableName() string { return "lead_assignment_events" }
