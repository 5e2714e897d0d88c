package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	leaddomain "github.com/smallbiznis/salesdesk/internal/lead/domain"
)

type AssignRequest struct {
	LeadID  snowflake.ID
	Trigger Trigger
	// RunID correlates assignments written by one bulk run.
	RunID string
}

type ManualAssignRequest struct {
	LeadID          string `json:"-"`
	SalesEmployeeID string `json:"sales_employee_id"`
	Note            string `json:"note"`
}

// IntakeResult is the lead-creation response. Assignment is best-effort, so
// AssignmentError carries a reason code instead of failing the request.
type IntakeResult struct {
	Lead            leaddomain.Lead `json:"data"`
	Assignment      *Result         `json:"assignment"`
	AssignmentError *string         `json:"assignment_error"`
}

// Assigner runs the allocation engine for a single lead.
type Assigner interface {
	Assign(context.Context, AssignRequest) (Result, error)
}

type Service interface {
	Assigner
	// Intake creates a lead and, when enabled, assigns it immediately.
	Intake(context.Context, leaddomain.CreateLeadRequest) (IntakeResult, error)
	AssignManual(context.Context, ManualAssignRequest) (Result, error)
	DistributeAll(context.Context) (Summary, error)
	History(ctx context.Context, leadID string) ([]AssignmentEvent, error)
}

var (
	ErrNoEligibleAssignee = errors.New("no_eligible_assignee")
	ErrTransientStorage   = errors.New("transient_storage_error")
	ErrBulkRunInProgress  = errors.New("bulk_run_in_progress")
	ErrLeadNotFound       = errors.New("lead_not_found")
	ErrInvalidLeadID      = errors.New("invalid_lead_id")
	ErrEmployeeNotFound   = errors.New("sales_employee_not_found")
	ErrEmployeeInactive   = errors.New("sales_employee_inactive")
	ErrInvalidEmployeeID  = errors.New("invalid_sales_employee_id")
)

// ReasonCode maps an assignment error to the code reported on lead creation.
func ReasonCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoEligibleAssignee):
		return ErrNoEligibleAssignee.Error()
	case errors.Is(err, ErrTransientStorage):
		return ErrTransientStorage.Error()
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "timeout"
	default:
		return "assignment_failed"
	}
}
