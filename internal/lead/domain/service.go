package domain

import (
	"context"
	"errors"

	"github.com/smallbiznis/salesdesk/pkg/db/pagination"
)

type CreateLeadRequest struct {
	Name                     string         `json:"name"`
	Phone                    string         `json:"phone"`
	Email                    string         `json:"email"`
	Source                   string         `json:"source"`
	CustomerGroup            string         `json:"customer_group"`
	InterestedProductGroupID string         `json:"interested_product_group_id"`
	Metadata                 map[string]any `json:"metadata"`
}

type ListLeadRequest struct {
	PageToken       string
	PageSize        int
	Status          string
	AssignedSalesID string
	Unassigned      bool
}

type ListLeadResponse struct {
	pagination.PageInfo
	Leads []Lead `json:"leads"`
}

type Service interface {
	// Create stores the lead and returns it without attempting assignment.
	Create(context.Context, CreateLeadRequest) (Lead, error)
	List(context.Context, ListLeadRequest) (ListLeadResponse, error)
	GetByID(context.Context, string) (Lead, error)
}

var (
	ErrInvalidName            = errors.New("invalid_name")
	ErrInvalidEmail           = errors.New("invalid_email")
	ErrInvalidContact         = errors.New("invalid_contact")
	ErrInvalidCustomerGroup   = errors.New("invalid_customer_group")
	ErrInvalidStatus          = errors.New("invalid_status")
	ErrInvalidProductGroupID  = errors.New("invalid_product_group_id")
	ErrInvalidSalesEmployeeID = errors.New("invalid_sales_employee_id")
	ErrInvalidID              = errors.New("invalid_id")
	ErrNotFound               = errors.New("not_found")
)

// ParseStatus validates a status filter value.
func ParseStatus(raw string) (Status, error) {
	switch Status(raw) {
	case StatusNew, StatusContacted, StatusQualified, StatusConverted, StatusLost:
		return Status(raw), nil
	default:
		return "", ErrInvalidStatus
	}
}
