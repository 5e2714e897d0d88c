package domain

import (
	"context"
	"errors"

	"github.com/smallbiznis/salesdesk/pkg/db/pagination"
)

type UpsertAllocationRuleRequest struct {
	Code             string   `json:"code"`
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	CustomerGroup    string   `json:"customer_group"`
	ProductGroupIDs  []string `json:"product_group_ids"`
	SalesEmployeeIDs []string `json:"sales_employee_ids"`
	IsActive         *bool    `json:"is_active"`
}

type ListAllocationRuleRequest struct {
	PageToken string
	PageSize  int
	IsActive  *bool
}

type ListAllocationRuleResponse struct {
	pagination.PageInfo
	Rules []AllocationRule `json:"rules"`
}

type Service interface {
	Create(context.Context, UpsertAllocationRuleRequest) (AllocationRule, error)
	List(context.Context, ListAllocationRuleRequest) (ListAllocationRuleResponse, error)
	GetByID(context.Context, string) (AllocationRule, error)
	// Update replaces every editable field of the rule.
	Update(context.Context, string, UpsertAllocationRuleRequest) (AllocationRule, error)
	Delete(context.Context, string) error
	// AutoFill replaces the rule's employees with the active employees that
	// specialise in its product groups. Rules without product groups are returned unchanged.
	AutoFill(context.Context, string) (AllocationRule, error)
}

var (
	ErrInvalidName           = errors.New("invalid_name")
	ErrInvalidCode           = errors.New("invalid_code")
	ErrInvalidID             = errors.New("invalid_id")
	ErrInvalidProductGroupID = errors.New("invalid_product_group_id")
	ErrInvalidSalesEmployee  = errors.New("invalid_sales_employee_id")
	ErrUnknownProductGroup   = errors.New("unknown_product_group")
	ErrUnknownSalesEmployee  = errors.New("unknown_sales_employee")
	ErrDuplicateCode         = errors.New("duplicate_code")
	ErrNotFound              = errors.New("not_found")
)
