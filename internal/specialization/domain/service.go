package domain

import (
	"context"
	"errors"
)

type CreateSpecializationRequest struct {
	ProductGroupID string `json:"product_group_id"`
	IsPrimary      bool   `json:"is_primary"`
}

type Service interface {
	Create(ctx context.Context, employeeID string, req CreateSpecializationRequest) (Specialization, error)
	ListByEmployee(ctx context.Context, employeeID string) ([]Specialization, error)
	Delete(ctx context.Context, employeeID, productGroupID string) error
}

var (
	ErrInvalidEmployeeID     = errors.New("invalid_sales_employee_id")
	ErrInvalidProductGroupID = errors.New("invalid_product_group_id")
	ErrEmployeeNotFound      = errors.New("sales_employee_not_found")
	ErrProductGroupNotFound  = errors.New("product_group_not_found")
	ErrAlreadyExists         = errors.New("specialization_exists")
	ErrNotFound              = errors.New("not_found")
)
