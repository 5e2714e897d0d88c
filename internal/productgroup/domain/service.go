package domain

import (
	"context"
	"errors"

	"github.com/smallbiznis/salesdesk/pkg/db/pagination"
)

type CreateProductGroupRequest struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type ListProductGroupRequest struct {
	PageToken string
	PageSize  int
}

type ListProductGroupResponse struct {
	pagination.PageInfo
	ProductGroups []ProductGroup `json:"product_groups"`
}

type Service interface {
	Create(context.Context, CreateProductGroupRequest) (ProductGroup, error)
	List(context.Context, ListProductGroupRequest) (ListProductGroupResponse, error)
	GetByID(context.Context, string) (ProductGroup, error)
	Delete(context.Context, string) error
}

var (
	ErrInvalidName   = errors.New("invalid_name")
	ErrInvalidCode   = errors.New("invalid_code")
	ErrInvalidID     = errors.New("invalid_id")
	ErrDuplicateCode = errors.New("duplicate_code")
	ErrNotFound      = errors.New("not_found")
)
