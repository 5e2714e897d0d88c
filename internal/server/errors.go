package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	allocationdomain "github.com/smallbiznis/salesdesk/internal/allocation/domain"
	allocationruledomain "github.com/smallbiznis/salesdesk/internal/allocationrule/domain"
	leaddomain "github.com/smallbiznis/salesdesk/internal/lead/domain"
	productgroupdomain "github.com/smallbiznis/salesdesk/internal/productgroup/domain"
	salesemployeedomain "github.com/smallbiznis/salesdesk/internal/salesemployee/domain"
	specializationdomain "github.com/smallbiznis/salesdesk/internal/specialization/domain"
	"github.com/smallbiznis/salesdesk/pkg/db/pagination"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrConflict           = errors.New("conflict")
	ErrInternal           = errors.New("internal_error")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrServiceUnavailable = errors.New("service_unavailable")
	ErrRateLimited        = errors.New("rate_limited")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	switch {
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: conflictMessage(err),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, allocationdomain.ErrNoEligibleAssignee):
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    allocationdomain.ErrNoEligibleAssignee.Error(),
			Message: "no active sales employee is eligible for this lead",
		}
	case errors.Is(err, allocationdomain.ErrEmployeeInactive):
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    allocationdomain.ErrEmployeeInactive.Error(),
			Message: "sales employee is inactive",
		}
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}
	case errors.Is(err, ErrServiceUnavailable),
		errors.Is(err, allocationdomain.ErrTransientStorage):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// classifyErrorForLog reports the response type and the most specific code for request logs.
func classifyErrorForLog(err error) (string, string) {
	_, payload := mapError(err)
	if len(payload.Errors) > 0 {
		return payload.Type, payload.Errors[0].Code
	}
	return payload.Type, payload.Type
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isAnyOf(err error, targets ...error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, pagination.ErrInvalidPageToken):
		return true
	case isProductGroupValidationError(err),
		isSalesEmployeeValidationError(err),
		isSpecializationValidationError(err),
		isLeadValidationError(err),
		isAllocationRuleValidationError(err),
		isAllocationValidationError(err):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	return isAnyOf(err,
		ErrConflict,
		productgroupdomain.ErrDuplicateCode,
		salesemployeedomain.ErrDuplicateCode,
		allocationruledomain.ErrDuplicateCode,
		specializationdomain.ErrAlreadyExists,
		allocationdomain.ErrBulkRunInProgress,
	)
}

func conflictMessage(err error) string {
	if errors.Is(err, allocationdomain.ErrBulkRunInProgress) {
		return "a distribution run is already in progress"
	}
	return "conflict"
}

func isNotFoundError(err error) bool {
	return isAnyOf(err,
		ErrNotFound,
		productgroupdomain.ErrNotFound,
		salesemployeedomain.ErrNotFound,
		specializationdomain.ErrNotFound,
		specializationdomain.ErrEmployeeNotFound,
		specializationdomain.ErrProductGroupNotFound,
		leaddomain.ErrNotFound,
		allocationruledomain.ErrNotFound,
		allocationdomain.ErrLeadNotFound,
		allocationdomain.ErrEmployeeNotFound,
		gorm.ErrRecordNotFound,
	)
}

func validationErrorCode(err error) string {
	for _, target := range []error{
		ErrInvalidRequest,
		pagination.ErrInvalidPageToken,
	} {
		if errors.Is(err, target) {
			return target.Error()
		}
	}
	// Domain sentinels carry their code as the message; unwrap to drop prefixes.
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}

func validationErrorField(code string) string {
	switch code {
	case "invalid_request":
		return "request"
	case allocationruledomain.ErrUnknownProductGroup.Error():
		return "product_group_ids"
	case allocationruledomain.ErrUnknownSalesEmployee.Error():
		return "sales_employee_ids"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	case "invalid_contact":
		return "phone or email is required"
	case "invalid_page_token":
		return "invalid page token"
	case allocationruledomain.ErrUnknownProductGroup.Error():
		return "unknown product group"
	case allocationruledomain.ErrUnknownSalesEmployee.Error():
		return "unknown sales employee"
	default:
		return "invalid value"
	}
}
