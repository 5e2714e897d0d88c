package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	salesemployeedomain "github.com/smallbiznis/salesdesk/internal/salesemployee/domain"
	specializationdomain "github.com/smallbiznis/salesdesk/internal/specialization/domain"
)

type createSalesEmployeeRequest struct {
	Code            string `json:"code"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	IsActive        *bool  `json:"is_active"`
	RoundRobinOrder *int   `json:"round_robin_order"`
}

type updateSalesEmployeeRequest struct {
	Name            *string `json:"name"`
	Email           *string `json:"email"`
	IsActive        *bool   `json:"is_active"`
	RoundRobinOrder *int    `json:"round_robin_order"`
}

type createSpecializationRequest struct {
	ProductGroupID string `json:"product_group_id"`
	IsPrimary      bool   `json:"is_primary"`
}

func (s *Server) CreateSalesEmployee(c *gin.Context) {
	var req createSalesEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.salesEmployeeSvc.Create(c.Request.Context(), salesemployeedomain.CreateSalesEmployeeRequest{
		Code:            strings.TrimSpace(req.Code),
		Name:            strings.TrimSpace(req.Name),
		Email:           strings.TrimSpace(req.Email),
		IsActive:        req.IsActive,
		RoundRobinOrder: req.RoundRobinOrder,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListSalesEmployees(c *gin.Context) {
	var query listQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	active, ok := bindBoolQuery(c, "is_active")
	if !ok {
		return
	}

	resp, err := s.salesEmployeeSvc.List(c.Request.Context(), salesemployeedomain.ListSalesEmployeeRequest{
		PageToken: strings.TrimSpace(query.PageToken),
		PageSize:  query.PageSize,
		IsActive:  active,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetSalesEmployeeByID(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.salesEmployeeSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateSalesEmployee(c *gin.Context) {
	var req updateSalesEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.salesEmployeeSvc.Update(c.Request.Context(), id, salesemployeedomain.UpdateSalesEmployeeRequest{
		Name:            req.Name,
		Email:           req.Email,
		IsActive:        req.IsActive,
		RoundRobinOrder: req.RoundRobinOrder,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListSpecializations(c *gin.Context) {
	employeeID := strings.TrimSpace(c.Param("id"))
	resp, err := s.specializationSvc.ListByEmployee(c.Request.Context(), employeeID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreateSpecialization(c *gin.Context) {
	var req createSpecializationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	employeeID := strings.TrimSpace(c.Param("id"))
	resp, err := s.specializationSvc.Create(c.Request.Context(), employeeID, specializationdomain.CreateSpecializationRequest{
		ProductGroupID: strings.TrimSpace(req.ProductGroupID),
		IsPrimary:      req.IsPrimary,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteSpecialization(c *gin.Context) {
	employeeID := strings.TrimSpace(c.Param("id"))
	productGroupID := strings.TrimSpace(c.Param("productGroupId"))
	if err := s.specializationSvc.Delete(c.Request.Context(), employeeID, productGroupID); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func isSalesEmployeeValidationError(err error) bool {
	return isAnyOf(err,
		salesemployeedomain.ErrInvalidName,
		salesemployeedomain.ErrInvalidCode,
		salesemployeedomain.ErrInvalidEmail,
		salesemployeedomain.ErrInvalidRoundRobinOrder,
		salesemployeedomain.ErrInvalidDay,
		salesemployeedomain.ErrInvalidID,
	)
}

func isSpecializationValidationError(err error) bool {
	return isAnyOf(err,
		specializationdomain.ErrInvalidEmployeeID,
		specializationdomain.ErrInvalidProductGroupID,
	)
}
