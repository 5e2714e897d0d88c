package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	allocationruledomain "github.com/smallbiznis/salesdesk/internal/allocationrule/domain"
)

type upsertAllocationRuleRequest struct {
	Code             string   `json:"code"`
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	CustomerGroup    string   `json:"customer_group"`
	ProductGroupIDs  []string `json:"product_group_ids"`
	SalesEmployeeIDs []string `json:"sales_employee_ids"`
	IsActive         *bool    `json:"is_active"`
}

func (r upsertAllocationRuleRequest) toDomain() allocationruledomain.UpsertAllocationRuleRequest {
	return allocationruledomain.UpsertAllocationRuleRequest{
		Code:             strings.TrimSpace(r.Code),
		Name:             strings.TrimSpace(r.Name),
		Description:      strings.TrimSpace(r.Description),
		CustomerGroup:    strings.TrimSpace(r.CustomerGroup),
		ProductGroupIDs:  r.ProductGroupIDs,
		SalesEmployeeIDs: r.SalesEmployeeIDs,
		IsActive:         r.IsActive,
	}
}

func (s *Server) CreateAllocationRule(c *gin.Context) {
	var req upsertAllocationRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.allocationRuleSvc.Create(c.Request.Context(), req.toDomain())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListAllocationRules(c *gin.Context) {
	var query listQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	active, ok := bindBoolQuery(c, "is_active")
	if !ok {
		return
	}

	resp, err := s.allocationRuleSvc.List(c.Request.Context(), allocationruledomain.ListAllocationRuleRequest{
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

func (s *Server) GetAllocationRuleByID(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.allocationRuleSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateAllocationRule(c *gin.Context) {
	var req upsertAllocationRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.allocationRuleSvc.Update(c.Request.Context(), id, req.toDomain())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteAllocationRule(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if err := s.allocationRuleSvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) AutoFillAllocationRule(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.allocationRuleSvc.AutoFill(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func isAllocationRuleValidationError(err error) bool {
	return isAnyOf(err,
		allocationruledomain.ErrInvalidName,
		allocationruledomain.ErrInvalidCode,
		allocationruledomain.ErrInvalidID,
		allocationruledomain.ErrInvalidProductGroupID,
		allocationruledomain.ErrInvalidSalesEmployee,
		allocationruledomain.ErrUnknownProductGroup,
		allocationruledomain.ErrUnknownSalesEmployee,
	)
}
