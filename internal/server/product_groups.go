package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	productgroupdomain "github.com/smallbiznis/salesdesk/internal/productgroup/domain"
)

type createProductGroupRequest struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *Server) CreateProductGroup(c *gin.Context) {
	var req createProductGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.productGroupSvc.Create(c.Request.Context(), productgroupdomain.CreateProductGroupRequest{
		Code:        strings.TrimSpace(req.Code),
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListProductGroups(c *gin.Context) {
	var query listQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.productGroupSvc.List(c.Request.Context(), productgroupdomain.ListProductGroupRequest{
		PageToken: strings.TrimSpace(query.PageToken),
		PageSize:  query.PageSize,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetProductGroupByID(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.productGroupSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteProductGroup(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if err := s.productGroupSvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func isProductGroupValidationError(err error) bool {
	return isAnyOf(err,
		productgroupdomain.ErrInvalidName,
		productgroupdomain.ErrInvalidCode,
		productgroupdomain.ErrInvalidID,
	)
}
