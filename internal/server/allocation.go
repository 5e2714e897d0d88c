package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	allocationdomain "github.com/smallbiznis/salesdesk/internal/allocation/domain"
)

// AutoDistribute runs one bulk pass over every unassigned lead. A run cut short
// by its deadline still answers 200 with partial set.
func (s *Server) AutoDistribute(c *gin.Context) {
	resp, err := s.allocationSvc.DistributeAll(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ResetDailyCounts(c *gin.Context) {
	resp, err := s.salesEmployeeSvc.ResetDailyCounts(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) Workload(c *gin.Context) {
	resp, err := s.salesEmployeeSvc.Workload(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func isAllocationValidationError(err error) bool {
	return isAnyOf(err,
		allocationdomain.ErrInvalidLeadID,
		allocationdomain.ErrInvalidEmployeeID,
	)
}
