package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	allocationdomain "github.com/smallbiznis/salesdesk/internal/allocation/domain"
	leaddomain "github.com/smallbiznis/salesdesk/internal/lead/domain"
	obstracing "github.com/smallbiznis/salesdesk/internal/observability/tracing"
)

type createLeadRequest struct {
	Name                     string         `json:"name"`
	Phone                    string         `json:"phone"`
	Email                    string         `json:"email"`
	Source                   string         `json:"source"`
	CustomerGroup            string         `json:"customer_group"`
	InterestedProductGroupID string         `json:"interested_product_group_id"`
	Metadata                 map[string]any `json:"metadata"`
}

type assignLeadRequest struct {
	SalesEmployeeID string `json:"sales_employee_id"`
	Note            string `json:"note"`
}

// CreateLead stores the lead and reports the assignment outcome next to it.
// Assignment failures never fail the request.
func (s *Server) CreateLead(c *gin.Context) {
	var req createLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.allocationSvc.Intake(c.Request.Context(), leaddomain.CreateLeadRequest{
		Name:                     strings.TrimSpace(req.Name),
		Phone:                    strings.TrimSpace(req.Phone),
		Email:                    strings.TrimSpace(req.Email),
		Source:                   strings.TrimSpace(req.Source),
		CustomerGroup:            strings.TrimSpace(req.CustomerGroup),
		InterestedProductGroupID: strings.TrimSpace(req.InterestedProductGroupID),
		Metadata:                 req.Metadata,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if resp.Assignment != nil {
		annotateAssignment(c, *resp.Assignment)
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) ListLeads(c *gin.Context) {
	var query struct {
		PageToken       string `form:"page_token"`
		PageSize        int    `form:"page_size"`
		Status          string `form:"status"`
		AssignedSalesID string `form:"assigned_sales_id"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	unassigned, ok := bindBoolQuery(c, "unassigned")
	if !ok {
		return
	}

	resp, err := s.leadSvc.List(c.Request.Context(), leaddomain.ListLeadRequest{
		PageToken:       strings.TrimSpace(query.PageToken),
		PageSize:        query.PageSize,
		Status:          strings.TrimSpace(query.Status),
		AssignedSalesID: strings.TrimSpace(query.AssignedSalesID),
		Unassigned:      unassigned != nil && *unassigned,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetLeadByID(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.leadSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// AssignLead is the operator override: it assigns or reassigns the lead to the given employee.
func (s *Server) AssignLead(c *gin.Context) {
	var req assignLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.allocationSvc.AssignManual(c.Request.Context(), allocationdomain.ManualAssignRequest{
		LeadID:          strings.TrimSpace(c.Param("id")),
		SalesEmployeeID: strings.TrimSpace(req.SalesEmployeeID),
		Note:            strings.TrimSpace(req.Note),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	annotateAssignment(c, resp)

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) AutoAssignLead(c *gin.Context) {
	leadID, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil || leadID == 0 {
		AbortWithError(c, allocationdomain.ErrInvalidLeadID)
		return
	}

	resp, err := s.allocationSvc.Assign(c.Request.Context(), allocationdomain.AssignRequest{
		LeadID:  leadID,
		Trigger: allocationdomain.TriggerSingle,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	annotateAssignment(c, resp)

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListLeadAssignments(c *gin.Context) {
	resp, err := s.allocationSvc.History(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func annotateAssignment(c *gin.Context, result allocationdomain.Result) {
	obstracing.AnnotateAssignment(c.Request.Context(),
		result.LeadID.String(),
		result.SalesEmployeeID.String(),
		string(result.Method),
		string(result.Outcome),
	)
}

func isLeadValidationError(err error) bool {
	return isAnyOf(err,
		leaddomain.ErrInvalidName,
		leaddomain.ErrInvalidEmail,
		leaddomain.ErrInvalidContact,
		leaddomain.ErrInvalidCustomerGroup,
		leaddomain.ErrInvalidStatus,
		leaddomain.ErrInvalidProductGroupID,
		leaddomain.ErrInvalidSalesEmployeeID,
		leaddomain.ErrInvalidID,
	)
}
