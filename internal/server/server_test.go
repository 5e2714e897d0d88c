package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
	allocationdomain "github.com/smallbiznis/salesdesk/internal/allocation/domain"
	allocationruledomain "github.com/smallbiznis/salesdesk/internal/allocationrule/domain"
	leaddomain "github.com/smallbiznis/salesdesk/internal/lead/domain"
	"github.com/smallbiznis/salesdesk/internal/observability"
	productgroupdomain "github.com/smallbiznis/salesdesk/internal/productgroup/domain"
	"github.com/smallbiznis/salesdesk/internal/ratelimit"
	salesemployeedomain "github.com/smallbiznis/salesdesk/internal/salesemployee/domain"
	specializationdomain "github.com/smallbiznis/salesdesk/internal/specialization/domain"
	"github.com/smallbiznis/salesdesk/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeAllocationService struct {
	allocationdomain.Service

	intake      func(leaddomain.CreateLeadRequest) (allocationdomain.IntakeResult, error)
	assign      func(allocationdomain.AssignRequest) (allocationdomain.Result, error)
	distribute  func() (allocationdomain.Summary, error)
	lastRequest allocationdomain.AssignRequest
}

func (f *fakeAllocationService) Intake(_ context.Context, req leaddomain.CreateLeadRequest) (allocationdomain.IntakeResult, error) {
	return f.intake(req)
}

func (f *fakeAllocationService) Assign(_ context.Context, req allocationdomain.AssignRequest) (allocationdomain.Result, error) {
	f.lastRequest = req
	return f.assign(req)
}

func (f *fakeAllocationService) DistributeAll(context.Context) (allocationdomain.Summary, error) {
	return f.distribute()
}

type fakeLeadService struct {
	leaddomain.Service
	err error
}

func (f *fakeLeadService) GetByID(context.Context, string) (leaddomain.Lead, error) {
	return leaddomain.Lead{}, f.err
}

type fakeProductGroupService struct {
	productgroupdomain.Service
	createErr error
	deleted   string
}

func (f *fakeProductGroupService) Create(_ context.Context, req productgroupdomain.CreateProductGroupRequest) (productgroupdomain.ProductGroup, error) {
	if f.createErr != nil {
		return productgroupdomain.ProductGroup{}, f.createErr
	}
	return productgroupdomain.ProductGroup{ID: snowflake.ID(10), Code: req.Code, Name: req.Name}, nil
}

func (f *fakeProductGroupService) Delete(_ context.Context, id string) error {
	f.deleted = id
	return nil
}

type fakeSalesEmployeeService struct {
	salesemployeedomain.Service
	listed *salesemployeedomain.ListSalesEmployeeRequest
}

func (f *fakeSalesEmployeeService) List(_ context.Context, req salesemployeedomain.ListSalesEmployeeRequest) (salesemployeedomain.ListSalesEmployeeResponse, error) {
	f.listed = &req
	return salesemployeedomain.ListSalesEmployeeResponse{}, nil
}

type testServer struct {
	engine         *gin.Engine
	allocation     *fakeAllocationService
	leads          *fakeLeadService
	productGroups  *fakeProductGroupService
	salesEmployees *fakeSalesEmployeeService
}

func newTestServer(t *testing.T, opts ...func(*ServerParams)) *testServer {
	t.Helper()

	ts := &testServer{
		engine:         NewEngine(observability.Config{Environment: "test"}, nil),
		allocation:     &fakeAllocationService{},
		leads:          &fakeLeadService{},
		productGroups:  &fakeProductGroupService{},
		salesEmployees: &fakeSalesEmployeeService{},
	}
	params := ServerParams{
		Gin:               ts.engine,
		ProductGroupSvc:   ts.productGroups,
		SalesEmployeeSvc:  ts.salesEmployees,
		SpecializationSvc: struct{ specializationdomain.Service }{},
		LeadSvc:           ts.leads,
		AllocationRuleSvc: struct{ allocationruledomain.Service }{},
		AllocationSvc:     ts.allocation,
	}
	for _, opt := range opts {
		opt(&params)
	}
	NewServer(params)
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.engine.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorPayload {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error
}

func TestCreateLeadKeepsLeadWhenAssignmentFails(t *testing.T) {
	ts := newTestServer(t)
	code := allocationdomain.ErrNoEligibleAssignee.Error()
	ts.allocation.intake = func(req leaddomain.CreateLeadRequest) (allocationdomain.IntakeResult, error) {
		assert.Equal(t, "Budi", req.Name)
		return allocationdomain.IntakeResult{
			Lead:            leaddomain.Lead{ID: snowflake.ID(42), Name: req.Name},
			AssignmentError: &code,
		}, nil
	}

	rec := ts.do(t, http.MethodPost, "/leads", gin.H{"name": "  Budi ", "phone": "0812"})
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body, "data")
	assert.JSONEq(t, `null`, string(body["assignment"]))
	assert.JSONEq(t, `"no_eligible_assignee"`, string(body["assignment_error"]))
}

func TestCreateLeadRateLimited(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ts := newTestServer(t, func(p *ServerParams) {
		p.IntakeLimiter = ratelimit.NewIntakeLimiterWithClient(client, 0.01, 1)
	})
	calls := 0
	ts.allocation.intake = func(req leaddomain.CreateLeadRequest) (allocationdomain.IntakeResult, error) {
		calls++
		return allocationdomain.IntakeResult{Lead: leaddomain.Lead{Name: req.Name}}, nil
	}

	rec := ts.do(t, http.MethodPost, "/leads", gin.H{"name": "Budi", "phone": "0812"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodPost, "/leads", gin.H{"name": "Budi", "phone": "0812"})
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "rate_limited", decodeError(t, rec).Type)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, 1, calls)
}

func TestCreateLeadValidationError(t *testing.T) {
	ts := newTestServer(t)
	ts.allocation.intake = func(leaddomain.CreateLeadRequest) (allocationdomain.IntakeResult, error) {
		return allocationdomain.IntakeResult{}, leaddomain.ErrInvalidContact
	}

	rec := ts.do(t, http.MethodPost, "/leads", gin.H{"name": "Budi"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	payload := decodeError(t, rec)
	assert.Equal(t, "validation_error", payload.Type)
	require.Len(t, payload.Errors, 1)
	assert.Equal(t, "invalid_contact", payload.Errors[0].Code)
	assert.Equal(t, "contact", payload.Errors[0].Field)
}

func TestAutoAssignLead(t *testing.T) {
	ts := newTestServer(t)
	ruleID := snowflake.ID(7)
	ts.allocation.assign = func(req allocationdomain.AssignRequest) (allocationdomain.Result, error) {
		return allocationdomain.Result{
			LeadID:          req.LeadID,
			SalesEmployeeID: snowflake.ID(3),
			Method:          leaddomain.AssignmentMethodProductBased,
			Outcome:         allocationdomain.OutcomeAssigned,
			RuleID:          &ruleID,
		}, nil
	}

	rec := ts.do(t, http.MethodPost, "/leads/42/auto-assign", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, snowflake.ID(42), ts.allocation.lastRequest.LeadID)
	assert.Equal(t, allocationdomain.TriggerSingle, ts.allocation.lastRequest.Trigger)
	assert.Contains(t, rec.Body.String(), `"method":"product_based"`)
}

func TestAutoAssignLeadErrors(t *testing.T) {
	cases := []struct {
		name     string
		path     string
		err      error
		status   int
		wantType string
	}{
		{name: "malformed id", path: "/leads/abc/auto-assign", status: http.StatusBadRequest, wantType: "validation_error"},
		{name: "no eligible assignee", path: "/leads/1/auto-assign", err: allocationdomain.ErrNoEligibleAssignee, status: http.StatusUnprocessableEntity, wantType: "no_eligible_assignee"},
		{name: "unknown lead", path: "/leads/1/auto-assign", err: allocationdomain.ErrLeadNotFound, status: http.StatusNotFound, wantType: "not_found"},
		{name: "transient storage", path: "/leads/1/auto-assign", err: fmt.Errorf("claim lead: %w: %w", allocationdomain.ErrTransientStorage, context.DeadlineExceeded), status: http.StatusServiceUnavailable, wantType: "service_unavailable"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ts := newTestServer(t)
			ts.allocation.assign = func(allocationdomain.AssignRequest) (allocationdomain.Result, error) {
				return allocationdomain.Result{}, tc.err
			}

			rec := ts.do(t, http.MethodPost, tc.path, nil)
			require.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.wantType, decodeError(t, rec).Type)
		})
	}
}

func TestAutoDistribute(t *testing.T) {
	t.Run("returns summary", func(t *testing.T) {
		ts := newTestServer(t)
		ts.allocation.distribute = func() (allocationdomain.Summary, error) {
			return allocationdomain.Summary{RunID: "run-1", TotalLeads: 10, AssignedCount: 10, AssignedByRule: 3, AssignedByRoundRobin: 7}, nil
		}

		rec := ts.do(t, http.MethodPost, "/allocation/auto-distribute", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Data allocationdomain.Summary `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, 10, body.Data.TotalLeads)
		assert.Equal(t, 3, body.Data.AssignedByRule)
		assert.Equal(t, 7, body.Data.AssignedByRoundRobin)

		var raw map[string]map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
		for _, key := range []string{"totalLeads", "assignedCount", "assignedByRule", "assignedByRoundRobin"} {
			assert.Contains(t, raw["data"], key)
		}
	})

	t.Run("conflict while another run holds the lock", func(t *testing.T) {
		ts := newTestServer(t)
		ts.allocation.distribute = func() (allocationdomain.Summary, error) {
			return allocationdomain.Summary{}, allocationdomain.ErrBulkRunInProgress
		}

		rec := ts.do(t, http.MethodPost, "/allocation/auto-distribute", nil)
		require.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "conflict", decodeError(t, rec).Type)
	})
}

func TestProductGroupRoutes(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/product-groups", gin.H{"code": "x", "name": " Solar Panels "})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"Solar Panels"`)

	ts.productGroups.createErr = productgroupdomain.ErrDuplicateCode
	rec = ts.do(t, http.MethodPost, "/product-groups", gin.H{"code": "x", "name": "Solar"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(t, http.MethodDelete, "/product-groups/99", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "99", ts.productGroups.deleted)
}

func TestMalformedBodyIsInvalidRequest(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/product-groups", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	payload := decodeError(t, rec)
	require.Len(t, payload.Errors, 1)
	assert.Equal(t, "invalid_request", payload.Errors[0].Code)
}

func TestListSalesEmployeesActiveFilter(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/sales-employees?is_active=maybe", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_is_active", decodeError(t, rec).Errors[0].Code)
	assert.Nil(t, ts.salesEmployees.listed)

	rec = ts.do(t, http.MethodGet, "/sales-employees?is_active=true&page_size=5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, ts.salesEmployees.listed)
	require.NotNil(t, ts.salesEmployees.listed.IsActive)
	assert.True(t, *ts.salesEmployees.listed.IsActive)
	assert.Equal(t, 5, ts.salesEmployees.listed.PageSize)
}

func TestNotFound(t *testing.T) {
	ts := newTestServer(t)
	ts.leads.err = leaddomain.ErrNotFound

	rec := ts.do(t, http.MethodGet, "/leads/1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeError(t, rec).Type)
}

func TestMapError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{name: "unknown product group", err: allocationruledomain.ErrUnknownProductGroup, status: http.StatusBadRequest, code: "unknown_product_group"},
		{name: "page token", err: pagination.ErrInvalidPageToken, status: http.StatusBadRequest, code: "invalid_page_token"},
		{name: "duplicate specialization", err: specializationdomain.ErrAlreadyExists, status: http.StatusConflict},
		{name: "inactive employee", err: allocationdomain.ErrEmployeeInactive, status: http.StatusUnprocessableEntity},
		{name: "unclassified", err: fmt.Errorf("boom"), status: http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, payload := mapError(tc.err)
			assert.Equal(t, tc.status, status)
			if tc.code != "" {
				require.Len(t, payload.Errors, 1)
				assert.Equal(t, tc.code, payload.Errors[0].Code)
			}
		})
	}
}

func TestClassifyErrorForLog(t *testing.T) {
	errType, code := classifyErrorForLog(salesemployeedomain.ErrInvalidEmail)
	assert.Equal(t, "validation_error", errType)
	assert.Equal(t, "invalid_email", code)

	errType, code = classifyErrorForLog(allocationdomain.ErrBulkRunInProgress)
	assert.Equal(t, "conflict", errType)
	assert.Equal(t, "conflict", code)
}
