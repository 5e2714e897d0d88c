package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/salesdesk/internal/allocationrule/domain"
	"github.com/smallbiznis/salesdesk/internal/allocationrule/repository"
	"github.com/smallbiznis/salesdesk/internal/clock"
	leaddomain "github.com/smallbiznis/salesdesk/internal/lead/domain"
	productgroupdomain "github.com/smallbiznis/salesdesk/internal/productgroup/domain"
	productgrouprepository "github.com/smallbiznis/salesdesk/internal/productgroup/repository"
	salesemployeedomain "github.com/smallbiznis/salesdesk/internal/salesemployee/domain"
	salesemployeerepository "github.com/smallbiznis/salesdesk/internal/salesemployee/repository"
	specializationdomain "github.com/smallbiznis/salesdesk/internal/specialization/domain"
	specializationrepository "github.com/smallbiznis/salesdesk/internal/specialization/repository"
	"github.com/smallbiznis/salesdesk/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

type fixture struct {
	svc domain.Service
	db  *gorm.DB
	now time.Time
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db := testutil.OpenDB(t)
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	return fixture{
		svc: New(Params{
			DB:                 db,
			Log:                zaptest.NewLogger(t),
			GenID:              testutil.Node(t),
			Clock:              clock.NewFakeClock(now),
			Repo:               repository.Provide(),
			ProductGroupRepo:   productgrouprepository.Provide(),
			EmployeeRepo:       salesemployeerepository.Provide(),
			SpecializationRepo: specializationrepository.Provide(),
		}),
		db:  db,
		now: now,
	}
}

func (f fixture) employee(t *testing.T, id snowflake.ID, active bool) {
	t.Helper()
	row := salesemployeedomain.SalesEmployee{
		ID:        id,
		Code:      "emp-" + id.String(),
		Name:      "Employee " + id.String(),
		CreatedAt: f.now,
		UpdatedAt: f.now,
	}
	require.NoError(t, f.db.Create(&row).Error)
	// gorm skips zero values with defaults on create
	require.NoError(t, f.db.Model(&row).Update("is_active", active).Error)
}

func (f fixture) group(t *testing.T, id snowflake.ID, code string) {
	t.Helper()
	require.NoError(t, f.db.Create(&productgroupdomain.ProductGroup{
		ID: id, Code: code, Name: code, CreatedAt: f.now, UpdatedAt: f.now,
	}).Error)
}

func (f fixture) specialize(t *testing.T, id, employeeID, groupID snowflake.ID) {
	t.Helper()
	require.NoError(t, f.db.Create(&specializationdomain.Specialization{
		ID: id, SalesEmployeeID: employeeID, ProductGroupID: groupID, CreatedAt: f.now,
	}).Error)
}

func TestCreateValidatesReferences(t *testing.T) {
	f := newFixture(t)
	f.employee(t, 1, true)
	f.group(t, 10, "laptops")

	rule, err := f.svc.Create(context.Background(), domain.UpsertAllocationRuleRequest{
		Name:             "Enterprise Laptops",
		CustomerGroup:    "enterprise",
		ProductGroupIDs:  []string{"10", "10"},
		SalesEmployeeIDs: []string{"1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "enterprise-laptops", rule.Code)
	assert.True(t, rule.IsActive)
	require.NotNil(t, rule.CustomerGroup)
	assert.Equal(t, leaddomain.CustomerGroupEnterprise, *rule.CustomerGroup)
	assert.Equal(t, []snowflake.ID{10}, []snowflake.ID(rule.ProductGroupIDs))

	got, err := f.svc.GetByID(context.Background(), rule.ID.String())
	require.NoError(t, err)
	assert.Equal(t, []snowflake.ID{1}, []snowflake.ID(got.SalesEmployeeIDs))

	tests := []struct {
		name string
		req  domain.UpsertAllocationRuleRequest
		want error
	}{
		{"missing name", domain.UpsertAllocationRuleRequest{}, domain.ErrInvalidName},
		{"bad customer group", domain.UpsertAllocationRuleRequest{Name: "x", CustomerGroup: "vip"}, leaddomain.ErrInvalidCustomerGroup},
		{"unknown group", domain.UpsertAllocationRuleRequest{Name: "x", ProductGroupIDs: []string{"11"}}, domain.ErrUnknownProductGroup},
		{"bad group id", domain.UpsertAllocationRuleRequest{Name: "x", ProductGroupIDs: []string{"abc"}}, domain.ErrInvalidProductGroupID},
		{"unknown employee", domain.UpsertAllocationRuleRequest{Name: "x", SalesEmployeeIDs: []string{"2"}}, domain.ErrUnknownSalesEmployee},
		{"duplicate code", domain.UpsertAllocationRuleRequest{Name: "Enterprise laptops"}, domain.ErrDuplicateCode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestUpdateReplacesRule(t *testing.T) {
	f := newFixture(t)
	f.employee(t, 1, true)
	f.employee(t, 2, true)

	rule, err := f.svc.Create(context.Background(), domain.UpsertAllocationRuleRequest{
		Name:             "Retail",
		CustomerGroup:    "retail",
		SalesEmployeeIDs: []string{"1"},
	})
	require.NoError(t, err)

	inactive := false
	updated, err := f.svc.Update(context.Background(), rule.ID.String(), domain.UpsertAllocationRuleRequest{
		Name:             "Retail",
		SalesEmployeeIDs: []string{"2"},
		IsActive:         &inactive,
	})
	require.NoError(t, err)
	assert.Nil(t, updated.CustomerGroup)
	assert.False(t, updated.IsActive)
	assert.Equal(t, []snowflake.ID{2}, []snowflake.ID(updated.SalesEmployeeIDs))

	require.NoError(t, f.svc.Delete(context.Background(), rule.ID.String()))
	_, err = f.svc.GetByID(context.Background(), rule.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAutoFillFromSpecializations(t *testing.T) {
	f := newFixture(t)
	f.employee(t, 1, true)
	f.employee(t, 2, true)
	f.employee(t, 3, true)
	f.employee(t, 4, false)
	f.group(t, 10, "x")
	f.group(t, 11, "y")
	f.group(t, 12, "z")
	f.specialize(t, 100, 1, 10)
	f.specialize(t, 101, 2, 11)
	f.specialize(t, 102, 3, 12)
	f.specialize(t, 103, 4, 10)
	f.specialize(t, 104, 2, 10)

	rule, err := f.svc.Create(context.Background(), domain.UpsertAllocationRuleRequest{
		Name:            "X and Y",
		ProductGroupIDs: []string{"10", "11"},
	})
	require.NoError(t, err)
	assert.Empty(t, rule.SalesEmployeeIDs)

	filled, err := f.svc.AutoFill(context.Background(), rule.ID.String())
	require.NoError(t, err)
	assert.Equal(t, []snowflake.ID{1, 2}, []snowflake.ID(filled.SalesEmployeeIDs))

	stored, err := f.svc.GetByID(context.Background(), rule.ID.String())
	require.NoError(t, err)
	assert.Equal(t, []snowflake.ID{1, 2}, []snowflake.ID(stored.SalesEmployeeIDs))
}

func TestAutoFillWithoutProductGroupsIsNoop(t *testing.T) {
	f := newFixture(t)
	f.employee(t, 1, true)

	rule, err := f.svc.Create(context.Background(), domain.UpsertAllocationRuleRequest{
		Name:             "Gov",
		CustomerGroup:    "government",
		SalesEmployeeIDs: []string{"1"},
	})
	require.NoError(t, err)

	filled, err := f.svc.AutoFill(context.Background(), rule.ID.String())
	require.NoError(t, err)
	assert.Equal(t, []snowflake.ID{1}, []snowflake.ID(filled.SalesEmployeeIDs))

	_, err = f.svc.AutoFill(context.Background(), "404")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
