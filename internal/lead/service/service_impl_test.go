package service

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/salesdesk/internal/clock"
	"github.com/smallbiznis/salesdesk/internal/lead/domain"
	"github.com/smallbiznis/salesdesk/internal/lead/repository"
	"github.com/smallbiznis/salesdesk/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (domain.Service, domain.Repository, *gorm.DB, *clock.FakeClock) {
	t.Helper()
	db := testutil.OpenDB(t)
	repo := repository.Provide()
	clk := clock.NewFakeClock(time.Date(2026, 2, 10, 10, 0, 0, 0, time.UTC))
	return New(Params{
		DB:    db,
		Log:   zaptest.NewLogger(t),
		GenID: testutil.Node(t),
		Clock: clk,
		Repo:  repo,
	}), repo, db, clk
}

func TestCreateStoresUnassignedLead(t *testing.T) {
	svc, _, _, clk := newTestService(t)

	lead, err := svc.Create(context.Background(), domain.CreateLeadRequest{
		Name:                     " Budi ",
		Phone:                    "+628123",
		CustomerGroup:            "Enterprise",
		InterestedProductGroupID: "555",
		Source:                   "website",
		Metadata:                 map[string]any{"campaign": "spring"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Budi", lead.Name)
	assert.Equal(t, domain.StatusNew, lead.Status)
	require.NotNil(t, lead.CustomerGroup)
	assert.Equal(t, domain.CustomerGroupEnterprise, *lead.CustomerGroup)
	require.NotNil(t, lead.InterestedProductGroupID)
	assert.EqualValues(t, 555, *lead.InterestedProductGroupID)
	assert.False(t, lead.IsAssigned())
	assert.Equal(t, clk.Now(), lead.CreatedAt)

	got, err := svc.GetByID(context.Background(), lead.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "spring", got.Metadata["campaign"])
	assert.Nil(t, got.AssignedSalesID)
}

func TestCreateValidation(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	tests := []struct {
		name string
		req  domain.CreateLeadRequest
		want error
	}{
		{"missing name", domain.CreateLeadRequest{Email: "a@b.c"}, domain.ErrInvalidName},
		{"no contact", domain.CreateLeadRequest{Name: "a"}, domain.ErrInvalidContact},
		{"bad email", domain.CreateLeadRequest{Name: "a", Email: "nope"}, domain.ErrInvalidEmail},
		{"unknown customer group", domain.CreateLeadRequest{Name: "a", Phone: "1", CustomerGroup: "vip"}, domain.ErrInvalidCustomerGroup},
		{"bad product group", domain.CreateLeadRequest{Name: "a", Phone: "1", InterestedProductGroupID: "x"}, domain.ErrInvalidProductGroupID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestListFilters(t *testing.T) {
	svc, repo, db, clk := newTestService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, domain.CreateLeadRequest{Name: "one", Phone: "1"})
	require.NoError(t, err)
	clk.Advance(time.Minute)
	second, err := svc.Create(ctx, domain.CreateLeadRequest{Name: "two", Phone: "2"})
	require.NoError(t, err)

	ok, err := repo.ClaimAssignment(ctx, db, first.ID, 77, domain.AssignmentMethodManual, clk.Now())
	require.NoError(t, err)
	require.True(t, ok)

	unassigned, err := svc.List(ctx, domain.ListLeadRequest{Unassigned: true})
	require.NoError(t, err)
	require.Len(t, unassigned.Leads, 1)
	assert.Equal(t, second.ID, unassigned.Leads[0].ID)

	owned, err := svc.List(ctx, domain.ListLeadRequest{AssignedSalesID: "77"})
	require.NoError(t, err)
	require.Len(t, owned.Leads, 1)
	assert.Equal(t, first.ID, owned.Leads[0].ID)

	_, err = svc.List(ctx, domain.ListLeadRequest{Status: "archived"})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
}

func TestClaimAssignmentOnlyOnce(t *testing.T) {
	svc, repo, db, clk := newTestService(t)
	ctx := context.Background()

	lead, err := svc.Create(ctx, domain.CreateLeadRequest{Name: "one", Phone: "1"})
	require.NoError(t, err)

	ok, err := repo.ClaimAssignment(ctx, db, lead.ID, 1, domain.AssignmentMethodRoundRobin, clk.Now())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.ClaimAssignment(ctx, db, lead.ID, 2, domain.AssignmentMethodRoundRobin, clk.Now())
	require.NoError(t, err)
	assert.False(t, ok)

	stored, err := repo.FindByID(ctx, db, lead.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.AssignedSalesID)
	assert.EqualValues(t, 1, *stored.AssignedSalesID)
	require.NotNil(t, stored.AssignmentMethod)
	assert.Equal(t, domain.AssignmentMethodRoundRobin, *stored.AssignmentMethod)
	require.NotNil(t, stored.AssignedAt)
}

func TestParseCustomerGroup(t *testing.T) {
	group, err := domain.ParseCustomerGroup("")
	require.NoError(t, err)
	assert.Nil(t, group)

	group, err = domain.ParseCustomerGroup(" Retail ")
	require.NoError(t, err)
	require.NotNil(t, group)
	assert.Equal(t, domain.CustomerGroupRetail, *group)
}
