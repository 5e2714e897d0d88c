package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/salesdesk/internal/allocation/counter"
	"github.com/smallbiznis/salesdesk/internal/clock"
	"github.com/smallbiznis/salesdesk/internal/salesemployee/domain"
	"github.com/smallbiznis/salesdesk/internal/salesemployee/repository"
	"github.com/smallbiznis/salesdesk/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

type fixture struct {
	svc   domain.Service
	db    *gorm.DB
	clock *clock.FakeClock
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db := testutil.OpenDB(t)
	clk := clock.NewFakeClock(time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC))
	return fixture{
		svc: New(Params{
			DB:    db,
			Log:   zaptest.NewLogger(t),
			GenID: testutil.Node(t),
			Clock: clk,
			Repo:  repository.Provide(),
		}),
		db:    db,
		clock: clk,
	}
}

func (f fixture) create(t *testing.T, code string) domain.SalesEmployee {
	t.Helper()
	e, err := f.svc.Create(context.Background(), domain.CreateSalesEmployeeRequest{Code: code, Name: code})
	require.NoError(t, err)
	return e
}

func (f fixture) bump(t *testing.T, id snowflake.ID, times int) {
	t.Helper()
	store := counter.NewGormStore()
	for i := 0; i < times; i++ {
		_, err := store.Increment(context.Background(), f.db, id, f.clock.Now())
		require.NoError(t, err)
	}
}

func TestCreateAppendsToRotation(t *testing.T) {
	f := newFixture(t)

	a := f.create(t, "alice")
	b := f.create(t, "bob")
	assert.True(t, a.IsActive)
	assert.Equal(t, a.RoundRobinOrder+1, b.RoundRobinOrder)

	order := 10
	inactive := false
	c, err := f.svc.Create(context.Background(), domain.CreateSalesEmployeeRequest{
		Code:            "carol",
		Name:            "Carol",
		Email:           "carol@example.com",
		IsActive:        &inactive,
		RoundRobinOrder: &order,
	})
	require.NoError(t, err)
	assert.False(t, c.IsActive)
	assert.Equal(t, 10, c.RoundRobinOrder)

	d := f.create(t, "dave")
	assert.Equal(t, 11, d.RoundRobinOrder)

	_, err = f.svc.Create(context.Background(), domain.CreateSalesEmployeeRequest{Code: "alice", Name: "Alice again"})
	assert.ErrorIs(t, err, domain.ErrDuplicateCode)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	negative := -1

	tests := []struct {
		name string
		req  domain.CreateSalesEmployeeRequest
		want error
	}{
		{"empty code", domain.CreateSalesEmployeeRequest{Name: "x"}, domain.ErrInvalidCode},
		{"code with space", domain.CreateSalesEmployeeRequest{Code: "a b", Name: "x"}, domain.ErrInvalidCode},
		{"empty name", domain.CreateSalesEmployeeRequest{Code: "x"}, domain.ErrInvalidName},
		{"bad email", domain.CreateSalesEmployeeRequest{Code: "x", Name: "x", Email: "nope"}, domain.ErrInvalidEmail},
		{"negative order", domain.CreateSalesEmployeeRequest{Code: "x", Name: "x", RoundRobinOrder: &negative}, domain.ErrInvalidRoundRobinOrder},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestUpdatePatchesFields(t *testing.T) {
	f := newFixture(t)
	a := f.create(t, "alice")

	name := "Alice Smith"
	inactive := false
	updated, err := f.svc.Update(context.Background(), a.ID.String(), domain.UpdateSalesEmployeeRequest{
		Name:     &name,
		IsActive: &inactive,
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice Smith", updated.Name)
	assert.False(t, updated.IsActive)
	assert.Equal(t, a.RoundRobinOrder, updated.RoundRobinOrder)

	active := true
	list, err := f.svc.List(context.Background(), domain.ListSalesEmployeeRequest{IsActive: &active})
	require.NoError(t, err)
	assert.Empty(t, list.SalesEmployees)

	_, err = f.svc.Update(context.Background(), "123", domain.UpdateSalesEmployeeRequest{Name: &name})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestResetDailyCountsKeepsTotals(t *testing.T) {
	f := newFixture(t)
	a := f.create(t, "alice")
	b := f.create(t, "bob")
	f.bump(t, a.ID, 3)
	f.bump(t, b.ID, 1)

	res, err := f.svc.ResetDailyCountsForDay(context.Background(), "2026-05-04")
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	assert.EqualValues(t, 2, res.Employees)

	got, err := f.svc.GetByID(context.Background(), a.ID.String())
	require.NoError(t, err)
	assert.Zero(t, got.TodayCount)
	assert.EqualValues(t, 3, got.TotalCount)
	require.NotNil(t, got.LastAssignedAt)

	// a second reset for the same day must not wipe work done since
	f.bump(t, a.ID, 2)
	again, err := f.svc.ResetDailyCountsForDay(context.Background(), "2026-05-04")
	require.NoError(t, err)
	assert.True(t, again.Skipped)

	got, err = f.svc.GetByID(context.Background(), a.ID.String())
	require.NoError(t, err)
	assert.EqualValues(t, 2, got.TodayCount)
	assert.EqualValues(t, 5, got.TotalCount)

	var ledger []domain.CounterReset
	require.NoError(t, f.db.Find(&ledger).Error)
	require.Len(t, ledger, 1)
	assert.Equal(t, "2026-05-04", ledger[0].ResetDate)
	assert.EqualValues(t, 2, ledger[0].Employees)

	next, err := f.svc.ResetDailyCountsForDay(context.Background(), "2026-05-05")
	require.NoError(t, err)
	assert.False(t, next.Skipped)

	_, err = f.svc.ResetDailyCountsForDay(context.Background(), "05/05/2026")
	assert.ErrorIs(t, err, domain.ErrInvalidDay)
}

func TestResetDailyCountsUnconditional(t *testing.T) {
	f := newFixture(t)
	a := f.create(t, "alice")
	f.bump(t, a.ID, 2)

	res, err := f.svc.ResetDailyCounts(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Employees)
	assert.Equal(t, f.clock.Now(), res.ResetAt)

	got, err := f.svc.GetByID(context.Background(), a.ID.String())
	require.NoError(t, err)
	assert.Zero(t, got.TodayCount)
	assert.EqualValues(t, 2, got.TotalCount)
}

func TestResetDailyCountsClearsHookedStores(t *testing.T) {
	db := testutil.OpenDB(t)
	clk := clock.NewFakeClock(time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC))
	cache := counter.NewMemoryStore()
	f := fixture{
		svc: New(Params{
			DB:         db,
			Log:        zaptest.NewLogger(t),
			GenID:      testutil.Node(t),
			Clock:      clk,
			Repo:       repository.Provide(),
			ResetHooks: []domain.DailyResetHook{cache},
		}),
		db:    db,
		clock: clk,
	}
	a := f.create(t, "alice")
	ctx := context.Background()
	_, err := cache.Increment(ctx, nil, a.ID, clk.Now())
	require.NoError(t, err)

	_, err = f.svc.ResetDailyCountsForDay(ctx, "2026-05-04")
	require.NoError(t, err)

	got, err := cache.Current(ctx, nil, []snowflake.ID{a.ID})
	require.NoError(t, err)
	assert.Zero(t, got[a.ID].TodayCount)
	assert.EqualValues(t, 1, got[a.ID].TotalCount)

	// a skipped reset leaves the cache alone
	_, err = cache.Increment(ctx, nil, a.ID, clk.Now())
	require.NoError(t, err)
	again, err := f.svc.ResetDailyCountsForDay(ctx, "2026-05-04")
	require.NoError(t, err)
	require.True(t, again.Skipped)
	got, err = cache.Current(ctx, nil, []snowflake.ID{a.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, got[a.ID].TodayCount)

	_, err = f.svc.ResetDailyCounts(ctx)
	require.NoError(t, err)
	got, err = cache.Current(ctx, nil, []snowflake.ID{a.ID})
	require.NoError(t, err)
	assert.Zero(t, got[a.ID].TodayCount)
}

func TestWorkloadShares(t *testing.T) {
	f := newFixture(t)
	a := f.create(t, "alice")
	b := f.create(t, "bob")
	f.bump(t, a.ID, 3)
	f.bump(t, b.ID, 1)

	report, err := f.svc.Workload(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 4, report.TodayTotal)
	assert.EqualValues(t, 4, report.TotalTotal)
	require.Len(t, report.Employees, 2)

	shares := map[string]float64{}
	for _, e := range report.Employees {
		shares[e.Code] = e.ShareOfToday
	}
	assert.InDelta(t, 0.75, shares["alice"], 1e-9)
	assert.InDelta(t, 0.25, shares["bob"], 1e-9)
}
