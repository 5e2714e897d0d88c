package selector

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/salesdesk/internal/allocation/domain"
	allocationruledomain "github.com/smallbiznis/salesdesk/internal/allocationrule/domain"
	leaddomain "github.com/smallbiznis/salesdesk/internal/lead/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

var base = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func group(g leaddomain.CustomerGroup) *leaddomain.CustomerGroup { return &g }

func idPtr(id snowflake.ID) *snowflake.ID { return &id }

func rule(id snowflake.ID, created int, cg *leaddomain.CustomerGroup, groups []snowflake.ID, employees ...snowflake.ID) *allocationruledomain.AllocationRule {
	return &allocationruledomain.AllocationRule{
		ID:               id,
		Code:             "rule",
		Name:             "rule",
		CustomerGroup:    cg,
		ProductGroupIDs:  datatypes.NewJSONSlice(groups),
		SalesEmployeeIDs: datatypes.NewJSONSlice(employees),
		IsActive:         true,
		CreatedAt:        base.Add(time.Duration(created) * time.Minute),
	}
}

func set(ids ...snowflake.ID) map[snowflake.ID]struct{} {
	out := make(map[snowflake.ID]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		rule *allocationruledomain.AllocationRule
		want Shape
	}{
		{name: "both", rule: rule(1, 0, group(leaddomain.CustomerGroupRetail), []snowflake.ID{10}), want: ShapeBoth},
		{name: "customer group only", rule: rule(1, 0, group(leaddomain.CustomerGroupRetail), nil), want: ShapeCustomerGroupOnly},
		{name: "product group only", rule: rule(1, 0, nil, []snowflake.ID{10}), want: ShapeProductGroupOnly},
		{name: "any", rule: rule(1, 0, nil, nil), want: ShapeAny},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, compile(tc.rule, set(10)).shape)
		})
	}
	assert.Greater(t, ShapeBoth.Specificity(), ShapeProductGroupOnly.Specificity())
	assert.Equal(t, ShapeCustomerGroupOnly.Specificity(), ShapeProductGroupOnly.Specificity())
	assert.Greater(t, ShapeCustomerGroupOnly.Specificity(), ShapeAny.Specificity())
}

func TestMatchRules(t *testing.T) {
	const (
		pgA    snowflake.ID = 100
		pgB    snowflake.ID = 101
		pgGone snowflake.ID = 199

		e1        snowflake.ID = 1
		e2        snowflake.ID = 2
		e3        snowflake.ID = 3
		e4        snowflake.ID = 4
		eInactive snowflake.ID = 9
	)
	known := set(pgA, pgB)
	active := set(e1, e2, e3, e4)
	retail := group(leaddomain.CustomerGroupRetail)

	cases := []struct {
		name       string
		lead       LeadKey
		rules      []*allocationruledomain.AllocationRule
		candidates []snowflake.ID
		preferred  []snowflake.ID
	}{
		{
			name:  "no rules",
			lead:  LeadKey{CustomerGroup: retail, ProductGroupID: idPtr(pgA)},
			rules: nil,
		},
		{
			name: "specific rule ranks above broader rule created earlier",
			lead: LeadKey{CustomerGroup: retail, ProductGroupID: idPtr(pgA)},
			rules: []*allocationruledomain.AllocationRule{
				rule(50, 0, retail, nil, e1),
				rule(51, 1, retail, []snowflake.ID{pgA}, e2),
			},
			candidates: []snowflake.ID{e2, e1},
			preferred:  []snowflake.ID{e2},
		},
		{
			name: "ties keep creation order and drop duplicates",
			lead: LeadKey{ProductGroupID: idPtr(pgA)},
			rules: []*allocationruledomain.AllocationRule{
				rule(61, 2, nil, []snowflake.ID{pgA}, e3, e1),
				rule(60, 1, nil, []snowflake.ID{pgA, pgB}, e1, e2),
			},
			candidates: []snowflake.ID{e1, e2, e3},
			preferred:  []snowflake.ID{e1, e2, e3},
		},
		{
			name: "customer group mismatch",
			lead: LeadKey{CustomerGroup: group(leaddomain.CustomerGroupAgency), ProductGroupID: idPtr(pgA)},
			rules: []*allocationruledomain.AllocationRule{
				rule(70, 0, retail, nil, e1),
			},
		},
		{
			name: "lead without preferences only matches unconstrained rules",
			lead: LeadKey{},
			rules: []*allocationruledomain.AllocationRule{
				rule(80, 0, retail, nil, e1),
				rule(81, 1, nil, []snowflake.ID{pgA}, e2),
				rule(82, 2, nil, nil, e3),
			},
			candidates: []snowflake.ID{e3},
			preferred:  []snowflake.ID{e3},
		},
		{
			name: "rule pointing only at deleted product group never matches",
			lead: LeadKey{ProductGroupID: idPtr(pgGone)},
			rules: []*allocationruledomain.AllocationRule{
				rule(90, 0, nil, []snowflake.ID{pgGone}, e1),
			},
		},
		{
			name: "dangling groups are dropped from partially valid rules",
			lead: LeadKey{ProductGroupID: idPtr(pgB)},
			rules: []*allocationruledomain.AllocationRule{
				rule(91, 0, nil, []snowflake.ID{pgGone, pgB}, e4),
			},
			candidates: []snowflake.ID{e4},
			preferred:  []snowflake.ID{e4},
		},
		{
			name: "inactive and unknown employees are filtered and empty rules skipped",
			lead: LeadKey{ProductGroupID: idPtr(pgA)},
			rules: []*allocationruledomain.AllocationRule{
				rule(95, 0, nil, []snowflake.ID{pgA}, eInactive, 12345),
				rule(96, 1, nil, nil, eInactive, e2),
			},
			candidates: []snowflake.ID{e2},
			preferred:  []snowflake.ID{e2},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			match := MatchRules(tc.lead, tc.rules, known, active)
			if len(tc.candidates) == 0 {
				assert.True(t, match.Empty())
				assert.Empty(t, match.Candidates())
				assert.Empty(t, match.Preferred())
				return
			}
			assert.Equal(t, tc.candidates, match.Candidates())
			assert.Equal(t, tc.preferred, match.Preferred())
		})
	}
}

func TestMatchRulesSkipsInactiveRules(t *testing.T) {
	r := rule(1, 0, nil, nil, 7)
	r.IsActive = false
	match := MatchRules(LeadKey{}, []*allocationruledomain.AllocationRule{r}, set(), set(7))
	assert.True(t, match.Empty())
}

func TestRuleFor(t *testing.T) {
	retail := group(leaddomain.CustomerGroupRetail)
	match := MatchRules(
		LeadKey{CustomerGroup: retail, ProductGroupID: idPtr(100)},
		[]*allocationruledomain.AllocationRule{
			rule(10, 0, retail, nil, 1, 2),
			rule(11, 1, retail, []snowflake.ID{100}, 2),
		},
		set(100),
		set(1, 2),
	)

	require.NotNil(t, match.RuleFor(2))
	assert.Equal(t, snowflake.ID(11), *match.RuleFor(2))
	require.NotNil(t, match.RuleFor(1))
	assert.Equal(t, snowflake.ID(10), *match.RuleFor(1))
	assert.Nil(t, match.RuleFor(3))
}

func TestNext(t *testing.T) {
	earlier := base.Add(-time.Hour)
	later := base

	cases := []struct {
		name   string
		active []Employee
		want   snowflake.ID
	}{
		{
			name: "smallest round robin order",
			active: []Employee{
				{ID: 1, RoundRobinOrder: 2},
				{ID: 2, RoundRobinOrder: 1},
			},
			want: 2,
		},
		{
			name: "never assigned before assigned",
			active: []Employee{
				{ID: 1, RoundRobinOrder: 1, LastAssignedAt: &earlier},
				{ID: 2, RoundRobinOrder: 1},
			},
			want: 2,
		},
		{
			name: "oldest assignment first",
			active: []Employee{
				{ID: 1, RoundRobinOrder: 1, LastAssignedAt: &later},
				{ID: 2, RoundRobinOrder: 1, LastAssignedAt: &earlier},
			},
			want: 2,
		},
		{
			name: "id breaks full ties",
			active: []Employee{
				{ID: 5, RoundRobinOrder: 1},
				{ID: 3, RoundRobinOrder: 1},
			},
			want: 3,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Next(tc.active)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := Next(nil)
	assert.ErrorIs(t, err, domain.ErrNoEligibleAssignee)
}

func TestPick(t *testing.T) {
	got, err := Pick([]Employee{
		{ID: 1, RoundRobinOrder: 1, TodayCount: 3},
		{ID: 2, RoundRobinOrder: 5, TodayCount: 1},
		{ID: 3, RoundRobinOrder: 4, TodayCount: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, snowflake.ID(3), got)

	_, err = Pick(nil)
	assert.ErrorIs(t, err, domain.ErrNoEligibleAssignee)
}

func TestPickRotatesWhenCountersAdvance(t *testing.T) {
	pool := []Employee{
		{ID: 1, RoundRobinOrder: 1},
		{ID: 2, RoundRobinOrder: 2},
		{ID: 3, RoundRobinOrder: 3},
	}
	seen := map[snowflake.ID]int{}
	for i := 0; i < len(pool); i++ {
		id, err := Pick(pool)
		require.NoError(t, err)
		seen[id]++
		for j := range pool {
			if pool[j].ID == id {
				pool[j].TodayCount++
			}
		}
	}
	assert.Equal(t, map[snowflake.ID]int{1: 1, 2: 1, 3: 1}, seen)
}
