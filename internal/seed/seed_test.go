package seed

import (
	"context"
	"testing"

	allocationruledomain "github.com/smallbiznis/salesdesk/internal/allocationrule/domain"
	productgroupdomain "github.com/smallbiznis/salesdesk/internal/productgroup/domain"
	salesemployeedomain "github.com/smallbiznis/salesdesk/internal/salesemployee/domain"
	specializationdomain "github.com/smallbiznis/salesdesk/internal/specialization/domain"
	"github.com/smallbiznis/salesdesk/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDemoDataIsIdempotent(t *testing.T) {
	db := testutil.OpenDB(t)
	node := testutil.Node(t)
	ctx := context.Background()

	require.NoError(t, EnsureDemoData(ctx, db, node))
	require.NoError(t, EnsureDemoData(ctx, db, node))

	count := func(model any) int64 {
		var n int64
		require.NoError(t, db.Model(model).Count(&n).Error)
		return n
	}
	assert.EqualValues(t, 3, count(&productgroupdomain.ProductGroup{}))
	assert.EqualValues(t, 3, count(&salesemployeedomain.SalesEmployee{}))
	assert.EqualValues(t, 4, count(&specializationdomain.Specialization{}))
	assert.EqualValues(t, 1, count(&allocationruledomain.AllocationRule{}))

	var rule allocationruledomain.AllocationRule
	require.NoError(t, db.Where("code = ?", demoRuleCode).First(&rule).Error)
	assert.Len(t, rule.ProductGroupIDs, 1)
	assert.Len(t, rule.SalesEmployeeIDs, 2)
	require.NotNil(t, rule.CustomerGroup)
	assert.Equal(t, "enterprise", string(*rule.CustomerGroup))
}

func TestEnsureDemoDataRequiresHandles(t *testing.T) {
	assert.Error(t, EnsureDemoData(context.Background(), nil, nil))
	assert.Error(t, EnsureDemoData(context.Background(), testutil.OpenDB(t), nil))
}
