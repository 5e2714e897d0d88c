package selector

import (
	"github.com/bwmarrin/snowflake"
	allocationruledomain "github.com/smallbiznis/salesdesk/internal/allocationrule/domain"
)

// Shape is the closed set of constraint combinations an allocation rule can have.
type Shape int

const (
	ShapeAny Shape = iota
	ShapeCustomerGroupOnly
	ShapeProductGroupOnly
	ShapeBoth
)

func (s Shape) String() string {
	switch s {
	case ShapeBoth:
		return "customer_group+product_group"
	case ShapeCustomerGroupOnly:
		return "customer_group"
	case ShapeProductGroupOnly:
		return "product_group"
	case ShapeAny:
		return "any"
	default:
		return "unknown"
	}
}

// Specificity ranks shapes: both dimensions, then one, then none.
func (s Shape) Specificity() int {
	switch s {
	case ShapeBoth:
		return 2
	case ShapeCustomerGroupOnly, ShapeProductGroupOnly:
		return 1
	default:
		return 0
	}
}

// compiledRule is a rule with dangling product groups removed.
type compiledRule struct {
	rule          *allocationruledomain.AllocationRule
	shape         Shape
	productGroups map[snowflake.ID]struct{}
	// unsatisfiable is set when every configured product group is gone.
	unsatisfiable bool
}

func compile(rule *allocationruledomain.AllocationRule, knownGroups map[snowflake.ID]struct{}) compiledRule {
	compiled := compiledRule{
		rule:          rule,
		productGroups: make(map[snowflake.ID]struct{}, len(rule.ProductGroupIDs)),
	}
	for _, id := range rule.ProductGroupIDs {
		if _, ok := knownGroups[id]; ok {
			compiled.productGroups[id] = struct{}{}
		}
	}
	if len(rule.ProductGroupIDs) > 0 && len(compiled.productGroups) == 0 {
		compiled.unsatisfiable = true
	}

	hasCustomerGroup := rule.CustomerGroup != nil && *rule.CustomerGroup != ""
	hasProductGroups := len(rule.ProductGroupIDs) > 0
	switch {
	case hasCustomerGroup && hasProductGroups:
		compiled.shape = ShapeBoth
	case hasCustomerGroup:
		compiled.shape = ShapeCustomerGroupOnly
	case hasProductGroups:
		compiled.shape = ShapeProductGroupOnly
	default:
		compiled.shape = ShapeAny
	}
	return compiled
}

func (c compiledRule) matches(lead LeadKey) bool {
	if c.unsatisfiable {
		return false
	}
	switch c.shape {
	case ShapeBoth:
		return c.customerGroupMatches(lead) && c.productGroupMatches(lead)
	case ShapeCustomerGroupOnly:
		return c.customerGroupMatches(lead)
	case ShapeProductGroupOnly:
		return c.productGroupMatches(lead)
	case ShapeAny:
		return true
	default:
		return false
	}
}

func (c compiledRule) customerGroupMatches(lead LeadKey) bool {
	return lead.CustomerGroup != nil && *lead.CustomerGroup == *c.rule.CustomerGroup
}

func (c compiledRule) productGroupMatches(lead LeadKey) bool {
	if lead.ProductGroupID == nil {
		return false
	}
	_, ok := c.productGroups[*lead.ProductGroupID]
	return ok
}
