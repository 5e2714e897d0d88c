package selector

import (
	"sort"

	"github.com/bwmarrin/snowflake"
	allocationruledomain "github.com/smallbiznis/salesdesk/internal/allocationrule/domain"
	leaddomain "github.com/smallbiznis/salesdesk/internal/lead/domain"
)

// LeadKey is the part of a lead the matcher looks at. Nil fields mean "no preference".
type LeadKey struct {
	CustomerGroup  *leaddomain.CustomerGroup
	ProductGroupID *snowflake.ID
}

func KeyOf(lead leaddomain.Lead) LeadKey {
	return LeadKey{
		CustomerGroup:  lead.CustomerGroup,
		ProductGroupID: lead.InterestedProductGroupID,
	}
}

// MatchedRule is a matching rule with its employees narrowed to active ones.
type MatchedRule struct {
	RuleID      snowflake.ID
	Shape       Shape
	EmployeeIDs []snowflake.ID
}

// Match holds matching rules in rank order.
type Match struct {
	Rules []MatchedRule
}

func (m Match) Empty() bool {
	return len(m.Rules) == 0
}

// Candidates is the union of every matched rule's employees, in rank order
// without duplicates.
func (m Match) Candidates() []snowflake.ID {
	return union(m.Rules)
}

// Preferred narrows the candidates to the most specific tier of matched rules,
// so a broader rule never outbids a narrower one on load alone.
func (m Match) Preferred() []snowflake.ID {
	if len(m.Rules) == 0 {
		return nil
	}
	top := m.Rules[0].Shape.Specificity()
	end := 0
	for end < len(m.Rules) && m.Rules[end].Shape.Specificity() == top {
		end++
	}
	return union(m.Rules[:end])
}

// RuleFor returns the highest ranked rule that contributed employeeID.
func (m Match) RuleFor(employeeID snowflake.ID) *snowflake.ID {
	for _, rule := range m.Rules {
		for _, id := range rule.EmployeeIDs {
			if id == employeeID {
				ruleID := rule.RuleID
				return &ruleID
			}
		}
	}
	return nil
}

// MatchRules evaluates rules against lead. knownGroups lists product groups
// that still exist and active lists employees eligible for assignment; ids
// outside either set are ignored. Rules left without active employees are
// skipped.
func MatchRules(lead LeadKey, rules []*allocationruledomain.AllocationRule, knownGroups map[snowflake.ID]struct{}, active map[snowflake.ID]struct{}) Match {
	compiled := make([]compiledRule, 0, len(rules))
	for _, rule := range rules {
		if rule == nil || !rule.IsActive {
			continue
		}
		c := compile(rule, knownGroups)
		if !c.matches(lead) {
			continue
		}
		compiled = append(compiled, c)
	}

	sort.SliceStable(compiled, func(i, j int) bool {
		a, b := compiled[i], compiled[j]
		if sa, sb := a.shape.Specificity(), b.shape.Specificity(); sa != sb {
			return sa > sb
		}
		if !a.rule.CreatedAt.Equal(b.rule.CreatedAt) {
			return a.rule.CreatedAt.Before(b.rule.CreatedAt)
		}
		return a.rule.ID < b.rule.ID
	})

	match := Match{Rules: make([]MatchedRule, 0, len(compiled))}
	for _, c := range compiled {
		employees := make([]snowflake.ID, 0, len(c.rule.SalesEmployeeIDs))
		for _, id := range c.rule.SalesEmployeeIDs {
			if _, ok := active[id]; ok {
				employees = append(employees, id)
			}
		}
		if len(employees) == 0 {
			continue
		}
		match.Rules = append(match.Rules, MatchedRule{
			RuleID:      c.rule.ID,
			Shape:       c.shape,
			EmployeeIDs: employees,
		})
	}
	return match
}

func union(rules []MatchedRule) []snowflake.ID {
	seen := make(map[snowflake.ID]struct{})
	out := make([]snowflake.ID, 0)
	for _, rule := range rules {
		for _, id := range rule.EmployeeIDs {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}
