package seed

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	allocationruledomain "github.com/smallbiznis/salesdesk/internal/allocationrule/domain"
	leaddomain "github.com/smallbiznis/salesdesk/internal/lead/domain"
	productgroupdomain "github.com/smallbiznis/salesdesk/internal/productgroup/domain"
	salesemployeedomain "github.com/smallbiznis/salesdesk/internal/salesemployee/domain"
	specializationdomain "github.com/smallbiznis/salesdesk/internal/specialization/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type demoGroup struct {
	code string
	name string
}

type demoEmployee struct {
	code   string
	name   string
	email  string
	order  int
	groups []string
}

var demoGroups = []demoGroup{
	{code: "solar-panels", name: "Solar Panels"},
	{code: "inverters", name: "Inverters"},
	{code: "batteries", name: "Batteries"},
}

var demoEmployees = []demoEmployee{
	{code: "ayu", name: "Ayu Lestari", email: "ayu@salesdesk.local", order: 1, groups: []string{"solar-panels", "inverters"}},
	{code: "bima", name: "Bima Saputra", email: "bima@salesdesk.local", order: 2, groups: []string{"solar-panels"}},
	{code: "citra", name: "Citra Dewi", email: "citra@salesdesk.local", order: 3, groups: []string{"batteries"}},
}

const demoRuleCode = "enterprise-solar"

// EnsureDemoData seeds a small catalogue, a sales team and one enterprise rule.
// Rows are matched by code, so running it again changes nothing.
func EnsureDemoData(ctx context.Context, db *gorm.DB, node *snowflake.Node) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}
	if node == nil {
		return errors.New("seed id generator is required")
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		groupIDs := make(map[string]snowflake.ID, len(demoGroups))
		for _, g := range demoGroups {
			group, err := ensureProductGroupTx(tx, node, g)
			if err != nil {
				return err
			}
			groupIDs[g.code] = group.ID
		}

		var solarTeam []snowflake.ID
		for _, e := range demoEmployees {
			employee, err := ensureEmployeeTx(tx, node, e)
			if err != nil {
				return err
			}
			for i, code := range e.groups {
				if err := ensureSpecializationTx(tx, node, employee.ID, groupIDs[code], i == 0); err != nil {
					return err
				}
				if code == "solar-panels" {
					solarTeam = append(solarTeam, employee.ID)
				}
			}
		}

		return ensureRuleTx(tx, node, groupIDs["solar-panels"], solarTeam)
	})
}

func ensureProductGroupTx(tx *gorm.DB, node *snowflake.Node, g demoGroup) (productgroupdomain.ProductGroup, error) {
	var group productgroupdomain.ProductGroup
	err := tx.Where("code = ?", g.code).First(&group).Error
	if err == nil {
		return group, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return group, err
	}

	group = productgroupdomain.ProductGroup{
		ID:   node.Generate(),
		Code: g.code,
		Name: g.name,
	}
	return group, tx.Create(&group).Error
}

func ensureEmployeeTx(tx *gorm.DB, node *snowflake.Node, e demoEmployee) (salesemployeedomain.SalesEmployee, error) {
	var employee salesemployeedomain.SalesEmployee
	err := tx.Where("code = ?", e.code).First(&employee).Error
	if err == nil {
		return employee, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return employee, err
	}

	employee = salesemployeedomain.SalesEmployee{
		ID:              node.Generate(),
		Code:            e.code,
		Name:            e.name,
		Email:           e.email,
		IsActive:        true,
		RoundRobinOrder: e.order,
	}
	return employee, tx.Create(&employee).Error
}

func ensureSpecializationTx(tx *gorm.DB, node *snowflake.Node, employeeID, groupID snowflake.ID, primary bool) error {
	var count int64
	if err := tx.Model(&specializationdomain.Specialization{}).
		Where("sales_employee_id = ? AND product_group_id = ?", employeeID, groupID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return tx.Create(&specializationdomain.Specialization{
		ID:              node.Generate(),
		SalesEmployeeID: employeeID,
		ProductGroupID:  groupID,
		IsPrimary:       primary,
	}).Error
}

func ensureRuleTx(tx *gorm.DB, node *snowflake.Node, groupID snowflake.ID, team []snowflake.ID) error {
	var count int64
	if err := tx.Model(&allocationruledomain.AllocationRule{}).
		Where("code = ?", demoRuleCode).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	enterprise := leaddomain.CustomerGroupEnterprise
	return tx.Create(&allocationruledomain.AllocationRule{
		ID:               node.Generate(),
		Code:             demoRuleCode,
		Name:             "Enterprise solar",
		CustomerGroup:    &enterprise,
		ProductGroupIDs:  datatypes.NewJSONSlice([]snowflake.ID{groupID}),
		SalesEmployeeIDs: datatypes.NewJSONSlice(team),
		IsActive:         true,
	}).Error
}
