package importer

import "fmt"

// ValidateMappings checks the presence rules that gate an insert.
func ValidateMappings(mappings []Mapping) error {
	if len(mappings) == 0 {
		return ErrNoMappings
	}
	for i, m := range mappings {
		if !m.Complete() {
			return fmt.Errorf("mapping %d: %w", i+1, ErrIncompleteMapping)
		}
	}
	return nil
}

// tablePlan is the set of mappings that target one destination table.
type tablePlan struct {
	table   string
	sources []string
	columns []string
}

// groupByTable keeps destination tables in the order they first appear.
func groupByTable(mappings []Mapping) []*tablePlan {
	var plans []*tablePlan
	index := make(map[string]*tablePlan)
	for _, m := range mappings {
		plan, ok := index[m.DestTable]
		if !ok {
			plan = &tablePlan{table: m.DestTable}
			index[m.DestTable] = plan
			plans = append(plans, plan)
		}
		plan.sources = append(plan.sources, m.SourceField)
		plan.columns = append(plan.columns, m.DestColumn)
	}
	return plans
}
