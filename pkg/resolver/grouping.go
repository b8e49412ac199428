package resolver

import (
	"github.com/depscope/depscope/pkg/report"
)

// GroupingRules configures how records are grouped into logical
// application components.
type GroupingRules struct {
	// NameAnnotation, when set, names the component directly and wins over
	// any label key. Deployments that stamp a component-name annotation on
	// their resources use this.
	NameAnnotation string

	// LabelKeys are checked in order; the first key present on a record is
	// authoritative and its value becomes the component name.
	LabelKeys []string
}

// DefaultGroupingRules groups by the conventional application labels.
func DefaultGroupingRules() GroupingRules {
	return GroupingRules{
		LabelKeys: []string{
			"app.kubernetes.io/part-of",
			"app.kubernetes.io/name",
			"app",
		},
	}
}

// Groups partitions every record into component groups, in first-seen
// order. Records matching no rule land in the ungrouped bucket, which is
// always the last group returned, even when empty, so it is never silently
// dropped from the report. The union of all members equals the full record
// set with no duplicates.
func (r *Resolver) Groups(rules GroupingRules) []report.ComponentGroup {
	var order []string
	members := make(map[string][]report.Identity)

	add := func(name string, id report.Identity) {
		if _, ok := members[name]; !ok {
			order = append(order, name)
		}
		members[name] = append(members[name], id)
	}

	for _, kind := range r.kinds {
		for _, rec := range r.records[kind] {
			name := componentName(rec, rules)
			if name == "" {
				members[report.UngroupedComponent] = append(members[report.UngroupedComponent], rec.Identity)
				continue
			}
			add(name, rec.Identity)
		}
	}

	groups := make([]report.ComponentGroup, 0, len(order)+1)
	for _, name := range order {
		groups = append(groups, report.ComponentGroup{Name: name, Members: members[name]})
	}
	groups = append(groups, report.ComponentGroup{
		Name:    report.UngroupedComponent,
		Members: members[report.UngroupedComponent],
	})
	return groups
}

// componentName applies the rules in precedence order: annotation first,
// then label keys in their configured order.
func componentName(rec *report.ResourceRecord, rules GroupingRules) string {
	if rules.NameAnnotation != "" {
		if v := rec.Annotations[rules.NameAnnotation]; v != "" {
			return v
		}
	}
	for _, key := range rules.LabelKeys {
		if v := rec.Labels[key]; v != "" {
			return v
		}
	}
	return ""
}
