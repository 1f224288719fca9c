// Package checklist holds the installation safety checklist taxonomy and the
// per-report completion state.
package checklist

import (
	"encoding/json"
	"sort"
)

// Category is a named group of checklist items.
type Category struct {
	Name  string
	Items []string
}

var taxonomy = []Category{
	{"Pre-Installation", []string{
		"Verify all permits obtained",
		"Review local codes",
		"Confirm specs with manufacturer",
		"Schedule inspections",
	}},
	{"Electrical System", []string{
		"Dedicated circuit installed",
		"Proper wire gauge verified",
		"Breaker size matches specs",
		"Connections properly torqued",
	}},
	{"Grounding", []string{
		"Ground rod depth (8ft min)",
		"Ground resistance (<1Ω)",
		"Isolated ground installed",
		"No ground loops",
	}},
	{"Power Quality", []string{
		"Voltage within ±5%",
		"THD within limits (<5%)",
		"Power quality monitor installed",
	}},
}

// Taxonomy returns a copy of the fixed category list in display order.
func Taxonomy() []Category {
	out := make([]Category, len(taxonomy))
	for i, c := range taxonomy {
		out[i] = Category{Name: c.Name, Items: append([]string(nil), c.Items...)}
	}
	return out
}

// Known reports whether label is an item in the taxonomy.
func Known(label string) bool {
	for _, c := range taxonomy {
		for _, item := range c.Items {
			if item == label {
				return true
			}
		}
	}
	return false
}

// State maps item labels to completion. Absent labels are incomplete.
type State map[string]bool

// Toggle flips label and returns its new value.
func (s State) Toggle(label string) bool {
	s[label] = !s[label]
	return s[label]
}

// Set marks label done or open.
func (s State) Set(label string, done bool) { s[label] = done }

// Done reports whether label is complete.
func (s State) Done(label string) bool { return s[label] }

// Clone returns an independent copy.
func (s State) Clone() State {
	out := make(State, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Labels returns the keys in sorted order.
func (s State) Labels() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// MarshalJSON encodes nil as {} so stored records always hold an object.
func (s State) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]bool(s))
}

// Progress counts completed items.
type Progress struct {
	Category string
	Done     int
	Total    int
}

// Percent returns Done/Total as a percentage, 0 for an empty category.
func (p Progress) Percent() float64 {
	if p.Total == 0 {
		return 0
	}
	return float64(p.Done) / float64(p.Total) * 100
}

// Progress returns per-category progress followed by an overall entry
// named "Overall". Labels outside the taxonomy are not counted.
func (s State) Progress() []Progress {
	out := make([]Progress, 0, len(taxonomy)+1)
	overall := Progress{Category: "Overall"}
	for _, c := range taxonomy {
		p := Progress{Category: c.Name, Total: len(c.Items)}
		for _, item := range c.Items {
			if s[item] {
				p.Done++
			}
		}
		overall.Done += p.Done
		overall.Total += p.Total
		out = append(out, p)
	}
	return append(out, overall)
}
