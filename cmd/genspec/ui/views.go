package ui

import (
	"fmt"
	"strconv"
	"strings"

	"genspec/internal/artifacts"
	"genspec/internal/catalog"
	"genspec/internal/checklist"
	"genspec/internal/ledger"
	"genspec/internal/render"
	"genspec/internal/store"
)

// =============================================================================
// SPECIFICATIONS
// =============================================================================

// SpecView renders the banner, the 8-row specification table and the notes.
func SpecView(s Styles, phase catalog.PhaseType, rating catalog.PowerRating, spec catalog.Specification) string {
	var sb strings.Builder
	sb.WriteString(s.Badge.Render(phase.Label()) + " " + s.Badge.Render(rating.String()))
	sb.WriteString("\n\n")

	t := NewSimpleTable("Electrical Specifications", []string{"Parameter", "Value"})
	for _, row := range spec.Rows() {
		t.AddRow(row.Label, row.Value)
	}
	sb.WriteString(t.View(s))
	sb.WriteString("\n")
	sb.WriteString(s.Bold.Render("Notes") + "\n")
	sb.WriteString(s.Muted.Render(spec.Notes) + "\n")
	return sb.String()
}

// CatalogView lists every catalog entry.
func CatalogView(s Styles, entries []catalog.Entry) string {
	t := NewSimpleTable("Specification Catalog", []string{"Phase", "Rating", "Voltage", "Breaker", "Conduit"})
	for _, e := range entries {
		t.AddRow(e.Phase.Label(), e.Rating.String(), e.Spec.VoltageText(), e.Spec.BreakerText(), e.Spec.ConduitSize)
	}
	return t.View(s)
}

// =============================================================================
// LOADS
// =============================================================================

// LoadsView renders the load table with a total row and the analysis
// summary. cursor marks a row, -1 for none.
func LoadsView(s Styles, loads []ledger.Load, a ledger.Analysis, cursor int) string {
	t := NewSimpleTable("Load Analysis", []string{" ", "#", "Equipment", "Watts", "Qty", "Total"})
	t.Empty = "No loads. Press a to add one."
	for i, l := range loads {
		mark := " "
		if i == cursor {
			mark = s.Cursor.Render(">")
		}
		t.AddRow(mark, strconv.Itoa(l.ID), l.Name, render.Watts(l.Wattage), strconv.Itoa(l.Quantity), render.Watts(l.TotalWatts()))
	}
	if len(loads) > 0 {
		t.Footer = []string{"", "", "Total", "", "", render.Watts(a.TotalWatts)}
	}

	var sb strings.Builder
	sb.WriteString(t.View(s))
	sb.WriteString("\n")
	sb.WriteString(AnalysisView(s, a))
	return sb.String()
}

// AnalysisView renders "20.0 kW of 50 kW (40.0%) SAFE" and a usage bar.
func AnalysisView(s Styles, a ledger.Analysis) string {
	status := s.Classification(a.Classification).Render(a.Classification.Label())
	line := fmt.Sprintf("%.1f kW of %d kW (%s) ", a.TotalKW(), a.CapacityKW, render.Percent(a.UsagePercent))
	return s.Body.Render(line) + status + "\n" + s.Classification(a.Classification).Render(UsageBar(a.UsagePercent, 40)) + "\n"
}

// UsageBar draws pct as a bar width cells wide, capped at 100%.
func UsageBar(pct float64, width int) string {
	if width <= 0 {
		return ""
	}
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := int(pct / 100 * float64(width))
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + "]"
}

// =============================================================================
// CHECKLIST
// =============================================================================

// ChecklistItems returns every checklist label in display order.
func ChecklistItems() []string {
	var items []string
	for _, c := range checklist.Taxonomy() {
		items = append(items, c.Items...)
	}
	return items
}

// ChecklistView renders the taxonomy with done marks. cursor indexes
// ChecklistItems, -1 for none.
func ChecklistView(s Styles, state checklist.State, cursor int) string {
	var sb strings.Builder
	i := 0
	for _, c := range checklist.Taxonomy() {
		sb.WriteString(s.Title.Render(c.Name) + "\n")
		for _, item := range c.Items {
			mark := "  "
			if i == cursor {
				mark = s.Cursor.Render("> ")
			}
			box := s.Muted.Render("[ ]")
			if state.Done(item) {
				box = s.Success.Render("[x]")
			}
			fmt.Fprintf(&sb, "%s%s %s\n", mark, box, s.Body.Render(item))
			i++
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// ProgressView renders done/total per category.
func ProgressView(s Styles, progress []checklist.Progress) string {
	t := NewSimpleTable("Checklist Progress", []string{"Category", "Done", "Percent"})
	for _, p := range progress {
		row := []string{p.Category, fmt.Sprintf("%d/%d", p.Done, p.Total), render.Percent(p.Percent())}
		if p.Category == "Overall" {
			t.Footer = row
			continue
		}
		t.AddRow(row...)
	}
	return t.View(s)
}

// =============================================================================
// REPORT HISTORY
// =============================================================================

// ReportsView lists stored records, flagging documents that no longer exist.
// cursor marks a row, -1 for none.
func ReportsView(s Styles, recs []store.Record, cursor int) string {
	t := NewSimpleTable("Reports", []string{" ", "ID", "Project", "Config", "Status", "Updated", "Document"})
	t.Empty = "No reports saved yet."
	for i, r := range recs {
		mark := " "
		if i == cursor {
			mark = s.Cursor.Render(">")
		}
		t.AddRow(mark, r.ID, r.ProjectName, configText(r), string(r.Status), r.UpdatedAt.Local().Format("2006-01-02 15:04"), documentState(r))
	}
	return t.View(s)
}

// RecordView renders one stored record in full.
func RecordView(s Styles, r store.Record) string {
	var sb strings.Builder
	t := NewSimpleTable("Report "+r.ID, []string{"Field", "Value"})
	t.AddRow("Project", r.ProjectName)
	t.AddRow("Configuration", configText(r))
	t.AddRow("Status", string(r.Status))
	t.AddRow("Address", orDash(r.Address))
	t.AddRow("Contractor", orDash(r.Contractor))
	t.AddRow("Electrician", orDash(r.Electrician))
	t.AddRow("License #", orDash(r.LicenseNumber))
	t.AddRow("Created", r.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	t.AddRow("Updated", r.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
	t.AddRow("Document", orDash(r.PDFPath)+" ("+documentState(r)+")")
	sb.WriteString(t.View(s))
	sb.WriteString("\n")

	if a, err := ledger.Analyze(r.Loads, r.PowerRating); err == nil {
		sb.WriteString(LoadsView(s, r.Loads, a, -1))
	}
	sb.WriteString("\n")
	sb.WriteString(ProgressView(s, r.Checklist.Progress()))
	if r.CustomNotes != "" {
		sb.WriteString("\n" + s.Bold.Render("Project Notes") + "\n" + s.Body.Render(r.CustomNotes) + "\n")
	}
	return sb.String()
}

func configText(r store.Record) string {
	phase := catalog.PhaseType(r.PhaseType)
	label := r.PhaseType
	if phase.Valid() {
		label = phase.Label()
	}
	return fmt.Sprintf("%s • %d kW", label, r.PowerRating)
}

func documentState(r store.Record) string {
	switch {
	case r.PDFPath == "":
		return "none"
	case artifacts.Exists(r.PDFPath):
		return "ok"
	default:
		return "missing"
	}
}

func orDash(v string) string {
	if v == "" {
		return "-"
	}
	return v
}
