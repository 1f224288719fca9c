package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"

	"genspec/internal/catalog"
)

var pageHelp = map[page]string{
	pageConfigure: "s/t phase • ←/→ rating • r reset • ctrl+s save • ctrl+d draft",
	pageLoads:     "a add • x remove • ↑/↓ select",
	pageChecklist: "space toggle • ↑/↓ select",
	pageProject:   "e edit • enter apply • esc cancel",
	pageReports:   "r refresh • ↑/↓ select",
	pageFAQ:       "pgup/pgdown scroll",
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	var sb strings.Builder
	sb.WriteString(m.styles.Header.Render("MAVEN IMAGING • Generator Specifications"))
	sb.WriteString("\n")
	sb.WriteString(m.tabs())
	sb.WriteString("\n\n")
	sb.WriteString(m.viewport.View())
	sb.WriteString("\n\n")

	switch {
	case m.saving:
		sb.WriteString(m.styles.Info.Render(m.status))
	case m.statusErr:
		sb.WriteString(m.styles.Error.Render(m.status))
	default:
		sb.WriteString(m.styles.Success.Render(m.status))
	}
	sb.WriteString("\n")
	sb.WriteString(m.styles.Footer.Render(pageHelp[m.page] + " • tab pages • q quit"))
	return sb.String()
}

func (m Model) tabs() string {
	tabs := make([]string, len(pageNames))
	for i, name := range pageNames {
		if page(i) == m.page {
			tabs[i] = m.styles.ActiveTab.Render(name)
		} else {
			tabs[i] = m.styles.Tab.Render(name)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

// content renders the active page body shown in the viewport.
func (m Model) content() string {
	s := m.styles
	v := m.opts.Session.View()

	switch m.page {
	case pageConfigure:
		var sb strings.Builder
		sb.WriteString(s.Title.Render("Phase") + "\n")
		for _, p := range catalog.Phases() {
			sb.WriteString(m.option(p.Label(), p == v.Phase) + "  ")
		}
		sb.WriteString("\n\n" + s.Title.Render("Power Rating") + "\n")
		for i, r := range catalog.Ratings() {
			label := r.String()
			if i == m.ratingIdx {
				label = "<" + label + ">"
			}
			sb.WriteString(m.option(label, r == v.Rating) + "  ")
		}
		sb.WriteString("\n\n")
		if v.Selected {
			sb.WriteString(SpecView(s, v.Phase, v.Rating, v.Spec))
		} else {
			sb.WriteString(s.Muted.Render("Select a phase (s/t) and a power rating (←/→) to see the specification."))
			sb.WriteString("\n")
		}
		return sb.String()

	case pageLoads:
		cursor := m.loadCursor
		if m.addingLoad {
			cursor = -1
		}
		out := LoadsView(s, v.Loads, v.Analysis, cursor)
		if m.addingLoad {
			out += "\n" + s.Card.Render(s.Title.Render("Add New Load")+"\n"+formView(m.loadForm)) + "\n"
		}
		return out

	case pageChecklist:
		return ChecklistView(s, v.Checklist, m.checkCursor) + ProgressView(s, v.Progress)

	case pageProject:
		if m.editingProject {
			return s.Card.Render(s.Title.Render("Project Information")+"\n"+formView(m.projectForm)) + "\n"
		}
		t := NewSimpleTable("Project Information", []string{"Field", "Value"})
		meta := v.Metadata
		t.AddRow("Project Name", orDash(meta.ProjectName))
		t.AddRow("Address", orDash(meta.Address))
		t.AddRow("Contractor", orDash(meta.Contractor))
		t.AddRow("Electrician", orDash(meta.Electrician))
		t.AddRow("License #", orDash(meta.LicenseNumber))
		t.AddRow("Notes", orDash(meta.CustomNotes))
		return t.View(s)

	case pageReports:
		if m.opts.Records == nil {
			return s.Muted.Render("Report history is not available.") + "\n"
		}
		out := ReportsView(s, m.reports, m.reportCursor)
		if m.reportCursor < len(m.reports) {
			out += "\n" + RecordView(s, m.reports[m.reportCursor])
		}
		return out

	case pageFAQ:
		return m.faq
	}
	return ""
}

func (m Model) option(label string, selected bool) string {
	if selected {
		return m.styles.Badge.Render(label)
	}
	return m.styles.Tab.Render(label)
}

func formView(form []textinput.Model) string {
	lines := make([]string, len(form))
	for i, f := range form {
		lines[i] = f.View()
	}
	return strings.Join(lines, "\n")
}
