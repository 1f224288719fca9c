package ui

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"genspec/internal/artifacts"
	"genspec/internal/catalog"
	"genspec/internal/ledger"
	"genspec/internal/report"
	"genspec/internal/session"
	"genspec/internal/store"
)

type stubRenderer struct{}

func (stubRenderer) Render(p report.Payload, dest string) error {
	return os.WriteFile(dest, []byte(p.ID), 0644)
}

type memStore struct {
	recs []store.Record
}

func (m *memStore) Save(_ context.Context, rec store.Record) (store.Record, error) {
	rec.UpdatedAt = time.Now()
	m.recs = append([]store.Record{rec}, m.recs...)
	return rec, nil
}

func (m *memStore) List(_ context.Context, limit int) ([]store.Record, error) {
	if len(m.recs) > limit {
		return m.recs[:limit], nil
	}
	return m.recs, nil
}

func newTestModel(t *testing.T) (Model, *memStore) {
	t.Helper()
	reports, err := artifacts.OpenDir(t.TempDir())
	require.NoError(t, err)
	records := &memStore{}
	s, err := session.New(session.DefaultConfig(), session.Deps{
		Reports: reports,
		PDF:     stubRenderer{},
		Records: records,
	})
	require.NoError(t, err)
	t.Cleanup(s.Close)

	styles := NewStyles(DarkTheme())
	m := New(Options{Session: s, Records: records, Styles: &styles})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(Model), records
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "right":
			msg = tea.KeyMsg{Type: tea.KeyRight}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case "space":
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
		case "ctrl+s":
			msg = tea.KeyMsg{Type: tea.KeyCtrlS}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func TestModel_SelectConfiguration(t *testing.T) {
	m, _ := newTestModel(t)

	m = press(t, m, "t", "right", "right", "right")
	v := m.opts.Session.View()
	assert.Equal(t, catalog.PhaseThree, v.Phase)
	assert.Equal(t, catalog.PowerRating(50), v.Rating)
	assert.Equal(t, "50 kW selected", m.status)
	assert.Contains(t, m.View(), "208V/480V")

	m = press(t, m, "r")
	assert.False(t, m.opts.Session.View().Selected)
	assert.Equal(t, "Selection cleared", m.status)
}

func TestModel_AddLoadForm(t *testing.T) {
	m, _ := newTestModel(t)

	m = press(t, m, "2", "a")
	require.True(t, m.addingLoad)
	m = press(t, m, "Chiller", "tab", "5000", "enter")
	assert.False(t, m.addingLoad)
	assert.False(t, m.statusErr, m.status)

	loads := m.opts.Session.View().Loads
	require.Len(t, loads, 4)
	assert.Equal(t, ledger.Load{ID: 4, Name: "Chiller", Wattage: 5000, Quantity: 1}, loads[3])
	assert.Equal(t, 3, m.loadCursor)

	m = press(t, m, "x")
	assert.Len(t, m.opts.Session.View().Loads, 3)
}

func TestModel_AddLoadRejectsBadNumbers(t *testing.T) {
	m, _ := newTestModel(t)

	m = press(t, m, "2", "a", "Bad", "tab", "lots", "enter")
	assert.True(t, m.addingLoad, "form stays open")
	assert.True(t, m.statusErr)
	assert.True(t, strings.HasPrefix(m.status, "Invalid input"))

	m = press(t, m, "esc")
	assert.False(t, m.addingLoad)
	assert.Len(t, m.opts.Session.View().Loads, 3)
}

func TestModel_ChecklistToggle(t *testing.T) {
	m, _ := newTestModel(t)

	m = press(t, m, "3", "down", "space")
	assert.True(t, m.opts.Session.View().Checklist.Done(m.items[1]))
	assert.Contains(t, m.View(), "[x]")
}

func TestModel_ProjectForm(t *testing.T) {
	m, _ := newTestModel(t)

	m = press(t, m, "4", "e", "Wing B", "enter")
	assert.False(t, m.editingProject)
	assert.Equal(t, "Wing B", m.opts.Session.View().Metadata.ProjectName)
}

func TestModel_SaveFlow(t *testing.T) {
	m, records := newTestModel(t)

	// Saving without a selection reports the problem.
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	m = next.(Model)
	require.NotNil(t, cmd)
	next, cmd = m.Update(cmd())
	m = next.(Model)
	assert.True(t, m.statusErr)
	assert.Equal(t, "Please select a configuration first", m.status)
	if cmd != nil {
		next, _ = m.Update(cmd())
		m = next.(Model)
	}

	m = press(t, m, "s", "enter")
	next, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	m = next.(Model)
	assert.True(t, m.saving)
	next, cmd = m.Update(cmd())
	m = next.(Model)
	assert.False(t, m.saving)
	assert.False(t, m.statusErr, m.status)
	assert.True(t, strings.HasPrefix(m.status, "Report saved successfully"))

	require.NotNil(t, cmd)
	next, _ = m.Update(cmd())
	m = next.(Model)
	require.Len(t, m.reports, 1)
	assert.Equal(t, records.recs[0].ID, m.reports[0].ID)

	m = press(t, m, "5")
	assert.Contains(t, m.View(), records.recs[0].ID)
}

func TestModel_Quit(t *testing.T) {
	m, _ := newTestModel(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestModel_PageCycle(t *testing.T) {
	m, _ := newTestModel(t)
	for i := range pageNames {
		assert.Equal(t, page(i), m.page)
		m = press(t, m, "tab")
	}
	assert.Equal(t, pageConfigure, m.page)
}

// =============================================================================
// COMPONENTS
// =============================================================================

func TestSimpleTable(t *testing.T) {
	table := NewSimpleTable("Test Table", []string{"Col1", "Col2"})
	table.AddRow("Row1Col1", "Row1Col2")
	table.Footer = []string{"Total", "42"}

	view := table.View(NewStyles(DarkTheme()))
	assert.Contains(t, view, "Test Table")
	assert.Contains(t, view, "Row1Col1")
	assert.Contains(t, view, "42")

	empty := NewSimpleTable("Nothing", []string{"A"})
	empty.Empty = "No rows."
	assert.Contains(t, empty.View(NewStyles(LightTheme())), "No rows.")
}

func TestUsageBar(t *testing.T) {
	assert.Equal(t, "[█████░░░░░]", UsageBar(50, 10))
	assert.Equal(t, "[██████████]", UsageBar(130, 10))
	assert.Equal(t, "[░░░░]", UsageBar(-5, 4))
	assert.Empty(t, UsageBar(50, 0))
}

func TestDetectTheme(t *testing.T) {
	t.Setenv("GENSPEC_THEME", "light")
	assert.False(t, DetectTheme().IsDark)
	t.Setenv("GENSPEC_THEME", "")
	t.Setenv("COLORFGBG", "0;15")
	assert.False(t, DetectTheme().IsDark)
	t.Setenv("COLORFGBG", "15;0")
	assert.True(t, DetectTheme().IsDark)
}

func TestReportsView_MissingDocument(t *testing.T) {
	recs := []store.Record{
		{ID: "aaa", ProjectName: "Clinic", PhaseType: "single", PowerRating: 30, Status: store.StatusCompleted, PDFPath: "/nonexistent/report.pdf"},
		{ID: "bbb", ProjectName: "Draft", PhaseType: "three", PowerRating: 60, Status: store.StatusDraft},
	}
	view := ReportsView(NewStyles(DarkTheme()), recs, 0)
	assert.Contains(t, view, "missing")
	assert.Contains(t, view, "none")
	assert.Contains(t, view, "Three Phase • 60 kW")
}
