package ui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"genspec/internal/artifacts"
	"genspec/internal/catalog"
	"genspec/internal/faq"
	"genspec/internal/logging"
	"genspec/internal/report"
	"genspec/internal/session"
	"genspec/internal/store"
)

type page int

const (
	pageConfigure page = iota
	pageLoads
	pageChecklist
	pageProject
	pageReports
	pageFAQ
)

var pageNames = []string{"Configure", "Loads", "Checklist", "Project", "Reports", "FAQ"}

const (
	headerHeight = 3 // header + tabs + blank
	footerHeight = 3 // blank + status + help
)

// Lister lists stored report records.
type Lister interface {
	List(ctx context.Context, limit int) ([]store.Record, error)
}

// Options configures the interactive model.
type Options struct {
	Session   *session.Session
	Records   Lister             // optional; enables the Reports page
	Watcher   *artifacts.Watcher // optional; refreshes Reports on file changes
	ListLimit int
	Styles    *Styles
}

// Model is the bubbletea model for the interactive report builder.
type Model struct {
	opts   Options
	styles Styles

	page     page
	width    int
	height   int
	ready    bool
	viewport viewport.Model

	ratingIdx int

	loadCursor int
	addingLoad bool
	loadForm   []textinput.Model
	loadFocus  int

	items       []string
	checkCursor int

	editingProject bool
	projectForm    []textinput.Model
	projectFocus   int

	reports      []store.Record
	reportCursor int

	faq string

	saving    bool
	status    string
	statusErr bool
}

// Messages
type (
	saveDoneMsg struct{ outcome session.Outcome }
	artifactMsg struct{ event artifacts.Event }
	reportsMsg  struct {
		recs []store.Record
		err  error
	}
)

// New creates the model.
func New(opts Options) Model {
	styles := DefaultStyles()
	if opts.Styles != nil {
		styles = *opts.Styles
	}
	if opts.ListLimit <= 0 {
		opts.ListLimit = store.DefaultListLimit
	}

	m := Model{
		opts:        opts,
		styles:      styles,
		items:       ChecklistItems(),
		loadForm:    newForm(styles, "Name", "Watts", "Quantity"),
		projectForm: newForm(styles, "Project Name", "Address", "Contractor", "Electrician", "License #", "Notes"),
		viewport:    viewport.New(80, 20),
		faq:         renderFAQ(styles),
	}
	m.loadForm[0].Placeholder = "e.g., X-Ray Tube"
	m.loadForm[1].Placeholder = "e.g., 15000"
	m.loadForm[2].Placeholder = "1"
	return m
}

func newForm(styles Styles, labels ...string) []textinput.Model {
	form := make([]textinput.Model, len(labels))
	for i, label := range labels {
		ti := textinput.New()
		ti.Prompt = fmt.Sprintf("%-14s", label)
		ti.PromptStyle = styles.Prompt
		ti.TextStyle = styles.Body
		ti.CharLimit = 256
		ti.Width = 48
		form[i] = ti
	}
	return form
}

func renderFAQ(styles Styles) string {
	md := faq.Markdown(faq.All())
	style := "light"
	if styles.Theme.IsDark {
		style = "dark"
	}
	r, err := glamour.NewTermRenderer(glamour.WithStylePath(style), glamour.WithWordWrap(80))
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}

// Run starts the interactive program and blocks until it exits.
func Run(opts Options) error {
	_, err := tea.NewProgram(New(opts), tea.WithAltScreen()).Run()
	return err
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadReports(), m.waitForArtifact())
}

func (m Model) loadReports() tea.Cmd {
	if m.opts.Records == nil {
		return nil
	}
	records, limit := m.opts.Records, m.opts.ListLimit
	return func() tea.Msg {
		recs, err := records.List(context.Background(), limit)
		return reportsMsg{recs: recs, err: err}
	}
}

func (m Model) waitForArtifact() tea.Cmd {
	if m.opts.Watcher == nil {
		return nil
	}
	events := m.opts.Watcher.Events()
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return artifactMsg{event: ev}
	}
}

// =============================================================================
// UPDATE
// =============================================================================

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		h := msg.Height - headerHeight - footerHeight
		if h < 1 {
			h = 1
		}
		m.viewport.Width = msg.Width
		m.viewport.Height = h
		m.ready = true

	case saveDoneMsg:
		m.saving = false
		if err := msg.outcome.Err; err != nil {
			m.setStatus(session.Describe(err), true)
			if errors.Is(err, session.ErrNotIndexed) {
				m.status += ": " + msg.outcome.Result.PDFPath
			}
		} else {
			m.setStatus(msg.outcome.Result.Summary(), false)
		}
		cmd = m.loadReports()

	case artifactMsg:
		logging.UIDebug("Artifact %s %s", msg.event.Op, msg.event.Path)
		cmd = tea.Batch(m.loadReports(), m.waitForArtifact())

	case reportsMsg:
		if msg.err != nil {
			m.setStatus(session.Describe(msg.err), true)
		} else {
			m.reports = msg.recs
			if m.reportCursor >= len(m.reports) {
				m.reportCursor = max(len(m.reports)-1, 0)
			}
		}

	case tea.KeyMsg:
		var quit bool
		m, cmd, quit = m.handleKey(msg)
		if quit {
			return m, tea.Quit
		}
	}

	m.viewport.SetContent(m.content())
	return m, cmd
}

func (m *Model) setStatus(text string, isErr bool) {
	m.status = text
	m.statusErr = isErr
}

func (m *Model) dispatch(a session.Action) {
	ev, err := m.opts.Session.Dispatch(context.Background(), a)
	if err != nil {
		m.setStatus(session.Describe(err), true)
		return
	}
	m.setStatus(ev.Message, false)
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd, bool) {
	key := msg.String()
	if key == "ctrl+c" {
		return m, nil, true
	}

	// Forms capture all keys while open.
	if m.addingLoad {
		return m.handleLoadForm(msg)
	}
	if m.editingProject {
		return m.handleProjectForm(msg)
	}

	switch key {
	case "q":
		return m, nil, true
	case "tab":
		m.page = (m.page + 1) % page(len(pageNames))
		return m, nil, false
	case "shift+tab":
		m.page = (m.page + page(len(pageNames)) - 1) % page(len(pageNames))
		return m, nil, false
	case "1", "2", "3", "4", "5", "6":
		m.page = page(key[0] - '1')
		return m, nil, false
	case "ctrl+s", "ctrl+d":
		var cmd tea.Cmd
		m, cmd = m.save(key == "ctrl+d")
		return m, cmd, false
	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd, false
	}

	switch m.page {
	case pageConfigure:
		m.handleConfigureKey(key)
	case pageLoads:
		return m.handleLoadsKey(key)
	case pageChecklist:
		m.handleChecklistKey(key)
	case pageProject:
		if key == "e" || key == "enter" {
			return m.startProjectEdit()
		}
	case pageReports:
		switch key {
		case "up", "k":
			if m.reportCursor > 0 {
				m.reportCursor--
			}
		case "down", "j":
			if m.reportCursor < len(m.reports)-1 {
				m.reportCursor++
			}
		case "r":
			return m, m.loadReports(), false
		}
	}
	return m, nil, false
}

func (m Model) save(draft bool) (Model, tea.Cmd) {
	if m.saving {
		return m, nil
	}
	m.saving = true
	m.setStatus("Generating PDF...", false)
	if draft {
		m.setStatus("Saving draft...", false)
	}
	ch := m.opts.Session.SaveAsync(context.Background(), draft)
	return m, func() tea.Msg {
		return saveDoneMsg{outcome: <-ch}
	}
}

func (m *Model) handleConfigureKey(key string) {
	ratings := catalog.Ratings()
	switch key {
	case "s":
		m.dispatch(session.SelectPhase{Phase: catalog.PhaseSingle})
	case "t":
		m.dispatch(session.SelectPhase{Phase: catalog.PhaseThree})
	case "left", "h":
		if m.ratingIdx > 0 {
			m.ratingIdx--
		}
		m.dispatch(session.SelectPower{Rating: ratings[m.ratingIdx]})
	case "right", "l":
		if m.ratingIdx < len(ratings)-1 {
			m.ratingIdx++
		}
		m.dispatch(session.SelectPower{Rating: ratings[m.ratingIdx]})
	case "enter":
		m.dispatch(session.SelectPower{Rating: ratings[m.ratingIdx]})
	case "r":
		m.dispatch(session.Reset{})
	}
}

func (m Model) handleLoadsKey(key string) (Model, tea.Cmd, bool) {
	loads := m.opts.Session.View().Loads
	switch key {
	case "up", "k":
		if m.loadCursor > 0 {
			m.loadCursor--
		}
	case "down", "j":
		if m.loadCursor < len(loads)-1 {
			m.loadCursor++
		}
	case "x", "delete":
		if m.loadCursor < len(loads) {
			m.dispatch(session.RemoveLoad{ID: loads[m.loadCursor].ID})
			if m.loadCursor > 0 && m.loadCursor >= len(loads)-1 {
				m.loadCursor--
			}
		}
	case "a":
		m.addingLoad = true
		m.loadFocus = 0
		for i := range m.loadForm {
			m.loadForm[i].SetValue("")
			m.loadForm[i].Blur()
		}
		m.loadForm[2].SetValue("1")
		return m, m.loadForm[0].Focus(), false
	}
	return m, nil, false
}

func (m *Model) handleChecklistKey(key string) {
	switch key {
	case "up", "k":
		if m.checkCursor > 0 {
			m.checkCursor--
		}
	case "down", "j":
		if m.checkCursor < len(m.items)-1 {
			m.checkCursor++
		}
	case " ", "enter", "x":
		m.dispatch(session.ToggleChecklistItem{Label: m.items[m.checkCursor]})
	}
}

// =============================================================================
// FORMS
// =============================================================================

func focusForm(form []textinput.Model, focus int) tea.Cmd {
	var cmd tea.Cmd
	for i := range form {
		if i == focus {
			cmd = form[i].Focus()
		} else {
			form[i].Blur()
		}
	}
	return cmd
}

// moveFocus handles tab navigation; ok is false for other keys.
func moveFocus(key string, focus, n int) (int, bool) {
	switch key {
	case "tab", "down":
		return (focus + 1) % n, true
	case "shift+tab", "up":
		return (focus + n - 1) % n, true
	}
	return focus, false
}

func (m Model) handleLoadForm(msg tea.KeyMsg) (Model, tea.Cmd, bool) {
	key := msg.String()
	if next, ok := moveFocus(key, m.loadFocus, len(m.loadForm)); ok {
		m.loadFocus = next
		return m, focusForm(m.loadForm, next), false
	}

	switch key {
	case "esc":
		m.addingLoad = false
		focusForm(m.loadForm, -1)
		m.setStatus("Add load cancelled", false)
		return m, nil, false
	case "enter":
		m.submitLoad()
		return m, nil, false
	}

	var cmd tea.Cmd
	m.loadForm[m.loadFocus], cmd = m.loadForm[m.loadFocus].Update(msg)
	return m, cmd, false
}

func (m *Model) submitLoad() {
	name := strings.TrimSpace(m.loadForm[0].Value())
	watts, err := strconv.Atoi(strings.TrimSpace(m.loadForm[1].Value()))
	if err != nil {
		m.setStatus("Invalid input: watts must be a whole number", true)
		return
	}
	qtyText := strings.TrimSpace(m.loadForm[2].Value())
	qty := 1
	if qtyText != "" {
		if qty, err = strconv.Atoi(qtyText); err != nil {
			m.setStatus("Invalid input: quantity must be a whole number", true)
			return
		}
	}

	m.dispatch(session.AddLoad{Name: name, Watts: watts, Quantity: qty})
	if m.statusErr {
		return
	}
	m.addingLoad = false
	focusForm(m.loadForm, -1)
	m.loadCursor = len(m.opts.Session.View().Loads) - 1
}

func (m Model) startProjectEdit() (Model, tea.Cmd, bool) {
	meta := m.opts.Session.View().Metadata
	values := []string{meta.ProjectName, meta.Address, meta.Contractor, meta.Electrician, meta.LicenseNumber, meta.CustomNotes}
	for i, v := range values {
		m.projectForm[i].SetValue(v)
	}
	m.editingProject = true
	m.projectFocus = 0
	return m, focusForm(m.projectForm, 0), false
}

func (m Model) handleProjectForm(msg tea.KeyMsg) (Model, tea.Cmd, bool) {
	key := msg.String()
	if next, ok := moveFocus(key, m.projectFocus, len(m.projectForm)); ok {
		m.projectFocus = next
		return m, focusForm(m.projectForm, next), false
	}

	switch key {
	case "esc":
		m.editingProject = false
		focusForm(m.projectForm, -1)
		m.setStatus("Edit cancelled", false)
		return m, nil, false
	case "enter":
		v := func(i int) string { return strings.TrimSpace(m.projectForm[i].Value()) }
		m.dispatch(session.SetMetadata{Metadata: report.Metadata{
			ProjectName:   v(0),
			Address:       v(1),
			Contractor:    v(2),
			Electrician:   v(3),
			LicenseNumber: v(4),
			CustomNotes:   v(5),
		}})
		m.editingProject = false
		focusForm(m.projectForm, -1)
		return m, nil, false
	}

	var cmd tea.Cmd
	m.projectForm[m.projectFocus], cmd = m.projectForm[m.projectFocus].Update(msg)
	return m, cmd, false
}
