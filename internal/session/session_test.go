package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"genspec/internal/artifacts"
	"genspec/internal/catalog"
	"genspec/internal/ledger"
	"genspec/internal/render"
	"genspec/internal/report"
	"genspec/internal/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// =============================================================================
// FAKES
// =============================================================================

// fakeRenderer writes a small file, or fails like a real renderer would.
type fakeRenderer struct {
	mu    sync.Mutex
	err   error
	calls []string
}

func (f *fakeRenderer) Render(p report.Payload, dest string) error {
	f.mu.Lock()
	f.calls = append(f.calls, dest)
	f.mu.Unlock()
	if f.err != nil {
		return fmt.Errorf("%w: %v", render.ErrRenderFailure, f.err)
	}
	return os.WriteFile(dest, []byte("doc "+p.ID), 0644)
}

type memRecorder struct {
	mu      sync.Mutex
	err     error
	records map[string]store.Record
}

func newMemRecorder() *memRecorder {
	return &memRecorder{records: make(map[string]store.Record)}
}

func (m *memRecorder) Save(_ context.Context, rec store.Record) (store.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return store.Record{}, fmt.Errorf("%w: %v", store.ErrPersistence, m.err)
	}
	m.records[rec.ID] = rec
	return rec, nil
}

func (m *memRecorder) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

type fixture struct {
	s        *Session
	dir      string
	pdf      *fakeRenderer
	workbook *fakeRenderer
	records  *memRecorder
}

func newFixture(t *testing.T, withWorkbook bool) *fixture {
	t.Helper()
	dir := t.TempDir()
	reports, err := artifacts.OpenDir(dir)
	require.NoError(t, err)

	f := &fixture{dir: dir, pdf: &fakeRenderer{}, records: newMemRecorder()}
	deps := Deps{
		Reports: reports,
		PDF:     f.pdf,
		Records: f.records,
		Clock:   func() time.Time { return fixedNow },
	}
	if withWorkbook {
		f.workbook = &fakeRenderer{}
		deps.Workbook = f.workbook
	}
	f.s, err = New(DefaultConfig(), deps)
	require.NoError(t, err)
	t.Cleanup(f.s.Close)
	return f
}

func (f *fixture) dispatch(t *testing.T, actions ...Action) {
	t.Helper()
	for _, a := range actions {
		_, err := f.s.Dispatch(context.Background(), a)
		require.NoError(t, err, a.Kind())
	}
}

func (f *fixture) files(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(f.dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

// =============================================================================
// CONSTRUCTION & VIEW
// =============================================================================

func TestNew_RequiresDeps(t *testing.T) {
	t.Parallel()

	_, err := New(DefaultConfig(), Deps{})
	assert.Error(t, err)
}

func TestView_SelectionAndAnalysis(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false)
	v := f.s.View()
	assert.False(t, v.Selected)
	assert.Equal(t, 30, v.Analysis.CapacityKW, "fallback capacity before a rating is chosen")
	assert.Len(t, v.Loads, 3)
	assert.NotEmpty(t, v.ID)

	f.dispatch(t, SelectPhase{catalog.PhaseThree}, SelectPower{50})
	v = f.s.View()
	require.True(t, v.Selected)
	assert.Equal(t, "208V/480V", v.Spec.VoltageText())
	assert.Equal(t, "175A (208V) / 80A (480V)", v.Spec.BreakerText())
	assert.Equal(t, 20000, v.Analysis.TotalWatts)
	assert.InDelta(t, 40.0, v.Analysis.UsagePercent, 1e-9)
	assert.Equal(t, ledger.Safe, v.Analysis.Classification)
	assert.Equal(t, 50, f.s.Capacity())
}

func TestNew_EmptyLedger(t *testing.T) {
	t.Parallel()

	reports, err := artifacts.OpenDir(t.TempDir())
	require.NoError(t, err)
	s, err := New(Config{}, Deps{Reports: reports, PDF: &fakeRenderer{}, Records: newMemRecorder()})
	require.NoError(t, err)
	defer s.Close()

	v := s.View()
	assert.Empty(t, v.Loads)
	assert.Equal(t, 30, v.Analysis.CapacityKW)
	assert.Equal(t, ledger.Safe, v.Analysis.Classification)
}

// =============================================================================
// ACTIONS
// =============================================================================

func TestDispatch_InvalidSelectionKeepsState(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false)
	f.dispatch(t, SelectPhase{catalog.PhaseSingle}, SelectPower{30})

	_, err := f.s.Dispatch(context.Background(), SelectPower{33})
	assert.ErrorIs(t, err, catalog.ErrNotFound)
	assert.Equal(t, "Unsupported configuration", Describe(err))

	_, err = f.s.Dispatch(context.Background(), SelectPhase{"split"})
	assert.ErrorIs(t, err, catalog.ErrNotFound)

	v := f.s.View()
	assert.Equal(t, catalog.PhaseSingle, v.Phase)
	assert.Equal(t, catalog.PowerRating(30), v.Rating)
}

func TestDispatch_Loads(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false)
	before := f.s.View().Analysis.TotalWatts

	ev, err := f.s.Dispatch(context.Background(), AddLoad{Name: "Test", Watts: 1000, Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, "add_load", ev.Action)
	assert.Equal(t, "Added Test (#4)", ev.Message)
	assert.Equal(t, "Test", f.s.View().Loads[3].Name)
	assert.Equal(t, before+2000, f.s.View().Analysis.TotalWatts)

	f.dispatch(t, RemoveLoad{ID: 4})
	assert.Equal(t, before, f.s.View().Analysis.TotalWatts)

	ev, err = f.s.Dispatch(context.Background(), RemoveLoad{ID: 99})
	require.NoError(t, err)
	assert.Equal(t, "No load #99", ev.Message)
	assert.Equal(t, before, f.s.View().Analysis.TotalWatts)

	_, err = f.s.Dispatch(context.Background(), AddLoad{Name: "Bad", Watts: -1, Quantity: 1})
	assert.ErrorIs(t, err, ledger.ErrInvalidInput)
	assert.True(t, strings.HasPrefix(Describe(err), "Invalid input"), Describe(err))
	assert.Len(t, f.s.View().Loads, 3)
}

func TestDispatch_ChecklistAndReset(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false)
	meta := report.Metadata{ProjectName: "Clinic", Contractor: "Acme Electric"}
	f.dispatch(t,
		SelectPhase{catalog.PhaseThree},
		SelectPower{60},
		ToggleChecklistItem{"No ground loops"},
		SetMetadata{meta},
		AddLoad{Name: "Chiller", Watts: 5000, Quantity: 1},
	)

	_, err := f.s.Dispatch(context.Background(), ToggleChecklistItem{"Paint the walls"})
	assert.ErrorIs(t, err, ErrUnknownItem)

	ev, err := f.s.Dispatch(context.Background(), Reset{})
	require.NoError(t, err)
	assert.Equal(t, "Selection cleared", ev.Message)

	v := f.s.View()
	assert.False(t, v.Selected)
	assert.Empty(t, v.Phase)
	assert.Zero(t, v.Rating)
	assert.True(t, v.Checklist.Done("No ground loops"))
	assert.Equal(t, meta, v.Metadata)
	assert.Len(t, v.Loads, 4)

	overall := v.Progress[len(v.Progress)-1]
	assert.Equal(t, "Overall", overall.Category)
	assert.Equal(t, 1, overall.Done)

	f.dispatch(t, ToggleChecklistItem{"No ground loops"})
	assert.False(t, f.s.View().Checklist.Done("No ground loops"))
}

type bogusAction struct{}

func (bogusAction) Kind() string { return "bogus" }

func TestDispatch_UnknownAction(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false)
	_, err := f.s.Dispatch(context.Background(), bogusAction{})
	assert.ErrorIs(t, err, ErrUnknownAction)
}

// =============================================================================
// SAVE PIPELINE
// =============================================================================

func TestSave_RequiresSelection(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)
	f.dispatch(t, SelectPhase{catalog.PhaseSingle})

	ev, err := f.s.Dispatch(context.Background(), SaveReport{})
	assert.ErrorIs(t, err, ErrNoSelection)
	assert.Nil(t, ev.Save)
	assert.Equal(t, "Please select a configuration first", Describe(err))
	assert.Empty(t, f.pdf.calls)
	assert.Zero(t, f.records.count())
}

func TestSave_Completed(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false)
	f.dispatch(t, SelectPhase{catalog.PhaseThree}, SelectPower{50})

	ev, err := f.s.Dispatch(context.Background(), SaveReport{})
	require.NoError(t, err)
	require.NotNil(t, ev.Save)
	res := *ev.Save

	assert.Equal(t, "Untitled_Project_three_50kW_20260314_093000.pdf", filepath.Base(res.PDFPath))
	assert.FileExists(t, res.PDFPath)
	assert.Empty(t, res.XLSXPath)
	assert.True(t, res.Indexed)
	assert.Equal(t, store.StatusCompleted, res.Record.Status)
	assert.Equal(t, res.PDFPath, res.Record.PDFPath)
	assert.Equal(t, report.UntitledProject, res.Record.ProjectName)
	assert.Len(t, res.Record.Loads, 3)
	assert.Equal(t, "Report saved successfully: "+filepath.Base(res.PDFPath), ev.Message)
	assert.Equal(t, 1, f.records.count())
}

func TestSave_WithWorkbook(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)
	f.dispatch(t, SelectPhase{catalog.PhaseSingle}, SelectPower{40}, SetMetadata{report.Metadata{ProjectName: "Wing B"}})

	res, err := f.s.Save(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, artifacts.Sibling(res.PDFPath, artifacts.ExtXLSX), res.XLSXPath)
	assert.FileExists(t, res.XLSXPath)
	assert.ElementsMatch(t, []string{filepath.Base(res.PDFPath), filepath.Base(res.XLSXPath)}, f.files(t))
}

func TestSave_WorkbookFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)
	f.workbook.err = errors.New("disk full")
	f.dispatch(t, SelectPhase{catalog.PhaseSingle}, SelectPower{32})

	res, err := f.s.Save(context.Background(), false)
	require.NoError(t, err)
	assert.Empty(t, res.XLSXPath)
	assert.FileExists(t, res.PDFPath)
	assert.True(t, res.Indexed)
}

func TestSave_RenderFailureIsNotPersisted(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)
	f.pdf.err = errors.New("no fonts")
	f.dispatch(t, SelectPhase{catalog.PhaseThree}, SelectPower{40})

	ev, err := f.s.Dispatch(context.Background(), SaveReport{})
	assert.ErrorIs(t, err, render.ErrRenderFailure)
	assert.Equal(t, "Failed to generate PDF", Describe(err))
	assert.Nil(t, ev.Save)
	assert.Zero(t, f.records.count())
	assert.Empty(t, f.files(t), "workbook must be removed with a failed PDF")
}

func TestSave_PersistenceFailureKeepsDocument(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false)
	f.records.err = errors.New("database is locked")
	f.dispatch(t, SelectPhase{catalog.PhaseSingle}, SelectPower{60})

	ev, err := f.s.Dispatch(context.Background(), SaveReport{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotIndexed)
	assert.ErrorIs(t, err, store.ErrPersistence)
	assert.Equal(t, "Document created, but not indexed", Describe(err))

	require.NotNil(t, ev.Save)
	assert.False(t, ev.Save.Indexed)
	assert.FileExists(t, ev.Save.PDFPath)
	assert.Contains(t, ev.Save.Summary(), "not indexed")
}

func TestSave_Draft(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)
	f.dispatch(t, SelectPhase{catalog.PhaseSingle}, SelectPower{50})

	ev, err := f.s.Dispatch(context.Background(), SaveReport{Draft: true})
	require.NoError(t, err)
	require.NotNil(t, ev.Save)
	assert.Equal(t, store.StatusDraft, ev.Save.Record.Status)
	assert.Empty(t, ev.Save.Record.PDFPath)
	assert.Empty(t, ev.Save.PDFPath)
	assert.Empty(t, f.pdf.calls)
	assert.Empty(t, f.files(t))
	assert.True(t, strings.HasPrefix(ev.Message, "Draft "))
}

func TestSave_LedgerChangesAfterSave(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false)
	f.dispatch(t, SelectPhase{catalog.PhaseThree}, SelectPower{30})

	res, err := f.s.Save(context.Background(), false)
	require.NoError(t, err)
	f.dispatch(t, AddLoad{Name: "Late", Watts: 10, Quantity: 1})

	assert.Len(t, res.Payload.Loads, 3)
	assert.Len(t, res.Record.Loads, 3)
}

func TestSave_SameSecondKeepsBothDocuments(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)
	f.dispatch(t, SelectPhase{catalog.PhaseThree}, SelectPower{50})

	first, err := f.s.Save(context.Background(), false)
	require.NoError(t, err)
	second, err := f.s.Save(context.Background(), false)
	require.NoError(t, err)

	assert.NotEqual(t, first.Record.ID, second.Record.ID)
	assert.NotEqual(t, first.PDFPath, second.PDFPath)
	assert.Equal(t, "Untitled_Project_three_50kW_20260314_093000_2.pdf", filepath.Base(second.PDFPath))
	assert.Equal(t, artifacts.Sibling(second.PDFPath, artifacts.ExtXLSX), second.XLSXPath)

	got, err := os.ReadFile(first.PDFPath)
	require.NoError(t, err)
	assert.Equal(t, "doc "+first.Record.ID, string(got))
	got, err = os.ReadFile(second.PDFPath)
	require.NoError(t, err)
	assert.Equal(t, "doc "+second.Record.ID, string(got))

	assert.Len(t, f.files(t), 4)
	assert.Equal(t, 2, f.records.count())
}

// =============================================================================
// ASYNC
// =============================================================================

func TestSaveAsync(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)
	f.dispatch(t, SelectPhase{catalog.PhaseThree}, SelectPower{60})

	out := <-f.s.SaveAsync(context.Background(), false)
	require.NoError(t, out.Err)
	assert.True(t, out.Result.Indexed)
	assert.FileExists(t, out.Result.PDFPath)
}

func TestSaveAsync_AbandonedCallerDoesNotLeak(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false)
	f.dispatch(t, SelectPhase{catalog.PhaseSingle}, SelectPower{30})

	for i := 0; i < 3; i++ {
		_ = f.s.SaveAsync(context.Background(), false)
	}
	f.s.Close()
	assert.Equal(t, 3, f.records.count())
	assert.Len(t, f.files(t), 3, "each save keeps its own document")
}

func TestSaveAsync_Error(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false)
	out := <-f.s.SaveAsync(context.Background(), false)
	assert.ErrorIs(t, out.Err, ErrNoSelection)
}

// =============================================================================
// END TO END
// =============================================================================

func TestSave_RealRendererAndStore(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	reports, err := artifacts.OpenDir(filepath.Join(dir, "reports"))
	require.NoError(t, err)
	st, err := store.Open(filepath.Join(dir, "reports.db"), store.DriverPureGo)
	require.NoError(t, err)
	defer st.Close()

	s, err := New(DefaultConfig(), Deps{
		Reports:  reports,
		PDF:      render.NewPDF(render.DefaultOptions()),
		Workbook: render.NewWorkbook(),
		Records:  st,
	})
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	_, err = s.Dispatch(ctx, SetMetadata{report.Metadata{ProjectName: "Radiology Wing B", LicenseNumber: "EL-4471"}})
	require.NoError(t, err)
	_, err = s.Dispatch(ctx, SelectPhase{catalog.PhaseThree})
	require.NoError(t, err)
	_, err = s.Dispatch(ctx, SelectPower{50})
	require.NoError(t, err)
	_, err = s.Dispatch(ctx, ToggleChecklistItem{"Review local codes"})
	require.NoError(t, err)

	res, err := s.Save(ctx, false)
	require.NoError(t, err)
	assert.FileExists(t, res.PDFPath)
	assert.FileExists(t, res.XLSXPath)

	rec, err := st.Get(ctx, res.Payload.ID)
	require.NoError(t, err)
	assert.Equal(t, "Radiology Wing B", rec.ProjectName)
	assert.Equal(t, "EL-4471", rec.LicenseNumber)
	assert.Equal(t, 50, rec.PowerRating)
	assert.Equal(t, store.StatusCompleted, rec.Status)
	assert.Len(t, rec.Loads, 3)
	assert.True(t, rec.Checklist.Done("Review local codes"))
	assert.True(t, artifacts.Exists(rec.PDFPath))
}

// =============================================================================
// DESCRIBE
// =============================================================================

func TestDescribe(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{fmt.Errorf("%w: x", store.ErrNotFound), "Report not found"},
		{fmt.Errorf("%w: x", store.ErrPersistence), "Failed to save report record"},
		{fmt.Errorf("%w: x", ErrUnknownItem), "Unknown checklist item"},
		{errors.New("boom"), "boom"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Describe(tt.err))
	}
}
