// Package session drives one report-building session: the configuration
// selection, the load ledger, checklist progress and project details, plus
// the save pipeline that renders and indexes a report.
//
// All state changes go through discrete actions (see Dispatch). A Session is
// safe for use from the goroutine running the UI and from background saves.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"genspec/internal/artifacts"
	"genspec/internal/catalog"
	"genspec/internal/checklist"
	"genspec/internal/ledger"
	"genspec/internal/logging"
	"genspec/internal/render"
	"genspec/internal/report"
	"genspec/internal/store"
)

// Recorder persists report records.
type Recorder interface {
	Save(ctx context.Context, rec store.Record) (store.Record, error)
}

// Config holds session behaviour settings.
type Config struct {
	// FallbackCapacityKW is used for load analysis before a rating is chosen.
	FallbackCapacityKW int
	// SeedDefaults starts the ledger with the default loads.
	SeedDefaults bool
}

// DefaultConfig returns a 30 kW fallback with the default loads seeded.
func DefaultConfig() Config {
	return Config{FallbackCapacityKW: 30, SeedDefaults: true}
}

// Deps are the collaborators a session needs.
type Deps struct {
	Catalog  *catalog.Catalog // nil selects catalog.Default()
	Reports  *artifacts.Dir
	PDF      render.Renderer
	Workbook render.Renderer // nil disables the XLSX export
	Records  Recorder
	Clock    func() time.Time // nil selects time.Now
}

// Session is the state of one report being prepared.
type Session struct {
	mu sync.Mutex

	id     string
	cfg    Config
	deps   Deps
	log    *logging.Logger
	assemb *report.Assembler

	phase  catalog.PhaseType
	rating catalog.PowerRating
	loads  *ledger.Ledger
	checks checklist.State
	meta   report.Metadata

	inflight sync.WaitGroup
}

// New creates a session. Reports, PDF and Records are required.
func New(cfg Config, deps Deps) (*Session, error) {
	if deps.Reports == nil || deps.PDF == nil || deps.Records == nil {
		return nil, errors.New("session requires a reports directory, a PDF renderer and a record store")
	}
	if deps.Catalog == nil {
		deps.Catalog = catalog.Default()
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if cfg.FallbackCapacityKW <= 0 {
		cfg.FallbackCapacityKW = DefaultConfig().FallbackCapacityKW
	}

	s := &Session{
		id:     uuid.NewString(),
		cfg:    cfg,
		deps:   deps,
		assemb: report.NewAssembler(deps.Catalog, report.WithClock(deps.Clock)),
		checks: checklist.State{},
	}
	s.log = logging.WithRequestID(logging.CategorySession, s.id)
	if cfg.SeedDefaults {
		s.loads = ledger.NewDefault()
	} else {
		s.loads = ledger.New()
	}

	s.log.Info("Session started (loads=%d, fallback=%d kW)", s.loads.Len(), cfg.FallbackCapacityKW)
	return s, nil
}

// ID returns the session id used to correlate log lines.
func (s *Session) ID() string { return s.id }

// Close waits for background saves to finish.
func (s *Session) Close() {
	s.inflight.Wait()
}

// =============================================================================
// VIEW
// =============================================================================

// View is a read-only snapshot of the session for display.
type View struct {
	ID        string
	Phase     catalog.PhaseType
	Rating    catalog.PowerRating
	Selected  bool
	Spec      catalog.Specification
	Loads     []ledger.Load
	Analysis  ledger.Analysis
	Checklist checklist.State
	Progress  []checklist.Progress
	Metadata  report.Metadata
}

// View returns a snapshot of the current state.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		ID:        s.id,
		Phase:     s.phase,
		Rating:    s.rating,
		Loads:     s.loads.Loads(),
		Checklist: s.checks.Clone(),
		Progress:  s.checks.Progress(),
		Metadata:  s.meta,
	}
	if spec, err := s.specLocked(); err == nil {
		v.Selected = true
		v.Spec = spec
	}
	// capacityLocked is always positive so Analyze cannot fail.
	v.Analysis, _ = s.loads.Analyze(s.capacityLocked())
	return v
}

// Capacity returns the selected rating, or the fallback capacity when none
// is selected.
func (s *Session) Capacity() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.capacityLocked()
}

func (s *Session) capacityLocked() int {
	if s.rating.Valid() {
		return s.rating.KW()
	}
	return s.cfg.FallbackCapacityKW
}

func (s *Session) specLocked() (catalog.Specification, error) {
	if s.phase == "" || s.rating == 0 {
		return catalog.Specification{}, ErrNoSelection
	}
	return s.deps.Catalog.Lookup(s.phase, s.rating)
}

// =============================================================================
// STATE TRANSITIONS
// =============================================================================

func (s *Session) selectPhase(phase catalog.PhaseType) error {
	if !phase.Valid() {
		return fmt.Errorf("%w: unknown phase type %q", catalog.ErrNotFound, phase)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = phase
	s.log.Debug("Selected phase %s", phase)
	return nil
}

func (s *Session) selectPower(rating catalog.PowerRating) error {
	if !rating.Valid() {
		return fmt.Errorf("%w: invalid power rating %d kW", catalog.ErrNotFound, int(rating))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rating = rating
	s.log.Debug("Selected rating %s", rating)
	return nil
}

func (s *Session) addLoad(name string, watts, qty int) (ledger.Load, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, err := s.loads.Add(name, watts, qty)
	if err != nil {
		return ledger.Load{}, err
	}
	s.log.Debug("Added load %d %q (%d W x %d)", l.ID, l.Name, l.Wattage, l.Quantity)
	return l, nil
}

func (s *Session) removeLoad(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loads.Remove(id)
}

func (s *Session) toggle(label string) (bool, error) {
	if !checklist.Known(label) {
		return false, fmt.Errorf("%w: %q", ErrUnknownItem, label)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checks.Toggle(label), nil
}

func (s *Session) setMetadata(m report.Metadata) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meta = m
}

// reset clears the selection. Loads, checklist and project details stay.
func (s *Session) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = ""
	s.rating = 0
	s.log.Debug("Selection reset")
}

// assemble snapshots the session into a payload.
func (s *Session) assemble() (report.Payload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.specLocked(); err != nil {
		return report.Payload{}, err
	}
	return s.assemb.Assemble(s.phase, s.rating, s.meta, s.loads.Loads(), s.checks)
}
