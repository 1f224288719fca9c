// Package report assembles a self-contained, immutable report payload from a
// catalog selection, the planned loads, checklist progress and project details.
package report

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"genspec/internal/catalog"
	"genspec/internal/checklist"
	"genspec/internal/ledger"
)

// UntitledProject replaces a blank project name in assembled payloads.
const UntitledProject = "Untitled Project"

// idLength is the number of hex characters kept from the digest.
const idLength = 12

// Metadata is the project information entered by the user.
type Metadata struct {
	ProjectName   string `json:"project_name"`
	Address       string `json:"project_address"`
	Contractor    string `json:"contractor"`
	Electrician   string `json:"electrician"`
	LicenseNumber string `json:"license_number,omitempty"`
	CustomNotes   string `json:"custom_notes,omitempty"`
}

// Payload is everything needed to render and persist one report.
// Treat it as read-only; Assembler hands out fresh copies.
type Payload struct {
	ID        string                `json:"id"`
	Phase     catalog.PhaseType     `json:"phase_type"`
	Rating    catalog.PowerRating   `json:"power_rating"`
	Spec      catalog.Specification `json:"specification"`
	Metadata  Metadata              `json:"metadata"`
	Loads     []ledger.Load         `json:"loads"`
	Checklist checklist.State       `json:"checklist"`
	CreatedAt time.Time             `json:"created_at"`
}

// Analysis summarizes the payload loads against its own rating.
func (p Payload) Analysis() (ledger.Analysis, error) {
	return ledger.Analyze(p.Loads, p.Rating.KW())
}

// Banner returns "Three Phase • 50 kW".
func (p Payload) Banner() string {
	return fmt.Sprintf("%s • %d kW", p.Phase.Label(), p.Rating.KW())
}

// Assembler builds payloads. Apart from the id sequence it holds no mutable
// state.
type Assembler struct {
	catalog *catalog.Catalog
	now     func() time.Time
	seq     atomic.Uint64
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(a *Assembler) { a.now = now }
}

// NewAssembler returns an assembler resolving specifications from cat.
// A nil cat means catalog.Default().
func NewAssembler(cat *catalog.Catalog, opts ...Option) *Assembler {
	if cat == nil {
		cat = catalog.Default()
	}
	a := &Assembler{catalog: cat, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assemble resolves the specification and snapshots the inputs into a new
// payload with a fresh id. Catalog misses are returned unchanged
// (errors.Is(err, catalog.ErrNotFound)).
func (a *Assembler) Assemble(phase catalog.PhaseType, rating catalog.PowerRating, meta Metadata, loads []ledger.Load, checks checklist.State) (Payload, error) {
	spec, err := a.catalog.Lookup(phase, rating)
	if err != nil {
		return Payload{}, err
	}

	now := a.now()
	if strings.TrimSpace(meta.ProjectName) == "" {
		meta.ProjectName = UntitledProject
	}

	return Payload{
		ID:        a.nextID(now),
		Phase:     phase,
		Rating:    rating,
		Spec:      spec,
		Metadata:  meta,
		Loads:     append([]ledger.Load(nil), loads...),
		Checklist: checks.Clone(),
		CreatedAt: now,
	}, nil
}

func (a *Assembler) nextID(now time.Time) string {
	seq := a.seq.Add(1)
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s#%d", now.Format(time.RFC3339Nano), seq)))
	return hex.EncodeToString(sum[:])[:idLength]
}
