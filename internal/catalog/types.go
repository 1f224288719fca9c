// Package catalog holds the static electrical specification tables for medical
// imaging equipment. Every supported (phase type, power rating) pair maps to
// exactly one Specification; anything outside that domain is reported as
// ErrNotFound rather than interpolated.
package catalog

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrNotFound is returned when a phase/rating pair is not in the catalog.
var ErrNotFound = errors.New("unsupported configuration")

// =============================================================================
// PHASE TYPE
// =============================================================================

// PhaseType is the supply topology feeding the equipment.
type PhaseType string

const (
	PhaseSingle PhaseType = "single"
	PhaseThree  PhaseType = "three"
)

// Phases returns the supported phase types in display order.
func Phases() []PhaseType {
	return []PhaseType{PhaseSingle, PhaseThree}
}

// Valid reports whether p is a known phase type.
func (p PhaseType) Valid() bool {
	return p == PhaseSingle || p == PhaseThree
}

// Label returns the human readable name ("Single Phase", "Three Phase").
func (p PhaseType) Label() string {
	switch p {
	case PhaseSingle:
		return "Single Phase"
	case PhaseThree:
		return "Three Phase"
	default:
		return string(p)
	}
}

// Conductors returns the number of wires run to the equipment, ground included.
func (p PhaseType) Conductors() int {
	if p == PhaseThree {
		return 4
	}
	return 3
}

// ParsePhase accepts "single"/"1"/"1ph" and "three"/"3"/"3ph" in any case.
func ParsePhase(s string) (PhaseType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "single", "1", "1ph", "single-phase":
		return PhaseSingle, nil
	case "three", "3", "3ph", "three-phase":
		return PhaseThree, nil
	}
	return "", fmt.Errorf("%w: unknown phase type %q", ErrNotFound, s)
}

// =============================================================================
// POWER RATING
// =============================================================================

// PowerRating is the equipment nameplate power in kilowatts.
type PowerRating int

var ratings = []PowerRating{30, 32, 40, 50, 60}

// Ratings returns the supported ratings in ascending order.
func Ratings() []PowerRating {
	out := make([]PowerRating, len(ratings))
	copy(out, ratings)
	return out
}

// Valid reports whether r is one of the catalogued ratings.
func (r PowerRating) Valid() bool {
	for _, v := range ratings {
		if v == r {
			return true
		}
	}
	return false
}

// KW returns the rating as a plain integer number of kilowatts.
func (r PowerRating) KW() int { return int(r) }

func (r PowerRating) String() string { return fmt.Sprintf("%d kW", int(r)) }

// ParseRating parses "50", "50kW" or "50 kw". It does not check membership in
// the catalogued set; Lookup does that.
func ParseRating(s string) (PowerRating, error) {
	trimmed := strings.TrimSpace(strings.ToLower(s))
	trimmed = strings.TrimSpace(strings.TrimSuffix(trimmed, "kw"))
	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid power rating %q", ErrNotFound, s)
	}
	return PowerRating(n), nil
}

// =============================================================================
// SPECIFICATION
// =============================================================================

// Service holds the values that depend on the service voltage. Three-phase
// equipment can be fed at 208V or 480V and carries one Service per voltage.
type Service struct {
	Voltage  string `json:"voltage"`
	Amperage string `json:"amperage"`
	HotWire  string `json:"hot_wire"`
	Breaker  string `json:"breaker"`
}

// Specification describes the electrical service for one configuration.
// The voltage dependent fields live in Services; the compound strings used on
// paper ("139A @ 208V / 60A @ 480V") are derived by the *Text methods.
type Specification struct {
	Services    []Service `json:"services"`
	NeutralWire string    `json:"neutral_wire"`
	GroundWire  string    `json:"ground_wire"`
	ConduitSize string    `json:"conduit_size"`
	Connection  string    `json:"connection"`
	Notes       string    `json:"notes"`
}

// Clone returns a deep copy.
func (s Specification) Clone() Specification {
	out := s
	out.Services = append([]Service(nil), s.Services...)
	return out
}

// DualVoltage reports whether the equipment can be fed at more than one voltage.
func (s Specification) DualVoltage() bool { return len(s.Services) > 1 }

// VoltageText renders "240V" or "208V/480V".
func (s Specification) VoltageText() string {
	parts := make([]string, 0, len(s.Services))
	for _, svc := range s.Services {
		parts = append(parts, svc.Voltage)
	}
	return strings.Join(parts, "/")
}

// AmperageText renders "125A" or "139A @ 208V / 60A @ 480V".
func (s Specification) AmperageText() string {
	return s.join(func(svc Service) string { return svc.Amperage }, "%s @ %s")
}

// HotWireText renders the hot conductor gauge, per voltage when dual.
func (s Specification) HotWireText() string {
	return s.join(func(svc Service) string { return svc.HotWire }, "%s (%s)")
}

// BreakerText renders the breaker size, per voltage when dual.
func (s Specification) BreakerText() string {
	return s.join(func(svc Service) string { return svc.Breaker }, "%s (%s)")
}

func (s Specification) join(field func(Service) string, dualFormat string) string {
	if len(s.Services) == 1 {
		return field(s.Services[0])
	}
	parts := make([]string, 0, len(s.Services))
	for _, svc := range s.Services {
		parts = append(parts, fmt.Sprintf(dualFormat, field(svc), svc.Voltage))
	}
	return strings.Join(parts, " / ")
}

// Row is one line of the specification table.
type Row struct {
	Label string
	Value string
}

// Rows returns the eight parameter rows printed in reports, in order.
func (s Specification) Rows() []Row {
	return []Row{
		{"Voltage", s.VoltageText()},
		{"Amperage", s.AmperageText()},
		{"Wire Gauge (Hot)", s.HotWireText()},
		{"Neutral Wire", s.NeutralWire},
		{"Ground Wire", s.GroundWire},
		{"Conduit Size", s.ConduitSize},
		{"Breaker Size", s.BreakerText()},
		{"Connection", s.Connection},
	}
}
