// Package ledger tracks the electrical loads planned for an installation and
// classifies their aggregate demand against a service capacity.
//
// A Ledger is not safe for concurrent use; callers that share one across
// goroutines must synchronize access themselves.
package ledger

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidInput is returned for malformed loads and non-positive capacities.
var ErrInvalidInput = errors.New("invalid input")

// Load is one line item: wattage per unit times quantity.
type Load struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Wattage  int    `json:"watts"`
	Quantity int    `json:"qty"`
}

// TotalWatts returns Wattage * Quantity.
func (l Load) TotalWatts() int { return l.Wattage * l.Quantity }

// DefaultLoads is the seed a new interactive ledger starts with.
func DefaultLoads() []Load {
	return []Load{
		{Name: "X-Ray Tube", Wattage: 15000, Quantity: 1},
		{Name: "Image Processor", Wattage: 3000, Quantity: 1},
		{Name: "Room HVAC", Wattage: 2000, Quantity: 1},
	}
}

// Ledger is an insertion-ordered set of loads with monotonically assigned ids.
type Ledger struct {
	loads  []Load
	nextID int
}

// New returns a ledger containing seed, with ids assigned from 1 in order.
// Seed ids are ignored. Seed entries are not validated.
func New(seed ...Load) *Ledger {
	l := &Ledger{nextID: 1}
	for _, s := range seed {
		s.ID = l.nextID
		l.nextID++
		l.loads = append(l.loads, s)
	}
	return l
}

// NewDefault returns a ledger seeded with DefaultLoads.
func NewDefault() *Ledger { return New(DefaultLoads()...) }

// Add appends a load and returns it with its assigned id.
func (l *Ledger) Add(name string, wattage, quantity int) (Load, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Load{}, fmt.Errorf("%w: load name is required", ErrInvalidInput)
	}
	if wattage < 0 {
		return Load{}, fmt.Errorf("%w: wattage must be >= 0, got %d", ErrInvalidInput, wattage)
	}
	if quantity < 1 {
		return Load{}, fmt.Errorf("%w: quantity must be >= 1, got %d", ErrInvalidInput, quantity)
	}
	load := Load{ID: l.nextID, Name: name, Wattage: wattage, Quantity: quantity}
	l.nextID++
	l.loads = append(l.loads, load)
	return load, nil
}

// Remove deletes the load with id. Missing ids are ignored.
// It reports whether a load was removed.
func (l *Ledger) Remove(id int) bool {
	for i, load := range l.loads {
		if load.ID == id {
			l.loads = append(l.loads[:i], l.loads[i+1:]...)
			return true
		}
	}
	return false
}

// AggregateWatts sums TotalWatts over all loads.
func (l *Ledger) AggregateWatts() int {
	total := 0
	for _, load := range l.loads {
		total += load.TotalWatts()
	}
	return total
}

// Len returns the number of loads.
func (l *Ledger) Len() int { return len(l.loads) }

// Loads returns a copy of the loads in insertion order.
func (l *Ledger) Loads() []Load {
	return append([]Load(nil), l.loads...)
}

// Snapshot returns an independent copy of the ledger, id counter included.
func (l *Ledger) Snapshot() *Ledger {
	return &Ledger{loads: l.Loads(), nextID: l.nextID}
}

// UsagePercent returns aggregate demand as a percentage of capacityKW.
func (l *Ledger) UsagePercent(capacityKW int) (float64, error) {
	return UsagePercent(l.AggregateWatts(), capacityKW)
}

// Classify classifies aggregate demand against capacityKW.
func (l *Ledger) Classify(capacityKW int) (Classification, error) {
	pct, err := l.UsagePercent(capacityKW)
	if err != nil {
		return "", err
	}
	return ClassifyPercent(pct), nil
}

// Analyze returns the summary shown alongside the load table.
func (l *Ledger) Analyze(capacityKW int) (Analysis, error) {
	return Analyze(l.loads, capacityKW)
}

// =============================================================================
// PARSING
// =============================================================================

// ParseLoad parses "name:watts[:qty]". Quantity defaults to 1. Numbers must be
// plain integers; nothing is coerced.
func ParseLoad(s string) (Load, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return Load{}, fmt.Errorf("%w: expected name:watts[:qty], got %q", ErrInvalidInput, s)
	}
	name := strings.TrimSpace(parts[0])
	if name == "" {
		return Load{}, fmt.Errorf("%w: load name is required in %q", ErrInvalidInput, s)
	}
	watts, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || watts < 0 {
		return Load{}, fmt.Errorf("%w: wattage %q is not a non-negative integer", ErrInvalidInput, parts[1])
	}
	qty := 1
	if len(parts) == 3 {
		qty, err = strconv.Atoi(strings.TrimSpace(parts[2]))
		if err != nil || qty < 1 {
			return Load{}, fmt.Errorf("%w: quantity %q is not a positive integer", ErrInvalidInput, parts[2])
		}
	}
	return Load{Name: name, Wattage: watts, Quantity: qty}, nil
}
