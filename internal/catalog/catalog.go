package catalog

import "fmt"

type key struct {
	phase  PhaseType
	rating PowerRating
}

// Entry is a catalogued configuration with its specification.
type Entry struct {
	Phase  PhaseType     `json:"phase_type"`
	Rating PowerRating   `json:"power_rating"`
	Spec   Specification `json:"specification"`
}

// Catalog maps (phase, rating) to a Specification. It is read-only after
// construction and safe for concurrent use.
type Catalog struct {
	entries map[key]Specification
}

var std = New()

// Default returns the process-wide catalog built from the static tables.
func Default() *Catalog { return std }

// New builds a catalog from the static tables.
func New() *Catalog {
	c := &Catalog{entries: make(map[key]Specification, 2*len(ratings))}
	for rating, spec := range singlePhaseTable {
		c.entries[key{PhaseSingle, rating}] = spec
	}
	for rating, spec := range threePhaseTable {
		c.entries[key{PhaseThree, rating}] = spec
	}
	return c
}

// Lookup returns the specification for the pair or ErrNotFound.
func (c *Catalog) Lookup(phase PhaseType, rating PowerRating) (Specification, error) {
	spec, ok := c.entries[key{phase, rating}]
	if !ok {
		return Specification{}, fmt.Errorf("%w: %s at %d kW", ErrNotFound, phase, int(rating))
	}
	return spec.Clone(), nil
}

// All returns every entry, single phase first, ratings ascending.
func (c *Catalog) All() []Entry {
	out := make([]Entry, 0, len(c.entries))
	for _, phase := range Phases() {
		for _, rating := range ratings {
			if spec, ok := c.entries[key{phase, rating}]; ok {
				out = append(out, Entry{Phase: phase, Rating: rating, Spec: spec.Clone()})
			}
		}
	}
	return out
}

// Len returns the number of catalogued configurations.
func (c *Catalog) Len() int { return len(c.entries) }

// =============================================================================
// STATIC TABLES
// =============================================================================

const (
	singleConnection = "Hardwired dedicated circuit"
	threeConnection  = "Hardwired 4-wire connection"
)

func single(amps, hot, breaker string) []Service {
	return []Service{{Voltage: "240V", Amperage: amps, HotWire: hot, Breaker: breaker}}
}

func dual(amps208, hot208, breaker208, amps480, hot480, breaker480 string) []Service {
	return []Service{
		{Voltage: "208V", Amperage: amps208, HotWire: hot208, Breaker: breaker208},
		{Voltage: "480V", Amperage: amps480, HotWire: hot480, Breaker: breaker480},
	}
}

var singlePhaseTable = map[PowerRating]Specification{
	30: {
		Services:    single("125A", "1/0 AWG Copper", "150A"),
		NeutralWire: "1/0 AWG",
		GroundWire:  "6 AWG Copper",
		ConduitSize: `1.5" (1-1/2 inch)`,
		Connection:  singleConnection,
		Notes:       "Requires isolated ground. Dedicated circuit mandatory per NFPA 99. Must be on emergency power system per healthcare facility code.",
	},
	32: {
		Services:    single("133A", "1/0 AWG Copper", "150A"),
		NeutralWire: "1/0 AWG",
		GroundWire:  "6 AWG Copper",
		ConduitSize: `1.5" (1-1/2 inch)`,
		Connection:  singleConnection,
		Notes:       "Isolated ground required. Room requires RF shielding. Emergency power backup mandatory.",
	},
	40: {
		Services:    single("167A", "2/0 AWG Copper", "200A"),
		NeutralWire: "2/0 AWG",
		GroundWire:  "4 AWG Copper",
		ConduitSize: `2" (2 inch)`,
		Connection:  singleConnection,
		Notes:       "High-power imaging. Requires 200A+ service. Isolated ground and RF shielding mandatory.",
	},
	50: {
		Services:    single("208A", "4/0 AWG Copper", "250A"),
		NeutralWire: "4/0 AWG",
		GroundWire:  "4 AWG Copper",
		ConduitSize: `2.5" (2-1/2 inch)`,
		Connection:  singleConnection,
		Notes:       "CT/MRI class system. Requires dedicated transformer. Harmonic filtering recommended.",
	},
	60: {
		Services:    single("250A", "250 MCM Copper", "300A"),
		NeutralWire: "250 MCM",
		GroundWire:  "2 AWG Copper",
		ConduitSize: `3" (3 inch)`,
		Connection:  singleConnection,
		Notes:       "High-field MRI or advanced CT. Requires dedicated service entrance. Power quality monitoring essential.",
	},
}

var threePhaseTable = map[PowerRating]Specification{
	30: {
		Services:    dual("83A", "4 AWG Copper", "100A", "36A", "8 AWG Copper", "50A"),
		NeutralWire: "4 AWG (if required)",
		GroundWire:  "8 AWG Copper",
		ConduitSize: `1.25" (1-1/4 inch)`,
		Connection:  threeConnection,
		Notes:       "Three-phase medical imaging. Isolated ground required. Phase balance critical for image quality.",
	},
	32: {
		Services:    dual("89A", "3 AWG Copper", "100A", "39A", "8 AWG Copper", "50A"),
		NeutralWire: "3 AWG (if required)",
		GroundWire:  "8 AWG Copper",
		ConduitSize: `1.25" (1-1/4 inch)`,
		Connection:  threeConnection,
		Notes:       "Advanced imaging equipment. Voltage regulation ±5% required. RF shielding mandatory.",
	},
	40: {
		Services:    dual("111A", "1 AWG Copper", "125A", "48A", "6 AWG Copper", "60A"),
		NeutralWire: "1 AWG (if required)",
		GroundWire:  "6 AWG Copper",
		ConduitSize: `1.5" (1-1/2 inch)`,
		Connection:  threeConnection,
		Notes:       "CT scanner class equipment. Power quality monitoring required. THD must be <5%.",
	},
	50: {
		Services:    dual("139A", "1/0 AWG Copper", "175A", "60A", "4 AWG Copper", "80A"),
		NeutralWire: "1/0 AWG (if required)",
		GroundWire:  "6 AWG Copper",
		ConduitSize: `2" (2 inch)`,
		Connection:  threeConnection,
		Notes:       "High-power CT/MRI system. Dedicated transformer recommended. Active harmonic filter may be required.",
	},
	60: {
		Services:    dual("167A", "2/0 AWG Copper", "200A", "72A", "3 AWG Copper", "100A"),
		NeutralWire: "2/0 AWG (if required)",
		GroundWire:  "4 AWG Copper",
		ConduitSize: `2" (2 inch)`,
		Connection:  threeConnection,
		Notes:       "Premium imaging suite. Dedicated electrical room required. K-rated transformer mandatory.",
	},
}
