package ledger

import "fmt"

// Classification buckets usage against capacity.
type Classification string

const (
	Safe       Classification = "safe"
	HighLoad   Classification = "high_load"
	Overloaded Classification = "overloaded"
)

// Label returns the status text shown to users.
func (c Classification) Label() string {
	switch c {
	case Safe:
		return "SAFE"
	case HighLoad:
		return "HIGH LOAD"
	case Overloaded:
		return "OVERLOADED"
	}
	return string(c)
}

// UsagePercent returns watts as a percentage of capacityKW kilowatts.
func UsagePercent(watts, capacityKW int) (float64, error) {
	if capacityKW <= 0 {
		return 0, fmt.Errorf("%w: capacity must be > 0 kW, got %d", ErrInvalidInput, capacityKW)
	}
	return float64(watts) / (float64(capacityKW) * 1000) * 100, nil
}

// ClassifyPercent maps a usage percentage to a Classification.
// Exactly 80 is Safe and exactly 100 is HighLoad.
func ClassifyPercent(pct float64) Classification {
	switch {
	case pct > 100:
		return Overloaded
	case pct > 80:
		return HighLoad
	default:
		return Safe
	}
}

// Analysis is the load summary for one capacity.
type Analysis struct {
	TotalWatts     int            `json:"total_watts"`
	CapacityKW     int            `json:"capacity_kw"`
	UsagePercent   float64        `json:"usage_percent"`
	Classification Classification `json:"classification"`
}

// TotalKW returns TotalWatts in kilowatts.
func (a Analysis) TotalKW() float64 { return float64(a.TotalWatts) / 1000 }

// Analyze summarizes loads against capacityKW.
func Analyze(loads []Load, capacityKW int) (Analysis, error) {
	total := 0
	for _, l := range loads {
		total += l.TotalWatts()
	}
	pct, err := UsagePercent(total, capacityKW)
	if err != nil {
		return Analysis{}, err
	}
	return Analysis{
		TotalWatts:     total,
		CapacityKW:     capacityKW,
		UsagePercent:   pct,
		Classification: ClassifyPercent(pct),
	}, nil
}
