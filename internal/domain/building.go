package domain

import (
	"math"
	"slices"
)

// BuildingCount is the number of synthetic buildings generated per seed.
const BuildingCount = 400

const (
	latJitter     = 0.08
	lonJitter     = 0.12
	minCost       = 100_000
	costSpan      = 900_000
	criticalShare = 0.06
)

// LyonCenter is the point the synthetic buildings are scattered around.
var LyonCenter = Geo{Lat: 45.7640, Lon: 4.8357}

// Geo represents a WGS-84 latitude/longitude coordinate pair.
type Geo struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Building is one synthetic record of the exposure dataset.
type Building struct {
	ID              int   `json:"id"`
	Position        Geo   `json:"position"`
	ReplacementCost int64 `json:"replacement_cost"` // euros
	Critical        bool  `json:"critical"`
}

// GenerateBuildings draws n buildings from the stream for seed.
// Three values are drawn per building: latitude, longitude, then cost.
func GenerateBuildings(seed uint32, n int) []Building {
	if n <= 0 {
		return nil
	}
	s := NewStream(seed)
	out := make([]Building, n)
	for i := range out {
		lat := LyonCenter.Lat + float64((s.Next()-0.5)*latJitter)
		lon := LyonCenter.Lon + float64((s.Next()-0.5)*lonJitter)

		scaled := float64(s.Next() * costSpan)
		whole := math.Floor(scaled)

		out[i] = Building{
			ID:              i + 1,
			Position:        Geo{Lat: lat, Lon: lon},
			ReplacementCost: minCost + int64(whole),
			Critical:        scaled-whole < criticalShare,
		}
	}
	return out
}

// Dataset is the immutable set of buildings generated for one seed.
type Dataset struct {
	seed      uint32
	buildings []Building
}

// NewDataset generates the BuildingCount buildings for seed.
func NewDataset(seed uint32) *Dataset {
	return &Dataset{seed: seed, buildings: GenerateBuildings(seed, BuildingCount)}
}

// Seed returns the seed the dataset was generated from.
func (d *Dataset) Seed() uint32 { return d.seed }

// Len returns the number of buildings.
func (d *Dataset) Len() int { return len(d.buildings) }

// Buildings returns a copy of the records in generation order.
func (d *Dataset) Buildings() []Building {
	return slices.Clone(d.buildings)
}

// CriticalCount returns how many buildings are flagged critical.
func (d *Dataset) CriticalCount() int {
	n := 0
	for _, b := range d.buildings {
		if b.Critical {
			n++
		}
	}
	return n
}
