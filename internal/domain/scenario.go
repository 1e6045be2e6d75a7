package domain

// Slider range for the water level, in centimetres.
const (
	MinLevelCm     = 0
	MaxLevelCm     = 300
	DefaultLevelCm = 120
	DefaultSeed    = 1337
)

// ScenarioState is the full user-controlled input of one rendering.
type ScenarioState struct {
	LevelCm    int        `json:"level_cm" yaml:"level_cm"`
	Mitigation Mitigation `json:"mitigation" yaml:"mitigation"`
	Seed       uint32     `json:"seed" yaml:"seed"`
}

// DefaultState returns the state used when nothing else is supplied.
func DefaultState() ScenarioState {
	return ScenarioState{LevelCm: DefaultLevelCm, Seed: DefaultSeed}
}

// Clamped returns s with the level forced into the slider range.
func (s ScenarioState) Clamped() ScenarioState {
	s.LevelCm = ClampLevel(s.LevelCm)
	return s
}

// ClampLevel forces a level into [MinLevelCm, MaxLevelCm].
func ClampLevel(levelCm int) int {
	return max(MinLevelCm, min(MaxLevelCm, levelCm))
}

// Summary aggregates the impact of one scenario over a dataset.
type Summary struct {
	TotalDamage      float64 `json:"total_damage"` // euros
	Affected         int     `json:"affected"`
	CriticalAffected int     `json:"critical_affected"`
	Buildings        int     `json:"buildings"`
}

// Impact is the per-building outcome of a scenario.
type Impact struct {
	BuildingID  int     `json:"building_id"`
	Depth       float64 `json:"depth"` // metres
	DamageRatio float64 `json:"damage_ratio"`
	Damage      float64 `json:"damage"` // euros
	Affected    bool    `json:"affected"`
}

// Assess recomputes the aggregate impact of state over every building in ds.
// The state's seed is ignored; ds already fixes the buildings.
func Assess(ds *Dataset, state ScenarioState) Summary {
	sum := Summary{Buildings: ds.Len()}
	for _, b := range ds.buildings {
		imp := impactOf(b, state)
		if !imp.Affected {
			continue
		}
		sum.Affected++
		sum.TotalDamage += imp.Damage
		if b.Critical {
			sum.CriticalAffected++
		}
	}
	return sum
}

// Impacts returns the per-building outcome of state, in dataset order.
func Impacts(ds *Dataset, state ScenarioState) []Impact {
	out := make([]Impact, len(ds.buildings))
	for i, b := range ds.buildings {
		out[i] = impactOf(b, state)
	}
	return out
}

func impactOf(b Building, state ScenarioState) Impact {
	depth := DepthAt(b.Position, float64(state.LevelCm), state.Mitigation)
	imp := Impact{BuildingID: b.ID, Depth: depth}
	if depth > AffectedThreshold {
		imp.Affected = true
		imp.DamageRatio = DamageRatio(depth)
		imp.Damage = float64(b.ReplacementCost) * imp.DamageRatio
	}
	return imp
}
