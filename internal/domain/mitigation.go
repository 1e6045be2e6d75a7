package domain

// Attenuation contributed by each mitigation measure, and the cap on their sum.
const (
	GreenRoofAttenuation         = 0.08
	PermeablePavementAttenuation = 0.10
	BarrierAttenuation           = 0.12
	MaxAttenuation               = 0.35
)

// Mitigation holds the flood-reduction measures toggled for a scenario.
type Mitigation struct {
	GreenRoofs        bool `json:"green_roofs" yaml:"green_roofs"`
	PermeablePavement bool `json:"permeable_pavement" yaml:"permeable_pavement"`
	Barriers          bool `json:"barriers" yaml:"barriers"`
}

// Attenuation returns the fraction by which the water level is reduced,
// in [0, MaxAttenuation].
func (m Mitigation) Attenuation() float64 {
	var sum float64
	if m.GreenRoofs {
		sum += GreenRoofAttenuation
	}
	if m.PermeablePavement {
		sum += PermeablePavementAttenuation
	}
	if m.Barriers {
		sum += BarrierAttenuation
	}
	return min(sum, MaxAttenuation)
}

// Any reports whether at least one measure is enabled.
func (m Mitigation) Any() bool {
	return m.GreenRoofs || m.PermeablePavement || m.Barriers
}
