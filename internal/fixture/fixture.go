// Package fixture builds and checks reference assessment grids used as
// regression fixtures by downstream consumers of the assessment topic.
package fixture

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/lyon-flood-lab/internal/domain"
)

// DrawCount is how many leading generator draws a fixture records per seed.
const DrawCount = 5

// Tolerance is the absolute difference in euros accepted between a stored
// and a recomputed total.
const Tolerance = 1e-3

// Fixture is a grid of reference assessments.
type Fixture struct {
	GeneratedAt time.Time `json:"generated_at"`
	Seeds       []Seed    `json:"seeds"`
}

// Seed holds the reference data for one dataset.
type Seed struct {
	Seed     uint32    `json:"seed"`
	Draws    []float64 `json:"draws"`
	Critical int       `json:"critical"`
	Cases    []Case    `json:"cases"`
}

// Case is one assessed scenario.
type Case struct {
	Query   string         `json:"query"`
	Summary domain.Summary `json:"summary"`
}

// Mitigations lists every combination of the three measures.
func Mitigations() []domain.Mitigation {
	out := make([]domain.Mitigation, 0, 8)
	for i := range 8 {
		out = append(out, domain.Mitigation{
			GreenRoofs:        i&1 != 0,
			PermeablePavement: i&2 != 0,
			Barriers:          i&4 != 0,
		})
	}
	return out
}

// Levels returns the levels from MinLevelCm to MaxLevelCm in steps of step.
func Levels(step int) []int {
	if step <= 0 {
		step = domain.MaxLevelCm
	}
	var out []int
	for l := domain.MinLevelCm; l <= domain.MaxLevelCm; l += step {
		out = append(out, l)
	}
	return out
}

// Generate assesses every level and mitigation combination for each seed.
func Generate(seeds []uint32, levels []int, now time.Time) Fixture {
	f := Fixture{GeneratedAt: now, Seeds: make([]Seed, 0, len(seeds))}
	for _, seed := range seeds {
		ds := domain.NewDataset(seed)
		s := Seed{
			Seed:     seed,
			Draws:    domain.Generate(seed, DrawCount),
			Critical: ds.CriticalCount(),
		}
		for _, m := range Mitigations() {
			for _, level := range levels {
				state := domain.ScenarioState{LevelCm: level, Mitigation: m, Seed: seed}
				s.Cases = append(s.Cases, Case{Query: state.Query(), Summary: domain.Assess(ds, state)})
			}
		}
		f.Seeds = append(f.Seeds, s)
	}
	return f
}

// Write stores f as indented JSON, creating parent directories.
func Write(path string, f Fixture) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

// Load reads a fixture written by Write.
func Load(path string) (Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Fixture{}, err
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return Fixture{}, fmt.Errorf("decode fixture: %w", err)
	}
	return f, nil
}

// Phase collects the failures of one validation step.
type Phase struct {
	Name   string
	Errors []string
}

func (p *Phase) errorf(format string, args ...any) {
	p.Errors = append(p.Errors, fmt.Sprintf(format, args...))
}

// Passed reports whether the phase recorded no failures.
func (p *Phase) Passed() bool { return len(p.Errors) == 0 }

// Validate recomputes f against the current model and checks the model's
// invariants over the fixture's cases.
func Validate(f Fixture) []*Phase {
	return []*Phase{
		validateGenerator(f),
		validateParity(f),
		validateCodec(f),
		validateMonotonicity(f),
	}
}

func validateGenerator(f Fixture) *Phase {
	p := &Phase{Name: "Generator determinism"}
	for _, s := range f.Seeds {
		got := domain.Generate(s.Seed, len(s.Draws))
		for i := range s.Draws {
			if got[i] != s.Draws[i] {
				p.errorf("seed %d draw %d: got %v, want %v", s.Seed, i+1, got[i], s.Draws[i])
			}
		}
		if c := domain.NewDataset(s.Seed).CriticalCount(); c != s.Critical {
			p.errorf("seed %d: %d critical buildings, want %d", s.Seed, c, s.Critical)
		}
	}
	return p
}

func validateParity(f Fixture) *Phase {
	p := &Phase{Name: "Assessment parity"}
	for _, s := range f.Seeds {
		ds := domain.NewDataset(s.Seed)
		for _, c := range s.Cases {
			state, err := domain.ParseQuery(c.Query)
			if err != nil {
				p.errorf("%s: %v", c.Query, err)
				continue
			}
			got := domain.Assess(ds, state)
			if got.Affected != c.Summary.Affected || got.CriticalAffected != c.Summary.CriticalAffected {
				p.errorf("%s: affected %d/%d critical, want %d/%d",
					c.Query, got.Affected, got.CriticalAffected, c.Summary.Affected, c.Summary.CriticalAffected)
			}
			if math.Abs(got.TotalDamage-c.Summary.TotalDamage) > Tolerance {
				p.errorf("%s: damage %.3f, want %.3f", c.Query, got.TotalDamage, c.Summary.TotalDamage)
			}
		}
	}
	return p
}

func validateCodec(f Fixture) *Phase {
	p := &Phase{Name: "Query round trip"}
	for _, s := range f.Seeds {
		for _, c := range s.Cases {
			state, err := domain.ParseQuery(c.Query)
			if err != nil {
				p.errorf("%s: %v", c.Query, err)
				continue
			}
			if q := state.Query(); q != c.Query {
				p.errorf("%s: re-encoded as %s", c.Query, q)
			}
		}
	}
	return p
}

// validateMonotonicity checks that damage never falls as water rises and
// never rises when a measure is added.
func validateMonotonicity(f Fixture) *Phase {
	p := &Phase{Name: "Damage monotonicity"}
	for _, s := range f.Seeds {
		byState := make(map[domain.ScenarioState]float64, len(s.Cases))
		for _, c := range s.Cases {
			state, err := domain.ParseQuery(c.Query)
			if err != nil {
				continue
			}
			byState[state] = c.Summary.TotalDamage
		}

		for state, damage := range byState {
			higher := state
			higher.LevelCm++
			for ; higher.LevelCm <= domain.MaxLevelCm; higher.LevelCm++ {
				if d, ok := byState[higher]; ok {
					if d+Tolerance < damage {
						p.errorf("seed %d: damage falls from %s to %s", s.Seed, state.Query(), higher.Query())
					}
					break
				}
			}

			for _, more := range moreMitigated(state) {
				if d, ok := byState[more]; ok && d > damage+Tolerance {
					p.errorf("seed %d: damage rises from %s to %s", s.Seed, state.Query(), more.Query())
				}
			}
		}
	}
	return p
}

func moreMitigated(s domain.ScenarioState) []domain.ScenarioState {
	var out []domain.ScenarioState
	if !s.Mitigation.GreenRoofs {
		m := s
		m.Mitigation.GreenRoofs = true
		out = append(out, m)
	}
	if !s.Mitigation.PermeablePavement {
		m := s
		m.Mitigation.PermeablePavement = true
		out = append(out, m)
	}
	if !s.Mitigation.Barriers {
		m := s
		m.Mitigation.Barriers = true
		out = append(out, m)
	}
	return out
}
