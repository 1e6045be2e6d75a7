// Command scenario evaluates flood scenarios from the command line and
// prints an impact report.
//
// Usage:
//
//	go run ./cmd/scenario -query 'level=180&gr=1&tb=1&seed=42'
//	go run ./cmd/scenario -preset full-protection -roi
//	go run ./cmd/scenario -sweep 30 -query 'pp=1'
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/couchcryptid/lyon-flood-lab/internal/domain"
	"github.com/couchcryptid/lyon-flood-lab/internal/lab"
	"github.com/couchcryptid/lyon-flood-lab/internal/observability"
	"github.com/couchcryptid/lyon-flood-lab/internal/presets"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("scenario", flag.ContinueOnError)
	query := fs.String("query", "", "scenario query string (level, gr, pp, tb, seed)")
	presetName := fs.String("preset", "", "named preset to evaluate instead of -query")
	presetsFile := fs.String("presets-file", "", "YAML presets file (default: built-in presets)")
	sweep := fs.Int("sweep", 0, "also tabulate every level from 0 to 300 cm in steps of this size")
	withROI := fs.Bool("roi", false, "include the local return-on-investment estimate")
	if err := fs.Parse(args); err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	l := lab.New(lab.Options{DefaultSeed: domain.DefaultSeed, DatasetCacheSize: 2}, logger, observability.NewUnregisteredMetrics())

	state, err := resolveState(l, *query, *presetName, *presetsFile)
	if err != nil {
		return err
	}

	res := l.Evaluate(state, lab.OriginCLI)
	rep := report{Result: res}
	if *withROI {
		est := l.EstimateROI(context.Background(), res.State, lab.OriginCLI)
		rep.ROI = &est
	}
	if *sweep > 0 {
		for level := domain.MinLevelCm; level <= domain.MaxLevelCm; level += *sweep {
			s := res.State
			s.LevelCm = level
			rep.Sweep = append(rep.Sweep, l.Evaluate(s, lab.OriginCLI))
		}
	}

	_, err = fmt.Fprintln(out, rep.render())
	return err
}

func resolveState(l *lab.Lab, query, presetName, presetsFile string) (domain.ScenarioState, error) {
	if presetName == "" {
		return l.Decode(query)
	}
	if query != "" {
		return domain.ScenarioState{}, fmt.Errorf("-query and -preset are mutually exclusive")
	}
	set, err := presets.Load(presetsFile)
	if err != nil {
		return domain.ScenarioState{}, err
	}
	p, ok := set.Find(presetName)
	if !ok {
		return domain.ScenarioState{}, fmt.Errorf("unknown preset %q", presetName)
	}
	return p.State(l.DefaultState().Seed), nil
}
