// Command genfixtures writes the reference assessment grid consumed by the
// assessment-topic test suites. It uses the domain package directly so the
// fixture matches what the service publishes.
//
// Usage:
//
//	go run ./cmd/genfixtures -out data/fixtures/reference_assessments.json -seeds 1337,42 -step 30
package main

import (
	"flag"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/lyon-flood-lab/internal/fixture"
)

// generatedAt is fixed so regenerating an unchanged model yields an identical file.
var generatedAt = time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path for the reference fixture")
	seedList := flag.String("seeds", "1337", "comma-separated dataset seeds")
	step := flag.Int("step", 30, "water level step in cm")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	seeds, err := parseSeeds(*seedList)
	if err != nil {
		return err
	}

	f := fixture.Generate(seeds, fixture.Levels(*step), generatedAt)
	if err := fixture.Write(*out, f); err != nil {
		return fmt.Errorf("writing fixture: %w", err)
	}
	log.Printf("wrote fixture: %s", *out)

	printStats(f)
	return nil
}

func parseSeeds(s string) ([]uint32, error) {
	var seeds []uint32
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.ParseUint(part, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid seed %q: %w", part, err)
		}
		seeds = append(seeds, uint32(n))
	}
	if len(seeds) == 0 {
		return nil, fmt.Errorf("no seeds given")
	}
	return seeds, nil
}

func printStats(f fixture.Fixture) {
	fmt.Println("\n=== Stats for updating test assertions ===")
	for _, s := range f.Seeds {
		fmt.Printf("seed %d: %d cases, %d critical buildings, first draws %v\n",
			s.Seed, len(s.Cases), s.Critical, s.Draws)
		for _, c := range s.Cases {
			if !strings.HasPrefix(c.Query, "gr=0&") || !strings.Contains(c.Query, "pp=0") || !strings.HasSuffix(c.Query, "tb=0") {
				continue
			}
			fmt.Printf("  %-40s affected=%-3d critical=%-2d damage=%.6f\n",
				c.Query, c.Summary.Affected, c.Summary.CriticalAffected, c.Summary.TotalDamage)
		}
	}
}
