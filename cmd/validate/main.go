// Command validate recomputes a reference assessment fixture against the
// current model and checks generator determinism, assessment parity, query
// round trips, and damage monotonicity.
//
// Usage:
//
//	go run ./cmd/validate -fixture data/fixtures/reference_assessments.json
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/couchcryptid/lyon-flood-lab/internal/fixture"
)

var (
	passStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

func main() {
	path := flag.String("fixture", "", "path to the reference fixture JSON")
	flag.Parse()

	if *path == "" {
		flag.Usage()
		os.Exit(1)
	}

	os.Exit(run(*path))
}

func run(path string) int {
	fmt.Println("=== Flood Model Regression Validation ===")
	fmt.Println()

	f, err := fixture.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load fixture: %v\n", err)
		return 1
	}

	phases := fixture.Validate(f)

	allPassed := true
	for _, p := range phases {
		status := passStyle.Render("PASS")
		if !p.Passed() {
			status = failStyle.Render(fmt.Sprintf("FAIL (%d errors)", len(p.Errors)))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.Name, status)
	}

	cases := 0
	for _, s := range f.Seeds {
		cases += len(s.Cases)
	}
	fmt.Println()
	fmt.Printf("Fixture: %d seeds, %d cases, generated %s\n", len(f.Seeds), cases, f.GeneratedAt.Format("2006-01-02"))

	for _, p := range phases {
		if p.Passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.Name)
		for i, e := range p.Errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}
