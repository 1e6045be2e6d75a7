package main

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/couchcryptid/lyon-flood-lab/internal/domain"
	"github.com/couchcryptid/lyon-flood-lab/internal/lab"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	printer = message.NewPrinter(language.French)

	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
)

type report struct {
	Result lab.Result
	ROI    *domain.ROIEstimate
	Sweep  []lab.Result
}

func (r report) render() string {
	var b strings.Builder
	s := r.Result.State

	b.WriteString(titleStyle.Render("Lyon flood scenario"))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("share: ") + "?" + r.Result.Query + "\n\n")

	rows := [][]string{
		{"Water level", strconv.Itoa(s.LevelCm) + " cm"},
		{"Mitigation", mitigationLabel(s.Mitigation)},
		{"Seed", strconv.FormatUint(uint64(s.Seed), 10)},
		{"Buildings affected", printer.Sprintf("%d / %d", r.Result.Summary.Affected, r.Result.Summary.Buildings)},
		{"Critical facilities affected", printer.Sprintf("%d", r.Result.Summary.CriticalAffected)},
		{"Estimated damage", formatEuros(r.Result.Summary.TotalDamage)},
	}
	if r.ROI != nil {
		rows = append(rows,
			[]string{"Avoided damage", formatEuros(r.ROI.AvoidedDamage)},
			[]string{"Investment", formatEuros(r.ROI.InvestmentCost)},
			[]string{"Return on investment", printer.Sprintf("%.1f %%", r.ROI.ROI*100)},
		)
	}
	b.WriteString(newTable([]string{"Metric", "Value"}, rows))

	if len(r.Sweep) > 0 {
		sweepRows := make([][]string, len(r.Sweep))
		for i, res := range r.Sweep {
			sweepRows[i] = []string{
				strconv.Itoa(res.State.LevelCm) + " cm",
				printer.Sprintf("%d", res.Summary.Affected),
				printer.Sprintf("%d", res.Summary.CriticalAffected),
				formatEuros(res.Summary.TotalDamage),
			}
		}
		b.WriteString("\n\n")
		b.WriteString(newTable([]string{"Level", "Affected", "Critical", "Damage"}, sweepRows))
	}
	return b.String()
}

func newTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		BorderHeader(true).
		BorderRow(false).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Render()
}

// formatEuros rounds to whole euros with French digit grouping.
func formatEuros(v float64) string {
	return printer.Sprintf("%.0f €", v)
}

func mitigationLabel(m domain.Mitigation) string {
	var parts []string
	if m.GreenRoofs {
		parts = append(parts, "green roofs")
	}
	if m.PermeablePavement {
		parts = append(parts, "permeable pavement")
	}
	if m.Barriers {
		parts = append(parts, "barriers")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ", ")
}
