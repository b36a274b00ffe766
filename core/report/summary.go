package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"tcbench/core/pipeline"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	headStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#20B9B4"))
	passStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#2CD7C7"))
	failStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#E74C3C"))
	cellStyle  = lipgloss.NewStyle().PaddingLeft(1).PaddingRight(1)
	rimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#5C6370"))
)

// Summary renders one table per cluster with average, deviation and noise.
func Summary(r pipeline.Report) string {
	var b strings.Builder
	verdict := passStyle.Render("PASS")
	if !r.Passed {
		verdict = failStyle.Render("FAIL")
	}
	fmt.Fprintf(&b, "%s %s\n", titleStyle.Render(r.Workload.Binary), verdict)

	for _, c := range r.Clusters {
		summary := r.Summaries[c.Name]
		metrics := summary.Metrics()
		fmt.Fprintf(&b, "\n%s (%d runs)\n", titleStyle.Render(c.Name), len(c.Results))
		if len(metrics) == 0 {
			b.WriteString("  no numeric metrics\n")
			continue
		}
		t := table.New().
			Border(lipgloss.NormalBorder()).
			BorderStyle(rimStyle).
			Headers("metric", "average", "deviation", "noise %").
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return cellStyle.Inherit(headStyle)
				}
				return cellStyle
			})
		for _, m := range metrics {
			s := summary[m]
			t.Row(m, format(s.Average), format(s.Deviation), format(s.Noise))
		}
		b.WriteString(t.String() + "\n")
	}
	for _, f := range r.Failures {
		fmt.Fprintf(&b, "%s %s\n", failStyle.Render("check"), f)
	}
	return b.String()
}

func format(v float64) string {
	return fmt.Sprintf("%.4g", v)
}
