package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"nhanesci/app"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	mutedStyle  = lipgloss.NewStyle().Faint(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

// simpleTable renders static rows with columns sized to their widest cell
type simpleTable struct {
	headers []string
	rows    [][]string
}

func (t simpleTable) view() string {
	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) && lipgloss.Width(cell) > widths[i] {
				widths[i] = lipgloss.Width(cell)
			}
		}
	}
	for i := range widths {
		widths[i] += 2
	}

	var sb strings.Builder
	writeRow := func(cells []string, style lipgloss.Style) {
		for i, w := range widths {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			sb.WriteString(style.Width(w).Render(cell))
			if i < len(widths)-1 {
				sb.WriteString(mutedStyle.Render("|"))
			}
		}
		sb.WriteString("\n")
	}

	writeRow(t.headers, headerStyle)
	total := len(widths) - 1
	for _, w := range widths {
		total += w
	}
	sb.WriteString(mutedStyle.Render(strings.Repeat("-", total)))
	sb.WriteString("\n")
	for _, row := range t.rows {
		writeRow(row, cellStyle)
	}
	return sb.String()
}

func renderText(w io.Writer, r *app.Report) error {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Two-sample confidence intervals"))
	sb.WriteString("\n")
	sb.WriteString(mutedStyle.Render(fmt.Sprintf("run %s  source %s  sha256 %s  replay %s  rows %d",
		r.RunID, r.Source, r.Fingerprint.Short(), r.ReplayHash.Short(), r.Rows)))
	sb.WriteString("\n")

	for _, a := range r.Analyses {
		sb.WriteString("\n")
		writeTextAnalysis(&sb, a)
	}

	for _, bp := range r.BoxPlots {
		sb.WriteString("\n")
		sb.WriteString(titleStyle.Render(fmt.Sprintf("Box plot %s by %s", bp.Outcome, bp.Group)))
		sb.WriteString("\n")
		sb.WriteString(BoxChart(bp, 60))
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

func writeTextAnalysis(sb *strings.Builder, a app.AnalysisResult) {
	sb.WriteString(titleStyle.Render(analysisTitle(a)))
	sb.WriteString("\n")
	sb.WriteString(mutedStyle.Render(exclusionSummary(a)))
	sb.WriteString("\n")
	sb.WriteString(simpleTable{headers: estimateHeaders(a), rows: estimateRows(a)}.view())
	if test := testLine(a); test != "" {
		sb.WriteString(mutedStyle.Render(test))
		sb.WriteString("\n")
	}
	if warnings := warningList(a); warnings != "" {
		sb.WriteString(warnStyle.Render("warnings: " + warnings))
		sb.WriteString("\n")
	}

	if len(a.Strata) == 0 {
		return
	}
	headers := []string{"Stratum", "n", "Difference", "SE", levelHeader(a)}
	var rows [][]string
	for _, s := range a.Strata {
		if s.Error != "" || s.Difference == nil {
			rows = append(rows, []string{s.Stratum, fmt.Sprintf("%d", s.Retained), "error", "", s.Error})
			continue
		}
		d := s.Difference
		rows = append(rows, []string{
			s.Stratum,
			fmt.Sprintf("%d", s.Retained),
			fmt.Sprintf("%.4f", d.PointEstimate),
			fmt.Sprintf("%.5f", d.StandardError),
			d.Interval.String(),
		})
	}
	sb.WriteString(mutedStyle.Render("by stratum (" + differenceLabel(a) + ")"))
	sb.WriteString("\n")
	sb.WriteString(simpleTable{headers: headers, rows: rows}.view())
}

func differenceLabel(a app.AnalysisResult) string {
	if a.Difference == nil {
		return ""
	}
	return a.Difference.Label()
}
