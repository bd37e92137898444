package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"nhanesci/app"
	"nhanesci/domain/dataset"
	"nhanesci/domain/stats"
	"nhanesci/internal/errors"
)

// Renderer writes a report in one output format
type Renderer interface {
	Render(w io.Writer, r *app.Report) error
}

// RendererFunc adapts a function to Renderer
type RendererFunc func(w io.Writer, r *app.Report) error

func (f RendererFunc) Render(w io.Writer, r *app.Report) error { return f(w, r) }

// ForFormat returns the renderer for text, json, markdown or html
func ForFormat(format string) (Renderer, error) {
	switch strings.ToLower(format) {
	case "", "text":
		return RendererFunc(renderText), nil
	case "json":
		return RendererFunc(renderJSON), nil
	case "markdown", "md":
		return RendererFunc(renderMarkdown), nil
	case "html":
		return RendererFunc(renderHTML), nil
	}
	return nil, errors.InvalidInput(fmt.Sprintf("unknown output format %q", format))
}

func analysisTitle(a app.AnalysisResult) string {
	switch a.Kind {
	case app.AnalysisProportion:
		return fmt.Sprintf("Proportion %s = %s by %s", a.Outcome, a.Positive, a.Group)
	default:
		return fmt.Sprintf("Mean %s by %s", a.Outcome, a.Group)
	}
}

func exclusionSummary(a app.AnalysisResult) string {
	if len(a.Excluded) == 0 {
		return fmt.Sprintf("retained %d of %d rows", a.Retained, a.Total)
	}
	reasons := make([]string, 0, len(a.Excluded))
	for reason := range a.Excluded {
		reasons = append(reasons, string(reason))
	}
	sort.Strings(reasons)

	parts := make([]string, len(reasons))
	for i, reason := range reasons {
		parts[i] = fmt.Sprintf("%s %d", reason, a.Excluded[dataset.MissingReason(reason)])
	}
	return fmt.Sprintf("retained %d of %d rows; excluded %s", a.Retained, a.Total, strings.Join(parts, ", "))
}

func levelHeader(a app.AnalysisResult) string {
	level := stats.DefaultConfidenceLevel
	if a.Difference != nil {
		level = a.Difference.Level
	}
	return fmt.Sprintf("%s CI", formatPercent(level))
}

func formatPercent(level float64) string {
	s := fmt.Sprintf("%.1f", level*100)
	return strings.TrimSuffix(s, ".0") + "%"
}

// estimateRows builds one row per group plus the difference row
func estimateRows(a app.AnalysisResult) [][]string {
	var rows [][]string
	for i, est := range a.GroupIntervals {
		n := 0
		switch {
		case i < len(a.Proportions):
			n = a.Proportions[i].N
		case i < len(a.Means):
			n = a.Means[i].N
		}
		row := []string{est.Label(), fmt.Sprintf("%d", n)}
		if a.Kind == app.AnalysisMean && i < len(a.Means) {
			row = append(row, fmt.Sprintf("%.4f", a.Means[i].SD))
		}
		row = append(row, fmt.Sprintf("%.4f", est.PointEstimate), fmt.Sprintf("%.5f", est.StandardError), est.Interval.String())
		rows = append(rows, row)
	}
	if d := a.Difference; d != nil {
		row := []string{d.Label(), ""}
		if a.Kind == app.AnalysisMean {
			row = append(row, "")
		}
		row = append(row, fmt.Sprintf("%.4f", d.PointEstimate), fmt.Sprintf("%.5f", d.StandardError), d.Interval.String())
		rows = append(rows, row)
	}
	return rows
}

func estimateHeaders(a app.AnalysisResult) []string {
	if a.Kind == app.AnalysisMean {
		return []string{"Group", "n", "SD", "Mean", "SE", levelHeader(a)}
	}
	return []string{"Group", "n", "p", "SE", levelHeader(a)}
}

func warningList(a app.AnalysisResult) string {
	if a.Difference == nil || len(a.Difference.Warnings) == 0 {
		return ""
	}
	parts := make([]string, len(a.Difference.Warnings))
	for i, w := range a.Difference.Warnings {
		parts[i] = string(w)
	}
	return strings.Join(parts, ", ")
}

// testLine summarizes the significance test that accompanies the interval
func testLine(a app.AnalysisResult) string {
	switch {
	case a.Welch != nil:
		w := a.Welch
		return fmt.Sprintf("Welch t = %.3f, df = %.1f, p = %.4g, Cohen's d = %.3f (%s)", w.T, w.DF, w.PValue, w.CohensD, w.Magnitude)
	case a.ChiSquare != nil:
		c := a.ChiSquare
		line := fmt.Sprintf("Chi-square = %.3f, df = %d, p = %.4g, Cramer's V = %.3f", c.ChiSquare, c.DF, c.PValue, c.CramersV)
		if c.MinExpected < 5 {
			line += fmt.Sprintf(" (min expected count %.1f)", c.MinExpected)
		}
		return line
	}
	return ""
}
