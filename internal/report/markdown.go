package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"nhanesci/app"
)

// Markdown returns the report as GitHub-flavoured markdown
func Markdown(r *app.Report) string {
	var sb strings.Builder

	sb.WriteString("# Two-sample confidence intervals\n\n")
	fmt.Fprintf(&sb, "- Run: `%s`\n", r.RunID)
	fmt.Fprintf(&sb, "- Source: `%s` (sha256 `%s`)\n", r.Source, r.Fingerprint.Short())
	fmt.Fprintf(&sb, "- Rows: %d, columns: %d\n", r.Rows, r.Columns)
	fmt.Fprintf(&sb, "- Replay hash: `%s` (version %s)\n", r.ReplayHash.Short(), r.CodeVersion)

	for _, a := range r.Analyses {
		fmt.Fprintf(&sb, "\n## %s\n\n", analysisTitle(a))
		fmt.Fprintf(&sb, "_%s_\n\n", exclusionSummary(a))
		writeMarkdownTable(&sb, estimateHeaders(a), estimateRows(a))
		if test := testLine(a); test != "" {
			fmt.Fprintf(&sb, "\n%s\n", test)
		}
		if warnings := warningList(a); warnings != "" {
			fmt.Fprintf(&sb, "\n**Warnings:** %s\n", warnings)
		}

		if len(a.Strata) > 0 {
			fmt.Fprintf(&sb, "\n### By stratum (%s)\n\n", differenceLabel(a))
			var rows [][]string
			for _, s := range a.Strata {
				if s.Error != "" || s.Difference == nil {
					rows = append(rows, []string{s.Stratum, fmt.Sprintf("%d", s.Retained), "error", "", s.Error})
					continue
				}
				d := s.Difference
				rows = append(rows, []string{s.Stratum, fmt.Sprintf("%d", s.Retained),
					fmt.Sprintf("%.4f", d.PointEstimate), fmt.Sprintf("%.5f", d.StandardError), d.Interval.String()})
			}
			writeMarkdownTable(&sb, []string{"Stratum", "n", "Difference", "SE", levelHeader(a)}, rows)
		}
	}

	for _, bp := range r.BoxPlots {
		fmt.Fprintf(&sb, "\n## Box plot %s by %s\n\n", bp.Outcome, bp.Group)
		headers := []string{"Group", "n", "Min", "Q1", "Median", "Q3", "Max", "Outliers"}
		var rows [][]string
		for _, b := range bp.Boxes {
			rows = append(rows, []string{b.Group, fmt.Sprintf("%d", b.N),
				fmt.Sprintf("%.2f", b.Min), fmt.Sprintf("%.2f", b.Q1), fmt.Sprintf("%.2f", b.Median),
				fmt.Sprintf("%.2f", b.Q3), fmt.Sprintf("%.2f", b.Max), fmt.Sprintf("%d", len(b.Outliers))})
		}
		writeMarkdownTable(&sb, headers, rows)
		sb.WriteString("\n```\n")
		sb.WriteString(BoxChart(bp, 60))
		sb.WriteString("```\n")
	}

	return sb.String()
}

func writeMarkdownTable(sb *strings.Builder, headers []string, rows [][]string) {
	sb.WriteString("| " + strings.Join(headers, " | ") + " |\n")
	seps := make([]string, len(headers))
	for i := range seps {
		seps[i] = "---"
	}
	sb.WriteString("| " + strings.Join(seps, " | ") + " |\n")
	for _, row := range rows {
		cells := make([]string, len(headers))
		for i := range cells {
			if i < len(row) {
				cells[i] = strings.ReplaceAll(row[i], "|", "\\|")
			}
		}
		sb.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
}

func renderMarkdown(w io.Writer, r *app.Report) error {
	_, err := io.WriteString(w, Markdown(r))
	return err
}

func renderHTML(w io.Writer, r *app.Report) error {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	doc := p.Parse([]byte(Markdown(r)))

	renderer := html.NewRenderer(html.RendererOptions{
		Title: "Two-sample confidence intervals",
		Flags: html.CommonFlags | html.CompletePage,
	})
	_, err := w.Write(markdown.Render(doc, renderer))
	return err
}
