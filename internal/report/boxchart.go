package report

import (
	"fmt"
	"math"
	"strings"

	"nhanesci/app"
)

// BoxChart draws the boxes of bp on one shared horizontal scale:
// whiskers as '-' capped by '|', the box as '=', the median as '#', outliers as 'o'.
func BoxChart(bp app.BoxPlotResult, width int) string {
	if len(bp.Boxes) == 0 {
		return ""
	}
	if width < 10 {
		width = 10
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	labelWidth := 0
	for _, b := range bp.Boxes {
		lo = math.Min(lo, b.Min)
		hi = math.Max(hi, b.Max)
		if len(b.Group) > labelWidth {
			labelWidth = len(b.Group)
		}
	}
	span := hi - lo
	pos := func(v float64) int {
		if span == 0 {
			return width / 2
		}
		p := int(math.Round((v - lo) / span * float64(width-1)))
		return min(max(p, 0), width-1)
	}

	var sb strings.Builder
	for _, b := range bp.Boxes {
		line := []rune(strings.Repeat(" ", width))
		for i := pos(b.LowerWhisker); i <= pos(b.UpperWhisker); i++ {
			line[i] = '-'
		}
		for i := pos(b.Q1); i <= pos(b.Q3); i++ {
			line[i] = '='
		}
		line[pos(b.LowerWhisker)] = '|'
		line[pos(b.UpperWhisker)] = '|'
		line[pos(b.Median)] = '#'
		for _, o := range b.Outliers {
			line[pos(o)] = 'o'
		}
		fmt.Fprintf(&sb, "%-*s %s\n", labelWidth, b.Group, strings.TrimRight(string(line), " "))
	}

	left := fmt.Sprintf("%.1f", lo)
	right := fmt.Sprintf("%.1f", hi)
	gap := max(width-len(left)-len(right), 1)
	fmt.Fprintf(&sb, "%-*s %s%s%s\n", labelWidth, "", left, strings.Repeat(" ", gap), right)
	return sb.String()
}
