package profiling

import (
	"fmt"
	"math"
	"sort"

	"github.com/montanaflynn/stats"

	"nhanesci/domain/core"
)

// DefaultWhiskerCoef is Tukey's 1.5 x IQR whisker reach
const DefaultWhiskerCoef = 1.5

// BoxPlot summarizes one group's continuous outcome for a box-and-whisker chart
type BoxPlot struct {
	Group        string    `json:"group"`
	N            int       `json:"n"`
	Mean         float64   `json:"mean"`
	StdDev       float64   `json:"std_dev"` // Sample standard deviation
	Min          float64   `json:"min"`
	Q1           float64   `json:"q1"`
	Median       float64   `json:"median"`
	Q3           float64   `json:"q3"`
	Max          float64   `json:"max"`
	LowerWhisker float64   `json:"lower_whisker"` // Smallest value within Q1 - coef*IQR
	UpperWhisker float64   `json:"upper_whisker"` // Largest value within Q3 + coef*IQR
	Outliers     []float64 `json:"outliers,omitempty"`
	Skewness     float64   `json:"skewness"`
}

// IQR returns Q3 - Q1
func (b BoxPlot) IQR() float64 {
	return b.Q3 - b.Q1
}

// BoxPlotAnalyzer computes box-plot summaries
type BoxPlotAnalyzer struct {
	coef float64
}

// NewBoxPlotAnalyzer creates an analyzer; a non-positive coef selects DefaultWhiskerCoef
func NewBoxPlotAnalyzer(coef float64) *BoxPlotAnalyzer {
	if coef <= 0 {
		coef = DefaultWhiskerCoef
	}
	return &BoxPlotAnalyzer{coef: coef}
}

// Summarize computes the box plot of values; at least two values are needed for quartiles
func (a *BoxPlotAnalyzer) Summarize(group string, values []float64) (BoxPlot, error) {
	switch len(values) {
	case 0:
		return BoxPlot{}, core.NewEmptyGroupError(group)
	case 1:
		return BoxPlot{}, core.NewInsufficientSampleError(group, 1)
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	q, err := stats.Quartile(sorted)
	if err != nil {
		return BoxPlot{}, fmt.Errorf("quartiles for %q: %w", group, err)
	}
	mean, err := stats.Mean(sorted)
	if err != nil {
		return BoxPlot{}, err
	}
	sd, err := stats.StandardDeviationSample(sorted)
	if err != nil {
		return BoxPlot{}, err
	}

	box := BoxPlot{
		Group:    group,
		N:        len(sorted),
		Mean:     mean,
		StdDev:   sd,
		Min:      sorted[0],
		Q1:       q.Q1,
		Median:   q.Q2,
		Q3:       q.Q3,
		Max:      sorted[len(sorted)-1],
		Skewness: calculateSkewness(sorted, mean),
	}

	lowFence := box.Q1 - a.coef*box.IQR()
	highFence := box.Q3 + a.coef*box.IQR()
	box.LowerWhisker = box.Max
	box.UpperWhisker = box.Min
	for _, v := range sorted {
		if v < lowFence || v > highFence {
			box.Outliers = append(box.Outliers, v)
			continue
		}
		box.LowerWhisker = math.Min(box.LowerWhisker, v)
		box.UpperWhisker = math.Max(box.UpperWhisker, v)
	}

	return box, nil
}

// calculateSkewness computes the adjusted Fisher-Pearson skewness G1 = g1*sqrt(n(n-1))/(n-2),
// where g1 = m3/m2^1.5 uses population (divide by n) central moments.
func calculateSkewness(data []float64, mean float64) float64 {
	if len(data) < 3 {
		return 0
	}

	n := float64(len(data))
	m2, m3 := 0.0, 0.0
	for _, x := range data {
		d := x - mean
		m2 += d * d
		m3 += d * d * d
	}
	m2 /= n
	m3 /= n
	if m2 == 0 {
		return 0
	}

	g1 := m3 / math.Pow(m2, 1.5)
	return g1 * math.Sqrt(n*(n-1)) / (n - 2)
}
