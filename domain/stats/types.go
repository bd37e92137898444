package stats

import (
	"fmt"
	"math"
)

// ============================================================================
// GROUP INPUTS (plain aggregated scalars, one per group)
// ============================================================================

// ProportionGroup carries the counts for one group of a binary outcome
// INVARIANTS:
// - N > 0 before any statistic is derived
// - 0 <= Positives <= N
type ProportionGroup struct {
	Label     string `json:"label"`
	Positives int    `json:"positives"` // Rows with the positive outcome
	N         int    `json:"n"`         // Rows in the group after filtering
}

// MeanGroup carries the moments for one group of a continuous outcome
// INVARIANTS:
// - N > 1 (sample standard deviation uses the n-1 denominator)
// - SD >= 0, Mean and SD finite
type MeanGroup struct {
	Label string  `json:"label"`
	Mean  float64 `json:"mean"`
	SD    float64 `json:"sd"` // Sample standard deviation
	N     int     `json:"n"`
}

// ============================================================================
// DERIVED SUMMARIES (computed once, never mutated)
// ============================================================================

// ProportionSummary is a ProportionGroup with its proportion and standard error
type ProportionSummary struct {
	ProportionGroup
	P  float64 `json:"p"`
	SE float64 `json:"se"` // sqrt(p(1-p)/n); zero iff p is 0 or 1
}

// MeanSummary is a MeanGroup with its standard error of the mean
type MeanSummary struct {
	MeanGroup
	SEM float64 `json:"sem"` // sd/sqrt(n)
}

// ============================================================================
// ESTIMATES
// ============================================================================

// EstimateKind names what an Estimate estimates
type EstimateKind string

const (
	KindProportion           EstimateKind = "proportion"
	KindMean                 EstimateKind = "mean"
	KindProportionDifference EstimateKind = "proportion_difference"
	KindMeanDifference       EstimateKind = "mean_difference"
)

// IsDifference reports whether the estimate compares two groups
func (k EstimateKind) IsDifference() bool {
	return k == KindProportionDifference || k == KindMeanDifference
}

// Interval is a closed confidence interval
type Interval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Midpoint returns the centre of the interval
func (i Interval) Midpoint() float64 {
	return (i.Lower + i.Upper) / 2
}

// Width returns Upper - Lower
func (i Interval) Width() float64 {
	return i.Upper - i.Lower
}

// Contains reports whether v lies inside the closed interval
func (i Interval) Contains(v float64) bool {
	return v >= i.Lower && v <= i.Upper
}

// String formats the interval the way reports print it
func (i Interval) String() string {
	return fmt.Sprintf("(%.4f, %.4f)", i.Lower, i.Upper)
}

// WarningCode represents structured warning types
type WarningCode string

const (
	WarningLowN        WarningCode = "LOW_N"        // Group n < 30, normal approximation is rough
	WarningDegenerate  WarningCode = "DEGENERATE"   // Proportion of 0 or 1 gives a zero standard error
	WarningSparseCells WarningCode = "SPARSE_CELLS" // n*p or n*(1-p) < 10
)

// Estimate is a point estimate, its standard error and a two-sided interval.
// For differences the point estimate is First - Second.
type Estimate struct {
	Kind          EstimateKind  `json:"kind"`
	First         string        `json:"first"`
	Second        string        `json:"second,omitempty"`
	PointEstimate float64       `json:"point_estimate"`
	StandardError float64       `json:"standard_error"`
	Level         float64       `json:"level"`
	Z             float64       `json:"z"`
	Interval      Interval      `json:"interval"`
	Warnings      []WarningCode `json:"warnings,omitempty"`
}

// MarginOfError returns z times the standard error
func (e Estimate) MarginOfError() float64 {
	return e.Z * e.StandardError
}

// ExcludesZero reports whether the interval lies entirely on one side of zero
func (e Estimate) ExcludesZero() bool {
	return !e.Interval.Contains(0)
}

// Label returns "First" or "First - Second"
func (e Estimate) Label() string {
	if e.Kind.IsDifference() {
		return e.First + " - " + e.Second
	}
	return e.First
}

func newEstimate(kind EstimateKind, first, second string, point, se, level, z float64) Estimate {
	margin := z * se
	return Estimate{
		Kind:          kind,
		First:         first,
		Second:        second,
		PointEstimate: point,
		StandardError: se,
		Level:         level,
		Z:             z,
		Interval:      Interval{Lower: point - margin, Upper: point + margin},
	}
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
