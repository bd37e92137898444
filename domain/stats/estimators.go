package stats

import (
	"fmt"
	"math"

	"nhanesci/domain/core"
)

// lowN is the group size below which the normal approximation gets flagged
const lowN = 30

// SummarizeProportion derives p and its standard error for one group
func SummarizeProportion(g ProportionGroup) (ProportionSummary, error) {
	if g.N < 0 || g.Positives < 0 || g.Positives > g.N {
		return ProportionSummary{}, fmt.Errorf("%w: %q has %d positives out of %d", core.ErrInvalidCount, g.Label, g.Positives, g.N)
	}
	if g.N == 0 {
		return ProportionSummary{}, core.NewEmptyGroupError(g.Label)
	}

	n := float64(g.N)
	p := float64(g.Positives) / n
	return ProportionSummary{
		ProportionGroup: g,
		P:               p,
		SE:              math.Sqrt(p * (1 - p) / n),
	}, nil
}

// SummarizeMean derives the standard error of the mean for one group
func SummarizeMean(g MeanGroup) (MeanSummary, error) {
	if g.N < 0 {
		return MeanSummary{}, fmt.Errorf("%w: %q has n=%d", core.ErrInvalidCount, g.Label, g.N)
	}
	if g.N == 0 {
		return MeanSummary{}, core.NewEmptyGroupError(g.Label)
	}
	if g.N == 1 {
		return MeanSummary{}, core.NewInsufficientSampleError(g.Label, g.N)
	}
	if !finite(g.Mean, g.SD) || g.SD < 0 {
		return MeanSummary{}, fmt.Errorf("%w: %q has mean=%v sd=%v", core.ErrInvalidSummary, g.Label, g.Mean, g.SD)
	}

	return MeanSummary{
		MeanGroup: g,
		SEM:       g.SD / math.Sqrt(float64(g.N)),
	}, nil
}

// PooledStandardError combines the standard errors of two independent estimates
func PooledStandardError(se1, se2 float64) float64 {
	return math.Sqrt(se1*se1 + se2*se2)
}

// ProportionInterval is the one-sample interval p ± z·se for a single group
func ProportionInterval(g ProportionGroup, opts ...Option) (Estimate, error) {
	level, z, err := resolveOptions(opts)
	if err != nil {
		return Estimate{}, err
	}
	s, err := SummarizeProportion(g)
	if err != nil {
		return Estimate{}, err
	}

	est := newEstimate(KindProportion, g.Label, "", s.P, s.SE, level, z)
	est.Warnings = proportionWarnings(s)
	return est, nil
}

// MeanInterval is the one-sample interval m ± z·sem for a single group
func MeanInterval(g MeanGroup, opts ...Option) (Estimate, error) {
	level, z, err := resolveOptions(opts)
	if err != nil {
		return Estimate{}, err
	}
	s, err := SummarizeMean(g)
	if err != nil {
		return Estimate{}, err
	}

	est := newEstimate(KindMean, g.Label, "", s.Mean, s.SEM, level, z)
	est.Warnings = meanWarnings(s)
	return est, nil
}

// ProportionDifference estimates p(a) - p(b) for two independent groups
func ProportionDifference(a, b ProportionGroup, opts ...Option) (Estimate, error) {
	level, z, err := resolveOptions(opts)
	if err != nil {
		return Estimate{}, err
	}
	sa, err := SummarizeProportion(a)
	if err != nil {
		return Estimate{}, err
	}
	sb, err := SummarizeProportion(b)
	if err != nil {
		return Estimate{}, err
	}

	est := newEstimate(KindProportionDifference, a.Label, b.Label,
		sa.P-sb.P, PooledStandardError(sa.SE, sb.SE), level, z)
	est.Warnings = mergeWarnings(proportionWarnings(sa), proportionWarnings(sb))
	return est, nil
}

// MeanDifference estimates mean(a) - mean(b) for two independent groups
func MeanDifference(a, b MeanGroup, opts ...Option) (Estimate, error) {
	level, z, err := resolveOptions(opts)
	if err != nil {
		return Estimate{}, err
	}
	sa, err := SummarizeMean(a)
	if err != nil {
		return Estimate{}, err
	}
	sb, err := SummarizeMean(b)
	if err != nil {
		return Estimate{}, err
	}

	est := newEstimate(KindMeanDifference, a.Label, b.Label,
		sa.Mean-sb.Mean, PooledStandardError(sa.SEM, sb.SEM), level, z)
	est.Warnings = mergeWarnings(meanWarnings(sa), meanWarnings(sb))
	return est, nil
}

func proportionWarnings(s ProportionSummary) []WarningCode {
	var w []WarningCode
	if s.N < lowN {
		w = append(w, WarningLowN)
	}
	if s.SE == 0 {
		w = append(w, WarningDegenerate)
	}
	n := float64(s.N)
	if n*s.P < 10 || n*(1-s.P) < 10 {
		w = append(w, WarningSparseCells)
	}
	return w
}

func meanWarnings(s MeanSummary) []WarningCode {
	if s.N < lowN {
		return []WarningCode{WarningLowN}
	}
	return nil
}

func mergeWarnings(a, b []WarningCode) []WarningCode {
	seen := make(map[WarningCode]bool, len(a)+len(b))
	var out []WarningCode
	for _, list := range [][]WarningCode{a, b} {
		for _, w := range list {
			if !seen[w] {
				seen[w] = true
				out = append(out, w)
			}
		}
	}
	return out
}
