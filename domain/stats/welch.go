package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"nhanesci/domain/core"
)

// WelchTest is the unequal-variance t test that accompanies a mean difference
type WelchTest struct {
	T         float64 `json:"t"`
	DF        float64 `json:"df"` // Welch-Satterthwaite degrees of freedom
	PValue    float64 `json:"p_value"`
	CohensD   float64 `json:"cohens_d"` // Difference over the pooled standard deviation
	Magnitude string  `json:"magnitude"`
}

// Welch tests a.Mean == b.Mean without assuming equal variances
func Welch(a, b MeanGroup) (WelchTest, error) {
	sa, err := SummarizeMean(a)
	if err != nil {
		return WelchTest{}, err
	}
	sb, err := SummarizeMean(b)
	if err != nil {
		return WelchTest{}, err
	}

	n1, n2 := float64(sa.N), float64(sb.N)
	v1 := sa.SD * sa.SD / n1
	v2 := sb.SD * sb.SD / n2
	if v1+v2 == 0 {
		return WelchTest{}, fmt.Errorf("%w: both groups have zero variance", core.ErrInvalidSummary)
	}

	diff := sa.Mean - sb.Mean
	t := diff / math.Sqrt(v1+v2)
	df := math.Pow(v1+v2, 2) / (v1*v1/(n1-1) + v2*v2/(n2-1))

	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	p := 2 * dist.Survival(math.Abs(t))

	pooledSD := math.Sqrt(((n1-1)*sa.SD*sa.SD + (n2-1)*sb.SD*sb.SD) / (n1 + n2 - 2))
	d := 0.0
	if pooledSD > 0 {
		d = diff / pooledSD
	}

	return WelchTest{T: t, DF: df, PValue: p, CohensD: d, Magnitude: effectMagnitude(d)}, nil
}

// effectMagnitude applies Cohen's conventional cut-offs to |d|
func effectMagnitude(d float64) string {
	switch absD := math.Abs(d); {
	case absD < 0.2:
		return "negligible"
	case absD < 0.5:
		return "small"
	case absD < 0.8:
		return "medium"
	default:
		return "large"
	}
}
