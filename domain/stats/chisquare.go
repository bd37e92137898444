package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"nhanesci/domain/core"
)

// ChiSquareTest is Pearson's test of independence on the 2x2 table group by outcome
type ChiSquareTest struct {
	ChiSquare   float64 `json:"chi_square"`
	DF          int     `json:"df"`
	PValue      float64 `json:"p_value"`
	CramersV    float64 `json:"cramers_v"`
	MinExpected float64 `json:"min_expected"` // Below 5 the chi-square approximation is unreliable
}

// ChiSquare tests whether the positive share differs between a and b
func ChiSquare(a, b ProportionGroup) (ChiSquareTest, error) {
	if _, err := SummarizeProportion(a); err != nil {
		return ChiSquareTest{}, err
	}
	if _, err := SummarizeProportion(b); err != nil {
		return ChiSquareTest{}, err
	}

	table := [2][2]int{
		{a.Positives, a.N - a.Positives},
		{b.Positives, b.N - b.Positives},
	}
	total := a.N + b.N
	rowTotals := [2]int{a.N, b.N}
	colTotals := [2]int{a.Positives + b.Positives, total - a.Positives - b.Positives}
	if colTotals[0] == 0 || colTotals[1] == 0 {
		return ChiSquareTest{}, fmt.Errorf("%w: outcome does not vary across %q and %q", core.ErrInvalidSummary, a.Label, b.Label)
	}

	chiSq := 0.0
	minExpected := math.Inf(1)
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			expected := float64(rowTotals[i]) * float64(colTotals[j]) / float64(total)
			minExpected = math.Min(minExpected, expected)
			observed := float64(table[i][j])
			chiSq += (observed - expected) * (observed - expected) / expected
		}
	}

	dist := distuv.ChiSquared{K: 1}
	return ChiSquareTest{
		ChiSquare:   chiSq,
		DF:          1,
		PValue:      dist.Survival(chiSq),
		CramersV:    math.Sqrt(chiSq / float64(total)),
		MinExpected: minExpected,
	}, nil
}
