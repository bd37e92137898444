package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nhanesci/domain/core"
)

func TestWelch_BMIBySex(t *testing.T) {
	w, err := Welch(femaleBMI, maleBMI)
	require.NoError(t, err)

	assert.InDelta(t, 6.2668, w.T, 1e-3)
	assert.InDelta(t, 5626.35, w.DF, 0.05)
	assert.InDelta(t, 3.96e-10, w.PValue, 1e-11)
	assert.InDelta(t, 0.1643, w.CohensD, 1e-4)
	assert.Equal(t, "negligible", w.Magnitude)

	diff, err := MeanDifference(femaleBMI, maleBMI)
	require.NoError(t, err)
	assert.InDelta(t, diff.PointEstimate/diff.StandardError, w.T, 1e-9)
}

func TestWelch_SmallSamples(t *testing.T) {
	a, err := MeanGroupFromValues("a", []float64{1, 2, 3, 4, 5})
	require.NoError(t, err)
	b, err := MeanGroupFromValues("b", []float64{2, 4, 6, 8, 10})
	require.NoError(t, err)

	w, err := Welch(a, b)
	require.NoError(t, err)
	assert.InDelta(t, -1.8974, w.T, 1e-4)
	assert.InDelta(t, 5.8824, w.DF, 1e-4)
	assert.InDelta(t, 0.1075, w.PValue, 1e-3)
	assert.InDelta(t, -1.2, w.CohensD, 1e-9)
	assert.Equal(t, "large", w.Magnitude)

	swapped, err := Welch(b, a)
	require.NoError(t, err)
	assert.InDelta(t, -w.T, swapped.T, 1e-12)
	assert.InDelta(t, w.PValue, swapped.PValue, 1e-12)
}

func TestWelch_Errors(t *testing.T) {
	_, err := Welch(MeanGroup{Label: "a", Mean: 1, SD: 0, N: 10}, MeanGroup{Label: "b", Mean: 2, SD: 0, N: 10})
	assert.ErrorIs(t, err, core.ErrInvalidSummary)

	_, err = Welch(MeanGroup{Label: "a", Mean: 1, SD: 1, N: 1}, maleBMI)
	assert.ErrorIs(t, err, core.ErrInsufficientSample)
}
