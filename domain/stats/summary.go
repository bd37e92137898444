package stats

import (
	"github.com/montanaflynn/stats"

	"nhanesci/domain/core"
)

// MeanGroupFromValues computes the sample mean and sample standard deviation of values
func MeanGroupFromValues(label string, values []float64) (MeanGroup, error) {
	switch len(values) {
	case 0:
		return MeanGroup{}, core.NewEmptyGroupError(label)
	case 1:
		return MeanGroup{}, core.NewInsufficientSampleError(label, 1)
	}

	mean, err := stats.Mean(values)
	if err != nil {
		return MeanGroup{}, err
	}
	sd, err := stats.StandardDeviationSample(values)
	if err != nil {
		return MeanGroup{}, err
	}

	return MeanGroup{Label: label, Mean: mean, SD: sd, N: len(values)}, nil
}

// ProportionGroupFromOutcomes counts positive outcomes
func ProportionGroupFromOutcomes(label string, outcomes []bool) ProportionGroup {
	g := ProportionGroup{Label: label, N: len(outcomes)}
	for _, positive := range outcomes {
		if positive {
			g.Positives++
		}
	}
	return g
}
