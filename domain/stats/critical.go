package stats

import (
	"fmt"

	"gonum.org/v1/gonum/stat/distuv"

	"nhanesci/domain/core"
)

const (
	// DefaultConfidenceLevel is the two-sided level used when no option is given
	DefaultConfidenceLevel = 0.95
	// DefaultZ is the conventional rounded critical value for 95%
	DefaultZ = 1.96
)

// Option configures an estimator call
type Option func(*options)

type options struct {
	level float64
}

// WithConfidenceLevel sets the two-sided confidence level, e.g. 0.90 or 0.99
func WithConfidenceLevel(level float64) Option {
	return func(o *options) {
		o.level = level
	}
}

func resolveOptions(opts []Option) (level, z float64, err error) {
	o := options{level: DefaultConfidenceLevel}
	for _, opt := range opts {
		opt(&o)
	}
	z, err = CriticalValue(o.level)
	if err != nil {
		return 0, 0, err
	}
	return o.level, z, nil
}

// CriticalValue returns the two-sided standard normal critical value for level.
// 0.95 maps to the rounded 1.96 so published intervals reproduce exactly.
func CriticalValue(level float64) (float64, error) {
	if !(level > 0 && level < 1) {
		return 0, fmt.Errorf("%w: got %v", core.ErrInvalidLevel, level)
	}
	if level == DefaultConfidenceLevel {
		return DefaultZ, nil
	}
	alpha := 1 - level
	return distuv.UnitNormal.Quantile(1 - alpha/2), nil
}
