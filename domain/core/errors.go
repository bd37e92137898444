package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Estimator errors
	ErrDomain             = errors.New("domain error")
	ErrEmptyGroup         = fmt.Errorf("%w: group has no observations", ErrDomain)
	ErrInsufficientSample = fmt.Errorf("%w: sample standard deviation needs at least two observations", ErrDomain)
	ErrInvalidCount       = fmt.Errorf("%w: invalid count", ErrDomain)
	ErrInvalidSummary     = fmt.Errorf("%w: invalid summary statistic", ErrDomain)

	// Dataset errors
	ErrNotFound       = errors.New("resource not found")
	ErrColumnNotFound = fmt.Errorf("%w: column", ErrNotFound)
	ErrGroupNotFound  = fmt.Errorf("%w: group level", ErrNotFound)
	ErrInvalidStrata  = errors.New("invalid strata specification")
	ErrNotBinary      = errors.New("outcome is not binary")
	ErrNotContinuous  = errors.New("outcome is not continuous")
	ErrTooManyLevels  = errors.New("comparison needs exactly two group levels")
	ErrInvalidLevel   = errors.New("confidence level must be in (0, 1)")

	// Run errors
	ErrInvalidManifest = errors.New("invalid run manifest")
)

// Error constructors with context
func NewEmptyGroupError(group string) error {
	return fmt.Errorf("%w: %q", ErrEmptyGroup, group)
}

func NewInsufficientSampleError(group string, n int) error {
	return fmt.Errorf("%w: %q has n=%d", ErrInsufficientSample, group, n)
}

func NewColumnNotFoundError(column string) error {
	return fmt.Errorf("%w %s", ErrColumnNotFound, column)
}

func NewGroupNotFoundError(column, level string) error {
	return fmt.Errorf("%w %q in column %s", ErrGroupNotFound, level, column)
}

// Error checking helpers
func IsDomainError(err error) bool {
	return errors.Is(err, ErrDomain)
}

func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsInputError(err error) bool {
	return errors.Is(err, ErrInvalidStrata) ||
		errors.Is(err, ErrNotBinary) ||
		errors.Is(err, ErrNotContinuous) ||
		errors.Is(err, ErrTooManyLevels) ||
		errors.Is(err, ErrInvalidLevel)
}
