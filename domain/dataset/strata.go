package dataset

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"nhanesci/domain/core"
)

// Strata cuts a continuous column into right-closed bands (b[i], b[i+1]]
type Strata struct {
	Column core.VariableKey `json:"column"`
	Bounds []float64        `json:"bounds"`
}

// ParseStrata reads "COLUMN:b0,b1,...,bk" with strictly increasing bounds
func ParseStrata(value string) (*Strata, error) {
	column, list, ok := strings.Cut(value, ":")
	if !ok {
		return nil, fmt.Errorf("%w: %q, want COLUMN:b0,b1,...", core.ErrInvalidStrata, value)
	}
	key, err := core.ParseVariableKey(column)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidStrata, err)
	}

	parts := strings.Split(list, ",")
	bounds := make([]float64, 0, len(parts))
	for _, p := range parts {
		b, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bound %q is not a number", core.ErrInvalidStrata, p)
		}
		bounds = append(bounds, b)
	}

	s := &Strata{Column: key, Bounds: bounds}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks there are at least two strictly increasing bounds
func (s *Strata) Validate() error {
	if len(s.Bounds) < 2 {
		return fmt.Errorf("%w: need at least two bounds", core.ErrInvalidStrata)
	}
	if !sort.SliceIsSorted(s.Bounds, func(i, j int) bool { return s.Bounds[i] < s.Bounds[j] }) {
		return fmt.Errorf("%w: bounds must increase", core.ErrInvalidStrata)
	}
	for i := 1; i < len(s.Bounds); i++ {
		if s.Bounds[i] == s.Bounds[i-1] {
			return fmt.Errorf("%w: duplicate bound %v", core.ErrInvalidStrata, s.Bounds[i])
		}
	}
	return nil
}

// Labels returns the band labels in order
func (s *Strata) Labels() []string {
	labels := make([]string, 0, len(s.Bounds)-1)
	for i := 0; i+1 < len(s.Bounds); i++ {
		labels = append(labels, bandLabel(s.Bounds[i], s.Bounds[i+1]))
	}
	return labels
}

// Band returns the label of the band holding v
func (s *Strata) Band(v float64) (string, bool) {
	for i := 0; i+1 < len(s.Bounds); i++ {
		if v > s.Bounds[i] && v <= s.Bounds[i+1] {
			return bandLabel(s.Bounds[i], s.Bounds[i+1]), true
		}
	}
	return "", false
}

func bandLabel(lo, hi float64) string {
	return fmt.Sprintf("(%s, %s]", strconv.FormatFloat(lo, 'f', -1, 64), strconv.FormatFloat(hi, 'f', -1, 64))
}
