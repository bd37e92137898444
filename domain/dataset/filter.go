package dataset

import (
	"fmt"
	"sort"
	"strings"

	"nhanesci/domain/core"
	"nhanesci/domain/stats"
)

// Extract recodes the selected columns and drops every row where either is missing.
// The same exclusion runs before every aggregation.
func (c Codebook) Extract(t *Table, sel Selection) (*Extraction, error) {
	columns := []core.VariableKey{sel.Group, sel.Outcome}
	if sel.Strata != nil {
		columns = append(columns, sel.Strata.Column)
	}
	for _, col := range columns {
		if !t.HasColumn(col) {
			return nil, core.NewColumnNotFoundError(string(col))
		}
	}

	ex := &Extraction{
		Selection:    sel,
		Observations: make([]Observation, 0, len(t.Rows)),
		Total:        len(t.Rows),
		Excluded:     make(map[MissingReason]int),
	}

	for _, row := range t.Rows {
		group := c.RecodeGroup(sel.Group, row[string(sel.Group)])
		if group.Missing {
			ex.Excluded[group.Reason]++
			continue
		}
		outcome := c.Recode(sel.Outcome, row[string(sel.Outcome)])
		if outcome.Missing {
			ex.Excluded[outcome.Reason]++
			continue
		}

		obs := Observation{Group: group.Label, Outcome: outcome}
		if sel.Strata != nil {
			sv := c.Recode(sel.Strata.Column, row[string(sel.Strata.Column)])
			if sv.Missing {
				ex.Excluded[sv.Reason]++
				continue
			}
			band, ok := sel.Strata.Band(sv.Number)
			if !ok {
				ex.Excluded[MissingOutOfRange]++
				continue
			}
			obs.Stratum = band
		}
		ex.Observations = append(ex.Observations, obs)
	}
	ex.Retained = len(ex.Observations)

	return ex, nil
}

// ObservedGroups returns the distinct group labels, sorted
func (e *Extraction) ObservedGroups() []string {
	seen := make(map[string]bool)
	for _, o := range e.Observations {
		seen[o.Group] = true
	}
	groups := make([]string, 0, len(seen))
	for g := range seen {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	return groups
}

// Stratum returns the observations that fall in band
func (e *Extraction) Stratum(band string) *Extraction {
	out := &Extraction{
		Selection: e.Selection,
		Total:     e.Total,
		Excluded:  e.Excluded,
	}
	for _, o := range e.Observations {
		if o.Stratum == band {
			out.Observations = append(out.Observations, o)
		}
	}
	out.Retained = len(out.Observations)
	return out
}

// ResolveGroups validates the requested pair against the codebook, or derives it
// from the observed labels when none was requested
func (c Codebook) ResolveGroups(e *Extraction, requested []string) ([2]string, error) {
	var pair [2]string
	column := e.Selection.Group

	if len(requested) == 0 {
		observed := e.ObservedGroups()
		if len(observed) != 2 {
			return pair, fmt.Errorf("%w: %s has %d observed levels %v", core.ErrTooManyLevels, column, len(observed), observed)
		}
		return [2]string{observed[0], observed[1]}, nil
	}
	if len(requested) != 2 {
		return pair, fmt.Errorf("%w: got %d groups %v", core.ErrTooManyLevels, len(requested), requested)
	}

	entry, known := c.Lookup(column)
	for i, label := range requested {
		label = strings.TrimSpace(label)
		if known && entry.Kind == KindCategorical {
			if !entry.HasLabel(label) {
				return pair, core.NewGroupNotFoundError(string(column), label)
			}
			label = canonicalLabel(entry, label)
		} else if !known {
			label = groupLabel(label)
		}
		pair[i] = label
	}
	if pair[0] == pair[1] {
		return pair, fmt.Errorf("%w: both groups are %q", core.ErrTooManyLevels, pair[0])
	}
	return pair, nil
}

// ProportionGroups counts positive outcomes per group of the pair
func (c Codebook) ProportionGroups(e *Extraction, pair [2]string, positive string) ([2]stats.ProportionGroup, error) {
	var out [2]stats.ProportionGroup

	entry, known := c.Lookup(e.Selection.Outcome)
	if !known || entry.Kind != KindCategorical {
		return out, fmt.Errorf("%w: %s", core.ErrNotBinary, e.Selection.Outcome)
	}
	if len(entry.Levels) != 2 {
		return out, fmt.Errorf("%w: %s has %d levels", core.ErrNotBinary, e.Selection.Outcome, len(entry.Levels))
	}
	if positive == "" {
		positive = entry.LevelLabels()[0]
	}
	if !entry.HasLabel(positive) {
		return out, core.NewGroupNotFoundError(string(e.Selection.Outcome), positive)
	}
	positive = canonicalLabel(entry, positive)

	outcomes := [2][]bool{}
	for _, o := range e.Observations {
		for i, g := range pair {
			if o.Group == g {
				outcomes[i] = append(outcomes[i], o.Outcome.Label == positive)
			}
		}
	}
	for i, g := range pair {
		out[i] = stats.ProportionGroupFromOutcomes(g, outcomes[i])
	}
	return out, nil
}

// ContinuousValues collects the outcome values per group of the pair
func (c Codebook) ContinuousValues(e *Extraction, pair [2]string) ([2][]float64, error) {
	var out [2][]float64

	entry, _ := c.Lookup(e.Selection.Outcome)
	if entry.Kind != KindContinuous {
		return out, fmt.Errorf("%w: %s is categorical", core.ErrNotContinuous, e.Selection.Outcome)
	}

	for _, o := range e.Observations {
		for i, g := range pair {
			if o.Group == g {
				out[i] = append(out[i], o.Outcome.Number)
			}
		}
	}
	return out, nil
}

// MeanGroups computes sample moments per group of the pair
func (c Codebook) MeanGroups(e *Extraction, pair [2]string) ([2]stats.MeanGroup, error) {
	var out [2]stats.MeanGroup

	values, err := c.ContinuousValues(e, pair)
	if err != nil {
		return out, err
	}
	for i, g := range pair {
		mg, err := stats.MeanGroupFromValues(g, values[i])
		if err != nil {
			return out, err
		}
		out[i] = mg
	}
	return out, nil
}
