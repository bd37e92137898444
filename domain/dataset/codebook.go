package dataset

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"nhanesci/domain/core"
)

// ColumnKind distinguishes coded categorical columns from measurements
type ColumnKind string

const (
	KindCategorical ColumnKind = "categorical"
	KindContinuous  ColumnKind = "continuous"
)

// ColumnCodebook describes how one column's raw codes are read
type ColumnCodebook struct {
	Description string         `yaml:"description" json:"description"`
	Kind        ColumnKind     `yaml:"kind" json:"kind"`
	Levels      map[int]string `yaml:"levels,omitempty" json:"levels,omitempty"`   // Code -> label
	Missing     map[int]string `yaml:"missing,omitempty" json:"missing,omitempty"` // Sentinel code -> reason
}

// LevelLabels returns the labels in code order
func (c ColumnCodebook) LevelLabels() []string {
	codes := make([]int, 0, len(c.Levels))
	for code := range c.Levels {
		codes = append(codes, code)
	}
	sort.Ints(codes)

	labels := make([]string, len(codes))
	for i, code := range codes {
		labels[i] = c.Levels[code]
	}
	return labels
}

// HasLabel reports whether label names one of the levels
func (c ColumnCodebook) HasLabel(label string) bool {
	for _, l := range c.Levels {
		if strings.EqualFold(l, label) {
			return true
		}
	}
	return false
}

// Codebook maps column names to their coding rules
type Codebook map[core.VariableKey]ColumnCodebook

var yesNo = map[int]string{1: "Yes", 2: "No"}
var refusedDontKnow = map[int]string{7: "Refused", 9: "Don't know"}

// NHANESCodebook returns the coding rules for the 2015-2016 demographic and questionnaire columns
func NHANESCodebook() Codebook {
	return Codebook{
		"RIAGENDR": {
			Description: "Gender",
			Kind:        KindCategorical,
			Levels:      map[int]string{1: "Male", 2: "Female"},
		},
		"SMQ020": {
			Description: "Smoked at least 100 cigarettes in life",
			Kind:        KindCategorical,
			Levels:      yesNo,
			Missing:     refusedDontKnow,
		},
		"ALQ110": {
			Description: "Had at least 12 alcohol drinks in life",
			Kind:        KindCategorical,
			Levels:      yesNo,
			Missing:     refusedDontKnow,
		},
		"HIQ210": {
			Description: "Time when no insurance in past year",
			Kind:        KindCategorical,
			Levels:      yesNo,
			Missing:     refusedDontKnow,
		},
		"DMDMARTL": {
			Description: "Marital status",
			Kind:        KindCategorical,
			Levels: map[int]string{
				1: "Married",
				2: "Widowed",
				3: "Divorced",
				4: "Separated",
				5: "Never married",
				6: "Living with partner",
			},
			Missing: map[int]string{77: "Refused", 99: "Don't know"},
		},
		"DMDEDUC2": {
			Description: "Education level, adults 20+",
			Kind:        KindCategorical,
			Levels: map[int]string{
				1: "Less than 9th grade",
				2: "9-11th grade",
				3: "High school/GED",
				4: "Some college/AA",
				5: "College",
			},
			Missing: refusedDontKnow,
		},
		"RIDRETH1": {
			Description: "Race/Hispanic origin",
			Kind:        KindCategorical,
			Levels: map[int]string{
				1: "Mexican American",
				2: "Other Hispanic",
				3: "Non-Hispanic White",
				4: "Non-Hispanic Black",
				5: "Other Race",
			},
		},
		"BMXBMI":   {Description: "Body Mass Index (kg/m**2)", Kind: KindContinuous},
		"BMXWT":    {Description: "Weight (kg)", Kind: KindContinuous},
		"BMXHT":    {Description: "Standing height (cm)", Kind: KindContinuous},
		"RIDAGEYR": {Description: "Age in years at screening", Kind: KindContinuous},
		"BPXSY1":   {Description: "Systolic blood pressure, 1st reading (mm Hg)", Kind: KindContinuous},
		"BPXDI1":   {Description: "Diastolic blood pressure, 1st reading (mm Hg)", Kind: KindContinuous},
	}
}

// LoadCodebook reads extra column rules from a YAML file
func LoadCodebook(path string) (Codebook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cb Codebook
	if err := yaml.Unmarshal(data, &cb); err != nil {
		return nil, fmt.Errorf("failed to parse codebook %s: %w", path, err)
	}
	for col, entry := range cb {
		if entry.Kind == "" {
			if len(entry.Levels) > 0 {
				entry.Kind = KindCategorical
			} else {
				entry.Kind = KindContinuous
			}
			cb[col] = entry
		}
		if entry.Kind != KindCategorical && entry.Kind != KindContinuous {
			return nil, fmt.Errorf("codebook %s: column %s has unknown kind %q", path, col, entry.Kind)
		}
	}
	return cb, nil
}

// Merge returns a copy of c with every column of other layered on top
func (c Codebook) Merge(other Codebook) Codebook {
	out := make(Codebook, len(c)+len(other))
	for k, v := range c {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

// Lookup returns the rules for column; unknown columns read as plain numbers
func (c Codebook) Lookup(column core.VariableKey) (ColumnCodebook, bool) {
	entry, ok := c[column]
	if !ok {
		return ColumnCodebook{Kind: KindContinuous}, false
	}
	return entry, true
}

// Recode maps one raw cell of column to its semantic value
func (c Codebook) Recode(column core.VariableKey, raw string) Value {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "nan") || strings.EqualFold(raw, "na") {
		return missing(raw, MissingBlank)
	}

	number, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(number) || math.IsInf(number, 0) {
		entry, _ := c.Lookup(column)
		if entry.Kind == KindCategorical && entry.HasLabel(raw) {
			return Value{Raw: raw, Label: canonicalLabel(entry, raw), Number: math.NaN()}
		}
		return missing(raw, MissingUnparseable)
	}

	entry, _ := c.Lookup(column)
	code := int(number)
	isInteger := float64(code) == number

	if isInteger {
		if _, sentinel := entry.Missing[code]; sentinel {
			return missing(raw, MissingSentinel)
		}
	}

	if entry.Kind == KindContinuous {
		return Value{Raw: raw, Label: raw, Number: number}
	}

	if !isInteger {
		return missing(raw, MissingUnknownCode)
	}
	label, known := entry.Levels[code]
	if !known {
		return missing(raw, MissingUnknownCode)
	}
	return Value{Raw: raw, Label: label, Number: number}
}

// RecodeGroup recodes a grouping value. Columns the codebook does not know keep
// their trimmed text as the label, with numeric codes written in shortest form
// so that "1" and "1.0" land in the same group.
func (c Codebook) RecodeGroup(column core.VariableKey, raw string) Value {
	if _, known := c.Lookup(column); known {
		return c.Recode(column, raw)
	}
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "nan") || strings.EqualFold(raw, "na") {
		return missing(raw, MissingBlank)
	}
	return Value{Raw: raw, Label: groupLabel(raw), Number: math.NaN()}
}

func groupLabel(raw string) string {
	number, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(number) || math.IsInf(number, 0) {
		return raw
	}
	return strconv.FormatFloat(number, 'f', -1, 64)
}

// Canonical returns the codebook spelling of label, matched case-insensitively
func (c ColumnCodebook) Canonical(label string) string {
	return canonicalLabel(c, strings.TrimSpace(label))
}

func canonicalLabel(entry ColumnCodebook, label string) string {
	for _, l := range entry.Levels {
		if strings.EqualFold(l, label) {
			return l
		}
	}
	return label
}
