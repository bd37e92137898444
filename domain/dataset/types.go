package dataset

import (
	"nhanesci/domain/core"
)

// RawRow is one data row keyed by trimmed column header
type RawRow map[string]string

// Table is a rectangular dataset read once at startup
type Table struct {
	Headers []string `json:"headers"`
	Rows    []RawRow `json:"-"`
	Source  string   `json:"source"` // File path the table was read from
}

// HasColumn reports whether the header row names column
func (t *Table) HasColumn(column core.VariableKey) bool {
	for _, h := range t.Headers {
		if h == string(column) {
			return true
		}
	}
	return false
}

// RowCount returns the number of data rows
func (t *Table) RowCount() int {
	return len(t.Rows)
}

// MissingReason explains why a cell was excluded
type MissingReason string

const (
	MissingBlank       MissingReason = "blank"
	MissingSentinel    MissingReason = "sentinel"     // Refused, Don't know, ...
	MissingUnknownCode MissingReason = "unknown_code" // Code absent from the codebook
	MissingUnparseable MissingReason = "unparseable"
	MissingOutOfRange  MissingReason = "out_of_range" // Stratum value outside every band
)

// Value is a recoded cell
type Value struct {
	Raw     string        `json:"raw"`
	Label   string        `json:"label,omitempty"`  // Semantic label for categorical columns
	Number  float64       `json:"number"`           // Parsed numeric value
	Missing bool          `json:"missing"`          // Excluded from analysis
	Reason  MissingReason `json:"reason,omitempty"` // Set when Missing
}

func missing(raw string, reason MissingReason) Value {
	return Value{Raw: raw, Missing: true, Reason: reason}
}

// Selection names the columns one analysis reads
type Selection struct {
	Group   core.VariableKey `json:"group"`
	Outcome core.VariableKey `json:"outcome"`
	Strata  *Strata          `json:"strata,omitempty"`
}

// Observation is a row that survived filtering
type Observation struct {
	Group   string `json:"group"`
	Outcome Value  `json:"outcome"`
	Stratum string `json:"stratum,omitempty"`
}

// Extraction is the filtered view of a table for one Selection
type Extraction struct {
	Selection    Selection             `json:"selection"`
	Observations []Observation         `json:"-"`
	Total        int                   `json:"total"`    // Rows read
	Retained     int                   `json:"retained"` // Rows with both columns present
	Excluded     map[MissingReason]int `json:"excluded"` // Dropped rows by first failing reason
}

// ExcludedCount sums the dropped rows
func (e *Extraction) ExcludedCount() int {
	total := 0
	for _, n := range e.Excluded {
		total += n
	}
	return total
}
