package app

import (
	"nhanesci/domain/core"
	"nhanesci/domain/dataset"
	"nhanesci/domain/run"
	"nhanesci/domain/stats"
	"nhanesci/internal/profiling"
)

// CodeVersion is stamped into every run manifest; release builds set it with -ldflags
var CodeVersion = "dev"

// AnalysisKind selects the estimator
type AnalysisKind string

const (
	AnalysisProportion AnalysisKind = "proportion"
	AnalysisMean       AnalysisKind = "mean"
)

// AnalysisRequest defines one two-sample comparison.
// Every difference is Groups[0] - Groups[1].
type AnalysisRequest struct {
	Kind     AnalysisKind     `json:"kind"`
	Group    core.VariableKey `json:"group"`
	Outcome  core.VariableKey `json:"outcome"`
	Groups   []string         `json:"groups,omitempty"`   // Derived from the data when empty
	Positive string           `json:"positive,omitempty"` // Binary outcome label counted as a success
	Level    float64          `json:"level"`
	Strata   *dataset.Strata  `json:"strata,omitempty"`
}

// AnalysisResult is the outcome of one comparison, overall or inside one stratum
type AnalysisResult struct {
	Kind           AnalysisKind                  `json:"kind"`
	Group          core.VariableKey              `json:"group"`
	Outcome        core.VariableKey              `json:"outcome"`
	Positive       string                        `json:"positive,omitempty"`
	Stratum        string                        `json:"stratum,omitempty"`
	Total          int                           `json:"total"`
	Retained       int                           `json:"retained"`
	Excluded       map[dataset.MissingReason]int `json:"excluded,omitempty"`
	Proportions    []stats.ProportionSummary     `json:"proportions,omitempty"`
	Means          []stats.MeanSummary           `json:"means,omitempty"`
	GroupIntervals []stats.Estimate              `json:"group_intervals,omitempty"`
	Difference     *stats.Estimate               `json:"difference,omitempty"`
	Welch          *stats.WelchTest              `json:"welch,omitempty"`      // Mean analyses only
	ChiSquare      *stats.ChiSquareTest          `json:"chi_square,omitempty"` // Proportion analyses only
	Error          string                        `json:"error,omitempty"`      // Domain error that halted a stratum
	Strata         []AnalysisResult              `json:"strata,omitempty"`
}

// BoxPlotRequest asks for a group-wise box plot of a continuous outcome
type BoxPlotRequest struct {
	Group   core.VariableKey `json:"group"`
	Outcome core.VariableKey `json:"outcome"`
	Groups  []string         `json:"groups,omitempty"`
	Coef    float64          `json:"coef,omitempty"`
}

// BoxPlotResult holds one box per group on a shared scale
type BoxPlotResult struct {
	Group   core.VariableKey    `json:"group"`
	Outcome core.VariableKey    `json:"outcome"`
	Boxes   []profiling.BoxPlot `json:"boxes"`
}

// ReportRequest is everything a single CLI invocation computes
type ReportRequest struct {
	File     string            `json:"file"`
	Analyses []AnalysisRequest `json:"analyses"`
	BoxPlots []BoxPlotRequest  `json:"box_plots,omitempty"`
}

// Report is the complete output of one run
type Report struct {
	run.Manifest
	Rows      int              `json:"rows"`
	Columns   int              `json:"columns"`
	RuntimeMs int64            `json:"runtime_ms"`
	Analyses  []AnalysisResult `json:"analyses"`
	BoxPlots  []BoxPlotResult  `json:"box_plots,omitempty"`
}
