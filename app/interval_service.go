package app

import (
	"context"
	"fmt"
	"time"

	"nhanesci/domain/core"
	"nhanesci/domain/dataset"
	"nhanesci/domain/run"
	"nhanesci/domain/stats"
	"nhanesci/internal"
	"nhanesci/internal/errors"
	"nhanesci/internal/profiling"
	"nhanesci/ports"
)

// IntervalService computes two-sample confidence intervals over a survey table
type IntervalService struct {
	codebook  dataset.Codebook
	newReader ports.TableReaderFactory
	logger    *internal.Logger
	now       func() time.Time
}

// NewIntervalService creates the service; newReader opens the dataset named in a ReportRequest
func NewIntervalService(codebook dataset.Codebook, newReader ports.TableReaderFactory, logger *internal.Logger) *IntervalService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &IntervalService{
		codebook:  codebook,
		newReader: newReader,
		logger:    logger,
		now:       time.Now,
	}
}

// RunReport loads the dataset once and runs every requested analysis against it
func (s *IntervalService) RunReport(ctx context.Context, req ReportRequest) (*Report, error) {
	startTime := time.Now()

	if req.File == "" {
		return nil, errors.ConfigInvalid("data file is required")
	}
	if len(req.Analyses) == 0 && len(req.BoxPlots) == 0 {
		return nil, errors.InvalidInput("nothing to compute: no analyses or box plots requested")
	}

	table, err := s.newReader(req.File).ReadTable(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load %s", req.File)
	}

	fingerprint, err := core.FingerprintFile(req.File)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fingerprint dataset")
	}

	manifest, err := run.NewManifest(core.NewRunID(), req.File, fingerprint, s.codebook,
		[]any{req.Analyses, req.BoxPlots}, CodeVersion, s.now().UTC())
	if err != nil {
		return nil, errors.Wrap(err, "failed to build run manifest")
	}
	if err := manifest.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid run manifest")
	}

	report := &Report{
		Manifest: *manifest,
		Rows:     table.RowCount(),
		Columns:  len(table.Headers),
	}
	s.logger.Info("Run %s: %d rows from %s (sha256 %s, replay %s)",
		report.RunID, report.Rows, req.File, fingerprint.Short(), manifest.ReplayHash.Short())

	for _, areq := range req.Analyses {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result, err := s.Analyze(table, areq)
		if err != nil {
			return nil, err
		}
		report.Analyses = append(report.Analyses, *result)
	}

	for _, breq := range req.BoxPlots {
		result, err := s.BoxPlots(table, breq)
		if err != nil {
			return nil, err
		}
		report.BoxPlots = append(report.BoxPlots, *result)
	}

	report.RuntimeMs = time.Since(startTime).Milliseconds()
	return report, nil
}

// Analyze runs one comparison on an already loaded table.
// A domain error on the overall comparison is returned; inside a stratum it is recorded on that stratum.
func (s *IntervalService) Analyze(table *dataset.Table, req AnalysisRequest) (*AnalysisResult, error) {
	if req.Kind != AnalysisProportion && req.Kind != AnalysisMean {
		return nil, errors.InvalidInput(fmt.Sprintf("unknown analysis kind %q", req.Kind))
	}
	level := req.Level
	if level == 0 {
		level = stats.DefaultConfidenceLevel
	}

	ex, err := s.codebook.Extract(table, dataset.Selection{Group: req.Group, Outcome: req.Outcome, Strata: req.Strata})
	if err != nil {
		return nil, classify(err, "failed to select columns")
	}
	s.logger.Debug("%s by %s: retained %d of %d rows, excluded %v", req.Outcome, req.Group, ex.Retained, ex.Total, ex.Excluded)

	pair, err := s.codebook.ResolveGroups(ex, req.Groups)
	if err != nil {
		return nil, classify(err, "failed to resolve groups")
	}

	result, err := s.compare(ex, req, pair, level)
	if err != nil {
		return nil, classify(err, fmt.Sprintf("%s by %s", req.Outcome, req.Group))
	}

	if req.Strata != nil {
		for _, band := range req.Strata.Labels() {
			sub := ex.Stratum(band)
			sr, err := s.compare(sub, req, pair, level)
			if err != nil {
				if !core.IsDomainError(err) {
					return nil, classify(err, fmt.Sprintf("stratum %s", band))
				}
				s.logger.Warn("%s by %s in %s %s: %v", req.Outcome, req.Group, req.Strata.Column, band, err)
				sr = &AnalysisResult{
					Kind:     req.Kind,
					Group:    req.Group,
					Outcome:  req.Outcome,
					Retained: sub.Retained,
					Error:    err.Error(),
				}
			}
			sr.Stratum = band
			sr.Total = sub.Retained
			sr.Excluded = nil
			result.Strata = append(result.Strata, *sr)
		}
	}

	return result, nil
}

func (s *IntervalService) compare(ex *dataset.Extraction, req AnalysisRequest, pair [2]string, level float64) (*AnalysisResult, error) {
	opt := stats.WithConfidenceLevel(level)
	result := &AnalysisResult{
		Kind:     req.Kind,
		Group:    req.Group,
		Outcome:  req.Outcome,
		Total:    ex.Total,
		Retained: ex.Retained,
		Excluded: ex.Excluded,
	}

	switch req.Kind {
	case AnalysisProportion:
		groups, err := s.codebook.ProportionGroups(ex, pair, req.Positive)
		if err != nil {
			return nil, err
		}
		diff, err := stats.ProportionDifference(groups[0], groups[1], opt)
		if err != nil {
			return nil, err
		}
		for _, g := range groups {
			summary, err := stats.SummarizeProportion(g)
			if err != nil {
				return nil, err
			}
			est, err := stats.ProportionInterval(g, opt)
			if err != nil {
				return nil, err
			}
			result.Proportions = append(result.Proportions, summary)
			result.GroupIntervals = append(result.GroupIntervals, est)
		}
		result.Positive = s.positiveLabel(req)
		result.Difference = &diff
		if c, err := stats.ChiSquare(groups[0], groups[1]); err == nil {
			result.ChiSquare = &c
		} else {
			s.logger.Debug("Chi-square test skipped for %s: %v", req.Outcome, err)
		}

	case AnalysisMean:
		groups, err := s.codebook.MeanGroups(ex, pair)
		if err != nil {
			return nil, err
		}
		diff, err := stats.MeanDifference(groups[0], groups[1], opt)
		if err != nil {
			return nil, err
		}
		for _, g := range groups {
			summary, err := stats.SummarizeMean(g)
			if err != nil {
				return nil, err
			}
			est, err := stats.MeanInterval(g, opt)
			if err != nil {
				return nil, err
			}
			result.Means = append(result.Means, summary)
			result.GroupIntervals = append(result.GroupIntervals, est)
		}
		result.Difference = &diff
		if w, err := stats.Welch(groups[0], groups[1]); err == nil {
			result.Welch = &w
		} else {
			s.logger.Debug("Welch test skipped for %s: %v", req.Outcome, err)
		}
	}

	return result, nil
}

func (s *IntervalService) positiveLabel(req AnalysisRequest) string {
	entry, _ := s.codebook.Lookup(req.Outcome)
	if req.Positive != "" {
		return entry.Canonical(req.Positive)
	}
	if labels := entry.LevelLabels(); len(labels) > 0 {
		return labels[0]
	}
	return ""
}

// BoxPlots summarizes the continuous outcome per group
func (s *IntervalService) BoxPlots(table *dataset.Table, req BoxPlotRequest) (*BoxPlotResult, error) {
	ex, err := s.codebook.Extract(table, dataset.Selection{Group: req.Group, Outcome: req.Outcome})
	if err != nil {
		return nil, classify(err, "failed to select columns")
	}
	pair, err := s.codebook.ResolveGroups(ex, req.Groups)
	if err != nil {
		return nil, classify(err, "failed to resolve groups")
	}
	values, err := s.codebook.ContinuousValues(ex, pair)
	if err != nil {
		return nil, classify(err, "box plot needs a continuous outcome")
	}

	analyzer := profiling.NewBoxPlotAnalyzer(req.Coef)
	result := &BoxPlotResult{Group: req.Group, Outcome: req.Outcome}
	for i, g := range pair {
		box, err := analyzer.Summarize(g, values[i])
		if err != nil {
			return nil, classify(err, "box plot")
		}
		result.Boxes = append(result.Boxes, box)
	}
	return result, nil
}

// classify attaches an application error code to a domain or dataset error
func classify(err error, message string) error {
	switch {
	case errors.IsAppError(err):
		return errors.Wrap(err, message)
	case core.IsDomainError(err):
		return errors.DomainError(message, err)
	case core.IsNotFoundError(err):
		return &errors.AppError{Code: errors.CodeNotFound, Message: message, Cause: err}
	case core.IsInputError(err):
		return &errors.AppError{Code: errors.CodeInvalidInput, Message: message, Cause: err}
	default:
		return errors.Wrap(err, message)
	}
}
