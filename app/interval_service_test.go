package app

import (
	"bytes"
	"context"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nhanesci/adapters/excel"
	"nhanesci/domain/core"
	"nhanesci/domain/dataset"
	"nhanesci/domain/stats"
	"nhanesci/internal"
	"nhanesci/internal/errors"
	"nhanesci/internal/testkit"
	"nhanesci/ports"
)

func newTestService() *IntervalService {
	var logs bytes.Buffer
	return NewIntervalService(
		dataset.NHANESCodebook(),
		func(path string) ports.TableReaderPort { return excel.NewDataReader(path) },
		internal.NewLoggerTo(&logs, internal.LogLevelDebug),
	)
}

// smokingRows reproduces the published smoking counts plus rows the filter must drop
func smokingRows() [][]string {
	rows := [][]string{{"SEQN", "RIAGENDR", "SMQ020", "RIDAGEYR"}}
	add := func(gender, smq string, count int) {
		for i := 0; i < count; i++ {
			age := strconv.Itoa(20 + len(rows)%60)
			rows = append(rows, []string{strconv.Itoa(len(rows)), gender, smq, age})
		}
	}
	add("2", "1", 906)
	add("2", "2", 2972-906)
	add("1", "1", 1413)
	add("1", "2", 2753-1413)
	add("2", "7", 4)
	add("1", "9", 6)
	add("3", "1", 2)
	return rows
}

func writeSmoking(t *testing.T) string {
	path := filepath.Join(t.TempDir(), "smoking.csv")
	require.NoError(t, testkit.WriteRowsCSV(path, smokingRows()))
	return path
}

func loadTable(t *testing.T, path string) *dataset.Table {
	table, err := excel.NewDataReader(path).ReadTable(context.Background())
	require.NoError(t, err)
	return table
}

func TestAnalyze_ProportionDifference(t *testing.T) {
	svc := newTestService()
	table := loadTable(t, writeSmoking(t))

	result, err := svc.Analyze(table, AnalysisRequest{
		Kind:    AnalysisProportion,
		Group:   "RIAGENDR",
		Outcome: "SMQ020",
		Groups:  []string{"Male", "Female"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Yes", result.Positive)
	assert.Equal(t, 5737, result.Total)
	assert.Equal(t, 5725, result.Retained)
	assert.Equal(t, 10, result.Excluded[dataset.MissingSentinel])
	assert.Equal(t, 2, result.Excluded[dataset.MissingUnknownCode])

	require.Len(t, result.Proportions, 2)
	assert.Equal(t, 1413, result.Proportions[0].Positives)
	assert.Equal(t, 2753, result.Proportions[0].N)
	assert.Equal(t, 2972, result.Proportions[1].N)
	require.Len(t, result.GroupIntervals, 2)

	d := result.Difference
	require.NotNil(t, d)
	assert.Equal(t, "Male - Female", d.Label())
	assert.InDelta(t, 0.2084, d.PointEstimate, 1e-4)
	assert.InDelta(t, 0.01273, d.StandardError, 1e-5)
	assert.InDelta(t, 0.1835, d.Interval.Lower, 1e-4)
	assert.InDelta(t, 0.2334, d.Interval.Upper, 1e-4)
	require.NotNil(t, result.ChiSquare)
	assert.InDelta(t, 257.5935, result.ChiSquare.ChiSquare, 1e-3)
	assert.Nil(t, result.Welch)

	reversed, err := svc.Analyze(table, AnalysisRequest{
		Kind:    AnalysisProportion,
		Group:   "RIAGENDR",
		Outcome: "SMQ020",
		Groups:  []string{"Female", "Male"},
	})
	require.NoError(t, err)
	assert.InDelta(t, -d.PointEstimate, reversed.Difference.PointEstimate, 1e-12)
	assert.InDelta(t, d.StandardError, reversed.Difference.StandardError, 1e-12)
}

func TestAnalyze_PositiveLabelUsesCodebookSpelling(t *testing.T) {
	svc := newTestService()
	table := loadTable(t, writeSmoking(t))

	result, err := svc.Analyze(table, AnalysisRequest{
		Kind:     AnalysisProportion,
		Group:    "RIAGENDR",
		Outcome:  "SMQ020",
		Positive: "yes",
	})
	require.NoError(t, err)
	assert.Equal(t, "Yes", result.Positive)
	require.Len(t, result.Proportions, 2)
	assert.Equal(t, 906, result.Proportions[0].Positives)
}

func TestAnalyze_MeanDifference(t *testing.T) {
	svc := newTestService()
	path := filepath.Join(t.TempDir(), "survey.csv")
	require.NoError(t, testkit.NewSurveyGenerator(testkit.DefaultSurveyConfig()).WriteCSV(path))
	table := loadTable(t, path)

	result, err := svc.Analyze(table, AnalysisRequest{
		Kind:    AnalysisMean,
		Group:   "RIAGENDR",
		Outcome: "BMXBMI",
		Groups:  []string{"Female", "Male"},
		Level:   0.95,
	})
	require.NoError(t, err)
	require.Len(t, result.Means, 2)

	d := result.Difference
	require.NotNil(t, d)
	assert.Equal(t, stats.KindMeanDifference, d.Kind)
	assert.InDelta(t, result.Means[0].Mean-result.Means[1].Mean, d.PointEstimate, 1e-12)
	assert.InDelta(t, stats.PooledStandardError(result.Means[0].SEM, result.Means[1].SEM), d.StandardError, 1e-12)
	assert.InDelta(t, d.PointEstimate, d.Interval.Midpoint(), 1e-9)
	assert.InDelta(t, 1.16, d.PointEstimate, 0.6)
	require.NotNil(t, result.Welch)
	assert.InDelta(t, d.PointEstimate/d.StandardError, result.Welch.T, 1e-9)
	assert.Greater(t, result.Excluded[dataset.MissingBlank], 0)
}

func TestAnalyze_Strata(t *testing.T) {
	svc := newTestService()
	table := loadTable(t, writeSmoking(t))

	strata, err := dataset.ParseStrata("RIDAGEYR:18,40,80,90")
	require.NoError(t, err)

	result, err := svc.Analyze(table, AnalysisRequest{
		Kind:    AnalysisProportion,
		Group:   "RIAGENDR",
		Outcome: "SMQ020",
		Groups:  []string{"Female", "Male"},
		Strata:  strata,
	})
	require.NoError(t, err)
	require.Len(t, result.Strata, 3)

	assert.Equal(t, "(18, 40]", result.Strata[0].Stratum)
	assert.NotNil(t, result.Strata[0].Difference)
	assert.Empty(t, result.Strata[0].Error)

	empty := result.Strata[2]
	assert.Equal(t, "(80, 90]", empty.Stratum)
	assert.Nil(t, empty.Difference)
	assert.Contains(t, empty.Error, "no observations")

	retained := 0
	for _, s := range result.Strata {
		retained += s.Retained
	}
	assert.Equal(t, result.Retained, retained)
}

func TestAnalyze_Errors(t *testing.T) {
	svc := newTestService()
	table := loadTable(t, writeSmoking(t))

	_, err := svc.Analyze(table, AnalysisRequest{Kind: AnalysisMean, Group: "RIAGENDR", Outcome: "BMXBMI"})
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
	assert.ErrorIs(t, err, core.ErrColumnNotFound)

	_, err = svc.Analyze(table, AnalysisRequest{Kind: AnalysisMean, Group: "RIAGENDR", Outcome: "SMQ020"})
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
	assert.ErrorIs(t, err, core.ErrNotContinuous)

	_, err = svc.Analyze(table, AnalysisRequest{Kind: "median", Group: "RIAGENDR", Outcome: "SMQ020"})
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))

	_, err = svc.Analyze(table, AnalysisRequest{Kind: AnalysisProportion, Group: "RIAGENDR", Outcome: "SMQ020", Level: 1.2})
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
	assert.Equal(t, 2, errors.ExitCode(err))
	assert.ErrorIs(t, err, core.ErrInvalidLevel)
	assert.False(t, core.IsDomainError(err))

	males := [][]string{{"RIAGENDR", "SMQ020"}, {"1", "1"}, {"1", "2"}}
	path := filepath.Join(t.TempDir(), "males.csv")
	require.NoError(t, testkit.WriteRowsCSV(path, males))

	_, err = svc.Analyze(loadTable(t, path), AnalysisRequest{
		Kind:    AnalysisProportion,
		Group:   "RIAGENDR",
		Outcome: "SMQ020",
		Groups:  []string{"Female", "Male"},
	})
	assert.Equal(t, errors.CodeDomainError, errors.GetCode(err))
	assert.ErrorIs(t, err, core.ErrEmptyGroup)

	_, err = svc.Analyze(loadTable(t, path), AnalysisRequest{Kind: AnalysisProportion, Group: "RIAGENDR", Outcome: "SMQ020"})
	assert.ErrorIs(t, err, core.ErrTooManyLevels)
}

func TestBoxPlots(t *testing.T) {
	svc := newTestService()
	path := filepath.Join(t.TempDir(), "survey.csv")
	config := testkit.DefaultSurveyConfig()
	config.Respondents = 500
	require.NoError(t, testkit.NewSurveyGenerator(config).WriteCSV(path))

	result, err := svc.BoxPlots(loadTable(t, path), BoxPlotRequest{Group: "RIAGENDR", Outcome: "BMXBMI", Groups: []string{"Female", "Male"}})
	require.NoError(t, err)
	require.Len(t, result.Boxes, 2)
	assert.Equal(t, "Female", result.Boxes[0].Group)
	for _, b := range result.Boxes {
		assert.LessOrEqual(t, b.Q1, b.Median)
		assert.LessOrEqual(t, b.Median, b.Q3)
		assert.LessOrEqual(t, b.Min, b.LowerWhisker)
		assert.GreaterOrEqual(t, b.Max, b.UpperWhisker)
	}

	_, err = svc.BoxPlots(loadTable(t, path), BoxPlotRequest{Group: "RIAGENDR", Outcome: "SMQ020"})
	assert.ErrorIs(t, err, core.ErrNotContinuous)
}

func TestRunReport(t *testing.T) {
	svc := newTestService()
	path := filepath.Join(t.TempDir(), "survey.csv")
	require.NoError(t, testkit.NewSurveyGenerator(testkit.DefaultSurveyConfig()).WriteCSV(path))

	report, err := svc.RunReport(context.Background(), ReportRequest{
		File: path,
		Analyses: []AnalysisRequest{
			{Kind: AnalysisProportion, Group: "RIAGENDR", Outcome: "SMQ020", Groups: []string{"Female", "Male"}},
			{Kind: AnalysisMean, Group: "RIAGENDR", Outcome: "BMXBMI", Groups: []string{"Female", "Male"}},
		},
		BoxPlots: []BoxPlotRequest{{Group: "RIAGENDR", Outcome: "BMXBMI", Groups: []string{"Female", "Male"}}},
	})
	require.NoError(t, err)

	assert.False(t, core.ID(report.RunID).IsEmpty())
	assert.Len(t, report.Fingerprint.String(), 64)
	assert.Equal(t, 5735, report.Rows)
	assert.Equal(t, len(testkit.SurveyHeaders), report.Columns)
	assert.Len(t, report.Analyses, 2)
	assert.Len(t, report.BoxPlots, 1)
	assert.Less(t, report.Analyses[0].Difference.PointEstimate, 0.0)
	assert.Equal(t, CodeVersion, report.CodeVersion)
	require.NoError(t, report.Manifest.Validate())

	again, err := svc.RunReport(context.Background(), ReportRequest{
		File:     path,
		Analyses: []AnalysisRequest{{Kind: AnalysisMean, Group: "RIAGENDR", Outcome: "BMXBMI", Groups: []string{"Female", "Male"}}},
	})
	require.NoError(t, err)
	assert.NotEqual(t, report.RunID, again.RunID)
	assert.Equal(t, report.Fingerprint, again.Fingerprint)
	assert.Equal(t, report.CodebookHash, again.CodebookHash)
	assert.NotEqual(t, report.ReplayHash, again.ReplayHash)

	_, err = svc.RunReport(context.Background(), ReportRequest{})
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))

	_, err = svc.RunReport(context.Background(), ReportRequest{File: path})
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))

	_, err = svc.RunReport(context.Background(), ReportRequest{
		File:     filepath.Join(t.TempDir(), "absent.csv"),
		Analyses: []AnalysisRequest{{Kind: AnalysisMean, Group: "RIAGENDR", Outcome: "BMXBMI"}},
	})
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
}
