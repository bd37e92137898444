package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nhanesci/domain/core"
)

func surveyTable() *Table {
	rows := []RawRow{
		{"SEQN": "1", "RIAGENDR": "1", "SMQ020": "1", "BMXBMI": "27.8", "RIDAGEYR": "85"},
		{"SEQN": "2", "RIAGENDR": "1", "SMQ020": "2", "BMXBMI": "30.8", "RIDAGEYR": "53"},
		{"SEQN": "3", "RIAGENDR": "1", "SMQ020": "1", "BMXBMI": "28.8", "RIDAGEYR": "78"},
		{"SEQN": "4", "RIAGENDR": "2", "SMQ020": "2", "BMXBMI": "42.4", "RIDAGEYR": "56"},
		{"SEQN": "5", "RIAGENDR": "2", "SMQ020": "2", "BMXBMI": "20.3", "RIDAGEYR": "42"},
		{"SEQN": "6", "RIAGENDR": "2", "SMQ020": "7", "BMXBMI": "28.6", "RIDAGEYR": "72"},
		{"SEQN": "7", "RIAGENDR": "1", "SMQ020": "9", "BMXBMI": "", "RIDAGEYR": "22"},
		{"SEQN": "8", "RIAGENDR": "2", "SMQ020": "1", "BMXBMI": "28.0", "RIDAGEYR": "32"},
		{"SEQN": "9", "RIAGENDR": "3", "SMQ020": "1", "BMXBMI": "25.0", "RIDAGEYR": "40"},
		{"SEQN": "10", "RIAGENDR": "2", "SMQ020": "", "BMXBMI": "abc", "RIDAGEYR": "85"},
	}
	return &Table{
		Headers: []string{"SEQN", "RIAGENDR", "SMQ020", "BMXBMI", "RIDAGEYR"},
		Rows:    rows,
		Source:  "memory",
	}
}

// TestRecode_NHANES verifies code mapping and sentinel exclusion
func TestRecode_NHANES(t *testing.T) {
	cb := NHANESCodebook()

	tests := []struct {
		name    string
		column  core.VariableKey
		raw     string
		label   string
		missing bool
		reason  MissingReason
	}{
		{"male", "RIAGENDR", "1", "Male", false, ""},
		{"female float code", "RIAGENDR", "2.0", "Female", false, ""},
		{"label passthrough", "RIAGENDR", "female", "Female", false, ""},
		{"unknown code", "RIAGENDR", "3", "", true, MissingUnknownCode},
		{"smoker", "SMQ020", "1", "Yes", false, ""},
		{"refused", "SMQ020", "7", "", true, MissingSentinel},
		{"dont know", "SMQ020", "9", "", true, MissingSentinel},
		{"blank", "SMQ020", " ", "", true, MissingBlank},
		{"pandas nan", "SMQ020", "NaN", "", true, MissingBlank},
		{"marital refused", "DMDMARTL", "77", "", true, MissingSentinel},
		{"marital", "DMDMARTL", "5", "Never married", false, ""},
		{"bmi", "BMXBMI", "27.8", "27.8", false, ""},
		{"bmi text", "BMXBMI", "abc", "", true, MissingUnparseable},
		{"uncoded column", "LBXTC", "180", "180", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := cb.Recode(tt.column, tt.raw)
			assert.Equal(t, tt.missing, v.Missing)
			assert.Equal(t, tt.reason, v.Reason)
			if !tt.missing {
				assert.Equal(t, tt.label, v.Label)
			}
		})
	}
}

// TestExtract_DropsRowsMissingEitherColumn verifies the exclusion policy
func TestExtract_DropsRowsMissingEitherColumn(t *testing.T) {
	cb := NHANESCodebook()

	ex, err := cb.Extract(surveyTable(), Selection{Group: "RIAGENDR", Outcome: "SMQ020"})
	require.NoError(t, err)

	assert.Equal(t, 10, ex.Total)
	assert.Equal(t, 6, ex.Retained)
	assert.Equal(t, 4, ex.ExcludedCount())
	assert.Equal(t, 2, ex.Excluded[MissingSentinel])
	assert.Equal(t, 1, ex.Excluded[MissingUnknownCode])
	assert.Equal(t, 1, ex.Excluded[MissingBlank])
	assert.Equal(t, []string{"Female", "Male"}, ex.ObservedGroups())

	groups, err := cb.ProportionGroups(ex, [2]string{"Female", "Male"}, "Yes")
	require.NoError(t, err)
	assert.Equal(t, 1, groups[0].Positives)
	assert.Equal(t, 3, groups[0].N)
	assert.Equal(t, 2, groups[1].Positives)
	assert.Equal(t, 3, groups[1].N)

	bmi, err := cb.Extract(surveyTable(), Selection{Group: "RIAGENDR", Outcome: "BMXBMI"})
	require.NoError(t, err)
	assert.Equal(t, 7, bmi.Retained)

	values, err := cb.ContinuousValues(bmi, [2]string{"Female", "Male"})
	require.NoError(t, err)
	assert.Equal(t, []float64{42.4, 20.3, 28.6, 28.0}, values[0])
	assert.Equal(t, []float64{27.8, 30.8, 28.8}, values[1])

	means, err := cb.MeanGroups(bmi, [2]string{"Male", "Female"})
	require.NoError(t, err)
	assert.Equal(t, "Male", means[0].Label)
	assert.InDelta(t, 29.1333, means[0].Mean, 1e-4)
}

// TestExtract_UncodedGroupColumn verifies that group columns outside the codebook keep their labels
func TestExtract_UncodedGroupColumn(t *testing.T) {
	cb := NHANESCodebook()

	text := &Table{
		Headers: []string{"sex", "BMXBMI"},
		Rows: []RawRow{
			{"sex": "Female", "BMXBMI": "30"},
			{"sex": " Male ", "BMXBMI": "28"},
			{"sex": "Female", "BMXBMI": "26"},
			{"sex": "Male", "BMXBMI": "31"},
			{"sex": "nan", "BMXBMI": "29"},
		},
	}
	ex, err := cb.Extract(text, Selection{Group: "sex", Outcome: "BMXBMI"})
	require.NoError(t, err)
	assert.Equal(t, 4, ex.Retained)
	assert.Equal(t, 1, ex.Excluded[MissingBlank])
	assert.Zero(t, ex.Excluded[MissingUnparseable])
	assert.Equal(t, []string{"Female", "Male"}, ex.ObservedGroups())

	pair, err := cb.ResolveGroups(ex, nil)
	require.NoError(t, err)
	assert.Equal(t, [2]string{"Female", "Male"}, pair)
	values, err := cb.ContinuousValues(ex, pair)
	require.NoError(t, err)
	assert.Equal(t, []float64{30, 26}, values[0])

	numeric := &Table{
		Headers: []string{"arm", "BMXBMI"},
		Rows: []RawRow{
			{"arm": "1", "BMXBMI": "30"},
			{"arm": "1.0", "BMXBMI": "28"},
			{"arm": "2", "BMXBMI": "26"},
			{"arm": "2.00", "BMXBMI": "31"},
		},
	}
	ex, err = cb.Extract(numeric, Selection{Group: "arm", Outcome: "BMXBMI"})
	require.NoError(t, err)
	assert.Equal(t, 4, ex.Retained)
	assert.Equal(t, []string{"1", "2"}, ex.ObservedGroups())

	pair, err = cb.ResolveGroups(ex, []string{"2.0", "1"})
	require.NoError(t, err)
	assert.Equal(t, [2]string{"2", "1"}, pair)
	values, err = cb.ContinuousValues(ex, pair)
	require.NoError(t, err)
	assert.Equal(t, []float64{26, 31}, values[0])
	assert.Equal(t, []float64{30, 28}, values[1])
}

// TestExtract_Errors verifies missing columns and wrong outcome kinds
func TestExtract_Errors(t *testing.T) {
	cb := NHANESCodebook()

	_, err := cb.Extract(surveyTable(), Selection{Group: "RIAGENDR", Outcome: "BPXSY1"})
	assert.ErrorIs(t, err, core.ErrColumnNotFound)
	assert.True(t, core.IsNotFoundError(err))

	ex, err := cb.Extract(surveyTable(), Selection{Group: "RIAGENDR", Outcome: "BMXBMI"})
	require.NoError(t, err)
	_, err = cb.ProportionGroups(ex, [2]string{"Female", "Male"}, "")
	assert.ErrorIs(t, err, core.ErrNotBinary)

	smq, err := cb.Extract(surveyTable(), Selection{Group: "RIAGENDR", Outcome: "SMQ020"})
	require.NoError(t, err)
	_, err = cb.ContinuousValues(smq, [2]string{"Female", "Male"})
	assert.ErrorIs(t, err, core.ErrNotContinuous)

	_, err = cb.ProportionGroups(smq, [2]string{"Female", "Male"}, "Maybe")
	assert.ErrorIs(t, err, core.ErrGroupNotFound)
}

// TestResolveGroups verifies explicit order is kept and labels are checked
func TestResolveGroups(t *testing.T) {
	cb := NHANESCodebook()
	ex, err := cb.Extract(surveyTable(), Selection{Group: "RIAGENDR", Outcome: "SMQ020"})
	require.NoError(t, err)

	pair, err := cb.ResolveGroups(ex, []string{"male", "Female"})
	require.NoError(t, err)
	assert.Equal(t, [2]string{"Male", "Female"}, pair)

	pair, err = cb.ResolveGroups(ex, nil)
	require.NoError(t, err)
	assert.Equal(t, [2]string{"Female", "Male"}, pair)

	_, err = cb.ResolveGroups(ex, []string{"Female", "Other"})
	assert.ErrorIs(t, err, core.ErrGroupNotFound)

	_, err = cb.ResolveGroups(ex, []string{"Female"})
	assert.ErrorIs(t, err, core.ErrTooManyLevels)

	_, err = cb.ResolveGroups(ex, []string{"Female", "female"})
	assert.ErrorIs(t, err, core.ErrTooManyLevels)
}

// TestStrata verifies right-closed age bands
func TestStrata(t *testing.T) {
	s, err := ParseStrata("RIDAGEYR:18,30,50,80")
	require.NoError(t, err)
	assert.Equal(t, core.VariableKey("RIDAGEYR"), s.Column)
	assert.Equal(t, []string{"(18, 30]", "(30, 50]", "(50, 80]"}, s.Labels())

	band, ok := s.Band(30)
	assert.True(t, ok)
	assert.Equal(t, "(18, 30]", band)
	_, ok = s.Band(18)
	assert.False(t, ok)
	_, ok = s.Band(85)
	assert.False(t, ok)

	for _, bad := range []string{"RIDAGEYR", "RIDAGEYR:30", "RIDAGEYR:30,20", "RIDAGEYR:1,x", ":1,2", "RIDAGEYR:1,1,2"} {
		_, err := ParseStrata(bad)
		assert.ErrorIs(t, err, core.ErrInvalidStrata, bad)
	}

	cb := NHANESCodebook()
	ex, err := cb.Extract(surveyTable(), Selection{Group: "RIAGENDR", Outcome: "BMXBMI", Strata: s})
	require.NoError(t, err)
	assert.Equal(t, 1, ex.Excluded[MissingOutOfRange])

	older := ex.Stratum("(50, 80]")
	assert.Equal(t, 4, older.Retained)
	for _, o := range older.Observations {
		assert.Equal(t, "(50, 80]", o.Stratum)
	}
}

// TestLoadCodebook verifies YAML rules layer over the built-in ones
func TestLoadCodebook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codebook.yaml")
	yaml := `
PAQ605:
  description: Vigorous work activity
  levels:
    1: "Yes"
    2: "No"
  missing:
    7: Refused
    9: Don't know
LBXTC:
  description: Total cholesterol (mg/dL)
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	extra, err := LoadCodebook(path)
	require.NoError(t, err)
	assert.Equal(t, KindCategorical, extra["PAQ605"].Kind)
	assert.Equal(t, KindContinuous, extra["LBXTC"].Kind)

	cb := NHANESCodebook().Merge(extra)
	assert.Equal(t, "Yes", cb.Recode("PAQ605", "1").Label)
	assert.True(t, cb.Recode("PAQ605", "9").Missing)
	assert.Equal(t, "Male", cb.Recode("RIAGENDR", "1").Label)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("X:\n  kind: ordinal\n"), 0o600))
	_, err = LoadCodebook(bad)
	assert.Error(t, err)
}
