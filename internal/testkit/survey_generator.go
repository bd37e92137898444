package testkit

import (
	"encoding/csv"
	"fmt"
	"math"
	"math/rand"
	"os"
	"strconv"

	"github.com/xuri/excelize/v2"
)

// SurveyGeneratorConfig configures the synthetic NHANES-style survey
type SurveyGeneratorConfig struct {
	Respondents     int     `json:"respondents"`
	FemaleShare     float64 `json:"female_share"`
	FemaleSmokeRate float64 `json:"female_smoke_rate"`
	MaleSmokeRate   float64 `json:"male_smoke_rate"`
	FemaleBMIMean   float64 `json:"female_bmi_mean"`
	FemaleBMISD     float64 `json:"female_bmi_sd"`
	MaleBMIMean     float64 `json:"male_bmi_mean"`
	MaleBMISD       float64 `json:"male_bmi_sd"`
	RefusedRate     float64 `json:"refused_rate"`     // SMQ020 coded 7 or 9
	MissingBMIRate  float64 `json:"missing_bmi_rate"` // Blank BMXBMI
	Seed            int64   `json:"seed"`
}

// DefaultSurveyConfig mirrors the 2015-2016 adult sample
func DefaultSurveyConfig() SurveyGeneratorConfig {
	return SurveyGeneratorConfig{
		Respondents:     5735,
		FemaleShare:     0.518,
		FemaleSmokeRate: 0.3048,
		MaleSmokeRate:   0.5133,
		FemaleBMIMean:   29.94,
		FemaleBMISD:     7.75,
		MaleBMIMean:     28.78,
		MaleBMISD:       6.25,
		RefusedRate:     0.002,
		MissingBMIRate:  0.014,
		Seed:            42,
	}
}

// SurveyHeaders are the columns every generated row carries
var SurveyHeaders = []string{"SEQN", "RIAGENDR", "RIDAGEYR", "SMQ020", "BMXBMI", "DMDEDUC2"}

// SurveyGenerator produces deterministic survey rows
type SurveyGenerator struct {
	config SurveyGeneratorConfig
	rng    *rand.Rand
}

// NewSurveyGenerator creates a new survey generator
func NewSurveyGenerator(config SurveyGeneratorConfig) *SurveyGenerator {
	return &SurveyGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// GenerateRows returns the header row followed by one row per respondent.
// Every call restarts from the seed, so repeated writes carry the same data.
func (g *SurveyGenerator) GenerateRows() [][]string {
	g.rng = rand.New(rand.NewSource(g.config.Seed))
	rows := make([][]string, 0, g.config.Respondents+1)
	rows = append(rows, SurveyHeaders)

	for i := 0; i < g.config.Respondents; i++ {
		female := g.rng.Float64() < g.config.FemaleShare

		gender, smokeRate, mean, sd := "1", g.config.MaleSmokeRate, g.config.MaleBMIMean, g.config.MaleBMISD
		if female {
			gender, smokeRate, mean, sd = "2", g.config.FemaleSmokeRate, g.config.FemaleBMIMean, g.config.FemaleBMISD
		}

		smq := "2"
		switch r := g.rng.Float64(); {
		case r < g.config.RefusedRate/2:
			smq = "7"
		case r < g.config.RefusedRate:
			smq = "9"
		case g.rng.Float64() < smokeRate:
			smq = "1"
		}

		bmi := ""
		if g.rng.Float64() >= g.config.MissingBMIRate {
			v := math.Max(12, mean+g.rng.NormFloat64()*sd)
			bmi = strconv.FormatFloat(math.Round(v*10)/10, 'f', 1, 64)
		}

		age := 18 + g.rng.Intn(63)
		educ := strconv.Itoa(1 + g.rng.Intn(5))

		rows = append(rows, []string{
			strconv.Itoa(83732 + i),
			gender,
			strconv.Itoa(age),
			smq,
			bmi,
			educ,
		})
	}
	return rows
}

// WriteCSV writes the generated rows to path
func (g *SurveyGenerator) WriteCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(g.GenerateRows()); err != nil {
		return fmt.Errorf("failed to write survey csv: %w", err)
	}
	return f.Close()
}

// WriteXLSX writes the generated rows to the first sheet of a new workbook
func (g *SurveyGenerator) WriteXLSX(path, sheet string) error {
	f := excelize.NewFile()
	defer f.Close()

	if sheet != "" && sheet != "Sheet1" {
		if err := f.SetSheetName("Sheet1", sheet); err != nil {
			return err
		}
	} else {
		sheet = "Sheet1"
	}

	for i, row := range g.GenerateRows() {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}
	return f.SaveAs(path)
}

// WriteRowsCSV writes literal rows, for fixtures that need exact values
func WriteRowsCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return f.Close()
}
