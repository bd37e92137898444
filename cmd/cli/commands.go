package main

import (
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"nhanesci/adapters/excel"
	"nhanesci/app"
	"nhanesci/domain/core"
	"nhanesci/domain/dataset"
	"nhanesci/internal"
	"nhanesci/internal/config"
	"nhanesci/internal/errors"
	"nhanesci/internal/report"
	"nhanesci/ports"
)

// options are the flags shared by every command
type options struct {
	file     string
	sheet    string
	codebook string
	group    string
	groups   string
	level    float64
	strata   string
	format   string
	output   string
}

func newRootCmd(cfg *config.Config, logger *internal.Logger) *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "nhanesci",
		Short: "Two-sample confidence intervals for NHANES-style survey data",
		Long: `Compare two groups of a survey dataset: difference of proportions for a binary
outcome, difference of means for a continuous one. Every difference is first - second,
in the order given by --groups.`,
		Version:       app.CodeVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.file, "file", cfg.Data.File, "CSV or XLSX dataset (env NHANES_FILE)")
	flags.StringVar(&opts.sheet, "sheet", cfg.Data.Sheet, "Worksheet for xlsx input; first sheet when empty")
	flags.StringVar(&opts.codebook, "codebook", cfg.Data.Codebook, "YAML codebook layered over the built-in NHANES codes")
	flags.StringVar(&opts.group, "group", cfg.Analysis.GroupColumn, "Grouping column")
	flags.StringVar(&opts.groups, "groups", strings.Join(cfg.Analysis.Groups, ","), "The two group labels, first,second")
	flags.Float64Var(&opts.level, "level", cfg.Analysis.ConfidenceLevel, "Confidence level (env CONFIDENCE_LEVEL)")
	flags.StringVar(&opts.strata, "strata", "", "Repeat the analysis per band, e.g. RIDAGEYR:18,30,40,50,60,70,80")
	flags.StringVar(&opts.format, "format", cfg.Output.Format, "Output format: text|json|markdown|html")
	flags.StringVarP(&opts.output, "output", "o", cfg.Output.Path, "Write the report to a file instead of stdout")

	rootCmd.AddCommand(
		newProportionCmd(cfg, logger, opts),
		newMeanCmd(cfg, logger, opts),
		newReportCmd(cfg, logger, opts),
		newBoxPlotCmd(cfg, logger, opts),
	)
	return rootCmd
}

func newProportionCmd(cfg *config.Config, logger *internal.Logger, opts *options) *cobra.Command {
	var outcome, positive string

	cmd := &cobra.Command{
		Use:   "proportion",
		Short: "Confidence interval for a difference of proportions",
		Long: `Confidence interval for the difference of the share of a binary outcome between two groups.

Example: nhanesci proportion --file nhanes.csv --group RIAGENDR --outcome SMQ020 --positive Yes`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := opts.analysis(app.AnalysisProportion, outcome)
			if err != nil {
				return err
			}
			req.Positive = positive
			return run(cmd, cfg, logger, opts, app.ReportRequest{Analyses: []app.AnalysisRequest{req}})
		},
	}

	cmd.Flags().StringVar(&outcome, "outcome", "SMQ020", "Binary outcome column")
	cmd.Flags().StringVar(&positive, "positive", "", "Outcome label counted as a success; first code when empty")
	return cmd
}

func newMeanCmd(cfg *config.Config, logger *internal.Logger, opts *options) *cobra.Command {
	var outcome string

	cmd := &cobra.Command{
		Use:   "mean",
		Short: "Confidence interval for a difference of means",
		Long: `Confidence interval for the difference of the mean of a continuous outcome between two groups.

Example: nhanesci mean --file nhanes.csv --group RIAGENDR --outcome BMXBMI`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := opts.analysis(app.AnalysisMean, outcome)
			if err != nil {
				return err
			}
			return run(cmd, cfg, logger, opts, app.ReportRequest{Analyses: []app.AnalysisRequest{req}})
		},
	}

	cmd.Flags().StringVar(&outcome, "outcome", "BMXBMI", "Continuous outcome column")
	return cmd
}

func newReportCmd(cfg *config.Config, logger *internal.Logger, opts *options) *cobra.Command {
	var binary, continuous string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Smoking and BMI comparisons with a BMI box plot",
		RunE: func(cmd *cobra.Command, args []string) error {
			proportion, err := opts.analysis(app.AnalysisProportion, binary)
			if err != nil {
				return err
			}
			mean, err := opts.analysis(app.AnalysisMean, continuous)
			if err != nil {
				return err
			}
			return run(cmd, cfg, logger, opts, app.ReportRequest{
				Analyses: []app.AnalysisRequest{proportion, mean},
				BoxPlots: []app.BoxPlotRequest{{Group: mean.Group, Outcome: mean.Outcome, Groups: mean.Groups}},
			})
		},
	}

	cmd.Flags().StringVar(&binary, "binary", "SMQ020", "Binary outcome column")
	cmd.Flags().StringVar(&continuous, "continuous", "BMXBMI", "Continuous outcome column")
	return cmd
}

func newBoxPlotCmd(cfg *config.Config, logger *internal.Logger, opts *options) *cobra.Command {
	var outcome string
	var coef float64

	cmd := &cobra.Command{
		Use:   "boxplot",
		Short: "Box plot of a continuous outcome per group",
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := opts.analysis(app.AnalysisMean, outcome)
			if err != nil {
				return err
			}
			return run(cmd, cfg, logger, opts, app.ReportRequest{
				BoxPlots: []app.BoxPlotRequest{{Group: req.Group, Outcome: req.Outcome, Groups: req.Groups, Coef: coef}},
			})
		},
	}

	cmd.Flags().StringVar(&outcome, "outcome", "BMXBMI", "Continuous outcome column")
	cmd.Flags().Float64Var(&coef, "coef", 1.5, "Whisker length as a multiple of the IQR")
	return cmd
}

// analysis builds a request from the shared flags
func (o *options) analysis(kind app.AnalysisKind, outcome string) (app.AnalysisRequest, error) {
	group, err := core.ParseVariableKey(o.group)
	if err != nil {
		return app.AnalysisRequest{}, errors.WithCode(errors.CodeInvalidInput, err)
	}
	out, err := core.ParseVariableKey(outcome)
	if err != nil {
		return app.AnalysisRequest{}, errors.WithCode(errors.CodeInvalidInput, err)
	}

	req := app.AnalysisRequest{
		Kind:    kind,
		Group:   group,
		Outcome: out,
		Groups:  config.SplitList(o.groups),
		Level:   o.level,
	}
	if o.strata != "" {
		strata, err := dataset.ParseStrata(o.strata)
		if err != nil {
			return app.AnalysisRequest{}, errors.WithCode(errors.CodeInvalidInput, err)
		}
		req.Strata = strata
	}
	return req, nil
}

func run(cmd *cobra.Command, cfg *config.Config, logger *internal.Logger, opts *options, req app.ReportRequest) error {
	cfg.Data.File = opts.file
	cfg.Data.Sheet = opts.sheet
	cfg.Data.Codebook = opts.codebook
	cfg.Analysis.ConfidenceLevel = opts.level
	cfg.Analysis.Groups = config.SplitList(opts.groups)
	cfg.Output.Format = strings.ToLower(opts.format)
	cfg.Output.Path = opts.output
	if err := cfg.Validate(); err != nil {
		return err
	}

	renderer, err := report.ForFormat(cfg.Output.Format)
	if err != nil {
		return err
	}

	codebook := dataset.NHANESCodebook()
	if cfg.Data.Codebook != "" {
		extra, err := dataset.LoadCodebook(cfg.Data.Codebook)
		if err != nil {
			return errors.WithCode(errors.CodeConfigInvalid, err)
		}
		codebook = codebook.Merge(extra)
	}

	newReader := func(path string) ports.TableReaderPort {
		return excel.NewDataReader(path, excel.WithSheet(cfg.Data.Sheet), excel.WithLogger(logger))
	}
	service := app.NewIntervalService(codebook, newReader, logger)

	req.File = cfg.Data.File
	result, err := service.RunReport(cmd.Context(), req)
	if err != nil {
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	if cfg.Output.Path != "" {
		f, err := os.Create(cfg.Output.Path)
		if err != nil {
			return errors.Wrapf(err, "failed to create %s", cfg.Output.Path)
		}
		defer f.Close()
		w = f
	}

	if err := renderer.Render(w, result); err != nil {
		return errors.Wrap(err, "failed to render report")
	}
	logger.Info("Run %s finished in %dms", result.RunID, result.RuntimeMs)
	return nil
}
