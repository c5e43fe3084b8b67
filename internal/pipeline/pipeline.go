// Package pipeline wires the full processing flow: detect the input
// format, parse, classify against the tariff, aggregate, and export.
// Fatal errors abort before any output file is written; data quality
// warnings accumulate and ride along with the result.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"nemcli/internal/config"
	apperrors "nemcli/internal/errors"
	"nemcli/internal/exporter"
	"nemcli/internal/holiday"
	"nemcli/internal/infrastructure"
	"nemcli/internal/meterdata"
	"nemcli/internal/timezone"
	"nemcli/internal/tou"
)

// Options control a single run.
type Options struct {
	InputFile  string
	TariffFile string
	Output     config.OutputConfig
	// Now supplies the wall clock for output filenames; nil means
	// time.Now. Tests pin it for deterministic paths.
	Now func() time.Time
}

// RunResult is everything a run produced.
type RunResult struct {
	RunID       string
	SourceFile  string
	Format      meterdata.Format
	State       timezone.State
	Dataset     *meterdata.ParsedDataset
	Intervals   []tou.ClassifiedInterval
	Aggregates  []tou.PeriodAggregate
	Stats       *tou.SummaryStats
	Warnings    apperrors.WarningList
	OutputFiles []string
}

// Runner executes the processing pipeline.
type Runner struct {
	logger   *slog.Logger
	holidays holiday.Provider
}

// NewRunner creates a runner. holidays may be nil, in which case the
// national calendar is used.
func NewRunner(logger *slog.Logger, holidays holiday.Provider) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if holidays == nil {
		holidays = holiday.NewCalendarProvider()
	}
	return &Runner{logger: logger, holidays: holidays}
}

// Run processes one input file against one tariff definition.
func (r *Runner) Run(ctx context.Context, opts Options) (*RunResult, error) {
	runID := uuid.New().String()
	ctx = infrastructure.WithRunID(ctx, runID)
	logger := r.logger.With(slog.String("run_id", runID))

	result := &RunResult{RunID: runID, SourceFile: opts.InputFile}

	touConfig, state, err := config.LoadTOU(opts.TariffFile)
	if err != nil {
		return nil, err
	}
	result.State = state

	format, err := detectFileFormat(opts.InputFile)
	if err != nil {
		return nil, err
	}
	result.Format = format

	logger.InfoContext(ctx, "processing input file",
		slog.String("file", opts.InputFile),
		slog.String("format", string(format)),
		slog.String("state", string(state)))

	dataset, err := parseFile(opts.InputFile, format, logger)
	if err != nil {
		return nil, err
	}
	result.Dataset = dataset
	result.Warnings.Merge(dataset.Warnings)

	classifier, err := tou.NewClassifier(touConfig, state, r.holidays, logger)
	if err != nil {
		return nil, err
	}
	intervals, classifyStats := classifier.Classify(dataset)
	result.Intervals = intervals

	aggregator := tou.NewAggregator(touConfig, state, logger)
	result.Aggregates, result.Stats = aggregator.Aggregate(intervals, dataset.IntervalLength)

	for _, tr := range result.Stats.Transitions {
		result.Warnings.Add(apperrors.WarnDSTTransition, tr.String())
	}
	if classifyStats.Estimated > 0 {
		result.Warnings.Add(apperrors.WarnEstimatedData,
			fmt.Sprintf("%d of %d intervals carry estimated or substituted readings", classifyStats.Estimated, classifyStats.Total))
	}
	if classifyStats.Unclassified > 0 {
		result.Warnings.Add(apperrors.WarnUnclassified,
			fmt.Sprintf("%d of %d intervals matched no configured period", classifyStats.Unclassified, classifyStats.Total))
	}

	// everything computed; only now touch the filesystem
	if err := r.export(result, opts); err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "run complete",
		slog.Int("intervals", len(intervals)),
		slog.Int("warnings", len(result.Warnings)),
		slog.Int("output_files", len(result.OutputFiles)))

	return result, nil
}

func (r *Runner) export(result *RunResult, opts Options) error {
	format := strings.ToLower(opts.Output.Format)
	if format == "" {
		format = "csv"
	}
	if format == "none" {
		return nil
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}
	stamp := exporter.Stamp(now())

	report := &exporter.Report{
		Dataset:    result.Dataset,
		State:      result.State,
		Aggregates: result.Aggregates,
		Stats:      result.Stats,
		Intervals:  result.Intervals,
	}

	if format == "csv" || format == "both" {
		w := exporter.NewCSVWriter(opts.Output.Dir, r.logger)
		path, err := w.WriteSummary(report, stamp)
		if err != nil {
			return err
		}
		result.OutputFiles = append(result.OutputFiles, path)

		if opts.Output.IncludeDetails {
			path, err := w.WriteDetails(report, stamp)
			if err != nil {
				return err
			}
			result.OutputFiles = append(result.OutputFiles, path)
		}
	}

	if format == "xlsx" || format == "both" {
		w := exporter.NewExcelWriter(opts.Output.Dir, r.logger)
		path, err := w.WriteWorkbook(report, stamp, opts.Output.IncludeDetails)
		if err != nil {
			return err
		}
		result.OutputFiles = append(result.OutputFiles, path)
	}
	return nil
}

// Inspect parses an input file without a tariff: format detection, meter
// metadata and parser warnings only.
func (r *Runner) Inspect(ctx context.Context, inputFile string) (*RunResult, error) {
	runID := uuid.New().String()
	ctx = infrastructure.WithRunID(ctx, runID)
	logger := r.logger.With(slog.String("run_id", runID))

	format, err := detectFileFormat(inputFile)
	if err != nil {
		return nil, err
	}

	dataset, err := parseFile(inputFile, format, logger)
	if err != nil {
		return nil, err
	}

	result := &RunResult{
		RunID:      runID,
		SourceFile: inputFile,
		Format:     format,
		Dataset:    dataset,
	}
	result.Warnings.Merge(dataset.Warnings)

	logger.InfoContext(ctx, "inspected input file",
		slog.String("file", inputFile),
		slog.String("format", string(format)),
		slog.Int("readings", len(dataset.Readings)))

	return result, nil
}

func detectFileFormat(path string) (meterdata.Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return meterdata.FormatUnknown, apperrors.WrapFormatError(fmt.Sprintf("opening %s", path), err)
	}
	defer f.Close()
	return meterdata.DetectFormat(f)
}

func parseFile(path string, format meterdata.Format, logger *slog.Logger) (*meterdata.ParsedDataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.WrapFormatError(fmt.Sprintf("opening %s", path), err)
	}
	defer f.Close()

	switch format {
	case meterdata.FormatNEM12:
		return meterdata.ParseNEM12(f, logger)
	case meterdata.FormatGeneric:
		return meterdata.ParseGeneric(f, logger)
	default:
		return nil, apperrors.NewFormatError(fmt.Sprintf("no parser for format %q", format))
	}
}
