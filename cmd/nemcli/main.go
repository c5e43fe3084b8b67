// nemcli processes Australian electricity interval meter files (NEM12
// or generic wide CSV), classifies every interval against a time-of-use
// tariff and reports per-period consumption and cost.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"nemcli/internal/config"
	apperrors "nemcli/internal/errors"
	"nemcli/internal/infrastructure"
	"nemcli/internal/pipeline"
)

func main() {
	app := &cli.App{
		Name:  "nemcli",
		Usage: "time-of-use aggregation for electricity interval meter data",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "application config file (YAML)",
				EnvVars: []string{"NEMCLI_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "aggregate",
				Usage: "classify intervals against a tariff and report per-period totals",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Usage: "meter data file (NEM12 or generic CSV)", Required: true},
					&cli.StringFlag{Name: "tariff", Aliases: []string{"c"}, Usage: "time-of-use tariff definition (YAML)", Required: true},
					&cli.StringFlag{Name: "output-dir", Aliases: []string{"o"}, Usage: "directory for result files"},
					&cli.StringFlag{Name: "format", Usage: "output format: csv, xlsx, both or none"},
					&cli.BoolFlag{Name: "details", Usage: "also export per-interval detail"},
				},
				Action: runAggregate,
			},
			{
				Name:  "inspect",
				Usage: "detect the file format and report meter metadata and data quality",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Usage: "meter data file", Required: true},
				},
				Action: runInspect,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func setup(c *cli.Context) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, nil, err
	}
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func runAggregate(c *cli.Context) error {
	cfg, logger, err := setup(c)
	if err != nil {
		return err
	}

	output := cfg.Output
	if dir := c.String("output-dir"); dir != "" {
		output.Dir = dir
	}
	if format := c.String("format"); format != "" {
		output.Format = format
	}
	if c.Bool("details") {
		output.IncludeDetails = true
	}

	runner := pipeline.NewRunner(logger, nil)
	result, err := runner.Run(context.Background(), pipeline.Options{
		InputFile:  c.String("input"),
		TariffFile: c.String("tariff"),
		Output:     output,
	})
	if err != nil {
		return err
	}

	printSummary(result)
	printWarnings(result.Warnings)
	for _, f := range result.OutputFiles {
		fmt.Printf("wrote %s\n", f)
	}
	return nil
}

func runInspect(c *cli.Context) error {
	_, logger, err := setup(c)
	if err != nil {
		return err
	}

	runner := pipeline.NewRunner(logger, nil)
	result, err := runner.Inspect(context.Background(), c.String("input"))
	if err != nil {
		return err
	}

	ds := result.Dataset
	first, last := ds.DateRange()
	fmt.Printf("format:          %s\n", result.Format)
	fmt.Printf("meter:           %s\n", ds.MeterID)
	if ds.RegisterID != "" {
		fmt.Printf("register:        %s\n", ds.RegisterID)
	}
	if ds.MeterSerial != "" {
		fmt.Printf("serial:          %s\n", ds.MeterSerial)
	}
	fmt.Printf("unit of measure: %s\n", ds.UOM)
	fmt.Printf("interval length: %d min\n", ds.IntervalLength)
	fmt.Printf("readings:        %d over %d day(s)\n", len(ds.Readings), ds.TotalDays)
	if !first.IsZero() {
		fmt.Printf("range:           %s to %s\n",
			first.Format("2006-01-02 15:04"), last.Format("2006-01-02 15:04"))
	}
	fmt.Printf("total:           %.3f kWh\n", ds.TotalKWh())
	if ds.MultipleMeters {
		fmt.Println("note: file contains additional meters; only the primary was read")
	}
	printWarnings(result.Warnings)
	return nil
}

func printSummary(result *pipeline.RunResult) {
	fmt.Printf("meter %s (%s), %d intervals, %.3f kWh total\n\n",
		result.Dataset.MeterID, result.State, result.Stats.TotalIntervals, result.Stats.TotalKWh)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PERIOD\tKWH\tINTERVALS\tMISSING\tPCT\tCOST")
	for _, a := range result.Aggregates {
		if a.IntervalCount == 0 {
			continue
		}
		cost := "-"
		if a.TotalCost != nil {
			cost = "$" + a.TotalCost.StringFixed(2)
		}
		fmt.Fprintf(w, "%s\t%.3f\t%d\t%d\t%.1f%%\t%s\n",
			a.Name, a.TotalKWh, a.IntervalCount, a.MissingCount, a.PctOfTotal, cost)
	}
	w.Flush()
	fmt.Println()
}

func printWarnings(warnings apperrors.WarningList) {
	if len(warnings) == 0 {
		return
	}

	summary := warnings.Summary()
	types := make([]string, 0, len(summary))
	for t := range summary {
		types = append(types, string(t))
	}
	sort.Strings(types)

	fmt.Printf("%d data quality warning(s):\n", len(warnings))
	for _, t := range types {
		fmt.Printf("  %s: %d\n", t, summary[apperrors.WarningType(t)])
	}
}
