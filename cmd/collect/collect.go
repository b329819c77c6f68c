// Package collect is a subcommand of the root command. It extracts the
// energy measurements of a finished job and writes the reports.
package collect

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"energysweep/cmd/window"
	"energysweep/internal/app"
	"energysweep/internal/common"
	"energysweep/internal/config"
	"energysweep/internal/report"
	"energysweep/internal/run"
	"energysweep/internal/telemetry"
	energywindow "energysweep/internal/window"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const cmdName = "collect"

var examples = []string{
	fmt.Sprintf("  Counters only:            $ %s %s --perf perf.out --bench spectimes.txt --partition icelake", app.Name, cmdName),
	fmt.Sprintf("  Counters and telemetry:   $ %s %s --perf perf.out --bench spectimes.txt --partition icelake --nodes 2 --start $START", app.Name, cmdName),
	fmt.Sprintf("  JSON report only:         $ %s %s --perf perf.out --format json", app.Name, cmdName),
}

var Cmd = &cobra.Command{
	Use:           cmdName,
	Short:         "Collect the energy measurements of a finished job",
	Example:       strings.Join(examples, "\n"),
	RunE:          runCmd,
	PreRunE:       validateFlags,
	GroupID:       "primary",
	Args:          cobra.NoArgs,
	SilenceErrors: true,
}

var (
	flagPerf        string
	flagBench       string
	flagStart       string
	flagNoTelemetry bool
	flagFormat      []string
)

const (
	flagPerfName        = "perf"
	flagBenchName       = "bench"
	flagStartName       = "start"
	flagNoTelemetryName = "no-telemetry"
)

func init() {
	common.AddJobFlags(Cmd)
	common.AddSchedulerFlags(Cmd)
	common.AddSweepFlags(Cmd)
	Cmd.Flags().StringVar(&flagPerf, flagPerfName, "", "")
	Cmd.Flags().StringVar(&flagBench, flagBenchName, "", "")
	Cmd.Flags().StringVar(&flagStart, flagStartName, "", "")
	Cmd.Flags().BoolVar(&flagNoTelemetry, flagNoTelemetryName, false, "")
	Cmd.Flags().StringSliceVar(&flagFormat, app.FlagFormatName, []string{report.FormatAll}, "")

	Cmd.SetUsageFunc(app.UsageFunc(getFlagGroups))
}

func getFlagGroups() []app.FlagGroup {
	return []app.FlagGroup{
		{GroupName: "Input Options", Flags: []app.Flag{
			{Name: flagPerfName, Help: "perf stat output of the job"},
			{Name: flagBenchName, Help: "benchmark timing output with 'Core time:' and 'Total time:' lines"},
			{Name: flagStartName, Help: "provisional telemetry window start, enables telemetry"},
			{Name: flagNoTelemetryName, Help: "do not query telemetry even when --start is set"},
		}},
		common.GetJobFlagGroup(),
		common.GetSchedulerFlagGroup(),
		common.GetSweepFlagGroup(),
		{GroupName: "Output Options", Flags: []app.Flag{
			{Name: app.FlagFormatName, Help: fmt.Sprintf("choose output format(s) from: %s", strings.Join(append([]string{report.FormatAll}, report.FormatOptions...), ", "))},
		}},
	}
}

func validateFlags(cmd *cobra.Command, args []string) error {
	if err := common.ValidateJobFlags(cmd, false); err != nil {
		return err
	}
	if err := common.ValidateSweepFlags(cmd); err != nil {
		return err
	}
	if err := common.ValidateFormats(cmd, flagFormat); err != nil {
		return err
	}
	if flagPerf == "" {
		return common.FlagValidationError(cmd, fmt.Sprintf("--%s is required", flagPerfName))
	}
	if flagStart != "" {
		if _, err := energywindow.Parse(flagStart); err != nil {
			return common.FlagValidationError(cmd, fmt.Sprintf("--%s: %v", flagStartName, err))
		}
	}
	return nil
}

func readFile(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path) // #nosec G304
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

func runCmd(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	appContext, err := app.FromCommand(cmd)
	if err != nil {
		return err
	}
	cfg := appContext.Config
	job := common.Job(nil)
	var out run.Output
	if out.Perf, err = readFile(flagPerf); err != nil {
		return err
	}
	if out.Benchmark, err = readFile(flagBench); err != nil {
		return err
	}
	var fetcher telemetry.Fetcher
	var w *energywindow.Window
	if flagStart != "" && !flagNoTelemetry {
		finished, err := window.Finish(cfg, flagStart, job.SchedulerKind, job.JobID, job.JobName)
		if err != nil {
			return err
		}
		w = &finished
		client, err := telemetry.NewClient(cfg.TelemetryClient(job.Cluster))
		if err != nil {
			return err
		}
		fetcher = client
	}
	r, skipped, err := Collect(cmd.Context(), cfg, fetcher, job, common.SweepRequest(), out, w)
	if err != nil {
		return err
	}
	if skipped {
		fmt.Fprintln(cmd.OutOrStdout(), "SKIPPED")
		return nil
	}
	paths, err := common.WriteReports([]report.Report{r}, flagFormat, appContext.OutputDir, reportBaseName(r))
	if err != nil {
		return err
	}
	for _, path := range paths {
		slog.Info("report written", slog.String("path", path))
	}
	return printSummary(cmd.OutOrStdout(), r, isTerminal(cmd.OutOrStdout()))
}

// Collect runs the extraction and applies the derived variables. skipped
// is true when the sweep point does not exist for the partition.
func Collect(ctx context.Context, cfg *config.Config, fetcher telemetry.Fetcher, job run.Job, req *run.SweepRequest, out run.Output, w *energywindow.Window) (r report.Report, skipped bool, err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	runner := run.NewRunner(cfg, fetcher)
	plan, err := runner.Describe(job, req)
	if err != nil {
		return r, false, err
	}
	if plan.Skipped() {
		return r, true, nil
	}
	r, err = runner.Collect(ctx, job, plan, out, w)
	if err != nil {
		return r, false, err
	}
	if len(cfg.Derived) > 0 {
		derived := make([]report.Derived, 0, len(cfg.Derived))
		for _, d := range cfg.Derived {
			derived = append(derived, report.Derived{Name: d.Name, Expression: d.Expression, Unit: d.Unit})
		}
		evaluator, err := report.NewEvaluator(derived)
		if err != nil {
			return r, false, err
		}
		r = evaluator.Apply(r)
	}
	return r, false, nil
}

func reportBaseName(r report.Report) string {
	name := r.Name
	if name == "" {
		name = app.Name
	}
	if r.Point != "" {
		name += "_" + r.Point
	}
	return strings.NewReplacer("/", "_", "[", "_", "]", "", "=", "_", " ", "_").Replace(name)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd())) // #nosec G115
}

// printSummary prints the text report on a terminal and tab separated
// name, value, unit lines otherwise.
func printSummary(w io.Writer, r report.Report, terminal bool) error {
	if terminal {
		text, err := report.Create(report.FormatTxt, []report.Report{r})
		if err != nil {
			return err
		}
		_, err = w.Write(text)
		return err
	}
	for _, v := range r.Variables {
		fmt.Fprintf(w, "%s\t%g\t%s\n", v.Name, v.Value, v.Unit)
	}
	return nil
}
