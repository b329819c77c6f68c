// Package common holds the flags and output helpers shared by the job
// commands.
package common

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"energysweep/internal/app"
	"energysweep/internal/hosts"
	"energysweep/internal/launch"
	"energysweep/internal/report"
	"energysweep/internal/run"
	"energysweep/internal/scheduler"
	"energysweep/internal/sweep"

	"github.com/spf13/cobra"
)

// job flags
var (
	flagNodes      int
	flagPartition  string
	flagCluster    string
	flagExecutable string
	flagArgs       []string
	flagHosts      []string
	flagScheduler  string
	flagJobID      string
	flagJobName    string
	flagName       string
)

// sweep flags
var (
	flagKind  string
	flagIndex int
)

// job flag names
const (
	FlagNodesName      = "nodes"
	FlagPartitionName  = "partition"
	FlagClusterName    = "cluster"
	FlagExecutableName = "executable"
	FlagArgName        = "arg"
	FlagHostsName      = "hosts"
	FlagSchedulerName  = "scheduler"
	FlagJobIDName      = "job-id"
	FlagJobNameName    = "job-name"
	FlagNameName       = "name"
	FlagKindName       = "kind"
	FlagIndexName      = "index"
)

var jobFlags = []app.Flag{
	{Name: FlagNodesName, Help: "number of nodes the job runs on"},
	{Name: FlagPartitionName, Help: "scheduler partition, selects operating points and counter events"},
	{Name: FlagClusterName, Help: "cluster name used in telemetry queries (default: partition)"},
	{Name: FlagExecutableName, Help: "benchmark executable"},
	{Name: FlagArgName, Help: "benchmark argument, may be repeated"},
	{Name: FlagHostsName, Help: "comma separated host names, read from the host file when omitted"},
	{Name: FlagNameName, Help: "benchmark name used in reports"},
}

var schedulerFlags = []app.Flag{
	{Name: FlagSchedulerName, Help: "batch scheduler, accounting is only queried for slurm"},
	{Name: FlagJobIDName, Help: "scheduler job id (default: $SLURM_JOB_ID)"},
	{Name: FlagJobNameName, Help: "scheduler job name (default: $SLURM_JOB_NAME)"},
}

var sweepFlags = []app.Flag{
	{Name: FlagKindName, Help: fmt.Sprintf("operating point kind: %s or %s", sweep.KindFrequency, sweep.KindPowercap)},
	{Name: FlagIndexName, Help: "sweep index, negative runs at the current settings"},
}

// AddJobFlags adds the flags describing the job and the benchmark.
func AddJobFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&flagNodes, FlagNodesName, 1, jobFlags[0].Help)
	cmd.Flags().StringVar(&flagPartition, FlagPartitionName, "", jobFlags[1].Help)
	cmd.Flags().StringVar(&flagCluster, FlagClusterName, "", jobFlags[2].Help)
	cmd.Flags().StringVar(&flagExecutable, FlagExecutableName, "", jobFlags[3].Help)
	cmd.Flags().StringArrayVar(&flagArgs, FlagArgName, nil, jobFlags[4].Help)
	cmd.Flags().StringSliceVar(&flagHosts, FlagHostsName, nil, jobFlags[5].Help)
	cmd.Flags().StringVar(&flagName, FlagNameName, "", jobFlags[6].Help)
}

// AddSchedulerFlags adds the flags identifying the scheduler job.
func AddSchedulerFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagScheduler, FlagSchedulerName, scheduler.KindSlurm, schedulerFlags[0].Help)
	cmd.Flags().StringVar(&flagJobID, FlagJobIDName, os.Getenv("SLURM_JOB_ID"), schedulerFlags[1].Help)
	cmd.Flags().StringVar(&flagJobName, FlagJobNameName, os.Getenv("SLURM_JOB_NAME"), schedulerFlags[2].Help)
}

// AddSweepFlags adds the operating point selection flags.
func AddSweepFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagKind, FlagKindName, string(sweep.KindFrequency), sweepFlags[0].Help)
	cmd.Flags().IntVar(&flagIndex, FlagIndexName, -1, sweepFlags[1].Help)
}

func GetJobFlagGroup() app.FlagGroup {
	return app.FlagGroup{GroupName: "Job Options", Flags: jobFlags}
}

func GetSchedulerFlagGroup() app.FlagGroup {
	return app.FlagGroup{GroupName: "Scheduler Options", Flags: schedulerFlags}
}

func GetSweepFlagGroup() app.FlagGroup {
	return app.FlagGroup{GroupName: "Sweep Options", Flags: sweepFlags}
}

var reHostName = regexp.MustCompile(`^([a-zA-Z0-9._-]+)$`)

// ValidateJobFlags checks the job flags. requireExecutable is false for
// commands that never build the launch command.
func ValidateJobFlags(cmd *cobra.Command, requireExecutable bool) error {
	if flagNodes <= 0 {
		return FlagValidationError(cmd, fmt.Sprintf("--%s must be greater than 0", FlagNodesName))
	}
	if requireExecutable && flagExecutable == "" {
		return FlagValidationError(cmd, fmt.Sprintf("--%s is required", FlagExecutableName))
	}
	for _, host := range flagHosts {
		if !reHostName.MatchString(host) {
			return FlagValidationError(cmd, fmt.Sprintf("host name %s contains invalid characters", host))
		}
	}
	return nil
}

// ValidateSweepFlags checks the sweep flags.
func ValidateSweepFlags(cmd *cobra.Command) error {
	kinds := []string{string(sweep.KindFrequency), string(sweep.KindPowercap)}
	if !slices.Contains(kinds, flagKind) {
		return FlagValidationError(cmd, fmt.Sprintf("--%s options are: %s", FlagKindName, strings.Join(kinds, ", ")))
	}
	if flagIndex >= 0 && flagPartition == "" {
		return FlagValidationError(cmd, fmt.Sprintf("--%s is required when sweeping", FlagPartitionName))
	}
	return nil
}

// Job returns the job described by the flags. launcher holds the launch
// command tokens given after "--".
func Job(launcher []string) run.Job {
	name := flagName
	if name == "" && flagExecutable != "" {
		name = filepath.Base(flagExecutable)
	}
	cluster := flagCluster
	if cluster == "" {
		cluster = flagPartition
	}
	return run.Job{
		Name:          name,
		Launcher:      launch.Command(launcher),
		Nodes:         flagNodes,
		Hosts:         hosts.Order(flagHosts),
		Partition:     flagPartition,
		Cluster:       cluster,
		SchedulerKind: flagScheduler,
		JobID:         flagJobID,
		JobName:       flagJobName,
	}
}

// Binary returns the benchmark described by the flags.
func Binary() run.Binary {
	return run.Binary{Executable: flagExecutable, Args: flagArgs}
}

// SweepRequest returns the requested operating point, nil when not
// sweeping.
func SweepRequest() *run.SweepRequest {
	if flagIndex < 0 {
		return nil
	}
	return &run.SweepRequest{Kind: sweep.Kind(flagKind), Index: flagIndex}
}

// shownError has already been printed to the user.
type shownError struct {
	error
}

func (e shownError) Unwrap() error {
	return e.error
}

// Shown reports whether err was already printed to the user.
func Shown(err error) bool {
	var shown shownError
	return errors.As(err, &shown)
}

// FlagValidationError is used to report an error with a flag
func FlagValidationError(cmd *cobra.Command, msg string) error {
	err := errors.New(msg)
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
	fmt.Fprintf(cmd.ErrOrStderr(), "See '%s --help' for usage details.\n", cmd.CommandPath())
	cmd.SilenceUsage = true
	return shownError{err}
}

// PrintError shows a command error on w unless it was already shown.
func PrintError(w io.Writer, err error) {
	if err == nil || Shown(err) {
		return
	}
	fmt.Fprintf(w, "Error: %v\n", err)
}

// ValidateFormats checks requested report formats.
func ValidateFormats(cmd *cobra.Command, formats []string) error {
	options := append([]string{report.FormatAll}, report.FormatOptions...)
	for _, format := range formats {
		if !slices.Contains(options, format) {
			return FlagValidationError(cmd, fmt.Sprintf("format options are: %s", strings.Join(options, ", ")))
		}
	}
	return nil
}

// ExpandFormats replaces "all" with every format.
func ExpandFormats(formats []string) []string {
	var result []string
	for _, format := range formats {
		if format == report.FormatAll {
			return slices.Clone(report.FormatOptions)
		}
		if !slices.Contains(result, format) {
			result = append(result, format)
		}
	}
	return result
}

// CreateOutputDir creates the output directory if it does not exist
func CreateOutputDir(outputDir string) error {
	err := os.MkdirAll(outputDir, 0755) // #nosec G301
	if err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return nil
}

// WriteReports renders the reports in each format into outputDir and
// returns the file paths.
func WriteReports(reports []report.Report, formats []string, outputDir string, baseName string) ([]string, error) {
	if err := CreateOutputDir(outputDir); err != nil {
		return nil, err
	}
	var paths []string
	for _, format := range ExpandFormats(formats) {
		reportPath := filepath.Join(outputDir, fmt.Sprintf("%s.%s", baseName, format))
		if format == report.FormatProm {
			if err := report.WriteTextfile(reportPath, reports); err != nil {
				return paths, fmt.Errorf("failed to write report: %w", err)
			}
			paths = append(paths, reportPath)
			continue
		}
		reportBytes, err := report.Create(format, reports)
		if err != nil {
			return paths, fmt.Errorf("failed to create %s report: %w", format, err)
		}
		if err := writeReport(reportBytes, reportPath); err != nil {
			return paths, err
		}
		paths = append(paths, reportPath)
	}
	return paths, nil
}

// writeReport writes the report bytes to the specified path.
func writeReport(reportBytes []byte, reportPath string) error {
	err := os.WriteFile(reportPath, reportBytes, 0644) // #nosec G306
	if err != nil {
		err = fmt.Errorf("failed to write report file: %v", err)
		slog.Error(err.Error())
		return err
	}
	return nil
}
