// Package window is a subcommand of the root command. It estimates the
// time window for querying node power telemetry of a job.
package window

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"
	"io"
	"strings"

	"energysweep/internal/app"
	"energysweep/internal/common"
	"energysweep/internal/config"
	"energysweep/internal/scheduler"
	"energysweep/internal/window"

	"github.com/spf13/cobra"
)

const cmdName = "window"

var examples = []string{
	fmt.Sprintf("  Before the launch:  $ START=$(%s %s begin)", app.Name, cmdName),
	fmt.Sprintf("  After the job:      $ %s %s finish --start $START", app.Name, cmdName),
}

var Cmd = &cobra.Command{
	Use:     cmdName,
	Short:   "Estimate the telemetry query window of a job",
	Example: strings.Join(examples, "\n"),
	GroupID: "primary",
}

var beginCmd = &cobra.Command{
	Use:           "begin",
	Short:         "Print the provisional window start",
	RunE:          runBegin,
	Args:          cobra.NoArgs,
	SilenceErrors: true,
}

var finishCmd = &cobra.Command{
	Use:           "finish",
	Short:         "Print the window start and end after the job finished",
	RunE:          runFinish,
	PreRunE:       validateFinishFlags,
	Args:          cobra.NoArgs,
	SilenceErrors: true,
}

var flagStart string

const flagStartName = "start"

func init() {
	finishCmd.Flags().StringVar(&flagStart, flagStartName, "", "")
	common.AddSchedulerFlags(finishCmd)
	finishCmd.SetUsageFunc(app.UsageFunc(getFinishFlagGroups))
	Cmd.AddCommand(beginCmd)
	Cmd.AddCommand(finishCmd)
}

func getFinishFlagGroups() []app.FlagGroup {
	return []app.FlagGroup{
		{GroupName: "Window Options", Flags: []app.Flag{
			{Name: flagStartName, Help: fmt.Sprintf("provisional start printed by '%s %s begin'", app.Name, cmdName)},
		}},
		common.GetSchedulerFlagGroup(),
	}
}

func validateFinishFlags(cmd *cobra.Command, args []string) error {
	if flagStart == "" {
		return common.FlagValidationError(cmd, fmt.Sprintf("--%s is required", flagStartName))
	}
	if _, err := window.Parse(flagStart); err != nil {
		return common.FlagValidationError(cmd, fmt.Sprintf("--%s: %v", flagStartName, err))
	}
	return nil
}

func runBegin(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	appContext, err := app.FromCommand(cmd)
	if err != nil {
		return err
	}
	w := appContext.Config.Estimator().Begin()
	fmt.Fprintln(cmd.OutOrStdout(), w.Start)
	return nil
}

func runFinish(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	appContext, err := app.FromCommand(cmd)
	if err != nil {
		return err
	}
	job := common.Job(nil)
	w, err := Finish(appContext.Config, flagStart, job.SchedulerKind, job.JobID, job.JobName)
	if err != nil {
		return err
	}
	printWindow(cmd.OutOrStdout(), w)
	return nil
}

// Finish completes a window whose provisional start was printed earlier.
func Finish(cfg *config.Config, start string, schedulerKind string, jobID string, jobName string) (window.Window, error) {
	estimator := cfg.Estimator()
	schedulerTarget, err := cfg.SchedulerTarget()
	if err != nil {
		return window.Window{}, err
	}
	estimator.Accounting = scheduler.ForKind(schedulerKind, schedulerTarget)
	return estimator.Finish(window.Window{Start: start, Stage: window.Provisional}, jobID, jobName)
}

// printWindow prints start, end and stage, followed by "empty" when the
// cooldown left nothing to query.
func printWindow(w io.Writer, win window.Window) {
	if win.Empty {
		fmt.Fprintf(w, "%s\t%s\t%s\tempty\n", win.Start, win.End, win.Stage)
		return
	}
	fmt.Fprintf(w, "%s\t%s\t%s\n", win.Start, win.End, win.Stage)
}
