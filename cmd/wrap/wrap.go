// Package wrap is a subcommand of the root command. It instruments an MPI
// launch command with perf stat and prints the job script lines.
package wrap

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"energysweep/internal/app"
	"energysweep/internal/common"
	"energysweep/internal/run"

	"github.com/spf13/cobra"
)

const cmdName = "wrap"

// Skipped is printed instead of a script when the sweep point does not
// exist for the partition.
const Skipped = "SKIPPED"

var examples = []string{
	fmt.Sprintf("  Single node:                   $ %s %s --executable ./bench --arg input.txt -- mpirun -np 76", app.Name, cmdName),
	fmt.Sprintf("  Two nodes, frequency index 3:  $ %s %s --nodes 2 --partition icelake --index 3 --executable ./bench -- mpirun -np 152", app.Name, cmdName),
	fmt.Sprintf("  Only the launch line:          $ %s %s --command-only --executable ./bench -- srun --ntasks 8", app.Name, cmdName),
}

var Cmd = &cobra.Command{
	Use:           cmdName + " [flags] -- <launcher> [launcher options]",
	Short:         "Instrument an MPI launch command with perf stat",
	Example:       strings.Join(examples, "\n"),
	RunE:          runCmd,
	PreRunE:       validateFlags,
	GroupID:       "primary",
	Args:          cobra.MinimumNArgs(1),
	SilenceErrors: true,
}

var flagCommandOnly bool

const flagCommandOnlyName = "command-only"

func init() {
	common.AddJobFlags(Cmd)
	common.AddSweepFlags(Cmd)
	Cmd.Flags().BoolVar(&flagCommandOnly, flagCommandOnlyName, false, "")

	Cmd.SetUsageFunc(app.UsageFunc(getFlagGroups))
}

func getFlagGroups() []app.FlagGroup {
	return []app.FlagGroup{
		common.GetJobFlagGroup(),
		common.GetSweepFlagGroup(),
		{GroupName: "Output Options", Flags: []app.Flag{
			{Name: flagCommandOnlyName, Help: "print only the instrumented launch command"},
		}},
	}
}

func validateFlags(cmd *cobra.Command, args []string) error {
	if err := common.ValidateJobFlags(cmd, true); err != nil {
		return err
	}
	return common.ValidateSweepFlags(cmd)
}

func runCmd(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true // no usage dump for runtime errors
	appContext, err := app.FromCommand(cmd)
	if err != nil {
		return err
	}
	runner := run.NewRunner(appContext.Config, nil)
	plan, err := runner.Prepare(common.Job(args), common.Binary(), common.SweepRequest())
	if err != nil {
		return err
	}
	if plan.Skipped() {
		slog.Info(plan.Skip.String())
		fmt.Fprintln(cmd.OutOrStdout(), Skipped)
		return nil
	}
	printPlan(cmd.OutOrStdout(), plan, flagCommandOnly)
	return nil
}

// printPlan writes the job script lines in execution order.
func printPlan(w io.Writer, plan run.Plan, commandOnly bool) {
	if commandOnly {
		fmt.Fprintln(w, plan.Command.String())
		return
	}
	var lines []string
	lines = append(lines, plan.Setup...)
	lines = append(lines, plan.Prerun...)
	lines = append(lines, plan.Command.String())
	lines = append(lines, plan.Postrun...)
	for _, line := range lines {
		fmt.Fprintln(w, line)
	}
}
