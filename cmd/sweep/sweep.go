// Package sweep is a subcommand of the root command. It prints the
// operating points of a partition and the commands that apply them.
package sweep

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"energysweep/internal/app"
	"energysweep/internal/common"
	"energysweep/internal/sweep"
	"energysweep/internal/util"

	"github.com/spf13/cobra"
)

const cmdName = "sweep"

// Skipped is printed in place of an operating point for an index beyond
// the partition's list.
const Skipped = "SKIPPED"

var examples = []string{
	fmt.Sprintf("  List the frequency sweep of a partition:  $ %s %s --partition icelake", app.Name, cmdName),
	fmt.Sprintf("  Print point 3 and its setup command:      $ %s %s --partition icelake --index 3 --setup", app.Name, cmdName),
	fmt.Sprintf("  Print the power caps of indices 0 to 4:   $ %s %s --kind powercap --partition cclake --index 0-4", app.Name, cmdName),
	fmt.Sprintf("  Print the sweep length of all partitions: $ %s %s --cardinality", app.Name, cmdName),
}

var Cmd = &cobra.Command{
	Use:           cmdName,
	Short:         "Print operating points of a frequency or power cap sweep",
	Example:       strings.Join(examples, "\n"),
	RunE:          runCmd,
	PreRunE:       validateFlags,
	GroupID:       "primary",
	Args:          cobra.NoArgs,
	SilenceErrors: true,
}

var (
	flagKind        string
	flagPartition   string
	flagIndex       string
	flagNodes       int
	flagSetup       bool
	flagCardinality bool
)

const (
	flagKindName        = "kind"
	flagPartitionName   = "partition"
	flagIndexName       = "index"
	flagNodesName       = "nodes"
	flagSetupName       = "setup"
	flagCardinalityName = "cardinality"
)

func init() {
	Cmd.Flags().StringVar(&flagKind, flagKindName, string(sweep.KindFrequency), "")
	Cmd.Flags().StringVar(&flagPartition, flagPartitionName, "", "")
	Cmd.Flags().StringVar(&flagIndex, flagIndexName, "", "")
	Cmd.Flags().IntVar(&flagNodes, flagNodesName, 1, "")
	Cmd.Flags().BoolVar(&flagSetup, flagSetupName, false, "")
	Cmd.Flags().BoolVar(&flagCardinality, flagCardinalityName, false, "")
	Cmd.MarkFlagsMutuallyExclusive(flagCardinalityName, flagIndexName)

	Cmd.SetUsageFunc(app.UsageFunc(getFlagGroups))
}

func getFlagGroups() []app.FlagGroup {
	flags := []app.Flag{
		{Name: flagKindName, Help: fmt.Sprintf("operating point kind: %s or %s", sweep.KindFrequency, sweep.KindPowercap)},
		{Name: flagPartitionName, Help: "scheduler partition"},
		{Name: flagIndexName, Help: "sweep indices, e.g. 3 or 0-4,7 (default: every index of the partition)"},
		{Name: flagNodesName, Help: "number of nodes the setup command applies to"},
		{Name: flagSetupName, Help: "print the node setup command after each point"},
		{Name: flagCardinalityName, Help: "print the number of sweep indices of the table"},
	}
	return []app.FlagGroup{{GroupName: "Options", Flags: flags}}
}

func validateFlags(cmd *cobra.Command, args []string) error {
	kinds := []string{string(sweep.KindFrequency), string(sweep.KindPowercap)}
	if !slices.Contains(kinds, flagKind) {
		return common.FlagValidationError(cmd, fmt.Sprintf("--%s options are: %s", flagKindName, strings.Join(kinds, ", ")))
	}
	if !flagCardinality && flagPartition == "" {
		return common.FlagValidationError(cmd, fmt.Sprintf("--%s is required", flagPartitionName))
	}
	if flagIndex != "" {
		if _, err := util.SelectiveIntRangeToIntList(flagIndex); err != nil {
			return common.FlagValidationError(cmd, fmt.Sprintf("--%s: %v", flagIndexName, err))
		}
	}
	if flagNodes <= 0 {
		return common.FlagValidationError(cmd, fmt.Sprintf("--%s must be greater than 0", flagNodesName))
	}
	return nil
}

func runCmd(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	appContext, err := app.FromCommand(cmd)
	if err != nil {
		return err
	}
	table := appContext.Config.Table(sweep.Kind(flagKind))
	if flagCardinality {
		fmt.Fprintln(cmd.OutOrStdout(), table.Cardinality())
		return nil
	}
	var indices []int
	if flagIndex == "" {
		points, err := table.Lookup(flagPartition)
		if err != nil {
			return err
		}
		for i := range points {
			indices = append(indices, i)
		}
	} else {
		indices, _ = util.SelectiveIntRangeToIntList(flagIndex)
	}
	setup := appContext.Config.Setup(flagNodes)
	return printPoints(cmd.OutOrStdout(), table, flagPartition, indices, setup, flagSetup)
}

// printPoints prints one line per index, SKIPPED for indices beyond the
// partition's list.
func printPoints(w io.Writer, table *sweep.Table, partition string, indices []int, setup sweep.SetupCommand, withSetup bool) error {
	for _, index := range indices {
		point, skip, err := table.Select(partition, index)
		if err != nil {
			if errors.Is(err, sweep.ErrUnknownPartition) {
				return fmt.Errorf("%w (known: %s)", err, strings.Join(table.Partitions(), ", "))
			}
			return err
		}
		if skip != nil {
			fmt.Fprintf(w, "%d\t%s\n", index, Skipped)
			continue
		}
		if withSetup {
			fmt.Fprintf(w, "%d\t%s\t%s\n", index, point, setup.For(point))
			continue
		}
		fmt.Fprintf(w, "%d\t%s\n", index, point)
	}
	return nil
}
