// Package extract is a subcommand of the root command. It parses perf stat
// output into a time series for one socket and event.
package extract

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"
	"io"
	"os"
	"strings"

	"energysweep/internal/app"
	"energysweep/internal/common"
	"energysweep/internal/energy"
	"energysweep/internal/events"
	"energysweep/internal/extract"
	"energysweep/internal/launch"

	"github.com/spf13/cobra"
)

const cmdName = "extract"

var examples = []string{
	fmt.Sprintf("  Package energy of socket 1:          $ %s %s --input perf.out --socket 1 --event power/energy-pkg/", app.Name, cmdName),
	fmt.Sprintf("  DRAM energy of the second host:      $ %s %s --input perf.out --event power/energy-ram/ --host-index 1", app.Name, cmdName),
	fmt.Sprintf("  Only the total, read from stdin:     $ cat perf.out | %s %s --event power/energy-pkg/ --total", app.Name, cmdName),
}

var Cmd = &cobra.Command{
	Use:           cmdName,
	Short:         "Extract a perf stat counter series",
	Example:       strings.Join(examples, "\n"),
	RunE:          runCmd,
	PreRunE:       validateFlags,
	GroupID:       "primary",
	Args:          cobra.NoArgs,
	SilenceErrors: true,
}

var (
	flagInput     string
	flagSocket    int
	flagEvent     string
	flagHostIndex int
	flagScheme    string
	flagTotal     bool
)

const (
	flagInputName     = "input"
	flagSocketName    = "socket"
	flagEventName     = "event"
	flagHostIndexName = "host-index"
	flagSchemeName    = "scheme"
	flagTotalName     = "total"
)

func init() {
	Cmd.Flags().StringVar(&flagInput, flagInputName, "", "")
	Cmd.Flags().IntVar(&flagSocket, flagSocketName, 0, "")
	Cmd.Flags().StringVar(&flagEvent, flagEventName, events.EnergyPkg, "")
	Cmd.Flags().IntVar(&flagHostIndex, flagHostIndexName, -1, "")
	Cmd.Flags().StringVar(&flagScheme, flagSchemeName, "", "")
	Cmd.Flags().BoolVar(&flagTotal, flagTotalName, false, "")

	Cmd.SetUsageFunc(app.UsageFunc(getFlagGroups))
}

func getFlagGroups() []app.FlagGroup {
	flags := []app.Flag{
		{Name: flagInputName, Help: "perf stat output file (default: stdin)"},
		{Name: flagSocketName, Help: "socket number"},
		{Name: flagEventName, Help: "counter event"},
		{Name: flagHostIndexName, Help: "host index in multi-node output, negative for single node output"},
		{Name: flagSchemeName, Help: "MPI output tag scheme: intel or openmpi (default: from config)"},
		{Name: flagTotalName, Help: "print only the summed total"},
	}
	return []app.FlagGroup{{GroupName: "Options", Flags: flags}}
}

func validateFlags(cmd *cobra.Command, args []string) error {
	if flagSocket < 0 {
		return common.FlagValidationError(cmd, fmt.Sprintf("--%s must not be negative", flagSocketName))
	}
	if events.Key(flagEvent) == "" {
		return common.FlagValidationError(cmd, fmt.Sprintf("--%s is required", flagEventName))
	}
	if flagScheme != "" {
		if _, err := launch.SchemeByName(flagScheme); err != nil {
			return common.FlagValidationError(cmd, err.Error())
		}
	}
	return nil
}

func runCmd(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	appContext, err := app.FromCommand(cmd)
	if err != nil {
		return err
	}
	var input io.Reader = cmd.InOrStdin()
	if flagInput != "" {
		f, err := os.Open(flagInput) // #nosec G304
		if err != nil {
			return fmt.Errorf("failed to open perf output: %w", err)
		}
		defer f.Close()
		input = f
	}
	data, err := io.ReadAll(input)
	if err != nil {
		return fmt.Errorf("failed to read perf output: %w", err)
	}
	scheme := appContext.Config.Scheme()
	if flagScheme != "" {
		scheme, _ = launch.SchemeByName(flagScheme)
	}
	prefix := ""
	if flagHostIndex >= 0 {
		prefix = scheme.LinePrefix(flagHostIndex)
	}
	series := extract.PerfSeries(string(data), flagSocket, events.Key(flagEvent), prefix)
	printSeries(cmd.OutOrStdout(), series, flagTotal)
	return nil
}

func printSeries(w io.Writer, series energy.Series, totalOnly bool) {
	result := energy.Sum(series)
	if !totalOnly {
		for i := range series.Len() {
			fmt.Fprintf(w, "%g\t%g\n", series.Time[i], series.Value[i])
		}
	}
	fmt.Fprintf(w, "total\t%g\t%s\n", result.Joules, result.Outcome)
}
