// Package app defines application-wide types, constants, and context
// that are shared across multiple commands.
package app

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"energysweep/internal/config"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Name is the name of the application executable.
var Name = filepath.Base(os.Args[0])

// Context represents the application context that can be accessed from all commands.
type Context struct {
	Timestamp   string         // Timestamp is the timestamp when the application was started.
	OutputDir   string         // OutputDir is the directory where the application will write output files.
	LogFilePath string         // LogFilePath is the path to the log file.
	Version     string         // Version is the version of the application.
	Debug       bool           // Debug is true if the application is running in debug mode.
	Config      *config.Config // Config is the loaded configuration file, with environment overrides.
}

// FromCommand returns the application context stored on the root command.
func FromCommand(cmd *cobra.Command) (Context, error) {
	root := cmd.Root()
	ctx := root.Context()
	if ctx == nil {
		return Context{}, fmt.Errorf("application context not initialized")
	}
	appContext, ok := ctx.Value(Context{}).(Context)
	if !ok {
		return Context{}, fmt.Errorf("application context not initialized")
	}
	return appContext, nil
}

// WithContext stores the application context on the root command.
func WithContext(cmd *cobra.Command, appContext Context) {
	cmd.Root().SetContext(context.WithValue(context.Background(), Context{}, appContext))
}

// Flag names for flags defined in the root command, but sometimes used in other commands.
const (
	FlagDebugName     = "debug"
	FlagSyslogName    = "syslog"
	FlagLogStdOutName = "log-stdout"
	FlagOutputDirName = "output"
	FlagConfigName    = "config"
	FlagFormatName    = "format"
)

// Flag represents a command-line flag with its name and help text.
type Flag struct {
	Name string
	Help string
}

// FlagGroup represents a group of related flags with a group name.
type FlagGroup struct {
	GroupName string
	Flags     []Flag
}

// UsageFunc prints grouped flag help for a subcommand.
func UsageFunc(groups func() []FlagGroup) func(cmd *cobra.Command) error {
	return func(cmd *cobra.Command) error {
		cmd.Printf("Usage: %s\n\n", cmd.UseLine())
		if cmd.Example != "" {
			cmd.Printf("Examples:\n%s\n\n", cmd.Example)
		}
		cmd.Println("Flags:")
		for _, group := range groups() {
			cmd.Printf("  %s:\n", group.GroupName)
			for _, flag := range group.Flags {
				flagDefault := ""
				if f := cmd.Flags().Lookup(flag.Name); f != nil && f.DefValue != "" && f.DefValue != "[]" {
					flagDefault = fmt.Sprintf(" (default: %s)", f.DefValue)
				}
				cmd.Printf("    --%-20s %s%s\n", flag.Name, flag.Help, flagDefault)
			}
		}
		cmd.Println("\nGlobal Flags:")
		cmd.Root().PersistentFlags().VisitAll(func(pf *pflag.Flag) {
			flagDefault := ""
			if pf.DefValue != "" && pf.DefValue != "false" {
				flagDefault = fmt.Sprintf(" (default: %s)", pf.DefValue)
			}
			cmd.Printf("  --%-20s %s%s\n", pf.Name, pf.Usage, flagDefault)
		})
		return nil
	}
}
