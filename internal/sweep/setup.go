// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package sweep

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultPowercapTemplate sets the RAPL package power limit with
// powercap-utils. The %s verb receives the cap in microwatts.
const DefaultPowercapTemplate = "sudo powercap-set -p intel-rapl -z 0 -c 0 -l %s"

// SetupCommand builds the shell command that applies an operating point
// to the nodes of a job before it runs.
type SetupCommand struct {
	Nodes             int
	DryRun            bool   // echo the command instead of running it
	PowercapTemplate  string // used for KindPowercap points
	FrequencyGovernor string // when set, frequency points apply the governor instead of a fixed frequency
}

// For returns the command applying the point.
func (s SetupCommand) For(point OperatingPoint) string {
	var cmd string
	switch {
	case point.Kind == KindFrequency && s.FrequencyGovernor != "":
		cmd = fmt.Sprintf("sudo cpupower frequency-set -g %s", s.FrequencyGovernor)
	case point.Kind == KindPowercap:
		tmpl := s.PowercapTemplate
		if tmpl == "" {
			tmpl = DefaultPowercapTemplate
		}
		cmd = fmt.Sprintf(tmpl, formatValue(point.Value*1e6))
	default:
		cmd = fmt.Sprintf("sudo cpupower frequency-set -f %smhz", formatValue(point.Value))
	}
	// multi-node jobs must apply the setting on every node
	if s.Nodes > 1 {
		cmd = fmt.Sprintf("srun --ntasks-per-node=1 -n%d -N%d %s", s.Nodes, s.Nodes, cmd)
	}
	if s.DryRun {
		return fmt.Sprintf("echo %q", cmd)
	}
	return cmd
}

func formatValue(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	return strings.TrimSuffix(s, ".0")
}
