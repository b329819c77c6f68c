// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package launch

import (
	"fmt"
	"log/slog"
	"strconv"

	"energysweep/internal/events"
	"energysweep/internal/hosts"
)

// DefaultPerfIntervalMs is the perf stat print interval.
const DefaultPerfIntervalMs = 10000

// ClauseSeparator joins MPMD clauses of a single parallel invocation.
const ClauseSeparator = ":"

// PerfStat holds the perf stat invocation that samples the counters.
type PerfStat struct {
	Path       string // defaults to "perf"
	IntervalMs int    // defaults to DefaultPerfIntervalMs
	Events     []string
}

// Command returns the perf stat prefix: system wide, aggregated per
// socket, periodic, without locale thousands separators, one -e per event.
func (p PerfStat) Command() Command {
	path := p.Path
	if path == "" {
		path = "perf"
	}
	interval := p.IntervalMs
	if interval <= 0 {
		interval = DefaultPerfIntervalMs
	}
	cmd := Command{path, "stat", "-a", "--per-socket", "--no-big-num", "-I", strconv.Itoa(interval)}
	for _, event := range events.Dedup(p.Events) {
		cmd = append(cmd, "-e", event)
	}
	return cmd
}

// PerfWrapper instruments a launch command with perf stat. With one node
// perf is a plain prefix. With several nodes the launch becomes an MPMD
// invocation: one perf wrapped rank pinned to each host, followed by the
// remaining uninstrumented ranks.
type PerfWrapper struct {
	Perf       PerfStat
	Executable string
	Args       []string
	Nodes      int
	RankFlags  []string       // defaults to DefaultRankFlags
	Scheme     OrderingScheme // defaults to IntelMPI
	HostFile   string         // defaults to hosts.DefaultFile
}

func (w PerfWrapper) validate() error {
	if w.Nodes <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidNodeCount, w.Nodes)
	}
	if len(events.Dedup(w.Perf.Events)) == 0 {
		return events.ErrNoEvents
	}
	if w.Executable == "" {
		return fmt.Errorf("executable is required")
	}
	return nil
}

func (w PerfWrapper) scheme() OrderingScheme {
	if w.Scheme == nil {
		return IntelMPI{}
	}
	return w.Scheme
}

func (w PerfWrapper) hostFile() string {
	if w.HostFile == "" {
		return hosts.DefaultFile
	}
	return w.HostFile
}

func (w PerfWrapper) rankFlags() []string {
	if len(w.RankFlags) == 0 {
		return DefaultRankFlags
	}
	return w.RankFlags
}

// program is the bare benchmark invocation.
func (w PerfWrapper) program() Command {
	return append(Command{w.Executable}, w.Args...)
}

// Transform returns the instrumented command, including the benchmark
// executable and its arguments.
func (w PerfWrapper) Transform(launcher Command) (Command, error) {
	if err := w.validate(); err != nil {
		return nil, err
	}
	if w.Nodes == 1 {
		cmd := w.Perf.Command()
		cmd = append(cmd, launcher...)
		return append(cmd, w.program()...), nil
	}
	return w.multiNode(launcher)
}

func (w PerfWrapper) multiNode(launcher Command) (Command, error) {
	flag, err := FindRankFlag(launcher, w.rankFlags())
	if err != nil {
		return nil, err
	}
	if flag.Ranks < w.Nodes {
		return nil, fmt.Errorf("%w: %d ranks on %d nodes", ErrInsufficientRanks, flag.Ranks, w.Nodes)
	}
	scheme := w.scheme()
	cmd := flag.Remove(launcher)
	cmd = append(cmd, scheme.OrderingFlags()...)
	residual := flag.Ranks - w.Nodes
	for i := range w.Nodes {
		cmd = append(cmd, scheme.HostFlag(), hosts.LineCommand(i, w.hostFile()), flag.Flag, "1")
		cmd = append(cmd, w.Perf.Command()...)
		cmd = append(cmd, w.program()...)
		if i < w.Nodes-1 || residual > 0 {
			cmd = append(cmd, ClauseSeparator)
		}
	}
	if residual > 0 {
		cmd = append(cmd, flag.Flag, strconv.Itoa(residual))
		cmd = append(cmd, w.program()...)
	}
	slog.Debug("instrumented multi-node launch", slog.Int("nodes", w.Nodes), slog.Int("ranks", flag.Ranks), slog.Int("residual", residual), slog.String("scheme", scheme.Name()))
	return cmd, nil
}

// PrerunCommands returns the commands that must run before the launch.
// Multi-node launches need the host file that the per-host clauses read.
func (w PerfWrapper) PrerunCommands() []string {
	if w.Nodes <= 1 {
		return nil
	}
	return []string{hosts.DiscoveryCommand(w.Nodes, w.hostFile())}
}
