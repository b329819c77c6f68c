// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

// Package run prepares instrumented benchmark launches and collects their
// measurements into a report.
package run

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"energysweep/internal/config"
	"energysweep/internal/energy"
	"energysweep/internal/events"
	"energysweep/internal/extract"
	"energysweep/internal/hosts"
	"energysweep/internal/launch"
	"energysweep/internal/report"
	"energysweep/internal/sweep"
	"energysweep/internal/telemetry"
	"energysweep/internal/window"
)

// Benchmark timing keys printed by the benchmark harness.
const (
	CoreTime  = "Core time"
	TotalTime = "Total time"
)

var ErrNoHosts = errors.New("no hosts known for multi-node run")

// Job describes how the benchmark is launched.
type Job struct {
	Name          string
	Launcher      launch.Command // launcher and its options, without the executable
	Nodes         int
	Hosts         hosts.List // optional for single node runs
	Partition     string
	Cluster       string
	SchedulerKind string
	JobID         string
	JobName       string
}

// Binary is the benchmark executable.
type Binary struct {
	Executable string
	Args       []string
}

// SweepRequest selects an operating point. A nil request runs at the
// nodes' current settings.
type SweepRequest struct {
	Kind  sweep.Kind
	Index int
}

// Plan is everything needed to run one instrumented job.
type Plan struct {
	Point    *sweep.OperatingPoint
	Skip     *sweep.Skip // set when the sweep index is out of range for the partition
	Events   []string
	Setup    []string
	Prerun   []string
	Command  launch.Command
	Postrun  []string
	HostFile string
	Scheme   launch.OrderingScheme
}

// Skipped reports whether the job must not run.
func (p Plan) Skipped() bool {
	return p.Skip != nil
}

// Runner owns the measurement store of one run.
type Runner struct {
	Config    *config.Config
	Store     *energy.Store
	Telemetry telemetry.Fetcher      // nil disables telemetry
	LocalHost func() (string, error) // the node of a single node job given without hosts
}

// NewRunner returns a runner with an empty store.
func NewRunner(cfg *config.Config, fetcher telemetry.Fetcher) *Runner {
	return &Runner{Config: cfg, Store: energy.NewStore(), Telemetry: fetcher, LocalHost: hosts.Local}
}

// CooldownCommands are the post-run commands that idle the nodes so the
// next run starts from a settled power state.
func CooldownCommands(cooldown time.Duration) []string {
	seconds := int(cooldown / time.Second)
	if seconds <= 0 {
		return nil
	}
	return []string{
		fmt.Sprintf(`echo "Sleeping for %d seconds"`, seconds),
		fmt.Sprintf("sleep %ds", seconds),
	}
}

// Describe selects the operating point, the counter events and the output
// layout of a job without building its command. A skipped sweep point
// returns a plan with only Skip set.
func (r *Runner) Describe(job Job, req *SweepRequest) (Plan, error) {
	var plan Plan
	if req != nil {
		table := r.Config.Table(req.Kind)
		point, skip, err := table.Select(job.Partition, req.Index)
		if err != nil {
			return plan, err
		}
		if skip != nil {
			slog.Info("skipping sweep point", slog.String("partition", skip.Partition), slog.Int("index", skip.Index), slog.Int("points", skip.Length))
			plan.Skip = skip
			return plan, nil
		}
		plan.Point = &point
		plan.Setup = []string{r.Config.Setup(job.Nodes).For(point)}
	}
	plan.Events = r.Config.Registry().For(job.Partition)
	plan.Scheme = r.Config.Scheme()
	plan.HostFile = r.Config.Perf.HostFile
	if plan.HostFile == "" {
		plan.HostFile = hosts.DefaultFile
	}
	return plan, nil
}

// Prepare describes the job and builds the instrumented command with its
// pre-run and post-run commands.
func (r *Runner) Prepare(job Job, bin Binary, req *SweepRequest) (Plan, error) {
	plan, err := r.Describe(job, req)
	if err != nil || plan.Skipped() {
		return plan, err
	}
	wrapper := launch.PerfWrapper{
		Perf:       r.Config.PerfStat(plan.Events),
		Executable: bin.Executable,
		Args:       bin.Args,
		Nodes:      job.Nodes,
		RankFlags:  r.Config.Perf.RankFlags,
		Scheme:     plan.Scheme,
		HostFile:   plan.HostFile,
	}
	cmd, err := launch.Compose(job.Launcher, wrapper)
	if err != nil {
		return plan, err
	}
	plan.Command = cmd
	plan.Prerun = wrapper.PrerunCommands()
	plan.Postrun = CooldownCommands(r.Config.Estimator().Cooldown)
	return plan, nil
}

// Output is what the job wrote.
type Output struct {
	Perf      string // perf stat output, with launcher tags on multi-node runs
	Benchmark string // benchmark timing output
}

// Collect extracts the counters of every host and socket, the benchmark
// times and, when a window is given, the telemetry energy of every host.
func (r *Runner) Collect(ctx context.Context, job Job, plan Plan, out Output, w *window.Window) (report.Report, error) {
	if plan.Skipped() {
		return report.Report{}, fmt.Errorf("cannot collect a skipped run")
	}
	hostList, err := r.hostList(job, plan)
	if err != nil {
		return report.Report{}, err
	}
	if err := r.collectCounters(job, plan, hostList, out.Perf); err != nil {
		return report.Report{}, err
	}
	if w != nil {
		if err := r.collectTelemetry(ctx, hostList, *w); err != nil {
			return report.Report{}, err
		}
	}
	var times []report.Variable
	for _, key := range []string{CoreTime, TotalTime} {
		seconds, err := extract.BenchmarkTime(out.Benchmark, key)
		if err != nil {
			slog.Warn("benchmark time not found", slog.String("key", key))
			continue
		}
		times = append(times, report.Variable{Name: key, Value: seconds, Unit: report.UnitSeconds})
	}
	point := ""
	if plan.Point != nil {
		point = plan.Point.String()
	}
	return report.FromStore(job.Name, point, r.Store, times), nil
}

func (r *Runner) hostList(job Job, plan Plan) (hosts.List, error) {
	if len(job.Hosts) > 0 || job.Nodes <= 1 {
		return job.Hosts, nil
	}
	list, err := hosts.ReadFile(plan.HostFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoHosts, err)
	}
	return list, nil
}

func (r *Runner) collectCounters(job Job, plan Plan, hostList hosts.List, output string) error {
	sockets := r.Config.Sockets()
	if job.Nodes <= 1 {
		return r.addCounters("", "", sockets, plan.Events, output)
	}
	if len(hostList) < job.Nodes {
		return fmt.Errorf("%w: %d hosts for %d nodes", ErrNoHosts, len(hostList), job.Nodes)
	}
	for i := range job.Nodes {
		if err := r.addCounters(hostList.Get(i), plan.Scheme.LinePrefix(i), sockets, plan.Events, output); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) addCounters(host string, prefix string, sockets int, evs []string, output string) error {
	for socket := range sockets {
		for _, ev := range evs {
			series := extract.PerfSeries(output, socket, events.Key(ev), prefix)
			result, err := r.Store.AddSum(energy.CounterKey(host, socket, events.Key(ev)), series)
			if err != nil {
				return err
			}
			if result.Outcome == energy.NoData {
				slog.Warn("no perf samples found", slog.String("host", host), slog.Int("socket", socket), slog.String("event", ev))
			}
		}
	}
	return nil
}

func (r *Runner) collectTelemetry(ctx context.Context, hostList hosts.List, w window.Window) error {
	if r.Telemetry == nil {
		slog.Info("telemetry disabled")
		return nil
	}
	if len(hostList) == 0 {
		host, err := r.LocalHost()
		if err != nil {
			return err
		}
		slog.Info("no hosts given, using the local node for telemetry", slog.String("host", host))
		hostList = hosts.List{host}
	}
	if w.Empty {
		for _, host := range hostList {
			if _, err := r.Store.AddTrapezoid(energy.TelemetryKey(host), energy.Series{}); err != nil {
				return err
			}
		}
		slog.Warn("telemetry window is empty, no telemetry recorded", slog.String("start", w.Start), slog.String("end", w.End))
		return nil
	}
	for _, host := range hostList {
		rows, err := r.Telemetry.Fetch(ctx, host, w)
		if err != nil {
			return err
		}
		result, err := r.Store.AddTrapezoid(energy.TelemetryKey(host), energy.FromRows(rows))
		if err != nil {
			return err
		}
		slog.Debug("telemetry energy", slog.String("host", host), slog.Int("samples", result.Samples), slog.Float64("joules", result.Joules))
	}
	return nil
}
