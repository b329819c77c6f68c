package collect

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"energysweep/internal/config"
	"energysweep/internal/energy"
	"energysweep/internal/hosts"
	"energysweep/internal/report"
	"energysweep/internal/run"
	"energysweep/internal/sweep"
	"energysweep/internal/window"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticFetcher [][]float64

func (f staticFetcher) Fetch(ctx context.Context, host string, w window.Window) ([][]float64, error) {
	return f, nil
}

const perfOutput = `    10.001 S0 38 100.00 Joules power/energy-pkg/
    20.002 S0 38 110.00 Joules power/energy-pkg/
`

func TestCollectWithDerived(t *testing.T) {
	cfg := &config.Config{Derived: []config.DerivedVariable{
		{Name: "EDP", Expression: "[Total time] * [telemetry/node-1]", Unit: "Js"},
	}}
	job := run.Job{Name: "bench", Nodes: 1, Partition: "sapphire", Hosts: hosts.List{"node-1"}}
	w := window.Window{Start: "2024-08-05T09:01:08", End: "2024-08-05T09:04:39"}
	out := run.Output{Perf: perfOutput, Benchmark: "Total time: 10\n"}
	r, skipped, err := Collect(context.Background(), cfg, staticFetcher{{0, 100}, {10, 100}}, job, nil, out, &w)
	require.NoError(t, err)
	assert.False(t, skipped)
	edp, ok := r.Variable("EDP")
	require.True(t, ok)
	assert.Equal(t, 10000.0, edp.Value)
	assert.Equal(t, "Js", edp.Unit)
}

type refusingFetcher struct{}

func (refusingFetcher) Fetch(ctx context.Context, host string, w window.Window) ([][]float64, error) {
	return nil, errors.New("empty windows are not queried")
}

func TestCollectEmptyWindowKeepsCounters(t *testing.T) {
	zero := 0
	cooldown := 120
	cfg := &config.Config{}
	cfg.Window.MarginSeconds = &zero
	cfg.Window.CooldownSeconds = &cooldown
	estimator := cfg.Estimator()
	estimator.Now = func() time.Time { return time.Date(2024, 8, 5, 9, 2, 8, 0, time.Local) }
	w, err := estimator.Finish(window.Window{Start: "2024-08-05T09:01:08", Stage: window.Provisional}, "", "")
	require.NoError(t, err)
	require.True(t, w.Empty)

	job := run.Job{Name: "bench", Nodes: 1, Partition: "sapphire", Hosts: hosts.List{"node-1"}}
	out := run.Output{Perf: perfOutput, Benchmark: "Total time: 10\n"}
	r, skipped, err := Collect(context.Background(), cfg, refusingFetcher{}, job, nil, out, &w)
	require.NoError(t, err)
	assert.False(t, skipped)
	pkg, ok := r.Variable("0/power/energy-pkg/")
	require.True(t, ok)
	assert.Equal(t, 210.0, pkg.Value)
	node, ok := r.Variable("telemetry/node-1")
	require.True(t, ok)
	assert.Equal(t, energy.NoData, node.Outcome)
	total, ok := r.Variable("Total time")
	require.True(t, ok)
	assert.Equal(t, 10.0, total.Value)
}

func TestCollectSkipped(t *testing.T) {
	job := run.Job{Nodes: 1, Partition: "clusterlaine"}
	_, skipped, err := Collect(context.Background(), &config.Config{}, nil, job, &run.SweepRequest{Kind: sweep.KindFrequency, Index: 9}, run.Output{}, nil)
	require.NoError(t, err)
	assert.True(t, skipped)
}

func TestReportBaseName(t *testing.T) {
	assert.Equal(t, "bench_icelake_3_2000MHz", reportBaseName(report.Report{Name: "bench", Point: "icelake[3]=2000MHz"}))
	assert.Equal(t, "bench", reportBaseName(report.Report{Name: "bench"}))
}

func TestPrintSummaryPiped(t *testing.T) {
	r := report.Report{Name: "bench", Variables: []report.Variable{{Name: "0/power/energy-pkg/", Value: 210, Unit: report.UnitJoules}}}
	var buf bytes.Buffer
	require.NoError(t, printSummary(&buf, r, false))
	assert.Equal(t, "0/power/energy-pkg/\t210\tJ\n", buf.String())

	buf.Reset()
	require.NoError(t, printSummary(&buf, r, true))
	assert.Contains(t, buf.String(), "210.00 J")
	assert.False(t, isTerminal(&buf))
}
