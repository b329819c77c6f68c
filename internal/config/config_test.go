package config

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"energysweep/internal/events"
	"energysweep/internal/launch"
	"energysweep/internal/sweep"
	"energysweep/internal/target"
	"energysweep/internal/window"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
frequencies:
  milan: [2000, 1500]
events:
  classes:
    amd: ["power/energy-pkg/"]
  partitions:
    milan: amd
perf:
  interval_ms: 5000
  scheme: openmpi
window:
  margin_seconds: 2
  cooldown_seconds: 0
telemetry:
  address: http://prom:9090
  clusters:
    milan: MILAN
setup:
  governor: performance
scheduler:
  host: login1
  user: hpc
derived:
  - name: EDP
    expression: "[Total time] * [telemetry/node1]"
    unit: Js
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "energysweep.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv(EnvPrometheusAddress, "")
	t.Setenv(EnvNodeSetupDebug, "")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 15, cfg.Table(sweep.KindFrequency).Cardinality())
	assert.Equal(t, sweep.KindPowercap, cfg.Table(sweep.KindPowercap).Kind())
	assert.Equal(t, "intel", cfg.Scheme().Name())
	e := cfg.Estimator()
	assert.Equal(t, window.DefaultMargin, e.Margin)
	assert.Equal(t, window.DefaultCooldown, e.Cooldown)
	local, err := cfg.SchedulerTarget()
	require.NoError(t, err)
	assert.IsType(t, &target.LocalTarget{}, local)
	assert.Equal(t, []string{events.EnergyCores, events.EnergyRAM, events.EnergyPkg}, cfg.Registry().For("cclake"))
}

func TestLoadFile(t *testing.T) {
	t.Setenv(EnvPrometheusAddress, "")
	t.Setenv(EnvNodeSetupDebug, "")
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	table := cfg.Table(sweep.KindFrequency)
	assert.Equal(t, []string{"milan"}, table.Partitions())
	assert.Equal(t, 2, table.Cardinality())
	// power caps were not overridden
	assert.Equal(t, sweep.DefaultPowercaps().Cardinality(), cfg.Table(sweep.KindPowercap).Cardinality())

	r := cfg.Registry()
	assert.Equal(t, []string{"power/energy-pkg/"}, r.For("milan"))
	assert.Equal(t, []string{events.EnergyRAM, events.EnergyPkg}, r.For("sapphire"))

	assert.Equal(t, launch.OpenMPI{}, cfg.Scheme())
	assert.Equal(t, 5000, cfg.PerfStat([]string{"x"}).IntervalMs)

	e := cfg.Estimator()
	assert.Equal(t, 2*time.Second, e.Margin)
	assert.Equal(t, time.Duration(0), e.Cooldown)

	tc := cfg.TelemetryClient("milan")
	assert.Equal(t, "http://prom:9090", tc.Address)
	assert.Equal(t, "MILAN", tc.Clusters["milan"])

	schedulerTarget, err := cfg.SchedulerTarget()
	require.NoError(t, err)
	remote, ok := schedulerTarget.(*target.RemoteTarget)
	require.True(t, ok)
	assert.Equal(t, "login1", remote.GetName())

	assert.Equal(t, "sudo cpupower frequency-set -g performance", cfg.Setup(1).For(sweep.OperatingPoint{Kind: sweep.KindFrequency, Value: 2000}))
	require.Len(t, cfg.Derived, 1)
	assert.Equal(t, "EDP", cfg.Derived[0].Name)
	assert.Equal(t, "Js", cfg.Derived[0].Unit)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvPrometheusAddress, "http://override:9090")
	t.Setenv(EnvNodeSetupDebug, "1")
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)
	assert.Equal(t, "http://override:9090", cfg.Telemetry.Address)
	assert.True(t, cfg.Setup.DryRun)
}

func TestApplyEnvAnyValueEnablesDryRun(t *testing.T) {
	cfg := &Config{}
	cfg.applyEnv(func(key string) (string, bool) {
		if key == EnvNodeSetupDebug {
			return "yes please", true
		}
		return "", false
	})
	assert.True(t, cfg.Setup.DryRun)
	assert.Empty(t, cfg.Telemetry.Address)
}

func TestLoadErrors(t *testing.T) {
	t.Setenv(EnvPrometheusAddress, "")
	t.Setenv(EnvNodeSetupDebug, "")
	tests := []struct {
		name    string
		content string
	}{
		{"unknown field", "bogus: 1\n"},
		{"unknown scheme", "perf:\n  scheme: mpich\n"},
		{"negative interval", "perf:\n  interval_ms: -1\n"},
		{"unknown class", "events:\n  partitions:\n    milan: amd\n"},
		{"non positive point", "frequencies:\n  milan: [0]\n"},
		{"derived without expression", "derived:\n  - name: EDP\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSchedulerReplay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sacct.txt")
	require.NoError(t, os.WriteFile(path, []byte("42|2024-08-05T09:01:08|2024-08-05T09:05:39|00:04:31\n"), 0600))
	cfg := &Config{Scheduler: SchedulerConfig{Replay: path}}
	replay, err := cfg.SchedulerTarget()
	require.NoError(t, err)
	assert.IsType(t, &target.RawTarget{}, replay)

	cfg.Scheduler.Replay = filepath.Join(t.TempDir(), "missing.txt")
	_, err = cfg.SchedulerTarget()
	assert.Error(t, err)
}
