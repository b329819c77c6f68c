package window

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"energysweep/internal/config"
	"energysweep/internal/window"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFinishWithoutScheduler(t *testing.T) {
	zero := 0
	cfg := &config.Config{}
	cfg.Window.CooldownSeconds = &zero
	w, err := Finish(cfg, "2024-08-05T09:00:55", "pbs", "42", "")
	require.NoError(t, err)
	assert.Equal(t, "2024-08-05T09:00:55", w.Start)
	assert.Equal(t, window.PostRun, w.Stage)
	assert.True(t, w.CooldownApplied)
}

func TestFinishFromReplayedSacct(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sacct.txt")
	require.NoError(t, os.WriteFile(path, []byte("756717|2024-08-05T09:01:08|2024-08-05T09:05:39|00:04:31\n"), 0600))
	cfg := &config.Config{}
	cfg.Scheduler.Replay = path
	w, err := Finish(cfg, "2024-08-05T09:00:55", "slurm", "756717", "weather_t")
	require.NoError(t, err)
	assert.Equal(t, "2024-08-05T09:01:08", w.Start)
	assert.Equal(t, "2024-08-05T09:04:39", w.End)
	assert.Equal(t, window.SchedulerRefined, w.Stage)
}

func TestPrintWindow(t *testing.T) {
	var buf bytes.Buffer
	printWindow(&buf, window.Window{Start: "2024-08-05T09:01:08", End: "2024-08-05T09:04:39", Stage: window.SchedulerRefined})
	assert.Equal(t, "2024-08-05T09:01:08\t2024-08-05T09:04:39\tscheduler-refined\n", buf.String())

	buf.Reset()
	printWindow(&buf, window.Window{Start: "2024-08-05T09:01:08", End: "2024-08-05T09:00:13", Stage: window.PostRun, Empty: true})
	assert.Equal(t, "2024-08-05T09:01:08\t2024-08-05T09:00:13\tpost-run\tempty\n", buf.String())
}
