package scheduler

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"testing"

	"energysweep/internal/target"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sacctOutput = `756717|2024-08-05T09:01:08|2024-08-05T09:01:39|00:00:31
756717.batch|2024-08-05T09:01:08|2024-08-05T09:01:39|00:00:31
756717.extern|2024-08-05T09:01:08|2024-08-05T09:01:40|00:00:32
756718|2024-08-05T09:02:00|Unknown|00:10:00
`

func TestParseSacct(t *testing.T) {
	tests := []struct {
		name  string
		jobID string
		want  Times
		found bool
	}{
		{"allocation record", "756717", Times{Start: "2024-08-05T09:01:08", End: "2024-08-05T09:01:39"}, true},
		{"running job has no end", "756718", Times{}, false},
		{"unknown job", "1", Times{}, false},
		{"step is not a job", "756717.batch", Times{Start: "2024-08-05T09:01:08", End: "2024-08-05T09:01:39"}, true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, found := ParseSacct(sacctOutput, test.jobID)
			assert.Equal(t, test.found, found)
			assert.Equal(t, test.want, got)
		})
	}
}

func TestSlurmJobTimes(t *testing.T) {
	s := &Slurm{Target: target.NewRawTarget("recorded", map[string]string{"sacct": sacctOutput})}
	times, found, err := s.JobTimes("756717", "weather_t")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "2024-08-05T09:01:08", times.Start)

	_, found, err = s.JobTimes("99", "weather_t")
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = s.JobTimes("", "")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSlurmQueryError(t *testing.T) {
	s := &Slurm{Target: target.NewRawTarget("empty", nil)}
	_, found, err := s.JobTimes("756717", "")
	assert.ErrorIs(t, err, ErrQuery)
	assert.False(t, found)
}

func TestSlurmCommand(t *testing.T) {
	s := &Slurm{}
	cmd := s.command("42", "weather_t")
	assert.Equal(t, []string{"sacct", "-P", "--noheader", "--format=jobid,start,end,elapsed", "--jobs=42", "--name=weather_t"}, cmd.Args)
}

func TestForKind(t *testing.T) {
	assert.NotNil(t, ForKind("slurm", target.NewLocalTarget()))
	assert.Nil(t, ForKind("pbs", target.NewLocalTarget()))
	assert.Nil(t, ForKind("local", target.NewLocalTarget()))
}
