// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

// Package scheduler asks the batch scheduler's accounting for the actual
// start and end time of a job.
package scheduler

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"energysweep/internal/target"
)

// TimeFormat is the timestamp layout used by sacct and the telemetry
// window.
const TimeFormat = "2006-01-02T15:04:05"

const KindSlurm = "slurm"

// ErrQuery is returned when the accounting query itself fails.
var ErrQuery = errors.New("scheduler accounting query failed")

// Times are the accounting start and end of a job.
type Times struct {
	Start string
	End   string
}

// Accounting looks up a job's run times. found is false when the record is
// missing or incomplete; that is not an error.
type Accounting interface {
	Name() string
	JobTimes(jobID string, jobName string) (times Times, found bool, err error)
}

// ForKind returns the accounting integration for a scheduler kind, or nil
// when the scheduler is not integrated.
func ForKind(kind string, t target.Target) Accounting {
	if kind == KindSlurm {
		return &Slurm{Target: t}
	}
	return nil
}

// Slurm queries sacct.
type Slurm struct {
	Target  target.Target
	Timeout int // seconds, zero means no timeout
}

func (s *Slurm) Name() string {
	return KindSlurm
}

func (s *Slurm) command(jobID string, jobName string) *exec.Cmd {
	args := []string{"-P", "--noheader", "--format=jobid,start,end,elapsed", "--jobs=" + jobID}
	if jobName != "" {
		args = append(args, "--name="+jobName)
	}
	return exec.Command("sacct", args...)
}

// JobTimes runs sacct for the job and returns the start and end of the
// job allocation record.
func (s *Slurm) JobTimes(jobID string, jobName string) (Times, bool, error) {
	if jobID == "" {
		return Times{}, false, nil
	}
	slog.Info("Querying slurm for start / end time", slog.String("jobid", jobID))
	cmd := s.command(jobID, jobName)
	stdout, stderr, exitCode, err := s.Target.RunCommand(cmd, s.Timeout)
	if err != nil {
		return Times{}, false, fmt.Errorf("%w: %s: %s, %d, %v", ErrQuery, cmd.String(), strings.TrimSpace(stderr), exitCode, err)
	}
	times, found := ParseSacct(stdout, jobID)
	if !found {
		slog.Warn("no usable accounting record", slog.String("jobid", jobID))
		return Times{}, false, nil
	}
	slog.Debug("accounting times", slog.String("jobid", jobID), slog.String("start", times.Start), slog.String("end", times.End))
	return times, true, nil
}

// ParseSacct finds the record for jobID in `sacct -P` output with fields
// jobid|start|end|... . Step records such as "42.batch" are ignored. A
// record whose start or end is not a timestamp (e.g. "Unknown" for a
// running job) counts as missing.
func ParseSacct(output string, jobID string) (Times, bool) {
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		fields := strings.Split(strings.TrimSpace(scanner.Text()), "|")
		if len(fields) < 3 || fields[0] != jobID {
			continue
		}
		start, end := fields[1], fields[2]
		if _, err := time.ParseInLocation(TimeFormat, start, time.Local); err != nil {
			return Times{}, false
		}
		if _, err := time.ParseInLocation(TimeFormat, end, time.Local); err != nil {
			return Times{}, false
		}
		return Times{Start: start, End: end}, true
	}
	return Times{}, false
}
