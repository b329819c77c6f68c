// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

// Package window estimates the time window used to query out-of-band power
// telemetry for a job.
package window

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"energysweep/internal/scheduler"
)

const (
	// DefaultMargin widens wall clock estimates to tolerate clock skew
	// between this host and the telemetry backend.
	DefaultMargin = 5 * time.Second
	// DefaultCooldown is the idle period slept after each run.
	DefaultCooldown = 60 * time.Second
)

var (
	ErrEmptyWindow = errors.New("telemetry window end is not after its start")
	// ErrSchedulerQuery is raised when the accounting query itself fails.
	ErrSchedulerQuery = scheduler.ErrQuery
)

// Stage records how the window was derived.
type Stage int

const (
	Provisional Stage = iota
	PostRun
	SchedulerRefined
)

func (s Stage) String() string {
	switch s {
	case Provisional:
		return "provisional"
	case PostRun:
		return "post-run"
	case SchedulerRefined:
		return "scheduler-refined"
	}
	return "unknown"
}

// Window is a query window in scheduler.TimeFormat.
type Window struct {
	Start            string
	End              string
	Stage            Stage
	CooldownApplied  bool
	SchedulerMissing bool // the scheduler was asked but had no record
	Empty            bool // the cooldown left no time to query
}

// Estimator derives windows from the wall clock and, when available, the
// scheduler's accounting.
type Estimator struct {
	Margin     time.Duration
	Cooldown   time.Duration
	Accounting scheduler.Accounting // nil when the scheduler is not integrated
	Now        func() time.Time
}

func (e *Estimator) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Estimator) margin() time.Duration {
	if e.Margin <= 0 {
		return DefaultMargin
	}
	return e.Margin
}

// Begin returns the provisional window at launch time. End is unknown.
func (e *Estimator) Begin() Window {
	return Window{Start: Format(e.now().Add(-e.margin())), Stage: Provisional}
}

// Finish completes a provisional window after the job ended: the wall
// clock end, then the scheduler's record if it has one, then the cooldown
// subtracted from the end. Only a failing accounting query is an error. A
// window the cooldown leaves empty is returned with Empty set; its
// telemetry is recorded as no data without querying.
func (e *Estimator) Finish(w Window, jobID string, jobName string) (Window, error) {
	if w.Stage != Provisional {
		return w, fmt.Errorf("window already finished (%s)", w.Stage)
	}
	w.End = Format(e.now().Add(e.margin()))
	w.Stage = PostRun
	if e.Accounting != nil {
		times, found, err := e.Accounting.JobTimes(jobID, jobName)
		if err != nil {
			return w, err
		}
		if found {
			w.Start, w.End = times.Start, times.End
			w.Stage = SchedulerRefined
		} else {
			w.SchedulerMissing = true
		}
	} else {
		slog.Info("Job does not use an integrated scheduler. Keeping wall clock estimates.")
	}
	end, err := SubtractCooldown(w.End, e.Cooldown)
	if err != nil {
		return w, err
	}
	w.End = end
	w.CooldownApplied = true
	if err := w.Validate(); err != nil {
		if !errors.Is(err, ErrEmptyWindow) {
			return w, err
		}
		slog.Warn("telemetry window is empty after the cooldown", slog.String("start", w.Start), slog.String("end", w.End))
		w.Empty = true
	}
	return w, nil
}

// Validate checks that start is before end.
func (w Window) Validate() error {
	start, err := Parse(w.Start)
	if err != nil {
		return err
	}
	end, err := Parse(w.End)
	if err != nil {
		return err
	}
	if !start.Before(end) {
		return fmt.Errorf("%w: %s >= %s", ErrEmptyWindow, w.Start, w.End)
	}
	return nil
}

// Format renders t in scheduler.TimeFormat.
func Format(t time.Time) string {
	return t.Format(scheduler.TimeFormat)
}

// Parse reads a timestamp in scheduler.TimeFormat as local time.
func Parse(s string) (time.Time, error) {
	t, err := time.ParseInLocation(scheduler.TimeFormat, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t, nil
}

// SubtractCooldown moves a timestamp back by cooldown, keeping the format.
func SubtractCooldown(s string, cooldown time.Duration) (string, error) {
	t, err := Parse(s)
	if err != nil {
		return "", err
	}
	return Format(t.Add(-cooldown)), nil
}
