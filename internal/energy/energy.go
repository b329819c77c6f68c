// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

// Package energy reduces measured series to energy totals and keeps the raw
// series of a run.
package energy

// Series holds parallel time (seconds) and value sequences in sample order.
// Repeated sample times are kept.
type Series struct {
	Time  []float64
	Value []float64
}

// Append adds one sample.
func (s *Series) Append(time, value float64) {
	s.Time = append(s.Time, time)
	s.Value = append(s.Value, value)
}

// Len returns the number of complete samples.
func (s Series) Len() int {
	return min(len(s.Time), len(s.Value))
}

// FromRows converts [time, value] rows, as returned by the telemetry
// backend. Rows with fewer than two columns are dropped.
func FromRows(rows [][]float64) Series {
	var s Series
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		s.Append(row[0], row[1])
	}
	return s
}

// Outcome tells a zero total caused by no activity apart from a total
// computed from data.
type Outcome string

const (
	Measured Outcome = "measured"
	NoData   Outcome = "no-data"
)

// Result is a reduced energy value in joules.
type Result struct {
	Joules  float64
	Outcome Outcome
	Samples int
}

// Sum totals per-interval energy values, as printed by perf stat -I. The
// sampling interval need not be uniform.
func Sum(s Series) Result {
	n := s.Len()
	if n == 0 {
		return Result{Outcome: NoData}
	}
	total := 0.0
	for _, v := range s.Value[:n] {
		total += v
	}
	return Result{Joules: total, Outcome: Measured, Samples: n}
}

// Trapezoid integrates a power series (W over seconds) with the
// trapezoidal rule. Fewer than two samples integrate to zero.
func Trapezoid(s Series) Result {
	n := s.Len()
	if n < 2 {
		return Result{Outcome: NoData, Samples: n}
	}
	total := 0.0
	for i := 1; i < n; i++ {
		total += (s.Time[i] - s.Time[i-1]) * (s.Value[i] + s.Value[i-1]) / 2
	}
	return Result{Joules: total, Outcome: Measured, Samples: n}
}
