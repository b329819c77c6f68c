// Package report renders the performance variables of a run as txt, json,
// xlsx or a Prometheus textfile.
package report

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"
	"strings"

	"energysweep/internal/energy"
)

const (
	FormatTxt  = "txt"
	FormatJson = "json"
	FormatXlsx = "xlsx"
	FormatProm = "prom"
	FormatAll  = "all"
)

const NoDataFound = "No data found."

var FormatOptions = []string{FormatTxt, FormatJson, FormatXlsx, FormatProm}

// Units of performance variables.
const (
	UnitJoules  = "J"
	UnitSeconds = "s"
)

// Variable is one performance variable of a run.
type Variable struct {
	Name    string
	Value   float64
	Unit    string
	Outcome energy.Outcome // empty for values that are not energy reductions
}

// Report holds the variables of one run.
type Report struct {
	Name      string // benchmark or job name
	Point     string // operating point, empty when not sweeping
	Variables []Variable
}

// Variable returns a variable by name.
func (r Report) Variable(name string) (Variable, bool) {
	for _, v := range r.Variables {
		if v.Name == name {
			return v, true
		}
	}
	return Variable{}, false
}

// VariableName strips the source of counter keys, so the perf energy of
// socket 0 reads "0/power/energy-pkg/" on a single node and
// "node-1/0/power/energy-pkg/" on several. Telemetry keys keep their
// source, "telemetry/node-1".
func VariableName(key energy.Key) string {
	if key.Source == energy.SourceCounter {
		return strings.TrimPrefix(key.String(), string(energy.SourceCounter)+"/")
	}
	return key.String()
}

// FromStore builds a report from the results recorded in a run followed by
// the benchmark times, in the given order.
func FromStore(name string, point string, store *energy.Store, times []Variable) Report {
	r := Report{Name: name, Point: point}
	for _, e := range store.Entries() {
		r.Variables = append(r.Variables, Variable{
			Name:    VariableName(e.Key),
			Value:   e.Result.Joules,
			Unit:    UnitJoules,
			Outcome: e.Result.Outcome,
		})
	}
	r.Variables = append(r.Variables, times...)
	return r
}

// Create renders the reports in the given format.
func Create(format string, reports []Report) (out []byte, err error) {
	switch format {
	case FormatTxt:
		return createTextReport(reports)
	case FormatJson:
		return createJsonReport(reports)
	case FormatXlsx:
		return createXlsxReport(reports)
	case FormatProm:
		return createPromReport(reports)
	}
	return nil, fmt.Errorf("expected one of %s, got %s", strings.Join(FormatOptions, ", "), format)
}
