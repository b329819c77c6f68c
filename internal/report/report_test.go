package report

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"energysweep/internal/energy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleStore(t *testing.T) *energy.Store {
	t.Helper()
	st := energy.NewStore()
	_, err := st.AddSum(energy.CounterKey("", 0, "power/energy-pkg/"), energy.Series{Time: []float64{10, 20}, Value: []float64{1500, 1600}})
	require.NoError(t, err)
	_, err = st.AddSum(energy.CounterKey("", 1, "power/energy-pkg/"), energy.Series{})
	require.NoError(t, err)
	_, err = st.AddTrapezoid(energy.TelemetryKey("node-1"), energy.Series{Time: []float64{0, 10, 20}, Value: []float64{300, 300, 300}})
	require.NoError(t, err)
	return st
}

func sampleReport(t *testing.T) Report {
	return FromStore("weather_t", "2000MHz", sampleStore(t), []Variable{{Name: "Total time", Value: 20, Unit: UnitSeconds}})
}

func TestFromStore(t *testing.T) {
	r := sampleReport(t)
	require.Len(t, r.Variables, 4)
	assert.Equal(t, "0/power/energy-pkg/", r.Variables[0].Name)
	assert.Equal(t, 3100.0, r.Variables[0].Value)
	assert.Equal(t, energy.Measured, r.Variables[0].Outcome)
	assert.Equal(t, energy.NoData, r.Variables[1].Outcome)
	assert.Equal(t, "telemetry/node-1", r.Variables[2].Name)
	assert.Equal(t, 6000.0, r.Variables[2].Value)
	v, ok := r.Variable("Total time")
	require.True(t, ok)
	assert.Equal(t, UnitSeconds, v.Unit)
}

func TestVariableName(t *testing.T) {
	assert.Equal(t, "node-2/1/power/energy-ram/", VariableName(energy.CounterKey("node-2", 1, "power/energy-ram/")))
	assert.Equal(t, "telemetry/node-2", VariableName(energy.TelemetryKey("node-2")))
}

func TestDerived(t *testing.T) {
	e, err := NewEvaluator([]Derived{
		{Name: "EDP", Expression: "[Total time] * [telemetry/node-1]", Unit: "Js"},
		{Name: "Pkg power", Expression: "[0/power/energy-pkg/] / [Total time]", Unit: "W"},
		{Name: "Larger", Expression: "max([Pkg power], 100)"},
		{Name: "Missing", Expression: "[nope] + 1"},
		{Name: "Infinite", Expression: "1 / 0"},
	})
	require.NoError(t, err)
	r := e.Apply(sampleReport(t))
	edp, ok := r.Variable("EDP")
	require.True(t, ok)
	assert.Equal(t, 120000.0, edp.Value)
	pkg, ok := r.Variable("Pkg power")
	require.True(t, ok)
	assert.Equal(t, 155.0, pkg.Value)
	larger, ok := r.Variable("Larger")
	require.True(t, ok)
	assert.Equal(t, 155.0, larger.Value)
	_, ok = r.Variable("Missing")
	assert.False(t, ok)
	_, ok = r.Variable("Infinite")
	assert.False(t, ok)
}

func TestDerivedParseError(t *testing.T) {
	_, err := NewEvaluator([]Derived{{Name: "bad", Expression: "(("}})
	assert.Error(t, err)
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "1,234,567.89", FormatValue(1234567.891))
	assert.Equal(t, "0.00", FormatValue(0))
}

func TestTextReport(t *testing.T) {
	out, err := Create(FormatTxt, []Report{sampleReport(t), {Name: "empty"}})
	require.NoError(t, err)
	text := string(out)
	title := "weather_t @ 2000MHz"
	assert.Contains(t, text, title+"\n"+strings.Repeat("=", len(title))+"\n")
	assert.Contains(t, text, "3,100.00 J")
	assert.Contains(t, text, "(no data)")
	assert.Contains(t, text, "empty\n=====\n"+NoDataFound)
}

func TestJsonReport(t *testing.T) {
	out, err := Create(FormatJson, []Report{sampleReport(t)})
	require.NoError(t, err)
	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(out, &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "weather_t", decoded[0]["name"])
	vars, ok := decoded[0]["variables"].([]any)
	require.True(t, ok)
	assert.Len(t, vars, 4)
}

func TestXlsxReport(t *testing.T) {
	out, err := Create(FormatXlsx, []Report{sampleReport(t)})
	require.NoError(t, err)
	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()
	title, err := f.GetCellValue(XlsxPrimarySheetName, "A1")
	require.NoError(t, err)
	assert.Equal(t, "weather_t @ 2000MHz", title)
	name, err := f.GetCellValue(XlsxPrimarySheetName, "B3")
	require.NoError(t, err)
	assert.Equal(t, "0/power/energy-pkg/", name)
}

func TestPromReport(t *testing.T) {
	out, err := Create(FormatProm, []Report{sampleReport(t)})
	require.NoError(t, err)
	text := string(out)
	assert.Contains(t, text, "# TYPE energysweep_variable gauge")
	assert.Contains(t, text, `variable="telemetry/node-1"`)
	assert.Contains(t, text, "6000")

	path := filepath.Join(t.TempDir(), "energysweep.prom")
	require.NoError(t, WriteTextfile(path, []Report{sampleReport(t)}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), promMetricName))
}

func TestUnknownFormat(t *testing.T) {
	_, err := Create("html", nil)
	assert.Error(t, err)
}
