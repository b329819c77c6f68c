package telemetry

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"energysweep/internal/energy"
	"energysweep/internal/window"

	"github.com/prometheus/common/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClusterName(t *testing.T) {
	tests := []struct {
		name     string
		clusters map[string]string
		want     string
	}{
		{"sapphire", DefaultClusters, "CSD3"},
		{"archer2", DefaultClusters, "ARCHER2"},
		{"isambard", DefaultClusters, "Isambard"},
		{"isambard", map[string]string{"isambard": "BRISTOL"}, "BRISTOL"},
		{"", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClusterName(tt.name, tt.clusters))
		})
	}
}

func TestNewClientRequiresAddress(t *testing.T) {
	_, err := NewClient(Config{})
	assert.ErrorIs(t, err, ErrNoAddress)
}

func TestQuery(t *testing.T) {
	c, err := NewClient(Config{Address: "http://localhost:9090", Cluster: "icelake"})
	require.NoError(t, err)
	q, err := c.Query("cpu-q-1")
	require.NoError(t, err)
	assert.Equal(t, `amperageProbeReading{amperageProbeLocationName="System Board Pwr Consumption", cluster="CSD3", alias="cpu-q-1"}`, q)

	c, err = NewClient(Config{Address: "http://localhost:9090", Cluster: "x", QueryTemplate: `node_power{host="{{.Host}}"}`})
	require.NoError(t, err)
	q, err = c.Query("n1")
	require.NoError(t, err)
	assert.Equal(t, `node_power{host="n1"}`, q)

	_, err = NewClient(Config{Address: "http://localhost:9090", QueryTemplate: "{{"})
	assert.Error(t, err)
}

const matrixResponse = `{"status":"success","data":{"resultType":"matrix","result":[
{"metric":{"alias":"cpu-q-1"},"values":[[1722848468,"300"],[1722848478,"310"],[1722848488,"320"]]}]}}`

func TestFetch(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "/api/v1/query_range", r.URL.Path)
		gotQuery = r.Form.Get("query")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(matrixResponse))
	}))
	defer srv.Close()

	c, err := NewClient(Config{Address: srv.URL, Cluster: "sapphire"})
	require.NoError(t, err)
	rows, err := c.Fetch(context.Background(), "cpu-q-1", window.Window{Start: "2024-08-05T09:01:08", End: "2024-08-05T09:04:39"})
	require.NoError(t, err)
	assert.Contains(t, gotQuery, `alias="cpu-q-1"`)
	require.Len(t, rows, 3)
	assert.Equal(t, []float64{1722848468, 300}, rows[0])
	assert.Equal(t, []float64{1722848488, 320}, rows[2])
}

func TestFetchEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"success","data":{"resultType":"matrix","result":[]}}`))
	}))
	defer srv.Close()

	c, err := NewClient(Config{Address: srv.URL})
	require.NoError(t, err)
	rows, err := c.Fetch(context.Background(), "n1", window.Window{Start: "2024-08-05T09:01:08", End: "2024-08-05T09:04:39"})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestFetchBackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"status":"error","errorType":"bad_data","error":"parse error"}`))
	}))
	defer srv.Close()

	c, err := NewClient(Config{Address: srv.URL})
	require.NoError(t, err)
	_, err = c.Fetch(context.Background(), "n1", window.Window{Start: "2024-08-05T09:01:08", End: "2024-08-05T09:04:39"})
	assert.Error(t, err)
}

func TestFetchBadWindow(t *testing.T) {
	c, err := NewClient(Config{Address: "http://localhost:9090"})
	require.NoError(t, err)
	_, err = c.Fetch(context.Background(), "n1", window.Window{Start: "soon", End: "later"})
	assert.Error(t, err)
}

func TestRowsSumsSeries(t *testing.T) {
	psu := func(name string, watts model.SampleValue) *model.SampleStream {
		return &model.SampleStream{
			Metric: model.Metric{"psu": model.LabelValue(name)},
			Values: []model.SamplePair{{Timestamp: 20000, Value: watts}, {Timestamp: 0, Value: watts}, {Timestamp: 10000, Value: watts}},
		}
	}
	rows, err := Rows(model.Matrix{psu("1", 100), psu("2", 100)})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{0, 200}, {10, 200}, {20, 200}}, rows)

	result := energy.Trapezoid(energy.FromRows(rows))
	assert.Equal(t, energy.Measured, result.Outcome)
	assert.InDelta(t, 4000.0, result.Joules, 1e-9)
}

func TestRowsRejectsVector(t *testing.T) {
	_, err := Rows(model.Vector{})
	assert.ErrorIs(t, err, ErrUnexpectedType)
}
