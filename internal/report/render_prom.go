package report

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"bytes"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

const promMetricName = "energysweep_variable"

// newRegistry exposes every variable as a sample of one gauge vector.
func newRegistry(reports []Report) (*prometheus.Registry, error) {
	gauge := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: promMetricName,
			Help: "energysweep performance variables",
		},
		[]string{"benchmark", "point", "variable", "unit"},
	)
	registry := prometheus.NewRegistry()
	if err := registry.Register(gauge); err != nil {
		return nil, err
	}
	for _, r := range reports {
		for _, v := range r.Variables {
			gauge.WithLabelValues(r.Name, r.Point, v.Name, v.Unit).Set(v.Value)
		}
	}
	return registry, nil
}

func createPromReport(reports []Report) (out []byte, err error) {
	registry, err := newRegistry(reports)
	if err != nil {
		return nil, err
	}
	families, err := registry.Gather()
	if err != nil {
		return nil, fmt.Errorf("failed to gather metrics: %w", err)
	}
	var buf bytes.Buffer
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(&buf, mf); err != nil {
			return nil, fmt.Errorf("failed to render metrics: %w", err)
		}
	}
	return buf.Bytes(), nil
}

// WriteTextfile writes the reports for the node exporter textfile
// collector. The file is replaced atomically.
func WriteTextfile(path string, reports []Report) error {
	registry, err := newRegistry(reports)
	if err != nil {
		return err
	}
	return prometheus.WriteToTextfile(path, registry)
}
