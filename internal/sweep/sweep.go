// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

// Package sweep maps cluster partitions to the ordered operating points
// (CPU frequency or power cap) that a parameter sweep visits, and selects
// the point for a given sweep index.
package sweep

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

// Kind identifies the quantity an operating point table sweeps over.
type Kind string

const (
	KindFrequency Kind = "frequency" // values in MHz
	KindPowercap  Kind = "powercap"  // values in watts
)

// Frequency units, all tables store MHz.
const (
	MHz = 1.0
	GHz = 1000.0 * MHz
)

var (
	ErrUnknownPartition = errors.New("no operating points for partition")
	ErrInvalidIndex     = errors.New("sweep index must not be negative")
)

// OperatingPoint is a single frequency (MHz) or power cap (W) value valid
// for a partition.
type OperatingPoint struct {
	Kind      Kind
	Partition string
	Index     int
	Value     float64
}

// Unit returns the unit string of the operating point value.
func (p OperatingPoint) Unit() string {
	if p.Kind == KindPowercap {
		return "W"
	}
	return "MHz"
}

func (p OperatingPoint) String() string {
	return fmt.Sprintf("%s[%d]=%g%s", p.Partition, p.Index, p.Value, p.Unit())
}

// Skip describes why a sweep index does not apply to a partition. A nil
// *Skip means the operating point is valid.
type Skip struct {
	Partition string
	Index     int
	Length    int
}

func (s *Skip) String() string {
	return fmt.Sprintf("Parameter index is out of range (%d >= %d) for partition %s", s.Index, s.Length, s.Partition)
}

// Table is an immutable mapping from partition name to ordered operating
// points.
type Table struct {
	kind   Kind
	points map[string][]float64
}

// NewTable copies the provided values into a new table.
func NewTable(kind Kind, points map[string][]float64) *Table {
	t := &Table{kind: kind, points: make(map[string][]float64, len(points))}
	for name, values := range points {
		t.points[name] = slices.Clone(values)
	}
	return t
}

// Kind returns what the table sweeps over.
func (t *Table) Kind() Kind {
	return t.kind
}

// Partitions returns the partition names in sorted order.
func (t *Table) Partitions() []string {
	return slices.Sorted(maps.Keys(t.points))
}

// Lookup returns the ordered operating points for a partition.
func (t *Table) Lookup(partition string) ([]OperatingPoint, error) {
	values, ok := t.points[partition]
	if !ok || len(values) == 0 {
		return nil, fmt.Errorf("%w: %s (%s)", ErrUnknownPartition, partition, t.kind)
	}
	points := make([]OperatingPoint, len(values))
	for i, v := range values {
		points[i] = OperatingPoint{Kind: t.kind, Partition: partition, Index: i, Value: v}
	}
	return points, nil
}

// Cardinality is the longest list length across all partitions. A sweep
// parameterised over [0, Cardinality) covers every partition.
func (t *Table) Cardinality() int {
	cardinality := 0
	for _, values := range t.points {
		cardinality = max(cardinality, len(values))
	}
	return cardinality
}

// Indices returns the sweep indices [0, Cardinality).
func (t *Table) Indices() []int {
	indices := make([]int, t.Cardinality())
	for i := range indices {
		indices[i] = i
	}
	return indices
}

// Select returns the operating point at index for the partition. An index
// past the end of the partition's list is not an error: a non-nil Skip is
// returned and the run must be skipped.
func (t *Table) Select(partition string, index int) (OperatingPoint, *Skip, error) {
	if index < 0 {
		return OperatingPoint{}, nil, fmt.Errorf("%w: %d", ErrInvalidIndex, index)
	}
	points, err := t.Lookup(partition)
	if err != nil {
		return OperatingPoint{}, nil, err
	}
	if index >= len(points) {
		return OperatingPoint{}, &Skip{Partition: partition, Index: index, Length: len(points)}, nil
	}
	return points[index], nil, nil
}

// PowerSteps returns the descending sequence high, high-interval, ... down
// to and including low when it falls on a step.
func PowerSteps(high, low, interval float64) []float64 {
	var steps []float64
	if interval <= 0 {
		return steps
	}
	for current := high; current >= low; current -= interval {
		steps = append(steps, current)
	}
	return steps
}

// DefaultFrequencies is the built-in frequency table in MHz.
func DefaultFrequencies() *Table {
	return NewTable(KindFrequency, map[string][]float64{
		"cclake": {
			2.20 * GHz, 2.10 * GHz, 2.00 * GHz, 1.90 * GHz, 1.80 * GHz, 1.70 * GHz, 1.60 * GHz,
			1.50 * GHz, 1.40 * GHz, 1.30 * GHz, 1.20 * GHz, 1.10 * GHz, 1000.0 * MHz,
		},
		"sapphire": {
			2.00 * GHz, 1.90 * GHz, 1.80 * GHz, 1.70 * GHz, 1.60 * GHz, 1.50 * GHz, 1.40 * GHz,
			1.30 * GHz, 1.20 * GHz, 1.10 * GHz, 1000.0 * MHz, 900.0 * MHz, 800.0 * MHz,
		},
		"icelake": {
			2.60 * GHz, 2.50 * GHz, 2.30 * GHz, 2.20 * GHz, 2.10 * GHz, 2.00 * GHz, 1.80 * GHz,
			1.70 * GHz, 1.60 * GHz, 1.40 * GHz, 1.30 * GHz, 1.20 * GHz, 1.10 * GHz,
			900.0 * MHz, 800.0 * MHz,
		},
		// small test system
		"clusterlaine": {2.0 * GHz, 1.0 * GHz},
	})
}

// DefaultPowercaps is the built-in power cap table in watts.
func DefaultPowercaps() *Table {
	return NewTable(KindPowercap, map[string][]float64{
		"icelake":      PowerSteps(650, 250, 50),
		"cclake":       PowerSteps(350, 150, 50),
		"sapphire":     PowerSteps(1200, 550, 50),
		"clusterlaine": {1, 2},
	})
}
