// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

// Package events names the hardware counter events requested from perf and
// maps partitions to the event sets their processors support.
package events

import (
	"errors"
	"slices"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

// Power events exposed by the RAPL perf PMU.
const (
	EnergyCores = "power/energy-cores/"
	EnergyPkg   = "power/energy-pkg/"
	EnergyRAM   = "power/energy-ram/"
)

var ErrNoEvents = errors.New("no counter events requested")

// Key returns the event name as printed in the last column of perf stat
// output. perf prints events without surrounding quotes.
func Key(event string) string {
	return strings.Trim(strings.TrimSpace(event), `"'`)
}

// Dedup returns the events in first-seen order with semantic duplicates
// removed. Events are compared by Key.
func Dedup(events []string) []string {
	seen := mapset.NewThreadUnsafeSet[string]()
	var out []string
	for _, event := range events {
		key := Key(event)
		if key == "" || !seen.Add(key) {
			continue
		}
		out = append(out, key)
	}
	return out
}

// Class groups partitions whose processors expose the same counters.
type Class string

const (
	ClassDefault     Class = "default"
	ClassSeparateRAM Class = "separate-ram" // package and DRAM domains only
	ClassFullRAPL    Class = "full-rapl"    // core, package and DRAM domains
)

// Registry is a tagged lookup from partition to class to counter set.
type Registry struct {
	classes    map[Class][]string
	partitions map[string]Class
}

// NewRegistry builds a registry. The default class must be present.
func NewRegistry(classes map[Class][]string, partitions map[string]Class) *Registry {
	r := &Registry{classes: make(map[Class][]string), partitions: make(map[string]Class)}
	for class, evs := range classes {
		r.classes[class] = Dedup(evs)
	}
	for partition, class := range partitions {
		r.partitions[partition] = class
	}
	return r
}

// DefaultClasses returns the built-in counter sets.
func DefaultClasses() map[Class][]string {
	return map[Class][]string{
		ClassDefault:     {EnergyCores, EnergyPkg},
		ClassSeparateRAM: {EnergyRAM, EnergyPkg},
		ClassFullRAPL:    {EnergyCores, EnergyRAM, EnergyPkg},
	}
}

// DefaultPartitions returns the class of each partition in the built-in
// operating point tables.
func DefaultPartitions() map[string]Class {
	return map[string]Class{
		"sapphire": ClassSeparateRAM,
		"icelake":  ClassSeparateRAM,
		"cclake":   ClassFullRAPL,
	}
}

func DefaultRegistry() *Registry {
	return NewRegistry(DefaultClasses(), DefaultPartitions())
}

// Register assigns a partition to a class.
func (r *Registry) Register(partition string, class Class) {
	r.partitions[partition] = class
}

// ClassOf returns the class of a partition, falling back to the default class.
func (r *Registry) ClassOf(partition string) Class {
	if class, ok := r.partitions[partition]; ok {
		return class
	}
	return ClassDefault
}

// For returns the counter events to request on a partition.
func (r *Registry) For(partition string) []string {
	return slices.Clone(r.classes[r.ClassOf(partition)])
}
