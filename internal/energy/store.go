// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package energy

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// Source is where a series was measured.
type Source string

const (
	SourceCounter   Source = "perf"
	SourceTelemetry Source = "telemetry"
)

// Key identifies a series. Host is empty for single node runs; Socket is
// -1 when the source has no socket dimension.
type Key struct {
	Source Source
	Host   string
	Socket int
	Name   string
}

// CounterKey builds the key of a perf series.
func CounterKey(host string, socket int, event string) Key {
	return Key{Source: SourceCounter, Host: host, Socket: socket, Name: event}
}

// TelemetryKey builds the key of a telemetry power series.
func TelemetryKey(host string) Key {
	return Key{Source: SourceTelemetry, Host: host, Socket: -1}
}

// String renders the stable identifier, e.g. "perf/node-1/0/power/energy-pkg/"
// or "telemetry/node-1".
func (k Key) String() string {
	parts := []string{string(k.Source)}
	if k.Host != "" {
		parts = append(parts, k.Host)
	}
	if k.Socket >= 0 {
		parts = append(parts, strconv.Itoa(k.Socket))
	}
	if k.Name != "" {
		parts = append(parts, k.Name)
	}
	return strings.Join(parts, "/")
}

// Entry is a stored series with its reduction.
type Entry struct {
	Key    Key
	Series Series
	Result Result
}

// Store holds the series and results of one run. Entries are write-once.
type Store struct {
	entries map[string]Entry
	order   []string
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{entries: make(map[string]Entry)}
}

func (st *Store) add(key Key, s Series, r Result) (Result, error) {
	id := key.String()
	if _, ok := st.entries[id]; ok {
		return Result{}, fmt.Errorf("series %s already recorded", id)
	}
	st.entries[id] = Entry{Key: key, Series: s, Result: r}
	st.order = append(st.order, id)
	return r, nil
}

// AddSum records a counter series reduced by summation.
func (st *Store) AddSum(key Key, s Series) (Result, error) {
	return st.add(key, s, Sum(s))
}

// AddTrapezoid records a power series reduced by trapezoidal integration.
func (st *Store) AddTrapezoid(key Key, s Series) (Result, error) {
	return st.add(key, s, Trapezoid(s))
}

// Get returns a recorded entry.
func (st *Store) Get(key Key) (Entry, bool) {
	e, ok := st.entries[key.String()]
	return e, ok
}

// Entries returns all entries in recording order.
func (st *Store) Entries() []Entry {
	out := make([]Entry, 0, len(st.order))
	for _, id := range st.order {
		out = append(out, st.entries[id])
	}
	return out
}

// Results maps identifiers to joules.
func (st *Store) Results() map[string]float64 {
	out := make(map[string]float64, len(st.entries))
	for id, e := range st.entries {
		out[id] = e.Result.Joules
	}
	return out
}

// Keys returns the identifiers in sorted order.
func (st *Store) Keys() []string {
	return slices.Sorted(maps.Keys(st.entries))
}
