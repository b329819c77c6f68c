// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

// Package telemetry fetches out-of-band node power readings from a
// Prometheus compatible backend.
package telemetry

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"text/template"
	"time"

	"energysweep/internal/window"

	"github.com/prometheus/client_golang/api"
	v1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultQueryTemplate selects the system board power draw of one node.
const DefaultQueryTemplate = `amperageProbeReading{amperageProbeLocationName="System Board Pwr Consumption", cluster="{{.Cluster}}", alias="{{.Host}}"}`

const (
	DefaultStep    = 10 * time.Second
	DefaultTimeout = 30 * time.Second
)

var (
	ErrNoAddress      = errors.New("no telemetry address configured")
	ErrUnexpectedType = errors.New("unexpected telemetry result type")
)

// DefaultClusters maps scheduler cluster names to their telemetry labels.
var DefaultClusters = map[string]string{
	"cclake":   "CSD3",
	"icelake":  "CSD3",
	"sapphire": "CSD3",
	"archer2":  "ARCHER2",
}

// ClusterName returns the telemetry label for a cluster, falling back to
// title case when the cluster is not in the map.
func ClusterName(name string, clusters map[string]string) string {
	if label, ok := clusters[name]; ok {
		return label
	}
	return cases.Title(language.English).String(name)
}

// Config selects the backend and the query.
type Config struct {
	Address       string
	QueryTemplate string
	Cluster       string
	Clusters      map[string]string
	Step          time.Duration
	Timeout       time.Duration
}

// Fetcher returns [time, power] rows for one host over a window.
type Fetcher interface {
	Fetch(ctx context.Context, host string, w window.Window) ([][]float64, error)
}

// Client queries the Prometheus HTTP API.
type Client struct {
	api     v1.API
	query   *template.Template
	cluster string
	step    time.Duration
	timeout time.Duration
}

// NewClient creates a client for cfg.Address.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Address == "" {
		return nil, ErrNoAddress
	}
	c, err := api.NewClient(api.Config{Address: cfg.Address})
	if err != nil {
		return nil, fmt.Errorf("failed to create telemetry client: %w", err)
	}
	text := cfg.QueryTemplate
	if text == "" {
		text = DefaultQueryTemplate
	}
	tmpl, err := template.New("query").Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("invalid telemetry query template: %w", err)
	}
	clusters := cfg.Clusters
	if clusters == nil {
		clusters = DefaultClusters
	}
	client := &Client{
		api:     v1.NewAPI(c),
		query:   tmpl,
		cluster: ClusterName(cfg.Cluster, clusters),
		step:    cfg.Step,
		timeout: cfg.Timeout,
	}
	if client.step <= 0 {
		client.step = DefaultStep
	}
	if client.timeout <= 0 {
		client.timeout = DefaultTimeout
	}
	return client, nil
}

// Query renders the query for a host.
func (c *Client) Query(host string) (string, error) {
	var buf bytes.Buffer
	err := c.query.Execute(&buf, map[string]string{"Cluster": c.cluster, "Host": host})
	if err != nil {
		return "", fmt.Errorf("failed to render telemetry query: %w", err)
	}
	return buf.String(), nil
}

// Fetch runs a range query over the window. Each row is [unix seconds,
// value], in time order. An empty result is not an error.
func (c *Client) Fetch(ctx context.Context, host string, w window.Window) ([][]float64, error) {
	start, err := window.Parse(w.Start)
	if err != nil {
		return nil, err
	}
	end, err := window.Parse(w.End)
	if err != nil {
		return nil, err
	}
	query, err := c.Query(host)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	slog.Debug("querying telemetry", slog.String("host", host), slog.String("query", query), slog.String("start", w.Start), slog.String("end", w.End))
	value, warnings, err := c.api.QueryRange(ctx, query, v1.Range{Start: start, End: end, Step: c.step})
	if err != nil {
		return nil, fmt.Errorf("telemetry query for %s failed: %w", host, err)
	}
	if len(warnings) > 0 {
		slog.Warn("telemetry query returned warnings", slog.String("host", host), slog.String("warnings", strings.Join(warnings, "; ")))
	}
	return Rows(value)
}

// Rows turns a range query result into [time, value] rows sorted by time.
// When the query matches several series, e.g. one per power supply, the
// values sharing a timestamp are summed. Range queries align every series
// to the same step, so this is the node total.
func Rows(value model.Value) ([][]float64, error) {
	matrix, ok := value.(model.Matrix)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedType, value.Type())
	}
	if len(matrix) > 1 {
		slog.Debug("summing telemetry series", slog.Int("series", len(matrix)))
	}
	totals := make(map[model.Time]float64)
	for _, stream := range matrix {
		for _, pair := range stream.Values {
			totals[pair.Timestamp] += float64(pair.Value)
		}
	}
	rows := make([][]float64, 0, len(totals))
	for _, ts := range slices.Sorted(maps.Keys(totals)) {
		seconds := float64(ts.UnixNano()) / float64(time.Second)
		rows = append(rows, []float64{seconds, totals[ts]})
	}
	return rows, nil
}
