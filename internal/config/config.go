// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

// Package config loads the optional YAML configuration and applies
// environment overrides.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"energysweep/internal/events"
	"energysweep/internal/launch"
	"energysweep/internal/sweep"
	"energysweep/internal/target"
	"energysweep/internal/telemetry"
	"energysweep/internal/window"

	"gopkg.in/yaml.v2"
)

const (
	EnvPrometheusAddress = "ENERGYSWEEP_PROMETHEUS_ADDRESS"
	EnvNodeSetupDebug    = "ENERGYSWEEP_NODE_SETUP_DEBUG"
)

// Config is the file format. Every section is optional.
type Config struct {
	Frequencies map[string][]float64 `yaml:"frequencies"` // MHz per partition
	Powercaps   map[string][]float64 `yaml:"powercaps"`   // W per partition
	Events      EventsConfig         `yaml:"events"`
	Perf        PerfConfig           `yaml:"perf"`
	Window      WindowConfig         `yaml:"window"`
	Telemetry   TelemetryConfig      `yaml:"telemetry"`
	Setup       SetupConfig          `yaml:"setup"`
	Scheduler   SchedulerConfig      `yaml:"scheduler"`
	Derived     []DerivedVariable    `yaml:"derived"`
}

type EventsConfig struct {
	Classes    map[string][]string `yaml:"classes"`    // class name -> counter events
	Partitions map[string]string   `yaml:"partitions"` // partition -> class name
}

type PerfConfig struct {
	Path       string   `yaml:"path"`
	IntervalMs int      `yaml:"interval_ms"`
	Scheme     string   `yaml:"scheme"` // intel or openmpi
	HostFile   string   `yaml:"hostfile"`
	RankFlags  []string `yaml:"rank_flags"`
	Sockets    int      `yaml:"sockets"`
}

// DefaultSockets is the socket count of the nodes in the built-in tables.
const DefaultSockets = 2

type WindowConfig struct {
	MarginSeconds   *int `yaml:"margin_seconds"`
	CooldownSeconds *int `yaml:"cooldown_seconds"`
}

type TelemetryConfig struct {
	Address        string            `yaml:"address"`
	Query          string            `yaml:"query"`
	Clusters       map[string]string `yaml:"clusters"`
	StepSeconds    int               `yaml:"step_seconds"`
	TimeoutSeconds int               `yaml:"timeout_seconds"`
}

type SetupConfig struct {
	PowercapTemplate string `yaml:"powercap_template"`
	Governor         string `yaml:"governor"`
	DryRun           bool   `yaml:"dry_run"`
}

// SchedulerConfig optionally names a login node to run accounting queries
// on. Without a host they run locally. Replay answers them from recorded
// sacct output instead, for collecting a job again after it aged out of
// the accounting database.
type SchedulerConfig struct {
	Name   string `yaml:"name"`
	Host   string `yaml:"host"`
	Port   string `yaml:"port"`
	User   string `yaml:"user"`
	Key    string `yaml:"key"`
	Replay string `yaml:"replay"`
}

// DerivedVariable is a report value computed from other variables.
type DerivedVariable struct {
	Name       string `yaml:"name"`
	Expression string `yaml:"expression"`
	Unit       string `yaml:"unit"`
}

// Load reads a config file. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.UnmarshalStrict(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}
	cfg.applyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	if addr, ok := lookup(EnvPrometheusAddress); ok && addr != "" {
		c.Telemetry.Address = addr
	}
	if v, ok := lookup(EnvNodeSetupDebug); ok && v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			// any other non-empty value enables it
			debug = true
		}
		c.Setup.DryRun = debug
	}
}

// Validate checks values that would otherwise only fail at run time.
func (c *Config) Validate() error {
	if _, err := launch.SchemeByName(c.Perf.Scheme); err != nil {
		return err
	}
	if c.Perf.Sockets < 0 {
		return fmt.Errorf("socket count must not be negative: %d", c.Perf.Sockets)
	}
	if c.Perf.IntervalMs < 0 {
		return fmt.Errorf("perf interval must not be negative: %d", c.Perf.IntervalMs)
	}
	for partition, class := range c.Events.Partitions {
		if _, ok := c.Events.Classes[class]; !ok && !isBuiltinClass(class) {
			return fmt.Errorf("partition %s refers to unknown event class %s", partition, class)
		}
	}
	if err := validateTable(c.Frequencies); err != nil {
		return err
	}
	if err := validateTable(c.Powercaps); err != nil {
		return err
	}
	for _, d := range c.Derived {
		if d.Name == "" || d.Expression == "" {
			return fmt.Errorf("derived variable needs a name and an expression")
		}
	}
	return nil
}

func validateTable(points map[string][]float64) error {
	for partition, values := range points {
		for _, v := range values {
			if v <= 0 {
				return fmt.Errorf("operating point %v for partition %s must be positive", v, partition)
			}
		}
	}
	return nil
}

func isBuiltinClass(class string) bool {
	switch events.Class(class) {
	case events.ClassDefault, events.ClassSeparateRAM, events.ClassFullRAPL:
		return true
	}
	return false
}

// Table returns the operating point table of a kind, the built-in one
// unless the config overrides it.
func (c *Config) Table(kind sweep.Kind) *sweep.Table {
	switch kind {
	case sweep.KindPowercap:
		if len(c.Powercaps) > 0 {
			return sweep.NewTable(kind, c.Powercaps)
		}
		return sweep.DefaultPowercaps()
	default:
		if len(c.Frequencies) > 0 {
			return sweep.NewTable(sweep.KindFrequency, c.Frequencies)
		}
		return sweep.DefaultFrequencies()
	}
}

// Registry returns the built-in event registry extended by the config.
func (c *Config) Registry() *events.Registry {
	classes := events.DefaultClasses()
	for name, evs := range c.Events.Classes {
		classes[events.Class(name)] = evs
	}
	partitions := events.DefaultPartitions()
	for partition, class := range c.Events.Partitions {
		partitions[partition] = events.Class(class)
	}
	return events.NewRegistry(classes, partitions)
}

// Scheme returns the configured MPI output ordering scheme.
func (c *Config) Scheme() launch.OrderingScheme {
	scheme, err := launch.SchemeByName(c.Perf.Scheme)
	if err != nil {
		slog.Warn("unknown ordering scheme, using default", slog.String("scheme", c.Perf.Scheme))
		return launch.IntelMPI{}
	}
	return scheme
}

// PerfStat returns the perf invocation for a set of events.
func (c *Config) PerfStat(evs []string) launch.PerfStat {
	return launch.PerfStat{Path: c.Perf.Path, IntervalMs: c.Perf.IntervalMs, Events: evs}
}

// Sockets returns the number of sockets per node.
func (c *Config) Sockets() int {
	if c.Perf.Sockets == 0 {
		return DefaultSockets
	}
	return c.Perf.Sockets
}

// Estimator returns a window estimator with the configured margin and
// cooldown.
func (c *Config) Estimator() *window.Estimator {
	e := &window.Estimator{Margin: window.DefaultMargin, Cooldown: window.DefaultCooldown}
	if c.Window.MarginSeconds != nil {
		e.Margin = time.Duration(*c.Window.MarginSeconds) * time.Second
	}
	if c.Window.CooldownSeconds != nil {
		e.Cooldown = time.Duration(*c.Window.CooldownSeconds) * time.Second
	}
	return e
}

// TelemetryClient returns the client settings for a cluster.
func (c *Config) TelemetryClient(cluster string) telemetry.Config {
	clusters := telemetry.DefaultClusters
	if len(c.Telemetry.Clusters) > 0 {
		clusters = c.Telemetry.Clusters
	}
	return telemetry.Config{
		Address:       c.Telemetry.Address,
		QueryTemplate: c.Telemetry.Query,
		Cluster:       cluster,
		Clusters:      clusters,
		Step:          time.Duration(c.Telemetry.StepSeconds) * time.Second,
		Timeout:       time.Duration(c.Telemetry.TimeoutSeconds) * time.Second,
	}
}

// SchedulerTarget returns where accounting queries run.
func (c *Config) SchedulerTarget() (target.Target, error) {
	s := c.Scheduler
	if s.Replay != "" {
		return target.NewRawTargetFromFile("sacct", s.Replay)
	}
	if s.Host == "" {
		return target.NewLocalTarget(), nil
	}
	name := s.Name
	if name == "" {
		name = s.Host
	}
	return target.NewRemoteTarget(name, s.Host, s.Port, s.User, s.Key), nil
}

// Setup returns the node setup command builder for a job size.
func (c *Config) Setup(nodes int) sweep.SetupCommand {
	return sweep.SetupCommand{
		Nodes:             nodes,
		DryRun:            c.Setup.DryRun,
		PowercapTemplate:  c.Setup.PowercapTemplate,
		FrequencyGovernor: c.Setup.Governor,
	}
}
