// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

// Package hosts keeps the host index ordering used when per-host counter
// output is attributed back to a node. The host file written before the
// launch and the scheduler's node list must agree on index i, so both go
// through Order.
package hosts

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
)

// DefaultFile is the host file name, relative to the job's working directory.
const DefaultFile = "hostfile.txt"

// List is an ordered set of hostnames; index i is the host index used by
// the launch command and in counter output.
type List []string

// Order normalises names (trimmed, empty removed, de-duplicated) and sorts
// them lexically. This is the only ordering function for host indices.
func Order(names []string) List {
	var out List
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		out = append(out, name)
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// Get returns the host at index, or "" when out of range.
func (l List) Get(index int) string {
	if index < 0 || index >= len(l) {
		return ""
	}
	return l[index]
}

// Index returns the index of a host, or -1.
func (l List) Index(name string) int {
	return slices.Index(l, name)
}

// SortPipe is the shell pipeline stage that applies Order to the output
// of a host discovery command. The C locale gives byte order, matching
// slices.Sort.
const SortPipe = "LC_ALL=C sort -u"

// DiscoveryCommand returns the pre-run shell command that writes one
// hostname per line to path, line k holding host index k-1.
func DiscoveryCommand(nodes int, path string) string {
	return fmt.Sprintf("srun --ntasks-per-node=1 -N%d -n%d hostname | %s > %s", nodes, nodes, SortPipe, path)
}

// LineCommand is the inline shell substitution that resolves host index
// at execution time from the host file.
func LineCommand(index int, path string) string {
	return fmt.Sprintf("$(sed -n '%dp' %s)", index+1, path)
}

// NodeListEnv names the scheduler variable holding the job's nodes.
const NodeListEnv = "SLURM_JOB_NODELIST"

// Local returns the node a single node job ran on: the scheduler's node
// list when it names exactly one host, otherwise this host's name.
func Local() (string, error) {
	if nodes, ok := os.LookupEnv(NodeListEnv); ok {
		nodes = strings.TrimSpace(nodes)
		if nodes != "" && !strings.ContainsAny(nodes, ",[") {
			return nodes, nil
		}
	}
	name, err := os.Hostname()
	if err != nil {
		return "", fmt.Errorf("failed to get hostname: %w", err)
	}
	return name, nil
}

// Parse reads a host file.
func Parse(r io.Reader) (List, error) {
	var names []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		names = append(names, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return Order(names), nil
}

// ReadFile reads the host file written by DiscoveryCommand.
func ReadFile(path string) (List, error) {
	f, err := os.Open(path) // #nosec G304
	if err != nil {
		return nil, fmt.Errorf("failed to open host file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}
