// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package launch

import "fmt"

// OrderingScheme describes how an MPI implementation targets a host and
// tags each output line with the rank that produced it. Host clauses are
// emitted first, so rank i is host index i.
type OrderingScheme interface {
	Name() string
	// OrderingFlags are appended to the launcher's global options.
	OrderingFlags() []string
	// HostFlag pins a clause to one host.
	HostFlag() string
	// LinePrefix is a regular expression matching the tag the launcher
	// puts in front of lines printed by rank hostIndex.
	LinePrefix(hostIndex int) string
}

// IntelMPI is the Hydra launcher of Intel MPI / MPICH. -prepend-rank
// prefixes lines with "[rank] ".
type IntelMPI struct{}

func (IntelMPI) Name() string { return "intel" }

func (IntelMPI) OrderingFlags() []string { return []string{"-ordered-output", "-prepend-rank"} }

func (IntelMPI) HostFlag() string { return "-host" }

func (IntelMPI) LinePrefix(hostIndex int) string {
	return fmt.Sprintf(`^\s*\[%d\]\s+`, hostIndex)
}

// OpenMPI tags lines as "[jobid,rank]<stdout>:" with --tag-output.
type OpenMPI struct{}

func (OpenMPI) Name() string { return "openmpi" }

func (OpenMPI) OrderingFlags() []string { return []string{"--tag-output"} }

func (OpenMPI) HostFlag() string { return "--host" }

func (OpenMPI) LinePrefix(hostIndex int) string {
	return fmt.Sprintf(`^\s*\[\d+,%d\]<std(?:out|err)>:\s*`, hostIndex)
}

// Schemes lists the supported ordering schemes by name.
var Schemes = map[string]OrderingScheme{
	IntelMPI{}.Name(): IntelMPI{},
	OpenMPI{}.Name():  OpenMPI{},
}

// SchemeByName returns a registered scheme.
func SchemeByName(name string) (OrderingScheme, error) {
	if name == "" {
		return IntelMPI{}, nil
	}
	scheme, ok := Schemes[name]
	if !ok {
		return nil, fmt.Errorf("unknown MPI ordering scheme: %s", name)
	}
	return scheme, nil
}
