// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package extract

import (
	"fmt"
	"log/slog"
	"regexp"

	"energysweep/internal/energy"
)

// perf stat -a --per-socket -I prints one line per socket and event:
//
//	10.001234567 S0        38             123.45 Joules power/energy-pkg/
//
// time since start, socket, number of CPUs aggregated, value, unit, event.
const perfSocketLine = `(\S+)\s+S%d\s+\d+\s+(\S+)\s+\w+\s+%s(?:\s|$)`

// PerfLineRegex returns the expression matching a socket/event line. When
// hostPrefix is not empty it must match the start of the line.
func PerfLineRegex(socket int, key string, hostPrefix string) string {
	regex := fmt.Sprintf(perfSocketLine, socket, regexp.QuoteMeta(key))
	if hostPrefix != "" {
		regex = hostPrefix + regex
	}
	return regex
}

// PerfSeries extracts the elapsed time and value of every perf stat line
// for socket and event key. hostPrefix selects lines tagged with a host
// index by the MPI launcher; pass "" for single node output. Output with
// no matching lines yields an empty series, lines whose numbers do not
// parse are skipped.
func PerfSeries(output string, socket int, key string, hostPrefix string) energy.Series {
	var series energy.Series
	if socket < 0 || key == "" {
		return series
	}
	for _, match := range ValsArrayFromRegexSubmatch(output, PerfLineRegex(socket, key, hostPrefix)) {
		elapsed, err := ParseNumber(match[0])
		if err != nil {
			slog.Debug("skipping perf line with unparsable time", slog.String("time", match[0]), slog.String("error", err.Error()))
			continue
		}
		value, err := ParseNumber(match[1])
		if err != nil {
			slog.Debug("skipping perf line with unparsable value", slog.String("value", match[1]), slog.String("error", err.Error()))
			continue
		}
		series.Append(elapsed, value)
	}
	return series
}

// BenchmarkTime returns the seconds reported as "<key>: <value>" in a
// benchmark's timing output, e.g. "Core time: 12.5".
func BenchmarkTime(output string, key string) (float64, error) {
	val := ValFromRegexSubmatch(output, regexp.QuoteMeta(key)+`:\s+(\S+)`)
	if val == "" {
		return 0, fmt.Errorf("%q not found in benchmark output", key)
	}
	return ParseNumber(val)
}
