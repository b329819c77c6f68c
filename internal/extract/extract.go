// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

// Package extract parses numeric values out of perf stat and benchmark
// output.
package extract

import (
	"regexp"
	"strings"
)

// ValFromRegexSubmatch searches for a regex pattern in the given output string and returns the first captured group.
// Lines are trimmed before matching. If no match is found, an empty string is returned.
func ValFromRegexSubmatch(output string, regex string) string {
	re := regexp.MustCompile(regex)
	for line := range strings.SplitSeq(output, "\n") {
		match := re.FindStringSubmatch(strings.TrimSpace(line))
		if len(match) > 1 {
			return match[1]
		}
	}
	return ""
}

// ValsArrayFromRegexSubmatch returns the captured groups of every line
// matching the regex, in line order. Lines are matched untrimmed so that
// anchored launcher tags keep their meaning.
func ValsArrayFromRegexSubmatch(output string, regex string) (vals [][]string) {
	re := regexp.MustCompile(regex)
	for line := range strings.SplitSeq(output, "\n") {
		match := re.FindStringSubmatch(line)
		if len(match) > 1 {
			vals = append(vals, match[1:])
		}
	}
	return
}
