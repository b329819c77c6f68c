// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package extract

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseNumber parses a decimal number printed under any common locale:
// "1234.5", "1,234.5", "1.234,5", "1234,5", "1 234,5" and "1'234.5" all
// give 1234.5. A lone comma is the decimal mark; a separator kind that
// repeats, or that precedes the other kind, is grouping.
func ParseNumber(s string) (float64, error) {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\'', '_', '\u00a0', '\u202f':
			return -1
		}
		return r
	}, strings.TrimSpace(s))
	if clean == "" {
		return 0, fmt.Errorf("empty number")
	}
	lastComma := strings.LastIndex(clean, ",")
	lastDot := strings.LastIndex(clean, ".")
	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			clean = strings.ReplaceAll(clean, ".", "")
			clean = strings.Replace(clean, ",", ".", 1)
		} else {
			clean = strings.ReplaceAll(clean, ",", "")
		}
	case strings.Count(clean, ",") > 1:
		clean = strings.ReplaceAll(clean, ",", "")
	case lastComma >= 0:
		clean = strings.Replace(clean, ",", ".", 1)
	case strings.Count(clean, ".") > 1:
		clean = strings.ReplaceAll(clean, ".", "")
	}
	v, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse number %q: %w", s, err)
	}
	return v, nil
}
