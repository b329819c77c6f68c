package report

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"
	"strings"

	"energysweep/internal/energy"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// FormatValue renders a value with thousands separators, e.g. 1,234,567.89
func FormatValue(v float64) string {
	p := message.NewPrinter(language.English)
	return p.Sprintf("%0.2f", v)
}

func reportTitle(r Report) string {
	if r.Point == "" {
		return r.Name
	}
	return fmt.Sprintf("%s @ %s", r.Name, r.Point)
}

func createTextReport(reports []Report) (out []byte, err error) {
	var sb strings.Builder
	for _, r := range reports {
		title := reportTitle(r)
		sb.WriteString(title + "\n")
		sb.WriteString(strings.Repeat("=", len(title)) + "\n")
		if len(r.Variables) == 0 {
			sb.WriteString(NoDataFound + "\n\n")
			continue
		}
		// the name column is as wide as the longest name
		width := 0
		values := make([]string, len(r.Variables))
		valueWidth := 0
		for i, v := range r.Variables {
			width = max(width, len(v.Name))
			values[i] = FormatValue(v.Value)
			valueWidth = max(valueWidth, len(values[i]))
		}
		columnSpacing := 3
		for i, v := range r.Variables {
			line := fmt.Sprintf("%-*s%*s %s", width+columnSpacing, v.Name, valueWidth, values[i], v.Unit)
			if v.Outcome == energy.NoData {
				line += " (no data)"
			}
			sb.WriteString(strings.TrimRight(line, " ") + "\n")
		}
		sb.WriteString("\n")
	}
	out = []byte(sb.String())
	return
}
