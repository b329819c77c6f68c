package report

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import "encoding/json"

func createJsonReport(reports []Report) (out []byte, err error) {
	type outVariable struct {
		Name    string  `json:"name"`
		Value   float64 `json:"value"`
		Unit    string  `json:"unit,omitempty"`
		Outcome string  `json:"outcome,omitempty"`
	}
	type outReport struct {
		Name      string        `json:"name"`
		Point     string        `json:"point,omitempty"`
		Variables []outVariable `json:"variables"`
	}
	oReports := make([]outReport, 0, len(reports))
	for _, r := range reports {
		oReport := outReport{Name: r.Name, Point: r.Point, Variables: []outVariable{}}
		for _, v := range r.Variables {
			oReport.Variables = append(oReport.Variables, outVariable{Name: v.Name, Value: v.Value, Unit: v.Unit, Outcome: string(v.Outcome)})
		}
		oReports = append(oReports, oReport)
	}
	return json.MarshalIndent(oReports, "", " ")
}
