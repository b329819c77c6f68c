package report

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const XlsxPrimarySheetName = "Report"

func cellName(col int, row int) (name string) {
	columnName, err := excelize.ColumnNumberToName(col)
	if err != nil {
		return
	}
	name, err = excelize.JoinCellName(columnName, row)
	if err != nil {
		return
	}
	return
}

func renderXlsxReport(r Report, f *excelize.File, sheetName string, row *int) {
	col := 1
	boldStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
		},
	})
	// print the report title
	_ = f.SetCellValue(sheetName, cellName(col, *row), reportTitle(r))
	_ = f.SetCellStyle(sheetName, cellName(col, *row), cellName(col, *row), boldStyle)
	*row++
	if len(r.Variables) == 0 {
		_ = f.SetCellValue(sheetName, cellName(col, *row), NoDataFound)
		*row += 2
		return
	}
	// column headings
	col = 2
	for _, heading := range []string{"Variable", "Value", "Unit", "Outcome"} {
		_ = f.SetCellValue(sheetName, cellName(col, *row), heading)
		_ = f.SetCellStyle(sheetName, cellName(col, *row), cellName(col, *row), boldStyle)
		col++
	}
	*row++
	for _, v := range r.Variables {
		col = 2
		_ = f.SetCellValue(sheetName, cellName(col, *row), v.Name)
		_ = f.SetCellValue(sheetName, cellName(col+1, *row), v.Value)
		_ = f.SetCellValue(sheetName, cellName(col+2, *row), v.Unit)
		_ = f.SetCellValue(sheetName, cellName(col+3, *row), string(v.Outcome))
		*row++
	}
	*row++
}

func createXlsxReport(reports []Report) (out []byte, err error) {
	f := excelize.NewFile()
	defer f.Close()
	sheetName := XlsxPrimarySheetName
	_ = f.SetSheetName("Sheet1", sheetName)
	_ = f.SetColWidth(sheetName, "A", "A", 25)
	_ = f.SetColWidth(sheetName, "B", "B", 40)
	_ = f.SetColWidth(sheetName, "C", "E", 15)
	row := 1
	for _, r := range reports {
		renderXlsxReport(r, f, sheetName, &row)
	}
	var buf bytes.Buffer
	_, err = f.WriteTo(&buf)
	if err != nil {
		err = fmt.Errorf("failed to write xlsx report to buffer: %v", err)
		return
	}
	out = buf.Bytes()
	return
}
