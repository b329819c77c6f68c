package extract

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"bytes"
	"testing"

	"energysweep/internal/energy"

	"github.com/stretchr/testify/assert"
)

func TestPrintSeries(t *testing.T) {
	series := energy.Series{Time: []float64{10.5, 20.5}, Value: []float64{100, 101.25}}
	var buf bytes.Buffer
	printSeries(&buf, series, false)
	assert.Equal(t, "10.5\t100\n20.5\t101.25\ntotal\t201.25\tmeasured\n", buf.String())

	buf.Reset()
	printSeries(&buf, series, true)
	assert.Equal(t, "total\t201.25\tmeasured\n", buf.String())

	buf.Reset()
	printSeries(&buf, energy.Series{}, false)
	assert.Equal(t, "total\t0\tno-data\n", buf.String())
}
