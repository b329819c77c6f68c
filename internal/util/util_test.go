package util

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntRangeToIntList(t *testing.T) {
	tests := []struct {
		input    string
		expected []int
		err      bool
	}{
		{"0-4", []int{0, 1, 2, 3, 4}, false},
		{"12-14", []int{12, 13, 14}, false},
		{"5-5", []int{5}, false},
		{"3", []int{3}, false},
		{"", nil, true},
		{"5-3", nil, true},
		{"abc-def", nil, true},
		{"1-", nil, true},
		{"-5", nil, true},
		{"1-5-10", nil, true},
	}
	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			result, err := IntRangeToIntList(test.input)
			if test.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.expected, result)
		})
	}
}

func TestSelectiveIntRangeToIntList(t *testing.T) {
	tests := []struct {
		input    string
		expected []int
		err      bool
	}{
		{"0-2,5,7-8", []int{0, 1, 2, 5, 7, 8}, false},
		{"14", []int{14}, false},
		{"", nil, true},
		{"1-3,,7", nil, true},
		{"1-3,5-2", nil, true},
		{"1-3,x", nil, true},
	}
	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			result, err := SelectiveIntRangeToIntList(test.input)
			if test.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.expected, result)
		})
	}
}

func TestFileAndDirectoryExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "perf.out")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0600))

	exists, err := FileExists(file)
	require.NoError(t, err)
	assert.True(t, exists)
	_, err = FileExists(dir)
	assert.Error(t, err)
	exists, err = FileExists(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = DirectoryExists(dir)
	require.NoError(t, err)
	assert.True(t, exists)
	_, err = DirectoryExists(file)
	assert.Error(t, err)
}

func TestCreateDirectoryIfNotExists(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, CreateDirectoryIfNotExists(dir, 0755))
	require.NoError(t, CreateDirectoryIfNotExists(dir, 0755))
	exists, err := DirectoryExists(dir)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestAbsPath(t *testing.T) {
	p, err := AbsPath("relative/file")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(p))
	assert.Equal(t, "/no/tilde", ExpandUser("/no/tilde"))
}
