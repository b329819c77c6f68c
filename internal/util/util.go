/*
Package util includes file and argument helpers shared by the commands.
*/
package util

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"
	"io/fs"
	"os"
	"os/user"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// ExpandUser expands '~' to user's home directory, if found, otherwise returns original path
func ExpandUser(path string) string {
	usr, err := user.Current()
	if err != nil {
		return path
	}
	if path == "~" {
		return usr.HomeDir
	} else if strings.HasPrefix(path, "~"+string(os.PathSeparator)) {
		return filepath.Join(usr.HomeDir, path[2:])
	}
	return path
}

// AbsPath returns absolute path after expanding '~' to user's home dir.
// Batch scripts pass paths unexpanded, so use it in place of filepath.Abs().
func AbsPath(path string) (string, error) {
	return filepath.Abs(ExpandUser(path))
}

// FileExists reports whether a regular file exists at path. A path that
// exists but is not a regular file is an error.
func FileExists(path string) (exists bool, err error) {
	return statMode(path, fs.FileMode.IsRegular, "file")
}

// DirectoryExists reports whether a directory exists at path. A path that
// exists but is not a directory is an error.
func DirectoryExists(path string) (exists bool, err error) {
	return statMode(path, fs.FileMode.IsDir, "directory")
}

func statMode(path string, is func(fs.FileMode) bool, kind string) (bool, error) {
	fileInfo, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if !is(fileInfo.Mode()) {
		return false, fmt.Errorf("%s not a %s", path, kind)
	}
	return true, nil
}

// CreateDirectoryIfNotExists creates a directory at the specified path if it does not already exist.
func CreateDirectoryIfNotExists(dir string, perm os.FileMode) error {
	if _, err := os.Stat(dir); err == nil {
		return nil
	}
	if err := os.MkdirAll(dir, perm); err != nil {
		return fmt.Errorf("failed to create directory: '%s', error: '%s'", dir, err.Error())
	}
	return nil
}

var reIntRange = regexp.MustCompile(`^(\d+)(?:-(\d+))?$`)

// IntRangeToIntList expands a string representing a range of integers into a slice of integers.
// For example, "1-3" will be expanded to [1, 2, 3]. And, "5" will be expanded to [5].
func IntRangeToIntList(input string) ([]int, error) {
	matches := reIntRange.FindStringSubmatch(input)
	if len(matches) == 0 {
		return nil, fmt.Errorf("invalid input format: %s", input)
	}
	start, err := strconv.Atoi(matches[1])
	if err != nil {
		return nil, fmt.Errorf("invalid start value: %s", matches[1])
	}
	if matches[2] == "" {
		return []int{start}, nil
	}
	end, err := strconv.Atoi(matches[2])
	if err != nil {
		return nil, fmt.Errorf("invalid end value: %s", matches[2])
	}
	if start > end {
		return nil, fmt.Errorf("start value is greater than end value: %d > %d", start, end)
	}
	result := make([]int, end-start+1)
	for i := start; i <= end; i++ {
		result[i-start] = i
	}
	return result, nil
}

// SelectiveIntRangeToIntList expands a comma separated list of ranges,
// e.g. "0-2,7,11-12" to [0, 1, 2, 7, 11, 12].
func SelectiveIntRangeToIntList(input string) ([]int, error) {
	var result []int
	for r := range strings.SplitSeq(input, ",") {
		ints, err := IntRangeToIntList(r)
		if err != nil {
			return nil, err
		}
		result = append(result, ints...)
	}
	return result, nil
}
