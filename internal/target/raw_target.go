package target

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
)

// RawTarget replays recorded command output instead of running commands.
// It is used to post-process a run away from the cluster and in tests.
// Output is looked up by the base name of the command's executable.
type RawTarget struct {
	name    string
	outputs map[string]string
}

// NewRawTarget creates a RawTarget with recorded stdout per command name.
func NewRawTarget(name string, outputs map[string]string) *RawTarget {
	return &RawTarget{name: name, outputs: outputs}
}

// NewRawTargetFromFile records the content of path as the output of
// command.
func NewRawTargetFromFile(command string, path string) (*RawTarget, error) {
	content, err := os.ReadFile(path) // #nosec G304
	if err != nil {
		return nil, fmt.Errorf("failed to read recorded %s output: %w", command, err)
	}
	return NewRawTarget(filepath.Base(path), map[string]string{command: string(content)}), nil
}

func (t *RawTarget) RunCommand(cmd *exec.Cmd, timeout int) (stdout string, stderr string, exitCode int, err error) {
	name := filepath.Base(cmd.Args[0])
	out, ok := t.outputs[name]
	if !ok {
		slog.Debug("no recorded output", slog.String("command", name))
		return "", fmt.Sprintf("%s: command not found", name), 127, fmt.Errorf("no recorded output for %s", name)
	}
	return out, "", 0, nil
}

// GetName returns the name of the RawTarget.
func (t *RawTarget) GetName() string {
	return t.name
}
