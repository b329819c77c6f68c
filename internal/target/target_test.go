package target

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	localTarget := NewLocalTarget()
	require.NotNil(t, localTarget)
	assert.NotEmpty(t, localTarget.GetName())

	remoteTarget := NewRemoteTarget("", "login-q-1", "22", "user", "key")
	require.NotNil(t, remoteTarget)
	assert.Equal(t, "login-q-1", remoteTarget.GetName())
}

func TestPrepareSSHCommand(t *testing.T) {
	remote := NewRemoteTarget("login", "login-q-1", "2222", "fb609", "/home/fb609/.ssh/id_rsa")
	cmd := remote.prepareSSHCommand([]string{"sacct", "--jobs=42"})
	assert.Equal(t, "ssh", cmd[0])
	assert.Contains(t, cmd, "fb609@login-q-1")
	assert.Equal(t, []string{"--", "sacct", "--jobs=42"}, cmd[len(cmd)-3:])
	assert.Contains(t, cmd, "/home/fb609/.ssh/id_rsa")
	assert.Contains(t, cmd, "2222")

	anonymous := NewRemoteTarget("", "login-q-1", "", "", "")
	cmd = anonymous.prepareSSHCommand([]string{"true"})
	assert.Contains(t, cmd, "login-q-1")
	assert.NotContains(t, cmd, "-i")
	assert.NotContains(t, cmd, "-p")
}

func TestLocalRunCommand(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	local := NewLocalTarget()
	stdout, _, exitCode, err := local.RunCommand(exec.Command("sh", "-c", "echo hello"), 5)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", stdout)
	assert.Equal(t, 0, exitCode)

	_, stderr, exitCode, err := local.RunCommand(exec.Command("sh", "-c", "echo oops >&2; exit 3"), 0)
	assert.Error(t, err)
	assert.Equal(t, 3, exitCode)
	assert.Equal(t, "oops\n", stderr)
}

func TestRawTarget(t *testing.T) {
	raw := NewRawTarget("recorded", map[string]string{"sacct": "42|start|end|00:00:01\n"})
	stdout, _, exitCode, err := raw.RunCommand(exec.Command("/usr/bin/sacct", "-P"), 0)
	require.NoError(t, err)
	assert.Equal(t, 0, exitCode)
	assert.Equal(t, "42|start|end|00:00:01\n", stdout)

	_, _, exitCode, err = raw.RunCommand(exec.Command("squeue"), 0)
	assert.Error(t, err)
	assert.Equal(t, 127, exitCode)

	path := filepath.Join(t.TempDir(), "sacct.txt")
	require.NoError(t, os.WriteFile(path, []byte("recorded"), 0644))
	fromFile, err := NewRawTargetFromFile("sacct", path)
	require.NoError(t, err)
	stdout, _, _, err = fromFile.RunCommand(exec.Command("sacct"), 0)
	require.NoError(t, err)
	assert.Equal(t, "recorded", stdout)
	assert.Equal(t, "sacct.txt", fromFile.GetName())
}
