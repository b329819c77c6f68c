/*
Package target runs commands on the host that can answer scheduler
queries: the local machine, a login node reached over ssh, or recorded
output replayed from a file.
*/
package target

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Target represents a machine where commands can be run.
type Target interface {
	// RunCommand runs cmd and returns its output. A timeout of zero means
	// no timeout. A non-zero exit code is reported in exitCode and err.
	RunCommand(cmd *exec.Cmd, timeout int) (stdout string, stderr string, exitCode int, err error)

	// GetName returns the name of the target.
	GetName() string
}

type LocalTarget struct {
	host string
}

type RemoteTarget struct {
	name string
	host string
	port string
	user string
	key  string
}

// NewLocalTarget creates a new LocalTarget named after this host.
func NewLocalTarget() *LocalTarget {
	hostName, err := os.Hostname()
	if err != nil {
		hostName = "localhost"
	}
	return &LocalTarget{host: hostName}
}

// NewRemoteTarget creates a new RemoteTarget reached with ssh.
func NewRemoteTarget(name string, host string, port string, user string, key string) *RemoteTarget {
	if name == "" {
		name = host
	}
	return &RemoteTarget{name: name, host: host, port: port, user: user, key: key}
}

func (t *LocalTarget) RunCommand(cmd *exec.Cmd, timeout int) (stdout string, stderr string, exitCode int, err error) {
	return runLocalCommandWithTimeout(cmd, timeout)
}

func (t *LocalTarget) GetName() string {
	return t.host
}

func (t *RemoteTarget) RunCommand(cmd *exec.Cmd, timeout int) (stdout string, stderr string, exitCode int, err error) {
	sshCommand := t.prepareSSHCommand(cmd.Args)
	localCommand := exec.Command(sshCommand[0], sshCommand[1:]...) // #nosec G204
	return runLocalCommandWithTimeout(localCommand, timeout)
}

func (t *RemoteTarget) GetName() string {
	return t.name
}

func (t *RemoteTarget) prepareSSHFlags() (flags []string) {
	flags = []string{
		"-o",
		"UserKnownHostsFile=/dev/null",
		"-o",
		"StrictHostKeyChecking=no",
		"-o",
		"ConnectTimeout=10",
		"-o",
		"LogLevel=ERROR",
		"-o",
		"BatchMode=yes",
	}
	if t.key != "" {
		flags = append(flags, "-o", "PreferredAuthentications=publickey", "-o", "PasswordAuthentication=no", "-i", t.key)
	}
	if t.port != "" {
		flags = append(flags, "-p", t.port)
	}
	return
}

func (t *RemoteTarget) prepareSSHCommand(command []string) []string {
	var cmd []string
	cmd = append(cmd, "ssh")
	cmd = append(cmd, t.prepareSSHFlags()...)
	if t.user != "" {
		cmd = append(cmd, t.user+"@"+t.host)
	} else {
		cmd = append(cmd, t.host)
	}
	cmd = append(cmd, "--")
	cmd = append(cmd, command...)
	return cmd
}

func runLocalCommandWithTimeout(cmd *exec.Cmd, timeout int) (stdout string, stderr string, exitCode int, err error) {
	slog.Debug("running local command", slog.String("cmd", cmd.String()), slog.Int("timeout", timeout))
	if timeout > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeout)*time.Second)
		defer cancel()
		commandWithContext := exec.CommandContext(ctx, cmd.Path, cmd.Args[1:]...) // #nosec G204
		commandWithContext.Env = cmd.Env
		cmd = commandWithContext
	}
	var outbuf, errbuf strings.Builder
	cmd.Stdout = &outbuf
	cmd.Stderr = &errbuf
	err = cmd.Run()
	stdout = outbuf.String()
	stderr = errbuf.String()
	if err != nil {
		exitError := &exec.ExitError{}
		if errors.As(err, &exitError) {
			exitCode = exitError.ExitCode()
		}
	}
	return
}
