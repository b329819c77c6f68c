// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

// Package launch rewrites parallel job launch commands. A Transformer takes
// a fully formed command and returns a new one; the run driver composes
// transformers explicitly around the scheduler's launcher.
package launch

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

var (
	ErrMissingRankFlag   = errors.New("rank count flag not found in launch command")
	ErrInvalidRankCount  = errors.New("invalid rank count in launch command")
	ErrInvalidNodeCount  = errors.New("node count must be greater than zero")
	ErrInsufficientRanks = errors.New("rank count is smaller than node count")
)

// Command is an ordered token sequence of an executable invocation.
type Command []string

// String renders the command for a job script. Tokens are joined verbatim
// so inline shell substitutions survive.
func (c Command) String() string {
	return strings.Join(c, " ")
}

// Clone returns a copy of the command.
func (c Command) Clone() Command {
	return slices.Clone(c)
}

// Transformer rewrites a launch command.
type Transformer interface {
	Transform(Command) (Command, error)
}

// TransformerFunc adapts a function to the Transformer interface.
type TransformerFunc func(Command) (Command, error)

func (f TransformerFunc) Transform(c Command) (Command, error) {
	return f(c)
}

// Compose applies transformers in order. The input command is never
// modified.
func Compose(base Command, transformers ...Transformer) (Command, error) {
	cmd := base.Clone()
	for _, t := range transformers {
		var err error
		if cmd, err = t.Transform(cmd); err != nil {
			return nil, err
		}
	}
	return cmd, nil
}

// DefaultRankFlags are the rank count flags understood by mpirun, mpiexec
// and srun.
var DefaultRankFlags = []string{"-n", "-np", "--np", "--ntasks"}

// RankFlag locates a rank count flag and its argument in a command.
type RankFlag struct {
	Flag  string // flag as written, without any "=value" suffix
	Ranks int
	Start int // index of the flag token
	End   int // index one past the last token belonging to the flag
}

// FindRankFlag returns the first occurrence of one of flags in cmd. Both
// "-n 8" and "-n=8" spellings are recognised.
func FindRankFlag(cmd Command, flags []string) (RankFlag, error) {
	for i, token := range cmd {
		for _, flag := range flags {
			var value string
			var end int
			switch {
			case token == flag:
				if i+1 >= len(cmd) {
					return RankFlag{}, fmt.Errorf("%w: %s has no value", ErrInvalidRankCount, flag)
				}
				value, end = cmd[i+1], i+2
			case strings.HasPrefix(token, flag+"="):
				value, end = strings.TrimPrefix(token, flag+"="), i+1
			default:
				continue
			}
			ranks, err := strconv.Atoi(value)
			if err != nil || ranks <= 0 {
				return RankFlag{}, fmt.Errorf("%w: %s %q", ErrInvalidRankCount, flag, value)
			}
			return RankFlag{Flag: flag, Ranks: ranks, Start: i, End: end}, nil
		}
	}
	return RankFlag{}, fmt.Errorf("%w (looked for %s)", ErrMissingRankFlag, strings.Join(flags, ", "))
}

// Remove returns cmd without the flag's tokens.
func (f RankFlag) Remove(cmd Command) Command {
	out := make(Command, 0, len(cmd)-(f.End-f.Start))
	out = append(out, cmd[:f.Start]...)
	return append(out, cmd[f.End:]...)
}

// CountRanks sums every rank count flag occurrence in cmd. It is used to
// check that an instrumented command requests as many ranks as the
// original.
func CountRanks(cmd Command, flags []string) int {
	total := 0
	for len(cmd) > 0 {
		flag, err := FindRankFlag(cmd, flags)
		if err != nil {
			break
		}
		total += flag.Ranks
		cmd = cmd[flag.End:]
	}
	return total
}
