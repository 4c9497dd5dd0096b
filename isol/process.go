// Match Execution via Processes
//
// Copyright (c) 2022, 2024  Philip Kaludercic
//
// This file is part of go-league.
//
// go-league is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License,
// version 3, as published by the Free Software Foundation.
//
// go-league is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the GNU
// Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public
// License, version 3, along with go-league. If not, see
// <http://www.gnu.org/licenses/>

package isol

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"go-league"
)

// Process plays a match by running a command on the host.  The
// command learns about the match from its environment and is
// expected to write a result to $LEAGUE_RESULT before exiting.
type Process struct {
	Command []string
	// Directory for stdout and stderr of each match
	Logs string
}

func (p *Process) String() string {
	return "Process Runner (" + strings.Join(p.Command, " ") + ")"
}

func (p *Process) Run(ctx context.Context, mc *league.MatchConfig) (*league.MatchResult, error) {
	if len(p.Command) == 0 {
		return nil, league.Configf("no match command")
	}

	tmp, err := os.MkdirTemp("", "league-match-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tmp)
	result := filepath.Join(tmp, ResultFile)

	run := exec.CommandContext(ctx, p.Command[0], p.Command[1:]...)
	run.Env = append(os.Environ(), environment(mc, func(pl *league.Player) string {
		return pl.Path
	}, result)...)
	run.Dir = tmp
	stdout, stderr, done := logFiles(p.Logs, mc)
	defer done()
	run.Stdout, run.Stderr = stdout, stderr

	log.Debugf("Running %v for %s", p.Command, mc)
	err = run.Run()
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to run match %s", mc)
	}
	return collect(result)
}

var _ league.Runner = &Process{}
