// General Match Isolation
//
// Copyright (c) 2022, 2023, 2024  Philip Kaludercic
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
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"go-league"
)

// Name of the file a match writes its result to
const ResultFile = "result.json"

// Environment passed to a match.  PATH maps a player to the location
// of its bot as seen by the match, and RESULT is where the result
// has to be written.
func environment(mc *league.MatchConfig, path func(*league.Player) string, result string) []string {
	env := []string{
		"LEAGUE_DIVISION=" + league.DivisionName(mc.Division),
		"LEAGUE_MAP=" + mc.Map,
		"LEAGUE_RESULT=" + result,
	}
	for _, p := range []*league.Player{&mc.Blue, &mc.Orange} {
		prefix := "LEAGUE_" + strings.ToUpper(p.Team.String())
		env = append(env,
			prefix+"="+p.Name,
			prefix+"_SKILL="+strconv.FormatFloat(p.Skill, 'f', -1, 64),
			prefix+"_CONTROLLED="+strconv.FormatBool(p.Controlled))
		if p.Controlled {
			env = append(env, prefix+"_PATH="+path(p))
		}
	}
	return env
}

// Basename of log files for a match
func logName(mc *league.MatchConfig) string {
	return fmt.Sprintf("%s_%s_vs_%s", league.DivisionName(mc.Division),
		mc.Blue.Name, mc.Orange.Name)
}

// Create the stdout and stderr log files for a match in DIR.  If a
// file cannot be created, output is discarded.
func logFiles(dir string, mc *league.MatchConfig) (stdout, stderr io.Writer, done func()) {
	var files []*os.File
	open := func(ext string) io.Writer {
		name := filepath.Join(dir, logName(mc)+"."+ext)
		file, err := os.Create(name)
		if err != nil {
			log.Warnf("Failed to redirect %s for %s: %s", ext, mc, err)
			return io.Discard
		}
		files = append(files, file)
		return file
	}
	if dir == "" {
		return io.Discard, io.Discard, func() {}
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Warnf("Failed to create log directory: %s", err)
		return io.Discard, io.Discard, func() {}
	}

	stdout, stderr = open("stdout"), open("stderr")
	return stdout, stderr, func() {
		for _, f := range files {
			f.Close()
		}
	}
}

// Read the result a match left behind in FILE
func collect(file string) (*league.MatchResult, error) {
	f, err := os.Open(file)
	if os.IsNotExist(err) {
		return nil, league.ErrNoResult
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	res, err := league.ReadResult(f)
	if err != nil {
		return nil, errors.Wrap(err, "Match reported an invalid result")
	}
	return res, nil
}
