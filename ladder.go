// Ladder and Division Geometry
//
// Copyright (c) 2024  Philip Kaludercic
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

package league

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Names of the divisions, from the top of the ladder downwards
var DivisionNames = []string{
	"quantum", "overclocked", "processor", "circuit", "transistor",
	"abacus", "babbage", "colossus", "eniac", "ferranti",
}

const (
	DefaultDivisionSize = 4
	DefaultOverlapSize  = 1
)

// Name of the division at index I.  Divisions beyond the list of
// known names are referred to by their index.
func DivisionName(i int) string {
	if i >= 0 && i < len(DivisionNames) {
		return DivisionNames[i]
	}
	return strconv.Itoa(i)
}

// Ladder is a ranked list of bots, the first bot being rank 1
type Ladder struct {
	Bots         []string
	DivisionSize int
	// Number of bots from the next division that also take part
	// in a division's round robin
	OverlapSize int
}

func MakeLadder(bots []string, size, overlap int) (*Ladder, error) {
	l := &Ladder{Bots: bots, DivisionSize: size, OverlapSize: overlap}
	return l, l.Check()
}

// Check the division geometry
func (l *Ladder) Check() error {
	if l.DivisionSize < 1 {
		return Configf("division size must be positive, not %d", l.DivisionSize)
	}
	if l.OverlapSize < 0 {
		return Configf("overlap size must not be negative, not %d", l.OverlapSize)
	}
	seen := make(map[string]struct{}, len(l.Bots))
	for _, bot := range l.Bots {
		if _, ok := seen[bot]; ok {
			return Configf("%s appears twice on the ladder", bot)
		}
		seen[bot] = struct{}{}
	}
	return nil
}

func (l *Ladder) RoundRobinSize() int {
	return l.DivisionSize + l.OverlapSize
}

func (l *Ladder) Copy() *Ladder {
	c := *l
	c.Bots = append([]string(nil), l.Bots...)
	return &c
}

func (l *Ladder) slice(from, to int) []string {
	if from > len(l.Bots) {
		from = len(l.Bots)
	}
	if to > len(l.Bots) {
		to = len(l.Bots)
	}
	return l.Bots[from:to]
}

// Bots in the division at index I.  Division 0 is the top division.
func (l *Ladder) Division(i int) []string {
	return l.slice(i*l.DivisionSize, (i+1)*l.DivisionSize)
}

func (l *Ladder) DivisionCount() int {
	return (len(l.Bots) + l.DivisionSize - 1) / l.DivisionSize
}

// Ladder slots [from, to) taking part in the round robin of division I
func (l *Ladder) RoundRobinRange(i int) (from, to int) {
	from = i * l.DivisionSize
	to = (i+1)*l.DivisionSize + l.OverlapSize
	if to > len(l.Bots) {
		to = len(l.Bots)
	}
	if from > to {
		from = to
	}
	return
}

// Bots playing in the round robin of division I, including the
// overlapping bots from the division below.
func (l *Ladder) RoundRobinParticipants(i int) []string {
	from, to := l.RoundRobinRange(i)
	return l.Bots[from:to]
}

// Indices of the divisions playing under the strategy S, in
// ascending order.  If there is at most one division, the top
// division always plays.
func (l *Ladder) PlayingDivisionIndices(s RunStrategy) []int {
	n := l.DivisionCount()
	if n <= 1 {
		return []int{0}
	}

	var (
		idx   []int
		start = 0
		step  = 2
	)
	switch s {
	case ODD:
		start = 1
	case ROLLING:
		step = 1
	}
	for i := start; i < n; i += step {
		idx = append(idx, i)
	}
	return idx
}

// Every bot taking part in a round robin under the strategy S
func (l *Ladder) AllPlayingBots(s RunStrategy) []string {
	var (
		bots []string
		seen = make(map[string]struct{})
	)
	for _, i := range l.PlayingDivisionIndices(s) {
		for _, bot := range l.RoundRobinParticipants(i) {
			if _, ok := seen[bot]; ok {
				continue
			}
			seen[bot] = struct{}{}
			bots = append(bots, bot)
		}
	}
	return bots
}

// Position of BOT on the ladder, or -1
func (l *Ladder) Rank(bot string) int {
	for i, b := range l.Bots {
		if b == bot {
			return i
		}
	}
	return -1
}

// Parse a ladder from a reader, one bot per line
func ParseLadder(r io.Reader, size, overlap int) (*Ladder, error) {
	var bots []string
	scan := bufio.NewScanner(r)
	for scan.Scan() {
		bot := strings.ToLower(strings.TrimSpace(scan.Text()))
		if bot == "" {
			continue
		}
		bots = append(bots, bot)
	}
	if err := scan.Err(); err != nil {
		return nil, err
	}
	return MakeLadder(bots, size, overlap)
}

// Read a ladder file
func ReadLadder(name string, size, overlap int) (*Ladder, error) {
	info, err := os.Stat(name)
	if err != nil {
		return nil, &ConfigError{Reason: "cannot read ladder", Err: err}
	}
	if !info.Mode().IsRegular() {
		return nil, Configf("ladder %s is not a file", name)
	}

	file, err := os.Open(name)
	if err != nil {
		return nil, &ConfigError{Reason: "cannot read ladder", Err: err}
	}
	defer file.Close()

	return ParseLadder(file, size, overlap)
}

// Serialise the ladder into a writer
func (l *Ladder) Dump(w io.Writer) error {
	for _, bot := range l.Bots {
		if _, err := fmt.Fprintln(w, bot); err != nil {
			return err
		}
	}
	return nil
}

// Write the ladder to the file NAME, replacing it atomically
func WriteLadder(name string, l *Ladder) error {
	return WriteAtomic(name, l.Dump)
}

// Differences between two ladders: bots that are new on the NEXT
// ladder, and bots that moved up or down.
func Differences(prev, next *Ladder) (added, up, down []string) {
	for i, bot := range next.Bots {
		j := prev.Rank(bot)
		switch {
		case j < 0:
			added = append(added, bot)
		case i < j:
			up = append(up, bot)
		case i > j:
			down = append(down, bot)
		}
	}
	return
}

// Write the contents generated by FN to NAME.  The data is written to
// a temporary file first, that is then renamed, so that a reader
// never observes a partially written file.
func WriteAtomic(name string, fn func(io.Writer) error) (err error) {
	dir, base := filepath.Split(name)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		return errors.Wrapf(err, "cannot create %s", name)
	}
	defer func() {
		if err != nil {
			os.Remove(tmp.Name())
		}
	}()

	buf := bufio.NewWriter(tmp)
	if err = fn(buf); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "cannot write %s", name)
	}
	if err = buf.Flush(); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "cannot write %s", name)
	}
	if err = tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "cannot sync %s", name)
	}
	if err = tmp.Chmod(0644); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "cannot chmod %s", name)
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrapf(err, "cannot close %s", name)
	}
	return errors.Wrapf(os.Rename(tmp.Name(), name), "cannot rename to %s", name)
}
