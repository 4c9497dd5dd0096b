// Bot Directory
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
	"io/fs"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Load all bots from the directory DIR, where each subdirectory
// contains one bot, and add the reference bots from REFS (mapping a
// name to a skill value).
func LoadBots(dir string, refs map[string]float64) (map[string]*Bot, error) {
	bots := make(map[string]*Bot)

	dent, err := os.ReadDir(dir)
	if err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "cannot read bot directory %s", dir)
	}
	for _, ent := range dent {
		if !ent.IsDir() || strings.HasPrefix(ent.Name(), ".") {
			continue
		}

		path := filepath.Join(dir, ent.Name())
		updated, err := lastChange(path)
		if err != nil {
			return nil, err
		}
		name := strings.ToLower(ent.Name())
		bots[name] = &Bot{
			Name:    name,
			Path:    path,
			Updated: updated,
		}
		log.Debugf("Found bot %s (updated %s)", name, updated)
	}

	for name := range refs {
		name = strings.ToLower(name)
		if _, ok := bots[name]; ok {
			log.Warnf("Reference bot %s shadows the bot directory", name)
		}
		bots[name] = &Bot{
			Name:      name,
			Reference: true,
		}
	}

	return bots, nil
}

// Most recent modification time of any file below ROOT
func lastChange(root string) (last time.Time, err error) {
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if mod := info.ModTime(); mod.After(last) {
			last = mod
		}
		return nil
	})
	return last.UTC().Truncate(time.Second), errors.Wrapf(err, "cannot scan %s", root)
}

// Bots on the ladder that are not known.  If ALL is false, only bots
// playing under the strategy S are checked.
func MissingBots(l *Ladder, bots map[string]*Bot, s RunStrategy, all bool) []string {
	needed := l.Bots
	if !all {
		needed = l.AllPlayingBots(s)
	}

	var missing []string
	for _, name := range needed {
		if _, ok := bots[name]; !ok {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}

// Skill assigned to bots missing from the reference table
const defaultSkill = 1.0

func makePlayer(b *Bot, team Team, refs map[string]float64) Player {
	skill, ok := refs[b.Name]
	if !ok {
		skill = defaultSkill
	}
	return Player{
		Name:       b.Name,
		Path:       b.Path,
		Team:       team,
		Skill:      skill,
		Controlled: !ok,
	}
}

// Create the configuration for a match between BLUE and ORANGE.  REFS
// maps reference bots to their skill, these bots are controlled by
// the game instead of the league.  The map is chosen from MAPS using
// RNG, if any maps were configured.
func MakeMatchConfig(division int, blue, orange *Bot, refs map[string]float64, maps []string, rng *rand.Rand) *MatchConfig {
	mc := &MatchConfig{
		Division: division,
		Blue:     makePlayer(blue, BLUE, refs),
		Orange:   makePlayer(orange, ORANGE, refs),
	}
	if len(maps) > 0 {
		mc.Map = maps[rng.Intn(len(maps))]
	}
	return mc
}
