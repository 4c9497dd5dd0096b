// Configuration
//
// Copyright (c) 2021, 2022, 2023, 2024  Philip Kaludercic
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

package cmd

import (
	"io"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"

	"go-league"
)

const DefaultFile = "league.toml"

type LadderConf struct {
	DivisionSize int `toml:"division_size"`
	OverlapSize  int `toml:"overlap_size"`
}

type LeagueConf struct {
	StaleThreshold int  `toml:"stale_threshold"`
	HalfRobin      bool `toml:"half_robin"`
	IgnoreMissing  bool `toml:"ignore_missing"`
	// Seconds to wait after each match
	Pause uint `toml:"pause"`
}

type StoreConf struct {
	// Either "fs" or "sqlite"
	Backend string `toml:"backend"`
	// Database file, relative to the working directory
	File string `toml:"file"`
}

type ProcessConf struct {
	Command []string `toml:"command"`
}

type DockerConf struct {
	Image string `toml:"image"`
	// Memory limit in MiB
	Memory int64   `toml:"memory"`
	CPUs   float64 `toml:"cpus"`
}

type MatchConf struct {
	// Either "process" or "docker"
	Runner  string      `toml:"runner"`
	Maps    []string    `toml:"maps"`
	Process ProcessConf `toml:"process"`
	Docker  DockerConf  `toml:"docker"`
}

// Internal representation
type Conf struct {
	Dir   string `toml:"dir"`
	Debug bool   `toml:"debug"`

	Ladder    LadderConf         `toml:"ladder"`
	League    LeagueConf         `toml:"league"`
	Store     StoreConf          `toml:"store"`
	Match     MatchConf          `toml:"match"`
	Reference map[string]float64 `toml:"reference"`
}

// Configuration object used by default
var defaultConfig = Conf{
	Dir: ".",
	Ladder: LadderConf{
		DivisionSize: league.DefaultDivisionSize,
		OverlapSize:  league.DefaultOverlapSize,
	},
	League: LeagueConf{
		Pause: 8,
	},
	Store: StoreConf{
		Backend: "fs",
		File:    "results.db",
	},
	Match: MatchConf{
		Runner: "process",
		Maps: []string{
			"ChampionsField",
			"Farmstead",
			"DFHStadium",
			"Wasteland",
			"BeckwithPark",
		},
		Process: ProcessConf{
			Command: []string{"./play.sh"},
		},
		Docker: DockerConf{
			Memory: 1024,
			CPUs:   1,
		},
	},
	Reference: map[string]float64{
		"psyonix allstar": 1.0,
		"psyonix pro":     0.5,
		"psyonix rookie":  0.0,
	},
}

// Return a fresh copy of the default configuration
func Default() *Conf {
	c := defaultConfig
	c.Match.Maps = append([]string(nil), defaultConfig.Match.Maps...)
	c.Match.Process.Command = append([]string(nil), defaultConfig.Match.Process.Command...)
	c.Reference = make(map[string]float64, len(defaultConfig.Reference))
	for name, skill := range defaultConfig.Reference {
		c.Reference[name] = skill
	}
	return &c
}

// Open a configuration file and return it.  If FILE is the default
// file and does not exist, the default configuration is used.
func Load(file string) (*Conf, error) {
	c := Default()
	f, err := os.Open(file)
	if err != nil {
		if os.IsNotExist(err) && file == DefaultFile {
			return c, c.Validate()
		}
		return nil, &league.ConfigError{Reason: "cannot open configuration", Err: err}
	}
	defer f.Close()

	// Tables replace the defaults instead of being merged into them
	c.Reference = nil
	md, err := toml.NewDecoder(f).Decode(c)
	if err != nil {
		return nil, &league.ConfigError{Reason: "invalid configuration " + file, Err: err}
	}
	if !md.IsDefined("reference") {
		c.Reference = Default().Reference
	}
	if keys := md.Undecoded(); len(keys) > 0 {
		return nil, league.Configf("unknown configuration key %q in %s", keys[0].String(), file)
	}

	return c, c.Validate()
}

// Check the configuration and normalise bot names
func (c *Conf) Validate() error {
	if c.Ladder.DivisionSize < 1 {
		return league.Configf("division size must be positive, not %d", c.Ladder.DivisionSize)
	}
	if c.Ladder.OverlapSize < 0 {
		return league.Configf("overlap size must not be negative, not %d", c.Ladder.OverlapSize)
	}
	switch c.Store.Backend {
	case "fs", "sqlite":
	default:
		return league.Configf("unknown store backend %q", c.Store.Backend)
	}
	switch c.Match.Runner {
	case "process":
		if len(c.Match.Process.Command) == 0 {
			return league.Configf("no match command")
		}
	case "docker":
		if c.Match.Docker.Image == "" {
			return league.Configf("no docker image")
		}
	default:
		return league.Configf("unknown match runner %q", c.Match.Runner)
	}
	if c.League.StaleThreshold < 0 {
		return league.Configf("stale threshold must not be negative")
	}

	refs := make(map[string]float64, len(c.Reference))
	for name, skill := range c.Reference {
		name = strings.ToLower(strings.TrimSpace(name))
		if _, dup := refs[name]; dup {
			return league.Configf("reference bot %q listed twice", name)
		}
		refs[name] = skill
	}
	c.Reference = refs
	return nil
}

// Serialise the configuration into a writer
func (c *Conf) Dump(wr io.Writer) error {
	return errors.Wrap(toml.NewEncoder(wr).Encode(c), "Failed to dump configuration")
}
