// Shared State
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
	"context"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"go-league"
	"go-league/db"
	"go-league/isol"
	"go-league/sched"
	"go-league/store"
)

// Layout of a working directory
const (
	LadderFile    = "ladder.txt"
	NewLadderFile = "ladder_new.txt"
	BotDir        = "bots"
	LogDir        = "logs"
)

type State struct {
	Conf *Conf
}

func MakeState(c *Conf) *State {
	return &State{Conf: c}
}

// Path of a file in the working directory
func (st *State) Path(elem ...string) string {
	return filepath.Join(append([]string{st.Conf.Dir}, elem...)...)
}

// Create the structure of a working directory.  Existing files are
// left alone.
func (st *State) Setup() error {
	for _, dir := range []string{
		st.Path(BotDir),
		st.Path(store.ResultDir),
		st.Path(store.HistoryDir),
	} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrapf(err, "Failed to create %s", dir)
		}
	}

	ladder := st.Path(LadderFile)
	f, err := os.OpenFile(ladder, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	switch {
	case os.IsExist(err):
		log.Infof("Keeping existing ladder %s", ladder)
		return nil
	case err != nil:
		return errors.Wrapf(err, "Failed to create %s", ladder)
	}
	log.Infof("Created empty ladder %s", ladder)
	return f.Close()
}

func (st *State) ReadLadder(name string) (*league.Ladder, error) {
	return league.ReadLadder(st.Path(name),
		st.Conf.Ladder.DivisionSize,
		st.Conf.Ladder.OverlapSize)
}

func (st *State) LoadBots() (map[string]*league.Bot, error) {
	return league.LoadBots(st.Path(BotDir), st.Conf.Reference)
}

// Open the configured result store
func (st *State) OpenStore() (store.Store, error) {
	switch st.Conf.Store.Backend {
	case "fs":
		return store.OpenFiles(st.Conf.Dir)
	case "sqlite":
		file := st.Conf.Store.File
		if !filepath.IsAbs(file) {
			file = st.Path(file)
		}
		return db.Open(file)
	}
	return nil, league.Configf("unknown store backend %q", st.Conf.Store.Backend)
}

// Open the configured result store for reading, without creating
// anything.  A database that does not exist yet has no results.
func (st *State) OpenStoreReadOnly() (store.Store, error) {
	switch st.Conf.Store.Backend {
	case "fs":
		return store.ReadFiles(st.Conf.Dir), nil
	case "sqlite":
		file := st.Conf.Store.File
		if !filepath.IsAbs(file) {
			file = st.Path(file)
		}
		if _, err := os.Stat(file); os.IsNotExist(err) {
			log.Debugf("No database in %s", file)
			return store.Empty{}, nil
		}
		return db.OpenReadOnly(file)
	}
	return nil, league.Configf("unknown store backend %q", st.Conf.Store.Backend)
}

// Create the configured match runner
func (st *State) MakeRunner() (league.Runner, error) {
	logs := st.Path(LogDir)
	switch st.Conf.Match.Runner {
	case "process":
		return &isol.Process{
			Command: st.Conf.Match.Process.Command,
			Logs:    logs,
		}, nil
	case "docker":
		return &isol.Docker{
			Image:  st.Conf.Match.Docker.Image,
			Memory: st.Conf.Match.Docker.Memory * 1024 * 1024,
			CPUs:   st.Conf.Match.Docker.CPUs,
			Logs:   logs,
		}, nil
	}
	return nil, league.Configf("unknown match runner %q", st.Conf.Match.Runner)
}

// Prepare a league play event.  The runner may be nil if the event
// is only planned.
func (st *State) League(l *league.Ladder, bots map[string]*league.Bot, s store.Store,
	r league.Runner, strategy league.RunStrategy) *sched.League {
	return &sched.League{
		Ladder: l,
		Bots:   bots,
		Store:  s,
		Runner: r,
		Output: st.Path(NewLadderFile),
		Opts: sched.Options{
			Strategy:       strategy,
			HalfRobin:      st.Conf.League.HalfRobin,
			StaleThreshold: st.Conf.League.StaleThreshold,
			Pause:          time.Duration(st.Conf.League.Pause) * time.Second,
			Maps:           st.Conf.Match.Maps,
			Reference:      st.Conf.Reference,
		},
		Rand: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Return a context that is cancelled on an interrupt.  A second
// interrupt terminates the process.
func Interruptible(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	intr := make(chan os.Signal, 1)
	signal.Notify(intr, os.Interrupt)
	go func() {
		defer signal.Stop(intr)
		select {
		case <-intr:
			log.Warn("Caught interrupt, stopping")
			cancel()
		case <-ctx.Done():
			return
		}
		select {
		case <-intr:
			log.Fatal("Forced shutdown")
		case <-time.After(time.Minute):
		}
	}()
	return ctx, cancel
}
