// League Command Line Tool
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

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"go-league"
	"go-league/cmd"
	"go-league/sched"
)

// Load the configuration named by the global flags
func state(c *cli.Context) (*cmd.State, error) {
	conf, err := cmd.Load(c.String("conf"))
	if err != nil {
		return nil, err
	}
	if c.Bool("debug") {
		conf.Debug = true
	}
	league.SetDebug(conf.Debug)
	return cmd.MakeState(conf), nil
}

func strategy(c *cli.Context) (league.RunStrategy, error) {
	if c.NArg() != 1 {
		return 0, league.Configf("expected one of even, odd or rolling")
	}
	return league.ParseRunStrategy(c.Args().First())
}

// Plan the event for the strategy given on the command line
func plan(c *cli.Context) (*sched.Event, error) {
	s, err := strategy(c)
	if err != nil {
		return nil, err
	}
	st, err := state(c)
	if err != nil {
		return nil, err
	}
	l, err := st.ReadLadder(cmd.LadderFile)
	if err != nil {
		return nil, err
	}
	bots, err := st.LoadBots()
	if err != nil {
		return nil, err
	}
	rs, err := st.OpenStoreReadOnly()
	if err != nil {
		return nil, err
	}
	defer rs.Close()

	return st.League(l, bots, rs, nil, s).Plan(c.Context)
}

func setup(c *cli.Context) error {
	if c.NArg() != 1 {
		return league.Configf("expected a working directory")
	}
	st, err := state(c)
	if errors.Is(err, os.ErrNotExist) {
		st, err = cmd.MakeState(cmd.Default()), nil
	}
	if err != nil {
		return err
	}
	st.Conf.Dir = c.Args().First()
	if err := st.Setup(); err != nil {
		return err
	}

	file := c.String("conf")
	err = league.WriteAtomic(file, st.Conf.Dump)
	if err != nil {
		return err
	}
	log.Infof("Working directory %s recorded in %s", st.Conf.Dir, file)
	return nil
}

func run(c *cli.Context) error {
	s, err := strategy(c)
	if err != nil {
		return err
	}
	st, err := state(c)
	if err != nil {
		return err
	}
	if c.IsSet("half") {
		st.Conf.League.HalfRobin = c.Bool("half")
	}
	if c.IsSet("ignore-missing") {
		st.Conf.League.IgnoreMissing = c.Bool("ignore-missing")
	}
	if c.IsSet("stale") {
		st.Conf.League.StaleThreshold = c.Int("stale")
	}

	l, err := st.ReadLadder(cmd.LadderFile)
	if err != nil {
		return err
	}
	bots, err := st.LoadBots()
	if err != nil {
		return err
	}
	missing := league.MissingBots(l, bots, s, false)
	if len(missing) > 0 {
		if !st.Conf.League.IgnoreMissing {
			return league.Configf("missing bots: %s", strings.Join(missing, ", "))
		}
		log.Warnf("Ignoring missing bots: %s", strings.Join(missing, ", "))
	}

	rs, err := st.OpenStore()
	if err != nil {
		return err
	}
	defer rs.Close()
	runner, err := st.MakeRunner()
	if err != nil {
		return err
	}

	ctx, cancel := cmd.Interruptible(c.Context)
	defer cancel()
	lp := st.League(l, bots, rs, runner, s)
	log.Infof("Starting %s league play with %s and %s", s, rs, runner)
	ev, err := lp.Run(ctx)
	switch {
	case errors.Is(err, league.ErrIncomplete):
		for _, m := range ev.Unresolved() {
			log.Warnf("Unresolved: %s", m.Pairing)
		}
		return cli.Exit(fmt.Sprintf("%s, run again to continue", err), 2)
	case err != nil:
		return err
	}

	sched.PrintDifferences(c.App.Writer, ev.Old, ev.New)
	return nil
}

func list(c *cli.Context) error {
	ev, err := plan(c)
	if err != nil {
		return err
	}
	ev.PrintMatches(c.App.Writer, false)
	return nil
}

func results(c *cli.Context) error {
	ev, err := plan(c)
	if err != nil {
		return err
	}
	ev.PrintMatches(c.App.Writer, true)
	fmt.Fprintln(c.App.Writer)
	ev.PrintScores(c.App.Writer)
	return nil
}

func check(c *cli.Context) error {
	st, err := state(c)
	if err != nil {
		return err
	}
	var (
		s   league.RunStrategy
		all = c.NArg() == 0
	)
	if !all {
		if s, err = strategy(c); err != nil {
			return err
		}
	}

	l, err := st.ReadLadder(cmd.LadderFile)
	if err != nil {
		return err
	}
	bots, err := st.LoadBots()
	if err != nil {
		return err
	}
	missing := league.MissingBots(l, bots, s, all)
	if len(missing) == 0 {
		fmt.Fprintln(c.App.Writer, "All bots found.")
		return nil
	}
	for _, name := range missing {
		fmt.Fprintf(c.App.Writer, "Missing: %s\n", name)
	}
	return cli.Exit(fmt.Sprintf("%d bots are missing", len(missing)), 1)
}

func diff(c *cli.Context) error {
	st, err := state(c)
	if err != nil {
		return err
	}
	prev, err := st.ReadLadder(cmd.LadderFile)
	if err != nil {
		return err
	}
	next, err := st.ReadLadder(cmd.NewLadderFile)
	if err != nil {
		return err
	}
	sched.PrintDifferences(c.App.Writer, prev, next)
	return nil
}

func graph(c *cli.Context) error {
	ev, err := plan(c)
	if err != nil {
		return err
	}
	var res []*league.MatchResult
	for _, d := range ev.Divisions {
		res = append(res, d.Results()...)
	}

	format := c.String("format")
	if format == "dot" {
		return cmd.WriteGraph(c.App.Writer, res)
	}
	out, err := cmd.DrawGraph(res, "-T"+format)
	if err != nil {
		return err
	}
	_, err = c.App.Writer.Write(out)
	return err
}

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warnf("Failed to load .env: %s", err)
	}

	strategyArg := "<even|odd|rolling>"
	app := &cli.App{
		Name:  "league",
		Usage: "schedule and rank league play between bots",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "conf",
				Value: cmd.DefaultFile,
				Usage: "Path to configuration file",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug output",
			},
			&cli.BoolFlag{
				Name:  "dump-config",
				Usage: "Dump configuration to standard output",
			},
		},
		Before: func(c *cli.Context) error {
			if !c.Bool("dump-config") {
				return nil
			}
			st, err := state(c)
			if err != nil {
				return err
			}
			if err := st.Conf.Dump(c.App.Writer); err != nil {
				return err
			}
			return cli.Exit("", 0)
		},
		Commands: []*cli.Command{
			{
				Name:      "setup",
				Usage:     "create a working directory and record it in the configuration",
				ArgsUsage: "<dir>",
				Action:    setup,
			},
			{
				Name:      "run",
				Usage:     "play all matches of a league play event",
				ArgsUsage: strategyArg,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "half",
						Usage: "Split round robins into two overlapping halves",
					},
					&cli.BoolFlag{
						Name:  "ignore-missing",
						Usage: "Start even if bots are missing",
					},
					&cli.IntFlag{
						Name:  "stale",
						Usage: "Reuse results after this many consecutive wins (0 disables)",
					},
				},
				Action: run,
			},
			{
				Name:      "list",
				Usage:     "list the matches of an event",
				ArgsUsage: strategyArg,
				Action:    list,
			},
			{
				Name:      "results",
				Usage:     "list the results and scores of an event",
				ArgsUsage: strategyArg,
				Action:    results,
			},
			{
				Name:      "check",
				Usage:     "check that all bots on the ladder are known",
				ArgsUsage: "[" + strategyArg + "]",
				Action:    check,
			},
			{
				Name:   "diff",
				Usage:  "show how the new ladder differs from the current one",
				Action: diff,
			},
			{
				Name:      "graph",
				Usage:     "draw who defeated whom during an event",
				ArgsUsage: strategyArg,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "format",
						Value: "dot",
						Usage: "Output format, anything other than dot requires dot(1)",
					},
				},
				Action: graph,
			},
		},
	}

	if err := app.RunContext(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
