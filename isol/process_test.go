// Process Isolation Tests
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

package isol

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-league"
)

func config() *league.MatchConfig {
	return &league.MatchConfig{
		Division: 1,
		Map:      "Wasteland",
		Blue: league.Player{
			Name:       "alpha",
			Path:       "/srv/bots/alpha",
			Team:       league.BLUE,
			Skill:      1,
			Controlled: true,
		},
		Orange: league.Player{
			Name:  "psyonix pro",
			Team:  league.ORANGE,
			Skill: 0.5,
		},
	}
}

func TestEnvironment(t *testing.T) {
	env := environment(config(), func(p *league.Player) string {
		return "/bots/" + p.Name
	}, "/out/result.json")

	assert.ElementsMatch(t, []string{
		"LEAGUE_DIVISION=overclocked",
		"LEAGUE_MAP=Wasteland",
		"LEAGUE_RESULT=/out/result.json",
		"LEAGUE_BLUE=alpha",
		"LEAGUE_BLUE_SKILL=1",
		"LEAGUE_BLUE_CONTROLLED=true",
		"LEAGUE_BLUE_PATH=/bots/alpha",
		"LEAGUE_ORANGE=psyonix pro",
		"LEAGUE_ORANGE_SKILL=0.5",
		"LEAGUE_ORANGE_CONTROLLED=false",
	}, env)
}

func shell(t *testing.T, script string) *Process {
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("no shell available")
	}
	return &Process{
		Command: []string{sh, "-c", script},
		Logs:    t.TempDir(),
	}
}

func TestProcessRun(t *testing.T) {
	p := shell(t, `echo "playing $LEAGUE_BLUE_PATH on $LEAGUE_MAP"
echo oops >&2
printf '{"blue": "%s", "orange": "%s", "blue_goals": 3, "orange_goals": 1}' \
	"$LEAGUE_BLUE" "$LEAGUE_ORANGE" > "$LEAGUE_RESULT"`)

	res, err := p.Run(context.Background(), config())
	require.NoError(t, err)
	assert.Equal(t, &league.MatchResult{
		Blue:        "alpha",
		Orange:      "psyonix pro",
		BlueGoals:   3,
		OrangeGoals: 1,
	}, res)

	out, err := os.ReadFile(filepath.Join(p.Logs, "overclocked_alpha_vs_psyonix pro.stdout"))
	require.NoError(t, err)
	assert.Equal(t, "playing /srv/bots/alpha on Wasteland\n", string(out))
	out, err = os.ReadFile(filepath.Join(p.Logs, "overclocked_alpha_vs_psyonix pro.stderr"))
	require.NoError(t, err)
	assert.Equal(t, "oops\n", string(out))
}

func TestProcessNoResult(t *testing.T) {
	p := shell(t, `exit 0`)
	_, err := p.Run(context.Background(), config())
	assert.True(t, errors.Is(err, league.ErrNoResult))

	p = shell(t, `echo '{"blue": "alpha"}' > "$LEAGUE_RESULT"`)
	_, err = p.Run(context.Background(), config())
	assert.Error(t, err)
	assert.False(t, errors.Is(err, league.ErrNoResult))

	p = shell(t, `exit 3`)
	_, err = p.Run(context.Background(), config())
	assert.Error(t, err)
	assert.False(t, errors.Is(err, league.ErrNoResult))
}

func TestProcessNoCommand(t *testing.T) {
	_, err := (&Process{}).Run(context.Background(), config())
	assert.True(t, league.IsConfig(err))
}
