// Database Store Tests
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

package db

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-league"
	"go-league/store"
)

func open(t *testing.T) *DB {
	db, err := Open(filepath.Join(t.TempDir(), "results.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestResult(t *testing.T) {
	ctx := context.Background()
	db := open(t)

	res, err := db.Result(ctx, 0, "x", "y")
	require.NoError(t, err)
	assert.Nil(t, res)

	want := &league.MatchResult{Blue: "x", Orange: "y", BlueGoals: 1, OrangeGoals: 4, BluePoints: 300}
	require.NoError(t, db.SaveResult(ctx, 3, want))
	for _, pair := range [][2]string{{"x", "y"}, {"y", "x"}} {
		res, err = db.Result(ctx, 3, pair[0], pair[1])
		require.NoError(t, err)
		assert.Equal(t, want, res)
	}
	res, err = db.Result(ctx, 0, "x", "y")
	require.NoError(t, err)
	assert.Nil(t, res)

	assert.Error(t, db.SaveResult(ctx, 3, &league.MatchResult{Blue: "y", Orange: "x"}))
}

func TestCorrupt(t *testing.T) {
	ctx := context.Background()
	db := open(t)

	_, err := db.write.Exec(`INSERT INTO session_results (division, blue, orange, data)
VALUES (0, 'x', 'y', '{"blue": "x"')`)
	require.NoError(t, err)
	_, err = db.Result(ctx, 0, "y", "x")
	require.Error(t, err)
	assert.True(t, league.IsCorrupt(err))
	assert.Contains(t, err.Error(), "session/quantum/x/y")
}

func TestHistory(t *testing.T) {
	ctx := context.Background()
	db := open(t)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		res := &league.MatchResult{Blue: "x", Orange: "y", OrangeGoals: i}
		require.NoError(t, db.SaveHistory(ctx, "y-1", "x-1", start.Add(time.Duration(i)*time.Minute), res))
	}

	hist, err := db.History(ctx, "x-1", "y-1")
	require.NoError(t, err)
	require.Len(t, hist, 5)
	for i, res := range hist {
		assert.Equal(t, 4-i, res.OrangeGoals)
	}

	hist, err = db.History(ctx, "x-1", "y-2")
	require.NoError(t, err)
	assert.Empty(t, hist)
}

func TestOpenReadOnly(t *testing.T) {
	ctx := context.Background()
	file := filepath.Join(t.TempDir(), "results.db")

	_, err := OpenReadOnly(file)
	assert.Error(t, err)
	_, err = os.Stat(file)
	assert.True(t, os.IsNotExist(err), "database was created")

	rw, err := Open(file)
	require.NoError(t, err)
	want := &league.MatchResult{Blue: "x", Orange: "y", BlueGoals: 2}
	require.NoError(t, rw.SaveResult(ctx, 0, want))
	require.NoError(t, rw.Close())

	db, err := OpenReadOnly(file)
	require.NoError(t, err)
	defer db.Close()
	res, err := db.Result(ctx, 0, "y", "x")
	require.NoError(t, err)
	assert.Equal(t, want, res)

	err = db.SaveResult(ctx, 1, want)
	assert.ErrorIs(t, err, store.ErrReadOnly)
	err = db.SaveHistory(ctx, "x@1", "y@1", time.Now(), want)
	assert.ErrorIs(t, err, store.ErrReadOnly)
}
