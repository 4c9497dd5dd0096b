// File System Storage
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

package store

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go-league"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Directories used below the working directory
const (
	ResultDir  = "results"
	HistoryDir = "versioned_results"
)

// Files keeps one JSON file per result
type Files struct {
	results  string
	versions string
	readonly bool
}

// Open a file store in the working directory DIR, creating the
// result directories if necessary.
func OpenFiles(dir string) (*Files, error) {
	f := &Files{
		results:  filepath.Join(dir, ResultDir),
		versions: filepath.Join(dir, HistoryDir),
	}
	for _, d := range []string{f.results, f.versions} {
		if err := os.MkdirAll(d, 0755); err != nil {
			return nil, errors.Wrapf(err, "cannot create %s", d)
		}
	}
	return f, nil
}

// Open a file store in the working directory DIR for reading.  Nothing
// is created, and missing directories are treated as empty.
func ReadFiles(dir string) *Files {
	return &Files{
		results:  filepath.Join(dir, ResultDir),
		versions: filepath.Join(dir, HistoryDir),
		readonly: true,
	}
}

func (f *Files) String() string { return "File Store" }

// Read a result file.  Missing files are reported with a nil result,
// everything else that prevents the file from being parsed is
// reported as a corruption.
func readFile(name string) (*league.MatchResult, error) {
	file, err := os.Open(name)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &league.CorruptError{Path: name, Err: err}
	}
	defer file.Close()

	res, err := league.ReadResult(file)
	if err != nil {
		return nil, &league.CorruptError{Path: name, Err: err}
	}
	return res, nil
}

func (f *Files) Result(ctx context.Context, div int, blue, orange string) (*league.MatchResult, error) {
	for _, name := range []string{
		SessionName(div, blue, orange),
		SessionName(div, orange, blue),
	} {
		path := filepath.Join(f.results, name)
		res, err := readFile(path)
		if err != nil {
			return nil, err
		}
		if res == nil {
			continue
		}
		if !res.Between(blue, orange) {
			return nil, &league.CorruptError{
				Path: path,
				Err:  errors.Errorf("result is not between %s and %s", blue, orange),
			}
		}
		log.WithField("path", path).Debug("Found existing result")
		return res, nil
	}
	return nil, nil
}

func (f *Files) SaveResult(ctx context.Context, div int, res *league.MatchResult) error {
	if f.readonly {
		return ErrReadOnly
	}
	if err := res.Validate(); err != nil {
		return err
	}

	prev, err := f.Result(ctx, div, res.Blue, res.Orange)
	if err != nil {
		return err
	}
	if prev != nil {
		return errors.Errorf("result of %s vs %s in %s already exists",
			res.Blue, res.Orange, league.DivisionName(div))
	}

	path := filepath.Join(f.results, SessionName(div, res.Blue, res.Orange))
	return league.WriteAtomic(path, func(w io.Writer) error {
		return res.Write(w)
	})
}

func (f *Files) SaveHistory(ctx context.Context, a, b league.VersionKey, at time.Time, res *league.MatchResult) error {
	if f.readonly {
		return ErrReadOnly
	}
	if err := res.Validate(); err != nil {
		return err
	}
	path := filepath.Join(f.versions, HistoryName(a, b, at))
	return league.WriteAtomic(path, func(w io.Writer) error {
		return res.Write(w)
	})
}

func (f *Files) History(ctx context.Context, a, b league.VersionKey) ([]*league.MatchResult, error) {
	dent, err := os.ReadDir(f.versions)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read %s", f.versions)
	}

	var (
		prefix = HistoryPrefix(a, b)
		names  []string
	)
	for _, ent := range dent {
		name := ent.Name()
		if ent.Type().IsRegular() &&
			strings.HasPrefix(name, prefix) &&
			strings.HasSuffix(name, ".json") {
			names = append(names, name)
		}
	}

	// The stamps have a fixed width, so sorting the names orders
	// the entries chronologically.
	sort.Sort(sort.Reverse(sort.StringSlice(names)))

	results := make([]*league.MatchResult, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := readFile(filepath.Join(f.versions, name))
		if err != nil {
			return nil, err
		}
		if res != nil {
			results = append(results, res)
		}
	}
	return results, nil
}

func (*Files) Close() error { return nil }

var _ Store = (*Files)(nil)
