// Database management
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

package db

import (
	"bytes"
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"go-league"
	"go-league/store"
)

//go:embed *.sql
var sql_dir embed.FS

// DB stores match results in a SQLite database
type DB struct {
	file string

	// The database connections, WRITE is nil if the database
	// was opened for reading only.
	read  *sql.DB
	write *sql.DB

	// The SQL queries are stored next to this file, and they
	// are loaded when the database is opened.  QUERIES are the
	// commands handle by READ, and COMMANDS are the queries
	// handled by WRITE.
	queries  map[string]*sql.Stmt
	commands map[string]*sql.Stmt
}

func (*DB) String() string { return "Database Store" }

// Identify a row in error messages
func (db *DB) where(table string, key ...interface{}) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s:%s", db.file, table)
	for _, k := range key {
		fmt.Fprintf(&b, "/%v", k)
	}
	return b.String()
}

func (db *DB) Result(ctx context.Context, div int, blue, orange string) (*league.MatchResult, error) {
	for _, pair := range [][2]string{{blue, orange}, {orange, blue}} {
		var data string
		err := db.queries["select-result"].QueryRowContext(ctx,
			div, pair[0], pair[1]).Scan(&data)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		where := db.where("session", league.DivisionName(div), pair[0], pair[1])
		if err != nil {
			return nil, errors.Wrapf(err, "cannot query %s", where)
		}

		res, err := league.ReadResult(strings.NewReader(data))
		if err != nil {
			return nil, &league.CorruptError{Path: where, Err: err}
		}
		if !res.Between(blue, orange) {
			return nil, &league.CorruptError{
				Path: where,
				Err:  errors.Errorf("result is not between %s and %s", blue, orange),
			}
		}
		return res, nil
	}
	return nil, nil
}

func encode(res *league.MatchResult) (string, error) {
	if err := res.Validate(); err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := res.Write(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (db *DB) SaveResult(ctx context.Context, div int, res *league.MatchResult) error {
	if db.write == nil {
		return store.ErrReadOnly
	}
	data, err := encode(res)
	if err != nil {
		return err
	}

	// The pairing may only be recorded once, in any orientation
	prev, err := db.Result(ctx, div, res.Blue, res.Orange)
	if err != nil {
		return err
	}
	if prev != nil {
		return errors.Errorf("result of %s vs %s in %s already exists",
			res.Blue, res.Orange, league.DivisionName(div))
	}

	_, err = db.commands["insert-result"].ExecContext(ctx,
		div, res.Blue, res.Orange, data)
	if err != nil {
		return errors.Wrapf(err, "cannot save %s", res)
	}
	log.Debugf("Saved %s in %s", res, league.DivisionName(div))
	return nil
}

func (db *DB) SaveHistory(ctx context.Context, a, b league.VersionKey, at time.Time, res *league.MatchResult) error {
	if db.write == nil {
		return store.ErrReadOnly
	}
	data, err := encode(res)
	if err != nil {
		return err
	}
	_, err = db.commands["insert-history"].ExecContext(ctx,
		store.HistoryPrefix(a, b), store.Stamp(at), data)
	return errors.Wrapf(err, "cannot save history of %s", res)
}

func (db *DB) History(ctx context.Context, a, b league.VersionKey) ([]*league.MatchResult, error) {
	prefix := store.HistoryPrefix(a, b)
	rows, err := db.queries["select-history"].QueryContext(ctx, prefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*league.MatchResult
	for rows.Next() {
		var stamp, data string
		if err = rows.Scan(&stamp, &data); err != nil {
			return nil, err
		}
		res, err := league.ReadResult(strings.NewReader(data))
		if err != nil {
			return nil, &league.CorruptError{
				Path: db.where("history", prefix+stamp),
				Err:  err,
			}
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

func (db *DB) Close() error {
	var err error

	if db.write != nil {
		// https://www.sqlite.org/pragma.html#pragma_optimize
		_, err = db.write.Exec("PRAGMA optimize;")
		if err != nil {
			log.Print(err)
		}
	}

	for _, stmt := range db.queries {
		stmt.Close()
	}
	for _, stmt := range db.commands {
		stmt.Close()
	}

	if db.write != nil {
		if cerr := db.write.Close(); cerr != nil {
			err = cerr
		}
	}
	if cerr := db.read.Close(); cerr != nil {
		err = cerr
	}
	return err
}

// Open the database in FILE and prepare all queries
func Open(file string) (*DB, error) {
	read, err := sql.Open("sqlite3", file)
	if err != nil {
		return nil, errors.Wrap(err, file)
	}
	read.SetConnMaxLifetime(0)
	read.SetMaxIdleConns(1)

	write, err := sql.Open("sqlite3", file)
	if err != nil {
		read.Close()
		return nil, errors.Wrap(err, file)
	}
	write.SetConnMaxLifetime(0)
	write.SetMaxIdleConns(1)
	write.SetMaxOpenConns(1)

	db := &DB{
		file:     file,
		queries:  make(map[string]*sql.Stmt),
		commands: make(map[string]*sql.Stmt),
		write:    write,
		read:     read,
	}
	if err = db.prepare(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Open the existing database in FILE for reading.  Neither the file
// nor any table is created, and saving a result fails.
func OpenReadOnly(file string) (*DB, error) {
	read, err := sql.Open("sqlite3", "file:"+file+"?mode=ro")
	if err != nil {
		return nil, errors.Wrap(err, file)
	}
	read.SetConnMaxLifetime(0)
	read.SetMaxIdleConns(1)

	db := &DB{
		file:     file,
		queries:  make(map[string]*sql.Stmt),
		commands: make(map[string]*sql.Stmt),
		read:     read,
	}
	if err = db.prepare(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func (db *DB) prepare() error {
	readonly := db.write == nil
	for _, pragma := range []string{
		// https://www.sqlite.org/pragma.html#pragma_journal_mode
		"journal_mode = WAL",
		// https://www.sqlite.org/pragma.html#pragma_synchronous
		"synchronous = full",
		// https://www.sqlite.org/pragma.html#pragma_temp_store
		"temp_store = memory",
	} {
		if readonly {
			break
		}
		log.Debugf("Run PRAGMA %v", pragma)
		_, err := db.write.Exec("PRAGMA " + pragma + ";")
		if err != nil {
			return errors.Wrap(err, pragma)
		}
	}

	entries, err := sql_dir.ReadDir(".")
	if err != nil {
		return err
	}

	// Tables have to be created before any statement can be
	// prepared
	load := func(create bool) error {
		for _, entry := range entries {
			base := path.Base(entry.Name())
			if !entry.Type().IsRegular() || strings.HasPrefix(base, ".") {
				continue
			}
			if strings.HasPrefix(base, "create-") != create {
				continue
			}
			if readonly && !strings.HasPrefix(base, "select-") {
				continue
			}

			data, err := fs.ReadFile(sql_dir, entry.Name())
			if err != nil {
				return err
			}

			query := strings.TrimSuffix(base, ".sql")
			switch {
			case create:
				_, err = db.write.Exec(string(data))
				log.Debugf("Executed query %v", query)
			case strings.HasPrefix(query, "select-"):
				db.queries[query], err = db.read.Prepare(string(data))
				log.Debugf("Registered query %v", query)
			default:
				db.commands[query], err = db.write.Prepare(string(data))
				log.Debugf("Registered command %v", query)
			}
			if err != nil {
				return errors.Wrap(err, entry.Name())
			}
		}
		return nil
	}
	if err = load(true); err != nil {
		return err
	}
	if err = load(false); err != nil {
		return err
	}

	if len(db.queries) == 0 {
		return errors.New("no queries loaded")
	}
	return nil
}

var _ store.Store = (*DB)(nil)
