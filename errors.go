// Error categories
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
	"fmt"

	"github.com/pkg/errors"
)

var (
	// The match runner finished, but no outcome could be detected
	ErrNoResult = errors.New("match finished without a result")
	// Some pairings of an event could not be resolved
	ErrIncomplete = errors.New("event is incomplete")
)

// ConfigError is raised before any match is played, if the ladder,
// the geometry or the bot directory are unusable.
type ConfigError struct {
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration error: %s: %v", e.Reason, e.Err)
	}
	return "configuration error: " + e.Reason
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Create a configuration error from a format string
func Configf(format string, args ...interface{}) error {
	return &ConfigError{Reason: fmt.Sprintf(format, args...)}
}

// CorruptError is raised if a stored match result cannot be read
type CorruptError struct {
	Path string
	Err  error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("corrupted match result %s: %v (fix or delete it and run again)",
		e.Path, e.Err)
}

func (e *CorruptError) Unwrap() error { return e.Err }

// MatchError reports that a single match could not be played
type MatchError struct {
	Blue, Orange string
	Err          error
}

func (e *MatchError) Error() string {
	return fmt.Sprintf("match %s vs %s failed: %v", e.Blue, e.Orange, e.Err)
}

func (e *MatchError) Unwrap() error { return e.Err }

func IsConfig(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

func IsCorrupt(err error) bool {
	var ce *CorruptError
	return errors.As(err, &ce)
}
