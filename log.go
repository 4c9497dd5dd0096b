// Shared logging
//
// Copyright (c) 2023  Philip Kaludercic
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
	"io"
	"os"

	log "github.com/sirupsen/logrus"
)

func init() {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05",
	})
}

// Enable or disable debug output on the standard logger
func SetDebug(on bool) {
	if on {
		log.SetLevel(log.DebugLevel)
		log.SetReportCaller(true)
		log.Debug("Debug logging has been enabled")
	} else {
		log.SetLevel(log.InfoLevel)
		log.SetReportCaller(false)
	}
}

// Discard all output of the standard logger, or restore stderr
func SetSilent(on bool) {
	var out io.Writer = os.Stderr
	if on {
		out = io.Discard
	}
	log.SetOutput(out)
}
