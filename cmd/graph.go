// Dominance Graph
//
// Copyright (c) 2023, 2024  Philip Kaludercic
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
	"bytes"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/pkg/errors"

	"go-league"
)

// Write a DOT graph with an edge from the winner to the loser of
// every decided match in RESULTS.
func WriteGraph(w io.Writer, results []*league.MatchResult) error {
	var (
		seen = make(map[string]string)
		err  error
	)
	node := func(name string) string {
		if n, ok := seen[name]; ok {
			return n
		}
		n := fmt.Sprintf("n%d", len(seen))
		seen[name] = n
		if err == nil {
			label := strings.ReplaceAll(name, `"`, `\"`)
			_, err = fmt.Fprintf(w, "\t%s [label=\"%s\"];\n", n, label)
		}
		return n
	}

	_, err = fmt.Fprintln(w, "strict digraph dominance {\n\tratio = compress;")
	for _, res := range results {
		if res.Draw() {
			continue
		}
		f, t := node(res.Winner()), node(res.Loser())
		if err == nil {
			_, err = fmt.Fprintf(w, "\t%s -> %s;\n", f, t)
		}
	}
	if err == nil {
		_, err = fmt.Fprintln(w, "}")
	}
	return err
}

// Render the dominance graph using dot(1), passing OPTS
func DrawGraph(results []*league.MatchResult, opts ...string) ([]byte, error) {
	var in, out, stderr bytes.Buffer
	if err := WriteGraph(&in, results); err != nil {
		return nil, err
	}

	cmd := exec.Command("dot", opts...)
	cmd.Stdin = &in
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, errors.Wrapf(err, "dot failed: %s", strings.TrimSpace(stderr.String()))
	}
	return out.Bytes(), nil
}
