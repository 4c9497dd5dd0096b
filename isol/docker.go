// Docker-Based Match Isolation
//
// Copyright (c) 2022, 2023, 2024  Philip Kaludercic
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
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"go-league"
)

// Mount points inside of the container
const (
	outputMount = "/league"
	botMount    = "/bots"
)

// Docker plays each match in a fresh container of Image.  Bot
// directories are mounted read-only, and the result is written to a
// bind-mounted output directory.
type Docker struct {
	Image string
	// Memory limit in bytes (0 means no limit)
	Memory int64
	// Number of CPUs (0 means no limit)
	CPUs float64
	// Directory for stdout and stderr of each match
	Logs string

	cont *client.Client
}

func (d *Docker) String() string {
	return "Docker Runner (" + d.Image + ")"
}

func (d *Docker) client() (*client.Client, error) {
	if d.cont != nil {
		return d.cont, nil
	}
	cont, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, errors.Wrap(err, "Failed to connect to docker")
	}
	d.cont = cont
	return cont, nil
}

func (d *Docker) Run(ctx context.Context, mc *league.MatchConfig) (*league.MatchResult, error) {
	cont, err := d.client()
	if err != nil {
		return nil, err
	}

	// The output directory has to be an absolute path on the host
	tmp, err := os.MkdirTemp("", "league-match-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tmp)
	tmp, err = filepath.Abs(tmp)
	if err != nil {
		return nil, err
	}

	binds := []string{tmp + ":" + outputMount}
	for _, p := range []*league.Player{&mc.Blue, &mc.Orange} {
		if !p.Controlled {
			continue
		}
		dir, err := filepath.Abs(p.Path)
		if err != nil {
			return nil, err
		}
		binds = append(binds, dir+":"+path.Join(botMount, p.Name)+":ro")
	}
	env := environment(mc, func(p *league.Player) string {
		return path.Join(botMount, p.Name)
	}, path.Join(outputMount, ResultFile))

	// See https://docs.docker.com/engine/api/v1.41/#operation/ContainerCreate
	// for what the configuration does.
	name := fmt.Sprintf("league-%s-%d", logName(mc), time.Now().UnixNano())
	resp, err := cont.ContainerCreate(ctx, &container.Config{
		Image: d.Image,
		Env:   env,
	}, &container.HostConfig{
		Binds: binds,
		Resources: container.Resources{
			Memory:   d.Memory,
			NanoCPUs: int64(d.CPUs * 1e9),
		},
		NetworkMode: "none",
	}, nil, nil, name)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to create container %s", name)
	}
	id := resp.ID
	defer func() {
		// The context might already be cancelled
		err := cont.ContainerRemove(context.Background(), id, types.ContainerRemoveOptions{
			Force: true,
		})
		if err != nil {
			log.Warnf("Failed to remove container %s: %s", name, err)
		}
	}()

	if err := cont.ContainerStart(ctx, id, types.ContainerStartOptions{}); err != nil {
		return nil, errors.Wrapf(err, "Failed to start container %s", name)
	}
	log.Debugf("Started container %s for %s", name, mc)

	okC, errC := cont.ContainerWait(ctx, id, container.WaitConditionNotRunning)
	var status int64
	select {
	case err := <-errC:
		return nil, errors.Wrapf(err, "Container %s signalled an error", name)
	case ok := <-okC:
		status = ok.StatusCode
	}

	d.saveLogs(id, mc)
	if status != 0 {
		return nil, errors.Errorf("Container %s exited with status %d", name, status)
	}
	return collect(filepath.Join(tmp, ResultFile))
}

func (d *Docker) saveLogs(id string, mc *league.MatchConfig) {
	if d.Logs == "" {
		return
	}
	out, err := d.cont.ContainerLogs(context.Background(), id, types.ContainerLogsOptions{
		ShowStdout: true,
		ShowStderr: true,
	})
	if err != nil {
		log.Warnf("Failed to fetch logs of %s: %s", mc, err)
		return
	}
	defer out.Close()

	stdout, stderr, done := logFiles(d.Logs, mc)
	defer done()
	if _, err := stdcopy.StdCopy(stdout, stderr, out); err != nil {
		log.Warnf("Failed to save logs of %s: %s", mc, err)
	}
}

var _ league.Runner = &Docker{}
