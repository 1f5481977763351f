// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

// Package compose renders a docker-compose deployment of a node image.
package compose

import (
	"io"

	dc "github.com/docker/cli/cli/compose/types"
	"github.com/tishareyes/vcash/pkg/errors"
	"github.com/tishareyes/vcash/pkg/recipe"
	"gopkg.in/yaml.v3"
)

// Options are the deployment options.
type Options struct {
	// Image is the image reference.
	Image string

	// ContainerName is the container name. Empty lets compose choose.
	ContainerName string

	// Command replaces the default subcommand tail.
	Command []string

	// Restart is the restart policy.
	Restart string

	// Volume is the name of the named volume. Defaults to <recipe>-data.
	Volume string
}

// VolumeName returns the named volume that holds the node's state.
func (o *Options) VolumeName(r *recipe.Recipe) string {
	if o.Volume != "" {
		return o.Volume
	}
	return r.Name + "-data"
}

// New returns the compose configuration for the recipe. State lives in a named
// volume so it outlives the container. Every declared port is published on the
// same host port.
func New(r *recipe.Recipe, opts Options) (*dc.Config, error) {
	if opts.Image == "" {
		return nil, errors.BadRequest.With("missing image")
	}

	var svc dc.ServiceConfig
	svc.Name = r.Name
	svc.Image = opts.Image
	svc.ContainerName = opts.ContainerName
	svc.Restart = opts.Restart
	if len(opts.Command) > 0 {
		svc.Command = dc.ShellCommand(opts.Command)
	}

	volume := opts.VolumeName(r)
	svc.Volumes = []dc.ServiceVolumeConfig{
		{Type: "volume", Source: volume, Target: r.Surface.Volume},
	}

	svc.Ports = make([]dc.ServicePortConfig, len(r.Surface.Ports))
	for i, p := range r.Surface.Ports {
		svc.Ports[i] = dc.ServicePortConfig{
			Protocol:  p.Proto(),
			Target:    uint32(p.Number),
			Published: uint32(p.Number),
		}
	}

	compose := new(dc.Config)
	compose.Version = "3"
	compose.Services = []dc.ServiceConfig{svc}
	compose.Volumes = map[string]dc.VolumeConfig{volume: {}}
	return compose, nil
}

// Write renders the compose file for the recipe.
func Write(w io.Writer, r *recipe.Recipe, opts Options) error {
	compose, err := New(r, opts)
	if err != nil {
		return err
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	err = enc.Encode(compose)
	if err != nil {
		return errors.InternalError.WithFormat("encode compose file: %w", err)
	}
	return errors.UnknownError.Wrap(enc.Close())
}
