// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

// Package docker drives a docker-compatible container engine.
package docker

import (
	"context"

	"github.com/tishareyes/vcash/internal/surface"
)

// Engine is the subset of a container engine the pipeline uses.
type Engine interface {
	// Build builds an image from a Dockerfile.
	Build(ctx context.Context, opts *BuildOptions) error

	// Create creates a stopped container from an image and returns its ID.
	Create(ctx context.Context, image string) (string, error)

	// CopyFrom copies a file out of a container.
	CopyFrom(ctx context.Context, container, src, dst string) error

	// Remove removes a container.
	Remove(ctx context.Context, container string) error

	// InspectImage returns the configuration of an image.
	InspectImage(ctx context.Context, image string) (*Image, error)

	// Run runs argv in a throwaway container of the image, bypassing the
	// image's entrypoint, and returns its standard output.
	Run(ctx context.Context, image string, argv ...string) ([]byte, error)
}

// BuildOptions are the options of an image build.
type BuildOptions struct {
	// ContextDir is the build context.
	ContextDir string

	// Dockerfile is the path of the Dockerfile. It may be outside ContextDir.
	Dockerfile string

	// Target is the stage to build.
	Target string

	Tag       string
	BuildArgs map[string]string

	// Contexts are named build contexts, name to directory.
	Contexts map[string]string
}

// Image is an inspected image.
type Image struct {
	ID     string
	Size   int64
	Config ImageConfig
}

// ImageConfig is the runtime configuration of an image.
type ImageConfig struct {
	ExposedPorts map[string]struct{}
	Volumes      map[string]struct{}
	Entrypoint   []string
	Cmd          []string
	Env          []string
	WorkingDir   string
	Labels       map[string]string
}

// Surface returns the part of the configuration that the surface declaration
// governs.
func (c *ImageConfig) Surface() *surface.ImageConfig {
	return &surface.ImageConfig{
		ExposedPorts: c.ExposedPorts,
		Volumes:      c.Volumes,
	}
}
