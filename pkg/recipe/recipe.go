// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

// Package recipe describes a staged node image build: how the node binary is
// compiled, how the runtime image is assembled around it, how the node
// configuration is bootstrapped, which ports and volume the image declares,
// and how the container hands control to the node.
package recipe

import (
	"io/fs"
	"path"
)

// BootstrapMode selects when the node configuration is generated.
type BootstrapMode string

const (
	// BootstrapOnStart generates the configuration when the container starts
	// and the volume holds no configuration yet.
	BootstrapOnStart BootstrapMode = "start"

	// BootstrapOnBuild generates the configuration while the image is built.
	// Docker seeds new named volumes from the image, so the volume starts out
	// with the generated file.
	BootstrapOnBuild BootstrapMode = "build"
)

type Recipe struct {
	Name      string        `json:"name" validate:"required,hostname_rfc1123"`
	Network   *Network      `json:"network" validate:"required"`
	Build     *BuildStage   `json:"build" validate:"required"`
	Runtime   *RuntimeStage `json:"runtime" validate:"required"`
	Bootstrap *Bootstrap    `json:"bootstrap" validate:"required"`
	Surface   *Surface      `json:"surface" validate:"required"`
	Entry     *Entry        `json:"entry" validate:"required"`

	// DotEnv enables ${VAR} expansion from a .env file next to the recipe.
	DotEnv *bool `json:"dotEnv,omitempty"`

	file string
	fs   fs.FS
}

// Network selects the logical network the node joins.
type Network struct {
	Name string `json:"name" validate:"required"`

	// Flag is the network-selector flag, for example --floonet. It is part of
	// every command the image runs.
	Flag string `json:"flag" validate:"required,startswith=-"`
}

// BuildStage is the toolchain-heavy compile stage.
type BuildStage struct {
	BaseImage string   `json:"baseImage" validate:"required"`
	Packages  []string `json:"packages" validate:"dive,required"`

	// SourceDir is where the source tree is copied in the build image.
	SourceDir string `json:"sourceDir" validate:"required,abspath"`

	// Command is the release build command, in shell-words syntax.
	Command string `json:"command" validate:"required"`

	// ArtifactPath is the build output, relative to SourceDir.
	ArtifactPath string `json:"artifactPath" validate:"required,relpath"`
}

// RuntimeStage is the minimal image the artifact ships in.
type RuntimeStage struct {
	BaseImage string   `json:"baseImage" validate:"required"`
	Packages  []string `json:"packages" validate:"dive,required"`

	// Shared lists build packages that the runtime image may also contain,
	// such as shared libraries the node links against. Any other build
	// package found in the runtime image fails verification.
	Shared []string `json:"shared,omitempty" validate:"dive,required"`

	// Locale is the UTF-8 locale enabled and exported as LANG.
	Locale string `json:"locale" validate:"required"`

	InstallDir string `json:"installDir" validate:"required,abspath"`
	BinaryName string `json:"binaryName" validate:"required,excludes=/"`
}

// Bootstrap describes how the default node configuration is created.
type Bootstrap struct {
	Mode BootstrapMode `json:"mode" validate:"required,oneof=start build"`

	// WorkDir is the node's working directory. It holds the configuration and
	// all persisted node state.
	WorkDir    string `json:"workDir" validate:"required,abspath"`
	ConfigFile string `json:"configFile" validate:"required,excludes=/"`

	// GenerateArgs are the node subcommand that writes a default configuration
	// into the working directory, e.g. server config.
	GenerateArgs []string `json:"generateArgs" validate:"required,min=1"`

	Patch *Patch `json:"patch" validate:"required"`
}

// Patch is the single substitution applied to a freshly generated
// configuration: `Key = From` becomes `Key = To`.
type Patch struct {
	Key  string `json:"key" validate:"required"`
	From string `json:"from" validate:"required"`
	To   string `json:"to" validate:"required,nefield=From"`
}

// Surface is the declared network and persistence surface of the image.
type Surface struct {
	Ports []*Port `json:"ports" validate:"required,min=1,dive,required"`

	// Volume is the mount point holding all persistent state.
	Volume string `json:"volume" validate:"required,abspath"`
}

// Port is a declared port. The image does not bind it; the node does.
type Port struct {
	Number   uint16 `json:"number" validate:"required,min=1"`
	Protocol string `json:"protocol,omitempty" validate:"omitempty,oneof=tcp udp"`
	Role     string `json:"role,omitempty"`
}

// Entry describes the container entrypoint.
type Entry struct {
	// DefaultArgs is the default subcommand tail, e.g. server run. Arguments
	// given when the container starts replace it.
	DefaultArgs []string `json:"defaultArgs" validate:"required,min=1"`

	// Binary is where the nodeimage executable is installed in start mode.
	Binary string `json:"binary,omitempty" validate:"omitempty,abspath"`

	// RecipePath is where the recipe is installed in start mode.
	RecipePath string `json:"recipePath,omitempty" validate:"omitempty,abspath"`
}

// BinaryPath returns the path of the node binary in the runtime image.
func (r *Recipe) BinaryPath() string {
	return path.Join(r.Runtime.InstallDir, r.Runtime.BinaryName)
}

// ArtifactPath returns the path of the build artifact in the build image.
func (r *Recipe) ArtifactPath() string {
	return path.Join(r.Build.SourceDir, r.Build.ArtifactPath)
}

// ConfigPath returns the path of the node configuration in the runtime image.
func (r *Recipe) ConfigPath() string {
	return path.Join(r.Bootstrap.WorkDir, r.Bootstrap.ConfigFile)
}

// EntryBinary returns where the nodeimage executable lives in the image.
func (r *Recipe) EntryBinary() string {
	if r.Entry.Binary != "" {
		return r.Entry.Binary
	}
	return DefaultEntryBinary
}

// EntryRecipePath returns where the recipe is installed in the image.
func (r *Recipe) EntryRecipePath() string {
	if r.Entry.RecipePath != "" {
		return r.Entry.RecipePath
	}
	return DefaultRecipePath
}

// Proto returns the port protocol, defaulting to tcp.
func (p *Port) Proto() string {
	if p.Protocol == "" {
		return "tcp"
	}
	return p.Protocol
}
