// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package recipe

const (
	DefaultEntryBinary = "/usr/local/bin/nodeimage"
	DefaultRecipePath  = "/etc/nodeimage/recipe.toml"
)

// Port roles.
const (
	RoleP2P       = "p2p"
	RoleAPI       = "api"
	RoleAuxiliary = "auxiliary"
)

// Default returns the recipe for a grin node joining Floonet.
func Default() *Recipe {
	return &Recipe{
		Name: "grin",
		Network: &Network{
			Name: "floonet",
			Flag: "--floonet",
		},
		Build: &BuildStage{
			BaseImage: "rust:1.35",
			Packages: []string{
				"clang",
				"libclang-dev",
				"llvm-dev",
				"libncurses5",
				"libncursesw5",
				"cmake",
				"git",
			},
			SourceDir:    "/usr/src/grin",
			Command:      "cargo build --release",
			ArtifactPath: "target/release/grin",
		},
		Runtime: &RuntimeStage{
			BaseImage:  "debian:9.4",
			Packages:   []string{"locales", "openssl"},
			Shared:     []string{"libncurses5", "libncursesw5"},
			Locale:     "en_US.UTF-8",
			InstallDir: "/usr/local/bin",
			BinaryName: "grin",
		},
		Bootstrap: &Bootstrap{
			Mode:         BootstrapOnStart,
			WorkDir:      "/root/.grin",
			ConfigFile:   "grin-server.toml",
			GenerateArgs: []string{"server", "config"},
			Patch: &Patch{
				Key:  "run_tui",
				From: "true",
				To:   "false",
			},
		},
		Surface: &Surface{
			Ports: []*Port{
				{Number: 13413, Protocol: "tcp", Role: RoleAPI},
				{Number: 13414, Protocol: "tcp", Role: RoleP2P},
				{Number: 13415, Protocol: "tcp", Role: RoleAuxiliary},
				{Number: 13416, Protocol: "tcp", Role: RoleAuxiliary},
			},
			Volume: "/root/.grin",
		},
		Entry: &Entry{
			DefaultArgs: []string{"server", "run"},
		},
	}
}
