// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package internal

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func TestKeyValueFlag(t *testing.T) {
	var m map[string]string
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Var(KeyValueFlag{&m}, "build-arg", "")

	require.NoError(t, fs.Parse([]string{"--build-arg", "B=2", "--build-arg=A=x=y"}))
	require.Equal(t, map[string]string{"A": "x=y", "B": "2"}, m)
	require.Equal(t, "A=x=y,B=2", KeyValueFlag{&m}.String())

	require.Error(t, fs.Parse([]string{"--build-arg", "novalue"}))
	require.Error(t, fs.Parse([]string{"--build-arg", "=v"}))
}

func TestEnumFlag(t *testing.T) {
	format := "toml"
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Var(EnumFlag{&format, []string{"toml", "yaml", "json"}}, "format", "")

	require.NoError(t, fs.Parse([]string{"--format", "yaml"}))
	require.Equal(t, "yaml", format)
	require.Error(t, fs.Parse([]string{"--format", "xml"}))
	require.Equal(t, "yaml", format)
}
