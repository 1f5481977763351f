// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package surface

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tishareyes/vcash/pkg/errors"
	"github.com/tishareyes/vcash/pkg/recipe"
)

func TestExposeSpecs(t *testing.T) {
	s := recipe.Default().Surface
	require.Equal(t, []string{"13413/tcp", "13414/tcp", "13415/tcp", "13416/tcp"}, ExposeSpecs(s))

	s.Ports = []*recipe.Port{{Number: 9000, Protocol: "udp"}, {Number: 80}}
	require.Equal(t, []string{"80/tcp", "9000/udp"}, ExposeSpecs(s))
}

func TestCheck(t *testing.T) {
	s := recipe.Default().Surface
	img := &ImageConfig{
		ExposedPorts: map[string]struct{}{
			"13413/tcp": {}, "13414/tcp": {}, "13415/tcp": {}, "13416/tcp": {},
		},
		Volumes: map[string]struct{}{"/root/.grin": {}},
	}
	require.NoError(t, Check(s, img))

	delete(img.ExposedPorts, "13416/tcp")
	img.ExposedPorts["8080/tcp"] = struct{}{}
	img.Volumes["/data"] = struct{}{}
	err := Check(s, img)
	require.True(t, errors.Is(err, errors.AssemblyFailed))
	require.EqualError(t, err, "surface mismatch: missing port 13416/tcp, unexpected port 8080/tcp, unexpected volume /data")
}

func TestWriteTable(t *testing.T) {
	buf := new(bytes.Buffer)
	WriteTable(buf, recipe.Default().Surface)
	require.Contains(t, buf.String(), "13414")
	require.Contains(t, buf.String(), "p2p")
	require.Contains(t, buf.String(), "Volume: /root/.grin")
}
