// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package errors

import (
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatusIs(t *testing.T) {
	err := CompileFailed.WithFormat("build %s", "grin")
	require.True(t, Is(err, CompileFailed))
	require.False(t, Is(err, AssemblyFailed))
	require.Equal(t, CompileFailed, Code(err))
	require.Equal(t, "build grin", err.Error())
}

func TestWrapKeepsCause(t *testing.T) {
	err := BootstrapFailed.WithFormat("generate config: %w", fs.ErrNotExist)
	require.Contains(t, err.Error(), fs.ErrNotExist.Error())
	require.True(t, Is(err, BootstrapFailed))

	wrapped := UnknownError.WithFormat("entry: %w", err)
	require.Equal(t, BootstrapFailed, Code(wrapped))
}

func TestWrapNil(t *testing.T) {
	require.NoError(t, InternalError.Wrap(nil))
}

func TestCodeOfPlainError(t *testing.T) {
	require.Equal(t, Status(0), Code(fmt.Errorf("plain")))
	require.Equal(t, NotFound, Code(NotFound))
}

func TestPrintIncludesCallSite(t *testing.T) {
	err := AssemblyFailed.With("locale")
	s := fmt.Sprintf("%+v", err)
	require.Contains(t, s, "locale")
	require.Contains(t, s, "errors_test.go")
}

func TestStatusNames(t *testing.T) {
	for _, s := range []Status{ProvisionFailed, CompileFailed, AssemblyFailed, BootstrapFailed} {
		require.True(t, s.IsStageFailure())
		b, err := s.MarshalText()
		require.NoError(t, err)
		var u Status
		require.NoError(t, u.UnmarshalText(b))
		require.Equal(t, s, u)
	}
	require.False(t, BadRequest.IsStageFailure())
}

func TestLocationTracking(t *testing.T) {
	defer EnableLocationTracking()

	err := CompileFailed.With("tracked")
	require.NotEmpty(t, err.CallStack)
	require.Contains(t, fmt.Sprintf("%+v", err), "errors_test.go")

	DisableLocationTracking()
	err = CompileFailed.With("untracked")
	require.Empty(t, err.CallStack)
	require.Equal(t, "untracked", fmt.Sprintf("%+v", err))
}
