// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package records

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/tishareyes/vcash/pkg/errors"
)

func openLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "state", "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestPutGet(t *testing.T) {
	l := openLedger(t)

	b := &Build{
		Recipe:         "grin",
		Network:        "floonet",
		Image:          "grin:floonet",
		ArtifactDigest: "sha256:00ff",
		Started:        time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Duration:       90 * time.Second,
		Phases:         map[string]time.Duration{"compile": time.Minute},
		Status:         errors.CompileFailed,
		Error:          "cargo failed",
	}
	require.NoError(t, l.Put(b))
	require.NotEqual(t, uuid.Nil, b.ID)

	got, err := l.Get(b.ID)
	require.NoError(t, err)
	require.Equal(t, b, got)
}

func TestPutDoesNotOverwrite(t *testing.T) {
	l := openLedger(t)

	b := &Build{Recipe: "grin", Status: errors.OK}
	require.NoError(t, l.Put(b))

	dup := &Build{ID: b.ID, Recipe: "other", Status: errors.CompileFailed}
	err := l.Put(dup)
	require.Error(t, err)
	require.Equal(t, errors.Conflict, errors.Code(err))

	got, err := l.Get(b.ID)
	require.NoError(t, err)
	require.Equal(t, "grin", got.Recipe)
}

func TestGetMissing(t *testing.T) {
	l := openLedger(t)
	_, err := l.Get(NewID())
	require.Error(t, err)
	require.Equal(t, errors.NotFound, errors.Code(err))
}

func TestListNewestFirst(t *testing.T) {
	l := openLedger(t)

	var ids []uuid.UUID
	for i := 0; i < 5; i++ {
		b := &Build{Recipe: "grin", Status: errors.OK}
		require.NoError(t, l.Put(b))
		ids = append(ids, b.ID)
		time.Sleep(2 * time.Millisecond)
	}

	list, err := l.List(0)
	require.NoError(t, err)
	require.Len(t, list, 5)
	for i, b := range list {
		require.Equal(t, ids[len(ids)-1-i], b.ID)
	}

	list, err = l.List(2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, ids[4], list[0].ID)
}

func TestReopen(t *testing.T) {
	file := filepath.Join(t.TempDir(), "ledger.db")
	l, err := Open(file)
	require.NoError(t, err)
	b := &Build{Recipe: "grin", Status: errors.OK}
	require.NoError(t, l.Put(b))
	require.NoError(t, l.Close())

	l, err = Open(file)
	require.NoError(t, err)
	defer l.Close()
	got, err := l.Get(b.ID)
	require.NoError(t, err)
	require.Equal(t, "grin", got.Recipe)
}
