// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package logging

import (
	"io"
	"log/slog"
	"strings"
	"testing"
)

type TestLogger struct {
	Test testing.TB
}

var _ io.Writer = (*TestLogger)(nil)

func (l *TestLogger) Write(b []byte) (int, error) {
	s := string(b)
	if strings.HasSuffix(s, "\n") {
		s = s[:len(s)-1]
	}
	l.Test.Log(s)
	return len(b), nil
}

// NewTestLogger returns a debug-level logger that writes to the test log.
func NewTestLogger(t testing.TB) *slog.Logger {
	logger, err := New(&TestLogger{Test: t}, Options{
		Format:  "text",
		NoColor: true,
		Rules:   []Rule{{Level: slog.LevelDebug}},
	})
	if err != nil {
		t.Fatal(err)
	}
	return logger
}
