// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package logging

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
)

// LineWriter is an io.Writer that logs every complete line written to it as
// a separate record. Call Flush to log a trailing partial line.
type LineWriter struct {
	Logger *slog.Logger
	Level  slog.Level
	Ctx    context.Context

	mu  sync.Mutex
	buf bytes.Buffer
}

func (w *LineWriter) Write(b []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf.Write(b)
	for {
		i := bytes.IndexByte(w.buf.Bytes(), '\n')
		if i < 0 {
			break
		}
		line := string(bytes.TrimRight(w.buf.Next(i+1), "\r\n"))
		w.log(line)
	}
	return len(b), nil
}

// Flush logs any buffered partial line.
func (w *LineWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.buf.Len() == 0 {
		return
	}
	w.log(w.buf.String())
	w.buf.Reset()
}

func (w *LineWriter) log(line string) {
	if line == "" || w.Logger == nil {
		return
	}
	ctx := w.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	w.Logger.Log(ctx, w.Level, line)
}
