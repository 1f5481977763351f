// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package cmdutil

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// Debug prints errors with their call stacks.
var Debug bool

var exit = os.Exit
var stderr io.Writer = os.Stderr

func Fatalf(format string, args ...interface{}) {
	fmt.Fprintf(stderr, "Error: "+format+"\n", args...)
	exit(1)
}

func Check(err error) {
	if err == nil {
		return
	}
	if Debug {
		Fatalf("%+v", err)
	} else {
		Fatalf("%v", err)
	}
}

func Checkf(err error, format string, otherArgs ...interface{}) {
	if err != nil {
		Fatalf(format+": %v", append(otherArgs, err)...)
	}
}

func Warnf(format string, args ...interface{}) {
	format = "WARNING: " + format + "\n"
	if IsTerminal(os.Stderr) {
		fmt.Fprint(stderr, color.RedString(format, args...))
	} else {
		fmt.Fprintf(stderr, format, args...)
	}
}

// Verdict prints a pass or fail line, colored on a terminal.
func Verdict(w io.Writer, ok bool, format string, args ...interface{}) {
	mark, paint := "PASS", color.GreenString
	if !ok {
		mark, paint = "FAIL", color.RedString
	}
	line := fmt.Sprintf(mark+"  "+format, args...)
	if f, isFile := w.(*os.File); isFile && IsTerminal(f) {
		line = paint("%s", line)
	}
	fmt.Fprintln(w, line)
}

// IsTerminal returns true if f is a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
