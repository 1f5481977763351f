// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package vcash

const unknownVersion = "version unknown"

// Version is set at link time with -ldflags "-X github.com/tishareyes/vcash.Version=...".
var Version = unknownVersion

// Commit is the commit nodeimage was built from, set at link time.
var Commit string

func IsVersionKnown() bool {
	return Version != unknownVersion
}
