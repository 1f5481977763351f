// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package errors

import (
	"fmt"
	"strings"
)

// Status is a pipeline status code.
type Status uint64

const (
	// OK means the operation succeeded.
	OK Status = 200

	// BadRequest means the request (recipe, flags, arguments) is invalid.
	BadRequest Status = 400

	// NotFound means a required file, image, or record does not exist.
	NotFound Status = 404

	// Conflict means the request conflicts with existing state.
	Conflict Status = 409

	// InternalError means something went wrong inside nodeimage itself.
	InternalError Status = 500

	// UnknownError means the cause of the failure is not known.
	UnknownError Status = 501

	// ProvisionFailed means installing the build-time packages failed.
	ProvisionFailed Status = 520

	// CompileFailed means the release build failed or did not produce the
	// expected artifact.
	CompileFailed Status = 521

	// AssemblyFailed means assembling or verifying the runtime image failed.
	AssemblyFailed Status = 522

	// BootstrapFailed means generating or patching the node configuration
	// failed.
	BootstrapFailed Status = 523

	// EngineFailed means the container engine could not be invoked.
	EngineFailed Status = 524
)

var statusNames = map[Status]string{
	OK:              "ok",
	BadRequest:      "badRequest",
	NotFound:        "notFound",
	Conflict:        "conflict",
	InternalError:   "internalError",
	UnknownError:    "unknownError",
	ProvisionFailed: "provisionFailed",
	CompileFailed:   "compileFailed",
	AssemblyFailed:  "assemblyFailed",
	BootstrapFailed: "bootstrapFailed",
	EngineFailed:    "engineFailed",
}

// String returns the name of the status.
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status:%d", uint64(s))
}

// StatusByName returns the named status.
func StatusByName(name string) (Status, bool) {
	for s, n := range statusNames {
		if strings.EqualFold(n, name) {
			return s, true
		}
	}
	return 0, false
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(b []byte) error {
	v, ok := StatusByName(string(b))
	if !ok {
		return fmt.Errorf("invalid status %q", b)
	}
	*s = v
	return nil
}
