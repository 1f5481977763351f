// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"

	"github.com/tishareyes/vcash/internal/source"
	"github.com/tishareyes/vcash/pkg/errors"
)

// Artifact is the output of the compile phase: the node binary, extracted
// from the builder image. It is the only input the assemble phase accepts.
type Artifact struct {
	// Path is the path of the artifact in the builder image.
	Path string

	// File is the extracted copy on the host.
	File string

	// Digest is the sha256 digest of the binary, sha256:<hex>.
	Digest string

	Size     int64
	Revision source.Revision
}

// newArtifact checks that file is a single executable regular file and
// digests it.
func newArtifact(path, file string, rev source.Revision) (*Artifact, error) {
	info, err := os.Lstat(file)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil, errors.CompileFailed.WithFormat("artifact %s was not produced", path)
	case err != nil:
		return nil, errors.CompileFailed.WithFormat("stat artifact: %w", err)
	case info.IsDir():
		return nil, errors.CompileFailed.WithFormat("artifact %s is a directory", path)
	case !info.Mode().IsRegular():
		return nil, errors.CompileFailed.WithFormat("artifact %s is not a regular file", path)
	case info.Mode().Perm()&0111 == 0:
		return nil, errors.CompileFailed.WithFormat("artifact %s is not executable", path)
	}

	digest, err := digestFile(file)
	if err != nil {
		return nil, errors.CompileFailed.WithFormat("digest artifact: %w", err)
	}

	return &Artifact{
		Path:     path,
		File:     file,
		Digest:   digest,
		Size:     info.Size(),
		Revision: rev,
	}, nil
}

func digestFile(file string) (string, error) {
	f, err := os.Open(file)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	_, err = io.Copy(h, f)
	if err != nil {
		return "", err
	}
	return "sha256:" + hex.EncodeToString(h.Sum(nil)), nil
}
