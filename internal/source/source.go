// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

// Package source identifies the revision of a source tree.
package source

import (
	"github.com/tishareyes/vcash/pkg/errors"
	"gopkg.in/src-d/go-git.v4"
	"gopkg.in/src-d/go-git.v4/plumbing"
)

// Revision is the revision of a source tree.
type Revision struct {
	Commit string `json:"commit,omitempty"`
	Dirty  bool   `json:"dirty,omitempty"`
}

// IsZero is true if the tree is not a repository or has no commits.
func (r Revision) IsZero() bool { return r.Commit == "" }

func (r Revision) String() string {
	if r.Commit == "" {
		return "unknown"
	}
	if r.Dirty {
		return r.Commit + "-dirty"
	}
	return r.Commit
}

// Short returns the abbreviated commit hash.
func (r Revision) Short() string {
	s := r.String()
	if len(r.Commit) > 12 {
		s = r.Commit[:12]
		if r.Dirty {
			s += "-dirty"
		}
	}
	return s
}

// Describe returns the revision of the git repository containing dir. If dir
// is not in a repository, or the repository has no commits, it returns the
// zero revision.
func Describe(dir string) (Revision, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	switch {
	case err == nil:
	case errors.Is(err, git.ErrRepositoryNotExists):
		return Revision{}, nil
	default:
		return Revision{}, errors.UnknownError.WithFormat("open repository: %w", err)
	}

	head, err := repo.Head()
	switch {
	case err == nil:
	case errors.Is(err, plumbing.ErrReferenceNotFound):
		return Revision{}, nil
	default:
		return Revision{}, errors.UnknownError.WithFormat("resolve HEAD: %w", err)
	}

	rev := Revision{Commit: head.Hash().String()}
	wt, err := repo.Worktree()
	if err != nil {
		// Bare repository
		return rev, nil
	}
	status, err := wt.Status()
	if err != nil {
		return Revision{}, errors.UnknownError.WithFormat("worktree status: %w", err)
	}
	rev.Dirty = !status.IsClean()
	return rev, nil
}
