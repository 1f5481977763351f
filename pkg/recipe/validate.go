// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package recipe

import (
	"fmt"
	"path"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/tishareyes/vcash/pkg/errors"
	"golang.org/x/exp/slices"
)

// buildOnly lists packages that only belong in a build image. Any package
// ending in -dev is also treated as build-only.
var buildOnly = map[string]bool{
	"build-essential": true,
	"clang":           true,
	"cmake":           true,
	"g++":             true,
	"gcc":             true,
	"git":             true,
	"llvm":            true,
	"make":            true,
	"pkg-config":      true,
}

// IsBuildOnly returns true if the package is build tooling that must never
// reach the runtime image.
func IsBuildOnly(pkg string) bool {
	return buildOnly[pkg] || strings.HasSuffix(pkg, "-dev")
}

// IsBuildPackage returns true if the package must not be installed in the
// runtime image: build tooling, or a package of the build stage that is not
// listed as shared.
func (r *Recipe) IsBuildPackage(pkg string) bool {
	if IsBuildOnly(pkg) {
		return true
	}
	return slices.Contains(r.Build.Packages, pkg) && !slices.Contains(r.Runtime.Shared, pkg)
}

var validate = sync.OnceValues(newValidator)

func newValidator() (*validator.Validate, error) {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return camel2kebab(name)
	})

	err := v.RegisterValidation("abspath", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return path.IsAbs(s) && path.Clean(s) == s
	})
	if err != nil {
		return nil, err
	}

	err = v.RegisterValidation("relpath", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return !path.IsAbs(s) && path.Clean(s) == s && !strings.HasPrefix(s, "../") && s != ".."
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Validate checks the recipe's fields and the invariants between stages.
func (r *Recipe) Validate() error {
	v, err := validate()
	if err != nil {
		return errors.InternalError.WithFormat("create validator: %w", err)
	}

	var errs []string
	err = v.Struct(r)
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range verrs {
			errs = append(errs, fmt.Sprintf("%s: failed %q", strings.TrimPrefix(e.Namespace(), "Recipe."), e.Tag()))
		}
	} else if err != nil {
		return errors.BadRequest.WithFormat("invalid recipe: %w", err)
	}

	// Nested checks need the stages to be present
	if len(errs) > 0 {
		return errors.BadRequest.WithFormat("invalid recipe: %s", strings.Join(errs, "; "))
	}

	// The runtime image must not contain build tooling
	build := map[string]bool{}
	for _, p := range r.Build.Packages {
		build[p] = true
	}
	for _, p := range r.Runtime.Packages {
		if build[p] || IsBuildOnly(p) {
			errs = append(errs, fmt.Sprintf("runtime package %s is build-only", p))
		}
	}

	for _, p := range r.Runtime.Shared {
		switch {
		case IsBuildOnly(p):
			errs = append(errs, fmt.Sprintf("shared package %s is build-only", p))
		case !build[p]:
			errs = append(errs, fmt.Sprintf("shared package %s is not a build package", p))
		}
	}

	// Ports must be unique per protocol
	seen := map[string]bool{}
	for _, p := range r.Surface.Ports {
		k := fmt.Sprintf("%d/%s", p.Number, p.Proto())
		if seen[k] {
			errs = append(errs, fmt.Sprintf("port %s is declared twice", k))
		}
		seen[k] = true
	}

	// The configuration lives on the volume
	if !within(r.Bootstrap.WorkDir, r.Surface.Volume) {
		errs = append(errs, fmt.Sprintf("work dir %s is not on volume %s", r.Bootstrap.WorkDir, r.Surface.Volume))
	}

	// The artifact must not be copied over the entry binary
	if r.Bootstrap.Mode == BootstrapOnStart && r.BinaryPath() == r.EntryBinary() {
		errs = append(errs, fmt.Sprintf("node binary and entry binary are both %s", r.BinaryPath()))
	}

	if len(errs) > 0 {
		sort.Strings(errs)
		return errors.BadRequest.WithFormat("invalid recipe: %s", strings.Join(errs, "; "))
	}
	return nil
}

func within(dir, root string) bool {
	return dir == root || strings.HasPrefix(dir, strings.TrimSuffix(root, "/")+"/")
}
