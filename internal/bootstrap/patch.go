// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package bootstrap

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml"
	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/tishareyes/vcash/pkg/errors"
	"github.com/tishareyes/vcash/pkg/recipe"
	"gopkg.in/src-d/go-git.v4/utils/diff"
)

func linePattern(key, value string) *regexp.Regexp {
	return regexp.MustCompile(`(?m)^([ \t]*` + regexp.QuoteMeta(key) + `[ \t]*=[ \t]*)` + regexp.QuoteMeta(value) + `([ \t]*(?:#.*)?)$`)
}

func keyPattern(key string) *regexp.Regexp {
	return regexp.MustCompile(`(?m)^[ \t]*` + regexp.QuoteMeta(key) + `[ \t]*=[ \t]*(.*?)[ \t]*(?:#.*)?$`)
}

// Apply substitutes `key = from` with `key = to`. Exactly one line must match.
// Indentation and trailing comments are preserved.
func Apply(doc []byte, p *recipe.Patch) ([]byte, error) {
	from := linePattern(p.Key, p.From)
	matches := from.FindAllIndex(doc, -1)
	switch len(matches) {
	case 1:
		return from.ReplaceAll(doc, []byte("${1}"+p.To+"${2}")), nil
	case 0:
		// Report what is there instead
	default:
		return nil, errors.BootstrapFailed.WithFormat("%s = %s appears %d times", p.Key, p.From, len(matches))
	}

	if linePattern(p.Key, p.To).Match(doc) {
		return nil, errors.BootstrapFailed.WithFormat("%s is unexpectedly already %s", p.Key, p.To)
	}
	if m := keyPattern(p.Key).FindSubmatch(doc); m != nil {
		return nil, errors.BootstrapFailed.WithFormat("%s has unexpected value %s", p.Key, m[1])
	}
	return nil, errors.BootstrapFailed.WithFormat("%s not found", p.Key)
}

// Verify checks that doc is well-formed TOML in which the patch key holds the
// patched value.
func Verify(doc []byte, p *recipe.Patch) error {
	tree, err := toml.LoadBytes(doc)
	if err != nil {
		return errors.BootstrapFailed.WithFormat("patched config is malformed: %w", err)
	}

	values := find(tree, p.Key)
	switch len(values) {
	case 0:
		return errors.BootstrapFailed.WithFormat("patched config has no %s", p.Key)
	case 1:
	default:
		return errors.BootstrapFailed.WithFormat("patched config has %d %s keys", len(values), p.Key)
	}

	if !sameValue(values[0], p.To) {
		return errors.BootstrapFailed.WithFormat("patched config has %s = %v, want %s", p.Key, values[0], p.To)
	}
	return nil
}

func find(tree *toml.Tree, key string) []interface{} {
	var values []interface{}
	for _, k := range tree.Keys() {
		switch v := tree.Get(k).(type) {
		case *toml.Tree:
			values = append(values, find(v, key)...)
		case []*toml.Tree:
			for _, t := range v {
				values = append(values, find(t, key)...)
			}
		default:
			if k == key {
				values = append(values, v)
			}
		}
	}
	return values
}

func sameValue(v interface{}, literal string) bool {
	if s, ok := v.(string); ok {
		return s == strings.Trim(literal, `"'`)
	}
	return fmt.Sprint(v) == literal
}

// SedExpression returns the patch as a sed substitution, for images that
// bootstrap at build time.
func SedExpression(p *recipe.Patch) string {
	return fmt.Sprintf(`s/^\([[:space:]]*%s[[:space:]]*=[[:space:]]*\)%s\([[:space:]]*\(#.*\)\{0,1\}\)$/\1%s\2/`,
		sedPattern.Replace(p.Key), sedPattern.Replace(p.From), sedReplacement.Replace(p.To))
}

// SedFromCheck returns a grep pattern that matches the line to patch. Like
// [Apply], a build-time bootstrap requires exactly one match.
func SedFromCheck(p *recipe.Patch) string {
	return sedLine(p.Key, p.From)
}

// SedCheck returns a grep pattern that matches the patched line.
func SedCheck(p *recipe.Patch) string {
	return sedLine(p.Key, p.To)
}

func sedLine(key, value string) string {
	return fmt.Sprintf(`^[[:space:]]*%s[[:space:]]*=[[:space:]]*%s[[:space:]]*\(#.*\)\{0,1\}$`, sedPattern.Replace(key), sedPattern.Replace(value))
}

var sedPattern = strings.NewReplacer(`\`, `\\`, `/`, `\/`, `.`, `\.`, `*`, `\*`, `[`, `\[`, `]`, `\]`, `^`, `\^`, `$`, `\$`)
var sedReplacement = strings.NewReplacer(`\`, `\\`, `/`, `\/`, `&`, `\&`)

// Diff renders a line diff of two documents, one changed line per row.
func Diff(before, after string) string {
	var sb strings.Builder
	for _, d := range diff.Do(before, after) {
		var prefix string
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		default:
			continue
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			sb.WriteString(prefix)
			sb.WriteString(strings.TrimSuffix(line, "\n"))
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
