// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package internal

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// KeyValueFlag collects repeated KEY=VALUE flags into a map.
type KeyValueFlag struct {
	Value *map[string]string
}

var _ pflag.Value = KeyValueFlag{}

func (m KeyValueFlag) Type() string { return "key=value" }

func (m KeyValueFlag) String() string {
	if m.Value == nil || len(*m.Value) == 0 {
		return ""
	}
	keys := maps.Keys(*m.Value)
	slices.Sort(keys)
	for i, k := range keys {
		keys[i] = k + "=" + (*m.Value)[k]
	}
	return strings.Join(keys, ",")
}

func (m KeyValueFlag) Set(s string) error {
	k, v, ok := strings.Cut(s, "=")
	if !ok || k == "" {
		return fmt.Errorf("%q is not KEY=VALUE", s)
	}
	if *m.Value == nil {
		*m.Value = map[string]string{}
	}
	(*m.Value)[k] = v
	return nil
}

// EnumFlag is a string flag restricted to a set of values.
type EnumFlag struct {
	Value   *string
	Allowed []string
}

var _ pflag.Value = EnumFlag{}

func (e EnumFlag) Type() string { return strings.Join(e.Allowed, "|") }

func (e EnumFlag) String() string {
	if e.Value == nil {
		return ""
	}
	return *e.Value
}

func (e EnumFlag) Set(s string) error {
	for _, a := range e.Allowed {
		if s == a {
			*e.Value = s
			return nil
		}
	}
	return fmt.Errorf("must be one of %s", strings.Join(e.Allowed, ", "))
}
