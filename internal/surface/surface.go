// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

// Package surface renders and checks the declared network and persistence
// surface of a node image. It never binds sockets or touches the volume.
package surface

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/tishareyes/vcash/pkg/errors"
	"github.com/tishareyes/vcash/pkg/recipe"
)

// ImageConfig is the part of an image's configuration the surface is checked
// against.
type ImageConfig struct {
	ExposedPorts map[string]struct{}
	Volumes      map[string]struct{}
}

// ExposeSpecs returns the declared ports as port/protocol specs, sorted.
func ExposeSpecs(s *recipe.Surface) []string {
	specs := make([]string, 0, len(s.Ports))
	for _, p := range s.Ports {
		specs = append(specs, spec(p))
	}
	sort.Slice(specs, func(i, j int) bool { return lessSpec(specs[i], specs[j]) })
	return specs
}

func spec(p *recipe.Port) string {
	return fmt.Sprintf("%d/%s", p.Number, p.Proto())
}

func lessSpec(a, b string) bool {
	na, pa, _ := strings.Cut(a, "/")
	nb, pb, _ := strings.Cut(b, "/")
	ia, _ := strconv.Atoi(na)
	ib, _ := strconv.Atoi(nb)
	if ia != ib {
		return ia < ib
	}
	return pa < pb
}

// Check returns an error unless the image exposes exactly the declared ports
// and declares exactly the declared volume.
func Check(s *recipe.Surface, img *ImageConfig) error {
	var problems []string

	want := map[string]bool{}
	for _, p := range ExposeSpecs(s) {
		want[p] = true
		if _, ok := img.ExposedPorts[p]; !ok {
			problems = append(problems, "missing port "+p)
		}
	}
	for _, p := range sortedKeys(img.ExposedPorts) {
		if !want[p] {
			problems = append(problems, "unexpected port "+p)
		}
	}

	if _, ok := img.Volumes[s.Volume]; !ok {
		problems = append(problems, "missing volume "+s.Volume)
	}
	for _, v := range sortedKeys(img.Volumes) {
		if v != s.Volume {
			problems = append(problems, "unexpected volume "+v)
		}
	}

	if len(problems) > 0 {
		return errors.AssemblyFailed.WithFormat("surface mismatch: %s", strings.Join(problems, ", "))
	}
	return nil
}

// WriteTable writes the declared surface as a table.
func WriteTable(w io.Writer, s *recipe.Surface) {
	tw := tablewriter.NewWriter(w)
	tw.SetHeader([]string{"Port", "Protocol", "Role"})
	tw.SetAutoFormatHeaders(false)
	tw.SetBorder(false)

	ports := make([]*recipe.Port, len(s.Ports))
	copy(ports, s.Ports)
	sort.Slice(ports, func(i, j int) bool { return lessSpec(spec(ports[i]), spec(ports[j])) })
	for _, p := range ports {
		role := p.Role
		if role == "" {
			role = "-"
		}
		tw.Append([]string{strconv.Itoa(int(p.Number)), p.Proto(), role})
	}
	tw.Render()
	fmt.Fprintf(w, "\nVolume: %s\n", s.Volume)
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
