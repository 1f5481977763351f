// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package recipe

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/tishareyes/vcash/pkg/errors"
	"gopkg.in/yaml.v3"
)

func (r *Recipe) FilePath() string { return r.file }

// LoadFrom loads a recipe file. The format is selected by the extension.
func LoadFrom(file string) (*Recipe, error) {
	dir, name := filepath.Split(file)
	if dir == "" {
		dir = "."
	}
	r := new(Recipe)
	err := r.LoadFromFS(os.DirFS(dir), name)
	if err != nil {
		return nil, err
	}
	r.file = file
	return r, nil
}

func (r *Recipe) LoadFromFS(fsys fs.FS, file string) error {
	format, err := decoderFor(file)
	if err != nil {
		return err
	}

	f, err := fsys.Open(file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return errors.NotFound.WithFormat("recipe %s: %w", file, err)
		}
		return err
	}
	defer func() { _ = f.Close() }()

	b, err := io.ReadAll(f)
	if err != nil {
		return err
	}

	r.file = file
	r.fs = fsys
	return r.Load(b, format)
}

func (r *Recipe) Load(b []byte, format func([]byte, any) error) error {
	var v any
	err := format(b, &v)
	if err != nil {
		return errors.BadRequest.WithFormat("decode recipe: %w", err)
	}

	v = remap(v, kebab2camel, nil)
	b, err = json.Marshal(v)
	if err != nil {
		return err
	}

	err = json.Unmarshal(b, r)
	if err != nil {
		return errors.BadRequest.WithFormat("decode recipe: %w", err)
	}

	return r.applyDotEnv()
}

func (r *Recipe) applyDotEnv() error {
	if r.DotEnv == nil || !*r.DotEnv {
		return nil
	}
	if r.fs == nil {
		return errors.BadRequest.With("dot-env requires a recipe loaded from a file")
	}

	file := ".env"
	if r.file != "" {
		file = filepath.ToSlash(filepath.Join(filepath.Dir(r.file), file))
	}

	var expand func(name string) string
	var errs []error

	f, err := r.fs.Open(file)
	switch {
	case err == nil:
		defer func() { _ = f.Close() }()

		env, err := godotenv.Parse(f)
		if err != nil {
			return err
		}

		expand = func(name string) string {
			value, ok := env[name]
			if ok {
				return value
			}
			errs = append(errs, fmt.Errorf("%q is not defined", name))
			return fmt.Sprintf("#!MISSING(%q)", name)
		}

	case errors.Is(err, fs.ErrNotExist):
		// Only return an error if there is at least one ${ENV}
		expand = func(name string) string {
			if len(errs) == 0 {
				errs = append(errs, err)
			}
			return fmt.Sprintf("#!MISSING(%q)", name)
		}

	default:
		return err
	}

	expandEnv(reflect.ValueOf(r), expand)
	return errors.Join(errs...)
}

// SaveTo writes the recipe. The format is selected by the extension.
func (r *Recipe) SaveTo(file string) error {
	format, err := encoderFor(file)
	if err != nil {
		return err
	}

	b, err := r.Marshal(format)
	if err != nil {
		return err
	}

	return os.WriteFile(file, b, 0644)
}

// Marshal encodes the recipe with kebab-case keys.
func (r *Recipe) Marshal(format func(any) ([]byte, error)) ([]byte, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}

	var v any
	err = json.Unmarshal(b, &v)
	if err != nil {
		return nil, err
	}

	v = remap(v, camel2kebab, float2int)
	return format(v)
}

// Encoder returns the encoder for the named format (toml, yaml, or json).
func Encoder(format string) (func(any) ([]byte, error), error) {
	return encoderFor("recipe." + format)
}

func MarshalTOML(a any) ([]byte, error) {
	b := new(bytes.Buffer)
	e := toml.NewEncoder(b)
	err := e.Encode(a)
	return b.Bytes(), err
}

func marshalJSON(a any) ([]byte, error) {
	return json.MarshalIndent(a, "", "  ")
}

func decoderFor(file string) (func([]byte, any) error, error) {
	switch s := filepath.Ext(file); s {
	case ".toml", ".tml", ".ini":
		return toml.Unmarshal, nil
	case ".yaml", ".yml":
		return yaml.Unmarshal, nil
	case ".json":
		return json.Unmarshal, nil
	default:
		return nil, errors.BadRequest.WithFormat("unknown file type %s", s)
	}
}

func encoderFor(file string) (func(any) ([]byte, error), error) {
	switch s := filepath.Ext(file); s {
	case ".toml", ".tml", ".ini":
		return MarshalTOML, nil
	case ".yaml", ".yml":
		return yaml.Marshal, nil
	case ".json":
		return marshalJSON, nil
	default:
		return nil, errors.BadRequest.WithFormat("unknown file type %s", s)
	}
}

func remap(v any, mapKey func(string) string, mapValue func(reflect.Value) any) any {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice:
		u := make([]any, rv.Len())
		for i := range u {
			u[i] = remap(rv.Index(i).Interface(), mapKey, mapValue)
		}
		return u

	case reflect.Map:
		u := make(map[string]any, rv.Len())
		for it := rv.MapRange(); it.Next(); {
			u[mapKey(fmt.Sprint(it.Key().Interface()))] = remap(it.Value().Interface(), mapKey, mapValue)
		}
		return u

	default:
		if mapValue != nil && rv.IsValid() {
			return mapValue(rv)
		}
		return v
	}
}

var reKebab = regexp.MustCompile(`-[a-z]`)
var reCamel = regexp.MustCompile(`[a-z][A-Z]+`)

func kebab2camel(s string) string {
	return reKebab.ReplaceAllStringFunc(s, func(s string) string {
		return strings.ToUpper(s[1:])
	})
}

func camel2kebab(s string) string {
	return strings.ToLower(reCamel.ReplaceAllStringFunc(s, func(s string) string {
		return s[:1] + "-" + s[1:]
	}))
}

func float2int(v reflect.Value) any {
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		// If the float has no fractional part, convert it to an int
		v := v.Float()
		if v == float64(int64(v)) {
			return int64(v)
		}
		return v
	default:
		return v.Interface()
	}
}

func expandEnv(v reflect.Value, expand func(string) string) {
	switch v.Kind() {
	case reflect.String:
		s := v.String()
		s = os.Expand(s, expand)
		v.SetString(s)

	case reflect.Pointer, reflect.Interface:
		expandEnv(v.Elem(), expand)

	case reflect.Slice, reflect.Array:
		for i, n := 0, v.Len(); i < n; i++ {
			expandEnv(v.Index(i), expand)
		}

	case reflect.Struct:
		typ := v.Type()
		for i, n := 0, typ.NumField(); i < n; i++ {
			if typ.Field(i).IsExported() {
				expandEnv(v.Field(i), expand)
			}
		}
	}
}
