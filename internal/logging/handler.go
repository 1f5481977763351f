// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tishareyes/vcash/pkg/errors"
)

// Rule sets the level of a module, or the default level if Module is empty.
type Rule struct {
	Module string
	Level  slog.Level
}

// Options configures the process logger.
type Options struct {
	// Format is text (or plain) or json.
	Format string

	// Rules are level rules. The last rule for a module wins.
	Rules []Rule

	// NoColor disables colors in text output.
	NoColor bool
}

// ParseRules parses a string such as "info;pipeline=debug" into level rules.
func ParseRules(s string) ([]Rule, error) {
	var rules []Rule
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ';' || r == ',' }) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		var module, level string
		if i := strings.IndexByte(part, '='); i >= 0 {
			module, level = part[:i], part[i+1:]
		} else {
			level = part
		}
		if module == "*" {
			module = ""
		}

		var l slog.Level
		err := l.UnmarshalText([]byte(level))
		if err != nil {
			return nil, errors.BadRequest.WithFormat("invalid log level %q: %w", level, err)
		}
		rules = append(rules, Rule{Module: strings.ToLower(module), Level: l})
	}
	return rules, nil
}

// New creates a logger that writes to w.
func New(w io.Writer, opts Options) (*slog.Logger, error) {
	defaultLevel := slog.LevelInfo
	lowestLevel := slog.LevelError
	modules := map[string]slog.Level{}
	for _, r := range opts.Rules {
		if r.Module == "" {
			defaultLevel = r.Level
		} else {
			modules[strings.ToLower(r.Module)] = r.Level
		}
	}
	if defaultLevel < lowestLevel {
		lowestLevel = defaultLevel
	}
	for _, l := range modules {
		if l < lowestLevel {
			lowestLevel = l
		}
	}

	hopts := &slog.HandlerOptions{
		Level: lowestLevel,
	}

	var h slog.Handler
	switch opts.Format {
	case "", "text", "plain":
		// Use zerolog's console writer to write pretty logs
		hopts.ReplaceAttr = func(groups []string, a slog.Attr) slog.Attr {
			if a.Key != "msg" {
				return a
			}
			if a.Value.Kind() == slog.KindString {
				return slog.Any("message", a.Value)
			}
			return slog.String("message", fmt.Sprint(a.Value.Any()))
		}
		h = slog.NewJSONHandler(&zerolog.ConsoleWriter{
			Out:        w,
			NoColor:    opts.NoColor,
			TimeFormat: time.RFC3339,
			FormatLevel: func(i interface{}) string {
				if ll, ok := i.(string); ok {
					return strings.ToUpper(ll)
				}
				return "????"
			},
			FormatMessage: func(i interface{}) string {
				s, ok := i.(string)
				if ok {
					return s
				}
				return fmt.Sprint(i)
			},
		}, hopts)
	case "json":
		h = slog.NewJSONHandler(w, hopts)
	default:
		return nil, errors.BadRequest.WithFormat("log format %q is not supported", opts.Format)
	}

	return slog.New(&logHandler{
		handler:      h,
		defaultLevel: defaultLevel,
		lowestLevel:  lowestLevel,
		modules:      modules,
	}), nil
}

type logHandler struct {
	handler      slog.Handler
	defaultLevel slog.Level
	lowestLevel  slog.Level
	modules      map[string]slog.Level
	module       string
}

func (h *logHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	i := *h
	i.handler = h.handler.WithAttrs(attrs)
	for _, a := range attrs {
		if a.Key == "module" {
			i.module = strings.ToLower(a.Value.String())
		}
	}
	return &i
}

func (h *logHandler) WithGroup(name string) slog.Handler {
	i := *h
	i.handler = h.handler.WithGroup(name)
	return &i
}

func (h *logHandler) Enabled(ctx context.Context, level slog.Level) bool {
	if level < h.lowestLevel {
		return false
	}
	return h.handler.Enabled(ctx, level)
}

func (h *logHandler) Handle(ctx context.Context, record slog.Record) error {
	if record.Level < h.levelFor(record) {
		return nil
	}
	if attrs := Attrs(ctx); len(attrs) > 0 {
		record = record.Clone()
		record.AddAttrs(attrs...)
	}
	return h.handler.Handle(ctx, record)
}

func (h *logHandler) levelFor(record slog.Record) slog.Level {
	module := h.module
	record.Attrs(func(a slog.Attr) bool {
		if a.Key != "module" {
			return true
		}
		module = strings.ToLower(a.Value.String())
		return false
	})
	if l, ok := h.modules[module]; ok && module != "" {
		return l
	}
	return h.defaultLevel
}
