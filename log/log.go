// Copyright (c) 2025-present deep.rent GmbH (https://deep.rent)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package log builds slog.Logger instances through functional options and
// helps keep sensitive configuration out of log output.
//
// # Usage
//
// A logger at debug level printing JSON to the standard output:
//
//	logger := log.New(
//		log.WithLevel("debug"),
//		log.WithFormat("json"),
//	)
//
// The same settings can be taken from configuration keys log.level,
// log.format and log.source:
//
//	logger := log.New(log.FromLookup(environment.Get)...)
//
// Values marked as secret are wrapped with Secret before being logged:
//
//	logger.Debug("Resolved value", "name", name, "value", log.Secret(raw))
//
// # Conventions
//
// Stick to the following rules to keep log output consistent:
//
//   - Format attribute keys in lower camelCase.
//   - Prefer longer keys over abbreviations (e.g., "error" over "err").
//   - Capitalize the first letter of every log message.
//   - Do not end log messages with punctuation.
package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Default configuration values for a new logger.
const (
	DefaultLevel     = slog.LevelInfo
	DefaultAddSource = false
	DefaultFormat    = FormatText
)

// Redacted replaces secret values in log output.
const Redacted = "[REDACTED]"

// Configuration keys read by FromLookup.
const (
	KeyLevel  = "log.level"
	KeyFormat = "log.format"
	KeySource = "log.source"
)

// Format defines the log output format, such as JSON or plain text.
type Format uint8

const (
	FormatText Format = iota // Human-readable text format.
	FormatJSON               // JSON format, suitable for structured logging.
)

// String returns the lower-case string representation of the log format.
func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	default:
		return "text"
	}
}

// New creates and configures a new slog.Logger. By default, it logs at
// slog.LevelInfo in plain text to os.Stdout, without source information.
func New(opts ...Option) *slog.Logger {
	c := config{
		Level:     DefaultLevel,
		AddSource: DefaultAddSource,
		Format:    DefaultFormat,
		Writer:    os.Stdout,
	}
	for _, opt := range opts {
		opt(&c)
	}

	o := &slog.HandlerOptions{
		Level:     c.Level,
		AddSource: c.AddSource,
	}

	var handler slog.Handler
	switch c.Format {
	case FormatJSON:
		handler = slog.NewJSONHandler(c.Writer, o)
	default:
		handler = slog.NewTextHandler(c.Writer, o)
	}

	return slog.New(handler)
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

type config struct {
	Level     slog.Level
	AddSource bool
	Format    Format
	Writer    io.Writer
}

// Option defines a function that modifies the logger configuration.
type Option func(*config)

// WithLevel sets the minimum log level. It accepts either a slog.Level or a
// string recognized by ParseLevel. Invalid values are ignored.
func WithLevel(v any) Option {
	return func(c *config) {
		switch t := v.(type) {
		case slog.Level:
			c.Level = t
		case string:
			if level, err := ParseLevel(t); err == nil {
				c.Level = level
			}
		}
	}
}

// WithFormat sets the output format. It accepts either a Format or a string
// recognized by ParseFormat. Invalid values are ignored.
func WithFormat(v any) Option {
	return func(c *config) {
		switch t := v.(type) {
		case Format:
			c.Format = t
		case string:
			if format, err := ParseFormat(t); err == nil {
				c.Format = format
			}
		}
	}
}

// WithAddSource includes the source code position in the log output.
func WithAddSource(add bool) Option {
	return func(c *config) {
		c.AddSource = add
	}
}

// WithWriter sets the output destination. A nil writer is ignored.
func WithWriter(w io.Writer) Option {
	return func(c *config) {
		if w != nil {
			c.Writer = w
		}
	}
}

// FromLookup derives options from the configuration keys KeyLevel,
// KeyFormat and KeySource. Absent or malformed keys yield no option.
func FromLookup(lookup func(name string) (string, bool)) []Option {
	var opts []Option
	if v, ok := lookup(KeyLevel); ok {
		opts = append(opts, WithLevel(v))
	}
	if v, ok := lookup(KeyFormat); ok {
		opts = append(opts, WithFormat(v))
	}
	if v, ok := lookup(KeySource); ok {
		if add, err := strconv.ParseBool(v); err == nil {
			opts = append(opts, WithAddSource(add))
		}
	}
	return opts
}

// ParseLevel converts a string into a slog.Level, ignoring case. It also
// accepts numeric offsets such as "error-8".
func ParseLevel(s string) (level slog.Level, err error) {
	if e := level.UnmarshalText([]byte(s)); e != nil {
		err = fmt.Errorf("invalid log level %q", s)
	}
	return
}

// ParseFormat converts a string into a Format, ignoring case.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON, nil
	case "text":
		return FormatText, nil
	default:
		return 0, fmt.Errorf("invalid log format %q", s)
	}
}

type secret struct{}

func (secret) LogValue() slog.Value { return slog.StringValue(Redacted) }

// Secret hides a value from log output. The value itself is never rendered.
func Secret(any) slog.LogValuer { return secret{} }

// Mask returns v unchanged unless hide is set, in which case it is wrapped
// with Secret.
func Mask(v any, hide bool) any {
	if hide {
		return Secret(v)
	}
	return v
}
