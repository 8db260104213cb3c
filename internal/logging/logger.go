// Wayfinder - Geo-constrained Semantic Business Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

// Package logging provides the process-wide zerolog logger for Wayfinder.
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//
//	logging.Info().Msg("Catalog loaded")
//	logging.Ctx(ctx).Warn().Err(err).Msg("Preference save failed")
//
// Components receive a zerolog.Logger and derive their own child:
//
//	logger := logging.WithComponent("ranker")
//
// Always terminate log chains with .Msg() or .Send().
package logging

import (
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// ServiceName is stamped on every record written by the process logger.
const ServiceName = "wayfinder"

// Config holds logging configuration.
type Config struct {
	// Level is one of trace, debug, info, warn, error, disabled.
	// Default: info
	Level string

	// Format is json or console.
	// Default: json
	Format string

	// Caller adds file:line to each record.
	Caller bool

	// Timestamp adds a "time" field. Default: true
	Timestamp bool

	// Output defaults to os.Stderr.
	Output io.Writer
}

// DefaultConfig returns the default logging configuration.
func DefaultConfig() Config {
	return Config{
		Level:     "info",
		Format:    "json",
		Timestamp: true,
		Output:    os.Stderr,
	}
}

var current atomic.Pointer[zerolog.Logger]

//nolint:gochecknoinits // logging must work before an explicit Init() call
func init() {
	Init(DefaultConfig())
}

// Init (re)configures the process logger. Loggers already derived from the
// previous one keep writing to the previous output.
func Init(cfg Config) {
	l := build(cfg)
	current.Store(&l)
}

func build(cfg Config) zerolog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	zerolog.SetGlobalLevel(parseLevel(cfg.Level))
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.MessageFieldName = "message"

	if strings.EqualFold(cfg.Format, "console") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}

	ctx := zerolog.New(out).With().Str("service", ServiceName)
	if cfg.Timestamp {
		ctx = ctx.Timestamp()
	}
	if cfg.Caller {
		ctx = ctx.Caller()
	}
	return ctx.Logger()
}

// parseLevel maps a configured level name to zerolog, falling back to info.
func parseLevel(level string) zerolog.Level {
	name := strings.ToLower(strings.TrimSpace(level))
	if name == "warning" {
		name = "warn"
	}
	lvl, err := zerolog.ParseLevel(name)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// Logger returns the process logger.
func Logger() zerolog.Logger {
	return *current.Load()
}

// WithComponent returns a child of the process logger tagged with component.
//
//	logger := logging.WithComponent("catalog")
func WithComponent(component string) zerolog.Logger {
	return current.Load().With().Str("component", component).Logger()
}

// Info starts an info record on the process logger.
func Info() *zerolog.Event { return current.Load().Info() }

// Warn starts a warn record on the process logger.
func Warn() *zerolog.Event { return current.Load().Warn() }

// Error starts an error record on the process logger.
func Error() *zerolog.Event { return current.Load().Error() }

// Fatal starts a fatal record; os.Exit(1) follows Msg.
func Fatal() *zerolog.Event { return current.Load().Fatal() }

// NewTestLogger returns a JSON logger writing to w, independent of the
// process logger.
func NewTestLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Logger()
}
