// Wayfinder - Geo-constrained Semantic Business Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package logging

import (
	"context"
	"log/slog"

	"github.com/rs/zerolog"
)

// SlogHandler is a slog.Handler writing through zerolog, so sutureslog
// events land in the same stream as everything else. Attributes added with
// WithAttrs are baked into the child zerolog logger once.
type SlogHandler struct {
	logger zerolog.Logger
	prefix string // dotted group path, with trailing dot
}

// NewSlogLogger creates an slog.Logger backed by the given zerolog logger.
//
//	supervisorLog := logging.NewSlogLogger(logging.WithComponent("supervisor"))
//	hook := (&sutureslog.Handler{Logger: supervisorLog}).MustHook()
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewSlogLogger(logger zerolog.Logger) *slog.Logger {
	return slog.New(&SlogHandler{logger: logger})
}

// Enabled implements slog.Handler.
func (h *SlogHandler) Enabled(_ context.Context, level slog.Level) bool {
	lvl := zerologLevel(level)
	return lvl >= h.logger.GetLevel() && lvl >= zerolog.GlobalLevel()
}

// Handle implements slog.Handler.
//
//nolint:gocritic // slog.Record is passed by value per slog.Handler interface
func (h *SlogHandler) Handle(_ context.Context, record slog.Record) error {
	event := h.logger.WithLevel(zerologLevel(record.Level))
	if event == nil {
		return nil
	}
	record.Attrs(func(a slog.Attr) bool {
		writeAttr(fieldSink{event: event}, h.prefix, a)
		return true
	})
	event.Msg(record.Message)
	return nil
}

// WithAttrs implements slog.Handler.
func (h *SlogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	child := h.logger.With()
	sink := fieldSink{ctx: &child}
	for _, a := range attrs {
		writeAttr(sink, h.prefix, a)
	}
	return &SlogHandler{logger: child.Logger(), prefix: h.prefix}
}

// WithGroup implements slog.Handler.
func (h *SlogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &SlogHandler{logger: h.logger, prefix: h.prefix + name + "."}
}

// fieldSink writes to either an event or a logger context.
type fieldSink struct {
	event *zerolog.Event
	ctx   *zerolog.Context
}

func (s fieldSink) put(key string, v slog.Value) {
	if s.event != nil {
		s.event.Interface(key, valueOf(v))
		return
	}
	*s.ctx = s.ctx.Interface(key, valueOf(v))
}

func writeAttr(s fieldSink, prefix string, a slog.Attr) {
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		inner := prefix
		if a.Key != "" {
			inner = prefix + a.Key + "."
		}
		for _, ga := range v.Group() {
			writeAttr(s, inner, ga)
		}
		return
	}
	if a.Key == "" {
		return
	}
	s.put(prefix+a.Key, v)
}

// valueOf unwraps slog values to types zerolog encodes natively.
func valueOf(v slog.Value) any {
	switch v.Kind() {
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return v.Time()
	default:
		return v.Any()
	}
}

func zerologLevel(level slog.Level) zerolog.Level {
	switch {
	case level < slog.LevelDebug:
		return zerolog.TraceLevel
	case level < slog.LevelInfo:
		return zerolog.DebugLevel
	case level < slog.LevelWarn:
		return zerolog.InfoLevel
	case level < slog.LevelError:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}
