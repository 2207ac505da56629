// Copyright (c) 2026 The Pond developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

const (
	LevelTrace = slog.Level(-8)
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// Logger writes key/value pairs to a handler.
type Logger interface {
	// With returns a new Logger that has this logger's attributes plus ctx.
	With(ctx ...any) Logger

	Trace(msg string, ctx ...any)
	Debug(msg string, ctx ...any)
	Info(msg string, ctx ...any)
	Warn(msg string, ctx ...any)
	Error(msg string, ctx ...any)
}

// root handler, swappable at runtime so that package-level loggers created
// before SetDefault pick up the configured handler.
var rootHandler atomic.Value

func init() {
	rootHandler.Store(&handlerBox{NewTerminalHandler(discard{}, false, LevelInfo)})
}

type handlerBox struct {
	h slog.Handler
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

// SetDefault sets the handler used by all loggers.
func SetDefault(h slog.Handler) {
	rootHandler.Store(&handlerBox{h})
}

// WithContext creates a logger carrying the given attributes.
// The usual idiom is a package-level `var logger = log.WithContext("pkg", "...")`.
func WithContext(ctx ...any) Logger {
	return &logger{ctx: ctx}
}

// Root returns the logger without attributes.
func Root() Logger {
	return &logger{}
}

type logger struct {
	ctx []any
}

func (l *logger) With(ctx ...any) Logger {
	newCtx := make([]any, 0, len(l.ctx)+len(ctx))
	newCtx = append(newCtx, l.ctx...)
	newCtx = append(newCtx, ctx...)
	return &logger{ctx: newCtx}
}

func (l *logger) write(level slog.Level, msg string, ctx []any) {
	h := rootHandler.Load().(*handlerBox).h
	if !h.Enabled(context.Background(), level) {
		return
	}
	r := slog.NewRecord(time.Now(), level, msg, 0)
	r.Add(l.ctx...)
	r.Add(ctx...)
	_ = h.Handle(context.Background(), r)
}

func (l *logger) Trace(msg string, ctx ...any) { l.write(LevelTrace, msg, ctx) }
func (l *logger) Debug(msg string, ctx ...any) { l.write(LevelDebug, msg, ctx) }
func (l *logger) Info(msg string, ctx ...any)  { l.write(LevelInfo, msg, ctx) }
func (l *logger) Warn(msg string, ctx ...any)  { l.write(LevelWarn, msg, ctx) }
func (l *logger) Error(msg string, ctx ...any) { l.write(LevelError, msg, ctx) }

// FromLegacyLevel converts a legacy verbosity (0=crit .. 5=trace) to a slog level.
func FromLegacyLevel(lvl int) slog.Level {
	switch lvl {
	case 0, 1:
		return LevelError
	case 2:
		return LevelWarn
	case 3:
		return LevelInfo
	case 4:
		return LevelDebug
	default:
		return LevelTrace
	}
}
