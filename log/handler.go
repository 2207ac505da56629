package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/holiman/uint256"
)

const termTimeFormat = "01-02|15:04:05.000"

// TerminalHandler formats records for human readability on a terminal,
// with optional color-coded levels.
//
//	LEVEL[TIME] MESSAGE key=value key=value ...
type TerminalHandler struct {
	mu    sync.Mutex
	wr    io.Writer
	lvl   slog.Leveler
	color bool
	attrs []slog.Attr
}

// NewTerminalHandler returns a terminal handler writing records at or above
// lvl. Passing a *slog.LevelVar makes the level adjustable at runtime.
func NewTerminalHandler(wr io.Writer, color bool, lvl slog.Leveler) *TerminalHandler {
	return &TerminalHandler{wr: wr, color: color, lvl: lvl}
}

func (h *TerminalHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.lvl.Level()
}

func (h *TerminalHandler) WithGroup(_ string) slog.Handler {
	panic("not implemented")
}

func (h *TerminalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TerminalHandler{
		wr:    h.wr,
		lvl:   h.lvl,
		color: h.color,
		attrs: append(h.attrs[:len(h.attrs):len(h.attrs)], attrs...),
	}
}

func (h *TerminalHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	buf := make([]byte, 0, 128)
	lvl, colorCode := levelString(r.Level)
	if h.color && colorCode > 0 {
		buf = fmt.Appendf(buf, "\x1b[%dm%s\x1b[0m", colorCode, lvl)
	} else {
		buf = append(buf, lvl...)
	}
	buf = fmt.Appendf(buf, "[%s] %s", r.Time.Format(termTimeFormat), r.Message)

	appendAttr := func(a slog.Attr) bool {
		buf = fmt.Appendf(buf, " %s=%s", a.Key, formatValue(a.Value))
		return true
	}
	for _, a := range h.attrs {
		appendAttr(a)
	}
	r.Attrs(appendAttr)
	buf = append(buf, '\n')

	_, err := h.wr.Write(buf)
	return err
}

func levelString(lvl slog.Level) (string, int) {
	switch {
	case lvl <= LevelTrace:
		return "TRACE", 0
	case lvl <= LevelDebug:
		return "DEBUG", 0
	case lvl <= LevelInfo:
		return "INFO ", 32
	case lvl <= LevelWarn:
		return "WARN ", 33
	default:
		return "ERROR", 31
	}
}

func formatValue(v slog.Value) string {
	if v.Kind() == slog.KindAny {
		switch n := v.Any().(type) {
		case *big.Int:
			if n == nil {
				return "<nil>"
			}
			return n.String()
		case *uint256.Int:
			if n == nil {
				return "<nil>"
			}
			return n.Dec()
		case error:
			if n == nil {
				return "<nil>"
			}
			return n.Error()
		case time.Time:
			return n.Format(termTimeFormat)
		case fmt.Stringer:
			return n.String()
		}
	}
	return v.String()
}
