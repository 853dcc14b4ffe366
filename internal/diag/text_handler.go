package diag

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/fatih/color"
)

// textHandler renders one line per record: an optional colorized
// "level: " prefix (the teacher's cucaracha CLI colors its own status
// lines with fatih/color the same way) followed by the message, which
// already carries its scope breadcrumb from Sink.Emit.
type textHandler struct {
	mu     *sync.Mutex
	w      io.Writer
	colors bool
}

func newTextHandler(w io.Writer, colors bool) *textHandler {
	return &textHandler{mu: &sync.Mutex{}, w: w, colors: colors}
}

func (h *textHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *textHandler) Handle(_ context.Context, r slog.Record) error {
	levelName := r.Level.String()
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == "level_name" {
			levelName = a.Value.String()
		}
		return true
	})

	prefix := levelName + ": "
	if h.colors {
		prefix = colorFor(levelName).Sprint(prefix)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := fmt.Fprintf(h.w, "%s%s\n", prefix, r.Message)
	return err
}

func (h *textHandler) WithAttrs(attrs []slog.Attr) slog.Handler { return h }
func (h *textHandler) WithGroup(name string) slog.Handler       { return h }

func colorFor(level string) *color.Color {
	switch level {
	case "fatal", "error":
		return color.New(color.FgRed, color.Bold)
	case "warning":
		return color.New(color.FgYellow)
	case "notice":
		return color.New(color.FgCyan)
	case "debug", "trace":
		return color.New(color.FgHiBlack)
	default:
		return color.New(color.FgWhite)
	}
}
