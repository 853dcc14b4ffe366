// Package diag is weld's diagnostic sink: a hierarchical scope stack
// (file, section, offset, line) paired with a leveled Emit, reimplemented
// over log/slog in place of original_source/include/logging.h's
// __log_ctx array and log_message. Callers push a scope on entering a
// file/section and pop it on the way back out, and every diagnostic
// emitted meanwhile is prefixed with that scope's breadcrumb, e.g.
// "[a.o:.text+0x18]". The ELF front end pushes a file-only scope per
// parsed object; no caller in weld pushes a section or offset scope.
package diag

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	slogmulti "github.com/samber/slog-multi"
)

// Level mirrors logging.h's LOG_FATAL..LOG_TRACE ordering, where lower
// values are more severe.
type Level int

const (
	LevelFatal Level = iota - 1
	LevelError
	LevelWarning
	LevelNotice
	LevelInfo
	LevelDebug
	LevelTrace
)

func (l Level) String() string {
	switch l {
	case LevelFatal:
		return "fatal"
	case LevelError:
		return "error"
	case LevelWarning:
		return "warning"
	case LevelNotice:
		return "notice"
	case LevelInfo:
		return "info"
	case LevelDebug:
		return "debug"
	case LevelTrace:
		return "trace"
	default:
		return "unknown"
	}
}

func (l Level) slogLevel() slog.Level {
	switch {
	case l <= LevelFatal:
		return slog.LevelError + 4
	case l == LevelError:
		return slog.LevelError
	case l == LevelWarning:
		return slog.LevelWarn
	case l == LevelNotice, l == LevelInfo:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}

// Scope is one entry of the push/pop context stack: the file, section,
// byte offset and line number a diagnostic should be attributed to.
// Any field left at its zero value is omitted from the printed prefix,
// matching log_ctx_t's NULL/0 skip behavior.
type Scope struct {
	File    string
	Section string
	Offset  uint64
	Line    uint
}

func (s Scope) String() string {
	if s.File == "" {
		return ""
	}
	var b strings.Builder
	b.WriteByte('[')
	b.WriteString(s.File)
	if s.Section != "" {
		b.WriteByte(':')
		b.WriteString(s.Section)
	}
	if s.Offset != 0 {
		fmt.Fprintf(&b, "+0x%x", s.Offset)
	}
	if s.Line != 0 {
		fmt.Fprintf(&b, ":%d", s.Line)
	}
	b.WriteByte(']')
	return b.String()
}

// maxDepth bounds the scope stack the same way LOG_CTX_NUM bounds
// __log_ctx: pushes past the limit are dropped rather than growing the
// stack unboundedly, since the deepest legitimate nesting
// (file -> section -> symbol) never exceeds a handful of levels.
const maxDepth = 16

// Sink is weld's diagnostic fanout: a scope stack plus a verbosity
// threshold, writing through an slog.Logger built by New.
type Sink struct {
	logger    *slog.Logger
	verbosity Level
	stack     []Scope
	errors    int
	warnings  int
}

// Option configures a Sink built by New.
type Option func(*sinkConfig)

type sinkConfig struct {
	verbosity Level
	jsonOut   io.Writer
	color     bool
}

// WithVerbosity sets the minimum level that reaches stderr; diagnostics
// more verbose than this are suppressed, matching __log_verbosity.
func WithVerbosity(v Level) Option {
	return func(c *sinkConfig) { c.verbosity = v }
}

// WithJSONMirror additionally fans every diagnostic out to w as JSON
// lines, for machine-readable captures of a build.
func WithJSONMirror(w io.Writer) Option {
	return func(c *sinkConfig) { c.jsonOut = w }
}

// WithColor forces colorized stderr output on or off, overriding
// fatih/color's terminal autodetection. Mainly useful for tests.
func WithColor(enabled bool) Option {
	return func(c *sinkConfig) { c.color = enabled }
}

// New builds a Sink. By default it writes colorized text to stderr at
// LevelInfo and skips the JSON mirror.
func New(opts ...Option) *Sink {
	cfg := sinkConfig{verbosity: LevelInfo, color: color.NoColor == false}
	for _, opt := range opts {
		opt(&cfg)
	}

	handlers := []slog.Handler{newTextHandler(os.Stderr, cfg.color)}
	if cfg.jsonOut != nil {
		handlers = append(handlers, slog.NewJSONHandler(cfg.jsonOut, nil))
	}

	var handler slog.Handler
	if len(handlers) == 1 {
		handler = handlers[0]
	} else {
		handler = slogmulti.Fanout(handlers...)
	}

	return &Sink{
		logger:    slog.New(handler),
		verbosity: cfg.verbosity,
	}
}

// Push enters a new diagnostic scope. Pop must be called once the
// caller leaves that scope.
func (s *Sink) Push(scope Scope) {
	if len(s.stack) < maxDepth {
		s.stack = append(s.stack, scope)
	}
}

// Pop leaves the most recently pushed scope.
func (s *Sink) Pop() {
	if len(s.stack) > 0 {
		s.stack = s.stack[:len(s.stack)-1]
	}
}

func (s *Sink) current() Scope {
	if len(s.stack) == 0 {
		return Scope{}
	}
	return s.stack[len(s.stack)-1]
}

// Emit records a diagnostic at level, formatted like fmt.Sprintf, tagged
// with the current scope. Error and Fatal emissions increment the
// sink's error count; Warning emissions increment its warning count.
func (s *Sink) Emit(level Level, format string, args ...any) {
	if level > s.verbosity {
		return
	}

	switch {
	case level <= LevelError:
		s.errors++
	case level == LevelWarning:
		s.warnings++
	}

	msg := fmt.Sprintf(format, args...)
	scope := s.current()
	attrs := []any{slog.String("level_name", level.String())}
	if scope.File != "" {
		attrs = append(attrs, slog.String("scope", scope.String()))
		msg = scope.String() + " " + msg
	}

	s.logger.Log(context.Background(), level.slogLevel(), msg, attrs...)
}

func (s *Sink) Fatalf(format string, args ...any)  { s.Emit(LevelFatal, format, args...) }
func (s *Sink) Errorf(format string, args ...any)  { s.Emit(LevelError, format, args...) }
func (s *Sink) Warnf(format string, args ...any)   { s.Emit(LevelWarning, format, args...) }
func (s *Sink) Noticef(format string, args ...any) { s.Emit(LevelNotice, format, args...) }
func (s *Sink) Infof(format string, args ...any)   { s.Emit(LevelInfo, format, args...) }
func (s *Sink) Debugf(format string, args ...any)  { s.Emit(LevelDebug, format, args...) }
func (s *Sink) Tracef(format string, args ...any)  { s.Emit(LevelTrace, format, args...) }

// ErrorCount reports how many LevelError-or-more-severe diagnostics
// have been emitted so far.
func (s *Sink) ErrorCount() int { return s.errors }

// WarningCount reports how many LevelWarning diagnostics have been
// emitted so far.
func (s *Sink) WarningCount() int { return s.warnings }

// HasErrors reports whether any fatal or error diagnostic has been
// emitted, the condition the driver checks before proceeding past
// resolution into layout.
func (s *Sink) HasErrors() bool { return s.errors > 0 }
