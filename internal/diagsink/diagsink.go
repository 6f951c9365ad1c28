// Package diagsink supplies a concrete, terminal-aware
// collab.Diagnostics implementation: the interfaces in internal/collab
// stay the boundary, and this package is the reference sink behind
// them — file/line/column rendering, the offending source line with a
// caret, severity coloring, and running error/warning counts.
package diagsink

import (
	"fmt"
	"io"
	"math/big"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"

	"luxcc/internal/ast"
)

// SourceProvider resolves a (file, line) pair to the literal source
// text, so Sink can render the offending line under the diagnostic.
// Optional: a Sink with no provider still prints file/line/column and
// the message, just without the source line underneath.
type SourceProvider interface {
	Line(file string, line int) (string, bool)
}

// Diagnostic is one recorded error or warning. A fatal Diagnostic is
// what callers recover via errors.Cause(sink.Err()) once a pass
// finishes.
type Diagnostic struct {
	Fatal         bool
	Warning       bool
	Loc           ast.SourceLocation
	Message       string
	CompilationID uuid.UUID
}

func (d *Diagnostic) Error() string {
	severity := "error"
	if d.Warning {
		severity = "warning"
	}
	return fmt.Sprintf("%s:%d:%d: %s: %s", d.Loc.File, d.Loc.Line, d.Loc.Col, severity, d.Message)
}

// Sink is a collab.Diagnostics that renders to out, coloring severity
// tags when out is a terminal and counting errors/warnings for the
// CLI's exit status.
type Sink struct {
	out      io.Writer
	color    bool
	debugIDs bool
	source   SourceProvider
	id       uuid.UUID

	errorCount   int
	warningCount int
	firstFatal   *Diagnostic
}

// NewSink returns a Sink writing to out. debugIDs, when set, prefixes
// each diagnostic's header line with the sink's compilation id, a stable correlation key
// across the analyzer and IR generator passes for one translation
// unit. source may be nil.
func NewSink(out io.Writer, debugIDs bool, source SourceProvider) *Sink {
	color := false
	if f, ok := out.(*os.File); ok {
		color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &Sink{
		out:      out,
		color:    color,
		debugIDs: debugIDs,
		source:   source,
		id:       uuid.New(),
	}
}

// ID is the compilation id this sink tags every diagnostic with.
func (s *Sink) ID() uuid.UUID { return s.id }

func (s *Sink) Error(fatal bool, loc ast.SourceLocation, format string, args ...interface{}) {
	s.errorCount++
	msg := s.render(format, args)
	s.print("error", s.red, loc, msg)
	if fatal && s.firstFatal == nil {
		s.firstFatal = &Diagnostic{Fatal: true, Loc: loc, Message: msg, CompilationID: s.id}
	}
}

func (s *Sink) Warning(loc ast.SourceLocation, format string, args ...interface{}) {
	s.warningCount++
	msg := s.render(format, args)
	s.print("warning", s.yellow, loc, msg)
}

// ErrorCount and WarningCount expose the running totals the CLI uses
// to pick an exit status.
func (s *Sink) ErrorCount() int   { return s.errorCount }
func (s *Sink) WarningCount() int { return s.warningCount }

// Fatal reports whether a fatal error has been recorded.
func (s *Sink) Fatal() bool { return s.firstFatal != nil }

// Err returns a wrapped (stack-carrying) error for the first fatal
// diagnostic recorded, or nil if none occurred. Callers recover the
// structured *Diagnostic beneath the wrap via errors.Cause.
func (s *Sink) Err() error {
	if s.firstFatal == nil {
		return nil
	}
	return errors.WithStack(s.firstFatal)
}

// largeIntMessage matches the two diagnostic shapes that get
// thousands-separator formatting: integer-constant overflow ("too
// large for type") and sizeof overflow.
func largeIntMessage(format string) bool {
	lower := strings.ToLower(format)
	return strings.Contains(lower, "too large") || strings.Contains(lower, "overflow")
}

// render formats the message, substituting humanize.Comma for any
// integer argument when format names an overflow-flavored diagnostic,
// so "integer constant 4294967296 too large" reads with separators.
// The %d verbs become %s alongside, since the humanized arguments are
// strings.
func (s *Sink) render(format string, args []interface{}) string {
	if !largeIntMessage(format) {
		return fmt.Sprintf(format, args...)
	}
	humanized := make([]interface{}, len(args))
	for i, a := range args {
		switch v := a.(type) {
		case int:
			humanized[i] = humanize.Comma(int64(v))
		case int64:
			humanized[i] = humanize.Comma(v)
		case uint64:
			humanized[i] = humanize.BigComma(new(big.Int).SetUint64(v))
		default:
			humanized[i] = a
		}
	}
	return fmt.Sprintf(strings.ReplaceAll(format, "%d", "%s"), humanized...)
}

func (s *Sink) print(severity string, colorCode func(string) string, loc ast.SourceLocation, msg string) {
	tag := severity
	if s.color {
		tag = colorCode(severity)
	}
	prefix := ""
	if s.debugIDs {
		prefix = fmt.Sprintf("[%s] ", s.id)
	}
	fmt.Fprintf(s.out, "%s%s:%d:%d: %s: %s\n", prefix, loc.File, loc.Line, loc.Col, tag, msg)
	if s.source == nil {
		return
	}
	line, ok := s.source.Line(loc.File, loc.Line)
	if !ok {
		return
	}
	gutter := fmt.Sprintf("%d | ", loc.Line)
	fmt.Fprintf(s.out, "  %s%s\n", gutter, line)
	caret := strings.Repeat(" ", len(gutter))
	if loc.Col > 0 {
		caret += strings.Repeat(" ", loc.Col-1)
	}
	fmt.Fprintf(s.out, "  %s^\n", caret)
}

func (s *Sink) red(text string) string    { return "\033[31m" + text + "\033[0m" }
func (s *Sink) yellow(text string) string { return "\033[33m" + text + "\033[0m" }

// SliceSource is a trivial SourceProvider backed by one file's lines
// already split in memory, good enough for the CLI's single-file demo
// mode.
type SliceSource struct {
	File  string
	Lines []string
}

func (s SliceSource) Line(file string, line int) (string, bool) {
	if file != s.File || line < 1 || line > len(s.Lines) {
		return "", false
	}
	return s.Lines[line-1], true
}
