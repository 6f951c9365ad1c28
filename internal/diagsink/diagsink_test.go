package diagsink

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pkg/errors"

	"luxcc/internal/ast"
)

func TestErrorAndWarningCounts(t *testing.T) {
	var buf bytes.Buffer
	sink := NewSink(&buf, false, nil)

	loc := ast.SourceLocation{File: "t.c", Line: 3, Col: 5}
	sink.Warning(loc, "implicit conversion changes value")
	sink.Error(false, loc, "%q undeclared", "foo")

	if sink.WarningCount() != 1 {
		t.Fatalf("WarningCount() = %d, want 1", sink.WarningCount())
	}
	if sink.ErrorCount() != 1 {
		t.Fatalf("ErrorCount() = %d, want 1", sink.ErrorCount())
	}
	if sink.Fatal() {
		t.Fatalf("Fatal() should be false: no fatal error was recorded")
	}
	out := buf.String()
	if !strings.Contains(out, "t.c:3:5") {
		t.Errorf("output missing location: %q", out)
	}
	if !strings.Contains(out, `"foo" undeclared`) {
		t.Errorf("output missing error message: %q", out)
	}
}

func TestFatalErrorRecoverableViaErrorsCause(t *testing.T) {
	var buf bytes.Buffer
	sink := NewSink(&buf, false, nil)
	loc := ast.SourceLocation{File: "t.c", Line: 1, Col: 1}

	sink.Error(true, loc, "arena allocation failed")

	if !sink.Fatal() {
		t.Fatalf("Fatal() should be true after a fatal Error call")
	}
	err := sink.Err()
	if err == nil {
		t.Fatalf("Err() returned nil after a fatal diagnostic")
	}
	d, ok := errors.Cause(err).(*Diagnostic)
	if !ok {
		t.Fatalf("errors.Cause(err) = %T, want *Diagnostic", errors.Cause(err))
	}
	if !d.Fatal || d.Message != "arena allocation failed" {
		t.Fatalf("unexpected Diagnostic: %+v", d)
	}
}

func TestLargeIntDiagnosticsAreHumanized(t *testing.T) {
	var buf bytes.Buffer
	sink := NewSink(&buf, false, nil)
	loc := ast.SourceLocation{File: "t.c", Line: 10, Col: 1}

	sink.Warning(loc, "integer constant %d too large for type %q", int64(4294967296), "int")

	if !strings.Contains(buf.String(), "4,294,967,296") {
		t.Errorf("expected thousands-separated value in output, got %q", buf.String())
	}
}

func TestOrdinaryDiagnosticsAreNotHumanized(t *testing.T) {
	var buf bytes.Buffer
	sink := NewSink(&buf, false, nil)
	loc := ast.SourceLocation{File: "t.c", Line: 1, Col: 1}

	sink.Warning(loc, "offset %d", int64(1000))

	if strings.Contains(buf.String(), "1,000") {
		t.Errorf("non-overflow diagnostic should not be humanized, got %q", buf.String())
	}
}

func TestSourceProviderRendersCaret(t *testing.T) {
	var buf bytes.Buffer
	src := SliceSource{File: "t.c", Lines: []string{"int a = b + 1;"}}
	sink := NewSink(&buf, false, src)
	loc := ast.SourceLocation{File: "t.c", Line: 1, Col: 9}

	sink.Error(false, loc, "%q undeclared", "b")

	out := buf.String()
	if !strings.Contains(out, "int a = b + 1;") {
		t.Errorf("output missing source line: %q", out)
	}
	if !strings.Contains(out, "^") {
		t.Errorf("output missing caret: %q", out)
	}
}

func TestDebugIDsPrefixesCompilationID(t *testing.T) {
	var buf bytes.Buffer
	sink := NewSink(&buf, true, nil)
	loc := ast.SourceLocation{File: "t.c", Line: 1, Col: 1}

	sink.Warning(loc, "note")

	if !strings.Contains(buf.String(), sink.ID().String()) {
		t.Errorf("expected compilation id %s in output %q", sink.ID(), buf.String())
	}
}
