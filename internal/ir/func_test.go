package ir

import (
	"strings"
	"testing"

	"luxcc/internal/ast"
	"luxcc/internal/token"
)

// TestFreshFuncCompilerPerFunction checks that two independently
// compiled functions each start their temporary/label numbering from
// scratch: nothing about one function's compilation should leak into
// the next.
func TestFreshFuncCompilerPerFunction(t *testing.T) {
	body := func() *ast.ExecNode {
		return exprStmt(binNode(token.Assign, identNode("y", intDecl), intConst(1), intDecl))
	}

	fc1 := newTestFC()
	prog1, err := fc1.CompileFunction(voidFn("f", body()))
	if err != nil {
		t.Fatalf("first CompileFunction: %v", err)
	}

	fc2 := newTestFC()
	prog2, err := fc2.CompileFunction(voidFn("g", body()))
	if err != nil {
		t.Fatalf("second CompileFunction: %v", err)
	}

	if len(prog1.Quads) != len(prog2.Quads) {
		t.Errorf("two structurally identical functions produced different quad counts: %d vs %d", len(prog1.Quads), len(prog2.Quads))
	}
	if len(prog1.Addrs) != len(prog2.Addrs) {
		t.Errorf("two structurally identical functions produced different address-table sizes: %d vs %d", len(prog1.Addrs), len(prog2.Addrs))
	}
}

// TestInvariantViolationRecovered checks CompileFunction's recover
// boundary: an unreachable statement kind panics deep inside lowering,
// and CompileFunction must turn that into a plain error rather than
// letting it propagate.
func TestInvariantViolationRecovered(t *testing.T) {
	bogus := &ast.ExecNode{StmtKind: ast.StmtKind(999)}

	fc := newTestFC()
	prog, err := fc.CompileFunction(voidFn("bad", bogus))
	if err == nil {
		t.Fatal("expected an error from an unreachable statement kind, got nil")
	}
	if prog != nil {
		t.Error("expected a nil Program alongside the error")
	}
	if !strings.Contains(err.Error(), "invariant violation") {
		t.Errorf("error message should mention the invariant-violation taxonomy, got: %v", err)
	}
}
