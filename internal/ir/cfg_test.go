package ir

import (
	"testing"

	"github.com/kr/pretty"

	"luxcc/internal/token"
)

// TestCFGEdgesAreSymmetric checks that every recorded successor edge
// has a matching predecessor edge on the other end, for both the
// forward and (by construction) reverse graphs.
func TestCFGEdgesAreSymmetric(t *testing.T) {
	x := identNode("x", intDecl)
	y1 := binNode(token.Assign, identNode("y", intDecl), intConst(1), intDecl)
	y2 := binNode(token.Assign, identNode("y", intDecl), intConst(2), intDecl)
	body := ifStmt(x, exprStmt(y1), exprStmt(y2))

	fc := newTestFC()
	prog, err := fc.CompileFunction(voidFn("f", body))
	if err != nil {
		t.Fatalf("CompileFunction: %v", err)
	}

	for idx, n := range prog.Nodes {
		if idx == 0 {
			continue
		}
		for _, succ := range n.Out {
			found := false
			for _, pred := range prog.Nodes[succ].In {
				if int(pred) == idx {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("node %d -> %d has no matching In edge on %d", idx, succ, succ)
			}
		}
	}
}

// TestPostOrderIsReverseOfReversePostOrder checks CFGRPO is exactly
// CFGPO reversed (and likewise for the reverse graph), and that every
// reachable node appears in both exactly once.
func TestPostOrderIsReverseOfReversePostOrder(t *testing.T) {
	x := identNode("x", intDecl)
	y1 := binNode(token.Assign, identNode("y", intDecl), intConst(1), intDecl)
	y2 := binNode(token.Assign, identNode("y", intDecl), intConst(2), intDecl)
	body := ifStmt(x, exprStmt(y1), exprStmt(y2))

	fc := newTestFC()
	prog, err := fc.CompileFunction(voidFn("f", body))
	if err != nil {
		t.Fatalf("CompileFunction: %v", err)
	}

	if len(prog.CFGPO) != len(prog.CFGRPO) {
		t.Fatalf("CFGPO/CFGRPO length mismatch: %d vs %d", len(prog.CFGPO), len(prog.CFGRPO))
	}
	n := len(prog.CFGPO)
	for i := 0; i < n; i++ {
		if prog.CFGPO[i] != prog.CFGRPO[n-1-i] {
			t.Errorf("CFGRPO is not CFGPO reversed at index %d", i)
		}
	}
	if len(prog.RCFGPO) != len(prog.RCFGRPO) {
		t.Fatalf("RCFGPO/RCFGRPO length mismatch: %d vs %d", len(prog.RCFGPO), len(prog.RCFGRPO))
	}
	m := len(prog.RCFGPO)
	for i := 0; i < m; i++ {
		if prog.RCFGPO[i] != prog.RCFGRPO[m-1-i] {
			t.Errorf("RCFGRPO is not RCFGPO reversed at index %d", i)
		}
	}

	// Every non-sentinel node is reachable forward from the entry block
	// in this straight-line-with-a-branch function, so CFGPO must
	// enumerate all of them exactly once.
	if n != len(prog.Nodes)-1 {
		t.Errorf("CFGPO covers %d nodes, want %d (all reachable blocks)", n, len(prog.Nodes)-1)
	}
}

// TestEveryBlockEndsInATerminator checks the invariant CFG construction
// relies on: every block's last quad is a control-transfer op (Jmp,
// CBr, Ret, Switch dispatch) or, failing that, is treated as falling
// through to the next block in program order — never left dangling.
func TestEveryBlockEndsInATerminator(t *testing.T) {
	x := identNode("x", intDecl)
	y1 := binNode(token.Assign, identNode("y", intDecl), intConst(1), intDecl)
	y2 := binNode(token.Assign, identNode("y", intDecl), intConst(2), intDecl)
	body := ifStmt(x, exprStmt(y1), exprStmt(y2))

	fc := newTestFC()
	prog, err := fc.CompileFunction(voidFn("f", body))
	if err != nil {
		t.Fatalf("CompileFunction: %v", err)
	}

	for idx, n := range prog.Nodes {
		if idx == 0 {
			continue
		}
		isLast := idx == len(prog.Nodes)-1
		if len(n.Out) == 0 && !isLast {
			t.Errorf("node %d has no successor but isn't the final block", idx)
		}
	}
}

// TestIfElseQuadOpSequenceGolden pins the exact op sequence for the
// canonical if/else lowering; on mismatch it prints a
// field-level diff via kr/pretty rather than a flat slice dump, for
// readable failures over nested structures.
func TestIfElseQuadOpSequenceGolden(t *testing.T) {
	x := identNode("x", intDecl)
	y1 := binNode(token.Assign, identNode("y", intDecl), intConst(1), intDecl)
	y2 := binNode(token.Assign, identNode("y", intDecl), intConst(2), intDecl)
	body := ifStmt(x, exprStmt(y1), exprStmt(y2))

	fc := newTestFC()
	prog, err := fc.CompileFunction(voidFn("f", body))
	if err != nil {
		t.Fatalf("CompileFunction: %v", err)
	}

	var got []Op
	for _, q := range prog.Quads[1:] {
		got = append(got, q.Op)
	}
	want := []Op{
		OpLab, OpJmp, OpLab,
		OpCBr,
		OpLab, OpAsn, OpJmp,
		OpLab, OpAsn, OpJmp,
		OpLab,
		OpLab,
	}
	if diff := pretty.Diff(got, want); len(diff) > 0 {
		t.Errorf("quad op sequence mismatch:\n%s", pretty.Sprint(diff))
	}
}
