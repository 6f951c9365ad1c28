package ir

import (
	"testing"

	"luxcc/internal/ast"
	"luxcc/internal/token"
)

// TestPointerArithmeticLowering checks "p + 2" for an int* p lowers to
// exactly Mul t1,2,4 then Add t2,p,t1, per the pointer-offset scaling
// rule.
func TestPointerArithmeticLowering(t *testing.T) {
	p := identNode("p", intPtrDecl)
	two := intConst(2)
	e := binNode(token.Plus, p, two, intPtrDecl)
	NumberExpressionTree(e)

	fc := newTestFC()
	result := fc.lowerExpr(e, false)

	quads := fc.quads.quads[1:]
	if len(quads) != 2 {
		t.Fatalf("expected 2 quads, got %d: %v", len(quads), quads)
	}
	mul, add := quads[0], quads[1]
	if mul.Op != OpMul {
		t.Errorf("quad[0].Op = %s, want Mul", mul.Op)
	}
	if got := fc.addrs.at(mul.Arg1).Value; got != 2 {
		t.Errorf("Mul arg1 = %d, want 2", got)
	}
	if got := fc.addrs.at(mul.Arg2).Value; got != 4 {
		t.Errorf("Mul arg2 (pointee size) = %d, want 4", got)
	}
	if add.Op != OpAdd {
		t.Errorf("quad[1].Op = %s, want Add", add.Op)
	}
	if add.Arg1 != fc.addrs.ident("p:1", token.Star, 0, nil) {
		t.Errorf("Add arg1 should be p's address")
	}
	if add.Arg2 != mul.Target {
		t.Errorf("Add arg2 should chain from the Mul's target")
	}
	if result != add.Target {
		t.Errorf("lowerExpr should return the Add's target")
	}
}

// TestShortCircuitAnd checks "a && b" lowers to the canonical
// four-label sequence and returns a fresh int temporary whose only
// definitions are the Asn-from-constant quads in the true/false arms.
func TestShortCircuitAnd(t *testing.T) {
	a := identNode("a", intDecl)
	b := identNode("b", intDecl)
	e := binNode(token.AndAnd, a, b, intDecl)
	NumberExpressionTree(e)

	fc := newTestFC()
	result := fc.lowerExpr(e, false)

	var labels, cbrs, asns int
	var asnSources []int64
	for _, q := range fc.quads.quads[1:] {
		switch q.Op {
		case OpLab:
			labels++
		case OpCBr:
			cbrs++
		case OpAsn:
			if q.Target == result {
				asns++
				asnSources = append(asnSources, fc.addrs.at(q.Arg1).Value)
			}
		}
	}
	if labels != 4 {
		t.Errorf("expected 4 labels, got %d", labels)
	}
	if cbrs != 2 {
		t.Errorf("expected 2 conditional branches, got %d", cbrs)
	}
	if asns != 2 {
		t.Fatalf("expected exactly 2 Asn quads targeting the result temp, got %d", asns)
	}
	sum := asnSources[0] + asnSources[1]
	if (asnSources[0] != 0 && asnSources[0] != 1) || (asnSources[1] != 0 && asnSources[1] != 1) || sum != 1 {
		t.Errorf("result should be assigned from the 0/1 sentinel constants exactly once each, got %v", asnSources)
	}
}

// TestSethiUllmanLeaf checks the counts NumberExpressionTree assigns
// to a leaf, to a unary node over a leaf, and to a binary node over
// two leaves.
func TestSethiUllmanLeaf(t *testing.T) {
	leaf := intConst(5)
	if n := NumberExpressionTree(leaf); n != 1 {
		t.Errorf("leaf NReg = %d, want 1", n)
	}

	unary := &ast.ExecNode{Kind: ast.OpExp, Op: token.Unary_Minus}
	unary.Child[0] = intConst(5)
	if n := NumberExpressionTree(unary); n != 2 {
		t.Errorf("unary-over-leaf NReg = %d, want 2", n)
	}

	// Two equal-weight leaves: the combine rule bumps by one rather
	// than taking the max, since both sides would want the same
	// temporary simultaneously.
	bin := binNode(token.Plus, intConst(1), intConst(2), intDecl)
	if n := NumberExpressionTree(bin); n != 2 {
		t.Errorf("leaf+leaf NReg = %d, want 2", n)
	}
}
