package ir

import "luxcc/internal/ast"
import "luxcc/internal/token"

// NumberExpressionTree annotates e and every descendant with its
// Sethi-Ullman register count (ast.ExecNode.NReg): a leaf needs one
// register; a unary node
// needs its child's count plus one; a binary node needs the larger of
// its two children's counts, or one more than that when they're equal
// (both sides would otherwise want the same temporary simultaneously).
// Shapes with more than two operand children (a function call's
// argument list, the conditional operator's three operands) generalize
// the same combine rule left-to-right across the operand list, which
// is not itself part of the classic two-operand formulation but
// reduces to it exactly when there are only two operands.
func NumberExpressionTree(e *ast.ExecNode) int {
	if e == nil {
		return 0
	}
	switch e.Kind {
	case ast.IConstExp, ast.StrLitExp, ast.IdExp:
		e.NReg = 1
		return 1
	}

	operands := operandChildren(e)
	if len(operands) == 0 {
		e.NReg = 1
		return 1
	}
	n := NumberExpressionTree(operands[0])
	if len(operands) == 1 {
		n++
	}
	for _, child := range operands[1:] {
		r := NumberExpressionTree(child)
		if r == n {
			n++
		} else if r > n {
			n = r
		}
	}
	e.NReg = n
	return n
}

// operandChildren returns the subset of e's Child slots (plus any
// sibling-linked argument list) that are themselves value-producing
// operands, mirroring internal/sema's analyzeChildren op-specific
// shapes: a Call's Child[1..] are sibling-linked arguments rather than
// fixed slots; SizeOf/AlignOf, Dot/Arrow, and Cast each carry a
// pseudo-child (a type name or member name) in a fixed slot that is
// not itself lowered.
func operandChildren(e *ast.ExecNode) []*ast.ExecNode {
	switch e.Op {
	case token.Call:
		operands := []*ast.ExecNode{e.Child[0]}
		for arg := e.Child[1]; arg != nil; arg = arg.Sibling {
			operands = append(operands, arg)
		}
		return operands
	case token.SizeOf, token.AlignOf, token.Dot, token.Arrow, token.Cast:
		return []*ast.ExecNode{e.Child[0]}
	default:
		var operands []*ast.ExecNode
		for _, c := range e.Child {
			if c != nil {
				operands = append(operands, c)
			}
		}
		return operands
	}
}
