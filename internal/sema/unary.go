package sema

import (
	"luxcc/internal/ast"
	"luxcc/internal/token"
	"luxcc/internal/types"
)

// analyzeAddrOf types &e: e must be an lvalue or a function
// designator, which already behaves like one. Bit-fields, the one
// other operand shape C rejects here, are not modeled at all, so
// lvalue-ness is the whole check.
func (a *Analyzer) analyzeAddrOf(e *ast.ExecNode) {
	operand := e.Child[0]
	cat := types.Category(operand.Type)
	if cat != token.Function && !types.IsLvalue(operand) {
		a.errorR(e, "cannot take the address of an rvalue")
		return
	}
	e.Type = ast.PointerTo(operand.Type)
	a.Folder.TryFold(e, true, false)
}

// analyzeIndirection types *e: the operand must be a pointer, and
// indirecting through a pointer to void is an error.
func (a *Analyzer) analyzeIndirection(e *ast.ExecNode) {
	operand := e.Child[0]
	if types.Category(operand.Type) != token.Star {
		a.errorR(e, "indirection requires a pointer operand")
		return
	}
	pointee := ast.Declaration{DeclSpecs: operand.Type.DeclSpecs, Idl: operand.Type.Idl.Child}
	if types.TypeSpec(pointee.DeclSpecs).Op == token.Void && pointee.Idl == nil {
		a.errorR(e, "cannot dereference a pointer to void")
		return
	}
	e.Type = pointee
}

// analyzeUnaryArith types unary +, -, ~: the operand must be
// arithmetic (~ requires integer); the result is the promoted operand
// type, per the usual unary-arithmetic-promotion rule.
func (a *Analyzer) analyzeUnaryArith(e *ast.ExecNode) {
	operand := e.Child[0]
	cat := types.Category(operand.Type)
	if e.Op == token.Complement {
		if !types.IsInteger(cat) {
			a.errorR(e, "bitwise complement requires an integer operand")
			return
		}
	} else if !types.IsInteger(cat) {
		a.errorR(e, "unary %s requires an arithmetic operand", e.Op.String())
		return
	}
	e.Type = ast.SimpleType(types.Promote(cat))
}

// analyzeNegation types logical !: the operand must be scalar; the
// result is always int (0 or 1).
func (a *Analyzer) analyzeNegation(e *ast.ExecNode) {
	operand := e.Child[0]
	if !types.IsScalar(types.Category(operand.Type)) {
		a.errorR(e, "logical negation requires a scalar operand")
		return
	}
	e.Type = ast.SimpleType(token.Int)
}

// analyzeSizeofAlignof types sizeof/_Alignof: the operand (an
// expression subtree, or a bare type name carried on Child[1]) must
// not be an incomplete type or a function designator; the node is
// always rewritten in place to an IConstExp of unsigned long, the
// same as any other plain integer constant the folder produces.
func (a *Analyzer) analyzeSizeofAlignof(e *ast.ExecNode) {
	operandTy := e.Child[0].Type
	if e.Child[1] != nil {
		operandTy = e.Child[1].Type
	}
	cat := types.Category(operandTy)
	if cat == token.Function {
		opName := "sizeof"
		if e.Op == token.AlignOf {
			opName = "_Alignof"
		}
		a.errorR(e, "%s applied to a function type", opName)
		return
	}
	if cat == token.Subscript {
		if bound, ok := operandTy.Idl.Attr.(ast.ArraySize); ok && bound.Size == nil {
			a.errorR(e, "sizeof applied to an incomplete array type")
			return
		}
	}
	e.Type = ast.SimpleType(token.UnsignedLong)
	if _, ok := a.Folder.Fold(e, false, false); !ok {
		e.SetError()
	}
}
