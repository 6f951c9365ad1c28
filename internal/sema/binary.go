package sema

import (
	"luxcc/internal/ast"
	"luxcc/internal/token"
	"luxcc/internal/types"
)

// usualArithmeticConversion promotes both operand categories and
// applies ResultType, returning the token both operands convert to.
func (a *Analyzer) usualArithmeticConversion(l, r token.Token) token.Token {
	return types.ResultType(types.Promote(l), types.Promote(r), a.Flags)
}

// analyzeAdditive types +/-: arithmetic+arithmetic follows the usual
// conversions; pointer+integer (either order, + only) and
// pointer-integer, and pointer-pointer (- only, same pointee type)
// are the three pointer-arithmetic shapes C allows.
func (a *Analyzer) analyzeAdditive(e *ast.ExecNode) {
	l, r := e.Child[0], e.Child[1]
	lc, rc := types.Category(l.Type), types.Category(r.Type)

	switch {
	case types.IsInteger(lc) && types.IsInteger(rc):
		e.Type = ast.SimpleType(a.usualArithmeticConversion(lc, rc))

	case types.IsPointer(lc) && types.IsInteger(rc):
		e.Type = ast.Declaration{DeclSpecs: l.Type.DeclSpecs, Idl: l.Type.Idl}

	case e.Op == token.Plus && types.IsInteger(lc) && types.IsPointer(rc):
		e.Type = ast.Declaration{DeclSpecs: r.Type.DeclSpecs, Idl: r.Type.Idl}

	case e.Op == token.Minus && types.IsPointer(lc) && types.IsPointer(rc):
		if !a.Compat.AreCompatible(l.Type.DeclSpecs, l.Type.Idl.Child, r.Type.DeclSpecs, r.Type.Idl.Child, true, false) {
			a.errorR(e, "subtracted pointers point to incompatible types")
			return
		}
		e.Type = ast.SimpleType(token.Long)

	default:
		a.errorR(e, "invalid operands to binary %s", e.Op.String())
		return
	}
	a.Folder.TryFold(e, false, false)
}

// analyzeMultiplicative types * / %: both operands must be arithmetic
// (% additionally requires both to be integer).
func (a *Analyzer) analyzeMultiplicative(e *ast.ExecNode) {
	l, r := e.Child[0], e.Child[1]
	lc, rc := types.Category(l.Type), types.Category(r.Type)
	if !types.IsInteger(lc) || !types.IsInteger(rc) {
		a.errorR(e, "invalid operands to binary %s", e.Op.String())
		return
	}
	e.Type = ast.SimpleType(a.usualArithmeticConversion(lc, rc))
	a.Folder.TryFold(e, false, false)
}

// analyzeBitwise types &, |, ^ (both integer operands, usual
// conversions) and <<, >> (integer operands, result type is the
// promoted LEFT operand's type only — the right operand's type never
// participates in the usual arithmetic conversions for a shift).
func (a *Analyzer) analyzeBitwise(e *ast.ExecNode) {
	l, r := e.Child[0], e.Child[1]
	lc, rc := types.Category(l.Type), types.Category(r.Type)
	if !types.IsInteger(lc) || !types.IsInteger(rc) {
		a.errorR(e, "invalid operands to binary %s", e.Op.String())
		return
	}
	if e.Op == token.Shl || e.Op == token.Shr {
		e.Type = ast.SimpleType(types.Promote(lc))
	} else {
		e.Type = ast.SimpleType(a.usualArithmeticConversion(lc, rc))
	}
	a.Folder.TryFold(e, false, false)
}

// analyzeRelational types </>/<=/>=: both arithmetic (usual
// conversions determine nothing about the int result type itself,
// which is always int), or both pointers to compatible types, or one
// side a null pointer constant.
func (a *Analyzer) analyzeRelational(e *ast.ExecNode) {
	l, r := e.Child[0], e.Child[1]
	lc, rc := types.Category(l.Type), types.Category(r.Type)
	switch {
	case types.IsInteger(lc) && types.IsInteger(rc):
	case types.IsPointer(lc) && types.IsPointer(rc):
	case types.IsPointer(lc) && types.IsInteger(rc) && types.NullPointerConstant(r):
	case types.IsInteger(lc) && types.IsPointer(rc) && types.NullPointerConstant(l):
	default:
		a.errorR(e, "invalid operands to binary %s", e.Op.String())
		return
	}
	e.Type = ast.SimpleType(token.Int)
	a.Folder.TryFold(e, false, false)
}

// analyzeLogical types && and ||: both operands must be scalar; the
// result is always int. The folder's short-circuit rule (§4.4) means
// only one operand needs to fold for the whole expression to fold.
func (a *Analyzer) analyzeLogical(e *ast.ExecNode) {
	l, r := e.Child[0], e.Child[1]
	if !types.IsScalar(types.Category(l.Type)) || !types.IsScalar(types.Category(r.Type)) {
		a.errorR(e, "invalid operands to %s", e.Op.String())
		return
	}
	e.Type = ast.SimpleType(token.Int)
	a.Folder.TryFold(e, false, false)
}

// analyzeComma types a comma expression as its right operand's type,
// the left operand evaluated purely for side effects.
func (a *Analyzer) analyzeComma(e *ast.ExecNode) {
	e.Type = e.Child[1].Type
}
