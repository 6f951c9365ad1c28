package sema

import (
	"luxcc/internal/ast"
	"luxcc/internal/token"
	"luxcc/internal/types"
)

// compoundBaseOp maps a compound-assignment operator to the binary
// operator synthesized to re-derive the result type ("a op= b" types
// as "a = a op b").
var compoundBaseOp = map[token.Token]token.Token{
	token.MulAssign: token.Mul,
	token.DivAssign: token.Div,
	token.ModAssign: token.Mod,
	token.AddAssign: token.Plus,
	token.SubAssign: token.Minus,
	token.ShlAssign: token.Shl,
	token.ShrAssign: token.Shr,
	token.AndAssign: token.And,
	token.XorAssign: token.Xor,
	token.OrAssign:  token.Or,
}

// analyzeAssignment types simple and compound assignment. The left
// operand must be a modifiable lvalue; compound forms synthesize an
// equivalent binary-operator node over the (already-analyzed) operands
// and re-dispatch to that operator's handler to compute the type the
// right side converts from — the "a op= b" -> "a = a op b" rewrite,
// without actually splicing the synthesized node into the tree
// callers see.
func (a *Analyzer) analyzeAssignment(e *ast.ExecNode) {
	left, right := e.Child[0], e.Child[1]
	if !types.IsModifiableLvalue(left, a.Symbols) {
		a.errorR(e, "left-hand side of assignment is not assignable")
		return
	}
	if e.Op != token.Assign {
		base, ok := compoundBaseOp[e.Op]
		if !ok {
			a.errorR(e, "unsupported compound assignment operator")
			return
		}
		synth := &ast.ExecNode{Kind: ast.OpExp, Op: base, Child: [4]*ast.ExecNode{left, right}, Loc: e.Loc}
		a.analyzeOp(synth)
		if synth.IsError() {
			e.SetError()
			return
		}
		right = synth
	}
	if !types.CanAssignTo(left.Type, right, a.Compat, a.Str, a.Diags, a.Flags) {
		a.errorR(e, "assignment to %q from incompatible type %q", a.Str.Stringify(left.Type, true), a.Str.Stringify(right.Type, true))
		return
	}
	e.Type = left.Type
}

// analyzeCast types "(T)e": destination void accepts any operand;
// every other destination requires a scalar operand, and structs,
// unions, arrays, and functions are never cast destinations.
func (a *Analyzer) analyzeCast(e *ast.ExecNode) {
	operand := e.Child[0]
	dest := e.Child[1].Type
	destCat := types.Category(dest)
	if destCat == token.Struct || destCat == token.Union {
		a.errorR(e, "cannot cast to a struct or union type")
		return
	}
	// An array or function type is never a cast destination; only void,
	// integer, and pointer types are (Subscript counts as a pointer for
	// operand decay, never for a destination).
	if destCat != token.Void && destCat != token.Star && !types.IsInteger(destCat) {
		a.errorR(e, "conversion to non-scalar type requested")
		return
	}
	if destCat != token.Void && !types.IsScalar(types.Category(operand.Type)) {
		a.errorR(e, "operand of cast is not scalar")
		return
	}
	e.Type = dest
	a.Folder.TryFold(e, false, false)
}

// analyzeConditional types "c ? t : f" by the seven-way common-type
// rule: both arithmetic (usual conversions), both void, same
// struct/union tag, both pointers (compatible, one a null-pointer
// constant, or one a void pointer — qualifiers union into const
// volatile per CombineQualifiers), or one side a null-pointer constant
// against a pointer. The qualifier merge is single-level: nested
// pointer-to-pointer qualifier mismatches pass through unmerged.
func (a *Analyzer) analyzeConditional(e *ast.ExecNode) {
	cond, t, f := e.Child[0], e.Child[1], e.Child[2]
	if !types.IsScalar(types.Category(cond.Type)) {
		a.errorR(e, "condition of conditional expression must be scalar")
		return
	}
	tc, fc := types.Category(t.Type), types.Category(f.Type)
	switch {
	case types.IsInteger(tc) && types.IsInteger(fc):
		e.Type = ast.SimpleType(a.usualArithmeticConversion(tc, fc))
	case tc == token.Void && fc == token.Void:
		e.Type = ast.SimpleType(token.Void)
	case (tc == token.Struct || tc == token.Union) && tc == fc:
		if types.TypeSpec(t.Type.DeclSpecs).Tag != types.TypeSpec(f.Type.DeclSpecs).Tag {
			a.errorR(e, "operands of conditional expression have incompatible struct/union types")
			return
		}
		e.Type = t.Type
	case types.IsPointer(tc) && types.IsPointer(fc):
		e.Type = a.mergePointerBranch(t, f)
	case types.IsPointer(tc) && types.NullPointerConstant(f):
		e.Type = t.Type
	case types.IsPointer(fc) && types.NullPointerConstant(t):
		e.Type = f.Type
	default:
		a.errorR(e, "incompatible operand types in conditional expression")
		return
	}
	a.Folder.TryFold(e, false, false)
}

// mergePointerBranch computes the conditional operator's common
// pointer type when both branches are pointers: whichever branch is
// not a bare void pointer supplies the pointee's base type, and the
// two branches' pointee qualifiers combine the way adjacent
// const/volatile specifiers do elsewhere in this core.
func (a *Analyzer) mergePointerBranch(t, f *ast.ExecNode) ast.Declaration {
	tPointee := ast.Declaration{DeclSpecs: t.Type.DeclSpecs, Idl: t.Type.Idl.Child}
	fPointee := ast.Declaration{DeclSpecs: f.Type.DeclSpecs, Idl: f.Type.Idl.Child}
	tIsVoid := types.TypeSpec(tPointee.DeclSpecs).Op == token.Void && tPointee.Idl == nil
	fIsVoid := types.TypeSpec(fPointee.DeclSpecs).Op == token.Void && fPointee.Idl == nil

	base := tPointee
	if tIsVoid && !fIsVoid {
		base = fPointee
	}
	q := ast.CombineQualifiers(ast.Qualifier(tPointee.DeclSpecs), ast.Qualifier(fPointee.DeclSpecs))
	merged := base
	if q != token.Error {
		merged = ast.Declaration{DeclSpecs: &ast.TypeExp{Op: q, Sibling: types.TypeSpec(base.DeclSpecs)}, Idl: base.Idl}
	}
	return ast.PointerTo(merged)
}
