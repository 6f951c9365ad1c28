package sema

import (
	"luxcc/internal/ast"
	"luxcc/internal/token"
	"luxcc/internal/types"
)

// analyzeSubscript types e[i]. One of the two operands must be a
// pointer/array and the other an integer; the result type is the
// pointee type, qualifiers dropped.
func (a *Analyzer) analyzeSubscript(e *ast.ExecNode) {
	base, idx := e.Child[0], e.Child[1]
	baseCat, idxCat := types.Category(base.Type), types.Category(idx.Type)

	if !types.IsPointer(baseCat) {
		if !types.IsPointer(idxCat) {
			a.errorR(e, "subscripted value is neither array nor pointer")
			return
		}
		base, idx = idx, base
	}
	if !types.IsInteger(types.Category(idx.Type)) {
		a.errorR(e, "array subscript is not an integer")
		return
	}
	pointee := ast.Declaration{DeclSpecs: base.Type.DeclSpecs, Idl: base.Type.Idl.Child}
	switch cat := types.Category(pointee); cat {
	case token.Function:
		a.errorR(e, "subscript of pointer to function")
		return
	case token.Struct, token.Union:
		if !a.Symbols.IsComplete(types.TypeSpec(pointee.DeclSpecs).Tag) {
			a.errorR(e, "subscript of pointer to incomplete type")
			return
		}
	}
	e.Type = pointee
	a.Folder.TryFold(e, false, false)
}

// analyzeCall checks the callee designates a function (or a pointer
// to function, whose Category is Star and whose pointee is looked
// through here) and, when a
// prototype is available, that argument count and per-argument
// assignability hold.
func (a *Analyzer) analyzeCall(e *ast.ExecNode) {
	callee := e.Child[0]
	cat := types.Category(callee.Type)
	var proto *ast.TypeExp
	switch cat {
	case token.Function:
		proto = callee.Type.Idl
	case token.Star:
		if callee.Type.Idl.Child != nil && callee.Type.Idl.Child.Op == token.Function {
			proto = callee.Type.Idl.Child
		}
	}
	if proto == nil {
		a.errorR(e, "called object is not a function or function pointer")
		return
	}
	params, _ := proto.Attr.(ast.ParamList)

	args := make([]*ast.ExecNode, 0, 4)
	for arg := e.Child[1]; arg != nil; arg = arg.Sibling {
		// Arguments chain through Sibling, so analyzeOp's fixed-slot
		// error check never sees them; adopt TOK_ERROR here silently.
		if arg.IsError() {
			e.SetError()
			return
		}
		args = append(args, arg)
	}
	if params.Params != nil && !a.checkCallArgs(e, params, args) {
		return
	}

	retTy := ast.Declaration{DeclSpecs: callee.Type.DeclSpecs, Idl: proto.Child}
	if cat := types.Category(retTy); cat == token.Struct || cat == token.Union {
		if !a.Symbols.IsComplete(types.TypeSpec(retTy.DeclSpecs).Tag) {
			a.errorR(e, "calling a function with incomplete return type")
			return
		}
	}
	e.Type = retTy
}

// checkCallArgs verifies the argument count against the prototype,
// checks per-parameter assignability, and applies the default argument
// promotions to the variadic tail: char/short arguments widen to int
// the way any other arithmetic context promotes them (float->double is
// the other half of the rule, moot here with no floating types).
func (a *Analyzer) checkCallArgs(e *ast.ExecNode, params ast.ParamList, args []*ast.ExecNode) bool {
	if len(args) != len(params.Params) && !params.Variadic {
		a.errorR(e, "too %s arguments to function call", tooWhich(len(args), len(params.Params)))
		return false
	}
	if len(args) < len(params.Params) {
		a.errorR(e, "too few arguments to function call")
		return false
	}
	for i, arg := range args {
		if i < len(params.Params) {
			if !types.CanAssignTo(*params.Params[i], arg, a.Compat, a.Str, a.Diags, a.Flags) {
				a.warn(arg, "incompatible type for argument %d", i+1)
			}
			continue
		}
		if cat := types.Category(arg.Type); types.IsInteger(cat) {
			arg.Type = ast.SimpleType(types.Promote(cat))
		}
	}
	return true
}

func tooWhich(got, want int) string {
	if got > want {
		return "many"
	}
	return "few"
}

// analyzeMember types `.`/`->`: the left operand must be a
// (pointer to a, for `->`) complete struct/union; the result is the
// named member's type with the left's qualifier (if unqualified on
// the member side) merged in. The merge is one level deep: a
// qualified aggregate qualifies its directly-named member, not
// anything reached through further pointers inside it.
func (a *Analyzer) analyzeMember(e *ast.ExecNode) {
	left := e.Child[0]
	member := e.Child[1].StrValue
	aggTy := left.Type
	if e.Op == token.Arrow {
		if types.Category(left.Type) != token.Star {
			a.errorR(e, "member reference base type is not a pointer")
			return
		}
		aggTy = ast.Declaration{DeclSpecs: left.Type.DeclSpecs, Idl: left.Type.Idl.Child}
	}
	cat := types.Category(aggTy)
	if cat != token.Struct && cat != token.Union {
		a.errorR(e, "member reference base type is not a struct or union")
		return
	}
	tag := types.TypeSpec(aggTy.DeclSpecs).Tag
	if !a.Symbols.IsComplete(tag) {
		a.errorR(e, "incomplete type %q", tag)
		return
	}
	desc, _ := a.Symbols.LookupStructDescriptor(tag)
	md, ok := a.Symbols.GetMemberDescriptor(desc, member)
	if !ok {
		a.errorR(e, "no member named %q", member)
		return
	}

	memberTy := md.Type
	if leftQ := ast.Qualifier(aggTy.DeclSpecs); leftQ != token.Error {
		if memberQ := ast.Qualifier(memberTy.DeclSpecs); memberQ == token.Error {
			memberTy = ast.Declaration{
				DeclSpecs: &ast.TypeExp{Op: ast.CombineQualifiers(leftQ, token.Error), Sibling: memberTy.DeclSpecs},
				Idl:       memberTy.Idl,
			}
		}
	}
	e.Type = memberTy
	a.Folder.TryFold(e, false, false)
}

// analyzeIncDec types `++`/`--` (pre and post): the operand must be a
// modifiable lvalue of scalar type; the result carries the operand's
// (unqualified, for the value produced) type.
func (a *Analyzer) analyzeIncDec(e *ast.ExecNode) {
	operand := e.Child[0]
	if !types.IsModifiableLvalue(operand, a.Symbols) {
		a.errorR(e, "expression is not assignable")
		return
	}
	cat := types.Category(operand.Type)
	if !types.IsScalar(cat) {
		a.errorR(e, "cannot increment/decrement a non-scalar type")
		return
	}
	e.Type = operand.Type
}
