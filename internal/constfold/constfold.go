// Package constfold evaluates constant expressions: integer-constant
// folding for enumerator values, array bounds, case labels, and
// compile-time arithmetic, plus address-constant folding for static
// initializers ("&x", array/function decay, member offsets, pointer
// arithmetic on a symbolic base).
package constfold

import (
	"luxcc/internal/ast"
	"luxcc/internal/collab"
	"luxcc/internal/token"
	"luxcc/internal/types"
)

// Folder evaluates constant expressions against a fixed set of
// collaborators: the symbol table for member offsets and struct
// sizes, the target flags for widths, and the diagnostic sink for
// required-constant failures.
type Folder struct {
	Symbols   collab.SymbolTable
	Flags     types.Flags
	Diags     collab.Diagnostics
	ArraySize func(*ast.ExecNode) int64
}

// Fold evaluates e as a constant expression. isAddr says e stands
// where its address rather than its value is wanted (the operand of
// `&`), so a named static object folds to an address constant (a
// symbol plus a byte offset); without it only arrays and functions,
// which decay, fold to their address. isIconst requires a plain
// integer, as inside an integer-constant-expression context (array
// bounds, case labels, enumerator initializers, bit-field widths):
// neither object values nor addresses fold.
//
// On success an operator node caches its result on e.Folded; leaf
// identifiers and string literals are not cached. When the result
// carries no symbolic base — every other leaf folded to a plain
// integer — e is also rewritten in place into an IConstExp; an
// IConstExp node can only ever hold a bare int64, so a symbol-carrying
// result leaves e's Kind untouched.
func (f *Folder) Fold(e *ast.ExecNode, isAddr, isIconst bool) (ast.FoldedValue, bool) {
	fv, ok := f.eval(e, isAddr, isIconst)
	if !ok {
		f.Diags.Error(true, e.Loc, "invalid constant expression")
		return ast.FoldedValue{}, false
	}
	return fv, true
}

// TryFold is Fold without the diagnostic: a silent, best-effort
// memoization attempt for a node the caller does not yet know is
// required to be constant (every ordinary arithmetic/pointer
// expression the analyzer types, on the chance a later pass — a case
// label, an array bound, a static initializer — needs the result).
// Callers that DO require e to be constant must use Fold so the
// failure is diagnosed.
func (f *Folder) TryFold(e *ast.ExecNode, isAddr, isIconst bool) (ast.FoldedValue, bool) {
	return f.eval(e, isAddr, isIconst)
}

func (f *Folder) eval(e *ast.ExecNode, isAddr, isIconst bool) (ast.FoldedValue, bool) {
	if e.Folded != nil {
		return *e.Folded, true
	}

	switch e.Kind {
	case ast.IConstExp:
		return ast.FoldedValue{Value: e.IntValue}, true

	case ast.StrLitExp:
		if isIconst {
			return ast.FoldedValue{}, false
		}
		return ast.FoldedValue{IsAddr: true, Symbol: e.StrValue}, true

	case ast.IdExp:
		return f.evalIdent(e, isAddr, isIconst)

	case ast.OpExp:
		return f.evalOp(e, isAddr, isIconst)
	}
	return ast.FoldedValue{}, false
}

func (f *Folder) evalIdent(e *ast.ExecNode, isAddr, isIconst bool) (ast.FoldedValue, bool) {
	if isIconst {
		return ast.FoldedValue{}, false
	}
	designatesArrayOrFunction := e.Type.Idl != nil &&
		(e.Type.Idl.Op == token.Function || e.Type.Idl.Op == token.Subscript)
	if !isAddr && !designatesArrayOrFunction {
		return ast.FoldedValue{}, false
	}
	if e.Ident.Duration != ast.DurationStatic && e.Ident.Linkage == ast.LinkageNone {
		return ast.FoldedValue{}, false
	}
	return ast.FoldedValue{IsAddr: true, Symbol: e.Ident.Name}, true
}

func (f *Folder) evalOp(e *ast.ExecNode, isAddr, isIconst bool) (ast.FoldedValue, bool) {
	switch e.Op {
	case token.Subscript_Expr:
		return f.evalSubscript(e, isIconst)
	case token.Dot, token.Arrow:
		return f.evalMember(e, isAddr, isIconst)
	case token.SizeOf:
		return f.evalSizeof(e)
	case token.AlignOf:
		return f.evalAlignof(e)
	case token.AddrOf:
		return f.evalAddrOf(e, isIconst)
	case token.Indirection:
		return f.evalIndirection(e, isAddr, isIconst)
	case token.Unary_Plus, token.Unary_Minus, token.Complement, token.Negation:
		return f.evalUnaryArith(e, isIconst)
	case token.Cast:
		return f.evalCast(e, isIconst)
	case token.Plus:
		return f.evalAdd(e, isIconst)
	case token.Minus:
		return f.evalSub(e, isIconst)
	case token.Mul, token.Div, token.Mod, token.Shl, token.Shr,
		token.Lt, token.Gt, token.Let, token.Get, token.Eq, token.Neq,
		token.And, token.Xor, token.Or:
		return f.evalBinaryArith(e, isIconst)
	case token.AndAnd:
		return f.evalLogicalAnd(e, isIconst)
	case token.OrOr:
		return f.evalLogicalOr(e, isIconst)
	case token.Conditional:
		return f.evalConditional(e, isIconst)
	}
	return ast.FoldedValue{}, false
}

func (f *Folder) evalSubscript(e *ast.ExecNode, isIconst bool) (ast.FoldedValue, bool) {
	if isIconst {
		return ast.FoldedValue{}, false
	}
	pi, ii := 0, 1
	if types.IsInteger(types.Category(e.Child[0].Type)) {
		pi, ii = 1, 0
	}
	idxFV, idxOK := f.eval(e.Child[ii], false, isIconst)
	if !idxOK || idxFV.Symbol != "" {
		return ast.FoldedValue{}, false
	}
	ptrFV, ptrOK := f.eval(e.Child[pi], true, isIconst)
	if !ptrOK {
		return ast.FoldedValue{}, false
	}
	pointee := e.Child[pi].Type
	pointee.Idl = pointee.Idl.Child
	size := types.SizeOf(pointee, f.Symbols, f.Flags, f.arrayBound)
	return f.combine(e, ptrFV.Symbol, ptrFV.Value+idxFV.Value*int64(size))
}

func (f *Folder) evalMember(e *ast.ExecNode, isAddr, isIconst bool) (ast.FoldedValue, bool) {
	if isIconst {
		return ast.FoldedValue{}, false
	}
	baseFV, ok := f.eval(e.Child[0], isAddr, isIconst)
	if !ok {
		return ast.FoldedValue{}, false
	}
	if types.Category(e.Child[0].Type) == token.Union {
		return f.combine(e, baseFV.Symbol, baseFV.Value)
	}
	tag := types.TypeSpec(e.Child[0].Type.DeclSpecs).Tag
	desc, ok := f.Symbols.LookupStructDescriptor(tag)
	if !ok {
		return ast.FoldedValue{}, false
	}
	member, ok := f.Symbols.GetMemberDescriptor(desc, e.Child[1].StrValue)
	if !ok {
		return ast.FoldedValue{}, false
	}
	return f.combine(e, baseFV.Symbol, baseFV.Value+int64(member.Offset))
}

func (f *Folder) evalSizeof(e *ast.ExecNode) (ast.FoldedValue, bool) {
	var size uint64
	if e.Child[1] != nil {
		size = types.SizeOf(e.Child[1].Type, f.Symbols, f.Flags, f.arrayBound)
	} else {
		size = types.SizeOf(e.Child[0].Type, f.Symbols, f.Flags, f.arrayBound)
	}
	return f.rewriteNumeric(e, int64(size)), true
}

func (f *Folder) evalAlignof(e *ast.ExecNode) (ast.FoldedValue, bool) {
	ty := e.Child[0].Type
	if e.Child[1] != nil {
		ty = e.Child[1].Type
	}
	return f.rewriteNumeric(e, int64(types.Alignment(ty, f.Symbols, f.Flags))), true
}

// arrayBound resolves an array declarator's bound expression: the
// caller-supplied ArraySize hook wins when set; otherwise the folder
// evaluates the bound itself, the natural source of that value since a
// valid bound is an integer constant expression.
func (f *Folder) arrayBound(e *ast.ExecNode) int64 {
	if f.ArraySize != nil {
		return f.ArraySize(e)
	}
	if fv, ok := f.eval(e, false, true); ok && fv.Symbol == "" {
		return fv.Value
	}
	return 0
}

func (f *Folder) evalAddrOf(e *ast.ExecNode, isIconst bool) (ast.FoldedValue, bool) {
	if isIconst {
		return ast.FoldedValue{}, false
	}
	childFV, ok := f.eval(e.Child[0], true, isIconst)
	if !ok {
		return ast.FoldedValue{}, false
	}
	return f.combine(e, childFV.Symbol, childFV.Value)
}

func (f *Folder) evalIndirection(e *ast.ExecNode, isAddr, isIconst bool) (ast.FoldedValue, bool) {
	if isIconst {
		return ast.FoldedValue{}, false
	}
	childFV, ok := f.eval(e.Child[0], isAddr, isIconst)
	if !ok {
		return ast.FoldedValue{}, false
	}
	return f.combine(e, childFV.Symbol, childFV.Value)
}

func (f *Folder) evalUnaryArith(e *ast.ExecNode, isIconst bool) (ast.FoldedValue, bool) {
	childFV, ok := f.eval(e.Child[0], false, isIconst)
	if !ok || childFV.Symbol != "" {
		return ast.FoldedValue{}, false
	}
	var val int64
	switch e.Op {
	case token.Unary_Plus:
		val = childFV.Value
	case token.Unary_Minus:
		val = -childFV.Value
	case token.Complement:
		val = ^childFV.Value
	case token.Negation:
		if childFV.Value == 0 {
			val = 1
		} else {
			val = 0
		}
	}
	return f.rewriteNumeric(e, val), true
}

func (f *Folder) evalCast(e *ast.ExecNode, isIconst bool) (ast.FoldedValue, bool) {
	destCat := types.Category(e.Child[1].Type)
	if isIconst && !types.IsInteger(destCat) {
		return ast.FoldedValue{}, false
	}
	childFV, ok := f.eval(e.Child[0], false, isIconst)
	if !ok {
		return ast.FoldedValue{}, false
	}
	if childFV.Symbol == "" {
		return f.rewriteNumeric(e, truncateInt(childFV.Value, destCat, f.Flags)), true
	}
	// An address can only be cast to a type as wide as a pointer.
	switch destCat {
	case token.Short, token.UnsignedShort, token.Char, token.SignedChar, token.UnsignedChar:
		return ast.FoldedValue{}, false
	case token.Int, token.Unsigned:
		if f.Flags.Arch64 {
			return ast.FoldedValue{}, false
		}
	}
	return childFV, true
}

func truncateInt(v int64, cat token.Token, flags types.Flags) int64 {
	switch cat {
	case token.Short:
		return int64(int16(v))
	case token.UnsignedShort:
		return int64(uint16(v))
	case token.Char, token.SignedChar:
		return int64(int8(v))
	case token.UnsignedChar:
		return int64(uint8(v))
	case token.Int, token.Enum:
		return int64(int32(v))
	case token.Unsigned:
		return int64(uint32(v))
	case token.Long:
		if flags.Arch64 {
			return v
		}
		return int64(int32(v))
	case token.UnsignedLong, token.Star:
		if flags.Arch64 {
			return v
		}
		return int64(uint32(v))
	default:
		return v
	}
}

func (f *Folder) evalAdd(e *ast.ExecNode, isIconst bool) (ast.FoldedValue, bool) {
	if types.IsInteger(types.Category(e.Type)) {
		lfv, lok := f.eval(e.Child[0], false, isIconst)
		rfv, rok := f.eval(e.Child[1], false, isIconst)
		if !lok || !rok || lfv.Symbol != "" || rfv.Symbol != "" {
			return ast.FoldedValue{}, false
		}
		return f.rewriteNumeric(e, lfv.Value+rfv.Value), true
	}
	if isIconst {
		return ast.FoldedValue{}, false
	}
	pi := 0
	if types.IsInteger(types.Category(e.Child[0].Type)) {
		pi = 1
	}
	lfv, lok := f.eval(e.Child[0], false, isIconst)
	rfv, rok := f.eval(e.Child[1], false, isIconst)
	if !lok || !rok {
		return ast.FoldedValue{}, false
	}
	ptrFV, idxFV := lfv, rfv
	if pi == 1 {
		ptrFV, idxFV = rfv, lfv
	}
	if idxFV.Symbol != "" {
		return ast.FoldedValue{}, false
	}
	pointee := e.Child[pi].Type
	pointee.Idl = pointee.Idl.Child
	size := types.SizeOf(pointee, f.Symbols, f.Flags, f.arrayBound)
	return f.combine(e, ptrFV.Symbol, ptrFV.Value+idxFV.Value*int64(size))
}

func (f *Folder) evalSub(e *ast.ExecNode, isIconst bool) (ast.FoldedValue, bool) {
	if types.IsInteger(types.Category(e.Child[0].Type)) {
		lfv, lok := f.eval(e.Child[0], false, isIconst)
		rfv, rok := f.eval(e.Child[1], false, isIconst)
		if !lok || !rok || lfv.Symbol != "" || rfv.Symbol != "" {
			return ast.FoldedValue{}, false
		}
		return f.rewriteNumeric(e, lfv.Value-rfv.Value), true
	}
	if isIconst {
		return ast.FoldedValue{}, false
	}
	lfv, lok := f.eval(e.Child[0], false, isIconst)
	rfv, rok := f.eval(e.Child[1], false, isIconst)
	if !lok || !rok {
		return ast.FoldedValue{}, false
	}
	pointee := e.Child[0].Type
	pointee.Idl = pointee.Idl.Child
	size := int64(types.SizeOf(pointee, f.Symbols, f.Flags, f.arrayBound))
	if types.IsInteger(types.Category(e.Child[1].Type)) {
		// pointer - integer
		return f.combine(e, lfv.Symbol, lfv.Value-rfv.Value*size)
	}
	// pointer - pointer: only meaningful when both share no base, or
	// the same base (element-count difference).
	if lfv.Symbol != rfv.Symbol || size == 0 {
		return ast.FoldedValue{}, false
	}
	return f.rewriteNumeric(e, (lfv.Value-rfv.Value)/size), true
}

func (f *Folder) evalBinaryArith(e *ast.ExecNode, isIconst bool) (ast.FoldedValue, bool) {
	lfv, lok := f.eval(e.Child[0], false, isIconst)
	rfv, rok := f.eval(e.Child[1], false, isIconst)
	if !lok || !rok || lfv.Symbol != "" || rfv.Symbol != "" {
		return ast.FoldedValue{}, false
	}
	l, r := lfv.Value, rfv.Value
	if (e.Op == token.Div || e.Op == token.Mod) && r == 0 {
		return ast.FoldedValue{}, false
	}
	unsigned := types.IsUnsignedInt(types.Category(e.Type))
	var val int64
	switch e.Op {
	case token.Mul:
		val = l * r
	case token.Div:
		if unsigned {
			val = int64(uint64(l) / uint64(r))
		} else {
			val = l / r
		}
	case token.Mod:
		if unsigned {
			val = int64(uint64(l) % uint64(r))
		} else {
			val = l % r
		}
	case token.Shl:
		val = l << uint(r)
	case token.Shr:
		if unsigned {
			val = int64(uint64(l) >> uint(r))
		} else {
			val = l >> uint(r)
		}
	case token.Lt:
		val = boolToInt(ltOp(l, r, unsigned))
	case token.Gt:
		val = boolToInt(ltOp(r, l, unsigned))
	case token.Let:
		val = boolToInt(!ltOp(r, l, unsigned))
	case token.Get:
		val = boolToInt(!ltOp(l, r, unsigned))
	case token.Eq:
		val = boolToInt(l == r)
	case token.Neq:
		val = boolToInt(l != r)
	case token.And:
		val = l & r
	case token.Xor:
		val = l ^ r
	case token.Or:
		val = l | r
	}
	return f.rewriteNumeric(e, val), true
}

func ltOp(l, r int64, unsigned bool) bool {
	if unsigned {
		return uint64(l) < uint64(r)
	}
	return l < r
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// evalLogicalAnd applies &&'s short-circuit rule: either operand
// alone settles the result when it folds to zero; otherwise both
// operands must fold.
func (f *Folder) evalLogicalAnd(e *ast.ExecNode, isIconst bool) (ast.FoldedValue, bool) {
	lfv, lok := f.eval(e.Child[0], false, isIconst)
	if !lok {
		rfv, rok := f.eval(e.Child[1], false, isIconst)
		if !rok || rfv.Value != 0 {
			return ast.FoldedValue{}, false
		}
		return f.rewriteNumeric(e, 0), true
	}
	if lfv.Value == 0 {
		return f.rewriteNumeric(e, 0), true
	}
	rfv, rok := f.eval(e.Child[1], false, isIconst)
	if !rok {
		return ast.FoldedValue{}, false
	}
	return f.rewriteNumeric(e, boolToInt(rfv.Value != 0)), true
}

// evalLogicalOr mirrors TOK_OR's symmetric short-circuit rule.
func (f *Folder) evalLogicalOr(e *ast.ExecNode, isIconst bool) (ast.FoldedValue, bool) {
	lfv, lok := f.eval(e.Child[0], false, isIconst)
	if !lok {
		rfv, rok := f.eval(e.Child[1], false, isIconst)
		if !rok || rfv.Value == 0 {
			return ast.FoldedValue{}, false
		}
		return f.rewriteNumeric(e, 1), true
	}
	if lfv.Value != 0 {
		return f.rewriteNumeric(e, 1), true
	}
	rfv, rok := f.eval(e.Child[1], false, isIconst)
	if !rok {
		return ast.FoldedValue{}, false
	}
	return f.rewriteNumeric(e, boolToInt(rfv.Value != 0)), true
}

func (f *Folder) evalConditional(e *ast.ExecNode, isIconst bool) (ast.FoldedValue, bool) {
	condFV, ok := f.eval(e.Child[0], false, isIconst)
	if !ok {
		return ast.FoldedValue{}, false
	}
	if condFV.Value != 0 {
		branchFV, ok := f.eval(e.Child[1], false, isIconst)
		if !ok {
			return ast.FoldedValue{}, false
		}
		return f.combine(e, branchFV.Symbol, branchFV.Value)
	}
	branchFV, ok := f.eval(e.Child[2], false, isIconst)
	if !ok {
		return ast.FoldedValue{}, false
	}
	return f.combine(e, branchFV.Symbol, branchFV.Value)
}

// rewriteNumeric memoizes and rewrites e into a plain IConstExp; used
// by every rule whose result can never carry a symbolic base.
func (f *Folder) rewriteNumeric(e *ast.ExecNode, val int64) ast.FoldedValue {
	fv := ast.FoldedValue{Value: val}
	e.Folded = &fv
	e.RewriteToIConst(val, e.Type)
	return fv
}

// combine memoizes a fold that may or may not carry a symbolic base,
// rewriting e's Kind to IConstExp only in the non-symbolic case: the
// rewrite never fires while the folded operand still names a
// relocatable symbol.
func (f *Folder) combine(e *ast.ExecNode, symbol string, val int64) (ast.FoldedValue, bool) {
	fv := ast.FoldedValue{IsAddr: symbol != "", Symbol: symbol, Value: val}
	e.Folded = &fv
	if symbol == "" {
		e.RewriteToIConst(val, e.Type)
	}
	return fv, true
}
