package ir

import (
	"github.com/pkg/errors"

	"luxcc/internal/ast"
	"luxcc/internal/token"
	"luxcc/internal/types"
)

// lowerRootExpr numbers e's subtree with Sethi-Ullman register counts
// and lowers it, for every expression that is the root of its own
// statement-level evaluation (an expression statement, a condition, a
// return value, a switch subject): lowerExpr's binary-operand-order
// choice reads NReg off freshly-numbered children, so numbering must
// happen once, top-down, before any lowering of that subtree begins.
func (fc *FuncCompiler) lowerRootExpr(e *ast.ExecNode) AddrID {
	NumberExpressionTree(e)
	return fc.lowerExpr(e, false)
}

// lowerExpr is phase 3 of function lowering.
// isAddr asks for e's address rather than its value — only meaningful
// for the handful of shapes that distinguish the two (identifiers,
// whose address and value are the same Address record in this core's
// model; indirection, subscript, and member access, whose address is
// an Add-synthesized pointer a caller may load through or store
// through). Every other shape ignores isAddr.
func (fc *FuncCompiler) lowerExpr(e *ast.ExecNode, isAddr bool) AddrID {
	if isAddr {
		addr, _ := fc.lvalueAddr(e)
		return addr
	}

	switch e.Kind {
	case ast.IConstExp:
		return fc.addrs.constant(e.IntValue, types.Category(e.Type))
	case ast.StrLitExp:
		return fc.addrs.strLit(e.StrValue)
	case ast.IdExp:
		return fc.identAddr(e)
	}

	switch e.Op {
	case token.Comma:
		return fc.lowerComma(e)
	case token.Assign, token.MulAssign, token.DivAssign, token.ModAssign,
		token.AddAssign, token.SubAssign, token.ShlAssign, token.ShrAssign,
		token.AndAssign, token.XorAssign, token.OrAssign:
		return fc.lowerAssignExpr(e)
	case token.Conditional:
		return fc.lowerConditional(e)
	case token.AndAnd:
		return fc.lowerShortCircuit(e, false)
	case token.OrOr:
		return fc.lowerShortCircuit(e, true)
	case token.Eq, token.Neq, token.Lt, token.Gt, token.Let, token.Get,
		token.And, token.Xor, token.Or, token.Shl, token.Shr,
		token.Mul, token.Div, token.Mod:
		return fc.lowerSimpleBinary(e, binOpQuad[e.Op])
	case token.Plus, token.Minus:
		return fc.lowerAdditive(e)
	case token.Cast:
		return fc.lowerCast(e)
	case token.PreIncr, token.PreDecr, token.PostIncr, token.PostDecr:
		return fc.lowerIncDec(e)
	case token.AddrOf:
		return fc.lowerAddrOf(e)
	case token.Indirection, token.Subscript_Expr, token.Dot, token.Arrow:
		return fc.loadLvalue(e)
	case token.Unary_Plus, token.Unary_Minus, token.Complement:
		return fc.lowerUnaryArith(e)
	case token.Negation:
		return fc.lowerNegation(e)
	case token.Call:
		return fc.lowerCall(e)
	}
	panic(errors.Errorf("ir: unreachable expression shape %s", e.Op))
}

// identAddr interns e's identifier by its mangled name (verbatim for
// parameters), recording the location map's stack offset and a
// back-link to the referencing node on first sight.
func (fc *FuncCompiler) identAddr(e *ast.ExecNode) AddrID {
	offset, _ := fc.Locations.GetOffset(e.Ident.Name)
	return fc.addrs.ident(mangledName(e.Ident), types.Category(e.Type), offset, e)
}

// lvalueAddr resolves e to the Address a load/store should go through,
// and reports whether that address names actual memory (needing
// Ind/IndAsn) as opposed to a scalar local treated as a bare register
// (needing a plain Asn). A plain identifier is its own Address, so it
// skips the Ind/IndAsn pair the memory-backed shapes use.
func (fc *FuncCompiler) lvalueAddr(e *ast.ExecNode) (addr AddrID, isMemory bool) {
	if e.Kind == ast.IdExp {
		return fc.identAddr(e), false
	}
	switch e.Op {
	case token.Indirection:
		return fc.lowerExpr(e.Child[0], false), true
	case token.Subscript_Expr:
		return fc.subscriptAddr(e), true
	case token.Dot, token.Arrow:
		return fc.memberAddr(e), true
	default:
		panic(errors.Errorf("ir: %s is not an lvalue shape", e.Op))
	}
}

func (fc *FuncCompiler) loadLvalue(e *ast.ExecNode) AddrID {
	addr, isMemory := fc.lvalueAddr(e)
	if !isMemory {
		return addr
	}
	target := fc.addrs.temp(types.Category(e.Type))
	fc.emit(Quad{Op: OpInd, Type: types.Category(e.Type), Target: target, Arg1: addr})
	return target
}

func (fc *FuncCompiler) storeLvalue(e *ast.ExecNode, val AddrID) AddrID {
	addr, isMemory := fc.lvalueAddr(e)
	cat := types.Category(e.Type)
	if !isMemory {
		fc.emit(Quad{Op: OpAsn, Type: cat, Target: addr, Arg1: val})
		return addr
	}
	fc.emit(Quad{Op: OpIndAsn, Type: cat, Target: addr, Arg1: val})
	return val
}

// pointeeOf strips one level of pointer/array indirection from a
// pointer-or-array Declaration.
func pointeeOf(d ast.Declaration) ast.Declaration {
	return ast.Declaration{DeclSpecs: d.DeclSpecs, Idl: d.Idl.Child}
}

func (fc *FuncCompiler) sizeOf(d ast.Declaration) uint64 {
	return types.SizeOf(d, fc.Symbols, fc.Flags, fc.constIntSize)
}

// subscriptAddr computes e[i]'s address: whichever operand is the
// pointer supplies the base, the other the index, scaled by the
// pointee's size, exactly as analyzeSubscript resolved which operand
// plays which role during analysis.
func (fc *FuncCompiler) subscriptAddr(e *ast.ExecNode) AddrID {
	base, idx := e.Child[0], e.Child[1]
	if !types.IsPointer(types.Category(base.Type)) {
		base, idx = idx, base
	}
	baseAddr := fc.lowerExpr(base, false)
	idxAddr := fc.lowerExpr(idx, false)
	scale := fc.sizeOf(pointeeOf(base.Type))
	scaled := fc.scaleIndex(idxAddr, scale)
	addrResult := fc.addrs.temp(token.Star)
	fc.emit(Quad{Op: OpAdd, Type: token.Star, Target: addrResult, Arg1: baseAddr, Arg2: scaled})
	return addrResult
}

// scaleIndex multiplies idxAddr by scale, skipping the multiply
// entirely when the element size is 1 (char/byte arrays), the same
// shortcut a real codegen backend would take.
func (fc *FuncCompiler) scaleIndex(idxAddr AddrID, scale uint64) AddrID {
	if scale == 1 {
		return idxAddr
	}
	scaleConst := fc.addrs.constant(int64(scale), token.UnsignedLong)
	t := fc.addrs.temp(token.UnsignedLong)
	fc.emit(Quad{Op: OpMul, Type: token.UnsignedLong, Target: t, Arg1: idxAddr, Arg2: scaleConst})
	return t
}

// memberAddr computes "base.m" / "base->m"'s address as base + the
// member's byte offset.
func (fc *FuncCompiler) memberAddr(e *ast.ExecNode) AddrID {
	base := e.Child[0]
	var baseAddr AddrID
	var aggTy ast.Declaration
	if e.Op == token.Arrow {
		baseAddr = fc.lowerExpr(base, false)
		aggTy = pointeeOf(base.Type)
	} else {
		baseAddr = fc.lowerExpr(base, true)
		aggTy = base.Type
	}
	tag := types.TypeSpec(aggTy.DeclSpecs).Tag
	desc, _ := fc.Symbols.LookupStructDescriptor(tag)
	md, _ := fc.Symbols.GetMemberDescriptor(desc, e.Child[1].StrValue)
	if md.Offset == 0 {
		return baseAddr
	}
	offConst := fc.addrs.constant(int64(md.Offset), token.UnsignedLong)
	t := fc.addrs.temp(token.Star)
	fc.emit(Quad{Op: OpAdd, Type: token.Star, Target: t, Arg1: baseAddr, Arg2: offConst})
	return t
}

func (fc *FuncCompiler) lowerComma(e *ast.ExecNode) AddrID {
	fc.lowerExpr(e.Child[0], false)
	return fc.lowerExpr(e.Child[1], false)
}

// lowerSimpleBinary covers every binary operator whose result never
// needs pointer scaling: multiplicative, bitwise, shift, relational,
// equality. The higher-Sethi-Ullman-numbered side evaluates first when
// operand order is free to choose (commutative(e.Op)), to minimize the
// live temporaries needed across the pair; the quad itself always
// records operands in source order regardless of which was computed
// first.
func (fc *FuncCompiler) lowerSimpleBinary(e *ast.ExecNode, op Op) AddrID {
	left, right := e.Child[0], e.Child[1]
	var la, ra AddrID
	if commutative(e.Op) && right.NReg > left.NReg {
		ra = fc.lowerExpr(right, false)
		la = fc.lowerExpr(left, false)
	} else {
		la = fc.lowerExpr(left, false)
		ra = fc.lowerExpr(right, false)
	}
	cat := types.Category(e.Type)
	target := fc.addrs.temp(cat)
	fc.emit(Quad{Op: op, Type: cat, Target: target, Arg1: la, Arg2: ra})
	return target
}

// lowerAdditive handles +/-, which alone among the binary operators
// need pointer-arithmetic scaling: pointer+integer (either operand
// order), pointer-integer, and pointer-pointer (producing a scaled
// element-count difference, result type long per analyzeAdditive).
func (fc *FuncCompiler) lowerAdditive(e *ast.ExecNode) AddrID {
	left, right := e.Child[0], e.Child[1]
	leftCat, rightCat := types.Category(left.Type), types.Category(right.Type)
	resultCat := types.Category(e.Type)

	switch {
	case e.Op == token.Plus && types.IsPointer(leftCat) && types.IsInteger(rightCat):
		return fc.lowerPointerOffset(OpAdd, left, right, resultCat)
	case e.Op == token.Plus && types.IsInteger(leftCat) && types.IsPointer(rightCat):
		return fc.lowerPointerOffset(OpAdd, right, left, resultCat)
	case e.Op == token.Minus && types.IsPointer(leftCat) && types.IsPointer(rightCat):
		return fc.lowerPointerDiff(left, right)
	case e.Op == token.Minus && types.IsPointer(leftCat) && types.IsInteger(rightCat):
		return fc.lowerPointerOffset(OpSub, left, right, resultCat)
	default:
		op := OpAdd
		if e.Op == token.Minus {
			op = OpSub
		}
		return fc.lowerSimpleBinary(e, op)
	}
}

// lowerPointerOffset lowers "ptr + idx" / "ptr - idx": idx is scaled
// by the pointee's size ("p+2" over an int pointer becomes Mul t1,2,4
// then Add t2,p,t1) before combining with ptr via op.
func (fc *FuncCompiler) lowerPointerOffset(op Op, ptr, idx *ast.ExecNode, resultCat token.Token) AddrID {
	ptrAddr := fc.lowerExpr(ptr, false)
	idxAddr := fc.lowerExpr(idx, false)
	scale := fc.sizeOf(pointeeOf(ptr.Type))
	scaled := fc.scaleIndex(idxAddr, scale)
	target := fc.addrs.temp(resultCat)
	fc.emit(Quad{Op: op, Type: resultCat, Target: target, Arg1: ptrAddr, Arg2: scaled})
	return target
}

// lowerPointerDiff lowers "p1 - p2": a raw element-count difference,
// divided by the pointee's size when that size exceeds one byte.
func (fc *FuncCompiler) lowerPointerDiff(left, right *ast.ExecNode) AddrID {
	lAddr := fc.lowerExpr(left, false)
	rAddr := fc.lowerExpr(right, false)
	diff := fc.addrs.temp(token.Long)
	fc.emit(Quad{Op: OpSub, Type: token.Long, Target: diff, Arg1: lAddr, Arg2: rAddr})
	scale := fc.sizeOf(pointeeOf(left.Type))
	if scale <= 1 {
		return diff
	}
	scaleConst := fc.addrs.constant(int64(scale), token.Long)
	result := fc.addrs.temp(token.Long)
	fc.emit(Quad{Op: OpDiv, Type: token.Long, Target: result, Arg1: diff, Arg2: scaleConst})
	return result
}

// lowerShortCircuit implements &&/|| via the canonical four-label
// sequence, producing a 0/1 int temporary:
// isOr selects which side short-circuits to the "true" label directly
// rather than falling through to evaluate the other operand.
func (fc *FuncCompiler) lowerShortCircuit(e *ast.ExecNode, isOr bool) AddrID {
	left, right := e.Child[0], e.Child[1]
	result := fc.addrs.temp(token.Int)
	lnext, ltrue, lfalse, lend := fc.newLabel(), fc.newLabel(), fc.newLabel(), fc.newLabel()

	lAddr := fc.lowerExpr(left, false)
	if isOr {
		fc.emitCBr(lAddr, ltrue, lnext)
	} else {
		fc.emitCBr(lAddr, lnext, lfalse)
	}
	fc.emitLabel(lnext)
	rAddr := fc.lowerExpr(right, false)
	fc.emitCBr(rAddr, ltrue, lfalse)

	fc.emitLabel(ltrue)
	one := fc.addrs.constant(1, token.Int)
	fc.emit(Quad{Op: OpAsn, Type: token.Int, Target: result, Arg1: one})
	fc.emitJmp(lend)

	fc.emitLabel(lfalse)
	zero := fc.addrs.constant(0, token.Int)
	fc.emit(Quad{Op: OpAsn, Type: token.Int, Target: result, Arg1: zero})

	fc.emitLabel(lend)
	return result
}

func (fc *FuncCompiler) lowerConditional(e *ast.ExecNode) AddrID {
	cond, t, f := e.Child[0], e.Child[1], e.Child[2]
	cat := types.Category(e.Type)
	result := fc.addrs.temp(cat)
	ltrue, lfalse, lend := fc.newLabel(), fc.newLabel(), fc.newLabel()

	condAddr := fc.lowerExpr(cond, false)
	fc.emitCBr(condAddr, ltrue, lfalse)

	fc.emitLabel(ltrue)
	tAddr := fc.lowerExpr(t, false)
	fc.emit(Quad{Op: OpAsn, Type: cat, Target: result, Arg1: tAddr})
	fc.emitJmp(lend)

	fc.emitLabel(lfalse)
	fAddr := fc.lowerExpr(f, false)
	fc.emit(Quad{Op: OpAsn, Type: cat, Target: result, Arg1: fAddr})

	fc.emitLabel(lend)
	return result
}

// compoundBaseOp mirrors internal/sema's table: the binary operator a
// compound assignment's "a op= b" expands to as "a = a op b".
var compoundBaseOp = map[token.Token]Op{
	token.MulAssign: OpMul,
	token.DivAssign: OpDiv,
	token.ModAssign: OpRem,
	token.AddAssign: OpAdd,
	token.SubAssign: OpSub,
	token.ShlAssign: OpSHL,
	token.ShrAssign: OpSHR,
	token.AndAssign: OpAnd,
	token.XorAssign: OpXor,
	token.OrAssign:  OpOr,
}

func (fc *FuncCompiler) lowerAssignExpr(e *ast.ExecNode) AddrID {
	left, right := e.Child[0], e.Child[1]
	cat := types.Category(e.Type)
	if e.Op == token.Assign {
		rAddr := fc.lowerExpr(right, false)
		rAddr = fc.convert(rAddr, types.Category(right.Type), types.Category(left.Type))
		return fc.storeLvalue(left, rAddr)
	}

	op := compoundBaseOp[e.Op]
	lVal := fc.loadLvalue(left)
	rAddr := fc.lowerExpr(right, false)
	if (op == OpAdd || op == OpSub) && types.IsPointer(types.Category(left.Type)) {
		scale := fc.sizeOf(pointeeOf(left.Type))
		rAddr = fc.scaleIndex(rAddr, scale)
	}
	combined := fc.addrs.temp(cat)
	fc.emit(Quad{Op: op, Type: cat, Target: combined, Arg1: lVal, Arg2: rAddr})
	return fc.storeLvalue(left, combined)
}

func (fc *FuncCompiler) lowerCast(e *ast.ExecNode) AddrID {
	operand := e.Child[0]
	val := fc.lowerExpr(operand, false)
	return fc.convert(val, types.Category(operand.Type), types.Category(e.Type))
}

func (fc *FuncCompiler) lowerIncDec(e *ast.ExecNode) AddrID {
	operand := e.Child[0]
	cat := types.Category(operand.Type)
	oldVal := fc.loadLvalue(operand)

	step := fc.addrs.constant(1, cat)
	if types.IsPointer(cat) {
		scale := fc.sizeOf(pointeeOf(operand.Type))
		step = fc.addrs.constant(int64(scale), token.UnsignedLong)
	}
	op := OpAdd
	if e.Op == token.PreDecr || e.Op == token.PostDecr {
		op = OpSub
	}
	newVal := fc.addrs.temp(cat)
	fc.emit(Quad{Op: op, Type: cat, Target: newVal, Arg1: oldVal, Arg2: step})
	fc.storeLvalue(operand, newVal)

	if e.Op == token.PreIncr || e.Op == token.PreDecr {
		return newVal
	}
	return oldVal
}

func (fc *FuncCompiler) lowerAddrOf(e *ast.ExecNode) AddrID {
	operandAddr := fc.lowerExpr(e.Child[0], true)
	cat := types.Category(e.Type)
	target := fc.addrs.temp(cat)
	fc.emit(Quad{Op: OpAddrOf, Type: cat, Target: target, Arg1: operandAddr})
	return target
}

func (fc *FuncCompiler) lowerUnaryArith(e *ast.ExecNode) AddrID {
	val := fc.lowerExpr(e.Child[0], false)
	if e.Op == token.Unary_Plus {
		return val
	}
	op := OpNeg
	if e.Op == token.Complement {
		op = OpCmpl
	}
	cat := types.Category(e.Type)
	target := fc.addrs.temp(cat)
	fc.emit(Quad{Op: op, Type: cat, Target: target, Arg1: val})
	return target
}

func (fc *FuncCompiler) lowerNegation(e *ast.ExecNode) AddrID {
	val := fc.lowerExpr(e.Child[0], false)
	target := fc.addrs.temp(token.Int)
	fc.emit(Quad{Op: OpNot, Type: token.Int, Target: target, Arg1: val})
	return target
}

// lowerCall lowers arguments right-to-left, bracketed
// by BegArg, then emits Call for a direct function reference or
// IndCall through a function pointer value.
func (fc *FuncCompiler) lowerCall(e *ast.ExecNode) AddrID {
	callee := e.Child[0]
	var args []*ast.ExecNode
	for a := e.Child[1]; a != nil; a = a.Sibling {
		args = append(args, a)
	}

	fc.emit(Quad{Op: OpBegArg})
	for i := len(args) - 1; i >= 0; i-- {
		argAddr := fc.lowerExpr(args[i], false)
		fc.emit(Quad{Op: OpArg, Arg1: argAddr})
	}

	cat := types.Category(e.Type)
	target := fc.addrs.temp(cat)
	argc := fc.addrs.constant(int64(len(args)), token.Int)
	if callee.Kind == ast.IdExp && types.Category(callee.Type) == token.Function {
		calleeAddr := fc.identAddr(callee)
		fc.emit(Quad{Op: OpCall, Type: cat, Target: target, Arg1: calleeAddr, Arg2: argc})
		return target
	}
	calleeAddr := fc.lowerExpr(callee, false)
	fc.emit(Quad{Op: OpIndCall, Type: cat, Target: target, Arg1: calleeAddr, Arg2: argc})
	return target
}

func (fc *FuncCompiler) emitJmp(label AddrID) {
	fc.emit(Quad{Op: OpJmp, Target: label})
}

// emitCBr emits a conditional branch: cond is the branch condition's
// address, trueL/falseL the labels taken when it's nonzero/zero.
func (fc *FuncCompiler) emitCBr(cond, trueL, falseL AddrID) {
	fc.emit(Quad{Op: OpCBr, Target: cond, Arg1: trueL, Arg2: falseL})
}
