package ir

import (
	"luxcc/internal/token"
	"luxcc/internal/types"
)

// convert implements phase 4, type conversion: insert a narrowing
// (Ch/UCh/Sh/USh) or long-long-widening (LLSX/LLZX) quad only when the
// source category actually needs one to become to; every other
// conversion (e.g. int -> unsigned of the same width) is a pure
// reinterpretation the quad stream does not need an instruction for.
func (fc *FuncCompiler) convert(val AddrID, from, to token.Token) AddrID {
	if from == to || !types.IsInteger(from) || !types.IsInteger(to) {
		return val
	}
	switch to {
	case token.Char, token.SignedChar:
		if types.Rank(from) > types.Rank(to) {
			return fc.emitConv(OpCh, to, val)
		}
	case token.UnsignedChar:
		if types.Rank(from) > types.Rank(to) {
			return fc.emitConv(OpUCh, to, val)
		}
	case token.Short:
		if types.Rank(from) > types.Rank(to) {
			return fc.emitConv(OpSh, to, val)
		}
	case token.UnsignedShort:
		if types.Rank(from) > types.Rank(to) {
			return fc.emitConv(OpUSh, to, val)
		}
	case token.LongLong, token.UnsignedLongLong:
		if types.Rank(from) < types.Rank(to) {
			op := OpLLZX
			if types.IsSignedInt(from) {
				op = OpLLSX
			}
			return fc.emitConv(op, to, val)
		}
	}
	return val
}

func (fc *FuncCompiler) emitConv(op Op, to token.Token, val AddrID) AddrID {
	target := fc.addrs.temp(to)
	fc.emit(Quad{Op: op, Type: to, Target: target, Arg1: val})
	return target
}
