package types

import (
	"luxcc/internal/ast"
	"luxcc/internal/collab"
	"luxcc/internal/token"
)

// Integer value ranges per destination category, used to decide
// whether an integer-constant source fits without a "changes value"
// warning. Signed ranges use 2's-complement widths (8/16/32/64-bit
// char/short/int/long-long; `long` follows flags.Arch64).
const (
	charMin   = -128
	charMax   = 127
	ucharMax  = 255
	shortMin  = -32768
	shortMax  = 32767
	ushortMax = 65535
	intMin    = -2147483648
	intMax    = 2147483647
	uintMax   = 4294967295
)

// NullPointerConstant reports whether e is a null-pointer-constant
// expression: the integer literal 0, or a cast of one to a pointer
// type such as "(void*)0".
func NullPointerConstant(e *ast.ExecNode) bool {
	if e == nil {
		return false
	}
	if e.Kind == ast.IConstExp && e.IntValue == 0 && IsInteger(Category(e.Type)) {
		return true
	}
	if e.Kind == ast.OpExp && e.Op == token.Cast && e.Child[0] != nil {
		return NullPointerConstant(e.Child[0])
	}
	return false
}

// CanAssignTo reports whether src can be stored into a variable of
// type dest, emitting warnings through diags as appropriate.
func CanAssignTo(dest ast.Declaration, src *ast.ExecNode, compat collab.CompatibilityChecker, str collab.TypeStringifier, diags collab.Diagnostics, flags Flags) bool {
	catD := Category(dest)
	catS := Category(src.Type)

	switch {
	case IsInteger(catD):
		return canAssignInteger(dest, catD, src, catS, str, diags, flags)
	case catD == token.Struct || catD == token.Union:
		if catD != catS {
			return false
		}
		return TypeSpec(dest.DeclSpecs).Tag == TypeSpec(src.Type.DeclSpecs).Tag
	case catD == token.Star:
		return canAssignPointer(dest, src, catS, compat, str, diags)
	default:
		return false
	}
}

func canAssignInteger(dest ast.Declaration, catD token.Token, src *ast.ExecNode, catS token.Token, str collab.TypeStringifier, diags collab.Diagnostics, flags Flags) bool {
	if IsInteger(catS) {
		if src.Kind == ast.IConstExp {
			if fits, final := IntegerFits(catD, src.IntValue, flags); !fits {
				diags.Warning(src.Loc, "implicit conversion changes value from %d to %d", src.IntValue, final)
			}
			return true
		}

		rankD, rankS := Rank(catD), Rank(catS)
		if flags.Arch64 {
			if rankD == LLongRank {
				rankD = LongRank
			}
			if rankS == LLongRank {
				rankS = LongRank
			}
		} else {
			if rankD == LongRank {
				rankD = IntRank
			}
			if rankS == LongRank {
				rankS = IntRank
			}
		}
		if rankS > rankD {
			diags.Warning(src.Loc, "implicit conversion loses integer precision: %q to %q", catS.String(), catD.String())
		} else if rankD == rankS && IsSignedInt(catD) != IsSignedInt(catS) {
			diags.Warning(src.Loc, "implicit conversion changes signedness: %q to %q", catS.String(), catD.String())
		}
		return true
	}
	if IsPointer(catS) || catS == token.Function {
		if NullPointerConstant(src) {
			return true
		}
		diags.Warning(src.Loc, "pointer to integer conversion without a cast")
		return true
	}
	return false
}

// IntegerFits reports whether val fits in dest's value range without
// truncation, and if not, the bit-exact truncated value per dest's
// width.
func IntegerFits(dest token.Token, val int64, flags Flags) (bool, int64) {
	switch dest {
	case token.UnsignedLongLong, token.LongLong:
		return true, val
	case token.UnsignedLong:
		if flags.Arch64 {
			return true, val
		}
		fallthrough
	case token.Unsigned:
		if val < 0 || val > uintMax {
			return false, int64(uint32(val))
		}
		return true, val
	case token.Long:
		if flags.Arch64 {
			return true, val
		}
		fallthrough
	case token.Int, token.Enum:
		if val < intMin || val > intMax {
			return false, int64(int32(val))
		}
		return true, val
	case token.Short:
		if val < shortMin || val > shortMax {
			return false, int64(int16(val))
		}
		return true, val
	case token.UnsignedShort:
		if val < 0 || val > ushortMax {
			return false, int64(uint16(val))
		}
		return true, val
	case token.Char, token.SignedChar:
		if val < charMin || val > charMax {
			return false, int64(int8(val))
		}
		return true, val
	case token.UnsignedChar:
		if val < 0 || val > ucharMax {
			return false, int64(uint8(val))
		}
		return true, val
	default:
		return true, val
	}
}

func canAssignPointer(dest ast.Declaration, src *ast.ExecNode, catS token.Token, compat collab.CompatibilityChecker, str collab.TypeStringifier, diags collab.Diagnostics) bool {
	if !IsPointer(catS) && catS != token.Function {
		if NullPointerConstant(src) {
			return true
		}
		diags.Warning(src.Loc, "integer to pointer conversion without a cast")
		return true
	}

	destPointee := dest.Idl.Child
	srcPointeeSpecs, srcPointeeIdl := src.Type.DeclSpecs, src.Type.Idl.Child
	if catS == token.Function {
		srcPointeeIdl = src.Type.Idl
	}

	if !compat.AreCompatible(dest.DeclSpecs, destPointee, srcPointeeSpecs, srcPointeeIdl, true, false) {
		destIsVoidPtr := destPointee == nil && TypeSpec(dest.DeclSpecs).Op == token.Void
		srcIsVoidPtr := catS != token.Function && srcPointeeIdl == nil && TypeSpec(srcPointeeSpecs).Op == token.Void
		switch {
		case destIsVoidPtr:
			// any object/incomplete pointer may convert to void*
		case srcIsVoidPtr:
			// void* may convert to any object pointer
		case NullPointerConstant(src):
			return true
		default:
			diags.Warning(src.Loc, "assignment from incompatible pointer type")
			return true
		}
	}

	if qualifierLoss(dest.DeclSpecs, srcPointeeSpecs) {
		diags.Warning(src.Loc, "assignment discards %q qualifier", ast.Qualifier(srcPointeeSpecs).String())
	}
	return true
}

// qualifierLoss reports whether srcSpecs carries a const/volatile
// qualifier destSpecs's pointee does not.
func qualifierLoss(destSpecs, srcSpecs *ast.TypeExp) bool {
	destQ := ast.Qualifier(destSpecs)
	srcQ := ast.Qualifier(srcSpecs)
	if srcQ == token.Error {
		return false
	}
	if srcQ == token.ConstVolatile {
		return destQ != token.ConstVolatile
	}
	return destQ != srcQ && destQ != token.ConstVolatile
}
