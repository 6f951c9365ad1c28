// Package types implements the type model: categories, integer ranks,
// promotions, the usual arithmetic conversions, assignment
// compatibility, lvalue predicates, and size/alignment.
package types

import "luxcc/internal/ast"
import "luxcc/internal/token"

// Category returns the single token representing the outermost type
// constructor of d: TOK_ERROR if d is the error sentinel, otherwise
// the first declarator operator (Star, Subscript, Function), falling
// through to the base specifier when the declarator chain is empty.
func Category(d ast.Declaration) token.Token {
	if d.IsError() {
		return token.Error
	}
	if d.Idl != nil {
		return d.Idl.Op
	}
	return TypeSpec(d.DeclSpecs).Op
}

// TypeSpec walks past storage-class/qualifier nodes in a
// declaration-specifier chain to the base type-specifier node.
func TypeSpec(specs *ast.TypeExp) *ast.TypeExp {
	for specs != nil {
		switch specs.Op {
		case token.Const, token.Volatile, token.ConstVolatile:
			specs = specs.Sibling
			continue
		}
		return specs
	}
	return ast.TyError
}

// IsInteger reports whether cat names an integer type; enum counts as
// a signed integer.
func IsInteger(cat token.Token) bool {
	switch cat {
	case token.Char, token.SignedChar, token.UnsignedChar,
		token.Short, token.UnsignedShort,
		token.Int, token.Unsigned,
		token.Long, token.UnsignedLong,
		token.LongLong, token.UnsignedLongLong,
		token.Enum:
		return true
	}
	return false
}

// IsSignedInt reports whether cat is a signed integer category.
func IsSignedInt(cat token.Token) bool {
	switch cat {
	case token.Char, token.SignedChar, token.Short, token.Int,
		token.Long, token.LongLong, token.Enum:
		return true
	}
	return false
}

// IsUnsignedInt reports whether cat is an unsigned integer category.
func IsUnsignedInt(cat token.Token) bool {
	return IsInteger(cat) && !IsSignedInt(cat)
}

// IsPointer reports whether cat is a pointer-producing declarator
// operator.
func IsPointer(cat token.Token) bool {
	return cat == token.Star || cat == token.Subscript
}

// IsScalar reports whether cat is an arithmetic type or a pointer.
func IsScalar(cat token.Token) bool {
	return IsInteger(cat) || IsPointer(cat)
}

// Rank ordering, highest first: long long > long > int > short > char.
const (
	CharRank  = 1
	ShortRank = 2
	IntRank   = 3
	LongRank  = 4
	LLongRank = 5
)

// Rank returns cat's integer conversion rank.
func Rank(cat token.Token) int {
	switch cat {
	case token.LongLong, token.UnsignedLongLong:
		return LLongRank
	case token.Long, token.UnsignedLong:
		return LongRank
	case token.Int, token.Unsigned, token.Enum:
		return IntRank
	case token.Short, token.UnsignedShort:
		return ShortRank
	case token.Char, token.SignedChar, token.UnsignedChar:
		return CharRank
	default:
		return 0
	}
}

// Promote performs the integer promotions: char/signed-char/unsigned-
// char/short/unsigned-short widen to int; everything else (including
// already-int-or-wider types) is the identity.
func Promote(cat token.Token) token.Token {
	switch cat {
	case token.Char, token.SignedChar, token.UnsignedChar,
		token.Short, token.UnsignedShort:
		return token.Int
	default:
		return cat
	}
}

// ResultType implements the usual arithmetic conversions on two
// already-promoted operand categories.
// Commutative by construction: every branch is symmetric in ty1/ty2
// except where the standard's ordering of "the signed/unsigned
// operand" forces an asymmetric read, and those reads are of the
// value, not the argument position.
func ResultType(ty1, ty2 token.Token, flags Flags) token.Token {
	if ty1 == ty2 {
		return ty1
	}

	rank1, rank2 := Rank(ty1), Rank(ty2)
	sign1, sign2 := IsSignedInt(ty1), IsSignedInt(ty2)

	// Same signedness: higher rank wins.
	if sign1 == sign2 {
		if rank1 > rank2 {
			return ty1
		}
		return ty2
	}

	// The unsigned operand has rank >= the signed operand: unsigned wins.
	if !sign1 && rank1 >= rank2 {
		return ty1
	}
	if !sign2 && rank2 >= rank1 {
		return ty2
	}

	// The signed operand's type can represent every value of the
	// unsigned one: signed wins. Model-dependent per flags.Arch64.
	if flags.Arch64 {
		if sign1 {
			if ty2 != token.UnsignedLong {
				return ty1
			}
		} else {
			if ty1 != token.UnsignedLong {
				return ty2
			}
		}
	} else {
		if sign1 {
			if ty1 == token.LongLong {
				return ty1
			}
		} else {
			if ty2 == token.LongLong {
				return ty2
			}
		}
	}

	// Otherwise both convert to the unsigned type corresponding to the
	// signed operand's type.
	if sign1 {
		if ty1 == token.Long {
			return token.UnsignedLong
		}
		return token.UnsignedLongLong
	}
	if ty2 == token.Long {
		return token.UnsignedLong
	}
	return token.UnsignedLongLong
}
