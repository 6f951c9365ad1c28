package sema

import (
	"luxcc/internal/ast"
	"luxcc/internal/token"
	"luxcc/internal/types"
)

// The standard's per-base, per-suffix integer literal type lists: a
// decimal literal with no suffix may only ever become a signed type
// first, widening through long/long long; octal and hexadecimal
// literals are additionally allowed to land on the unsigned type at
// the same rank, since nothing about their spelling implies sign.
var (
	decimalNoSuffix = []token.Token{token.Int, token.Long, token.LongLong}
	hexOctNoSuffix  = []token.Token{token.Int, token.Unsigned, token.Long, token.UnsignedLong, token.LongLong, token.UnsignedLongLong}
	uSuffixList     = []token.Token{token.Unsigned, token.UnsignedLong, token.UnsignedLongLong}
	decimalLSuffix  = []token.Token{token.Long, token.LongLong}
	hexOctLSuffix   = []token.Token{token.Long, token.UnsignedLong, token.LongLong, token.UnsignedLongLong}
	ulSuffixList    = []token.Token{token.UnsignedLong, token.UnsignedLongLong}
	decimalLLSuffix = []token.Token{token.LongLong}
	hexOctLLSuffix  = []token.Token{token.LongLong, token.UnsignedLongLong}
	ullSuffixList   = []token.Token{token.UnsignedLongLong}
)

func (a *Analyzer) literalTypeList(e *ast.ExecNode) []token.Token {
	hexOrOctal := e.LitBase == ast.OctalOrHexLit
	switch e.LitSuffix {
	case ast.SuffixU:
		return uSuffixList
	case ast.SuffixL:
		if hexOrOctal {
			return hexOctLSuffix
		}
		return decimalLSuffix
	case ast.SuffixUL:
		return ulSuffixList
	case ast.SuffixLL:
		if hexOrOctal {
			return hexOctLLSuffix
		}
		return decimalLLSuffix
	case ast.SuffixULL:
		return ullSuffixList
	default:
		if hexOrOctal {
			return hexOctNoSuffix
		}
		return decimalNoSuffix
	}
}

// analyzeIntConst picks the narrowest type
// from the literal's base/suffix-appropriate list that holds the
// value without truncation, falling back to the list's widest entry
// (with a "too large for type" warning) when none does.
func (a *Analyzer) analyzeIntConst(e *ast.ExecNode) {
	if e.Type.DeclSpecs != nil {
		return
	}
	list := a.literalTypeList(e)
	chosen := list[len(list)-1]
	for _, cand := range list {
		if fits, _ := types.IntegerFits(cand, e.IntValue, a.Flags); fits {
			chosen = cand
			break
		}
	}
	if fits, _ := types.IntegerFits(chosen, e.IntValue, a.Flags); !fits {
		a.warn(e, "integer constant %d too large for type %q", e.IntValue, chosen.String())
	}
	e.Type = ast.SimpleType(chosen)
}
