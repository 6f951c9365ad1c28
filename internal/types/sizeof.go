package types

import (
	"luxcc/internal/ast"
	"luxcc/internal/collab"
	"luxcc/internal/token"
)

// SizeOf recurses through d's declarator chain computing its size in
// bytes. arraySize resolves an ArraySize
// attribute's folded bound (the array declarator stores the bound
// expression, not a pre-folded integer, so the caller supplies the
// already-folded count).
func SizeOf(d ast.Declaration, st collab.SymbolTable, flags Flags, arraySize func(*ast.ExecNode) int64) uint64 {
	cat := Category(d)
	switch cat {
	case token.Union:
		desc, ok := st.LookupStructDescriptor(TypeSpec(d.DeclSpecs).Tag)
		if !ok {
			return 0
		}
		var widest uint64
		for _, m := range desc.Members {
			if m.Size > widest {
				widest = m.Size
			}
		}
		return roundUp64(widest, desc.Alignment)
	case token.Struct:
		desc, ok := st.LookupStructDescriptor(TypeSpec(d.DeclSpecs).Tag)
		if !ok {
			return 0
		}
		return desc.Size
	case token.Subscript:
		inner := ast.Declaration{DeclSpecs: d.DeclSpecs, Idl: d.Idl.Child}
		n := int64(0)
		if attr, ok := d.Idl.Attr.(ast.ArraySize); ok && attr.Size != nil {
			n = arraySize(attr.Size)
		}
		return uint64(n) * SizeOf(inner, st, flags, arraySize)
	case token.LongLong, token.UnsignedLongLong:
		return 8
	case token.Star, token.Long, token.UnsignedLong:
		return uint64(flags.PointerSize())
	case token.Enum, token.Int, token.Unsigned:
		return 4
	case token.Short, token.UnsignedShort:
		return 2
	case token.Char, token.SignedChar, token.UnsignedChar:
		return 1
	default:
		return 0
	}
}

// Alignment recurses through d's declarator chain computing its
// required alignment.
func Alignment(d ast.Declaration, st collab.SymbolTable, flags Flags) uint64 {
	cat := Category(d)
	switch cat {
	case token.Struct, token.Union:
		desc, ok := st.LookupStructDescriptor(TypeSpec(d.DeclSpecs).Tag)
		if !ok {
			return 1
		}
		return desc.Alignment
	case token.Subscript:
		inner := ast.Declaration{DeclSpecs: d.DeclSpecs, Idl: d.Idl.Child}
		return Alignment(inner, st, flags)
	case token.LongLong, token.UnsignedLongLong:
		return uint64(flags.LongLongAlignment())
	case token.Star, token.Long, token.UnsignedLong:
		return uint64(flags.PointerSize())
	case token.Enum, token.Int, token.Unsigned:
		return 4
	case token.Short, token.UnsignedShort:
		return 2
	case token.Char, token.SignedChar, token.UnsignedChar:
		return 1
	default:
		return 1
	}
}

func roundUp64(n, multiple uint64) uint64 {
	if multiple == 0 || n%multiple == 0 {
		return n
	}
	return n + (multiple - n%multiple)
}
