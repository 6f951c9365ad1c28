package types

import (
	"testing"

	"luxcc/internal/ast"
	"luxcc/internal/collab"
	"luxcc/internal/token"
)

func noArraySize(*ast.ExecNode) int64 { return 0 }

// TestSizeOfPrimitives pins the byte widths the type model assumes
// throughout, on a 64-bit target.
func TestSizeOfPrimitives(t *testing.T) {
	st := collab.NewMapSymbolTable()
	flags := Flags{Arch64: true}
	cases := []struct {
		ty   token.Token
		want uint64
	}{
		{token.Char, 1},
		{token.UnsignedChar, 1},
		{token.Short, 2},
		{token.Int, 4},
		{token.Unsigned, 4},
		{token.Long, 8},
		{token.LongLong, 8},
		{token.UnsignedLongLong, 8},
	}
	for _, c := range cases {
		got := SizeOf(ast.SimpleType(c.ty), st, flags, noArraySize)
		if got != c.want {
			t.Errorf("SizeOf(%v) = %d, want %d", c.ty, got, c.want)
		}
	}
}

// TestSizeOfPointerFollowsTargetWidth checks pointer size tracks the
// Arch64 flag rather than being hardcoded.
func TestSizeOfPointerFollowsTargetWidth(t *testing.T) {
	st := collab.NewMapSymbolTable()
	ptr := ast.PointerTo(ast.SimpleType(token.Int))

	if got := SizeOf(ptr, st, Flags{Arch64: true}, noArraySize); got != 8 {
		t.Errorf("SizeOf(pointer) on 64-bit = %d, want 8", got)
	}
	if got := SizeOf(ptr, st, Flags{Arch64: false}, noArraySize); got != 4 {
		t.Errorf("SizeOf(pointer) on 32-bit = %d, want 4", got)
	}
}

// TestSizeOfArrayMultipliesElementCount checks "int a[10]" is ten
// times the element size, with the bound supplied via the folded-value
// callback rather than stored directly on the declarator.
func TestSizeOfArrayMultipliesElementCount(t *testing.T) {
	st := collab.NewMapSymbolTable()
	bound := &ast.ExecNode{Kind: ast.IConstExp, IntValue: 10}
	arr := ast.Declaration{DeclSpecs: ast.TyInt, Idl: &ast.TypeExp{Op: token.Subscript, Attr: ast.ArraySize{Size: bound}}}

	resolve := func(e *ast.ExecNode) int64 { return e.IntValue }
	got := SizeOf(arr, st, Flags{Arch64: true}, resolve)
	if got != 40 {
		t.Errorf("SizeOf(int[10]) = %d, want 40", got)
	}
}

// TestSizeOfStructUsesDescriptorSize checks struct/union sizes come
// from the symbol-table collaborator's descriptor, not a recomputation
// from member types — struct layout (padding, alignment) is the
// collaborator's responsibility.
func TestSizeOfStructUsesDescriptorSize(t *testing.T) {
	st := collab.NewMapSymbolTable()
	st.DefineStruct("Point", collab.StructDescriptor{Size: 8, Alignment: 4})
	ty := ast.Declaration{DeclSpecs: &ast.TypeExp{Op: token.Struct, Tag: "Point"}}

	if got := SizeOf(ty, st, Flags{Arch64: true}, noArraySize); got != 8 {
		t.Errorf("SizeOf(struct Point) = %d, want 8", got)
	}
}

// TestSizeOfUnionTakesWidestMemberRoundedToAlignment checks a union's
// size is its widest member rounded up to the descriptor's alignment.
func TestSizeOfUnionTakesWidestMemberRoundedToAlignment(t *testing.T) {
	st := collab.NewMapSymbolTable()
	st.DefineStruct("U", collab.StructDescriptor{
		Alignment: 4,
		Members: []collab.MemberDescriptor{
			{Name: "c", Size: 1},
			{Name: "i", Size: 4},
		},
	})
	ty := ast.Declaration{DeclSpecs: &ast.TypeExp{Op: token.Union, Tag: "U"}}

	if got := SizeOf(ty, st, Flags{Arch64: true}, noArraySize); got != 4 {
		t.Errorf("SizeOf(union U) = %d, want 4", got)
	}
}

// TestAlignmentMatchesSizeForScalars checks the int and char entries
// of the scalar alignment table.
func TestAlignmentMatchesSizeForScalars(t *testing.T) {
	st := collab.NewMapSymbolTable()
	flags := Flags{Arch64: true}
	if got := Alignment(ast.SimpleType(token.Int), st, flags); got != 4 {
		t.Errorf("Alignment(int) = %d, want 4", got)
	}
	if got := Alignment(ast.SimpleType(token.Char), st, flags); got != 1 {
		t.Errorf("Alignment(char) = %d, want 1", got)
	}
}
