package constfold

import (
	"testing"

	"luxcc/internal/ast"
	"luxcc/internal/collab"
	"luxcc/internal/token"
	"luxcc/internal/types"
)

func newFolder() (*Folder, *collab.BufferedDiagnostics) {
	diags := &collab.BufferedDiagnostics{}
	f := &Folder{
		Symbols: collab.NewMapSymbolTable(),
		Flags:   types.Flags{Arch64: false},
		Diags:   diags,
		ArraySize: func(e *ast.ExecNode) int64 {
			return e.IntValue
		},
	}
	return f, diags
}

func iconst(val int64, ty ast.Declaration) *ast.ExecNode {
	return &ast.ExecNode{Kind: ast.IConstExp, IntValue: val, Type: ty}
}

func binOp(op token.Token, left, right *ast.ExecNode, ty ast.Declaration) *ast.ExecNode {
	return &ast.ExecNode{Kind: ast.OpExp, Op: op, Child: [4]*ast.ExecNode{left, right}, Type: ty}
}

// TestSizeofArrayPlusLiteralFolds checks sizeof(int[3]) + 2
// folds to 14 (assuming sizeof(int) == 4), typed unsigned long.
func TestSizeofArrayPlusLiteralFolds(t *testing.T) {
	f, diags := newFolder()

	intDecl := ast.SimpleType(token.Int)
	ulongDecl := ast.SimpleType(token.UnsignedLong)
	arrayTy := ast.Declaration{
		DeclSpecs: intDecl.DeclSpecs,
		Idl: &ast.TypeExp{
			Op:   token.Subscript,
			Attr: ast.ArraySize{Size: iconst(3, intDecl)},
		},
	}
	sizeofNode := &ast.ExecNode{
		Kind:  ast.OpExp,
		Op:    token.SizeOf,
		Child: [4]*ast.ExecNode{nil, {Type: arrayTy}},
		Type:  ulongDecl,
	}
	two := iconst(2, ulongDecl)
	add := binOp(token.Plus, sizeofNode, two, ulongDecl)

	fv, ok := f.Fold(add, false, true)
	if !ok {
		t.Fatalf("fold failed, diags=%v", diags.Diags)
	}
	if fv.Value != 14 {
		t.Fatalf("sizeof(int[3])+2 = %d, want 14", fv.Value)
	}
	if add.Kind != ast.IConstExp {
		t.Fatalf("add node not rewritten to IConstExp")
	}
}

// TestFoldIsIdempotent checks property law 4: re-folding an
// already-folded node returns the same result.
func TestFoldIsIdempotent(t *testing.T) {
	f, _ := newFolder()
	intDecl := ast.SimpleType(token.Int)
	left := iconst(3, intDecl)
	right := iconst(4, intDecl)
	add := binOp(token.Plus, left, right, intDecl)

	first, ok := f.Fold(add, false, false)
	if !ok {
		t.Fatal("first fold failed")
	}
	second, ok := f.Fold(add, false, false)
	if !ok {
		t.Fatal("second fold failed")
	}
	if first != second {
		t.Fatalf("fold not idempotent: %+v != %+v", first, second)
	}
}

// TestPointerArithmeticAddressConstant checks that a static array g,
// decaying to a pointer, plus i folds to addr + i*sizeof(*g) and keeps
// the symbolic base.
func TestPointerArithmeticAddressConstant(t *testing.T) {
	f, diags := newFolder()
	intDecl := ast.SimpleType(token.Int)
	ptrTy := ast.PointerTo(intDecl)
	arrTy := ast.Declaration{DeclSpecs: intDecl.DeclSpecs, Idl: &ast.TypeExp{Op: token.Subscript, Attr: ast.ArraySize{Size: iconst(4, intDecl)}}}
	p := &ast.ExecNode{
		Kind: ast.IdExp,
		Type: arrTy,
		Ident: &ast.IdentAttr{
			Name:     "g",
			Duration: ast.DurationStatic,
			Linkage:  ast.LinkageExternal,
		},
	}
	two := iconst(2, intDecl)
	add := binOp(token.Plus, p, two, ptrTy)

	fv, ok := f.Fold(add, true, false)
	if !ok {
		t.Fatalf("fold failed, diags=%v", diags.Diags)
	}
	if fv.Symbol != "g" || fv.Value != 8 {
		t.Fatalf("p+2 = {%q,%d}, want {g,8}", fv.Symbol, fv.Value)
	}
	if add.Kind == ast.IConstExp {
		t.Fatalf("symbolic fold must not rewrite Kind to IConstExp")
	}
}

// TestShortCircuitAndSkipsUnfoldableOperand checks "x && ?" folds to
// false without requiring the right operand to be constant, the
// folder's short-circuit rule.
func TestShortCircuitAndSkipsUnfoldableOperand(t *testing.T) {
	f, _ := newFolder()
	intDecl := ast.SimpleType(token.Int)
	zero := iconst(0, intDecl)
	nonConst := &ast.ExecNode{Kind: ast.IdExp, Type: intDecl, Ident: &ast.IdentAttr{Name: "n"}}
	and := binOp(token.AndAnd, zero, nonConst, intDecl)

	fv, ok := f.Fold(and, false, false)
	if !ok {
		t.Fatal("short-circuit AND should fold when left operand is zero")
	}
	if fv.Value != 0 {
		t.Fatalf("0 && ? = %d, want 0", fv.Value)
	}
}

// TestCharAssignmentTruncationBoundary mirrors the spec's boundary
// case for casting 300 to a (signed) char: the folded value is 44.
func TestCharAssignmentTruncationBoundary(t *testing.T) {
	f, _ := newFolder()
	charDecl := ast.SimpleType(token.Char)
	lit := iconst(300, ast.SimpleType(token.Int))
	castTarget := &ast.ExecNode{Type: charDecl}
	cast := &ast.ExecNode{
		Kind:  ast.OpExp,
		Op:    token.Cast,
		Child: [4]*ast.ExecNode{lit, castTarget},
		Type:  charDecl,
	}

	fv, ok := f.Fold(cast, false, false)
	if !ok {
		t.Fatal("cast of literal must fold")
	}
	if fv.Value != 44 {
		t.Fatalf("(signed char)300 = %d, want 44", fv.Value)
	}
}

// TestIconstContextRejectsAddressConstant checks that folding a bare
// identifier's address fails (fatally) when is_iconst requires a
// plain integer constant, e.g. inside an array bound.
func TestIconstContextRejectsAddressConstant(t *testing.T) {
	f, diags := newFolder()
	intDecl := ast.SimpleType(token.Int)
	g := &ast.ExecNode{
		Kind: ast.IdExp,
		Type: intDecl,
		Ident: &ast.IdentAttr{
			Name: "g", Duration: ast.DurationStatic, Linkage: ast.LinkageExternal,
		},
	}
	addr := &ast.ExecNode{Kind: ast.OpExp, Op: token.AddrOf, Child: [4]*ast.ExecNode{g}, Type: ast.PointerTo(intDecl)}

	_, ok := f.Fold(addr, true, true)
	if ok {
		t.Fatal("address constant must not fold in an is_iconst context")
	}
	if diags.FatalCount == 0 {
		t.Fatal("expected a fatal diagnostic")
	}
}
