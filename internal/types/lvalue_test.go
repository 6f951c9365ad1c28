package types

import (
	"testing"

	"luxcc/internal/ast"
	"luxcc/internal/collab"
	"luxcc/internal/token"
)

func identExpr(name string, ty ast.Declaration) *ast.ExecNode {
	return &ast.ExecNode{Kind: ast.IdExp, Type: ty, Ident: &ast.IdentAttr{Name: name, Scope: ast.ScopeBlock, ScopeDepth: 1}}
}

// TestIsLvalueIdentifiersAndLiterals checks the base cases: a plain
// object identifier and a string literal are lvalues; a function
// identifier is not.
func TestIsLvalueIdentifiersAndLiterals(t *testing.T) {
	obj := identExpr("x", ast.SimpleType(token.Int))
	if !IsLvalue(obj) {
		t.Errorf("object identifier should be an lvalue")
	}

	fnType := ast.Declaration{DeclSpecs: ast.TyInt, Idl: &ast.TypeExp{Op: token.Function}}
	fn := identExpr("f", fnType)
	if IsLvalue(fn) {
		t.Errorf("function designator should not be an lvalue")
	}

	str := &ast.ExecNode{Kind: ast.StrLitExp, StrValue: "hi", Type: ast.PointerTo(ast.SimpleType(token.Char))}
	if !IsLvalue(str) {
		t.Errorf("string literal should be an lvalue")
	}
}

// TestIsModifiableLvalueRejectsArrayAndVoid checks array-typed and
// void-typed expressions are never modifiable lvalues.
func TestIsModifiableLvalueRejectsArrayAndVoid(t *testing.T) {
	st := collab.NewMapSymbolTable()
	arr := identExpr("a", ast.Declaration{DeclSpecs: ast.TyInt, Idl: &ast.TypeExp{Op: token.Subscript}})
	if IsModifiableLvalue(arr, st) {
		t.Errorf("array-typed identifier should not be a modifiable lvalue")
	}
	v := identExpr("v", ast.SimpleType(token.Void))
	if IsModifiableLvalue(v, st) {
		t.Errorf("void-typed identifier should not be a modifiable lvalue")
	}
}

// TestIsModifiableLvalueRejectsConstQualified checks a
// const-qualified object is an lvalue but not modifiable.
func TestIsModifiableLvalueRejectsConstQualified(t *testing.T) {
	st := collab.NewMapSymbolTable()
	constSpecs := &ast.TypeExp{Op: token.Const, Sibling: ast.TyInt}
	c := identExpr("c", ast.Declaration{DeclSpecs: constSpecs})
	if !IsLvalue(c) {
		t.Fatalf("const object should still be an lvalue")
	}
	if IsModifiableLvalue(c, st) {
		t.Errorf("const-qualified identifier should not be a modifiable lvalue")
	}
}

// TestIsModifiableLvalueRejectsStructWithConstMember checks the
// recursive const-member rule: a struct with a const field is not
// modifiable even though the struct itself is unqualified.
func TestIsModifiableLvalueRejectsStructWithConstMember(t *testing.T) {
	st := collab.NewMapSymbolTable()
	constSpecs := &ast.TypeExp{Op: token.Const, Sibling: ast.TyInt}
	st.DefineStruct("Point", collab.StructDescriptor{
		Size:      8,
		Alignment: 4,
		Members: []collab.MemberDescriptor{
			{Name: "x", Type: ast.Declaration{DeclSpecs: constSpecs}},
			{Name: "y", Type: ast.SimpleType(token.Int)},
		},
	})
	structTy := ast.Declaration{DeclSpecs: &ast.TypeExp{Op: token.Struct, Tag: "Point"}}
	p := identExpr("p", structTy)
	if IsModifiableLvalue(p, st) {
		t.Errorf("struct with a const member should not be a modifiable lvalue")
	}
}

// TestIsModifiableLvaluePlainStructIsModifiable checks the positive
// case: an unqualified, complete struct with no const members is
// modifiable.
func TestIsModifiableLvaluePlainStructIsModifiable(t *testing.T) {
	st := collab.NewMapSymbolTable()
	st.DefineStruct("Point", collab.StructDescriptor{
		Size:      8,
		Alignment: 4,
		Members: []collab.MemberDescriptor{
			{Name: "x", Type: ast.SimpleType(token.Int)},
			{Name: "y", Type: ast.SimpleType(token.Int)},
		},
	})
	structTy := ast.Declaration{DeclSpecs: &ast.TypeExp{Op: token.Struct, Tag: "Point"}}
	p := identExpr("p", structTy)
	if !IsModifiableLvalue(p, st) {
		t.Errorf("plain struct should be a modifiable lvalue")
	}
}

// TestIsModifiableLvalueRejectsIncompleteStruct checks that an
// undefined/incomplete struct tag is never modifiable.
func TestIsModifiableLvalueRejectsIncompleteStruct(t *testing.T) {
	st := collab.NewMapSymbolTable()
	structTy := ast.Declaration{DeclSpecs: &ast.TypeExp{Op: token.Struct, Tag: "Unseen"}}
	p := identExpr("p", structTy)
	if IsModifiableLvalue(p, st) {
		t.Errorf("incomplete struct should not be a modifiable lvalue")
	}
}
