package ir

import (
	"luxcc/internal/ast"
	"luxcc/internal/collab"
	"luxcc/internal/token"
	"luxcc/internal/types"
)

// intDecl and intPtrDecl are the two Declaration shapes every test
// fixture in this package needs: a plain int, and a pointer to int.
var intDecl = ast.Declaration{DeclSpecs: ast.TyInt}
var intPtrDecl = ast.Declaration{DeclSpecs: ast.TyInt, Idl: &ast.TypeExp{Op: token.Star}}

func intConst(v int64) *ast.ExecNode {
	return &ast.ExecNode{Kind: ast.IConstExp, IntValue: v, Type: intDecl}
}

func identNode(name string, ty ast.Declaration) *ast.ExecNode {
	return &ast.ExecNode{
		Kind: ast.IdExp,
		Ident: &ast.IdentAttr{
			Name:       name,
			Scope:      ast.ScopeBlock,
			ScopeDepth: 1,
		},
		Type: ty,
	}
}

func binNode(op token.Token, left, right *ast.ExecNode, ty ast.Declaration) *ast.ExecNode {
	n := &ast.ExecNode{Kind: ast.OpExp, Op: op, Type: ty}
	n.Child[0], n.Child[1] = left, right
	return n
}

func exprStmt(e *ast.ExecNode) *ast.ExecNode {
	n := &ast.ExecNode{StmtKind: ast.ExprStmt}
	n.Child[0] = e
	return n
}

func ifStmt(cond, then, els *ast.ExecNode) *ast.ExecNode {
	n := &ast.ExecNode{StmtKind: ast.IfStmt}
	n.Child[0], n.Child[1], n.Child[2] = cond, then, els
	return n
}

func whileStmt(cond, body *ast.ExecNode) *ast.ExecNode {
	n := &ast.ExecNode{StmtKind: ast.WhileStmt}
	n.Child[0], n.Child[1] = cond, body
	return n
}

func compound(stmts ...*ast.ExecNode) *ast.ExecNode {
	n := &ast.ExecNode{StmtKind: ast.CompoundStmt}
	if len(stmts) == 0 {
		return n
	}
	n.Child[0] = stmts[0]
	for i := 1; i < len(stmts); i++ {
		stmts[i-1].Sibling = stmts[i]
	}
	return n
}

// newTestFC returns a FuncCompiler wired to the package's minimal
// in-memory collaborators, good enough to drive CompileFunction without
// a real parser/symbol-table front end.
func newTestFC() *FuncCompiler {
	return NewFuncCompiler(
		collab.NewMapSymbolTable(),
		collab.NewStackLocationMap(),
		&collab.BufferedDiagnostics{},
		types.Flags{Arch64: true},
		nil,
	)
}

func voidFn(name string, body *ast.ExecNode) *FunctionDef {
	return &FunctionDef{
		Name:       name,
		ReturnType: ast.Declaration{DeclSpecs: ast.TyVoid},
		Body:       body,
	}
}
