package lldump

import (
	"strings"
	"testing"

	"luxcc/internal/ast"
	"luxcc/internal/collab"
	"luxcc/internal/ir"
	"luxcc/internal/token"
	"luxcc/internal/types"
)

var intDecl = ast.Declaration{DeclSpecs: ast.TyInt}

func identNode(name string) *ast.ExecNode {
	return &ast.ExecNode{Kind: ast.IdExp, Type: intDecl, Ident: &ast.IdentAttr{Name: name, Scope: ast.ScopeBlock, ScopeDepth: 1}}
}

func intConst(v int64) *ast.ExecNode {
	return &ast.ExecNode{Kind: ast.IConstExp, IntValue: v, Type: intDecl}
}

func binNode(op token.Token, left, right *ast.ExecNode) *ast.ExecNode {
	n := &ast.ExecNode{Kind: ast.OpExp, Op: op, Type: intDecl}
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

// TestDumpIfElseProducesTwoBranches checks that lowering "if (x) y=1;
// else y=2;" and dumping it yields a module text containing both
// br-i1 targets the CFG records.
func TestDumpIfElseProducesTwoBranches(t *testing.T) {
	x := identNode("x")
	y1 := binNode(token.Assign, identNode("y"), intConst(1))
	y2 := binNode(token.Assign, identNode("y"), intConst(2))
	body := ifStmt(x, exprStmt(y1), exprStmt(y2))

	flags := types.Flags{Arch64: true}
	fc := ir.NewFuncCompiler(collab.NewMapSymbolTable(), collab.NewStackLocationMap(), &collab.BufferedDiagnostics{}, flags, nil)
	fn := &ir.FunctionDef{Name: "f", ReturnType: ast.Declaration{DeclSpecs: ast.TyVoid}, Body: body}
	prog, err := fc.CompileFunction(fn)
	if err != nil {
		t.Fatalf("CompileFunction: %v", err)
	}

	m, err := Dump(fn, prog, flags)
	if err != nil {
		t.Fatalf("Dump: %v", err)
	}
	text := m.String()
	if !strings.Contains(text, "define") || !strings.Contains(text, "@f") {
		t.Fatalf("dump missing function definition:\n%s", text)
	}
	if strings.Count(text, "br i1") != 1 {
		t.Errorf("expected exactly one conditional branch in dump, got:\n%s", text)
	}
	if strings.Count(text, "br label") < 2 {
		t.Errorf("expected at least two unconditional branches (both arms joining), got:\n%s", text)
	}
}

// TestDumpPointerArithmeticLowersToAddAndMul checks "int *p; p + 2"
// renders an add and a mul instruction.
func TestDumpPointerArithmeticLowersToAddAndMul(t *testing.T) {
	ptrDecl := ast.Declaration{DeclSpecs: ast.TyInt, Idl: &ast.TypeExp{Op: token.Star}}
	p := &ast.ExecNode{Kind: ast.IdExp, Type: ptrDecl, Ident: &ast.IdentAttr{Name: "p", Scope: ast.ScopeBlock, ScopeDepth: 1}}
	sum := &ast.ExecNode{Kind: ast.OpExp, Op: token.Plus, Type: ptrDecl}
	sum.Child[0], sum.Child[1] = p, intConst(2)
	body := exprStmt(sum)

	flags := types.Flags{Arch64: true}
	fc := ir.NewFuncCompiler(collab.NewMapSymbolTable(), collab.NewStackLocationMap(), &collab.BufferedDiagnostics{}, flags, nil)
	fn := &ir.FunctionDef{Name: "g", ReturnType: ast.Declaration{DeclSpecs: ast.TyVoid}, Body: body}
	prog, err := fc.CompileFunction(fn)
	if err != nil {
		t.Fatalf("CompileFunction: %v", err)
	}

	m, err := Dump(fn, prog, flags)
	if err != nil {
		t.Fatalf("Dump: %v", err)
	}
	text := m.String()
	if !strings.Contains(text, "mul") || !strings.Contains(text, "add") {
		t.Errorf("expected both mul and add in pointer-arithmetic dump:\n%s", text)
	}
}
