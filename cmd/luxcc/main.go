// Command luxcc is a thin harness wiring the demo in-memory
// collaborator set around internal/sema + internal/ir, for manual
// exercise and smoke testing absent a real lexer/parser front end.
// Dispatch is a hand-rolled os.Args switch rather than a
// flag-package framework.
package main

import (
	"fmt"
	"os"

	"luxcc/internal/ast"
	"luxcc/internal/collab"
	"luxcc/internal/diagsink"
	"luxcc/internal/ir"
	"luxcc/internal/ir/lldump"
	"luxcc/internal/sema"
	"luxcc/internal/token"
	"luxcc/internal/types"
)

const version = "0.1.0"

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	switch args[0] {
	case "-h", "--help", "help":
		usage()
	case "-v", "--version", "version":
		fmt.Println("luxcc", version)
	case "demo":
		debugIDs := false
		for _, a := range args[1:] {
			if a == "-debug-ids" {
				debugIDs = true
			}
		}
		if err := runDemo(debugIDs); err != nil {
			fmt.Fprintln(os.Stderr, "luxcc: demo:", err)
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "luxcc: unknown command %q\n", args[0])
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println(`usage: luxcc <command>

commands:
  demo [-debug-ids]   analyze and lower a small built-in function body,
                      printing its quad stream, CFG edges, and an
                      LLVM-flavored dump
  version             print the version
  help                print this message`)
}

// runDemo builds a tiny "if (x) y = 1; else y = 2;" function body
// directly as an already-typed ExecNode tree (standing in for a real
// parser's output), runs it through the analyzer, lowers it, and
// prints the result: the same if/else shape the package tests pin,
// driven by hand instead of by a test assertion.
func runDemo(debugIDs bool) error {
	sink := diagsink.NewSink(os.Stdout, debugIDs, nil)
	flags := types.Flags{Arch64: true, Arch: types.ArchX64}
	symbols := collab.NewMapSymbolTable()
	analyzer := sema.New(symbols, flags, sink, collab.SimpleCompatibilityChecker{}, collab.PlainStringifier{})

	intDecl := ast.SimpleType(token.Int)
	x := &ast.ExecNode{Kind: ast.IdExp, Type: intDecl, Ident: &ast.IdentAttr{Name: "x", Scope: ast.ScopeBlock, ScopeDepth: 1}}
	y1 := assign(ident("y", intDecl), constant(1, intDecl))
	y2 := assign(ident("y", intDecl), constant(2, intDecl))
	analyzer.Analyze(x)
	analyzer.Analyze(y1)
	analyzer.Analyze(y2)
	if sink.ErrorCount() > 0 {
		return fmt.Errorf("analysis reported %d error(s)", sink.ErrorCount())
	}

	body := &ast.ExecNode{StmtKind: ast.IfStmt}
	body.Child[0] = x
	body.Child[1] = &ast.ExecNode{StmtKind: ast.ExprStmt, Child: [4]*ast.ExecNode{y1}}
	body.Child[2] = &ast.ExecNode{StmtKind: ast.ExprStmt, Child: [4]*ast.ExecNode{y2}}

	fn := &ir.FunctionDef{Name: "demo", ReturnType: ast.Declaration{DeclSpecs: ast.TyVoid}, Body: body}
	fc := ir.NewFuncCompiler(symbols, collab.NewStackLocationMap(), sink, flags, nil)
	prog, err := fc.CompileFunction(fn)
	if err != nil {
		return fmt.Errorf("lowering: %w", err)
	}

	fmt.Println("-- quads --")
	for i, q := range prog.Quads[1:] {
		fmt.Printf("%3d: %s\n", i+1, q.Op)
	}

	fmt.Println("-- CFG edges --")
	for i := 1; i < len(prog.Nodes); i++ {
		fmt.Printf("  L%d -> %v\n", i, prog.Nodes[i].Out)
	}

	m, err := lldump.Dump(fn, prog, flags)
	if err != nil {
		return fmt.Errorf("lldump: %w", err)
	}
	fmt.Println("-- llvm-flavored dump --")
	fmt.Print(m)
	return nil
}

func ident(name string, ty ast.Declaration) *ast.ExecNode {
	return &ast.ExecNode{Kind: ast.IdExp, Type: ty, Ident: &ast.IdentAttr{Name: name, Scope: ast.ScopeBlock, ScopeDepth: 1}}
}

func constant(v int64, ty ast.Declaration) *ast.ExecNode {
	return &ast.ExecNode{Kind: ast.IConstExp, IntValue: v, Type: ty}
}

func assign(lhs, rhs *ast.ExecNode) *ast.ExecNode {
	return &ast.ExecNode{Kind: ast.OpExp, Op: token.Assign, Child: [4]*ast.ExecNode{lhs, rhs}}
}
