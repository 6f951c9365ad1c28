// Package sema implements the post-order expression analyzer: for
// every node in an expression tree it computes a type, diagnoses
// violations, and propagates the TOK_ERROR sentinel to suppress
// cascading diagnostics. Dispatch is one method per node shape.
package sema

import (
	"luxcc/internal/ast"
	"luxcc/internal/collab"
	"luxcc/internal/constfold"
	"luxcc/internal/token"
	"luxcc/internal/types"
)

// Analyzer holds the collaborators the expression analyzer calls
// through: the symbol table, target flags, the diagnostic sink, a
// compatibility checker and type stringifier for diagnostic text, and
// the constant folder it hands sizeof/alignof rewrites and
// opportunistic folds off to.
type Analyzer struct {
	Symbols collab.SymbolTable
	Flags   types.Flags
	Diags   collab.Diagnostics
	Compat  collab.CompatibilityChecker
	Str     collab.TypeStringifier
	Folder  *constfold.Folder
}

// New builds an Analyzer wired to a Folder sharing the same
// collaborators, matching the pattern the IR generator will reuse to
// share a SymbolTable/Diagnostics pair with the analyzer that ran
// before it.
func New(symbols collab.SymbolTable, flags types.Flags, diags collab.Diagnostics, compat collab.CompatibilityChecker, str collab.TypeStringifier) *Analyzer {
	return &Analyzer{
		Symbols: symbols,
		Flags:   flags,
		Diags:   diags,
		Compat:  compat,
		Str:     str,
		Folder: &constfold.Folder{
			Symbols: symbols,
			Flags:   flags,
			Diags:   diags,
		},
	}
}

// Analyze walks e post-order, computing e.Type (and every descendant's
// type) and reporting diagnostics through a.Diags. Callers must not
// invoke the IR generator over a tree for which Analyze reported any
// error; only the TOK_ERROR sentinel, never a half-typed node,
// records a failure.
func (a *Analyzer) Analyze(e *ast.ExecNode) {
	if e == nil {
		return
	}
	switch e.Kind {
	case ast.IConstExp:
		a.analyzeIntConst(e)
	case ast.StrLitExp:
		a.analyzeStrLit(e)
	case ast.IdExp:
		a.analyzeIdent(e)
	case ast.OpExp:
		a.analyzeChildren(e)
		a.analyzeOp(e)
	}
}

// analyzeChildren recurses over every non-nil child before the caller
// dispatches on e's own operator, implementing the pass's post-order
// discipline once instead of at each call site.
func (a *Analyzer) analyzeChildren(e *ast.ExecNode) {
	switch e.Op {
	case token.Call:
		// Child[0] is the callee; Child[1] heads a sibling-linked
		// argument list rather than occupying Child[1..3].
		a.Analyze(e.Child[0])
		for arg := e.Child[1]; arg != nil; arg = arg.Sibling {
			a.Analyze(arg)
		}
	case token.SizeOf, token.AlignOf:
		// Child[1], when present, is a pseudo-node carrying a type
		// name rather than an expression; only Child[0] (the operand
		// expression form) needs analysis.
		a.Analyze(e.Child[0])
	case token.Dot, token.Arrow:
		// Child[1] names the member; it is not an expression.
		a.Analyze(e.Child[0])
	case token.Cast:
		// Child[1] is the destination type, not an expression.
		a.Analyze(e.Child[0])
	default:
		for i := range e.Child {
			a.Analyze(e.Child[i])
		}
	}
}

func (a *Analyzer) analyzeOp(e *ast.ExecNode) {
	if ast.AnyError(e.Child[0], e.Child[1], e.Child[2], e.Child[3]) {
		e.SetError()
		return
	}
	switch e.Op {
	case token.Comma:
		a.analyzeComma(e)
	case token.Assign, token.MulAssign, token.DivAssign, token.ModAssign,
		token.AddAssign, token.SubAssign, token.ShlAssign, token.ShrAssign,
		token.AndAssign, token.XorAssign, token.OrAssign:
		a.analyzeAssignment(e)
	case token.Conditional:
		a.analyzeConditional(e)
	case token.OrOr, token.AndAnd:
		a.analyzeLogical(e)
	case token.Eq, token.Neq, token.Lt, token.Gt, token.Let, token.Get:
		a.analyzeRelational(e)
	case token.And, token.Xor, token.Or, token.Shl, token.Shr:
		a.analyzeBitwise(e)
	case token.Plus, token.Minus:
		a.analyzeAdditive(e)
	case token.Mul, token.Div, token.Mod:
		a.analyzeMultiplicative(e)
	case token.Cast:
		a.analyzeCast(e)
	case token.PreIncr, token.PreDecr, token.PostIncr, token.PostDecr:
		a.analyzeIncDec(e)
	case token.AddrOf:
		a.analyzeAddrOf(e)
	case token.Indirection:
		a.analyzeIndirection(e)
	case token.Unary_Plus, token.Unary_Minus, token.Complement:
		a.analyzeUnaryArith(e)
	case token.Negation:
		a.analyzeNegation(e)
	case token.SizeOf, token.AlignOf:
		a.analyzeSizeofAlignof(e)
	case token.Subscript_Expr:
		a.analyzeSubscript(e)
	case token.Call:
		a.analyzeCall(e)
	case token.Dot, token.Arrow:
		a.analyzeMember(e)
	}
}

// errorR reports a diagnostic for e and adopts TOK_ERROR so ancestors
// stop analyzing this subtree further.
func (a *Analyzer) errorR(e *ast.ExecNode, format string, args ...interface{}) {
	a.Diags.Error(false, e.Loc, format, args...)
	e.SetError()
}

func (a *Analyzer) warn(e *ast.ExecNode, format string, args ...interface{}) {
	a.Diags.Warning(e.Loc, format, args...)
}

func (a *Analyzer) analyzeStrLit(e *ast.ExecNode) {
	if e.Type.DeclSpecs != nil {
		return
	}
	e.Type = ast.Declaration{
		DeclSpecs: ast.TyChar,
		Idl:       &ast.TypeExp{Op: token.Subscript, Attr: ast.ArraySize{Size: &ast.ExecNode{Kind: ast.IConstExp, IntValue: int64(len(e.StrValue) + 1)}}},
	}
}

// analyzeIdent checks that the identifier resolved to a declaration.
// Enum-constant identifiers arrive already rewritten to IConstExp by
// the symbol-table collaborator at reference-resolution time (the
// collaborator resolves a name to a declaration before this node is
// ever built), so there is nothing left to rewrite here.
func (a *Analyzer) analyzeIdent(e *ast.ExecNode) {
	if e.Type.DeclSpecs == nil {
		a.errorR(e, "%q undeclared", e.Ident.Name)
	}
}
