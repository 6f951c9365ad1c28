// Package ast defines the node shapes the analyzer and IR generator
// consume: the declarator/specifier chain (TypeExp, Declaration) and
// the expression/statement tree (ExecNode). The lexer/parser
// collaborator builds these; this package only owns their shape and a
// handful of construction helpers used by tests and the constant
// folder's in-place rewrite.
package ast

import "luxcc/internal/token"

// TypeExpAttr tags the handful of shapes a TypeExp's attribute slot
// can hold, a tagged union in all but syntax.
type TypeExpAttr interface{ isTypeExpAttr() }

// PtrQualifier records the qualifier ('const', 'volatile', or both)
// attached to a pointer declarator node.
type PtrQualifier struct{ Qualifier token.Token }

func (PtrQualifier) isTypeExpAttr() {}

// ArraySize holds the (possibly constant-folded) bound expression of
// an array declarator; nil Size means an incomplete array type.
type ArraySize struct{ Size *ExecNode }

func (ArraySize) isTypeExpAttr() {}

// ParamList holds a function declarator's parameter declarations and
// whether the list ends in a trailing ellipsis.
type ParamList struct {
	Params   []*Declaration
	Variadic bool
}

func (ParamList) isTypeExpAttr() {}

// Enumerator holds one enum-constant's folded value.
type Enumerator struct{ Value int64 }

func (Enumerator) isTypeExpAttr() {}

// TypeExp is one link in a declarator/specifier chain: a derived
// declarator ('*', '[]', '()') or a base specifier/qualifier node. Tag
// identifies struct/union/enum references by name; Child points to the
// next node inward (e.g. for "*T", Child is T's node); Sibling chains
// sequential declaration-specifier nodes (e.g. "const int").
type TypeExp struct {
	Op      token.Token
	Tag     string // struct/union/enum tag name, or identifier for leaves
	Child   *TypeExp
	Sibling *TypeExp
	Attr    TypeExpAttr
}

// Declaration pairs a declaration-specifier chain with the outer
// declarator that names the concrete object being declared, e.g. for
// "const int *a[3]": DeclSpecs -> {const, int}; Idl -> array-of ->
// pointer-of (DeclSpecs's base).
type Declaration struct {
	DeclSpecs *TypeExp
	Idl       *TypeExp
}

// Primitive type singletons. These must never be mutated after package
// init: the type-category helpers hand out pointers to these nodes
// freely and callers compare/copy the Declaration, never the TypeExp.
var (
	TyVoid             = &TypeExp{Op: token.Void}
	TyChar             = &TypeExp{Op: token.Char}
	TySignedChar       = &TypeExp{Op: token.SignedChar}
	TyUnsignedChar     = &TypeExp{Op: token.UnsignedChar}
	TyShort            = &TypeExp{Op: token.Short}
	TyUnsignedShort    = &TypeExp{Op: token.UnsignedShort}
	TyInt              = &TypeExp{Op: token.Int}
	TyUnsigned         = &TypeExp{Op: token.Unsigned}
	TyLong             = &TypeExp{Op: token.Long}
	TyUnsignedLong     = &TypeExp{Op: token.UnsignedLong}
	TyLongLong         = &TypeExp{Op: token.LongLong}
	TyUnsignedLongLong = &TypeExp{Op: token.UnsignedLongLong}
	TyError            = &TypeExp{Op: token.Error}
)

// SimpleType returns the Declaration for one of the primitive
// singletons above, convenient for synthesizing the type of a folded
// constant or a promoted operand.
func SimpleType(tok token.Token) Declaration {
	switch tok {
	case token.Void:
		return Declaration{DeclSpecs: TyVoid}
	case token.Char:
		return Declaration{DeclSpecs: TyChar}
	case token.SignedChar:
		return Declaration{DeclSpecs: TySignedChar}
	case token.UnsignedChar:
		return Declaration{DeclSpecs: TyUnsignedChar}
	case token.Short:
		return Declaration{DeclSpecs: TyShort}
	case token.UnsignedShort:
		return Declaration{DeclSpecs: TyUnsignedShort}
	case token.Int, token.Enum:
		return Declaration{DeclSpecs: TyInt}
	case token.Unsigned:
		return Declaration{DeclSpecs: TyUnsigned}
	case token.Long:
		return Declaration{DeclSpecs: TyLong}
	case token.UnsignedLong:
		return Declaration{DeclSpecs: TyUnsignedLong}
	case token.LongLong:
		return Declaration{DeclSpecs: TyLongLong}
	case token.UnsignedLongLong:
		return Declaration{DeclSpecs: TyUnsignedLongLong}
	default:
		return Declaration{DeclSpecs: TyError}
	}
}

// ErrorType is the sentinel Declaration assigned to a node whose
// analysis failed.
func ErrorType() Declaration { return Declaration{DeclSpecs: TyError} }

// IsError reports whether d is the TOK_ERROR sentinel.
func (d Declaration) IsError() bool {
	return d.DeclSpecs != nil && d.DeclSpecs.Op == token.Error
}

// PointerTo synthesizes the Declaration for "pointer to d", used by
// the analyzer when it needs to manufacture a type (array decay,
// &expr) rather than look one up from a declarator chain.
func PointerTo(d Declaration) Declaration {
	return Declaration{
		DeclSpecs: d.DeclSpecs,
		Idl:       &TypeExp{Op: token.Star, Child: d.Idl},
	}
}

// Unqualified strips a single leading const/volatile/const-volatile
// qualifier node from specs, returning the chain starting at the first
// non-qualifier node.
func Unqualified(specs *TypeExp) *TypeExp {
	for specs != nil && (specs.Op == token.Const || specs.Op == token.Volatile || specs.Op == token.ConstVolatile) {
		specs = specs.Sibling
	}
	return specs
}

// Qualifier returns the qualifier token (Const, Volatile,
// ConstVolatile) leading specs, or token.Error if unqualified.
func Qualifier(specs *TypeExp) token.Token {
	if specs != nil && (specs.Op == token.Const || specs.Op == token.Volatile || specs.Op == token.ConstVolatile) {
		return specs.Op
	}
	return token.Error
}

// CombineQualifiers merges two qualifier tags the way adjacent
// const/volatile attributes combine in C: const+volatile (in either
// combination, including one side already being const-volatile)
// yields const-volatile; otherwise the non-absent one wins.
func CombineQualifiers(a, b token.Token) token.Token {
	has := func(q, want token.Token) bool {
		return q == want || q == token.ConstVolatile
	}
	isConst := has(a, token.Const) || has(b, token.Const)
	isVolatile := has(a, token.Volatile) || has(b, token.Volatile)
	switch {
	case isConst && isVolatile:
		return token.ConstVolatile
	case isConst:
		return token.Const
	case isVolatile:
		return token.Volatile
	default:
		return token.Error
	}
}
