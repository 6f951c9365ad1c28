// Package token defines the closed set of tags the analyzer and IR
// generator switch on: base type specifiers, derived-declarator
// operators, and expression/statement operators. The lexer/parser
// collaborator is assumed to produce ASTs already tagged with these
// values; this package owns none of the scanning.
package token

// Token is a closed enumeration of terminal and operator tags.
type Token int

const (
	// TOK_ERROR is the sentinel type assigned to any node whose
	// analysis failed; it suppresses cascading diagnostics wherever it
	// appears as an operand.
	Error Token = iota

	// Base type specifiers.
	Void
	Char
	SignedChar
	UnsignedChar
	Short
	UnsignedShort
	Int
	Unsigned
	Long
	UnsignedLong
	LongLong
	UnsignedLongLong
	Enum
	Struct
	Union

	// Type qualifiers.
	Const
	Volatile
	ConstVolatile

	// Storage-class specifiers, read off a declaration's leading
	// DeclSpecs chain the same way qualifiers are.
	Extern
	Static
	Typedef
	Auto
	Register

	// Derived-declarator operators (TypeExp.Op for non-leaf nodes).
	Star      // pointer-to
	Subscript // array-of
	Function  // function-returning

	// Expression operators.
	Comma
	Assign
	MulAssign
	DivAssign
	ModAssign
	AddAssign
	SubAssign
	ShlAssign
	ShrAssign
	AndAssign
	XorAssign
	OrAssign
	Conditional // ?:
	OrOr
	AndAnd
	Or
	Xor
	And
	Eq
	Neq
	Lt
	Gt
	Let
	Get
	Shl
	Shr
	Plus
	Minus
	Mul
	Div
	Mod
	Cast
	PreIncr
	PreDecr
	PostIncr
	PostDecr
	AddrOf
	Indirection
	Unary_Plus
	Unary_Minus
	Complement
	Negation
	SizeOf
	AlignOf
	Subscript_Expr // a[b]
	Call           // f(args)
	Dot
	Arrow
	Ellipsis

	// Identifier / literal kinds carried on leaf ExecNodes.
	IdentTok
	IntConst
	StrLit
)

// IsTypeSpecifier reports whether tok names a base type specifier
// (the innermost node of a declarator chain).
func IsTypeSpecifier(tok Token) bool {
	switch tok {
	case Void, Char, SignedChar, UnsignedChar, Short, UnsignedShort, Int,
		Unsigned, Long, UnsignedLong, LongLong, UnsignedLongLong, Enum,
		Struct, Union:
		return true
	}
	return false
}

func (t Token) String() string {
	if s, ok := names[t]; ok {
		return s
	}
	return "TOK_UNKNOWN"
}

var names = map[Token]string{
	Error:            "TOK_ERROR",
	Void:             "void",
	Char:             "char",
	SignedChar:       "signed char",
	UnsignedChar:     "unsigned char",
	Short:            "short",
	UnsignedShort:    "unsigned short",
	Int:              "int",
	Unsigned:         "unsigned",
	Long:             "long",
	UnsignedLong:     "unsigned long",
	LongLong:         "long long",
	UnsignedLongLong: "unsigned long long",
	Enum:             "enum",
	Struct:           "struct",
	Union:            "union",
	Const:            "const",
	Volatile:         "volatile",
	ConstVolatile:    "const volatile",
	Star:             "*",
	Subscript:        "[]",
	Function:         "()",
	Assign:           "=",
	Plus:             "+",
	Minus:            "-",
	Mul:              "*",
	Div:              "/",
	Mod:              "%",
	Dot:              ".",
	Arrow:            "->",
	Ellipsis:         "...",
}
