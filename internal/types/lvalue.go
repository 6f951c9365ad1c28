package types

import (
	"luxcc/internal/ast"
	"luxcc/internal/collab"
	"luxcc/internal/token"
)

// IsLvalue reports whether e designates an object: identifiers (other
// than functions), subscript, indirection, `->`, `.` (which inherits
// from its left operand), and string literals.
func IsLvalue(e *ast.ExecNode) bool {
	switch e.Kind {
	case ast.IdExp:
		return Category(e.Type) != token.Function
	case ast.StrLitExp:
		return true
	}
	switch e.Op {
	case token.Subscript_Expr, token.Indirection:
		return true
	case token.Dot:
		return IsLvalue(e.Child[0])
	case token.Arrow:
		return true
	}
	return false
}

// IsModifiableLvalue additionally excludes array type, void,
// qualified types, incomplete tags, and aggregates with any
// const-qualified member (recursively).
func IsModifiableLvalue(e *ast.ExecNode, st collab.SymbolTable) bool {
	if !IsLvalue(e) {
		return false
	}
	ty := e.Type
	cat := Category(ty)
	if cat == token.Subscript || cat == token.Void {
		return false
	}
	if q := ast.Qualifier(ty.DeclSpecs); q != token.Error {
		return false
	}
	if cat == token.Struct || cat == token.Union {
		tag := TypeSpec(ty.DeclSpecs).Tag
		if !st.IsComplete(tag) {
			return false
		}
		if hasConstMember(tag, st) {
			return false
		}
	}
	return true
}

// hasConstMember reports whether tag names a struct/union containing
// a const-qualified member, recursively through nested aggregates.
func hasConstMember(tag string, st collab.SymbolTable) bool {
	desc, ok := st.LookupStructDescriptor(tag)
	if !ok {
		return false
	}
	for _, m := range desc.Members {
		if ast.Qualifier(m.Type.DeclSpecs) != token.Error {
			return true
		}
		mcat := Category(m.Type)
		if mcat == token.Struct || mcat == token.Union {
			if hasConstMember(TypeSpec(m.Type.DeclSpecs).Tag, st) {
				return true
			}
		}
	}
	return false
}
