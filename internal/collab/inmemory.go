package collab

import (
	"fmt"

	"luxcc/internal/ast"
	"luxcc/internal/token"
)

// MapSymbolTable is a minimal, map-backed SymbolTable good enough to
// drive internal/sema and internal/ir in tests without a real
// parser/symbol-table collaborator.
type MapSymbolTable struct {
	Tags    map[string]TagDescriptor
	Structs map[string]StructDescriptor
}

// NewMapSymbolTable returns an empty table ready for Define* calls.
func NewMapSymbolTable() *MapSymbolTable {
	return &MapSymbolTable{
		Tags:    make(map[string]TagDescriptor),
		Structs: make(map[string]StructDescriptor),
	}
}

// DefineStruct registers a complete struct/union descriptor under
// name, usable by both LookupTag and LookupStructDescriptor.
func (m *MapSymbolTable) DefineStruct(name string, desc StructDescriptor) {
	m.Structs[name] = desc
	m.Tags[name] = TagDescriptor{Complete: true, Name: name}
}

func (m *MapSymbolTable) LookupTag(name string, referenced bool) (TagDescriptor, bool) {
	d, ok := m.Tags[name]
	return d, ok
}

func (m *MapSymbolTable) IsComplete(tagName string) bool {
	d, ok := m.Tags[tagName]
	return ok && d.Complete
}

func (m *MapSymbolTable) LookupStructDescriptor(name string) (StructDescriptor, bool) {
	d, ok := m.Structs[name]
	return d, ok
}

func (m *MapSymbolTable) GetMemberDescriptor(ts StructDescriptor, name string) (MemberDescriptor, bool) {
	for _, mem := range ts.Members {
		if mem.Name == name {
			return mem, true
		}
	}
	return MemberDescriptor{}, false
}

// StackLocationMap is a minimal LocationMap: a stack of scopes, each
// a name->offset map.
type StackLocationMap struct {
	scopes []map[string]int
}

// NewStackLocationMap returns a location map with one (function-level)
// scope already pushed.
func NewStackLocationMap() *StackLocationMap {
	return &StackLocationMap{scopes: []map[string]int{make(map[string]int)}}
}

func (l *StackLocationMap) PushScope() {
	l.scopes = append(l.scopes, make(map[string]int))
}

func (l *StackLocationMap) PopScope() {
	if len(l.scopes) > 1 {
		l.scopes = l.scopes[:len(l.scopes)-1]
	}
}

func (l *StackLocationMap) New(name string, offset int) {
	l.scopes[len(l.scopes)-1][name] = offset
}

func (l *StackLocationMap) GetOffset(name string) (int, bool) {
	for i := len(l.scopes) - 1; i >= 0; i-- {
		if off, ok := l.scopes[i][name]; ok {
			return off, true
		}
	}
	return 0, false
}

// Diagnostic is one recorded error/warning, exposed by
// BufferedDiagnostics for assertions in tests.
type Diagnostic struct {
	Fatal   bool
	Warning bool
	Loc     ast.SourceLocation
	Message string
}

// BufferedDiagnostics is a Diagnostics sink that records every call
// instead of printing, for tests that only need to assert on
// diagnostic text/counts. internal/diagsink.Sink is its
// terminal-rendering, production-facing sibling.
type BufferedDiagnostics struct {
	Diags      []Diagnostic
	FatalCount int
}

func (b *BufferedDiagnostics) Error(fatal bool, loc ast.SourceLocation, format string, args ...interface{}) {
	b.Diags = append(b.Diags, Diagnostic{Fatal: fatal, Loc: loc, Message: fmt.Sprintf(format, args...)})
	if fatal {
		b.FatalCount++
	}
}

func (b *BufferedDiagnostics) Warning(loc ast.SourceLocation, format string, args ...interface{}) {
	b.Diags = append(b.Diags, Diagnostic{Warning: true, Loc: loc, Message: fmt.Sprintf(format, args...)})
}

// HasErrors reports whether any non-warning diagnostic was recorded.
func (b *BufferedDiagnostics) HasErrors() bool {
	for _, d := range b.Diags {
		if !d.Warning {
			return true
		}
	}
	return false
}

// PlainStringifier renders a Declaration well enough for diagnostic
// text in tests; it does not attempt full C declarator syntax.
type PlainStringifier struct{}

func (PlainStringifier) Stringify(d ast.Declaration, brief bool) string {
	if d.IsError() {
		return "<error type>"
	}
	prefix := ""
	for idl := d.Idl; idl != nil; idl = idl.Child {
		switch idl.Op {
		case token.Star:
			prefix += "*"
		case token.Subscript:
			prefix += "[]"
		case token.Function:
			prefix += "()"
		}
	}
	base := "int"
	if d.DeclSpecs != nil {
		base = d.DeclSpecs.Op.String()
		if d.DeclSpecs.Tag != "" {
			base = base + " " + d.DeclSpecs.Tag
		}
	}
	if prefix == "" {
		return base
	}
	return base + " " + prefix
}

// SimpleCompatibilityChecker implements AreCompatible with C89's
// "same base specifier and same declarator shape" rule, ignoring tag
// identity subtleties a real symbol table would own; good enough to
// drive the analyzer's pointer-assignment and conditional-expression
// rules in tests.
type SimpleCompatibilityChecker struct{}

func (SimpleCompatibilityChecker) AreCompatible(specs1, idl1, specs2, idl2 *ast.TypeExp, qualified, composite bool) bool {
	for idl1 != nil && idl2 != nil {
		if idl1.Op != idl2.Op {
			return false
		}
		idl1, idl2 = idl1.Child, idl2.Child
	}
	if idl1 != nil || idl2 != nil {
		return false
	}
	base1, base2 := stripQualifiers(specs1, qualified), stripQualifiers(specs2, qualified)
	if base1 == nil || base2 == nil {
		return base1 == base2
	}
	if base1.Op != base2.Op {
		return false
	}
	return base1.Tag == base2.Tag
}

func stripQualifiers(specs *ast.TypeExp, ignoreQualifiers bool) *ast.TypeExp {
	for specs != nil {
		if ignoreQualifiers {
			switch specs.Op {
			case token.Const, token.Volatile, token.ConstVolatile:
				specs = specs.Sibling
				continue
			}
		}
		return specs
	}
	return nil
}
