// Package collab declares the narrow interfaces the analyzer and IR
// generator consume from collaborators that live outside this core
// (symbol table, location map, diagnostic sink, type stringifier,
// compatibility checker) plus minimal in-memory reference
// implementations good enough to drive the core end-to-end in tests
// and the demo CLI.
package collab

import "luxcc/internal/ast"

// TagDescriptor is what LookupTag returns for a struct/union/enum tag
// name: enough for the analyzer to decide completeness and find
// members without owning the symbol table itself.
type TagDescriptor struct {
	Kind     ast.TypeExpAttr // nil, or an Enumerator-bearing constant list, when Kind names an enum
	Complete bool
	Name     string
}

// StructDescriptor is what LookupStructDescriptor returns: enough to
// compute sizeof/alignof and to resolve members without this core
// owning struct layout itself.
type StructDescriptor struct {
	Size      uint64
	Alignment uint64
	Members   []MemberDescriptor
}

// MemberDescriptor is one field of a struct/union: its name, byte
// offset within the aggregate, its own size, and its declared type
// (needed so the analyzer can propagate the aggregate's qualifier
// onto an unqualified member).
type MemberDescriptor struct {
	Name   string
	Offset uint64
	Size   uint64
	Type   ast.Declaration
}

// SymbolTable is the subset of the project's symbol-table/scope
// collaborator this core calls through.
type SymbolTable interface {
	LookupTag(name string, referenced bool) (TagDescriptor, bool)
	IsComplete(tagName string) bool
	LookupStructDescriptor(name string) (StructDescriptor, bool)
	GetMemberDescriptor(ts StructDescriptor, name string) (MemberDescriptor, bool)
}

// LocationMap maps identifiers to stack offsets within the function
// currently being lowered.
type LocationMap interface {
	PushScope()
	PopScope()
	New(name string, offset int)
	GetOffset(name string) (int, bool)
}

// Diagnostics is the sink the analyzer and IR generator report
// through. A fatal error aborts the translation unit; implementations
// choose how (panic, os.Exit, returning sentinel state) as long as
// the pass entry points observe it.
type Diagnostics interface {
	Error(fatal bool, loc ast.SourceLocation, format string, args ...interface{})
	Warning(loc ast.SourceLocation, format string, args ...interface{})
}

// TypeStringifier renders a Declaration as a human-readable type name
// for diagnostic messages.
type TypeStringifier interface {
	Stringify(d ast.Declaration, brief bool) string
}

// CompatibilityChecker decides whether two declarator chains name
// compatible types, optionally ignoring qualifiers (qualified) and
// optionally requiring the stronger "composite type" notion used when
// merging tentative declarations (composite).
type CompatibilityChecker interface {
	AreCompatible(specs1, idl1, specs2, idl2 *ast.TypeExp, qualified, composite bool) bool
}
