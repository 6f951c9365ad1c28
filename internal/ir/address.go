package ir

import (
	"fmt"

	"luxcc/internal/arena"
	"luxcc/internal/ast"
	"luxcc/internal/token"
)

// AddrKind distinguishes the four operand shapes a Quad can reference.
type AddrKind int

const (
	AddrIConst AddrKind = iota
	AddrStrLit
	AddrId
	AddrTemp
)

// AddrID indexes the Address table; zero is reserved so a zero-valued
// Quad field unambiguously means "no operand" (e.g. Ret with no
// value, or Jmp's unused Arg slots).
type AddrID uint32

// Address is one entry of the address table: identifiers carry their
// mangled "name:scope" string (or the verbatim parameter name) and a
// numeric id (Nid) from the interning table downstream liveness
// analysis indexes bitsets by; constants and temporaries need no name.
type Address struct {
	Kind   AddrKind
	Type   token.Token
	Value  int64         // AddrIConst
	Str    string        // AddrStrLit contents
	Name   string        // AddrId: mangled or verbatim identifier text
	Nid    int           // AddrId: index into the nid->sid interning table
	Offset int           // AddrId: stack offset within the current frame (0 for non-locals)
	Def    *ast.ExecNode // AddrId: the reference this address was first created for
}

// String renders an address the way textual IR dumps spell it: "tN"
// for a temporary (Value holds the ordinal), the identifier's own name
// otherwise, and a signed decimal literal for a constant.
func (a Address) String() string {
	switch a.Kind {
	case AddrIConst:
		return fmt.Sprintf("%d", a.Value)
	case AddrStrLit:
		return fmt.Sprintf("%q", a.Str)
	case AddrId:
		return a.Name
	case AddrTemp:
		return fmt.Sprintf("t%d", a.Value)
	default:
		return "?"
	}
}

// addrArena is the append-only address table, owned per FuncCompiler
// alongside the quad arena. nidNames is the parallel
// nid->sid interner bitset-based dataflow indexes by: nidNames[nid]
// is the interned name that nid stands for. Mangled and temporary
// name strings live in the name arena until the next reset.
type addrArena struct {
	addrs    []Address
	nextTemp int
	nextNid  int
	interned map[string]AddrID
	nidNames []string
	names    *arena.Arena
}

func newAddrArena() *addrArena {
	return &addrArena{
		addrs:    []Address{{}},
		nextNid:  1,
		interned: make(map[string]AddrID),
		nidNames: []string{""},
		names:    arena.New(),
	}
}

func (a *addrArena) add(addr Address) AddrID {
	a.addrs = append(a.addrs, addr)
	return AddrID(len(a.addrs) - 1)
}

func (a *addrArena) at(id AddrID) Address {
	return a.addrs[id]
}

// constant appends an integer-constant address of type ty.
func (a *addrArena) constant(value int64, ty token.Token) AddrID {
	return a.add(Address{Kind: AddrIConst, Value: value, Type: ty})
}

func (a *addrArena) strLit(s string) AddrID {
	return a.add(Address{Kind: AddrStrLit, Str: s, Type: token.Star})
}

// temp allocates a fresh compiler temporary of type ty with its own
// nid, the way Sethi-Ullman-driven lowering needs one per spilled
// intermediate result. Temporary ordinals restart at t1 per function
// (a fresh arena), independent of how many identifiers interleaved.
func (a *addrArena) temp(ty token.Token) AddrID {
	a.nextTemp++
	id := a.add(Address{Kind: AddrTemp, Type: ty, Nid: a.nextNid, Value: int64(a.nextTemp)})
	a.nidNames = append(a.nidNames, a.names.AllocString(fmt.Sprintf("t%d", a.nextTemp)))
	a.nextNid++
	return id
}

// ident interns an identifier address by its mangled name, so repeated
// references to the same variable share one Address (and nid) rather
// than growing the table unboundedly within a function body.
func (a *addrArena) ident(name string, ty token.Token, offset int, def *ast.ExecNode) AddrID {
	if id, ok := a.interned[name]; ok {
		return id
	}
	name = a.names.AllocString(name)
	id := a.add(Address{Kind: AddrId, Name: name, Type: ty, Nid: a.nextNid, Offset: offset, Def: def})
	a.nidNames = append(a.nidNames, name)
	a.nextNid++
	a.interned[name] = id
	return id
}

func (a *addrArena) reset() {
	a.addrs = a.addrs[:1]
	a.nextTemp = 0
	a.nextNid = 1
	a.interned = make(map[string]AddrID)
	a.nidNames = a.nidNames[:1]
	a.names.Reset()
}

// mangledName builds the "name:scope" form every identifier address
// uses to disambiguate same-named locals in nested scopes; parameter
// names are kept verbatim.
func mangledName(ident *ast.IdentAttr) string {
	if ident.Scope == ast.ScopeFunctionProto {
		return ident.Name
	}
	return fmt.Sprintf("%s:%d", ident.Name, ident.ScopeDepth)
}
