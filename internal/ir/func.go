package ir

import (
	"github.com/pkg/errors"

	"luxcc/internal/ast"
	"luxcc/internal/collab"
	"luxcc/internal/token"
	"luxcc/internal/types"
)

// paramBaseOffset is the ABI constant parameter stack offsets grow
// upward from; this core targets no real calling convention, so the
// value only needs to be a stable, documented starting point for the
// location-map entries it writes.
const paramBaseOffset = 8

// hiddenReturnOffset is the stack slot a struct/union-returning
// function reserves for its caller-supplied return-address-of-result
// pointer.
const hiddenReturnOffset = -4

// StaticData receives the static half of the auto/static local split:
// a local declared static routes to this collaborator instead of
// getting a stack slot.
type StaticData interface {
	DefineStatic(name string, d ast.Declaration)
}

// Param is one named function parameter. ast.ParamList's own
// []*Declaration carries no name (a bare prototype's parameters can be
// unnamed), but lowering must assign each a stack offset, so
// FunctionDef pairs a name back in here.
type Param struct {
	Name string
	Type ast.Declaration
}

// FunctionDef is one function definition ready for lowering: its
// signature and its already-analyzed body. internal/sema must report
// zero errors for Body before CompileFunction is called; lowering
// assumes a fully typed, error-free tree.
type FunctionDef struct {
	Name       string
	ReturnType ast.Declaration
	Params     []Param
	Variadic   bool
	Body       *ast.ExecNode // a CompoundStmt ExecNode
}

// returnsAggregate reports whether f returns a struct/union by value,
// which needs the prologue's hidden return-address slot.
func (f *FunctionDef) returnsAggregate() bool {
	cat := types.Category(f.ReturnType)
	return cat == token.Struct || cat == token.Union
}

// FuncCompiler holds every piece of per-function lowering state. No
// mutable state survives across functions: callers create a fresh
// FuncCompiler per definition instead of resetting package-level
// globals.
type FuncCompiler struct {
	Symbols   collab.SymbolTable
	Locations collab.LocationMap
	Diags     collab.Diagnostics
	Flags     types.Flags
	Statics   StaticData // may be nil: static locals are then silently dropped, neither registered here nor given a frame slot

	quads *quadArena
	addrs *addrArena

	paramOffset int
	localOffset int
	exit        AddrID

	breakStack    []AddrID
	continueStack []AddrID
	caseLabels    map[*ast.ExecNode]AddrID

	fn *FunctionDef
}

// NewFuncCompiler returns a lowering context for one function
// definition. Callers discard it after CompileFunction returns;
// nothing it holds is meant to outlive that call.
func NewFuncCompiler(symbols collab.SymbolTable, locations collab.LocationMap, diags collab.Diagnostics, flags types.Flags, statics StaticData) *FuncCompiler {
	return &FuncCompiler{
		Symbols:    symbols,
		Locations:  locations,
		Diags:      diags,
		Flags:      flags,
		Statics:    statics,
		quads:      newQuadArena(),
		addrs:      newAddrArena(),
		caseLabels: make(map[*ast.ExecNode]AddrID),
	}
}

// CompileFunction runs all four lowering phases over fn and returns
// the finished Program. Internal invariant violations (unreachable
// switch arms, allocation failure) panic from deep inside lowering
// and are recovered here exactly once, re-surfaced as a plain error.
func (fc *FuncCompiler) CompileFunction(fn *FunctionDef) (prog *Program, err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = errors.Wrap(e, "ir: internal invariant violation")
			} else {
				err = errors.Errorf("ir: internal invariant violation: %v", r)
			}
			prog = nil
		}
	}()

	fc.fn = fn
	fc.prologue(fn)
	fc.lowerStmt(fn.Body)
	fc.epilogue(fn)

	return fc.finish(), nil
}

// prologue implements phase 1: push a location scope, assign parameter
// offsets growing upward from paramBaseOffset, reserve the hidden
// return slot for aggregate-returning functions, and emit the entry
// label behind a leading Jmp so the entry block has no predecessor but
// that jump.
func (fc *FuncCompiler) prologue(fn *FunctionDef) {
	fc.Locations.PushScope()
	if fn.returnsAggregate() {
		fc.Locations.New("$retslot", hiddenReturnOffset)
	}
	off := paramBaseOffset
	for _, p := range fn.Params {
		if p.Name != "" {
			fc.Locations.New(p.Name, off)
		}
		off += int(types.SizeOf(p.Type, fc.Symbols, fc.Flags, fc.constIntSize))
	}
	fc.paramOffset = off
	fc.localOffset = 0

	// A pre-entry block holding only the leading Jmp, followed by the
	// real entry label: this makes the entry block's sole predecessor
	// a structurally identified block rather than "none", which is
	// what every other block's dominance computation assumes it can
	// rely on: a leading Jmp makes the entry block a sole target.
	pre := fc.newLabel()
	entry := fc.newLabel()
	fc.emitLabel(pre)
	fc.emitJmp(entry)
	fc.emitLabel(entry)
}

// epilogue emits the function's sole exit label, the target every
// `return` lowers to after converting its value and emitting Ret.
func (fc *FuncCompiler) epilogue(fn *FunctionDef) {
	exit := fc.exitLabel()
	fc.emitLabel(exit)
}

// finish runs CFG construction over the finished quad stream and
// assembles the Program result.
func (fc *FuncCompiler) finish() *Program {
	quads := fc.quads.quads
	addrs := fc.addrs.addrs

	nodes, labelBlock := buildCFGSkeleton(quads)
	resolveEdges(nodes, quads, addrs, labelBlock)

	var cfgPO []NodeID
	if len(nodes) > 1 {
		cfgPO = numberDFS(nodes, 1, func(n *CFGNode) []NodeID { return n.Out }, func(n *CFGNode, v uint32) { n.PO = v })
	}
	cfgRPO := reverseOf(cfgPO)
	for i, id := range cfgRPO {
		nodes[id].RPO = uint32(i)
	}

	var rcfgPO []NodeID
	if len(nodes) > 1 {
		// The reverse graph's natural root is whichever node(s) have no
		// successors; walking backward from every such node covers the
		// whole reachable set the same way a single root does forward.
		for idx := 1; idx < len(nodes); idx++ {
			if len(nodes[idx].Out) == 0 {
				rcfgPO = append(rcfgPO, numberDFS(nodes, NodeID(idx), func(n *CFGNode) []NodeID { return n.In }, func(n *CFGNode, v uint32) { n.RCFGPO = v })...)
			}
		}
	}
	rcfgRPO := reverseOf(rcfgPO)
	for i, id := range rcfgRPO {
		nodes[id].RCFGRPO = uint32(i)
	}

	return &Program{
		Quads:   quads,
		Addrs:   addrs,
		Nodes:   nodes,
		CFGPO:   cfgPO,
		CFGRPO:  cfgRPO,
		RCFGPO:  rcfgPO,
		RCFGRPO: rcfgRPO,
		Nids:    fc.addrs.nidNames,
	}
}

// emit appends a quad in execution order, matching the IR generator's
// "IR emission is strictly in execution order" guarantee.
func (fc *FuncCompiler) emit(q Quad) QuadID {
	return fc.quads.emit(q)
}

// newLabel allocates (but does not yet place) a label address: its
// Value field is filled in by emitLabel once the label's quad
// position is known, so forward jumps can reference it before that.
func (fc *FuncCompiler) newLabel() AddrID {
	return fc.addrs.add(Address{Kind: AddrIConst, Type: token.Error})
}

// emitLabel places label (from newLabel) at the current instruction
// position and emits its OpLab. Every basic block's last instruction
// must be Jmp or CBr, so if the quad just
// emitted is ordinary straight-line code that would otherwise fall
// through into this label, an explicit Jmp to label is inserted first.
// A preceding OpLab (back-to-back labels: an empty block falls through)
// or OpCase (a switch's dispatch table IS the block's multi-way
// terminator) needs no Jmp.
func (fc *FuncCompiler) emitLabel(label AddrID) {
	if fc.quads.len() > 1 {
		switch fc.quads.at(QuadID(fc.quads.len() - 1)).Op {
		case OpJmp, OpCBr, OpRet, OpLab, OpCase:
		default:
			fc.emitJmp(label)
		}
	}
	pos := fc.quads.emit(Quad{Op: OpLab, Target: label})
	a := fc.addrs.at(label)
	a.Value = int64(pos)
	fc.addrs.addrs[label] = a
}

func (fc *FuncCompiler) exitLabel() AddrID {
	if fc.exit == 0 {
		fc.exit = fc.newLabel()
	}
	return fc.exit
}

func (fc *FuncCompiler) constIntSize(e *ast.ExecNode) int64 {
	if e.Kind == ast.IConstExp {
		return e.IntValue
	}
	if e.Folded != nil && !e.Folded.IsAddr {
		return e.Folded.Value
	}
	return 0
}
