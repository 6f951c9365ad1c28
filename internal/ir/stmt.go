package ir

import (
	"sort"

	"github.com/pkg/errors"

	"luxcc/internal/ast"
	"luxcc/internal/token"
	"luxcc/internal/types"
)

// Statement shape conventions this file walks (the parser collaborator
// builds these): CompoundStmt's
// Child[0] heads a sibling-linked statement list; IfStmt is
// cond/then/else in Child[0..2] (else nil when absent); WhileStmt is
// cond/body in Child[0..1]; ForStmt is init/cond/post/body in
// Child[0..3] (any of init/cond/post may be nil); ReturnStmt's Child[0]
// is the return value expression (nil for a void return); SwitchStmt is
// expr/body in Child[0..1]; CaseLabelStmt is the folded case constant
// and inner statement in Child[0..1]; DefaultLabelStmt's Child[0] is
// its inner statement; ExprStmt's Child[0] is the expression; Break/
// Continue/NullStmt carry no children.

// lowerStmt is phase 2, body lowering: a post-order-free (statements
// execute in source order, not post-order like expressions) recursive
// walk emitting one quad sequence per statement shape.
func (fc *FuncCompiler) lowerStmt(s *ast.ExecNode) {
	if s == nil {
		return
	}
	switch s.StmtKind {
	case ast.CompoundStmt:
		fc.lowerCompound(s)
	case ast.IfStmt:
		fc.lowerIf(s)
	case ast.WhileStmt:
		fc.lowerWhile(s)
	case ast.ForStmt:
		fc.lowerFor(s)
	case ast.ReturnStmt:
		fc.lowerReturn(s)
	case ast.BreakStmt:
		fc.lowerBreak(s)
	case ast.ContinueStmt:
		fc.lowerContinue(s)
	case ast.SwitchStmt:
		fc.lowerSwitch(s)
	case ast.CaseLabelStmt:
		fc.lowerCaseLabel(s)
	case ast.DefaultLabelStmt:
		fc.lowerDefaultLabel(s)
	case ast.ExprStmt:
		fc.lowerRootExpr(s.Child[0])
	case ast.NullStmt:
		// Nothing to emit.
	default:
		panic(errors.Errorf("ir: unreachable statement kind %d", s.StmtKind))
	}
}

// lowerCompound walks the locals list (skipping extern/typedef,
// routing static locals to the static-data collaborator, and assigning
// auto locals a stack slot rounded down by alignment the way a real
// stack allocator packs locals tightly) before lowering the
// sibling-linked statement list in source order.
func (fc *FuncCompiler) lowerCompound(s *ast.ExecNode) {
	fc.Locations.PushScope()
	defer fc.Locations.PopScope()

	for _, local := range s.Locals {
		fc.allocLocal(local)
	}
	for stmt := s.Child[0]; stmt != nil; stmt = stmt.Sibling {
		fc.lowerStmt(stmt)
	}
}

// localInfo is the subset of a block-scope declaration the IR
// generator needs: its name and whether it's extern/typedef/static,
// carried on ast.Declaration's Idl/DeclSpecs chain the way every other
// declaration-specifier flag is; the parser collaborator records it
// there when building the declaration.
func (fc *FuncCompiler) allocLocal(d *ast.Declaration) {
	name, storageClass := localNameAndClass(d)
	if name == "" {
		return
	}
	switch storageClass {
	case token.Extern, token.Typedef:
		return
	case token.Static:
		if fc.Statics != nil {
			fc.Statics.DefineStatic(name, *d)
		}
		return
	}
	size := int(fc.sizeOf(*d))
	align := int(types.Alignment(*d, fc.Symbols, fc.Flags))
	if align > 1 {
		fc.localOffset -= fc.localOffset % align
	}
	fc.localOffset -= size
	fc.Locations.New(name, fc.localOffset)
}

// localNameAndClass reads the leading storage-class specifier (if any)
// off d's DeclSpecs chain and the declared name off its Idl's
// identifier tag, matching how TypeExp.Tag doubles as an identifier
// leaf's name elsewhere in this core.
func localNameAndClass(d *ast.Declaration) (name string, storageClass token.Token) {
	for specs := d.DeclSpecs; specs != nil; specs = specs.Sibling {
		if specs.Op == token.Extern || specs.Op == token.Static || specs.Op == token.Typedef {
			storageClass = specs.Op
			break
		}
	}
	idl := d.Idl
	for idl != nil && idl.Child != nil {
		idl = idl.Child
	}
	if idl != nil {
		name = idl.Tag
	}
	return name, storageClass
}

// lowerIf implements "if (e) s1 else s2": CBr(e, L1, L2); L1: s1; Jmp
// Lend; L2: s2; Jmp Lend; Lend:.
func (fc *FuncCompiler) lowerIf(s *ast.ExecNode) {
	cond, then, els := s.Child[0], s.Child[1], s.Child[2]
	l1, l2, lend := fc.newLabel(), fc.newLabel(), fc.newLabel()

	condAddr := fc.lowerRootExpr(cond)
	fc.emitCBr(condAddr, l1, l2)

	fc.emitLabel(l1)
	fc.lowerStmt(then)
	fc.emitJmp(lend)

	fc.emitLabel(l2)
	fc.lowerStmt(els)
	fc.emitJmp(lend)

	fc.emitLabel(lend)
}

// lowerWhile implements the tail-test canonical form: the condition
// is evaluated twice (once as a pre-header guard, once to close the
// back-edge) so every basic block ends in a branch. `continue` jumps
// to a label placed just before the tail re-test. A peephole pass
// could collapse the double emission; none runs here.
func (fc *FuncCompiler) lowerWhile(s *ast.ExecNode) {
	cond, body := s.Child[0], s.Child[1]
	l1, lcont, lend := fc.newLabel(), fc.newLabel(), fc.newLabel()

	guardAddr := fc.lowerRootExpr(cond)
	fc.emitCBr(guardAddr, l1, lend)

	fc.emitLabel(l1)
	fc.pushLoop(lend, lcont)
	fc.lowerStmt(body)
	fc.popLoop()

	fc.emitLabel(lcont)
	backAddr := fc.lowerRootExpr(cond)
	fc.emitCBr(backAddr, l1, lend)

	fc.emitLabel(lend)
}

// lowerFor desugars "for(init;cond;post) body" into the same tail-test
// while shape, with post lowered at the continue target (so `continue`
// still runs the post-expression before re-testing cond), the natural
// generalization of lowerWhile's shape.
func (fc *FuncCompiler) lowerFor(s *ast.ExecNode) {
	init, cond, post, body := s.Child[0], s.Child[1], s.Child[2], s.Child[3]
	if init != nil {
		fc.lowerStmt(init)
	}

	l1, lcont, lend := fc.newLabel(), fc.newLabel(), fc.newLabel()

	guardAddr := fc.forCond(cond)
	fc.emitCBr(guardAddr, l1, lend)

	fc.emitLabel(l1)
	fc.pushLoop(lend, lcont)
	fc.lowerStmt(body)
	fc.popLoop()

	fc.emitLabel(lcont)
	if post != nil {
		fc.lowerRootExpr(post)
	}
	backAddr := fc.forCond(cond)
	fc.emitCBr(backAddr, l1, lend)

	fc.emitLabel(lend)
}

// forCond evaluates a for-loop's (possibly absent) condition,
// synthesizing a nonzero constant for the infinite-loop "for(;;)" form.
func (fc *FuncCompiler) forCond(cond *ast.ExecNode) AddrID {
	if cond == nil {
		return fc.addrs.constant(1, token.Int)
	}
	return fc.lowerRootExpr(cond)
}

// lowerReturn converts e to the function's return type, emits Ret,
// jumps to the exit label, then opens a fresh (unreachable, but
// structurally required so later code starts its own block) label.
func (fc *FuncCompiler) lowerReturn(s *ast.ExecNode) {
	if s.Child[0] != nil {
		val := fc.lowerRootExpr(s.Child[0])
		val = fc.convert(val, types.Category(s.Child[0].Type), types.Category(fc.fn.ReturnType))
		fc.emit(Quad{Op: OpRet, Type: types.Category(fc.fn.ReturnType), Arg1: val})
	} else {
		fc.emit(Quad{Op: OpRet})
	}
	fc.emitJmp(fc.exitLabel())
	fc.emitLabel(fc.newLabel())
}

func (fc *FuncCompiler) lowerBreak(s *ast.ExecNode) {
	if len(fc.breakStack) == 0 {
		panic(errors.New("ir: break outside loop or switch"))
	}
	fc.emitJmp(fc.breakStack[len(fc.breakStack)-1])
	fc.emitLabel(fc.newLabel())
}

func (fc *FuncCompiler) lowerContinue(s *ast.ExecNode) {
	if len(fc.continueStack) == 0 {
		panic(errors.New("ir: continue outside loop"))
	}
	fc.emitJmp(fc.continueStack[len(fc.continueStack)-1])
	fc.emitLabel(fc.newLabel())
}

func (fc *FuncCompiler) pushLoop(breakLabel, continueLabel AddrID) {
	fc.breakStack = append(fc.breakStack, breakLabel)
	fc.continueStack = append(fc.continueStack, continueLabel)
}

func (fc *FuncCompiler) popLoop() {
	fc.breakStack = fc.breakStack[:len(fc.breakStack)-1]
	fc.continueStack = fc.continueStack[:len(fc.continueStack)-1]
}

// caseEntry is one row of a switch's value-keyed dispatch: a case
// label's constant (ignored for the default row) and the label its
// code starts at.
type caseEntry struct {
	value     int64
	isDefault bool
	label     AddrID
}

// lowerSwitch generates a dispatch table keyed by case values, default
// first in sort order, with the exit label substituting for a missing
// default. Labels for every case/default reachable
// directly inside the switch's body (not inside a nested switch, whose
// own lowering assigns its own labels) are allocated up front so the
// dispatch table can reference code that hasn't been emitted yet.
func (fc *FuncCompiler) lowerSwitch(s *ast.ExecNode) {
	exprAddr := fc.lowerRootExpr(s.Child[0])
	cat := types.Category(s.Child[0].Type)

	var entries []caseEntry
	fc.collectCaseLabels(s.Child[1], &entries)

	lend := fc.newLabel()
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].isDefault != entries[j].isDefault {
			return entries[i].isDefault
		}
		return entries[i].value < entries[j].value
	})

	fc.emit(Quad{Op: OpSwitch, Target: exprAddr, Arg1: fc.addrs.constant(int64(len(entries)), token.Int)})
	hasDefault := false
	for _, c := range entries {
		if c.isDefault {
			hasDefault = true
			fc.emit(Quad{Op: OpCase, Target: c.label})
			continue
		}
		fc.emit(Quad{Op: OpCase, Arg1: fc.addrs.constant(c.value, cat), Target: c.label})
	}
	if !hasDefault {
		fc.emit(Quad{Op: OpCase, Target: lend})
	}

	fc.pushSwitch(lend)
	fc.lowerStmt(s.Child[1])
	fc.popSwitch()

	fc.emitJmp(lend)
	fc.emitLabel(lend)
}

// collectCaseLabels walks s's statement tree (stopping at a nested
// switch's own body) recording each case/default label it finds into
// fc.caseLabels, keyed by the ExecNode pointer lowerCaseLabel/
// lowerDefaultLabel look back up when their turn comes during the
// ordinary body walk.
func (fc *FuncCompiler) collectCaseLabels(s *ast.ExecNode, entries *[]caseEntry) {
	if s == nil {
		return
	}
	switch s.StmtKind {
	case ast.CaseLabelStmt:
		label := fc.newLabel()
		fc.caseLabels[s] = label
		*entries = append(*entries, caseEntry{value: s.Child[0].IntValue, label: label})
		fc.collectCaseLabels(s.Child[1], entries)
	case ast.DefaultLabelStmt:
		label := fc.newLabel()
		fc.caseLabels[s] = label
		*entries = append(*entries, caseEntry{isDefault: true, label: label})
		fc.collectCaseLabels(s.Child[0], entries)
	case ast.CompoundStmt:
		for stmt := s.Child[0]; stmt != nil; stmt = stmt.Sibling {
			fc.collectCaseLabels(stmt, entries)
		}
	case ast.IfStmt:
		fc.collectCaseLabels(s.Child[1], entries)
		fc.collectCaseLabels(s.Child[2], entries)
	case ast.WhileStmt:
		fc.collectCaseLabels(s.Child[1], entries)
	case ast.ForStmt:
		fc.collectCaseLabels(s.Child[3], entries)
	case ast.SwitchStmt:
		// A nested switch owns its own case/default labels.
	}
}

func (fc *FuncCompiler) lowerCaseLabel(s *ast.ExecNode) {
	label, ok := fc.caseLabels[s]
	if !ok {
		panic(errors.New("ir: case label reached without a pre-collected target"))
	}
	fc.emitLabel(label)
	fc.lowerStmt(s.Child[1])
}

func (fc *FuncCompiler) lowerDefaultLabel(s *ast.ExecNode) {
	label, ok := fc.caseLabels[s]
	if !ok {
		panic(errors.New("ir: default label reached without a pre-collected target"))
	}
	fc.emitLabel(label)
	fc.lowerStmt(s.Child[0])
}

func (fc *FuncCompiler) pushSwitch(breakLabel AddrID) {
	fc.breakStack = append(fc.breakStack, breakLabel)
}

func (fc *FuncCompiler) popSwitch() {
	fc.breakStack = fc.breakStack[:len(fc.breakStack)-1]
}
