// Package lldump renders one lowered function (internal/ir's quad
// stream plus CFG) as a textual, LLVM-IR-flavored module, using
// github.com/llir/llvm as the builder. It is a debug/inspection
// utility, not a code-generation backend: narrowing conversions and
// pointer arithmetic are rendered illustratively (entry-block
// allocas, loads, and stores per named variable, a naive pre-mem2reg
// lowering), not ABI-exact.
package lldump

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/pkg/errors"

	luxir "luxcc/internal/ir"
	"luxcc/internal/token"
	luxtypes "luxcc/internal/types"
)

// llType maps a quad/address type category to its LLVM-flavored
// rendering, widths chosen per luxtypes.Flags the same way
// internal/types.SizeOf would.
func llType(cat token.Token, flags luxtypes.Flags) types.Type {
	switch cat {
	case token.Char, token.SignedChar, token.UnsignedChar:
		return types.I8
	case token.Short, token.UnsignedShort:
		return types.I16
	case token.Long, token.UnsignedLong:
		if flags.PointerSize() == 8 {
			return types.I64
		}
		return types.I32
	case token.LongLong, token.UnsignedLongLong:
		return types.I64
	case token.Star:
		return types.NewPointer(types.I8)
	case token.Void:
		return types.Void
	default:
		return types.I32
	}
}

func isUnsigned(cat token.Token) bool {
	switch cat {
	case token.UnsignedChar, token.UnsignedShort, token.Unsigned, token.UnsignedLong, token.UnsignedLongLong:
		return true
	}
	return false
}

// Dump renders fn's already-lowered prog as one llir module containing
// a single function definition named fn.Name.
func Dump(fn *luxir.FunctionDef, prog *luxir.Program, flags luxtypes.Flags) (*ir.Module, error) {
	m := ir.NewModule()

	retCat := luxtypes.Category(fn.ReturnType)
	params := make([]*ir.Param, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = ir.NewParam(p.Name, llType(luxtypes.Category(p.Type), flags))
	}
	f := m.NewFunc(fn.Name, llType(retCat, flags), params...)

	d := &dumper{m: m, f: f, prog: prog, flags: flags, blocks: make(map[luxir.NodeID]*ir.Block), values: make(map[luxir.AddrID]value.Value), allocas: make(map[luxir.AddrID]*ir.InstAlloca), externs: make(map[string]*ir.Func)}
	for idx := 1; idx < len(prog.Nodes); idx++ {
		d.blocks[luxir.NodeID(idx)] = f.NewBlock(fmt.Sprintf("L%d", idx))
	}
	if err := d.run(); err != nil {
		return nil, err
	}
	return m, nil
}

type dumper struct {
	m     *ir.Module
	f     *ir.Func
	prog  *luxir.Program
	flags luxtypes.Flags

	blocks  map[luxir.NodeID]*ir.Block
	values  map[luxir.AddrID]value.Value
	allocas map[luxir.AddrID]*ir.InstAlloca
	externs map[string]*ir.Func

	pendingArgs []value.Value
}

func (d *dumper) run() error {
	for idx := 1; idx < len(d.prog.Nodes); idx++ {
		node := d.prog.Nodes[idx]
		b := d.blocks[luxir.NodeID(idx)]
		if idx == 1 {
			d.emitAllocas(b)
		}
		for q := node.Leader; q < node.Last; q++ {
			if err := d.emitInst(b, d.prog.Quads[q]); err != nil {
				return err
			}
		}
		if err := d.emitTerm(luxir.NodeID(idx), b, d.prog.Quads[node.Last]); err != nil {
			return err
		}
	}
	return nil
}

// emitAllocas reserves one stack slot per named identifier address up
// front, in the function's entry block, the way a naive (pre-mem2reg)
// lowering would.
func (d *dumper) emitAllocas(entry *ir.Block) {
	for id, a := range d.prog.Addrs {
		if a.Kind != luxir.AddrId {
			continue
		}
		alloc := entry.NewAlloca(llType(a.Type, d.flags))
		alloc.SetName(a.Name)
		d.allocas[luxir.AddrID(id)] = alloc
	}
}

func (d *dumper) operand(b *ir.Block, id luxir.AddrID) value.Value {
	if id == 0 {
		return constant.NewInt(types.I32, 0)
	}
	a := d.prog.Addrs[id]
	switch a.Kind {
	case luxir.AddrIConst:
		return constant.NewInt(types.I32, a.Value)
	case luxir.AddrId:
		return b.NewLoad(llType(a.Type, d.flags), d.allocas[id])
	case luxir.AddrTemp:
		if v, ok := d.values[id]; ok {
			return v
		}
		return constant.NewInt(types.I32, 0)
	case luxir.AddrStrLit:
		return constant.NewCharArrayFromString(a.Str + "\x00")
	default:
		return constant.NewInt(types.I32, 0)
	}
}

func (d *dumper) store(b *ir.Block, target luxir.AddrID, v value.Value) {
	a := d.prog.Addrs[target]
	if a.Kind == luxir.AddrId {
		b.NewStore(v, d.allocas[target])
		return
	}
	d.values[target] = v
}

func (d *dumper) icmp(b *ir.Block, pred, upred enum.IPred, unsigned bool, x, y value.Value) value.Value {
	if unsigned {
		return b.NewICmp(upred, x, y)
	}
	return b.NewICmp(pred, x, y)
}

func (d *dumper) emitInst(b *ir.Block, q luxir.Quad) error {
	unsigned := isUnsigned(q.Type)
	switch q.Op {
	case luxir.NOp, luxir.OpLab:
		return nil
	case luxir.OpAdd:
		d.store(b, q.Target, b.NewAdd(d.operand(b, q.Arg1), d.operand(b, q.Arg2)))
	case luxir.OpSub:
		d.store(b, q.Target, b.NewSub(d.operand(b, q.Arg1), d.operand(b, q.Arg2)))
	case luxir.OpMul:
		d.store(b, q.Target, b.NewMul(d.operand(b, q.Arg1), d.operand(b, q.Arg2)))
	case luxir.OpDiv:
		x, y := d.operand(b, q.Arg1), d.operand(b, q.Arg2)
		if unsigned {
			d.store(b, q.Target, b.NewUDiv(x, y))
		} else {
			d.store(b, q.Target, b.NewSDiv(x, y))
		}
	case luxir.OpRem:
		x, y := d.operand(b, q.Arg1), d.operand(b, q.Arg2)
		if unsigned {
			d.store(b, q.Target, b.NewURem(x, y))
		} else {
			d.store(b, q.Target, b.NewSRem(x, y))
		}
	case luxir.OpSHL:
		d.store(b, q.Target, b.NewShl(d.operand(b, q.Arg1), d.operand(b, q.Arg2)))
	case luxir.OpSHR:
		x, y := d.operand(b, q.Arg1), d.operand(b, q.Arg2)
		if unsigned {
			d.store(b, q.Target, b.NewLShr(x, y))
		} else {
			d.store(b, q.Target, b.NewAShr(x, y))
		}
	case luxir.OpAnd:
		d.store(b, q.Target, b.NewAnd(d.operand(b, q.Arg1), d.operand(b, q.Arg2)))
	case luxir.OpOr:
		d.store(b, q.Target, b.NewOr(d.operand(b, q.Arg1), d.operand(b, q.Arg2)))
	case luxir.OpXor:
		d.store(b, q.Target, b.NewXor(d.operand(b, q.Arg1), d.operand(b, q.Arg2)))
	case luxir.OpEQ:
		d.store(b, q.Target, d.icmp(b, enum.IPredEQ, enum.IPredEQ, unsigned, d.operand(b, q.Arg1), d.operand(b, q.Arg2)))
	case luxir.OpNEQ:
		d.store(b, q.Target, d.icmp(b, enum.IPredNE, enum.IPredNE, unsigned, d.operand(b, q.Arg1), d.operand(b, q.Arg2)))
	case luxir.OpLT:
		d.store(b, q.Target, d.icmp(b, enum.IPredSLT, enum.IPredULT, unsigned, d.operand(b, q.Arg1), d.operand(b, q.Arg2)))
	case luxir.OpLET:
		d.store(b, q.Target, d.icmp(b, enum.IPredSLE, enum.IPredULE, unsigned, d.operand(b, q.Arg1), d.operand(b, q.Arg2)))
	case luxir.OpGT:
		d.store(b, q.Target, d.icmp(b, enum.IPredSGT, enum.IPredUGT, unsigned, d.operand(b, q.Arg1), d.operand(b, q.Arg2)))
	case luxir.OpGET:
		d.store(b, q.Target, d.icmp(b, enum.IPredSGE, enum.IPredUGE, unsigned, d.operand(b, q.Arg1), d.operand(b, q.Arg2)))
	case luxir.OpNeg:
		d.store(b, q.Target, b.NewSub(constant.NewInt(types.I32, 0), d.operand(b, q.Arg1)))
	case luxir.OpCmpl:
		d.store(b, q.Target, b.NewXor(d.operand(b, q.Arg1), constant.NewInt(types.I32, -1)))
	case luxir.OpNot:
		d.store(b, q.Target, b.NewICmp(enum.IPredEQ, d.operand(b, q.Arg1), constant.NewInt(types.I32, 0)))
	case luxir.OpCh, luxir.OpSh:
		narrow := types.I8
		if q.Op == luxir.OpSh {
			narrow = types.I16
		}
		d.store(b, q.Target, b.NewSExt(b.NewTrunc(d.operand(b, q.Arg1), narrow), types.I32))
	case luxir.OpUCh, luxir.OpUSh:
		narrow := types.I8
		if q.Op == luxir.OpUSh {
			narrow = types.I16
		}
		d.store(b, q.Target, b.NewZExt(b.NewTrunc(d.operand(b, q.Arg1), narrow), types.I32))
	case luxir.OpLLSX:
		d.store(b, q.Target, b.NewSExt(d.operand(b, q.Arg1), types.I64))
	case luxir.OpLLZX:
		d.store(b, q.Target, b.NewZExt(d.operand(b, q.Arg1), types.I64))
	case luxir.OpAddrOf:
		if alloc, ok := d.allocas[q.Arg1]; ok {
			d.store(b, q.Target, alloc)
		}
	case luxir.OpInd:
		ptr := d.operand(b, q.Arg1)
		d.store(b, q.Target, b.NewLoad(types.I32, ptr))
	case luxir.OpAsn:
		d.store(b, q.Target, d.operand(b, q.Arg1))
	case luxir.OpIndAsn:
		b.NewStore(d.operand(b, q.Arg1), d.operand(b, q.Target))
	case luxir.OpBegArg:
		d.pendingArgs = nil
	case luxir.OpArg:
		d.pendingArgs = append(d.pendingArgs, d.operand(b, q.Arg1))
	case luxir.OpCall, luxir.OpIndCall:
		callee := d.calleeFunc(q)
		call := b.NewCall(callee, d.pendingArgs...)
		d.pendingArgs = nil
		d.store(b, q.Target, call)
	case luxir.OpSwitch, luxir.OpCase, luxir.OpRet, luxir.OpJmp, luxir.OpCBr:
		// terminators, handled by emitTerm
	default:
		return errors.Errorf("lldump: unhandled quad op %s", q.Op)
	}
	return nil
}

// calleeFunc resolves (declaring, if necessary) the external function
// symbol an OpCall/OpIndCall targets. This module only ever lowers one
// function body at a time, so any callee is, from this dump's point of
// view, an externally-declared function of unknown exact signature;
// module-scope functions called more than once share one declaration.
func (d *dumper) calleeFunc(q luxir.Quad) *ir.Func {
	name := "indirect"
	if a := d.prog.Addrs[q.Arg1]; a.Kind == luxir.AddrId {
		name = a.Name
	}
	if fn, ok := d.externs[name]; ok {
		return fn
	}
	params := make([]*ir.Param, len(d.pendingArgs))
	for i := range d.pendingArgs {
		params[i] = ir.NewParam("", types.I32)
	}
	fn := d.m.NewFunc(name, llType(q.Type, d.flags), params...)
	d.externs[name] = fn
	return fn
}

func (d *dumper) emitTerm(idx luxir.NodeID, b *ir.Block, term luxir.Quad) error {
	node := d.prog.Nodes[idx]
	switch term.Op {
	case luxir.OpJmp:
		if len(node.Out) != 1 {
			return errors.Errorf("lldump: block %d: Jmp with %d successors", idx, len(node.Out))
		}
		// A return lowers to Ret followed by a structural Jmp to the
		// exit label; render that pair as the actual ret instruction
		// rather than a branch into an empty exit block.
		if node.Last > node.Leader {
			if prev := d.prog.Quads[node.Last-1]; prev.Op == luxir.OpRet {
				if prev.Arg1 == 0 {
					b.NewRet(nil)
				} else {
					b.NewRet(d.operand(b, prev.Arg1))
				}
				return nil
			}
		}
		b.NewBr(d.blocks[node.Out[0]])
	case luxir.OpCBr:
		if len(node.Out) != 2 {
			return errors.Errorf("lldump: block %d: CBr with %d successors", idx, len(node.Out))
		}
		cond := d.operand(b, term.Target)
		if !types.Equal(cond.Type(), types.I1) {
			cond = b.NewICmp(enum.IPredNE, cond, constant.NewInt(types.I32, 0))
		}
		b.NewCondBr(cond, d.blocks[node.Out[0]], d.blocks[node.Out[1]])
	case luxir.OpRet:
		if term.Arg1 == 0 {
			b.NewRet(nil)
		} else {
			b.NewRet(d.operand(b, term.Arg1))
		}
	case luxir.OpLab:
		// An empty block: either a fall-through to the next block in
		// program order, or the function's exit label, which has no
		// successor and closes the function.
		switch len(node.Out) {
		case 0:
			b.NewRet(nil)
		case 1:
			b.NewBr(d.blocks[node.Out[0]])
		default:
			return errors.Errorf("lldump: block %d: empty block with %d successors", idx, len(node.Out))
		}
	case luxir.OpCase:
		// A switch dispatch table is a run of consecutive OpCase rows
		// ending at node.Last, with node.Out[i] the CFG edge for the
		// i-th row in table order (cfg.go's resolveEdges); render it as
		// a cascade of equality branches against the OpSwitch
		// discriminant that precedes the run, since llir's CondBr only
		// models two-way branching directly. The single row with no
		// case value (the default, or the substituted exit label)
		// becomes the cascade's final unconditional branch.
		if len(node.Out) == 0 {
			return errors.Errorf("lldump: block %d: switch with no successors", idx)
		}
		first := node.Last
		for first > node.Leader && d.prog.Quads[first-1].Op == luxir.OpCase {
			first--
		}
		var discAddr luxir.AddrID
		for p := first - 1; p >= node.Leader; p-- {
			if d.prog.Quads[p].Op == luxir.OpSwitch {
				discAddr = d.prog.Quads[p].Target
				break
			}
		}
		rows := d.prog.Quads[first : node.Last+1]
		if len(node.Out) != len(rows) {
			return errors.Errorf("lldump: block %d: %d case rows but %d CFG successors", idx, len(rows), len(node.Out))
		}
		fallback := d.blocks[node.Out[0]]
		type valuedCase struct {
			value int64
			dest  *ir.Block
		}
		var valued []valuedCase
		for i, row := range rows {
			if row.Arg1 == 0 {
				fallback = d.blocks[node.Out[i]]
				continue
			}
			valued = append(valued, valuedCase{d.prog.Addrs[row.Arg1].Value, d.blocks[node.Out[i]]})
		}
		disc := d.operand(b, discAddr)
		cur := b
		for i, c := range valued {
			eq := cur.NewICmp(enum.IPredEQ, disc, constant.NewInt(types.I32, c.value))
			if i == len(valued)-1 {
				cur.NewCondBr(eq, c.dest, fallback)
				return nil
			}
			next := d.f.NewBlock(fmt.Sprintf("L%d.case%d", idx, i))
			cur.NewCondBr(eq, c.dest, next)
			cur = next
		}
		cur.NewBr(fallback)
	default:
		return errors.Errorf("lldump: block %d: unrecognized terminator %s", idx, term.Op)
	}
	return nil
}
