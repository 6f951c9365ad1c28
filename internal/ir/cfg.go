package ir

import (
	"github.com/pkg/errors"

	"golang.org/x/tools/container/intsets"
)

// NodeID indexes Program.Nodes; node 0 is a reserved sentinel (so the
// zero value of a CFGNode field means "no such edge") and node 1 is
// always the block the prologue's leading Jmp occupies, the graph's
// sole root.
type NodeID uint32

// CFGNode is one basic block: its instruction range [Leader, Last],
// its successor/predecessor edges, and the dataflow bitsets the
// liveness/dominance passes downstream populate. In has no fixed
// capacity, so a pathological switch cannot overflow a predecessor
// table.
type CFGNode struct {
	Leader, Last QuadID
	Out          []NodeID // Jmp emits one, CBr two, a switch dispatch one per case row, Ret none
	In           []NodeID

	UEVar   *intsets.Sparse
	VarKill *intsets.Sparse
	LiveOut *intsets.Sparse
	Dom     *intsets.Sparse

	PO, RPO         uint32
	RCFGPO, RCFGRPO uint32
}

// Program is the IR generator's full output for one function: the
// quad stream, address table, and CFG, plus the traversal-ordering
// arrays the dataflow passes consume.
type Program struct {
	Quads []Quad
	Addrs []Address
	Nodes []*CFGNode // Nodes[0] is the reserved sentinel; Nodes[1] is entry

	CFGPO, CFGRPO   []NodeID
	RCFGPO, RCFGRPO []NodeID

	// Nids is the nid->sid interner: Nids[nid] is the identifier (or
	// temporary) name that nid stands for, the parallel array
	// bitset-based dataflow indexes by.
	Nids []string
}

// buildCFGSkeleton runs CFG construction's first two passes: every OpLab
// marks a leader, a block is created per leader, and each block's Last
// is set to the instruction before the next leader (or the stream's
// end for the final block). Edge resolution happens separately in
// resolveEdges once label->node lookup is available to the caller.
func buildCFGSkeleton(quads []Quad) (nodes []*CFGNode, labelBlock map[QuadID]int) {
	nodes = []*CFGNode{{}} // index 0 reserved
	labelBlock = make(map[QuadID]int)

	var leaders []QuadID
	for i := 1; i < len(quads); i++ {
		if quads[i].Op == OpLab {
			leaders = append(leaders, QuadID(i))
		}
	}
	for idx, lead := range leaders {
		nodes = append(nodes, &CFGNode{Leader: lead})
		labelBlock[lead] = idx + 1
	}
	for idx := range leaders {
		node := nodes[idx+1]
		end := QuadID(len(quads)) - 1
		if idx+1 < len(leaders) {
			end = leaders[idx+1] - 1
		}
		node.Last = end
	}
	return nodes, labelBlock
}

// resolveEdges fills Out/In once the leader→node table exists: a
// block's terminator (the instruction at Last) is inspected and turned
// into zero, one, or two successor edges, with the symmetric
// predecessor edge recorded on the other end in the same pass.
func resolveEdges(nodes []*CFGNode, quads []Quad, addrs []Address, labelBlock map[QuadID]int) {
	targetNode := func(a AddrID) int {
		return labelBlock[QuadID(addrs[a].Value)]
	}
	for idx := 1; idx < len(nodes); idx++ {
		node := nodes[idx]
		term := quads[node.Last]
		var outs []int
		switch term.Op {
		case OpJmp:
			outs = []int{targetNode(term.Target)}
		case OpCBr:
			outs = []int{targetNode(term.Arg1), targetNode(term.Arg2)}
		case OpCase:
			// A switch's dispatch table is a run of OpCase rows (each a
			// value/label pair) immediately preceded by OpSwitch; the
			// block's true successors are every row's label in table
			// order, not just the last one.
			first := node.Last
			for first > node.Leader && quads[first-1].Op == OpCase {
				first--
			}
			for q := first; q <= node.Last; q++ {
				outs = append(outs, targetNode(quads[q].Target))
			}
		case OpRet:
			// A return has no successor within the function.
		case OpLab:
			// An empty block (back-to-back labels, e.g. the merge label
			// immediately before the exit label) falls through to the
			// next block in program order; the function's final block
			// (the exit label) has nowhere to fall and no successors.
			if idx < len(nodes)-1 {
				outs = []int{idx + 1}
			}
		default:
			panic(errorsUnreachableTerminator(idx, term.Op))
		}
		for _, o := range outs {
			node.Out = append(node.Out, NodeID(o))
			nodes[o].In = append(nodes[o].In, NodeID(idx))
		}
	}
}

// numberDFS assigns depth-first post-order numbers to every node
// reachable from root, walking via next(node); setPO records each
// node's position as it's popped. Called twice — forward over Out for
// CFGPO/CFGRPO, backward over In for the reverse graph's
// RCFGPO/RCFGRPO — so both orderings end up stored per node.
func numberDFS(nodes []*CFGNode, root NodeID, next func(*CFGNode) []NodeID, setPO func(*CFGNode, uint32)) []NodeID {
	visited := make([]bool, len(nodes))
	var po []NodeID
	var visit func(NodeID)
	visit = func(n NodeID) {
		if visited[n] {
			return
		}
		visited[n] = true
		for _, succ := range next(nodes[n]) {
			visit(succ)
		}
		setPO(nodes[n], uint32(len(po)))
		po = append(po, n)
	}
	visit(root)
	return po
}

// errorsUnreachableTerminator reports a basic block whose last quad
// is neither a branch, a switch dispatch row, nor a label: an
// internal invariant violation emitLabel's automatic fallthrough-Jmp
// insertion is meant to make unreachable.
func errorsUnreachableTerminator(blockIdx int, op Op) error {
	return errors.Errorf("ir: block %d has no terminator (last op %s)", blockIdx, op)
}

func reverseOf(ids []NodeID) []NodeID {
	rev := make([]NodeID, len(ids))
	for i, id := range ids {
		rev[len(ids)-1-i] = id
	}
	return rev
}
