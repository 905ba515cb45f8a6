// Copyright (c) 2024 The fsmlib-go Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package otree implements the observation tree enriched with
// convergent-node equivalence classes: the data structure and consistency
// engine at the heart of the S-learner.
//
// The package uses the arena strategy: nodes and convergent-node classes
// live in slices inside Tree, referenced by integer IDs rather than
// pointers, so merges can drop old CN shells and parent/child/CN links
// never need weak references to avoid leaking cycles.
package otree

import "github.com/fsmlib-go/slearner/fsm"

// NodeID indexes a Node within a Tree. NoNode is the sentinel for "absent".
type NodeID int

// CNID indexes a ConvergentNode within a Tree. NoCN is the sentinel for
// "absent".
type CNID int

const (
	NoNode NodeID = -1
	NoCN   CNID   = -1
)

// AssumedState is the three-valued query/reference tag a node carries.
type AssumedState int

const (
	NotQueried AssumedState = iota
	QueriedNotRN
	QueriedRN
)

// Node is one OTreeNode: a prefix of inputs applied from the reset state,
// annotated with observed outputs and a domain of candidate conjecture
// states.
type Node struct {
	ID             NodeID
	Parent         NodeID
	IncomingInput  int
	IncomingOutput int
	StateOutput    int
	AccessSequence fsm.Sequence

	Next []NodeID // sparse, indexed by input; NoNode where absent

	Domain map[int]struct{} // candidate conjecture states

	State        int // fsm.NullState, fsm.WrongState, or an assigned state index
	AssumedState AssumedState

	LastQueriedInput int
	MaxSuffixLen     int

	// Requeried records that this node's incoming edge has already been
	// re-observed once under a positive extra-state budget, so the query
	// primitive never asks the teacher about the same edge a third time.
	Requeried bool

	CN CNID
}

// ConvergentNode is an equivalence class of OT nodes believed to reach the
// same black-box state.
type ConvergentNode struct {
	ID         CNID
	Convergent []NodeID // first member is the class representative
	IsRN       bool
	Domain     map[CNID]struct{} // candidate reference CNs this class could collapse into (or vice versa)
	Next       []CNID            // child CN per input
	State      int               // valid iff IsRN
}

// Tree is the OTree aggregate: the arena of nodes and convergent-node
// classes, the rn[state] vector of reference CNs, and the current
// extra-state verification budget es.
type Tree struct {
	nodes []*Node
	cns   []*ConvergentNode

	RN []CNID // indexed by conjecture state

	NumInputs  int
	NumOutputs int
	ES         int

	// BBNode is the node the black box is currently positioned at,
	// tracked so the query primitive can avoid an unnecessary reset.
	BBNode NodeID

	// Pending holds newly queried nodes in discovery order. Nodes are
	// classified lazily, when identification or a merge reaches them;
	// the list itself is bookkeeping for callers that want to inspect
	// what a drive discovered.
	Pending []NodeID

	// Inconsistent holds nodes whose domain no longer supports their
	// assigned state (or emptied outright), found by CheckPrevious while
	// propagating a fresh observation. Processed LIFO, and always
	// drained before any further transition identification.
	Inconsistent []NodeID
}

// New creates a Tree with a single root node (state 0's reference) and one
// reference CN for state 0.
func New(numInputs, numOutputs, rootStateOutput int) *Tree {
	t := &Tree{NumInputs: numInputs, NumOutputs: numOutputs}
	root := t.newNode(NoNode, 0, fsm.DefaultOutput, rootStateOutput)
	root.State = 0
	root.AssumedState = QueriedRN
	root.Domain[0] = struct{}{}
	rootCN := t.newCN(root, true)
	rootCN.State = 0
	root.CN = rootCN.ID
	t.RN = []CNID{rootCN.ID}
	t.BBNode = root.ID
	return t
}

func (t *Tree) newNode(parent NodeID, incomingInput, incomingOutput, stateOutput int) *Node {
	n := &Node{
		ID:               NodeID(len(t.nodes)),
		Parent:           parent,
		IncomingInput:    incomingInput,
		IncomingOutput:   incomingOutput,
		StateOutput:      stateOutput,
		State:            fsm.NullState,
		Domain:           map[int]struct{}{},
		Next:             make([]NodeID, t.NumInputs),
		LastQueriedInput: -1,
		CN:               NoCN,
	}
	for i := range n.Next {
		n.Next[i] = NoNode
	}
	if parent == NoNode {
		n.AccessSequence = fsm.Sequence{}
	} else {
		n.AccessSequence = t.Node(parent).AccessSequence.Append(incomingInput)
	}
	t.nodes = append(t.nodes, n)
	return n
}

func (t *Tree) newCN(repr *Node, isRN bool) *ConvergentNode {
	cn := &ConvergentNode{
		ID:         CNID(len(t.cns)),
		Convergent: []NodeID{repr.ID},
		IsRN:       isRN,
		Domain:     map[CNID]struct{}{},
		Next:       make([]CNID, t.NumInputs),
		State:      fsm.NullState,
	}
	for i := range cn.Next {
		cn.Next[i] = NoCN
	}
	t.cns = append(t.cns, cn)
	return cn
}

// NumNodes returns how many nodes the tree holds, i.e. how many distinct
// access sequences have been queried so far.
func (t *Tree) NumNodes() int { return len(t.nodes) }

// Node returns the node with the given ID.
func (t *Tree) Node(id NodeID) *Node {
	if id == NoNode {
		return nil
	}
	return t.nodes[id]
}

// CN returns the convergent-node class with the given ID.
func (t *Tree) CN(id CNID) *ConvergentNode {
	if id == NoCN {
		return nil
	}
	return t.cns[id]
}

// Root returns the root node's ID.
func (t *Tree) Root() NodeID { return 0 }

// Representative returns the representative node of a CN (its shortest
// access-sequence member).
func (t *Tree) Representative(cn CNID) *Node {
	c := t.CN(cn)
	return t.Node(c.Convergent[0])
}

// StateNode returns the representative node of state's reference CN.
func (t *Tree) StateNode(state int) *Node {
	return t.Representative(t.RN[state])
}

// GrowAlphabet widens every node's and CN's Next slice to newNumInputs.
func (t *Tree) GrowAlphabet(newNumInputs int) {
	if newNumInputs <= t.NumInputs {
		return
	}
	for _, n := range t.nodes {
		grown := make([]NodeID, newNumInputs)
		for i := range grown {
			grown[i] = NoNode
		}
		copy(grown, n.Next)
		n.Next = grown
	}
	for _, cn := range t.cns {
		grown := make([]CNID, newNumInputs)
		for i := range grown {
			grown[i] = NoCN
		}
		copy(grown, cn.Next)
		cn.Next = grown
	}
	t.NumInputs = newNumInputs
}

func (t *Tree) GrowOutputs(newNumOutputs int) {
	if newNumOutputs > t.NumOutputs {
		t.NumOutputs = newNumOutputs
	}
}

// reassignRepresentative moves the member with the shortest access
// sequence to the front of cn.Convergent.
func (t *Tree) reassignRepresentative(cn *ConvergentNode) {
	best := 0
	for i := 1; i < len(cn.Convergent); i++ {
		if len(t.Node(cn.Convergent[i]).AccessSequence) < len(t.Node(cn.Convergent[best]).AccessSequence) {
			best = i
		}
	}
	cn.Convergent[0], cn.Convergent[best] = cn.Convergent[best], cn.Convergent[0]
}

// removeFromClass drops node from cn's member list. An emptied class also
// sheds its symmetric domain links, so a dropped shell is never consulted
// again through some other class's candidate set.
func (t *Tree) removeFromClass(cn CNID, node NodeID) {
	c := t.CN(cn)
	for i, m := range c.Convergent {
		if m == node {
			c.Convergent = append(c.Convergent[:i], c.Convergent[i+1:]...)
			break
		}
	}
	if len(c.Convergent) == 0 {
		for ref := range c.Domain {
			if rc := t.CN(ref); rc != nil {
				delete(rc.Domain, cn)
			}
		}
		c.Domain = map[CNID]struct{}{}
		return
	}
	t.reassignRepresentative(c)
}

// rebuildCNLinks recomputes every live class's per-input child links from
// its members' actual children, after a promotion re-homes nodes.
func (t *Tree) rebuildCNLinks() {
	for _, c := range t.cns {
		if len(c.Convergent) == 0 {
			continue
		}
		for i := 0; i < t.NumInputs; i++ {
			c.Next[i] = NoCN
			for _, m := range c.Convergent {
				child := t.Node(m).Next[i]
				if child == NoNode {
					continue
				}
				if cc := t.Node(child).CN; cc != NoCN {
					c.Next[i] = cc
					break
				}
			}
		}
	}
}
