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

package otree

import "github.com/fsmlib-go/slearner/fsm"

// SeparatingSequence returns a queried suffix that distinguishes n1 from
// n2, the witness that is guaranteed to exist whenever Different(n1, n2)
// holds. It returns nil if no disagreement is found among the edges
// already queried from n1 and n2 themselves; the two may still be
// provably different through some other node's history, a case callers
// must treat as an inconsistency rather than assume away.
func (t *Tree) SeparatingSequence(n1, n2 NodeID) fsm.Sequence {
	type pr struct {
		a, b NodeID
		seq  fsm.Sequence
	}
	queue := []pr{{n1, n2, fsm.Sequence{}}}
	visited := map[[2]NodeID]bool{{n1, n2}: true}
	for len(queue) > 0 {
		f := queue[0]
		queue = queue[1:]
		a, b := t.Node(f.a), t.Node(f.b)
		if a.StateOutput != b.StateOutput {
			return f.seq
		}
		for i := 0; i < t.NumInputs; i++ {
			na, nb := a.Next[i], b.Next[i]
			if na == NoNode || nb == NoNode {
				continue
			}
			if t.Node(na).IncomingOutput != t.Node(nb).IncomingOutput {
				return f.seq.Append(i)
			}
			key := [2]NodeID{na, nb}
			if !visited[key] {
				visited[key] = true
				queue = append(queue, pr{na, nb, f.seq.Append(i)})
			}
		}
	}
	return nil
}

// Different implements areNodesDifferent: n1 and n2 are distinguished if
// any commonly-queried suffix produces different outputs, compared over
// their entire queried subtrees. An explicit stack is used rather than
// native recursion.
func (t *Tree) Different(n1, n2 NodeID) bool {
	type pr struct{ a, b NodeID }
	stack := []pr{{n1, n2}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		a, b := t.Node(p.a), t.Node(p.b)
		if a.StateOutput != b.StateOutput {
			return true
		}
		for i := 0; i < t.NumInputs; i++ {
			na, nb := a.Next[i], b.Next[i]
			if na == NoNode || nb == NoNode {
				continue
			}
			if t.Node(na).IncomingOutput != t.Node(nb).IncomingOutput {
				return true
			}
			stack = append(stack, pr{na, nb})
		}
	}
	return false
}

// DifferentUnder implements areNodesDifferentUnder: it restricts the
// comparison to the single queried path of length len that
// was most recently extended, following n1's lastQueriedInput chain. This
// is the O(depth) incremental check used after every single query.
func (t *Tree) DifferentUnder(n1, n2 NodeID, length int) bool {
	a, b := t.Node(n1), t.Node(n2)
	if a.StateOutput != b.StateOutput {
		return true
	}
	if a.LastQueriedInput == -1 || b.MaxSuffixLen < length {
		return false
	}
	idx := a.LastQueriedInput
	na, nb := a.Next[idx], b.Next[idx]
	if na == NoNode || nb == NoNode {
		return false
	}
	if t.Node(na).IncomingOutput != t.Node(nb).IncomingOutput {
		return true
	}
	return t.DifferentUnder(na, nb, length-1)
}

// NodeVsConvergentDifferent implements areNodeAndConvergentDifferentUnder:
// it compares node's subtree against whichever member of cn has the
// relevant child for the incremental suffix.
func (t *Tree) NodeVsConvergentDifferent(node NodeID, cn CNID) bool {
	n := t.Node(node)
	c := t.CN(cn)
	if n.StateOutput != t.Node(c.Convergent[0]).StateOutput {
		return true
	}
	if n.LastQueriedInput == -1 || c.Next[n.LastQueriedInput] == NoCN {
		return false
	}
	idx := n.LastQueriedInput
	var memberChild NodeID = NoNode
	for _, m := range c.Convergent {
		if m != node && t.Node(m).Next[idx] != NoNode {
			memberChild = t.Node(m).Next[idx]
			break
		}
	}
	nextNode := n.Next[idx]
	if memberChild == NoNode || nextNode == NoNode {
		return false
	}
	if t.Node(nextNode).IncomingOutput != t.Node(memberChild).IncomingOutput {
		return true
	}
	return t.NodeVsConvergentDifferent(nextNode, c.Next[idx])
}

// ConvergentNodesDistinguished implements areConvergentNodesDistinguished,
// lifting the check to CN-to-CN: cn1 and cn2 are
// distinguished if they are two distinct reference classes, if their
// representatives' state outputs disagree, or if some pair of per-input
// children disagrees.
//
// Unlike Different/DifferentUnder (which walk the OT, a tree), this walks
// the CN-to-CN child graph, which mirrors the conjecture's transition graph
// and can contain cycles (any self-loop or cycle of confirmed states). A
// visited-pairs set guards against revisiting the same (cn1, cn2) pair, per
// the bounded-search discipline used elsewhere generalized to cyclic
// structures: two CNs not yet proven different by any already-explored pair
// are assumed equal for the purposes of this search, exactly as
// distinguishability over an FSM's product automaton is decided by
// reachability rather than unbounded unrolling.
func (t *Tree) ConvergentNodesDistinguished(cn1, cn2 CNID) bool {
	visited := map[[2]CNID]bool{}
	return t.convergentNodesDistinguished(cn1, cn2, visited)
}

func (t *Tree) convergentNodesDistinguished(cn1, cn2 CNID, visited map[[2]CNID]bool) bool {
	if cn1 == cn2 {
		return false
	}
	key := [2]CNID{cn1, cn2}
	if visited[key] {
		return false
	}
	visited[key] = true
	c1, c2 := t.CN(cn1), t.CN(cn2)
	if len(c1.Convergent) == 0 || len(c2.Convergent) == 0 {
		return false
	}
	if t.Node(c1.Convergent[0]).StateOutput != t.Node(c2.Convergent[0]).StateOutput {
		return true
	}
	// Two distinct reference classes stand for states already proven
	// apart by a queried suffix; everything else is decided structurally
	// from the members' actual observations below.
	if c1.IsRN && c2.IsRN {
		return c1.State != c2.State
	}
	for i := 0; i < t.NumInputs; i++ {
		if c1.Next[i] == NoCN || c2.Next[i] == NoCN {
			continue
		}
		child1 := t.firstChild(c1, i)
		child2 := t.firstChild(c2, i)
		if t.Node(child1).IncomingOutput != t.Node(child2).IncomingOutput {
			return true
		}
		if t.convergentNodesDistinguished(c1.Next[i], c2.Next[i], visited) {
			return true
		}
	}
	return false
}

// firstChild returns the input-i child of whichever member of cn has one.
func (t *Tree) firstChild(cn *ConvergentNode, input int) NodeID {
	for _, m := range cn.Convergent {
		if t.Node(m).Next[input] != NoNode {
			return t.Node(m).Next[input]
		}
	}
	return NoNode
}
