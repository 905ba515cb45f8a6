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

// MergeConvergent adds node to the convergent-node class cn, recording
// that node's access sequence is believed to reach the same black-box
// state as every other member of cn. It recursively merges any
// already-queried children the two sides share on the same input,
// since convergence of a node implies convergence of its continuations,
// and keeps cn's representative pointed at the shortest access sequence.
//
// Three checks of the merge contract apply, in this order:
//
//   - if cn is a reference CN, node's own domain must already contain
//     cn's state, or the merge would conflate node with a state it has
//     already been proven not to be; this check runs before anything
//     mutates;
//   - domains intersect: node's previous class (if it had one) and cn
//     keep only the candidate references both still allow, clearing the
//     symmetric link on every side that drops a candidate;
//   - merging two children that are themselves reference CNs for
//     different conjecture states is a hard inconsistency -- it would
//     prove two already-distinguished states equal -- and is refused
//     rather than silently recursed into. This check runs per input
//     during the child merge, after node has already joined cn, so a
//     refusal here leaves node in cn.
func (t *Tree) MergeConvergent(node NodeID, cn CNID) error {
	n := t.Node(node)
	if n.CN == cn {
		return nil
	}
	c := t.CN(cn)

	if c.IsRN {
		if _, ok := n.Domain[c.State]; !ok {
			return &MergeInconsistency{Seq: t.SeparatingSequence(node, t.Representative(cn).ID)}
		}
	}

	oldCN := n.CN
	if oldCN != NoCN && oldCN != cn && !c.IsRN {
		// Intersecting is only meaningful between two still-undecided
		// classes pooling their candidate references. A reference CN's
		// own Domain tracks its relationship to *other* reference
		// states, which a node merging
		// into it -- often a brand-new singleton with an empty Domain of
		// its own -- must never overwrite.
		t.intersectCNDomains(oldCN, cn)
	}

	c.Convergent = append(c.Convergent, node)
	n.CN = cn
	t.reassignRepresentative(c)

	if n.AssumedState == NotQueried {
		n.AssumedState = QueriedNotRN
	}
	if c.IsRN && n.State < 0 {
		n.State = c.State
	}

	// Record the parent class's child link for node's incoming input:
	// the parent class's successor for that input converges with node's
	// class.
	if n.Parent != NoNode {
		if p := t.Node(n.Parent); p.CN != NoCN {
			if err := t.linkChildClass(t.CN(p.CN), n.IncomingInput, cn); err != nil {
				return err
			}
		}
	}

	for i := 0; i < t.NumInputs; i++ {
		childCN := c.Next[i]
		nodeChild := n.Next[i]
		if nodeChild == NoNode {
			continue
		}
		nodeChildCN := t.Node(nodeChild).CN
		if childCN == NoCN {
			// Adopt node's own child's class as cn's class for this input.
			c.Next[i] = nodeChildCN
			continue
		}
		if nodeChildCN == childCN {
			continue
		}
		if nodeChildCN != NoCN {
			childC, nodeChildC := t.CN(childCN), t.CN(nodeChildCN)
			if childC.IsRN && nodeChildC.IsRN && childC.State != nodeChildC.State {
				return &MergeInconsistency{Seq: t.SeparatingSequence(
					t.Representative(nodeChildCN).ID, t.Representative(childCN).ID)}
			}
		}
		if err := t.MergeConvergent(nodeChild, childCN); err != nil {
			return err
		}
	}

	// Leave node's previous class, dropping the shell's symmetric domain
	// links once its last member is gone so stale state is never
	// consulted.
	if oldCN != NoCN && oldCN != cn {
		t.removeFromClass(oldCN, node)
	}
	return nil
}

// linkChildClass records that parent's input-successor class is child,
// folding any previously recorded successor class into child (or child's
// members into it, when the earlier record is a reference class) so the
// two beliefs about the same transition converge. Two distinct reference
// classes meeting here would prove two already-distinguished states equal:
// a hard inconsistency, refused.
func (t *Tree) linkChildClass(parent *ConvergentNode, input int, child CNID) error {
	existing := parent.Next[input]
	if existing == NoCN {
		parent.Next[input] = child
		return nil
	}
	if existing == child {
		return nil
	}
	ec, cc := t.CN(existing), t.CN(child)
	if ec.IsRN && cc.IsRN {
		return &MergeInconsistency{Seq: t.SeparatingSequence(
			t.Representative(existing).ID, t.Representative(child).ID)}
	}
	src, dst := existing, child
	if ec.IsRN {
		src, dst = child, existing
	}
	for _, m := range append([]NodeID(nil), t.CN(src).Convergent...) {
		if err := t.MergeConvergent(m, dst); err != nil {
			return err
		}
	}
	parent.Next[input] = dst
	return nil
}

// intersectCNDomains narrows both a's and b's candidate-reference domains
// to their intersection, clearing the symmetric link on the far side of
// every candidate that gets dropped.
func (t *Tree) intersectCNDomains(a, b CNID) {
	ca, cb := t.CN(a), t.CN(b)
	for ref := range ca.Domain {
		if _, ok := cb.Domain[ref]; !ok {
			delete(ca.Domain, ref)
			if r := t.CN(ref); r != nil {
				delete(r.Domain, a)
			}
		}
	}
	for ref := range cb.Domain {
		if _, ok := ca.Domain[ref]; !ok {
			delete(cb.Domain, ref)
			if r := t.CN(ref); r != nil {
				delete(r.Domain, b)
			}
		}
	}
}
