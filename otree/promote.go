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

import (
	"context"

	"github.com/fsmlib-go/slearner/fsm"
	"github.com/fsmlib-go/slearner/teacher"
)

// MakeStateNode promotes a convergent-node class to a reference node:
// rather than unconditionally promoting node itself, it first walks
// node's ancestors
// up to the nearest one already assigned a reference state. Every
// intermediate ancestor whose own domain is still non-trivial is forced
// to separate from its remaining candidates by replaying, from the
// ancestor, the minimal known separating suffix between node (which has
// just been proven to differ from all of them) and each candidate's
// reference. If that empties an ancestor's domain first, that ancestor is
// promoted instead of node -- it is the shallower, more general node, so
// promoting it keeps future access sequences shorter. The caller is
// responsible for calling UpdateTreeWithNewState afterwards so the rest
// of the tree's domains account for the new candidate.
//
// t.ES is reset to 0 once a new state exists, so S-method verification
// restarts at the lower extra-state budget.
func (t *Tree) MakeStateNode(ctx context.Context, tch teacher.Teacher, node NodeID) (int, error) {
	target := node
	for cur := node; ; {
		parent := t.Node(cur).Parent
		if parent == NoNode {
			break
		}
		p := t.Node(parent)
		if p.AssumedState == QueriedRN {
			break
		}
		if len(p.Domain) > 0 {
			if err := t.forceSeparate(ctx, tch, node, parent); err != nil {
				return -1, err
			}
			if len(p.Domain) == 0 {
				target = parent
				break
			}
		}
		cur = parent
	}
	return t.promoteNode(target), nil
}

// forceSeparate replays, from ancestor, the minimal known separating
// suffix between node and each of ancestor's remaining candidate states'
// references, narrowing ancestor's domain with the freshly observed
// outputs.
func (t *Tree) forceSeparate(ctx context.Context, tch teacher.Teacher, node, ancestor NodeID) error {
	p := t.Node(ancestor)
	for _, s := range domainSlice(p.Domain) {
		if _, ok := p.Domain[s]; !ok {
			continue // already eliminated by an earlier candidate's query
		}
		seq := t.SeparatingSequence(node, t.StateNode(s).ID)
		if len(seq) == 0 {
			continue
		}
		if _, err := t.DriveSequenceFrom(ctx, tch, ancestor, seq); err != nil {
			return err
		}
		t.ReduceDomainStateNode(ancestor)
		t.CheckPrevious(ancestor)
		if len(p.Domain) == 0 {
			return nil
		}
	}
	return nil
}

// promoteNode makes node the representative of a brand-new conjecture
// state appended to t.RN. A node still believed convergent with others
// (or folded into a reference class that its evidence has now outgrown)
// is first re-homed into a fresh class of its own.
func (t *Tree) promoteNode(node NodeID) int {
	n := t.Node(node)
	var c *ConvergentNode
	switch {
	case n.CN == NoCN:
		c = t.newCN(n, false)
		n.CN = c.ID
	case t.CN(n.CN).IsRN || len(t.CN(n.CN).Convergent) > 1:
		t.removeFromClass(n.CN, node)
		c = t.newCN(n, false)
		n.CN = c.ID
	default:
		c = t.CN(n.CN)
	}
	// The class's old candidate links meant "could collapse into one of
	// these references"; a reference class tracks the opposite relation,
	// so the old links are shed on both sides before the flip.
	for ref := range c.Domain {
		if rc := t.CN(ref); rc != nil {
			delete(rc.Domain, c.ID)
		}
	}
	c.Domain = map[CNID]struct{}{}
	newState := len(t.RN)
	c.IsRN = true
	c.State = newState
	n.AssumedState = QueriedRN
	n.State = newState
	n.Domain = map[int]struct{}{newState: {}}
	t.RN = append(t.RN, c.ID)
	t.ES = 0
	return newState
}

// UpdateTreeWithNewState finishes a promotion: once a new
// reference state exists, every other node in the tree that is not
// distinguishable from it gains it as a domain candidate, every class's
// per-input child links are rebuilt from the re-homed membership, and the
// new reference class's symmetric candidate links are
// seeded against every live undecided class.
func (t *Tree) UpdateTreeWithNewState(newState int) {
	newCNID := t.RN[newState]
	newRepr := t.Representative(newCNID)
	for _, n := range t.nodes {
		if n.ID == newRepr.ID {
			continue
		}
		if t.Different(n.ID, newRepr.ID) {
			delete(n.Domain, newState)
			continue
		}
		if n.AssumedState == QueriedRN {
			continue
		}
		n.Domain[newState] = struct{}{}
	}
	t.rebuildCNLinks()
	nc := t.CN(newCNID)
	for _, cn := range t.cns {
		if cn.ID == newCNID || cn.IsRN || len(cn.Convergent) == 0 {
			continue
		}
		if t.ConvergentNodesDistinguished(cn.ID, newCNID) {
			delete(cn.Domain, newCNID)
			delete(nc.Domain, cn.ID)
		} else {
			cn.Domain[newCNID] = struct{}{}
			nc.Domain[cn.ID] = struct{}{}
		}
	}
	// A promotion re-homes nodes, which can strand a class member whose
	// evidence no longer matches its own representative's. Queue every
	// such member for re-validation rather than letting the stale
	// membership leak into the conjecture.
	for _, c := range t.cns {
		if len(c.Convergent) < 2 {
			continue
		}
		repr := c.Convergent[0]
		for _, m := range c.Convergent[1:] {
			if t.Different(m, repr) {
				mm := t.Node(m)
				if mm.State >= 0 {
					mm.State = fsm.WrongState
				}
				t.Inconsistent = append(t.Inconsistent, m)
			}
		}
	}
}
