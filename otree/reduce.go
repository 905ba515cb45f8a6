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

// ReduceDomainStateNode recomputes node's domain of candidate conjecture
// states from scratch against every reference node in t.RN: the domain
// holds exactly the states whose reference representative agrees with
// node on every commonly-queried suffix. It is
// called when a node is created and again whenever identification needs
// the exact domain after new observations.
func (t *Tree) ReduceDomainStateNode(node NodeID) {
	n := t.Node(node)
	for state := 0; state < len(t.RN); state++ {
		repr := t.Representative(t.RN[state])
		if repr.ID == node {
			n.Domain[state] = struct{}{}
			continue
		}
		if t.Different(node, repr.ID) {
			delete(n.Domain, state)
		} else {
			n.Domain[state] = struct{}{}
		}
	}
}

// ReduceDomain narrows cn's domain of candidate reference classes,
// dropping -- on both sides, keeping the links symmetric -- any entry
// that ConvergentNodesDistinguished now proves apart. It returns true if
// anything was removed.
func (t *Tree) ReduceDomain(cn CNID) bool {
	c := t.CN(cn)
	changed := false
	for other := range c.Domain {
		if t.ConvergentNodesDistinguished(cn, other) {
			delete(c.Domain, other)
			if oc := t.CN(other); oc != nil {
				delete(oc.Domain, cn)
			}
			changed = true
		}
	}
	return changed
}

// CheckPrevious implements the upward propagation step of domain
// reduction: after a query extends node's path, every node from node up
// to the root re-checks its candidacy against each reference state still in its
// domain, since the new suffix may prove it different. A node whose
// assigned state falls out of its domain, or that now provably disagrees
// with another member of its own convergent class, is marked WrongState
// and queued for inconsistency processing; a node whose domain empties
// without any assignment is queued as a new-state witness.
//
// The walk always continues to the root: an ancestor can become
// distinguishable through the fresh suffix even when the nodes below it
// did not change. It returns true if any domain shrank.
func (t *Tree) CheckPrevious(node NodeID) bool {
	changed := false
	for cur := t.Node(node); ; {
		removedAny := false
		for state := range cur.Domain {
			repr := t.Representative(t.RN[state])
			if repr.ID == cur.ID {
				continue
			}
			if t.Different(cur.ID, repr.ID) {
				delete(cur.Domain, state)
				removedAny = true
			}
		}
		if cur.CN != NoCN {
			if t.ReduceDomain(cur.CN) {
				removedAny = true
			}
		}
		if cur.AssumedState != QueriedRN {
			inconsistent := false
			if cur.State >= 0 {
				if _, ok := cur.Domain[cur.State]; !ok {
					inconsistent = true
				} else if t.conflictingMember(cur.ID) != NoNode {
					inconsistent = true
				}
			} else if removedAny && len(cur.Domain) == 0 {
				inconsistent = true
			}
			if inconsistent {
				if cur.State >= 0 {
					cur.State = fsm.WrongState
				}
				t.Inconsistent = append(t.Inconsistent, cur.ID)
			}
		}
		if removedAny {
			changed = true
		}
		if cur.Parent == NoNode {
			break
		}
		cur = t.Node(cur.Parent)
	}
	return changed
}

// conflictingMember returns a member of node's own convergent class whose
// queried subtree provably disagrees with node's, or NoNode. Such a
// conflict means the class conflates two distinct black-box states even
// though each member individually still matches the class representative's
// (more limited) evidence.
func (t *Tree) conflictingMember(node NodeID) NodeID {
	n := t.Node(node)
	if n.CN == NoCN {
		return NoNode
	}
	for _, m := range t.CN(n.CN).Convergent {
		if m == node {
			continue
		}
		if t.Different(node, m) {
			return m
		}
	}
	return NoNode
}
