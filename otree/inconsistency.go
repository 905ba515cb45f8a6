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

// InconsistencyOutcome reports which resolution case ProcessInconsistent
// applied.
type InconsistencyOutcome int

const (
	// OutcomeNone accompanies a non-nil error: processing stopped before
	// a resolution case was completed.
	OutcomeNone InconsistencyOutcome = iota
	// OutcomeNewState is case A: node's domain was empty, so it (or an
	// ancestor forced apart along the way) was promoted into a brand-new
	// reference state.
	OutcomeNewState
	// OutcomeResolved is case B: node's domain had narrowed to exactly
	// one candidate reference state, so node converges to it.
	OutcomeResolved
	// OutcomeAmbiguous is case C: more than one candidate reference
	// state remains viable; the caller must query further (via the
	// planner's ADS machinery) before the node can be settled.
	OutcomeAmbiguous
)

// ProcessInconsistent decides a node's fate once its domain has been
// reduced (via ReduceDomainStateNode/CheckPrevious).
//
//   - Case A: the domain is empty. No existing reference state can
//     explain node's observations, so node (or the nearest ancestor that
//     empties first, per MakeStateNode's parent-chain walk) becomes the
//     representative of a new conjecture state.
//   - Case B: the domain has collapsed to a single candidate. node
//     converges with that state's reference CN.
//   - Case C: more than one candidate remains viable. The caller is told
//     to keep distinguishing rather than committing to a merge.
//
// Rather than hunting for an alternative witness among node's ancestors
// with an exhaustive cross-domain certificate search, case C simply
// defers to the planner, which keeps querying until the domain settles.
func (t *Tree) ProcessInconsistent(ctx context.Context, tch teacher.Teacher, node NodeID) (InconsistencyOutcome, int, error) {
	n := t.Node(node)
	switch len(n.Domain) {
	case 0:
		if n.CN != NoCN && t.CN(n.CN).IsRN {
			// A member forced off the class it was folded into.
			t.removeFromClass(n.CN, node)
			n.CN = NoCN
			t.rebuildCNLinks()
		}
		newState, err := t.MakeStateNode(ctx, tch, node)
		if err != nil {
			return OutcomeNone, -1, err
		}
		t.UpdateTreeWithNewState(newState)
		if n2 := t.Node(node); n2.AssumedState != QueriedRN {
			// An ancestor was promoted instead of node; node itself is
			// still unresolved. The fresh state usually re-enters its
			// domain (it is, after all, where node's evidence pointed),
			// so re-dispatch until node settles. Each pass can promote at
			// most one more state, so this terminates.
			if n2.State == fsm.WrongState || len(n2.Domain) <= 1 {
				return t.ProcessInconsistent(ctx, tch, node)
			}
		}
		return OutcomeNewState, newState, nil
	case 1:
		var only int
		for s := range n.Domain {
			only = s
		}
		if n.CN != NoCN && t.CN(n.CN).IsRN {
			c := t.CN(n.CN)
			if c.State != only {
				// Folded into the wrong class; extract and re-merge.
				t.removeFromClass(n.CN, node)
				n.CN = NoCN
				t.rebuildCNLinks()
			} else if m := t.conflictingMember(node); m != NoNode {
				// node still matches the class representative but
				// provably disagrees with a co-member: teach the
				// representative the separating suffix, then
				// re-decide which of the two deviates from it.
				return t.separateFromMember(ctx, tch, node, m, only)
			} else {
				if n.State < 0 {
					n.State = only
				}
				return OutcomeResolved, only, nil
			}
		}
		if err := t.mergeNodeIntoState(node, only); err != nil {
			return OutcomeNone, -1, err
		}
		return OutcomeResolved, only, nil
	default:
		return OutcomeAmbiguous, -1, nil
	}
}

// separateFromMember resolves a within-class conflict between node and
// member: their queried subtrees disagree on some suffix that the class
// representative has never been asked. Replaying that suffix from the
// representative makes one of the two provably different from it, after
// which node's reseeded domain decides whether it stays or is promoted.
func (t *Tree) separateFromMember(ctx context.Context, tch teacher.Teacher, node, member NodeID, state int) (InconsistencyOutcome, int, error) {
	seq := t.SeparatingSequence(node, member)
	if len(seq) == 0 {
		return OutcomeNone, -1, ErrNoSeparatingSequence
	}
	n := t.Node(node)
	t.removeFromClass(n.CN, node)
	n.CN = NoCN
	if n.State >= 0 {
		n.State = fsm.NullState
	}
	t.rebuildCNLinks()
	repr := t.Representative(t.RN[state])
	if _, err := t.DriveSequenceFrom(ctx, tch, repr.ID, seq); err != nil {
		return OutcomeNone, -1, err
	}
	// The representative now answers the disputed suffix, so exactly one
	// of the two can still match it. If member is the deviant, queue it
	// for its own pass; node's reseeded domain decides its fate below.
	if t.Different(member, repr.ID) {
		mm := t.Node(member)
		if mm.State >= 0 {
			mm.State = fsm.WrongState
		}
		t.Inconsistent = append(t.Inconsistent, member)
	}
	t.ReduceDomainStateNode(node)
	return t.ProcessInconsistent(ctx, tch, node)
}

// mergeNodeIntoState converges node with state's reference CN, creating a
// fresh CN to hold node if it did not already have one of its own.
func (t *Tree) mergeNodeIntoState(node NodeID, state int) error {
	n := t.Node(node)
	if n.CN == NoCN {
		cn := t.newCN(n, false)
		n.CN = cn.ID
	}
	if err := t.MergeConvergent(node, t.RN[state]); err != nil {
		return err
	}
	if n.State < 0 {
		n.State = state
	}
	return nil
}
