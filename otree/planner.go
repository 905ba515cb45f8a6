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
	"sort"

	"github.com/fsmlib-go/slearner/fsm"
	"github.com/fsmlib-go/slearner/teacher"
)

// TryExtendQueriedPath walks seq from node as far as the tree already has
// queried edges for, without issuing any new queries: replaying an access
// sequence that was already queried elsewhere in the tree must never cost
// a fresh membership query. It returns the deepest node reached and how much of
// seq was consumed.
func (t *Tree) TryExtendQueriedPath(node NodeID, seq fsm.Sequence) (NodeID, int) {
	cur := node
	consumed := 0
	for _, input := range seq {
		next := t.Node(cur).Next[input]
		if next == NoNode {
			break
		}
		cur = next
		consumed++
	}
	return cur, consumed
}

// IdentifyNextState is the heart of identification: given a newly-queried
// node whose domain has already been reduced, it drives
// whatever further queries are necessary to pin the node to exactly one
// conjecture state, then folds the result back into the tree.
//
// The happy path (domain already a singleton, or already empty) is
// delegated straight to ProcessInconsistent. The remaining, ambiguous
// case builds an adaptive distinguishing sequence over the surviving
// candidates and executes it live against the black box, narrowing the
// domain by one query at a time until ProcessInconsistent can resolve it.
//
// If the conjecture itself cannot split the remaining candidates any
// further (ChooseADS returns an unresolved leaf), node is never merged on
// a guess: two candidates must be proven apart by an actually-queried
// suffix before the learner treats them as distinct, so
// instead the minimal known separating sequence between two of the tied
// candidates' own references is replayed live from node. That either
// narrows node's domain (letting the loop continue) or, if no such
// sequence exists among already-queried data, surfaces
// ErrNoSeparatingSequence -- which should never happen, since the
// candidates would not both still be viable references otherwise.
func (t *Tree) IdentifyNextState(ctx context.Context, tch teacher.Teacher, c *fsm.Conjecture, node NodeID) (int, error) {
	t.ReduceDomainStateNode(node)
	outcome, state, err := t.ProcessInconsistent(ctx, tch, node)
	if err != nil {
		return -1, err
	}
	for outcome == OutcomeAmbiguous {
		n := t.Node(node)
		candidates := domainSlice(n.Domain)
		domainBefore, nodesBefore := len(n.Domain), t.NumNodes()

		ads := ChooseADS(c, candidates)
		if ads.Input != -1 {
			if _, _, err := t.IdentifyByADS(ctx, tch, node, ads); err != nil {
				return -1, err
			}
			t.ReduceDomainStateNode(node)
		}
		// An ADS the conjecture cannot build (or one that walked
		// already-queried edges to an unresolved leaf without learning
		// anything) never justifies a guess: replay a queried
		// separating suffix between two of the live candidates'
		// references instead, so the decision rests on real observations.
		if ads.Input == -1 || (len(n.Domain) == domainBefore && t.NumNodes() == nodesBefore) {
			if err := t.forceSeparateCandidates(ctx, tch, node, candidates); err != nil {
				return -1, err
			}
			t.ReduceDomainStateNode(node)
		}
		outcome, state, err = t.ProcessInconsistent(ctx, tch, node)
		if err != nil {
			return -1, err
		}
	}
	return state, nil
}

// IdentifyTransition drives the identification of one unconfirmed
// (state, input) transition: it applies input from state's reference
// node, pins the successor node to exactly one
// conjecture state via IdentifyNextState, and records the confirmed class
// link so the transition enters the conjecture.
func (t *Tree) IdentifyTransition(ctx context.Context, tch teacher.Teacher, c *fsm.Conjecture, state, input int) error {
	repr := t.StateNode(state)
	leaf, _, err := t.Query(ctx, tch, repr.ID, input)
	if err != nil {
		return err
	}
	if _, err := t.IdentifyNextState(ctx, tch, c, leaf); err != nil {
		return err
	}
	if lc := t.Node(leaf).CN; lc != NoCN {
		return t.linkChildClass(t.CN(t.RN[state]), input, lc)
	}
	return nil
}

// forceSeparateCandidates replays, from node, the minimal known
// separating sequence between the two lowest-numbered tied candidates'
// references, narrowing node's domain with the freshly observed output
// (the same forced-separation idea MakeStateNode applies to ancestors,
// here applied to an ambiguous leaf).
func (t *Tree) forceSeparateCandidates(ctx context.Context, tch teacher.Teacher, node NodeID, candidates []int) error {
	sorted := append([]int(nil), candidates...)
	sort.Ints(sorted)
	seq := t.SeparatingSequence(t.StateNode(sorted[0]).ID, t.StateNode(sorted[1]).ID)
	if len(seq) == 0 {
		return ErrNoSeparatingSequence
	}
	_, err := t.DriveSequenceFrom(ctx, tch, node, seq)
	return err
}

func domainSlice(d map[int]struct{}) []int {
	out := make([]int, 0, len(d))
	for s := range d {
		out = append(out, s)
	}
	return out
}
