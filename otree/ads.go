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

// ADSKey is the observation that selects an ADS branch: the output of the
// applied transition and, for machine types carrying one, the destination
// state's output. Fields the machine type does not produce hold
// fsm.DefaultOutput, matching how the observation tree records them.
type ADSKey struct {
	Output      int
	StateOutput int
}

// adsPair tracks one surviving hypothesis through an adaptive
// distinguishing sequence: origin is the candidate state the walk started
// from, current is where that candidate would be after the inputs applied
// so far.
type adsPair struct {
	origin  int
	current int
}

// ADS is one node of an adaptive distinguishing sequence tree: apply
// Input, observe, branch. Candidates lists the origin states still
// possible at this node; at a resolved leaf it has one element and
// Input is -1.
type ADS struct {
	Candidates []int
	Input      int
	Branch     map[ADSKey]*ADS

	pairs []adsPair
}

// ChooseADS builds an adaptive distinguishing sequence over candidates:
// at each step it greedily picks the input whose predicted observations
// best split the hypotheses still alive (smallest largest group), and
// recurses per observed branch until every branch pins a single origin
// candidate or no input can split a tied group further. Unsplittable
// groups are reported, unresolved, as the leaf's Candidates; the planner
// then falls back to replaying a queried separating suffix instead of
// guessing.
func ChooseADS(c *fsm.Conjecture, candidates []int) *ADS {
	pairs := make([]adsPair, 0, len(candidates))
	for _, s := range candidates {
		pairs = append(pairs, adsPair{origin: s, current: s})
	}
	limit := c.NumStates()*c.NumStates() + 1
	return chooseADS(c, pairs, limit)
}

func chooseADS(c *fsm.Conjecture, pairs []adsPair, depthBudget int) *ADS {
	leaf := &ADS{Candidates: origins(pairs), Input: -1, pairs: pairs}
	if len(pairs) <= 1 || depthBudget <= 0 {
		return leaf
	}
	// Two hypotheses sharing the same current state can never be told
	// apart by any further input.
	seen := map[int]bool{}
	for _, p := range pairs {
		if seen[p.current] {
			return leaf
		}
		seen[p.current] = true
	}

	bestInput := -1
	var bestPartition map[ADSKey][]adsPair
	bestScore := len(pairs) + 1
	for i := 0; i < c.NumInputs(); i++ {
		partition, ok := partitionByObservation(c, pairs, i)
		if !ok || len(partition) <= 1 {
			continue
		}
		if score := maxBucket(partition); score < bestScore {
			bestScore = score
			bestInput = i
			bestPartition = partition
		}
	}
	if bestInput == -1 {
		return leaf
	}
	node := &ADS{Candidates: origins(pairs), Input: bestInput, Branch: map[ADSKey]*ADS{}, pairs: pairs}
	for key, group := range bestPartition {
		next := make([]adsPair, len(group))
		for i, p := range group {
			next[i] = adsPair{origin: p.origin, current: c.NextState(p.current, bestInput)}
		}
		node.Branch[key] = chooseADS(c, next, depthBudget-1)
	}
	return node
}

// partitionByObservation groups the hypotheses by what applying input
// would be observed to produce. The input is usable only if every
// hypothesis's current state has the transition confirmed; a partial
// partition would silently drop live candidates.
func partitionByObservation(c *fsm.Conjecture, pairs []adsPair, input int) (map[ADSKey][]adsPair, bool) {
	out := map[ADSKey][]adsPair{}
	for _, p := range pairs {
		if !c.HasTransition(p.current, input) {
			return nil, false
		}
		out[predictedKey(c, p.current, input)] = append(out[predictedKey(c, p.current, input)], p)
	}
	return out, true
}

// predictedKey is the observation the conjecture expects when input is
// applied at state, in the same encoding the observation tree records:
// the transition output (or, for Moore/DFA, the destination state's
// output) plus the destination state output where the type carries one.
func predictedKey(c *fsm.Conjecture, state, input int) ADSKey {
	next := c.NextState(state, input)
	key := ADSKey{Output: fsm.DefaultOutput, StateOutput: fsm.DefaultOutput}
	if c.Type.IsOutputTransition() {
		key.Output = c.TransitionOutput(state, input)
	} else {
		key.Output = c.StateOutput(next)
	}
	if c.Type.IsOutputState() {
		key.StateOutput = c.StateOutput(next)
	}
	return key
}

func origins(pairs []adsPair) []int {
	out := make([]int, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, p.origin)
	}
	sort.Ints(out)
	return out
}

func maxBucket(partition map[ADSKey][]adsPair) int {
	max := 0
	for _, v := range partition {
		if len(v) > max {
			max = len(v)
		}
	}
	return max
}

// IdentifyByADS drives ads against the live black box starting from node,
// issuing real queries via the Tree's Query primitive, and returns the
// single origin candidate the observed outputs singled out. It returns -1
// if the walk ended at an unresolved leaf or produced an observation no
// branch predicted (the caller then narrows the domain from the fresh
// evidence instead).
func (t *Tree) IdentifyByADS(ctx context.Context, tch teacher.Teacher, node NodeID, ads *ADS) (NodeID, int, error) {
	cur := node
	for ads.Input != -1 {
		leaf, _, err := t.Query(ctx, tch, cur, ads.Input)
		if err != nil {
			return cur, -1, err
		}
		key := ADSKey{Output: t.Node(leaf).IncomingOutput, StateOutput: t.Node(leaf).StateOutput}
		next, ok := ads.Branch[key]
		if !ok {
			return leaf, -1, nil
		}
		cur = leaf
		ads = next
	}
	if len(ads.Candidates) == 1 {
		return cur, ads.Candidates[0], nil
	}
	return cur, -1, nil
}
