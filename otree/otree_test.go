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

package otree_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fsmlib-go/slearner/fsm"
	"github.com/fsmlib-go/slearner/otree"
	"github.com/fsmlib-go/slearner/teacher"
)

func mealyToggle() *fsm.Conjecture {
	c := fsm.NewConjecture(fsm.Mealy, 2, 2, fsm.DefaultOutput)
	c.AddState(fsm.DefaultOutput)
	c.SetTransition(0, 0, 1, 1)
	c.SetTransition(0, 1, 0, 0)
	c.SetTransition(1, 0, 0, 2)
	c.SetTransition(1, 1, 1, 0)
	return c
}

func TestNewTreeHasSingleRootReferenceState(t *testing.T) {
	tree := otree.New(2, 2, fsm.DefaultOutput)
	require.Len(t, tree.RN, 1)
	root := tree.Node(tree.Root())
	require.Equal(t, otree.QueriedRN, root.AssumedState)
	require.Equal(t, 0, root.State)
}

func TestQueryCreatesChildAndSeedsDomain(t *testing.T) {
	ctx := context.Background()
	target := mealyToggle()
	tch := teacher.NewBlackBox(target, false)
	tree := otree.New(2, 2, fsm.DefaultOutput)

	leaf, agree, err := tree.Query(ctx, tch, tree.Root(), 0)
	require.NoError(t, err)
	require.True(t, agree, "a first-time query can never disagree with itself")

	n := tree.Node(leaf)
	require.Equal(t, 1, n.IncomingOutput)
	require.Equal(t, fsm.Sequence{0}, n.AccessSequence)
	require.Equal(t, map[int]struct{}{0: {}}, n.Domain,
		"the only reference state has no queried suffix that separates it from the fresh leaf")
	require.Len(t, tree.Pending, 1)
}

func TestQueryReusesExistingEdgeWithoutNewNode(t *testing.T) {
	ctx := context.Background()
	target := mealyToggle()
	tch := teacher.NewBlackBox(target, false)
	tree := otree.New(2, 2, fsm.DefaultOutput)

	leaf1, _, err := tree.Query(ctx, tch, tree.Root(), 0)
	require.NoError(t, err)
	leaf2, agree, err := tree.Query(ctx, tch, tree.Root(), 0)
	require.NoError(t, err)
	require.True(t, agree)
	require.Equal(t, leaf1, leaf2, "re-querying the same (node, input) must not create a second child")
}

func TestDifferentDetectsDistinguishedNodes(t *testing.T) {
	ctx := context.Background()
	target := mealyToggle()
	tch := teacher.NewBlackBox(target, false)
	tree := otree.New(2, 2, fsm.DefaultOutput)

	// Reach A (root) and B (via input 0) and query input 0 from both, so
	// their subtrees disagree (A->B outputs 1, B->A outputs 2).
	root := tree.Root()
	b, _, err := tree.Query(ctx, tch, root, 0)
	require.NoError(t, err)

	_, _, err = tree.Query(ctx, tch, root, 0)
	require.NoError(t, err)
	_, _, err = tree.Query(ctx, tch, b, 0)
	require.NoError(t, err)

	require.True(t, tree.Different(root, b))
}

func TestDriveSequenceReachesExpectedNode(t *testing.T) {
	ctx := context.Background()
	target := mealyToggle()
	tch := teacher.NewBlackBox(target, false)
	tree := otree.New(2, 2, fsm.DefaultOutput)

	leaf, err := tree.DriveSequence(ctx, tch, fsm.Sequence{0, 1})
	require.NoError(t, err)
	require.Equal(t, fsm.Sequence{0, 1}, tree.Node(leaf).AccessSequence)
}

func TestAlreadyQueriedReflectsDrivenPrefixes(t *testing.T) {
	ctx := context.Background()
	target := mealyToggle()
	tch := teacher.NewBlackBox(target, false)
	tree := otree.New(2, 2, fsm.DefaultOutput)

	_, err := tree.DriveSequence(ctx, tch, fsm.Sequence{0, 1})
	require.NoError(t, err)

	require.True(t, tree.AlreadyQueried(fsm.Sequence{0}))
	require.True(t, tree.AlreadyQueried(fsm.Sequence{0, 1}))
	require.False(t, tree.AlreadyQueried(fsm.Sequence{1, 1}))
}

func TestGrowAlphabetWidensExistingNodes(t *testing.T) {
	tree := otree.New(2, 2, fsm.DefaultOutput)
	tree.GrowAlphabet(4)
	require.Equal(t, 4, tree.NumInputs)
	root := tree.Node(tree.Root())
	require.Len(t, root.Next, 4)
}

func TestChooseADSSeparatesTwoCandidates(t *testing.T) {
	c := mealyToggle()
	ads := otree.ChooseADS(c, []int{0, 1})
	require.Equal(t, 0, ads.Input, "input 0 alone separates state 0 (outputs 1) from state 1 (outputs 2)")
	require.Len(t, ads.Branch, 2)
}

func TestChooseADSSingleCandidateNeedsNoQuery(t *testing.T) {
	ads := otree.ChooseADS(mealyToggle(), []int{0})
	require.Equal(t, -1, ads.Input)
	require.Equal(t, []int{0}, ads.Candidates)
}

func TestQueryAnswersKnownEdgeFromTheTree(t *testing.T) {
	ctx := context.Background()
	target := mealyToggle()
	tch := teacher.NewBlackBox(target, false)
	tree := otree.New(2, 2, fsm.DefaultOutput)

	_, _, err := tree.Query(ctx, tch, tree.Root(), 0)
	require.NoError(t, err)
	before := tch.OutputQueryCount()

	_, agree, err := tree.Query(ctx, tch, tree.Root(), 0)
	require.NoError(t, err)
	require.True(t, agree)
	require.Equal(t, before, tch.OutputQueryCount(),
		"at a zero extra-state budget a known edge must be answered without consulting the teacher")
}

func TestQueryReobservesKnownEdgeOnceUnderExtraStates(t *testing.T) {
	ctx := context.Background()
	target := mealyToggle()
	tch := teacher.NewBlackBox(target, false)
	tree := otree.New(2, 2, fsm.DefaultOutput)

	_, _, err := tree.Query(ctx, tch, tree.Root(), 0)
	require.NoError(t, err)

	tree.ES = 1
	before := tch.OutputQueryCount()
	_, agree, err := tree.Query(ctx, tch, tree.Root(), 0)
	require.NoError(t, err)
	require.True(t, agree, "a deterministic black box re-observes the same output")
	require.Greater(t, tch.OutputQueryCount(), before, "the first re-observation is a real query")

	before = tch.OutputQueryCount()
	_, _, err = tree.Query(ctx, tch, tree.Root(), 0)
	require.NoError(t, err)
	require.Equal(t, before, tch.OutputQueryCount(),
		"an edge is never asked about a third time, even while verifying")
}

func TestTryExtendQueriedPathConsumesKnownPrefix(t *testing.T) {
	ctx := context.Background()
	target := mealyToggle()
	tch := teacher.NewBlackBox(target, false)
	tree := otree.New(2, 2, fsm.DefaultOutput)

	_, err := tree.DriveSequence(ctx, tch, fsm.Sequence{0, 1})
	require.NoError(t, err)

	node, consumed := tree.TryExtendQueriedPath(tree.Root(), fsm.Sequence{0, 1, 0})
	require.Equal(t, 2, consumed)
	require.Equal(t, fsm.Sequence{0, 1}, tree.Node(node).AccessSequence)
}

func TestDifferentUnderFollowsFreshSuffix(t *testing.T) {
	ctx := context.Background()
	target := mealyToggle()
	tch := teacher.NewBlackBox(target, false)
	tree := otree.New(2, 2, fsm.DefaultOutput)

	b, _, err := tree.Query(ctx, tch, tree.Root(), 0)
	require.NoError(t, err)
	_, _, err = tree.Query(ctx, tch, tree.Root(), 0)
	require.NoError(t, err)
	// Extend b by input 0: outputs 2 from B vs 1 from A along the same
	// fresh suffix.
	_, _, err = tree.Query(ctx, tch, b, 0)
	require.NoError(t, err)

	require.True(t, tree.DifferentUnder(b, tree.Root(), 1))
}
