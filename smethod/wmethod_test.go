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

package smethod_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fsmlib-go/slearner/fsm"
	"github.com/fsmlib-go/slearner/smethod"
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

func TestBuildSplittingTreeSeparatesDistinctStates(t *testing.T) {
	c := mealyToggle()
	tree := smethod.BuildSplittingTree(c)
	require.GreaterOrEqual(t, tree.Depth(), 1)
	in := tree.SeparatingInput(0, 1)
	require.GreaterOrEqual(t, in, 0, "states 0 and 1 are distinguished by input 0 alone")
	require.Equal(t, -1, tree.SeparatingInput(0, 0))
}

func TestWpMethodVerifyCoversEveryState(t *testing.T) {
	c := mealyToggle()
	tree := smethod.BuildSplittingTree(c)
	seqs := smethod.WpMethod{}.Verify(c, 0, tree, nil)
	require.NotEmpty(t, seqs)

	// Every emitted sequence must be applicable from the root: every
	// prefix of a confirmed transition.
	reached := map[int]bool{0: true}
	for _, seq := range seqs {
		state := 0
		for _, in := range seq {
			require.True(t, c.HasTransition(state, in), "sequence %v must only walk confirmed transitions", seq)
			state = c.NextState(state, in)
			reached[state] = true
		}
	}
	require.Len(t, reached, c.NumStates(), "every conjecture state is visited by some emitted sequence")
}

func TestWpMethodVerifySkipsAlreadyQueried(t *testing.T) {
	c := mealyToggle()
	tree := smethod.BuildSplittingTree(c)
	alreadyQueried := func(seq fsm.Sequence) bool { return true }
	seqs := smethod.WpMethod{}.Verify(c, 1, tree, alreadyQueried)
	require.Empty(t, seqs, "a teacher that reports everything already queried should get nothing new to verify")
}

func TestWpMethodNegativeExtraStatesYieldsNothing(t *testing.T) {
	c := mealyToggle()
	tree := smethod.BuildSplittingTree(c)
	require.Empty(t, smethod.WpMethod{}.Verify(c, -1, tree, nil))
}
