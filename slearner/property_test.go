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

package slearner_test

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fsmlib-go/slearner/fsm"
	"github.com/fsmlib-go/slearner/slearner"
	"github.com/fsmlib-go/slearner/teacher"
)

// randomMachine builds a random total machine of the given shape. For
// Moore/DFA the recorded transition output is the destination state's own
// output, matching how teacher.BlackBox reports observations for
// state-output-only machine types.
func randomMachine(rng *rand.Rand, typ fsm.Type, states, inputs, outputs int) *fsm.Conjecture {
	stateOutput := func() int {
		if typ.IsOutputState() {
			return rng.Intn(outputs)
		}
		return fsm.DefaultOutput
	}
	c := fsm.NewConjecture(typ, inputs, outputs, stateOutput())
	for s := 1; s < states; s++ {
		c.AddState(stateOutput())
	}
	for s := 0; s < states; s++ {
		for i := 0; i < inputs; i++ {
			next := rng.Intn(states)
			out := fsm.DefaultOutput
			switch {
			case typ.IsOutputTransition():
				out = rng.Intn(outputs)
			default:
				out = c.StateOutput(next)
			}
			c.SetTransition(s, i, next, out)
		}
	}
	return c
}

func reachableStates(c *fsm.Conjecture) int {
	visited := map[int]bool{0: true}
	queue := []int{0}
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		for i := 0; i < c.NumInputs(); i++ {
			next := c.NextState(s, i)
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}
	return len(visited)
}

// randomMinimalFSM keeps generating until it finds a machine where every
// state is reachable and no two states are equivalent -- the "random
// minimal FSM" harness the property tests below drive the learner against.
func randomMinimalFSM(t *testing.T, rng *rand.Rand, typ fsm.Type, states, inputs, outputs int) *fsm.Conjecture {
	t.Helper()
	for attempt := 0; attempt < 5000; attempt++ {
		c := randomMachine(rng, typ, states, inputs, outputs)
		if reachableStates(c) != states {
			continue
		}
		if _, mapping := c.Minimize(); len(mapping) == states && isIdentityMapping(mapping) {
			return c
		}
	}
	t.Fatalf("no minimal reachable %v machine with %d states found", typ, states)
	return nil
}

func isIdentityMapping(mapping []int) bool {
	for i, m := range mapping {
		if m != i {
			return false
		}
	}
	return true
}

// resetDisciplineTeacher wraps BlackBox and fails the test if the learner
// ever resets twice without an intervening output query -- each reset must
// correspond to one access-sequence replay.
type resetDisciplineTeacher struct {
	*teacher.BlackBox
	t          *testing.T
	resets     int
	lastWasRst bool
}

func (r *resetDisciplineTeacher) ResetBlackBox(ctx context.Context) error {
	if r.lastWasRst {
		r.t.Error("two consecutive resets without an intervening output query")
	}
	r.lastWasRst = true
	r.resets++
	return r.BlackBox.ResetBlackBox(ctx)
}

func (r *resetDisciplineTeacher) OutputQueryInput(ctx context.Context, input int) (int, error) {
	r.lastWasRst = false
	return r.BlackBox.OutputQueryInput(ctx, input)
}

func (r *resetDisciplineTeacher) OutputQuerySequence(ctx context.Context, seq fsm.Sequence) ([]int, error) {
	r.lastWasRst = false
	return r.BlackBox.OutputQuerySequence(ctx, seq)
}

func TestSlearnerRandomMachines(t *testing.T) {
	cases := []struct {
		typ     fsm.Type
		states  int
		inputs  int
		outputs int
		seed    int64
	}{
		{fsm.Mealy, 3, 2, 2, 1},
		{fsm.Mealy, 5, 2, 3, 2},
		{fsm.Mealy, 8, 3, 3, 3},
		{fsm.Moore, 4, 2, 3, 4},
		{fsm.Moore, 6, 3, 4, 5},
		{fsm.DFSM, 4, 2, 2, 6},
		{fsm.DFSM, 7, 3, 3, 7},
		{fsm.DFA, 5, 2, 2, 8},
		{fsm.DFA, 10, 3, 2, 9},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(fmt.Sprintf("%v_%dstates_seed%d", tc.typ, tc.states, tc.seed), func(t *testing.T) {
			ctx := context.Background()
			rng := rand.New(rand.NewSource(tc.seed))
			target := randomMinimalFSM(t, rng, tc.typ, tc.states, tc.inputs, tc.outputs)
			tch := &resetDisciplineTeacher{BlackBox: teacher.NewBlackBox(target, false), t: t}

			prevStates := 0
			result, info, err := slearner.Slearner(ctx, tch, slearner.Config{
				MaxExtraStates: 1,
				ProvideTentativeModel: func(c *fsm.Conjecture) bool {
					// Property 5: the reference-state count never shrinks
					// and never overshoots the hidden machine.
					require.GreaterOrEqual(t, c.NumStates(), prevStates, "state count must be monotone")
					require.LessOrEqual(t, c.NumStates(), tc.states, "state count must never exceed the hidden machine's")
					prevStates = c.NumStates()
					return true
				},
			})

			// Property 1: termination with an isomorphic conjecture.
			require.NoError(t, err)
			require.Equal(t, tc.states, result.NumStates())
			require.True(t, fsm.Isomorphic(target, result), "learned conjecture must be isomorphic to the hidden machine")
			require.GreaterOrEqual(t, info.EquivalenceRuns, 1)
			require.GreaterOrEqual(t, tch.resets, 1)

			// Property 6: every confirmed transition replays faithfully on
			// a fresh copy of the black box.
			requireConjectureSound(t, target, result)
		})
	}
}

// requireConjectureSound replays, for every learned (state, input)
// transition, the state's access sequence plus the input on a fresh black
// box and checks the observed outputs against what the conjecture stored.
func requireConjectureSound(t *testing.T, target, result *fsm.Conjecture) {
	t.Helper()
	ctx := context.Background()
	access := accessSequences(result)
	for s := 0; s < result.NumStates(); s++ {
		require.NotNil(t, access[s], "state %d must be reachable in the learned conjecture", s)
		for i := 0; i < result.NumInputs(); i++ {
			require.True(t, result.HasTransition(s, i), "a certified conjecture has every transition confirmed")
			probe := teacher.NewBlackBox(target, false)
			require.NoError(t, probe.ResetBlackBox(ctx))
			if len(access[s]) > 0 {
				_, err := probe.OutputQuerySequence(ctx, access[s])
				require.NoError(t, err)
			}
			out, err := probe.OutputQueryInput(ctx, i)
			require.NoError(t, err)
			if result.Type.IsOutputTransition() {
				require.Equal(t, result.TransitionOutput(s, i), out, "transition output of (%d,%d)", s, i)
			}
			if result.Type.IsOutputState() {
				so, err := probe.OutputQueryInput(ctx, fsm.Stout)
				require.NoError(t, err)
				require.Equal(t, result.StateOutput(result.NextState(s, i)), so, "state output after (%d,%d)", s, i)
			}
		}
	}
}

// accessSequences returns a shortest access sequence per state of c, nil
// where unreachable.
func accessSequences(c *fsm.Conjecture) []fsm.Sequence {
	access := make([]fsm.Sequence, c.NumStates())
	visited := make([]bool, c.NumStates())
	visited[0] = true
	access[0] = fsm.Sequence{}
	queue := []int{0}
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		for i := 0; i < c.NumInputs(); i++ {
			if !c.HasTransition(s, i) {
				continue
			}
			next := c.NextState(s, i)
			if !visited[next] {
				visited[next] = true
				access[next] = access[s].Append(i)
				queue = append(queue, next)
			}
		}
	}
	return access
}
