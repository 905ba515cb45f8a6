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

package smethod

import "github.com/fsmlib-go/slearner/fsm"

// distinguishingTree is the default SplittingTree: for every pair of
// states it precomputes the shortest separating input sequence by a
// classic product-automaton BFS (the same idea Moore's table-filling
// algorithm uses), and exposes the first input of that sequence as the
// pair's splitting input. It is rebuilt from scratch each time the
// orchestrator builds a conjecture and asks the S-method for
// verification sequences.
type distinguishingTree struct {
	c         *fsm.Conjecture
	sepInput  map[[2]int]int
	sepSeqLen map[[2]int]int
	depth     int
}

// BuildSplittingTree constructs the default splitting tree for conjecture.
func BuildSplittingTree(c *fsm.Conjecture) SplittingTree {
	t := &distinguishingTree{
		c:         c,
		sepInput:  map[[2]int]int{},
		sepSeqLen: map[[2]int]int{},
	}
	n := c.NumStates()
	for a := 0; a < n; a++ {
		for b := a + 1; b < n; b++ {
			seq := separatingSequence(c, a, b)
			key := [2]int{a, b}
			if len(seq) == 0 {
				t.sepInput[key] = -1
				continue
			}
			t.sepInput[key] = seq[0]
			t.sepSeqLen[key] = len(seq)
			if len(seq) > t.depth {
				t.depth = len(seq)
			}
		}
	}
	return t
}

func (t *distinguishingTree) Depth() int { return t.depth }

func (t *distinguishingTree) SeparatingInput(a, b int) int {
	if a == b {
		return -1
	}
	if a > b {
		a, b = b, a
	}
	return t.sepInput[[2]int{a, b}]
}

// separatingSequence returns the shortest input sequence distinguishing
// states a and b of c, via BFS over the pair automaton.
func separatingSequence(c *fsm.Conjecture, a, b int) fsm.Sequence {
	type pair struct{ a, b int }
	type frame struct {
		p   pair
		seq fsm.Sequence
	}
	if c.Type.IsOutputState() && c.StateOutput(a) != c.StateOutput(b) {
		return fsm.Sequence{}
	}
	visited := map[pair]bool{{a, b}: true}
	queue := []frame{{pair{a, b}, nil}}
	for len(queue) > 0 {
		f := queue[0]
		queue = queue[1:]
		for i := 0; i < c.NumInputs(); i++ {
			if !c.HasTransition(f.p.a, i) || !c.HasTransition(f.p.b, i) {
				continue
			}
			na, nb := c.NextState(f.p.a, i), c.NextState(f.p.b, i)
			if c.Type.IsOutputTransition() && c.TransitionOutput(f.p.a, i) != c.TransitionOutput(f.p.b, i) {
				return f.seq.Append(i)
			}
			if c.Type.IsOutputState() && c.StateOutput(na) != c.StateOutput(nb) {
				return f.seq.Append(i)
			}
			np := pair{na, nb}
			if !visited[np] {
				visited[np] = true
				queue = append(queue, frame{np, f.seq.Append(i)})
			}
		}
	}
	return nil
}
