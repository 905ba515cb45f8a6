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

// BuildConjecture projects the tree's reference nodes into a minimal
// fsm.Conjecture: one conjecture state per entry in t.RN, with transitions
// filled in wherever a reference CN's Next link already points at another
// reference CN. Transitions not yet resolved to a reference CN are left
// unset. The orchestrator builds such partial conjectures to guide state
// and transition identification; only the one built after every
// transition is confirmed is checked for minimality and verified.
func (t *Tree) BuildConjecture(typ fsm.Type) *fsm.Conjecture {
	n := len(t.RN)
	rootOutput := t.Node(t.Representative(t.RN[0]).ID).StateOutput
	c := fsm.NewConjecture(typ, t.NumInputs, t.NumOutputs, rootOutput)
	for s := 1; s < n; s++ {
		c.AddState(t.Representative(t.RN[s]).StateOutput)
	}
	for s := 0; s < n; s++ {
		cn := t.CN(t.RN[s])
		for i := 0; i < t.NumInputs; i++ {
			childCN := cn.Next[i]
			if childCN == NoCN || !t.CN(childCN).IsRN {
				continue
			}
			childState := t.CN(childCN).State
			var out int
			if typ.IsOutputTransition() {
				child := t.firstChild(cn, i)
				out = t.Node(child).IncomingOutput
			} else {
				// State-output-only machine types report the destination
				// state's output as the transition observation.
				out = c.StateOutput(childState)
			}
			c.SetTransition(s, i, childState, out)
		}
	}
	return c
}

// AlreadyQueried reports whether seq, applied from the root, is already
// fully present as a chain of queried edges in the tree -- used so the
// S-method never re-issues a membership query the tree already answers.
func (t *Tree) AlreadyQueried(seq fsm.Sequence) bool {
	cur := t.Root()
	for _, input := range seq {
		next := t.Node(cur).Next[input]
		if next == NoNode {
			return false
		}
		cur = next
	}
	return true
}
