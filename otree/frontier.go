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

// NextInconsistent pops the most recently queued inconsistent node
// (LIFO). Entries whose inconsistency was already resolved by a later
// merge or promotion are skipped.
func (t *Tree) NextInconsistent() (NodeID, bool) {
	for len(t.Inconsistent) > 0 {
		id := t.Inconsistent[len(t.Inconsistent)-1]
		t.Inconsistent = t.Inconsistent[:len(t.Inconsistent)-1]
		n := t.Node(id)
		if n.AssumedState == QueriedRN {
			continue
		}
		if n.State == fsm.WrongState || len(n.Domain) == 0 {
			return id, true
		}
	}
	return NoNode, false
}

// UnconfirmedTransition returns the first (state, input) pair whose
// transition is not yet confirmed by a reference-to-reference class
// link. States are scanned in promotion order, which is
// also shortest-access-sequence-first among reference nodes.
func (t *Tree) UnconfirmedTransition() (int, int, bool) {
	for s := 0; s < len(t.RN); s++ {
		c := t.CN(t.RN[s])
		for i := 0; i < t.NumInputs; i++ {
			next := c.Next[i]
			if next == NoCN || !t.CN(next).IsRN {
				return s, i, true
			}
		}
	}
	return -1, -1, false
}
