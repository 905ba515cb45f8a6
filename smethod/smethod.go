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

// Package smethod defines the two external collaborators the learner
// consumes from a conformance-testing procedure: a splitting-tree builder
// and the S-method itself, which emits verification sequences sufficient to
// certify a conjecture up to a given extra-state budget.
package smethod

import "github.com/fsmlib-go/slearner/fsm"

// SplittingTree is an opaque input to Method, built from the conjecture
// each time the orchestrator asks the S-method for verification
// sequences. Its leaves are conjecture states and its internal nodes are
// inputs separating them.
type SplittingTree interface {
	// Depth returns the tree's depth. WpMethod does not consult it; its
	// traversal component is sized by the extra-state budget alone.
	Depth() int
	// SeparatingInput returns the input that separates the two given
	// states at the splitting tree's current refinement, or -1 if they
	// are not (yet) split or their own state outputs already tell them
	// apart with no input.
	SeparatingInput(stateA, stateB int) int
}

// Method is the S-method: given a conjecture, the observations already
// made (passed as alreadyQueried, so the method can omit sequences it
// knows are redundant), and a splitting tree, it returns
// verification sequences sufficient to certify every transition up to
// extraStates extra states.
type Method interface {
	Verify(
		conjecture *fsm.Conjecture,
		extraStates int,
		tree SplittingTree,
		alreadyQueried func(seq fsm.Sequence) bool,
	) []fsm.Sequence
}
