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

// Query implements the query(node, input) primitive: it creates a child
// node node.next[input] by issuing a membership query
// against tch, positioning the black box at node first when the tree's
// cached position (t.BBNode) has drifted.
//
// An edge the tree already holds is answered from the tree: at a zero
// extra-state budget the teacher is not consulted at all, and under a
// positive budget the edge is re-observed exactly once, so the teacher is
// asked about any single (node, input) pair at most twice over a whole
// run. It returns true when any pre-existing edge agreed with the fresh
// observation, and false on a discrepancy -- the child is then marked
// WrongState and queued as an inconsistency seed. Growing the teacher's
// alphabet or output range is reflected back onto the tree immediately.
func (t *Tree) Query(ctx context.Context, tch teacher.Teacher, node NodeID, input int) (NodeID, bool, error) {
	n := t.Node(node)
	if existing := n.Next[input]; existing != NoNode {
		leaf := t.Node(existing)
		if t.ES == 0 || leaf.Requeried {
			return existing, true, nil
		}
		if err := t.seekTo(ctx, tch, node); err != nil {
			return NoNode, false, err
		}
		output, err := tch.OutputQueryInput(ctx, input)
		if err != nil {
			return NoNode, false, err
		}
		t.syncAlphabet(tch)
		leaf.Requeried = true
		t.BBNode = existing
		if leaf.IncomingOutput != output {
			leaf.State = fsm.WrongState
			t.Inconsistent = append(t.Inconsistent, existing)
			return existing, false, nil
		}
		return existing, true, nil
	}

	if err := t.seekTo(ctx, tch, node); err != nil {
		return NoNode, false, err
	}
	output, err := tch.OutputQueryInput(ctx, input)
	if err != nil {
		return NoNode, false, err
	}
	t.syncAlphabet(tch)

	stateOutput := fsm.DefaultOutput
	typ := tch.BlackBoxModelType()
	switch {
	case typ.IsOutputState() && !typ.IsOutputTransition():
		// Moore/DFA: the plain query's output already IS the
		// destination state's output, since there is no separate
		// transition output to conflict with it.
		stateOutput = output
	case typ.IsOutputState() && !tch.IsProvidedOnlyMQ():
		// DFSM: output above was the transition output, so the state
		// output needs its own probe via the reserved STOUT
		// pseudo-input, which samples the current state without
		// transitioning.
		stateOutput, err = tch.OutputQueryInput(ctx, fsm.Stout)
		if err != nil {
			return NoNode, false, err
		}
	case typ.IsOutputState():
		// DFSM with a plain-MQ-only teacher: the compound query is
		// unavailable, so the state output is left unresolved here.
		// The learner degrades to treating it as unknown until a
		// later suffix happens to reveal it through StateOutput
		// comparisons on the transition output alone.
		stateOutput = fsm.DefaultOutput
	}
	leaf := t.newNode(node, input, output, stateOutput)
	n.Next[input] = leaf.ID
	t.ReduceDomainStateNode(leaf.ID)
	if len(leaf.Domain) == 0 {
		// No existing state explains this observation: a new-state
		// witness, even when found incidentally by a verification
		// drive rather than by identification.
		t.Inconsistent = append(t.Inconsistent, leaf.ID)
	}
	t.Pending = append(t.Pending, leaf.ID)
	t.BBNode = leaf.ID
	t.recordSuffix(leaf.ID)
	t.CheckPrevious(leaf.ID)
	return leaf.ID, true, nil
}

// recordSuffix updates the incremental-check bookkeeping along the freshly
// extended path: each ancestor's lastQueriedInput points one edge toward
// leaf, and maxSuffixLen tracks the longest queried suffix below it.
func (t *Tree) recordSuffix(leaf NodeID) {
	depth := len(t.Node(leaf).AccessSequence)
	for child := t.Node(leaf); child.Parent != NoNode; {
		p := t.Node(child.Parent)
		p.LastQueriedInput = child.IncomingInput
		if d := depth - len(p.AccessSequence); d > p.MaxSuffixLen {
			p.MaxSuffixLen = d
		}
		child = p
	}
}

// seekTo repositions the black box so the next membership query is applied
// from node's access sequence, resetting only when necessary.
func (t *Tree) seekTo(ctx context.Context, tch teacher.Teacher, node NodeID) error {
	if t.BBNode == node {
		return nil
	}
	if !tch.IsBlackBoxResettable() {
		return teacher.ErrNotResettable
	}
	if err := tch.ResetBlackBox(ctx); err != nil {
		return err
	}
	seq := t.Node(node).AccessSequence
	if len(seq) > 0 {
		if _, err := tch.OutputQuerySequence(ctx, seq); err != nil {
			return err
		}
	}
	t.BBNode = node
	return nil
}

// syncAlphabet grows the tree to match any alphabet/output expansion the
// teacher has revealed.
func (t *Tree) syncAlphabet(tch teacher.Teacher) {
	if n := tch.NumberOfInputs(); n > t.NumInputs {
		t.GrowAlphabet(n)
	}
	if n := tch.NumberOfOutputs(); n > t.NumOutputs {
		t.GrowOutputs(n)
	}
}
