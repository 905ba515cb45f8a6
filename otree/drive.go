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

// DriveSequence applies seq from the root through the Query primitive,
// which asks the teacher about every input the tree does not already have
// an edge for (and, under a positive extra-state budget, re-observes a
// known edge once), and returns the node reached at the end. Counterexample processing and verification-sequence
// replay both reduce to this primitive. Every newly-discovered node is
// queued onto t.Pending for later inspection.
func (t *Tree) DriveSequence(ctx context.Context, tch teacher.Teacher, seq fsm.Sequence) (NodeID, error) {
	return t.DriveSequenceFrom(ctx, tch, t.Root(), seq)
}

// DriveSequenceFrom is DriveSequence generalized to start at an arbitrary
// node rather than the root, used by the planner and the promotion
// procedure to replay a known separating suffix live against whatever
// node is currently under identification.
func (t *Tree) DriveSequenceFrom(ctx context.Context, tch teacher.Teacher, start NodeID, seq fsm.Sequence) (NodeID, error) {
	cur := start
	for _, input := range seq {
		leaf, _, err := t.Query(ctx, tch, cur, input)
		if err != nil {
			return NoNode, err
		}
		cur = leaf
	}
	return cur, nil
}
