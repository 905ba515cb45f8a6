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
	"errors"
	"fmt"

	"github.com/fsmlib-go/slearner/fsm"
)

// ErrNoSeparatingSequence marks a broken guarantee: every two nodes the
// learner treats as distinguished must already be provably so by some
// queried suffix. A caller asking for that witness and getting none back
// is a bug in the consistency engine, not a condition a teacher or a
// particular run of data can trigger.
var ErrNoSeparatingSequence = errors.New("otree: expected a queried separating sequence but found none")

// MergeInconsistency reports that folding a node into a convergent-node
// class would conflate two states, or two classes, already proven apart
// by a queried suffix. Seq is that witness when it could be recovered
// from the two sides' own queried history; it is empty when the witness
// instead lives in some other node's subtree -- even then, the merge is
// refused.
type MergeInconsistency struct {
	Seq fsm.Sequence
}

func (e *MergeInconsistency) Error() string {
	if len(e.Seq) == 0 {
		return "otree: merge would conflate two already-distinguished convergent classes"
	}
	return fmt.Sprintf("otree: merge would conflate two already-distinguished convergent classes (witnessed by %v)", e.Seq)
}
