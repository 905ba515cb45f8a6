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

// Package teacher defines the oracle interface the S-learner queries, and a
// reference in-memory implementation used by tests and by the slearn CLI,
// which wraps the YAML-described target machine in it.
package teacher

import (
	"context"

	"github.com/fsmlib-go/slearner/fsm"
)

// Teacher is the external oracle the learner queries. All methods may be
// called an arbitrary number of times in any order; the
// learner owns the obligation to reset before replaying an access sequence
// unless it is already positioned there.
type Teacher interface {
	// NumberOfInputs returns the current size of the input alphabet. It
	// may grow during learning.
	NumberOfInputs() int
	// NumberOfOutputs returns the current size of the output alphabet.
	// It may grow during learning.
	NumberOfOutputs() int
	// BlackBoxModelType returns the machine type the learner must
	// construct.
	BlackBoxModelType() fsm.Type
	// IsBlackBoxResettable reports whether ResetBlackBox is supported.
	// The learner aborts immediately if this is false.
	IsBlackBoxResettable() bool
	// IsProvidedOnlyMQ reports whether the teacher only supports plain
	// membership queries (forcing the learner to avoid the compound
	// [input, STOUT] query even for DFSM).
	IsProvidedOnlyMQ() bool

	// ResetBlackBox returns the black box to its initial state.
	ResetBlackBox(ctx context.Context) error
	// OutputQueryInput applies a single input from the current state and
	// returns the observed output.
	OutputQueryInput(ctx context.Context, input int) (int, error)
	// OutputQuerySequence applies a sequence of inputs from the current
	// state and returns the observed outputs, one per input.
	OutputQuerySequence(ctx context.Context, seq fsm.Sequence) ([]int, error)
	// ResetAndOutputQueryOnSuffix resets, replays prefix, then applies
	// suffix, returning only the outputs observed for suffix.
	ResetAndOutputQueryOnSuffix(ctx context.Context, prefix, suffix fsm.Sequence) ([]int, error)
	// OutputQueryCount returns the monotonically increasing count of
	// output queries issued so far, for logging/accounting.
	OutputQueryCount() int
	// EquivalenceQuery asks whether conjecture is equivalent to the
	// black box. It returns an empty sequence on success, or a
	// distinguishing input sequence (a counterexample) on failure.
	EquivalenceQuery(ctx context.Context, conjecture *fsm.Conjecture) (fsm.Sequence, error)
}
