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

package teacher

import (
	"context"

	"github.com/fsmlib-go/slearner/fsm"
)

// BlackBox is a Teacher backed by an in-memory reference machine
// (represented, for convenience, as a fully-transitioned *fsm.Conjecture).
// It is the harness the property and end-to-end tests drive the learner
// against: wrap a reference machine, track current/reset state, count
// output queries.
type BlackBox struct {
	target     *fsm.Conjecture
	current    int
	onlyMQ     bool
	queryCount int
}

// NewBlackBox wraps target as the hidden machine the learner must
// discover. Every (state, input) transition of target must already be set.
func NewBlackBox(target *fsm.Conjecture, onlyMQ bool) *BlackBox {
	return &BlackBox{target: target, current: 0, onlyMQ: onlyMQ}
}

func (b *BlackBox) NumberOfInputs() int         { return b.target.NumInputs() }
func (b *BlackBox) NumberOfOutputs() int        { return b.target.NumOutputs() }
func (b *BlackBox) BlackBoxModelType() fsm.Type { return b.target.Type }
func (b *BlackBox) IsBlackBoxResettable() bool  { return true }
func (b *BlackBox) IsProvidedOnlyMQ() bool      { return b.onlyMQ }
func (b *BlackBox) OutputQueryCount() int       { return b.queryCount }

func (b *BlackBox) ResetBlackBox(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	b.current = 0
	return nil
}

func (b *BlackBox) OutputQueryInput(ctx context.Context, input int) (int, error) {
	if ctx.Err() != nil {
		return 0, ctx.Err()
	}
	b.queryCount++
	if input == fsm.Stout {
		return b.target.StateOutput(b.current), nil
	}
	out := b.target.TransitionOutput(b.current, input)
	b.current = b.target.NextState(b.current, input)
	return out, nil
}

func (b *BlackBox) OutputQuerySequence(ctx context.Context, seq fsm.Sequence) ([]int, error) {
	outs := make([]int, 0, len(seq))
	for _, in := range seq {
		out, err := b.OutputQueryInput(ctx, in)
		if err != nil {
			return nil, err
		}
		outs = append(outs, out)
	}
	return outs, nil
}

func (b *BlackBox) ResetAndOutputQueryOnSuffix(ctx context.Context, prefix, suffix fsm.Sequence) ([]int, error) {
	if err := b.ResetBlackBox(ctx); err != nil {
		return nil, err
	}
	for _, in := range prefix {
		if _, err := b.OutputQueryInput(ctx, in); err != nil {
			return nil, err
		}
	}
	return b.OutputQuerySequence(ctx, suffix)
}

// EquivalenceQuery performs a bounded product exploration of conjecture
// against the hidden target, starting from both initial states, and
// returns the shortest input sequence reaching a state pair whose outputs
// disagree, or an empty sequence if none is found within the product's
// reachable state space. Only inputs inside both machines' alphabets and
// transitions the conjecture has set are explored, so an empty answer is
// conclusive only for a conjecture that sets every transition over the
// target's full alphabet.
func (b *BlackBox) EquivalenceQuery(ctx context.Context, conjecture *fsm.Conjecture) (fsm.Sequence, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	type pair struct{ conv, targ int }
	type frame struct {
		p   pair
		seq fsm.Sequence
	}
	visited := map[pair]bool{{0, 0}: true}
	queue := []frame{{pair{0, 0}, nil}}
	for len(queue) > 0 {
		f := queue[0]
		queue = queue[1:]
		if conjecture.Type.IsOutputState() &&
			conjecture.StateOutput(f.p.conv) != b.target.StateOutput(f.p.targ) {
			return f.seq, nil
		}
		for i := 0; i < conjecture.NumInputs() && i < b.target.NumInputs(); i++ {
			if !conjecture.HasTransition(f.p.conv, i) {
				continue
			}
			if conjecture.Type.IsOutputTransition() &&
				conjecture.TransitionOutput(f.p.conv, i) != b.target.TransitionOutput(f.p.targ, i) {
				return f.seq.Append(i), nil
			}
			next := pair{conjecture.NextState(f.p.conv, i), b.target.NextState(f.p.targ, i)}
			if !visited[next] {
				visited[next] = true
				queue = append(queue, frame{next, f.seq.Append(i)})
			}
		}
	}
	return nil, nil
}
