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

// Package slearner implements the S-learner: an active-learning algorithm
// that infers a minimal deterministic finite-state machine of an unknown
// black box purely through membership and equivalence queries issued
// against a teacher.Teacher oracle.
package slearner

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/multierr"

	"github.com/fsmlib-go/slearner/fsm"
	"github.com/fsmlib-go/slearner/otree"
	"github.com/fsmlib-go/slearner/smethod"
	"github.com/fsmlib-go/slearner/teacher"
)

// Slearner runs the S-learner algorithm to completion against tch and
// returns the minimal conjecture it certifies equivalent, along with
// bookkeeping about the run.
//
// Each iteration follows a strict priority order: (1) if inconsistent nodes are pending, resolve one -- an
// unresolved inconsistency can invalidate later identification
// decisions, so the queue always drains first; (2) else if some
// (state, input) transition is not yet confirmed by a
// reference-to-reference class link, drive identification toward it;
// (3) else build the conjecture, check it minimal, offer it to
// cfg.ProvideTentativeModel, and drive whatever verification sequences
// the S-method still wants at the current extra-state budget; (4) once
// the S-method is satisfied, raise the budget and ask again, up to
// cfg.MaxExtraStates; (5) with the budget exhausted, ask the teacher an
// equivalence query (if cfg.IsEQAllowed) -- a counterexample is driven
// through the tree with the budget reset to 0, an empty answer (or a
// disallowed equivalence query) ends the run.
func Slearner(ctx context.Context, tch teacher.Teacher, cfg Config) (conjecture *fsm.Conjecture, info *LearningInfo, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = newInvariantError("panic during learning", fmt.Sprint(r))
		}
	}()

	if !tch.IsBlackBoxResettable() {
		return nil, nil, ErrTeacherNotResettable
	}

	cfg = cfg.withDefaults()
	typ := tch.BlackBoxModelType()

	if err := tch.ResetBlackBox(ctx); err != nil {
		return nil, nil, err
	}
	// Moore/DFA ordinarily borrow a node's state output from the
	// transition output that reached it (query.go's per-edge trick), but
	// the root is reached by no transition at all, so it gets a direct
	// STOUT probe when the type carries a state output: always for
	// Moore/DFA, and for DFSM only when the teacher accepts more than
	// plain MQs. A DFSM root under a plain-MQ-only teacher keeps
	// DefaultOutput.
	rootOutput := fsm.DefaultOutput
	if typ.IsOutputState() && (!typ.IsOutputTransition() || !tch.IsProvidedOnlyMQ()) {
		rootOutput, err = tch.OutputQueryInput(ctx, fsm.Stout)
		if err != nil {
			return nil, nil, err
		}
	}
	tree := otree.New(tch.NumberOfInputs(), tch.NumberOfOutputs(), rootOutput)

	info = &LearningInfo{States: 1}
	log := cfg.Logger

	for {
		info.Rounds++
		info.OutputQueries = tch.OutputQueryCount()
		select {
		case <-ctx.Done():
			return nil, info, ctx.Err()
		default:
		}

		if node, ok := tree.NextInconsistent(); ok {
			if _, err := tree.IdentifyNextState(ctx, tch, tree.BuildConjecture(typ), node); err != nil {
				return nil, info, wrapInvariant(err)
			}
			if n := tree.Node(node); n.State == fsm.WrongState ||
				(len(n.Domain) == 0 && n.AssumedState != otree.QueriedRN) {
				return nil, info, newInvariantError("inconsistency not resolved",
					fmt.Sprintf("node %d remained inconsistent after processing", node))
			}
			info.States = len(tree.RN)
			continue
		}

		if state, input, ok := tree.UnconfirmedTransition(); ok {
			if err := tree.IdentifyTransition(ctx, tch, tree.BuildConjecture(typ), state, input); err != nil {
				return nil, info, wrapInvariant(err)
			}
			info.States = len(tree.RN)
			continue
		}

		conjecture = tree.BuildConjecture(typ)
		log.Verbosef("built conjecture with %d states", conjecture.NumStates())

		if _, mapping := conjecture.Minimize(); !isIdentity(mapping) {
			return nil, info, newInvariantError("conjecture not minimal",
				fmt.Sprintf("minimize produced a non-identity mapping %v over %d states", mapping, conjecture.NumStates()))
		}

		if cfg.ProvideTentativeModel != nil && !cfg.ProvideTentativeModel(conjecture) {
			log.Infof("tentative model rejected after %d rounds, %d states", info.Rounds, conjecture.NumStates())
			return conjecture, info, nil
		}

		splitTree := smethod.BuildSplittingTree(conjecture)
		verifySeqs := cfg.Method.Verify(conjecture, tree.ES, splitTree, tree.AlreadyQueried)
		if len(verifySeqs) > 0 {
			var driveErr error
			for _, seq := range verifySeqs {
				if _, err := tree.DriveSequence(ctx, tch, seq); err != nil {
					driveErr = multierr.Append(driveErr, err)
					if ctx.Err() != nil {
						break
					}
				}
			}
			if driveErr != nil {
				return nil, info, driveErr
			}
			continue
		}

		// The S-method is satisfied at the current extra-state budget.
		// Raise the budget and ask it again
		// rather than reaching for an equivalence query early, unless
		// doing so would exceed cfg.MaxExtraStates.
		if cfg.MaxExtraStates > 0 && tree.ES < cfg.MaxExtraStates {
			tree.ES++
			info.ExtraStates = tree.ES
			continue
		}

		if !*cfg.IsEQAllowed {
			log.Infof("equivalence queries disallowed, stopping after %d rounds, %d states", info.Rounds, conjecture.NumStates())
			return conjecture, info, nil
		}

		info.EquivalenceRuns++
		counterexample, err := tch.EquivalenceQuery(ctx, conjecture)
		if err != nil {
			return nil, info, err
		}

		if len(counterexample) == 0 {
			log.Infof("equivalence confirmed after %d rounds, %d states", info.Rounds, conjecture.NumStates())
			return conjecture, info, nil
		}

		log.Infof("counterexample of length %d, resetting extra-state budget", len(counterexample))
		tree.ES = 0
		info.ExtraStates = tree.ES
		nodesBefore := tree.NumNodes()
		if _, err := tree.DriveSequence(ctx, tch, counterexample); err != nil {
			return nil, info, err
		}
		if tree.NumNodes() == nodesBefore {
			if node, ok := tree.NextInconsistent(); ok {
				tree.Inconsistent = append(tree.Inconsistent, node)
				continue
			}
			// An already-queried counterexample that raises no
			// inconsistency means the conjecture disagrees with the
			// teacher on a path the tree considers fully consistent.
			return nil, info, newInvariantError("counterexample taught nothing",
				fmt.Sprintf("a counterexample of length %d was already queried yet raised no inconsistency", len(counterexample)))
		}
	}
}

// wrapInvariant promotes the otree package's internal consistency errors
// to the named InvariantError kind: both signal a
// bug in the learner's own reasoning (a merge that would conflate two
// already-distinguished states, or a promised-but-missing separating
// sequence), never a condition a teacher's answers alone can cause.
func wrapInvariant(err error) error {
	var mi *otree.MergeInconsistency
	if errors.As(err, &mi) {
		return newInvariantError("merge would conflate distinguished states", mi.Error())
	}
	if errors.Is(err, otree.ErrNoSeparatingSequence) {
		return newInvariantError("no separating sequence found", err.Error())
	}
	return err
}

// isIdentity reports whether mapping is the identity permutation, i.e.
// Minimize found every conjecture state already pairwise distinguished.
func isIdentity(mapping []int) bool {
	for i, m := range mapping {
		if m != i {
			return false
		}
	}
	return true
}
