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

package slearner

import (
	"github.com/fsmlib-go/slearner/fsm"
	"github.com/fsmlib-go/slearner/smethod"
)

// Config holds the tunables a caller of Slearner can set. The zero value
// is usable: it runs with no extra-state verification budget, the default Wp-method, a logger that discards
// everything, and equivalence queries allowed.
type Config struct {
	// MaxExtraStates bounds how many extra states the verification loop
	// will probe for before an equivalence query is
	// asked. Zero or negative means the learner asks for an equivalence
	// query as soon as the S-method is satisfied at es=0, never
	// escalating the budget on its own.
	MaxExtraStates int

	// Method is the conformance-testing procedure consulted once per
	// round to generate verification sequences. Defaults to
	// smethod.WpMethod{}.
	Method smethod.Method

	// Logger receives round-by-round progress. Defaults to NoopLogger{}.
	Logger Logger

	// IsEQAllowed gates whether
	// Slearner may ask tch.EquivalenceQuery at all once the extra-state
	// budget is exhausted. nil (the Config{} zero value) defaults to
	// true, matching every example caller in this repo, which has a
	// teacher capable of answering equivalence queries. Set to a pointer
	// to false for a teacher that can only answer membership queries; the
	// run then ends, unverified, once the S-method is satisfied at the
	// last extra-state budget (MaxExtraStates, or 0 when that is not
	// positive).
	IsEQAllowed *bool

	// ProvideTentativeModel, if set, is consulted once per round with the
	// learner's current best conjecture. Returning
	// false ends the run immediately with that conjecture, even if it has
	// not yet been certified equivalent to the black box.
	ProvideTentativeModel func(*fsm.Conjecture) bool
}

func (c Config) withDefaults() Config {
	if c.Method == nil {
		c.Method = smethod.WpMethod{}
	}
	if c.Logger == nil {
		c.Logger = NoopLogger{}
	}
	if c.IsEQAllowed == nil {
		allowed := true
		c.IsEQAllowed = &allowed
	}
	return c
}

// LearningInfo reports bookkeeping about a completed or in-progress
// learning run: round, state, query, and equivalence-query counts.
type LearningInfo struct {
	Rounds          int
	States          int
	OutputQueries   int
	EquivalenceRuns int
	ExtraStates     int
}
