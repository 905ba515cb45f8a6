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

import "errors"

// ErrTeacherNotResettable is returned immediately by Slearner when the
// supplied teacher reports it cannot reset the black box: the
// algorithm has no way to replay an access sequence without one, so
// learning cannot even begin.
var ErrTeacherNotResettable = errors.New("slearner: teacher's black box is not resettable")

// InvariantError marks a violation of one of the observation-tree
// invariants that hold at every stable point of the algorithm. Its
// presence always indicates a bug in the learner itself, never bad teacher
// behavior, so callers should treat it as fatal rather than retry.
type InvariantError struct {
	Invariant string
	Detail    string
}

func (e *InvariantError) Error() string {
	if e.Detail == "" {
		return "slearner: invariant violated: " + e.Invariant
	}
	return "slearner: invariant violated: " + e.Invariant + ": " + e.Detail
}

func newInvariantError(invariant, detail string) error {
	return &InvariantError{Invariant: invariant, Detail: detail}
}
