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

import "errors"

// ErrNotResettable is returned by a learner-side caller that attempts to
// reposition a black box whose teacher reports IsBlackBoxResettable() ==
// false. The learner surfaces this unwrapped as a fatal precondition
// failure: an unresettable teacher cannot be learned.
var ErrNotResettable = errors.New("otree: black box is not resettable")
