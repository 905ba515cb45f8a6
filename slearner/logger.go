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

import "github.com/golang/glog"

// Logger is the narrow logging seam Slearner accepts through its Config
// rather than reaching for process-global state, following the same
// "pass a handler via constructor" discipline the teacher's analyzers use
// for their diagnostic sinks. Slearner sends Verbosef one message per
// built conjecture and Infof its run-level milestones (counterexample,
// equivalence confirmed, early stop); it does not log individual queries.
type Logger interface {
	Infof(format string, args ...interface{})
	Verbosef(format string, args ...interface{})
}

// GlogLogger adapts github.com/golang/glog to Logger. Verbosef logs at
// V(2), so its messages are hidden in default -v=0 runs.
type GlogLogger struct{}

func (GlogLogger) Infof(format string, args ...interface{}) {
	glog.Infof(format, args...)
}

func (GlogLogger) Verbosef(format string, args ...interface{}) {
	if glog.V(2) {
		glog.Infof(format, args...)
	}
}

// NoopLogger discards everything; it is the default for tests and library
// embedders that do not want glog's process-wide flag registration.
type NoopLogger struct{}

func (NoopLogger) Infof(string, ...interface{})    {}
func (NoopLogger) Verbosef(string, ...interface{}) {}
