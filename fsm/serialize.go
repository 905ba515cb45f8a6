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

package fsm

import "gopkg.in/yaml.v3"

// yamlTransition is the wire shape of one confirmed transition.
type yamlTransition struct {
	Input  int `yaml:"input"`
	Next   int `yaml:"next"`
	Output int `yaml:"output,omitempty"`
}

// yamlState is the wire shape of one conjecture state.
type yamlState struct {
	StateOutput int              `yaml:"stateOutput,omitempty"`
	Transitions []yamlTransition `yaml:"transitions"`
}

// yamlConjecture is the top-level YAML document for a serialized
// conjecture, the format the round-trip tests exercise.
type yamlConjecture struct {
	Type       string      `yaml:"type"`
	NumInputs  int         `yaml:"numInputs"`
	NumOutputs int         `yaml:"numOutputs"`
	States     []yamlState `yaml:"states"`
}

// MarshalYAML serializes the conjecture to the same YAML shape Unmarshal
// consumes.
func (c *Conjecture) MarshalYAML() (interface{}, error) {
	doc := yamlConjecture{
		Type:       c.Type.String(),
		NumInputs:  c.numInputs,
		NumOutputs: c.numOutputs,
	}
	for s := 0; s < c.NumStates(); s++ {
		ys := yamlState{StateOutput: c.stateOutputs[s]}
		for i := 0; i < c.numInputs; i++ {
			tr := c.trans[s][i]
			if !tr.set {
				continue
			}
			ys.Transitions = append(ys.Transitions, yamlTransition{Input: i, Next: tr.next, Output: tr.output})
		}
		doc.States = append(doc.States, ys)
	}
	return doc, nil
}

// Marshal renders the conjecture as a YAML document.
func Marshal(c *Conjecture) ([]byte, error) {
	return yaml.Marshal(c)
}

// Unmarshal parses a YAML document produced by Marshal (or hand-written in
// the same shape) into a Conjecture.
func Unmarshal(data []byte) (*Conjecture, error) {
	var doc yamlConjecture
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	t, err := parseType(doc.Type)
	if err != nil {
		return nil, err
	}
	c := &Conjecture{Type: t, numInputs: doc.NumInputs, numOutputs: doc.NumOutputs}
	for _, ys := range doc.States {
		c.stateOutputs = append(c.stateOutputs, ys.StateOutput)
		row := make([]transition, doc.NumInputs)
		for _, yt := range ys.Transitions {
			row[yt.Input] = transition{next: yt.Next, output: yt.Output, set: true}
		}
		c.trans = append(c.trans, row)
	}
	return c, nil
}

func parseType(s string) (Type, error) {
	switch s {
	case "DFSM":
		return DFSM, nil
	case "Mealy":
		return Mealy, nil
	case "Moore":
		return Moore, nil
	case "DFA":
		return DFA, nil
	default:
		return DFSM, &unknownTypeError{s}
	}
}

type unknownTypeError struct{ s string }

func (e *unknownTypeError) Error() string { return "fsm: unknown machine type " + e.s }
