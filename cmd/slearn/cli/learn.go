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

package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fsmlib-go/slearner/fsm"
	"github.com/fsmlib-go/slearner/slearner"
	"github.com/fsmlib-go/slearner/teacher"
)

func newLearnCmd() *cobra.Command {
	learn := &cobra.Command{
		Use:   "learn <machine.yaml>",
		Short: "Learn a minimal conjecture of the machine described by a YAML file, used as a black-box teacher.",
		Args:  cobra.ExactArgs(1),
		RunE:  runLearn,
	}
	learn.Flags().Int("max_extra_states", 0, "Cap on the extra-state verification budget (0 means no escalation: the equivalence query follows as soon as the S-method is satisfied).")
	learn.Flags().Bool("only_mq", false, "Restrict the teacher to plain membership queries.")
	learn.Flags().Bool("no_equivalence_queries", false, "Never ask an equivalence query; stop, unverified, once the S-method is satisfied.")
	learn.Flags().String("out", "", "Write the learned conjecture's YAML here instead of stdout.")
	return learn
}

func runLearn(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("slearn: reading target machine: %w", err)
	}
	target, err := fsm.Unmarshal(data)
	if err != nil {
		return fmt.Errorf("slearn: parsing target machine: %w", err)
	}

	tch := teacher.NewBlackBox(target, viper.GetBool("only_mq"))
	eqAllowed := !viper.GetBool("no_equivalence_queries")
	cfg := slearner.Config{
		MaxExtraStates: viper.GetInt("max_extra_states"),
		Logger:         slearner.GlogLogger{},
		IsEQAllowed:    &eqAllowed,
	}

	conjecture, info, err := slearner.Slearner(context.Background(), tch, cfg)
	if err != nil {
		return fmt.Errorf("slearn: learning failed: %w", err)
	}

	out, err := fsm.Marshal(conjecture)
	if err != nil {
		return fmt.Errorf("slearn: serializing conjecture: %w", err)
	}

	dest := os.Stdout
	if path := viper.GetString("out"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("slearn: opening output file: %w", err)
		}
		defer f.Close()
		dest = f
	}
	if _, err := dest.Write(out); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "learned %d states in %d rounds, %d output queries, %d equivalence queries\n",
		conjecture.NumStates(), info.Rounds, info.OutputQueries, info.EquivalenceRuns)
	return nil
}
