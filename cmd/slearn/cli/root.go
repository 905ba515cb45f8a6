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

// Package cli implements the slearn command's cobra/viper wiring, grounded
// in the gnmidiff tool's cmd package shape: a root command that binds
// config-file and persistent flags through viper, with one subcommand per
// verb.
package cli

import (
	"flag"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// RootCmd assembles the slearn command tree.
func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "slearn",
		Short: "slearn infers a minimal finite-state machine from a black-box teacher via active learning",
	}

	root.PersistentFlags().AddGoFlagSet(flag.CommandLine)
	cfgFile := root.PersistentFlags().String("config_file", "", "Path to a config file (YAML, TOML, or JSON) overriding defaults.")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if *cfgFile != "" {
			viper.SetConfigFile(*cfgFile)
			if err := viper.ReadInConfig(); err != nil {
				return fmt.Errorf("slearn: error reading config: %w", err)
			}
		}
		if err := viper.BindPFlags(cmd.Flags()); err != nil {
			return err
		}
		viper.AutomaticEnv()
		return nil
	}

	root.AddCommand(newLearnCmd())
	return root
}
