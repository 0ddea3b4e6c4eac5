// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/mdbatch/internal/config"
	"github.com/pdiddy/mdbatch/internal/source"
	"github.com/pdiddy/mdbatch/pkg/types"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Create and check source lists",
}

var sourcesInitCmd = &cobra.Command{
	Use:   "init FILE",
	Short: "Write an example sources file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		if _, err := os.Stat(args[0]); err == nil && !force {
			return fmt.Errorf("%s already exists (use --force to overwrite)", args[0])
		}
		if err := source.WriteFile(args[0], source.Example()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", args[0])
		return nil
	},
}

var sourcesValidateCmd = &cobra.Command{
	Use:   "validate [FILE]",
	Short: "Check a sources file, or the sources in the config file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			sources []types.Source
			err     error
		)
		if len(args) == 1 {
			sources, err = source.ReadFile(args[0])
		} else {
			var cfg types.BatchConfig
			cfg, err = config.Load(viper.GetViper())
			sources = cfg.Sources
		}
		if err != nil {
			return err
		}

		problems, err := source.Validate(sources)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		for _, s := range source.Normalize(sources) {
			fmt.Fprintf(w, "%-6s %-20s %s\n", s.Kind, s.Name, s.Path)
		}
		for _, p := range problems {
			fmt.Fprintf(w, "problem: %s\n", p)
		}
		if len(problems) > 0 {
			return fmt.Errorf("%d problem(s) in %d source(s)", len(problems), len(sources))
		}
		fmt.Fprintf(w, "%d source(s) ok\n", len(sources))
		return nil
	},
}

func init() {
	sourcesInitCmd.Flags().Bool("force", false, "overwrite an existing file")

	sourcesCmd.AddCommand(sourcesInitCmd, sourcesValidateCmd)
	rootCmd.AddCommand(sourcesCmd)
}
