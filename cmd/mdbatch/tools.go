// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/mdbatch/internal/config"
	"github.com/pdiddy/mdbatch/internal/convert"
	"github.com/pdiddy/mdbatch/pkg/types"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the conversion tools, their engines and accepted extensions",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(viper.GetViper())
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		for _, name := range types.AllTools {
			tool, err := convert.LookupTool(name)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s: %s\n", name, tool.Description)
			fmt.Fprintf(w, "  %s\n", convert.Describe(name, cfg.Tools))
			fmt.Fprintf(w, "  output: %s\n", convert.OutputExt(name, cfg.Tools))
			fmt.Fprintf(w, "  url sources: %t\n", tool.SupportsURL)
			fmt.Fprintf(w, "  extensions: %s\n\n", strings.Join(tool.SortedExtensions(), " "))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(toolsCmd)
}
