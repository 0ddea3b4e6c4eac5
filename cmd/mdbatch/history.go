// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/mdbatch/internal/config"
	"github.com/pdiddy/mdbatch/internal/ledger"
	"github.com/pdiddy/mdbatch/internal/logger"
)

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "Show recent conversion runs, or the items of one run",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := viper.GetString(config.KeyOutputRoot)
		store, err := ledger.Open(filepath.Join(root, logger.StateDir))
		if err != nil {
			return err
		}
		defer store.Close()

		asJSON, _ := cmd.Flags().GetBool("json")
		w := cmd.OutOrStdout()

		if len(args) == 1 {
			items, err := store.Items(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(items) == 0 {
				return fmt.Errorf("no items recorded for run %s", args[0])
			}
			if asJSON {
				return printJSON(cmd, items)
			}
			for _, it := range items {
				fmt.Fprintf(w, "%-9s %-20s %s", it.Outcome, it.SourceName, it.Input)
				if it.OutputPath != "" {
					fmt.Fprintf(w, " -> %s", it.OutputPath)
				}
				if it.Error != "" {
					fmt.Fprintf(w, " (%s)", it.Error)
				}
				fmt.Fprintln(w)
			}
			return nil
		}

		limit, _ := cmd.Flags().GetInt("limit")
		runs, err := store.Runs(cmd.Context(), limit)
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(cmd, runs)
		}
		if len(runs) == 0 {
			fmt.Fprintln(w, "no runs recorded")
			return nil
		}
		for _, r := range runs {
			fmt.Fprintf(w, "%s  %-10s %s  ✅%d ❌%d ⏭️%d\n",
				r.ID, r.Tool, r.StartedAt.Local().Format(time.DateTime), r.Converted, r.Failed, r.Skipped)
		}
		return nil
	},
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum number of runs to list")
	historyCmd.Flags().Bool("json", false, "output as JSON")

	rootCmd.AddCommand(historyCmd)
}
