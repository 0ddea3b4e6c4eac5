// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the mdbatch CLI: batch conversion of
// folders, files and URLs to Markdown through docling, marker, markitdown or
// pymupdf.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/mdbatch/internal/config"
	"github.com/pdiddy/mdbatch/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the mdbatch CLI.
var rootCmd = &cobra.Command{
	Use:   "mdbatch",
	Short: "Batch document-to-Markdown conversion",
	Long: `mdbatch converts folders, single files and URLs to Markdown with one of
four tools: docling, marker, markitdown or pymupdf. Inputs are filtered by the
tool's extension allow-list and a size ceiling, converted one at a time and
written to <output_root>/<tool>/output/, mirroring the input tree.

Sources come from the sources: list in mdbatch.yaml, a sources file
(--sources) or positional arguments.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", secrets.Names(s))
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./mdbatch.yaml or ~/.config/mdbatch/mdbatch.yaml)")
	rootCmd.PersistentFlags().String("output-root", ".", "directory holding <tool>/output/ and .mdbatch/")
	viper.BindPFlag(config.KeyOutputRoot, rootCmd.PersistentFlags().Lookup("output-root"))
}

func initConfig() {
	config.SetDefaults(viper.GetViper())

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("mdbatch")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "mdbatch"))
		}
	}

	viper.SetEnvPrefix("MDBATCH")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
