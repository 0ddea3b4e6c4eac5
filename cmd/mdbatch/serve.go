// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/mdbatch/internal/config"
	"github.com/pdiddy/mdbatch/internal/convert"
	"github.com/pdiddy/mdbatch/internal/logger"
	"github.com/pdiddy/mdbatch/internal/mcpserver"
)

var serveCmd = &cobra.Command{
	Use:   "serve <tool>",
	Short: "Serve one tool as an MCP server on stdio",
	Long: `Serve exposes a conversion tool over the Model Context Protocol on
stdin/stdout. The convert_document tool takes a file path or URL and returns
the converted text under the same extension and size rules as convert;
nothing is written to the output tree.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tool, err := config.ParseTool(args[0])
		if err != nil {
			return err
		}
		cfg, err := config.Load(viper.GetViper())
		if err != nil {
			return err
		}

		cleanup, err := logger.Setup(logger.Config{Root: cfg.OutputRoot})
		if err != nil {
			return err
		}
		defer cleanup()

		runner, err := newRunner(tool, cfg, nil)
		if err != nil {
			return err
		}
		logger.L().Info("serve.started", "tool", string(tool))
		return mcpserver.New(runner.Tool, runner, convert.Describe(tool, cfg.Tools), version).ServeStdio()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
