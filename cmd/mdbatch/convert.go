// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/mdbatch/internal/config"
	"github.com/pdiddy/mdbatch/internal/container"
	"github.com/pdiddy/mdbatch/internal/convert"
	"github.com/pdiddy/mdbatch/internal/httputil"
	"github.com/pdiddy/mdbatch/internal/ledger"
	"github.com/pdiddy/mdbatch/internal/logger"
	"github.com/pdiddy/mdbatch/internal/report"
	"github.com/pdiddy/mdbatch/internal/source"
	"github.com/pdiddy/mdbatch/pkg/types"
)

var convertCmd = &cobra.Command{
	Use:   "convert <tool> [inputs...]",
	Short: "Convert the configured sources to Markdown with one tool",
	Long: `Convert runs one tool (docling, marker, markitdown or pymupdf) over a list
of sources. Positional inputs take precedence over --sources, which takes
precedence over the sources: list in the config file. URLs become url
sources, existing directories folder sources, anything else file sources.

Inputs larger than --max-file-size-mb are skipped. Every item is counted as
converted, failed or skipped; the command exits non-zero when any item
failed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().String("sources", "", "YAML sources file (see: mdbatch sources init)")
	convertCmd.Flags().Int64("max-file-size-mb", config.DefaultMaxFileSizeMB, "skip inputs larger than this many MB")
	convertCmd.Flags().Bool("recursive", true, "descend into subdirectories of folder inputs")
	convertCmd.Flags().Bool("frontmatter", false, "prepend YAML frontmatter to Markdown output")
	convertCmd.Flags().Bool("no-ledger", false, "do not record the run in .mdbatch/ledger.db")
	convertCmd.Flags().Bool("debug", false, "write debug-level entries to the log file")

	viper.BindPFlag(config.KeyMaxFileSizeMB, convertCmd.Flags().Lookup("max-file-size-mb"))
	viper.BindPFlag(config.KeyFrontmatter, convertCmd.Flags().Lookup("frontmatter"))

	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	tool, err := config.ParseTool(args[0])
	if err != nil {
		return err
	}
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	sourcesFile, _ := cmd.Flags().GetString("sources")
	recursive, _ := cmd.Flags().GetBool("recursive")
	sources, err := resolveSources(args[1:], sourcesFile, recursive, cfg.Sources)
	if err != nil {
		return err
	}
	problems, err := source.Validate(sources)
	if err != nil {
		return fmt.Errorf("%w: add sources to mdbatch.yaml, pass --sources or give inputs as arguments", err)
	}
	for _, p := range problems {
		fmt.Fprintf(os.Stderr, "warning: %s\n", p)
	}

	debug, _ := cmd.Flags().GetBool("debug")
	cleanup, err := logger.Setup(logger.Config{Root: cfg.OutputRoot, Debug: debug})
	if err != nil {
		return fmt.Errorf("setting up log file: %w", err)
	}
	defer cleanup()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	out := report.New(cmd.OutOrStdout())
	runner, err := newRunner(tool, cfg, out)
	if err != nil {
		logger.L().Error("setup.failed", "tool", string(tool), "error", err)
		return err
	}

	out.Start(string(tool), runner.OutputDir)
	out.Info("%s", convert.Describe(tool, cfg.Tools))
	out.Info("max file size: %d MB", cfg.MaxFileSizeMB)

	noLedger, _ := cmd.Flags().GetBool("no-ledger")
	var run *ledger.Run
	if cfg.Ledger && !noLedger {
		store, err := ledger.Open(filepath.Join(cfg.OutputRoot, logger.StateDir))
		if err != nil {
			out.Warn("run history disabled: %v", err)
		} else {
			defer store.Close()
			if run, err = store.BeginRun(ctx, tool); err != nil {
				out.Warn("run history disabled: %v", err)
			} else {
				runner.Recorder = run
			}
		}
	}

	res := runner.Run(ctx, sources)

	if run != nil {
		if err := run.Finish(res.Converted, res.Failed, res.Skipped); err != nil {
			logger.L().Warn("ledger.finish", "run_id", run.ID, "error", err)
		}
		out.Info("run id: %s (mdbatch history %s)", run.ID, run.ID)
	}
	if logPath := logger.Path(); logPath != "" {
		out.Info("log: %s", logPath)
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("interrupted: %w", err)
	}
	if res.HasFailures() {
		return fmt.Errorf("%d of %d item(s) failed", res.Failed, res.Total())
	}
	return nil
}

// resolveSources picks positional inputs, then the sources file, then the
// configured list.
func resolveSources(args []string, file string, recursive bool, configured []types.Source) ([]types.Source, error) {
	if len(args) > 0 {
		return source.FromArgs(args, recursive), nil
	}
	if file != "" {
		return source.ReadFile(file)
	}
	return configured, nil
}

// newRunner wires the converter, downloader and output directory for tool.
func newRunner(tool types.ToolName, cfg types.BatchConfig, out *report.Printer) (*convert.Runner, error) {
	profile, err := convert.LookupTool(tool)
	if err != nil {
		return nil, err
	}

	var rt container.Runtime
	if cfg.Tools.EngineFor(tool) == types.EngineContainer {
		if rt, err = container.DetectRuntime(); err != nil {
			return nil, err
		}
	}
	conv, err := convert.NewConverter(tool, convert.Options{
		Tools:   cfg.Tools,
		Runtime: rt,
		Secrets: loadedSecrets,
	})
	if err != nil {
		return nil, err
	}

	return &convert.Runner{
		Tool:      profile,
		Converter: conv,
		Fetcher: &httputil.Downloader{
			Client:     &http.Client{Timeout: cfg.HTTP.Timeout},
			UserAgent:  cfg.HTTP.UserAgent,
			MaxRetries: cfg.HTTP.MaxRetries,
		},
		OutputDir:    filepath.Join(cfg.OutputRoot, string(tool), cfg.OutputDirName),
		MaxFileBytes: cfg.MaxFileBytes(),
		Frontmatter:  cfg.Frontmatter,
		Logger:       logger.L(),
		Printer:      out,
	}, nil
}
