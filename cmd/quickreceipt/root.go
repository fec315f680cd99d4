package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/thereceipt/quickreceipt/internal/config"
	"github.com/thereceipt/quickreceipt/internal/logger"
	"go.uber.org/zap"
)

// tuiLogFile receives logs while the terminal belongs to the TUI
const tuiLogFile = "quickreceipt.log"

type rootOpts struct {
	configPath string
	logLevel   string
	logFormat  string
	logOutput  string
}

func newRootCmd() *cobra.Command {
	opts := &rootOpts{}

	root := &cobra.Command{
		Use:           "quickreceipt",
		Short:         "Build thermal-style receipts and export them to PDF",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "config file (yaml, json or toml)")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVar(&opts.logFormat, "log-format", "", "log format: console, json")
	flags.StringVar(&opts.logOutput, "log-output", "", "log output: stdout, stderr or a file path")

	root.AddCommand(newServeCmd(opts))
	root.AddCommand(newTUICmd(opts))
	root.AddCommand(newExportCmd(opts))
	root.AddCommand(newShareCmd(opts))
	root.AddCommand(newPrintCmd(opts))

	return root
}

// load reads the configuration and builds the logger. With tui set, logs
// that would go to the terminal go to tuiLogFile instead.
func (o *rootOpts) load(cmd *cobra.Command, tui bool) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = o.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = o.logFormat
	}
	if flags.Changed("log-output") {
		cfg.Log.Output = o.logOutput
	}
	if tui && (cfg.Log.Output == "" || cfg.Log.Output == "stdout" || cfg.Log.Output == "stderr") {
		cfg.Log.Output = tuiLogFile
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return cfg, log, nil
}
