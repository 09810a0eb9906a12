package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wippyai/digest-playground/config"
	"github.com/wippyai/digest-playground/engine"
)

// RootOptions holds global flags and the state every command shares.
type RootOptions struct {
	ConfigPath string
	EnginePath string
	LogLevel   string
	LogFile    string

	// Command-local overrides, applied by setup when their flag is set.
	Debounce time.Duration
	BaseURL  string
	Addr     string

	cfg    config.Config
	logger *zap.Logger

	// newLoader builds the engine loader; tests replace it.
	newLoader func(cfg config.EngineConfig, stdout, stderr io.Writer) engine.Loader
}

func defaultLoader(cfg config.EngineConfig, stdout, stderr io.Writer) engine.Loader {
	return engine.FileLoader(cfg.Path, &engine.Config{
		Stdout:           stdout,
		Stderr:           stderr,
		MemoryLimitPages: cfg.MemoryLimitPages,
	})
}

// NewRootCommand creates the sqldigest command tree. Without a subcommand it
// starts the terminal UI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{newLoader: defaultLoader})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	tuiOpts := &TUIOptions{RootOptions: opts}

	cmd := &cobra.Command{
		Use:   "sqldigest [share-url]",
		Short: "SQL digest playground",
		Long: `Type a SQL statement, pick a digest version and watch the normalized
text and digest update as you type. The current statement and version are
kept in a shareable URL.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.logger != nil {
				_ = opts.logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, tuiOpts, args)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "path to a YAML config file")
	pf.StringVar(&opts.EnginePath, "engine", "", "path to the digest WASM module (overrides engine.path)")
	pf.StringVar(&opts.LogLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&opts.LogFile, "log-file", "", "write logs to this file")

	tuiOpts.bindFlags(cmd)

	cmd.AddCommand(NewTUICommand(opts))
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewComputeCommand(opts))

	return cmd
}

// setup loads the config, applies flag overrides and builds the logger.
func (o *RootOptions) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("engine") {
		cfg.Engine.Path = o.EnginePath
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = o.LogLevel
	}
	if flags.Changed("log-file") {
		cfg.Log.File = o.LogFile
	}
	if flags.Changed("debounce") {
		cfg.UI.Debounce = o.Debounce
	}
	if flags.Changed("base-url") {
		cfg.UI.BaseURL = o.BaseURL
	}
	if flags.Changed("addr") {
		cfg.Serve.Addr = o.Addr
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	o.cfg = cfg

	logger, err := newLogger(cfg.Log, isTUICommand(cmd))
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	o.logger = logger
	engine.SetLogger(logger.Named("engine"))
	return nil
}

func (o *RootOptions) loader(stdout, stderr io.Writer) engine.Loader {
	newLoader := o.newLoader
	if newLoader == nil {
		newLoader = defaultLoader
	}
	return newLoader(o.cfg.Engine, stdout, stderr)
}

// isTUICommand reports whether cmd draws on the terminal, in which case
// nothing else may write to stdout or stderr.
func isTUICommand(cmd *cobra.Command) bool {
	return cmd.Name() == "tui" || !cmd.HasParent()
}
