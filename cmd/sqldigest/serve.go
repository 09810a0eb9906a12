package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wippyai/digest-playground/gate"
	"github.com/wippyai/digest-playground/web"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the playground over HTTP",
		Long: `Serve the playground over HTTP.

The page at / is seeded from its own query string, so any page URL is a
shareable link. /api/digest?query=...&version=... returns the digest as JSON
and /healthz reports whether the engine has loaded.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (overrides serve.addr)")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	ctx := cmd.Context()
	logger := opts.logger

	g := gate.New(opts.loader(os.Stderr, os.Stderr), gate.WithLogger(logger.Named("gate")))
	defer g.Close(ctx)

	s := web.NewServer(g,
		web.WithLogger(logger.Named("http")),
		web.WithDebounce(opts.cfg.UI.Debounce))
	s.Start(ctx)

	logger.Info("starting server",
		zap.String("addr", opts.cfg.Serve.Addr),
		zap.String("engine", opts.cfg.Engine.Path))
	return s.ListenAndServe(ctx, opts.cfg.Serve.Addr)
}
