package main

import (
	"net/url"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/wippyai/digest-playground/clipboard"
	"github.com/wippyai/digest-playground/errors"
	"github.com/wippyai/digest-playground/gate"
	"github.com/wippyai/digest-playground/orchestrator"
	"github.com/wippyai/digest-playground/tui"
	"github.com/wippyai/digest-playground/urlstate"
)

// TUIOptions holds flags for the terminal UI.
type TUIOptions struct {
	*RootOptions
}

func (o *TUIOptions) bindFlags(cmd *cobra.Command) {
	cmd.Flags().DurationVar(&o.Debounce, "debounce", orchestrator.DefaultDebounce, "typing pause before the digest is recomputed")
	cmd.Flags().StringVar(&o.BaseURL, "base-url", "", "base of share links when no share URL is given (overrides ui.base_url)")
}

// NewTUICommand creates the tui command.
func NewTUICommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TUIOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "tui [share-url]",
		Short: "Start the interactive terminal playground",
		Long: `Start the interactive terminal playground.

A share URL (or a bare "?query=...&version=..." string) seeds the statement
and version.

Example:
  sqldigest tui 'http://localhost:8080/?query=SELECT+1&version=1'`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, opts, args)
		},
	}
	opts.bindFlags(cmd)

	return cmd
}

func runTUI(cmd *cobra.Command, opts *TUIOptions, args []string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.InvalidInput(errors.PhaseInput, "the terminal UI needs a terminal; use 'sqldigest compute' in scripts")
	}

	loc, err := startLocation(args, opts.cfg.UI.BaseURL)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	logger := opts.logger

	g := gate.New(opts.loader(nil, nil), gate.WithLogger(logger.Named("gate")))
	defer g.Close(ctx)

	box := tui.NewMailbox(loc.String())
	orch := orchestrator.New(g, loc, box,
		orchestrator.WithDebounce(opts.cfg.UI.Debounce),
		orchestrator.WithLogger(logger.Named("orchestrator")),
		orchestrator.WithAddressListener(box.SetLink))

	// The OSC 52 fallback keeps its stderr default: stdout belongs to the
	// bubbletea renderer.
	clip := clipboard.New(clipboard.WithLogger(logger.Named("clipboard")))

	return tui.Run(ctx, orch, box, clip)
}

// startLocation parses the share URL argument. A bare query string is placed
// on baseURL so copied links are absolute.
func startLocation(args []string, baseURL string) (*urlstate.Location, error) {
	raw := ""
	if len(args) > 0 {
		raw = args[0]
	}
	loc, err := urlstate.ParseLocation(raw)
	if err != nil {
		return nil, err
	}
	if loc.Relative() && baseURL != "" {
		base, err := url.Parse(baseURL)
		if err != nil {
			return nil, errors.InvalidInput(errors.PhaseConfig, "invalid base URL "+baseURL)
		}
		loc = loc.WithBase(base)
	}
	return loc, nil
}
