package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	dp "github.com/wippyai/digest-playground"
	"github.com/wippyai/digest-playground/errors"
	"github.com/wippyai/digest-playground/gate"
)

// ComputeOptions holds flags for the compute command.
type ComputeOptions struct {
	*RootOptions
	File     string
	Stdin    bool
	Version  string
	JSON     bool
	TextOnly bool
	HashOnly bool
}

// NewComputeCommand creates the compute command.
func NewComputeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ComputeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compute [sql...]",
		Short: "Compute the digest of one statement and exit",
		Long: `Compute the digest of one statement and exit.

The statement comes from the arguments, --file, --stdin, or a piped stdin.

Examples:
  sqldigest compute "SELECT * FROM users WHERE id = 123"
  sqldigest compute --file query.sql --json
  echo "SELECT 1" | sqldigest compute --hash-only`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompute(cmd, opts, args)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.File, "file", "f", "", "read the statement from a file")
	f.BoolVar(&opts.Stdin, "stdin", false, "read the statement from stdin")
	f.StringVar(&opts.Version, "version", dp.DefaultVersion.String(), "digest version: 0 (MySQL 8.0), 1 (MySQL 8.4), 2 (MySQL 5.7), 3")
	f.BoolVar(&opts.JSON, "json", false, "print JSON")
	f.BoolVar(&opts.TextOnly, "text-only", false, "print only the digest text")
	f.BoolVar(&opts.HashOnly, "hash-only", false, "print only the digest")
	cmd.MarkFlagsMutuallyExclusive("file", "stdin")
	cmd.MarkFlagsMutuallyExclusive("json", "text-only", "hash-only")

	return cmd
}

type computeResult struct {
	Hash string `json:"digest"`
	Text string `json:"digest_text"`
}

// engineError is a statement the engine rejected.
type engineError string

func (e engineError) Error() string { return string(e) }

func runCompute(cmd *cobra.Command, opts *ComputeOptions, args []string) error {
	version, ok := dp.ParseVersion(opts.Version)
	if !ok {
		return errors.InvalidInput(errors.PhaseInput, fmt.Sprintf("unknown version %q: must be 0, 1, 2 or 3", opts.Version))
	}

	sql, err := readStatement(opts, args, cmd.InOrStdin())
	if err != nil {
		return err
	}
	sql = strings.TrimSpace(sql)
	if sql == "" {
		return errors.InvalidInput(errors.PhaseInput, "empty SQL input")
	}

	ctx := cmd.Context()
	g := gate.New(opts.loader(nil, cmd.ErrOrStderr()), gate.WithLogger(opts.logger.Named("gate")))
	defer g.Close(ctx)

	if err := g.Load(ctx).Wait(ctx); err != nil {
		return err
	}

	out := g.Invoke(ctx, sql, version)
	if out.Failed {
		return engineError(out.Message)
	}

	w := cmd.OutOrStdout()
	switch {
	case opts.JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(computeResult{Hash: out.Hash, Text: out.Text})
	case opts.TextOnly:
		_, err = fmt.Fprintln(w, out.Text)
	case opts.HashOnly:
		_, err = fmt.Fprintln(w, out.Hash)
	default:
		_, err = fmt.Fprintf(w, "DIGEST: %s\nDIGEST_TEXT: %s\n", out.Hash, out.Text)
	}
	return err
}

// readStatement picks the input source: --file, --stdin, arguments, then a
// piped stdin. An interactive stdin with no other source is an error.
func readStatement(opts *ComputeOptions, args []string, stdin io.Reader) (string, error) {
	switch {
	case opts.File != "":
		data, err := os.ReadFile(opts.File)
		if err != nil {
			if os.IsNotExist(err) {
				return "", errors.NotFound(errors.PhaseInput, "file", opts.File)
			}
			return "", errors.Wrap(errors.PhaseInput, errors.KindInvalidInput, err, "read "+opts.File)
		}
		return string(data), nil
	case opts.Stdin:
		return readAll(stdin)
	case len(args) > 0:
		return strings.Join(args, " "), nil
	}

	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return "", errors.InvalidInput(errors.PhaseInput, "no SQL given: pass it as arguments, --file or --stdin")
	}
	return readAll(stdin)
}

func readAll(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", errors.Wrap(errors.PhaseInput, errors.KindInvalidInput, err, "read stdin")
	}
	return string(data), nil
}
