// Package cli implements melodyc commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ava12/melody/compiler"
	"github.com/ava12/melody/internal/config"
	"github.com/ava12/melody/internal/diag"
)

// Exit codes:
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// errReported means diagnostics were already written and only the exit code remains.
var errReported = errors.New("compilation failed")

type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func usageErrorf(format string, params ...any) error {
	return usageError{fmt.Errorf(format, params...)}
}

type rootOptions struct {
	cfgPath string
	color   string
	cfg     *config.Config
}

func (o *rootOptions) compilerOptions() compiler.Options {
	return compiler.Options{MaxDepth: o.cfg.Compiler.MaxDepth}
}

func (o *rootOptions) printer(w io.Writer) *diag.Printer {
	return diag.New(diag.ColorEnabled(o.cfg.Logging.Color, w))
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "melodyc",
		Short:         "Compile pattern descriptions to Go regular expressions",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load()
		},
	}
	cmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError{err}
	})

	fs := cmd.PersistentFlags()
	fs.StringVarP(&opts.cfgPath, "config", "c", "", "config yaml path (default "+config.DefaultPath+" if present)")
	fs.StringVar(&opts.color, "color", "", "diagnostics color: auto, always, never (overrides logging.color)")

	cmd.AddCommand(
		newCompileCmd(opts),
		newGenCmd(opts),
		newWatchCmd(opts),
		newServeCmd(opts),
		newReplCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

func (o *rootOptions) load() error {
	cfg, err := config.Load(strings.TrimSpace(o.cfgPath))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if o.color != "" {
		cfg.Logging.Color = o.color
		if err := config.Validate(cfg); err != nil {
			return usageError{err}
		}
	}
	o.cfg = cfg
	return nil
}

// Execute runs melodyc with args and returns process exit code.
func Execute(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return execute(ctx, args, os.Stdin, stdout, stderr)
}

func execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, errReported):
		return ExitFailure
	}

	fmt.Fprintf(stderr, "error: %v\n", err)
	var ue usageError
	if errors.As(err, &ue) || strings.HasPrefix(err.Error(), "unknown command") {
		return ExitUsage
	}
	return ExitFailure
}

func requireArgs(min int, what string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) < min {
			return usageErrorf("%s: missing %s", cmd.CommandPath(), what)
		}
		return nil
	}
}

func maxArgs(max int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) > max {
			return usageErrorf("%s: too many arguments", cmd.CommandPath())
		}
		return nil
	}
}
