package cli

import (
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ava12/melody/internal/diag"
	"github.com/ava12/melody/internal/repl"
	"github.com/ava12/melody/internal/server"
	"github.com/ava12/melody/internal/watch"
)

type watchOptions struct {
	dir  string
	once bool
}

func newWatchCmd(root *rootOptions) *cobra.Command {
	opts := watchOptions{}
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Recompile a directory of pattern descriptions whenever it changes",
		Args:  maxArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatchWithOptions(cmd, root, opts)
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&opts.dir, "dir", "", "pattern directory (overrides watch.dir)")
	fs.BoolVar(&opts.once, "once", false, "build once and exit")
	return cmd
}

func runWatchWithOptions(cmd *cobra.Command, root *rootOptions, opts watchOptions) error {
	cfg := root.cfg
	if opts.dir != "" {
		cfg.Watch.Dir = opts.dir
	}

	wopts := watch.Options{
		Dir:      cfg.Watch.Dir,
		Ext:      cfg.Watch.Ext,
		Debounce: time.Duration(cfg.Watch.DebounceMs) * time.Millisecond,
		Workers:  cfg.Compiler.Workers,
		Compiler: root.compilerOptions(),
		Logger:   log.New(cmd.ErrOrStderr(), "", log.LstdFlags),
	}

	if opts.once {
		results, err := watch.Build(cmd.Context(), wopts)
		if err != nil {
			return err
		}
		for _, r := range results {
			if r.Err != nil {
				return errReported
			}
		}
		return nil
	}

	closer, err := watch.Start(wopts)
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	<-cmd.Context().Done()
	return nil
}

type serveOptions struct {
	listen string
}

func newServeCmd(root *rootOptions) *cobra.Command {
	opts := serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve compile and match API over HTTP",
		Args:  maxArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServeWithOptions(cmd, root, opts)
		},
	}
	cmd.Flags().StringVar(&opts.listen, "listen", "", "http listen address (overrides server.listen)")
	return cmd
}

func runServeWithOptions(cmd *cobra.Command, root *rootOptions, opts serveOptions) error {
	cfg := root.cfg
	if opts.listen != "" {
		cfg.Server.Listen = opts.listen
	}

	return server.Run(cmd.Context(), cfg.Server.Listen, server.Options{
		Compiler:     root.compilerOptions(),
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		AccessLogger: log.New(cmd.OutOrStdout(), "", log.LstdFlags),
		Color:        diag.ColorEnabled(cfg.Logging.Color, cmd.OutOrStdout()),
	})
}

func newReplCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "repl [file]",
		Short: "Edit a pattern description interactively",
		Args:  maxArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var initial string
			if len(args) > 0 {
				// #nosec G304 -- path comes from command line.
				content, err := os.ReadFile(args[0])
				if err != nil {
					return err
				}
				initial = string(content)
			}
			return repl.Run(initial, root.compilerOptions(), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}
