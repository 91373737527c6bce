package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ava12/melody/compiler"
	"github.com/ava12/melody/internal/config"
	"github.com/ava12/melody/internal/gen"
	"github.com/ava12/melody/source"
)

type compileOptions struct {
	format     string
	definition string
	workers    int
	pkg        string
}

func newCompileCmd(root *rootOptions) *cobra.Command {
	opts := compileOptions{}
	cmd := &cobra.Command{
		Use:   "compile [flags] <file|dir>...",
		Short: "Compile pattern description files and print resulting expressions",
		Args:  requireArgs(1, "input file"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompileWithOptions(cmd, root, opts, args)
		},
	}
	fs := cmd.Flags()
	fs.StringVarP(&opts.format, "format", "f", "", "output format: text, json, go (overrides output.format)")
	fs.StringVarP(&opts.definition, "definition", "d", "", "print only the named definition as plain text (output.format is ignored)")
	fs.IntVarP(&opts.workers, "workers", "w", 0, "concurrent compilations (overrides compiler.workers)")
	fs.StringVarP(&opts.pkg, "package", "p", "", "Go package name for go format (overrides output.package)")
	return cmd
}

func runCompileWithOptions(cmd *cobra.Command, root *rootOptions, opts compileOptions, args []string) error {
	cfg := root.cfg
	if opts.format != "" {
		cfg.Output.Format = opts.format
	}
	if opts.workers > 0 {
		cfg.Compiler.Workers = opts.workers
	}
	if opts.pkg != "" {
		cfg.Output.Package = opts.pkg
	}
	if err := config.Validate(cfg); err != nil {
		return usageError{err}
	}
	if opts.definition != "" && opts.format != "" && opts.format != config.FormatText {
		return usageErrorf("--definition prints plain text, cannot be combined with --format %s", opts.format)
	}

	units, err := collectUnits(args, cfg.Watch.Ext)
	if err != nil {
		return err
	}
	if cfg.Output.Format == config.FormatGo && len(units) != 1 {
		return usageErrorf("go format needs exactly one input file, got %d", len(units))
	}

	results := compiler.CompileBatch(cmd.Context(), units, cfg.Compiler.Workers, root.compilerOptions())
	printer := root.printer(cmd.ErrOrStderr())
	var compiled []*compiler.Result
	failed := false
	for _, r := range results {
		if r.Err != nil {
			failed = true
			_ = printer.Fprint(cmd.ErrOrStderr(), r.Err, readSource(r.Unit.Name))
			continue
		}
		compiled = append(compiled, r.Result)
	}

	out := cmd.OutOrStdout()
	if opts.definition != "" {
		for _, res := range compiled {
			pattern, found := res.Definitions[opts.definition]
			if !found {
				failed = true
				fmt.Fprintf(cmd.ErrOrStderr(), "error: %s: no definition .%s\n", res.Name, opts.definition)
				continue
			}
			fmt.Fprintln(out, pattern)
		}
	} else if err := writeResults(out, cfg, compiled, len(units) > 1); err != nil {
		return err
	}

	if failed {
		return errReported
	}
	return nil
}

func writeResults(w io.Writer, cfg *config.Config, results []*compiler.Result, many bool) error {
	switch cfg.Output.Format {
	case config.FormatJSON:
		var b []byte
		var err error
		if many {
			b, err = gen.JSONBatch(results)
		} else if len(results) == 1 {
			b, err = gen.JSON(results[0])
		} else {
			return nil
		}
		if err != nil {
			return err
		}
		_, err = w.Write(append(b, '\n'))
		return err

	case config.FormatGo:
		if len(results) == 0 {
			return nil
		}
		b, err := gen.Go(results[0], gen.GoOptions{Package: cfg.Output.Package})
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return err

	default:
		for i, res := range results {
			if many {
				if i > 0 {
					fmt.Fprintln(w)
				}
				fmt.Fprintf(w, "== %s\n", res.Name)
			}
			if _, err := w.Write(gen.Text(res)); err != nil {
				return err
			}
		}
		return nil
	}
}

// collectUnits expands directories to files with ext, other arguments are taken as is.
func collectUnits(args []string, ext string) ([]compiler.Unit, error) {
	var units []compiler.Unit
	for _, arg := range args {
		fi, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !fi.IsDir() {
			units = append(units, compiler.Unit{Name: arg})
			continue
		}

		files, err := compiler.FindFiles(arg, ext)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			units = append(units, compiler.Unit{Name: f})
		}
	}
	if len(units) == 0 {
		return nil, usageErrorf("no %s files found", ext)
	}
	return units, nil
}

// readSource returns file contents for diagnostics or nil if the file cannot be read.
func readSource(path string) *source.Source {
	// #nosec G304 -- path comes from command line.
	content, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	return source.New(path, content)
}
