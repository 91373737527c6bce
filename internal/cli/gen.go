package cli

import (
	"log"
	"os"
	"path/filepath"
	"regexp"

	"github.com/spf13/cobra"

	"github.com/ava12/melody/compiler"
	"github.com/ava12/melody/internal/gen"
)

var packageNameRe = regexp.MustCompile("^[A-Za-z_][A-Za-z_0-9]*$")

type genOptions struct {
	json     bool
	outName  string
	pkg      string
	rootName string
}

func newGenCmd(root *rootOptions) *cobra.Command {
	opts := genOptions{}
	cmd := &cobra.Command{
		Use:   "gen [flags] <file>",
		Short: "Translate a pattern description file to Go source or JSON",
		Long: "Translate a pattern description file to Go source declaring one *regexp.Regexp variable per\n" +
			"definition plus one for the top-level pattern, or to JSON with -j.",
		Args: func(cmd *cobra.Command, args []string) error {
			if err := requireArgs(1, "input file")(cmd, args); err != nil {
				return err
			}
			return maxArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenWithOptions(cmd, root, opts, args[0])
		},
	}
	fs := cmd.Flags()
	fs.BoolVarP(&opts.json, "json", "j", false, "output JSON instead of Go")
	fs.StringVarP(&opts.outName, "out", "o", "", "output file name, \"-\" for stdout, default is the name of input file with .go or .json suffix")
	fs.StringVarP(&opts.pkg, "package", "p", "", "Go package name, default is dir name of output file or output.package")
	fs.StringVarP(&opts.rootName, "var", "v", "", "Go variable name for top-level pattern, default is derived from input file name")
	return cmd
}

func runGenWithOptions(cmd *cobra.Command, root *rootOptions, opts genOptions, inName string) error {
	outName := opts.outName
	if outName == "" {
		ext := filepath.Ext(inName)
		outName = inName[:len(inName)-len(ext)]
		if opts.json {
			outName += ".json"
		} else {
			outName += ".go"
		}
	}

	res, err := compiler.CompileFile(inName, root.compilerOptions())
	if err != nil {
		_ = root.printer(cmd.ErrOrStderr()).Fprint(cmd.ErrOrStderr(), err, readSource(inName))
		return errReported
	}

	var content []byte
	if opts.json {
		content, err = gen.JSON(res)
		content = append(content, '\n')
	} else {
		content, err = gen.Go(res, gen.GoOptions{
			Package:  resolvePackageName(opts.pkg, outName, root.cfg.Output.Package),
			RootName: opts.rootName,
		})
	}
	if err != nil {
		return err
	}

	if outName == "-" {
		_, err = cmd.OutOrStdout().Write(content)
		return err
	}
	if err := os.WriteFile(outName, content, 0o644); err != nil {
		return err
	}

	l := log.New(cmd.ErrOrStderr(), "", 0)
	l.Printf("gen ok: file=%q out=%q definitions=%d root=%t", inName, outName, len(res.Order), res.HasRoot())
	return nil
}

func resolvePackageName(flag, outName, fallback string) string {
	if flag != "" {
		return flag
	}
	if outName != "-" {
		if dir, err := filepath.Abs(outName); err == nil {
			name := filepath.Base(filepath.Dir(dir))
			if packageNameRe.MatchString(name) {
				return name
			}
		}
	}
	return fallback
}
