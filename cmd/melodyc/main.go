/*
melodyc is a console utility compiling pattern description files to Go regular expressions.
Usage is

	melodyc compile [-c melody.yaml] [-f text|json|go] [-d name] [-w workers] <file|dir>...
	melodyc gen [-j] [-p package] [-v name] [-o out] <file>
	melodyc watch [--dir dir] [--once]
	melodyc serve [--listen addr]
	melodyc repl [file]
	melodyc version

Settings are read from melody.yaml (or the file given with -c) and MELODY_* environment variables.
Exit code is 1 if any file fails to compile and 2 on wrong usage.
*/
package main

import (
	"os"

	"github.com/ava12/melody/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:], os.Stdout, os.Stderr))
}
