// Command arcscript evaluates scripts and inspects story projects offline.
//
// Usage:
//
//	arcscript eval -project story.json [-node id] [-cond] [-set name=value] script
//	arcscript choices -project story.json element
//	arcscript check -project story.json
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/AaronLay10/ArcEngine/internal/version"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: arcscript <eval|choices|check|version> [flags] [args]")
}

// run dispatches a subcommand and returns the process exit code: 0 on
// success, 1 when problems were reported, 2 on usage errors.
func run(args []string, out, errOut io.Writer) int {
	if len(args) == 0 {
		usage(errOut)
		return 2
	}

	cmd := args[0]
	if cmd == "version" || cmd == "-version" {
		fmt.Fprintln(out, version.String("arcscript"))
		return 0
	}

	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(errOut)
	cfg, rest, err := ParseConfig(fs, args[1:])
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(errOut, "arcscript %s: %v\n", cmd, err)
		}
		return 2
	}

	switch cmd {
	case "eval":
		err = RunEval(cfg, rest, out, errOut)
	case "choices":
		err = RunChoices(cfg, rest, out, errOut)
	case "check":
		err = RunCheck(cfg, out, errOut)
	default:
		usage(errOut)
		return 2
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, errProblems):
		return 1
	default:
		fmt.Fprintf(errOut, "arcscript %s: %v\n", cmd, err)
		return 1
	}
}
