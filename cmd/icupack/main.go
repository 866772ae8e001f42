// Package main provides the icupack CLI entrypoint.
//
// Usage:
//
//	icupack <command> [options]
//
// Exit codes for `build` and `testdata`:
//   - 0: success
//   - 1: internal error (filesystem, process launch)
//   - 2: configuration rejected
//   - 124: --timeout expired
//   - 130: interrupted
//   - any other: exit code of the failing tool
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/icupack/cli/cmd"
	"github.com/justapithecus/icupack/types"
)

// Commit is set via ldflags at build time.
var commit = "unknown"

func main() {
	app := newApp()
	if err := app.Run(os.Args); err != nil {
		// ExitErrHandler already exited for cli.ExitCoder errors.
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:           "icupack",
		Usage:          "Build and package ICU resource data into a linkable artifact",
		Version:        fmt.Sprintf("%s (commit: %s)", types.Version, commit),
		ExitErrHandler: exitErrHandler,
		Commands: []*cli.Command{
			cmd.BuildCommand(),
			cmd.TestDataCommand(),
			cmd.ListCommand(),
			cmd.InspectCommand(),
			cmd.LedgerCommand(),
			cmd.PlatformCommand(),
			cmd.VersionCommand(commit),
		},
	}
}

// exitErrHandler preserves exit codes from cli.Exit so tool exit codes
// reach the caller unchanged.
func exitErrHandler(_ *cli.Context, err error) {
	if err == nil {
		return
	}
	code, msg := exitStatus(err)
	if msg != "" {
		fmt.Fprintln(os.Stderr, msg)
	}
	os.Exit(code)
}

// exitStatus maps an error to a process exit code and the message to
// print, if any.
func exitStatus(err error) (int, string) {
	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		code := exitCoder.ExitCode()
		msg := exitCoder.Error()
		// cli.Exit("", N) reports "exit status N"; nothing to print.
		if msg == fmt.Sprintf("exit status %d", code) {
			msg = ""
		}
		return code, msg
	}
	return 1, fmt.Sprintf("Error: %v", err)
}
