package cmd

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/icupack/cli/render"
	"github.com/justapithecus/icupack/cli/tui"
	"github.com/justapithecus/icupack/runtime"
)

// exitDigestMismatch is returned when --verify finds a modified archive.
const exitDigestMismatch = 3

// InspectCommand returns the inspect command.
// Inspect decodes a build record and optionally verifies an archive
// against it.
func InspectCommand() *cli.Command {
	flags := append(ReadOnlyFlags(), &cli.StringFlag{
		Name:  "verify",
		Usage: "Check that this archive matches the record's digest",
	})
	return &cli.Command{
		Name:      "inspect",
		Usage:     "Show a build record written with --record",
		ArgsUsage: "<record>",
		Flags:     flags,
		Action:    inspectAction,
	}
}

func inspectAction(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("record path required", 1)
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	rec, err := runtime.ReadBuildRecord(c.Args().First())
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	if archive := c.String("verify"); archive != "" {
		if err := rec.VerifyArchive(archive); err != nil {
			if errors.Is(err, runtime.ErrDigestMismatch) {
				return cli.Exit(err.Error(), exitDigestMismatch)
			}
			return cli.Exit(fmt.Sprintf("verify %s: %v", archive, err), 1)
		}
		_, _ = fmt.Fprintf(c.App.ErrWriter, "archive %s matches record\n", archive)
	}

	if c.Bool("tui") {
		return r.RenderTUI(tui.ViewInspectRecord, rec)
	}
	return r.Render(rec)
}
