package cmd

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/icupack/cli/render"
	"github.com/justapithecus/icupack/cli/tui"
	"github.com/justapithecus/icupack/manifest"
	"github.com/justapithecus/icupack/types"
)

// ListCommand returns the list command.
// List prints the fragment manifest the archiver would package for a
// compiled tree, without running any tool.
func ListCommand() *cli.Command {
	flags := append(ReadOnlyFlags(),
		&cli.StringSliceFlag{
			Name:  "exclude",
			Usage: "Top-level subtree to leave out (repeatable)",
		},
		&cli.StringFlag{
			Name:  "mode",
			Usage: "Apply a build mode's exclusions: main or testdata",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Also write the manifest to this file",
		},
	)
	return &cli.Command{
		Name:      "list",
		Usage:     "List the fragments of a compiled resource tree",
		ArgsUsage: "<fragment-dir>",
		Flags:     flags,
		Action:    listAction,
	}
}

func listAction(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("fragment-dir required", 1)
	}
	root := c.Args().First()
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return cli.Exit(fmt.Sprintf("%s is not a directory", root), 1)
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	exclude := c.StringSlice("exclude")
	if m := c.String("mode"); m != "" {
		mode, err := types.ParseBuildMode(m)
		if err != nil {
			return cli.Exit(err.Error(), 2)
		}
		exclude = append(exclude, mode.ExcludedSubtrees()...)
	}

	listing, err := manifest.NewListing(root, exclude)
	if err != nil {
		return cli.Exit(fmt.Sprintf("list %s: %v", root, err), 1)
	}

	if out := c.String("output"); out != "" {
		if err := manifest.Write(out, listing.Entries); err != nil {
			return cli.Exit(fmt.Sprintf("write manifest: %v", err), 1)
		}
	}

	if c.Bool("tui") {
		return r.RenderTUI(tui.ViewListManifest, listing)
	}
	if r.Format() == render.FormatTable {
		return r.Render(listing.Entries)
	}
	return r.Render(listing)
}
