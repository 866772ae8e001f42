package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	icupackconfig "github.com/justapithecus/icupack/cli/config"
	"github.com/justapithecus/icupack/cli/render"
	icupacklode "github.com/justapithecus/icupack/lode"
	"github.com/justapithecus/icupack/log"
	"github.com/justapithecus/icupack/runtime"
	"github.com/justapithecus/icupack/types"
)

// LedgerCommand returns the ledger command.
// Ledger reads the most recent build row from the publish store.
func LedgerCommand() *cli.Command {
	flags := append(ReadOnlyFlags(),
		&cli.StringFlag{
			Name:  "config",
			Usage: "Path to icupack.yaml (default: ./icupack.yaml if present)",
		},
		&cli.StringFlag{
			Name:  "package",
			Usage: "Only consider builds of this package",
		},
	)
	return &cli.Command{
		Name:   "ledger",
		Usage:  "Show the latest build recorded in the publish ledger",
		Flags:  append(flags, publishFlags()...),
		Action: ledgerAction,
	}
}

func ledgerAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for ledger command", 1)
	}

	cfg, err := icupackconfig.LoadOptional(c.String("config"), "")
	if err != nil {
		return cli.Exit(err.Error(), runtime.ExitCodeConfig)
	}
	choice, err := parsePublishConfig(c, cfg)
	if err != nil {
		return cli.Exit(err.Error(), runtime.ExitCodeConfig)
	}
	if choice == nil {
		return cli.Exit("--publish-backend is required (or publish.backend in config)", runtime.ExitCodeConfig)
	}

	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}
	factory, err := icupacklode.NewStoreFactory(ctx, choice.store)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	ledger, err := icupacklode.NewLedger(factory)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	pkg := c.String("package")
	entry, err := ledger.Latest(ctx, pkg)
	if errors.Is(err, icupacklode.ErrNoLedgerEntry) {
		if pkg != "" {
			return cli.Exit(fmt.Sprintf("no builds recorded for package %s", pkg), 1)
		}
		return cli.Exit("no builds recorded", 1)
	}
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	if entry.Outcome != string(types.OutcomeSuccess) {
		logger := log.NewLogger(&types.BuildMeta{BuildID: entry.BuildID, PackageName: entry.Package}).WithOutput(c.App.ErrWriter)
		logger.Sugar().With("stage", entry.FailedStage).Warnf("latest build ended %s with exit code %d", entry.Outcome, entry.ExitCode)
	}
	return r.Render(entry)
}
