// Package cmd provides CLI commands for the icupack binary.
package cmd

import (
	"github.com/urfave/cli/v2"
)

// Shared flags for read-only commands.
var (
	// FormatFlag selects output format: json, table, yaml.
	FormatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: json, table, yaml",
	}

	// NoColorFlag disables colored output.
	NoColorFlag = &cli.BoolFlag{
		Name:  "no-color",
		Usage: "Disable colored output",
	}

	// TUIFlag enables Bubble Tea interactive mode (inspect, list only).
	TUIFlag = &cli.BoolFlag{
		Name:  "tui",
		Usage: "Enable interactive TUI mode (inspect, list only)",
	}
)

// ReadOnlyFlags returns the shared flags for all read-only commands.
// --tui is always accepted so unsupported commands can reject it with an
// explicit message instead of a generic "flag not defined" error.
func ReadOnlyFlags() []cli.Flag {
	return []cli.Flag{
		FormatFlag,
		NoColorFlag,
		TUIFlag,
	}
}

// pipelineFlags returns the flags shared by build and testdata.
func pipelineFlags() []cli.Flag {
	return append([]cli.Flag{
		// Pipeline inputs
		&cli.StringFlag{
			Name:  "src-dir",
			Usage: "Resource source tree passed to the compiler",
		},
		&cli.StringFlag{
			Name:  "tool-dir",
			Usage: "Directory containing pkgdata and genccode",
		},
		&cli.StringFlag{
			Name:  "out-dir",
			Usage: "Destination for the generated artifact and archive",
		},
		&cli.StringFlag{
			Name:  "pkg-name",
			Usage: "Package name (archive basename)",
		},
		&cli.StringFlag{
			Name:  "entry-name",
			Usage: "Entry point symbol for the generated artifact",
		},
		&cli.BoolFlag{
			Name:  "include-uni-core-data",
			Usage: "Compile the core Unicode data into the package",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "Pass verbose flags to tools and surface their stdout",
		},
		// Execution environment
		&cli.StringFlag{
			Name:  "config",
			Usage: "Path to icupack.yaml (default: ./icupack.yaml if present)",
		},
		&cli.StringFlag{
			Name:  "work-dir",
			Usage: "Parent directory for the ephemeral working tree (default: system temp)",
		},
		&cli.StringFlag{
			Name:  "platform",
			Usage: "Target platform: linux, darwin, windows, other-unix (default: host)",
		},
		&cli.StringFlag{
			Name:  "compiler-command",
			Usage: "Resource compiler command line (default: python3 -m icutools.databuilder)",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Abort the build after this duration (0 = no limit)",
		},
		// Outputs
		&cli.StringFlag{
			Name:  "report",
			Usage: "Write a JSON build report to this path (- for stderr)",
		},
		&cli.StringFlag{
			Name:  "record",
			Usage: "Write a msgpack build record to this path on success",
		},
		&cli.BoolFlag{
			Name:  "quiet",
			Usage: "Suppress the result summary",
		},
		// Notification
		&cli.StringFlag{
			Name:  "notify",
			Usage: "Notify on completion: webhook or redis",
		},
		&cli.StringFlag{
			Name:  "notify-url",
			Usage: "Webhook URL or redis:// URL",
		},
		&cli.StringFlag{
			Name:  "notify-channel",
			Usage: "Redis pub/sub channel",
		},
		&cli.DurationFlag{
			Name:  "notify-timeout",
			Usage: "Per-attempt notification timeout",
		},
		&cli.IntFlag{
			Name:  "notify-retries",
			Usage: "Notification retries after the first attempt",
			Value: 3,
		},
	}, publishFlags()...)
}

// publishFlags selects the lode store that build publishes to and
// ledger reads from.
func publishFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "publish-backend",
			Usage: "Publish artifacts to a lode store: fs or s3",
		},
		&cli.StringFlag{
			Name:  "publish-path",
			Usage: "Publish root (fs: directory, s3: bucket/prefix)",
		},
		&cli.StringFlag{
			Name:  "publish-s3-region",
			Usage: "AWS region for the s3 backend (optional, uses default chain)",
		},
		&cli.StringFlag{
			Name:  "publish-s3-endpoint",
			Usage: "Custom S3 endpoint for S3-compatible providers",
		},
		&cli.BoolFlag{
			Name:  "publish-s3-path-style",
			Usage: "Force path-style S3 addressing",
		},
	}
}
