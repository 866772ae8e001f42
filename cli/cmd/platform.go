package cmd

import (
	goruntime "runtime"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/icupack/cli/render"
	"github.com/justapithecus/icupack/types"
)

// PlatformResponse describes the code-emission policy for a platform.
type PlatformResponse struct {
	Platform         types.Platform       `json:"platform" yaml:"platform"`
	AssemblyFlavor   types.AssemblyFlavor `json:"assembly_flavor" yaml:"assembly_flavor"`
	ArtifactExt      string               `json:"artifact_ext" yaml:"artifact_ext"`
	CompilerMode     string               `json:"compiler_mode" yaml:"compiler_mode"`
	ExecutableSuffix string               `json:"executable_suffix" yaml:"executable_suffix"`
}

// NewPlatformResponse resolves the policy for p.
func NewPlatformResponse(p types.Platform) PlatformResponse {
	flavor := p.AssemblyFlavor()
	return PlatformResponse{
		Platform:         p,
		AssemblyFlavor:   flavor,
		ArtifactExt:      flavor.ArtifactExt(),
		CompilerMode:     p.CompilerMode(),
		ExecutableSuffix: p.ExecutableSuffix(),
	}
}

// PlatformCommand returns the platform command.
func PlatformCommand() *cli.Command {
	return &cli.Command{
		Name:      "platform",
		Usage:     "Show how artifacts are emitted for a platform (default: host)",
		ArgsUsage: "[platform]",
		Flags:     ReadOnlyFlags(),
		Action:    platformAction,
	}
}

func platformAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for platform command", 1)
	}

	p := types.DetectPlatform(goruntime.GOOS)
	if c.NArg() > 0 {
		p, err = types.ParsePlatform(c.Args().First())
		if err != nil {
			return cli.Exit(err.Error(), 2)
		}
	}
	return r.Render(NewPlatformResponse(p))
}
