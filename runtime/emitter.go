package runtime

import (
	"context"

	"github.com/justapithecus/icupack/log"
	"github.com/justapithecus/icupack/metrics"
	"github.com/justapithecus/icupack/types"
)

// Emitter wraps the code generator that turns an archive into linkable code.
type Emitter struct {
	stage    toolStage
	platform types.Platform
}

// NewEmitter creates an Emitter for the given platform.
func NewEmitter(tool ExternalTool, platform types.Platform, out Output, logger *log.Logger, collector *metrics.Collector) *Emitter {
	return &Emitter{
		stage:    newToolStage(ToolEmitter, tool, out, logger, collector),
		platform: platform,
	}
}

// Emit generates linkable code for archivePath into outDir and returns the
// expected artifact file name. The caller verifies the file exists.
func (e *Emitter) Emit(ctx context.Context, archivePath, entryName, outDir string) (string, error) {
	flavor := e.platform.AssemblyFlavor()
	if _, err := e.stage.invoke(ctx, EmitterArgs(flavor, archivePath, entryName, outDir, e.stage.out.Verbose)); err != nil {
		return "", err
	}
	return types.ArtifactName(archivePath, flavor), nil
}

// EmitterArgs builds the code generator argv. The entry name is used for
// both the data symbol and the entry point.
func EmitterArgs(flavor types.AssemblyFlavor, archivePath, entryName, outDir string, verbose bool) []string {
	var args []string
	if verbose {
		args = append(args, "-v")
	}
	if flavor != types.FlavorNone {
		args = append(args, "--assembly", string(flavor))
	}
	return append(args,
		"--name", entryName,
		"--entrypoint", entryName,
		"--destdir", outDir,
		archivePath,
	)
}
