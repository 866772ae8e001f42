package runtime

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/justapithecus/icupack/log"
	"github.com/justapithecus/icupack/metrics"
)

// ErrArtifactMissing indicates a tool exited 0 without producing its output.
var ErrArtifactMissing = errors.New("expected artifact was not produced")

// Archiver wraps the package tool that concatenates fragments into one archive.
type Archiver struct {
	stage toolStage
}

// NewArchiver creates an Archiver.
func NewArchiver(tool ExternalTool, out Output, logger *log.Logger, collector *metrics.Collector) *Archiver {
	return &Archiver{stage: newToolStage(ToolArchiver, tool, out, logger, collector)}
}

// Package packs the fragments listed in manifestPath into
// <outDir>/<packageName>.dat and returns that path.
// There is no retry: the same inputs fail the same way.
func (a *Archiver) Package(ctx context.Context, fragmentRoot, manifestPath, packageName, outDir string) (string, error) {
	args := ArchiverArgs(fragmentRoot, manifestPath, packageName, outDir, a.stage.out.Verbose)
	if _, err := a.stage.invoke(ctx, args); err != nil {
		return "", err
	}

	archive := filepath.Join(outDir, packageName+".dat")
	if _, err := os.Stat(archive); err != nil {
		return "", fmt.Errorf("%s: %w: %s", ToolArchiver, ErrArtifactMissing, archive)
	}
	return archive, nil
}

// ArchiverArgs builds the package tool argv: common format, build in place,
// with the manifest as the final positional argument.
func ArchiverArgs(fragmentRoot, manifestPath, packageName, outDir string, verbose bool) []string {
	var args []string
	if verbose {
		args = append(args, "-v")
	}
	return append(args,
		"-m", "common",
		"-p", packageName,
		"-c",
		"-s", fragmentRoot,
		"-d", outDir,
		manifestPath,
	)
}
