package runtime

import (
	"context"

	"github.com/justapithecus/icupack/log"
	"github.com/justapithecus/icupack/metrics"
	"github.com/justapithecus/icupack/types"
)

// CompileRequest describes one resource-compiler run.
type CompileRequest struct {
	// SourceDir is the source-data tree.
	SourceDir string
	// OutDir receives the compiled fragments.
	OutDir string
	// TmpDir is the compiler's scratch directory; standalone files land here.
	TmpDir string
	// ToolDir is forwarded so the compiler can locate its own helper tools.
	ToolDir string
	// IncludeCoreData forwards --include_uni_core_data.
	IncludeCoreData bool
}

// Compiler wraps the resource compiler.
type Compiler struct {
	stage    toolStage
	platform types.Platform
}

// NewCompiler creates a Compiler for the given platform.
func NewCompiler(tool ExternalTool, platform types.Platform, out Output, logger *log.Logger, collector *metrics.Collector) *Compiler {
	return &Compiler{
		stage:    newToolStage(ToolCompiler, tool, out, logger, collector),
		platform: platform,
	}
}

// Compile runs the resource compiler to completion.
func (c *Compiler) Compile(ctx context.Context, req CompileRequest) error {
	_, err := c.stage.invoke(ctx, CompilerArgs(c.platform, req, c.stage.out.Verbose))
	return err
}

// CompilerArgs builds the resource compiler argv.
func CompilerArgs(platform types.Platform, req CompileRequest, verbose bool) []string {
	args := []string{
		"--mode", platform.CompilerMode(),
		"--src_dir", req.SourceDir,
		"--out_dir", req.OutDir,
		"--tmp_dir", req.TmpDir,
		"--tool_dir", req.ToolDir,
		"--seqmode", "parallel",
	}
	if req.IncludeCoreData {
		args = append(args, "--include_uni_core_data")
	}
	if verbose {
		args = append(args, "--verbose")
	}
	return args
}
