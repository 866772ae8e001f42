package runtime

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/justapithecus/icupack/log"
	"github.com/justapithecus/icupack/metrics"
)

// Tool names as reported in errors, logs and metrics.
const (
	ToolCompiler = "databuilder"
	ToolArchiver = "pkgdata"
	ToolEmitter  = "genccode"
)

// Output is where captured sub-tool output is surfaced.
// Stderr is always written; Stdout only when Verbose is set.
type Output struct {
	Stdout  io.Writer
	Stderr  io.Writer
	Verbose bool
}

// toolStage runs one named external tool with uniform output surfacing,
// metrics and failure translation.
type toolStage struct {
	name      string
	tool      ExternalTool
	out       Output
	logger    *log.Logger
	collector *metrics.Collector
}

func newToolStage(name string, tool ExternalTool, out Output, logger *log.Logger, collector *metrics.Collector) toolStage {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return toolStage{name: name, tool: tool, out: out, logger: logger, collector: collector}
}

// invoke runs the tool, surfaces its output, and converts a non-zero exit
// into a *ToolError. Stderr is surfaced before the error is returned.
func (s *toolStage) invoke(ctx context.Context, args []string) (*ToolResult, error) {
	if s.out.Verbose {
		s.logger.Info("running tool", map[string]any{
			"tool": s.name,
			"args": strings.Join(args, " "),
		})
	}

	s.collector.IncToolInvocation(s.name)
	res, err := s.tool.Run(ctx, args)
	if err != nil {
		s.collector.IncToolFailure(s.name)
		return nil, fmt.Errorf("%s: %w", s.name, err)
	}

	if s.out.Verbose && len(res.Stdout) > 0 && s.out.Stdout != nil {
		_, _ = s.out.Stdout.Write(res.Stdout)
	}
	if len(res.Stderr) > 0 && s.out.Stderr != nil {
		_, _ = s.out.Stderr.Write(res.Stderr)
	}

	if res.ExitCode != 0 {
		s.collector.IncToolFailure(s.name)
		s.logger.Error("tool failed", map[string]any{
			"tool":      s.name,
			"exit_code": res.ExitCode,
		})
		return res, &ToolError{Tool: s.name, ExitCode: res.ExitCode, Stderr: res.Stderr}
	}
	return res, nil
}
