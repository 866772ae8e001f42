package runtime

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"
)

// toolWaitDelay bounds how long Run waits for output pipes to close
// after the process exits or is killed. Grandchildren that inherit the
// pipes would otherwise hold Run open past cancellation.
const toolWaitDelay = 2 * time.Second

// ToolResult is the captured outcome of one external tool invocation.
type ToolResult struct {
	// Stdout is the captured standard output.
	Stdout []byte
	// Stderr is the captured standard error.
	Stderr []byte
	// ExitCode is the process exit code. -1 if the process was killed by a signal.
	ExitCode int
}

// ExternalTool runs one external program to completion.
//
// A non-zero exit is reported through ToolResult.ExitCode, not the error.
// The error is reserved for failures to launch or wait on the process,
// including context cancellation.
type ExternalTool interface {
	Run(ctx context.Context, args []string) (*ToolResult, error)
}

// ToolFunc adapts a function to ExternalTool.
type ToolFunc func(ctx context.Context, args []string) (*ToolResult, error)

// Run calls f(ctx, args).
func (f ToolFunc) Run(ctx context.Context, args []string) (*ToolResult, error) {
	return f(ctx, args)
}

// ProcessTool is an ExternalTool backed by an OS process.
type ProcessTool struct {
	// Command is the argv prefix; invocation args are appended.
	Command []string
	// Env holds extra KEY=VALUE entries layered over the inherited environment.
	Env []string
}

// NewProcessTool creates a ProcessTool for the given argv prefix.
func NewProcessTool(command ...string) *ProcessTool {
	return &ProcessTool{Command: command}
}

// String returns the command prefix as a shell-like string.
func (p *ProcessTool) String() string {
	return strings.Join(p.Command, " ")
}

// Run starts the process, waits for it, and captures both output streams.
func (p *ProcessTool) Run(ctx context.Context, args []string) (*ToolResult, error) {
	if len(p.Command) == 0 {
		return nil, errors.New("empty tool command")
	}

	argv := append(append([]string{}, p.Command[1:]...), args...)
	cmd := exec.CommandContext(ctx, p.Command[0], argv...)
	if len(p.Env) > 0 {
		cmd.Env = deduplicateEnv(append(os.Environ(), p.Env...))
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = toolWaitDelay
	setProcessGroup(cmd)

	err := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("%s: %w", p.Command[0], ctxErr)
	}

	result := &ToolResult{
		Stdout: stdout.Bytes(),
		Stderr: stderr.Bytes(),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("failed to run %s: %w", p.Command[0], err)
		}
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok {
			result.ExitCode = status.ExitStatus()
		} else {
			result.ExitCode = exitErr.ExitCode()
		}
	}

	return result, nil
}

// ToolError reports a non-zero exit from an external tool.
// ExitCode is propagated unchanged as the process exit status.
type ToolError struct {
	// Tool is the tool name (e.g. "pkgdata").
	Tool string
	// ExitCode is the tool's exit status.
	ExitCode int
	// Stderr is the tool's captured standard error.
	Stderr []byte
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("%s exited with status %d", e.Tool, e.ExitCode)
}

// deduplicateEnv keeps the last occurrence of each env var key,
// so appended entries win over inherited ones.
func deduplicateEnv(env []string) []string {
	seen := make(map[string]int, len(env))
	for i, entry := range env {
		key, _, _ := strings.Cut(entry, "=")
		seen[key] = i
	}
	result := make([]string, 0, len(seen))
	for i, entry := range env {
		key, _, _ := strings.Cut(entry, "=")
		if seen[key] == i {
			result = append(result, entry)
		}
	}
	return result
}
