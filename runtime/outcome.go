package runtime

import (
	"context"
	"errors"

	"github.com/justapithecus/icupack/types"
)

// Process exit codes. A failing tool's own exit code is used unchanged
// and takes precedence over all of these.
const (
	ExitCodeSuccess     = 0
	ExitCodeInternal    = 1   // filesystem or launch failure
	ExitCodeConfig      = 2   // configuration rejected
	ExitCodeTimeout     = 124 // --timeout expired
	ExitCodeInterrupted = 130 // SIGINT/SIGTERM
)

// ClassifyError maps a pipeline error onto an outcome.
func ClassifyError(err error) types.OutcomeStatus {
	var toolErr *ToolError
	switch {
	case err == nil:
		return types.OutcomeSuccess
	case errors.Is(err, types.ErrInvalidConfig):
		return types.OutcomeConfigError
	case errors.As(err, &toolErr):
		return types.OutcomeToolFailure
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return types.OutcomeCanceled
	default:
		return types.OutcomeInternalError
	}
}

// ExitCodeFor returns the process exit code for a pipeline error.
//
// Exit code mapping:
//   - nil: 0
//   - *ToolError: the tool's exit code, verbatim (1 if it was killed)
//   - configuration error: 2
//   - deadline exceeded: 124
//   - canceled: 130
//   - anything else: 1
func ExitCodeFor(err error) int {
	if err == nil {
		return ExitCodeSuccess
	}
	var toolErr *ToolError
	if errors.As(err, &toolErr) {
		if toolErr.ExitCode > 0 {
			return toolErr.ExitCode
		}
		return ExitCodeInternal
	}
	switch {
	case errors.Is(err, types.ErrInvalidConfig):
		return ExitCodeConfig
	case errors.Is(err, context.DeadlineExceeded):
		return ExitCodeTimeout
	case errors.Is(err, context.Canceled):
		return ExitCodeInterrupted
	default:
		return ExitCodeInternal
	}
}
