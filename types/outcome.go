package types

// BuildState is a pipeline state.
// A run moves strictly forward through Init, Compiled, Manifested,
// Archived, Emitted and Finalized, or lands in Failed.
type BuildState string

const (
	StateInit       BuildState = "init"
	StateCompiled   BuildState = "compiled"
	StateManifested BuildState = "manifested"
	StateArchived   BuildState = "archived"
	StateEmitted    BuildState = "emitted"
	StateFinalized  BuildState = "finalized"
	StateFailed     BuildState = "failed"
)

// Terminal reports whether no further transition is possible.
func (s BuildState) Terminal() bool {
	return s == StateFinalized || s == StateFailed
}

// OutcomeStatus is the final classification of a build.
type OutcomeStatus string

const (
	// OutcomeSuccess indicates every stage succeeded.
	OutcomeSuccess OutcomeStatus = "success"
	// OutcomeToolFailure indicates an external tool exited non-zero.
	OutcomeToolFailure OutcomeStatus = "tool_failure"
	// OutcomeConfigError indicates the configuration was rejected.
	OutcomeConfigError OutcomeStatus = "config_error"
	// OutcomeInternalError indicates a filesystem or process-launch failure.
	OutcomeInternalError OutcomeStatus = "internal_error"
	// OutcomeCanceled indicates the run was interrupted or timed out.
	OutcomeCanceled OutcomeStatus = "canceled"
)
