// Package metrics provides per-build metrics collection.
//
// The Collector accumulates counters during a single pipeline run and is
// snapshotted into the build report at the end. It is a leaf package with
// no internal dependencies; stage and tool names are plain strings.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of all build metrics.
// Returned by Collector.Snapshot(). Safe to read concurrently after creation.
type Snapshot struct {
	// Build lifecycle
	BuildsStarted   int64 `json:"builds_started"`
	BuildsSucceeded int64 `json:"builds_succeeded"`
	BuildsFailed    int64 `json:"builds_failed"`

	// Stage transitions, keyed by the state entered
	StagesCompleted map[string]int64 `json:"stages_completed"`

	// External tools, keyed by tool name
	ToolInvocations map[string]int64 `json:"tool_invocations"`
	ToolFailures    map[string]int64 `json:"tool_failures"`

	// Package contents
	FragmentsListed   int64 `json:"fragments_listed"`
	ArchiveBytes      int64 `json:"archive_bytes"`
	StandaloneCopied  int64 `json:"standalone_copied"`
	StandaloneMissing int64 `json:"standalone_missing"`

	// Post-build delivery
	PublishSuccess int64 `json:"publish_success"`
	PublishFailure int64 `json:"publish_failure"`
	NotifySuccess  int64 `json:"notify_success"`
	NotifyFailure  int64 `json:"notify_failure"`

	// Dimensions (informational, set at construction)
	Package  string `json:"package"`
	Platform string `json:"platform"`
	Mode     string `json:"mode"`
	BuildID  string `json:"build_id"`
}

// Collector accumulates metrics during a single build.
// Thread-safe via sync.Mutex. All methods are nil-receiver safe.
type Collector struct {
	mu sync.Mutex

	buildsStarted   int64
	buildsSucceeded int64
	buildsFailed    int64

	stagesCompleted map[string]int64
	toolInvocations map[string]int64
	toolFailures    map[string]int64

	fragmentsListed   int64
	archiveBytes      int64
	standaloneCopied  int64
	standaloneMissing int64

	publishSuccess int64
	publishFailure int64
	notifySuccess  int64
	notifyFailure  int64

	pkg      string
	platform string
	mode     string
	buildID  string
}

// NewCollector creates a Collector with dimension labels.
func NewCollector(pkg, platform, mode, buildID string) *Collector {
	return &Collector{
		stagesCompleted: make(map[string]int64),
		toolInvocations: make(map[string]int64),
		toolFailures:    make(map[string]int64),
		pkg:             pkg,
		platform:        platform,
		mode:            mode,
		buildID:         buildID,
	}
}

// --- Build lifecycle ---

// IncBuildStarted records a build start.
func (c *Collector) IncBuildStarted() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.buildsStarted++
	c.mu.Unlock()
}

// IncBuildSucceeded records a build that reached its terminal success state.
func (c *Collector) IncBuildSucceeded() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.buildsSucceeded++
	c.mu.Unlock()
}

// IncBuildFailed records a build that ended in the failed state.
func (c *Collector) IncBuildFailed() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.buildsFailed++
	c.mu.Unlock()
}

// IncStageCompleted records entry into a pipeline state.
func (c *Collector) IncStageCompleted(state string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.stagesCompleted[state]++
	c.mu.Unlock()
}

// --- External tools ---

// IncToolInvocation records one launch of an external tool.
func (c *Collector) IncToolInvocation(tool string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.toolInvocations[tool]++
	c.mu.Unlock()
}

// IncToolFailure records a non-zero exit or launch failure of an external tool.
func (c *Collector) IncToolFailure(tool string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.toolFailures[tool]++
	c.mu.Unlock()
}

// --- Package contents ---

// SetFragmentsListed records the manifest size.
func (c *Collector) SetFragmentsListed(n int) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.fragmentsListed = int64(n)
	c.mu.Unlock()
}

// SetArchiveBytes records the archive size.
func (c *Collector) SetArchiveBytes(n int64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.archiveBytes = n
	c.mu.Unlock()
}

// IncStandaloneCopied records a standalone file delivered to the output.
func (c *Collector) IncStandaloneCopied() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.standaloneCopied++
	c.mu.Unlock()
}

// IncStandaloneMissing records a standalone file the compiler did not produce.
func (c *Collector) IncStandaloneMissing() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.standaloneMissing++
	c.mu.Unlock()
}

// --- Post-build delivery ---
// Counters are per-call: one publish of N artifacts counts once.

// IncPublishSuccess records a successful artifact publish.
func (c *Collector) IncPublishSuccess() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.publishSuccess++
	c.mu.Unlock()
}

// IncPublishFailure records a failed artifact publish.
func (c *Collector) IncPublishFailure() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.publishFailure++
	c.mu.Unlock()
}

// IncNotifySuccess records a delivered build notification.
func (c *Collector) IncNotifySuccess() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.notifySuccess++
	c.mu.Unlock()
}

// IncNotifyFailure records a failed build notification.
func (c *Collector) IncNotifyFailure() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.notifyFailure++
	c.mu.Unlock()
}

// --- Snapshot ---

// Snapshot returns an immutable point-in-time view of all metrics.
// The Collector can continue to be mutated independently.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		BuildsStarted:   c.buildsStarted,
		BuildsSucceeded: c.buildsSucceeded,
		BuildsFailed:    c.buildsFailed,

		StagesCompleted: copyCounts(c.stagesCompleted),
		ToolInvocations: copyCounts(c.toolInvocations),
		ToolFailures:    copyCounts(c.toolFailures),

		FragmentsListed:   c.fragmentsListed,
		ArchiveBytes:      c.archiveBytes,
		StandaloneCopied:  c.standaloneCopied,
		StandaloneMissing: c.standaloneMissing,

		PublishSuccess: c.publishSuccess,
		PublishFailure: c.publishFailure,
		NotifySuccess:  c.notifySuccess,
		NotifyFailure:  c.notifyFailure,

		Package:  c.pkg,
		Platform: c.platform,
		Mode:     c.mode,
		BuildID:  c.buildID,
	}
}

func copyCounts(m map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
