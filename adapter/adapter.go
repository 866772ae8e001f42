// Package adapter defines the notification boundary for finished builds.
//
// Adapters publish a build_completed event to a downstream system after
// the pipeline has returned. Notification is best-effort: a failed publish
// never changes the build's outcome.
package adapter

import (
	"context"
	"time"

	"github.com/justapithecus/icupack/runtime"
	"github.com/justapithecus/icupack/types"
)

// EventTypeBuildCompleted is the only event type adapters publish.
const EventTypeBuildCompleted = "build_completed"

// BuildCompletedEvent is the payload published when a build finishes.
type BuildCompletedEvent struct {
	EventType     string `json:"event_type"`
	ToolVersion   string `json:"tool_version"`
	BuildID       string `json:"build_id"`
	Package       string `json:"package"`
	Mode          string `json:"mode"`
	Platform      string `json:"platform"`
	Outcome       string `json:"outcome"`
	ExitCode      int    `json:"exit_code"`
	FailedStage   string `json:"failed_stage,omitempty"`
	Message       string `json:"message,omitempty"`
	ArtifactPath  string `json:"artifact_path,omitempty"`
	ArchiveSHA256 string `json:"archive_sha256,omitempty"`
	ArchiveBytes  int64  `json:"archive_bytes,omitempty"`
	PublishPrefix string `json:"publish_prefix,omitempty"`
	Timestamp     string `json:"timestamp"` // RFC 3339
	DurationMs    int64  `json:"duration_ms"`
}

// NewBuildCompletedEvent derives an event from a build report.
// publishPrefix is empty when artifacts were not published.
func NewBuildCompletedEvent(report *runtime.BuildReport, publishPrefix string, at time.Time) *BuildCompletedEvent {
	ev := &BuildCompletedEvent{
		EventType:     EventTypeBuildCompleted,
		ToolVersion:   types.Version,
		BuildID:       report.BuildID,
		Package:       report.Package,
		Mode:          string(report.Mode),
		Platform:      string(report.Platform),
		Outcome:       string(report.Outcome),
		ExitCode:      report.ExitCode,
		FailedStage:   string(report.FailedStage),
		Message:       report.Message,
		PublishPrefix: publishPrefix,
		Timestamp:     at.UTC().Format(time.RFC3339),
		DurationMs:    report.DurationMs,
	}
	if a := report.Artifacts; a != nil && report.Outcome == types.OutcomeSuccess {
		ev.ArtifactPath = a.Generated
		ev.ArchiveSHA256 = a.ArchiveSHA256
		ev.ArchiveBytes = a.ArchiveBytes
	}
	return ev
}

// Adapter publishes build completion events to a downstream system.
// Implementations are single-use per build.
type Adapter interface {
	// Publish sends the event. Must respect context cancellation.
	Publish(ctx context.Context, event *BuildCompletedEvent) error

	// Close releases adapter resources.
	Close() error
}
