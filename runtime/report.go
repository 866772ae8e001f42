package runtime

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/justapithecus/icupack/metrics"
	"github.com/justapithecus/icupack/types"
)

// BuildReport is the structured JSON report written by --report.
type BuildReport struct {
	BuildID     string              `json:"build_id"`
	Package     string              `json:"package"`
	Mode        types.BuildMode     `json:"mode"`
	Platform    types.Platform      `json:"platform"`
	Outcome     types.OutcomeStatus `json:"outcome"`
	State       types.BuildState    `json:"state"`
	States      []types.BuildState  `json:"states"`
	FailedStage Stage               `json:"failed_stage,omitempty"`
	Message     string              `json:"message"`
	ExitCode    int                 `json:"exit_code"`
	DurationMs  int64               `json:"duration_ms"`

	Artifacts *ReportArtifacts `json:"artifacts,omitempty"`
	Metrics   *metrics.Snapshot `json:"metrics"`

	ToolStderr string `json:"tool_stderr,omitempty"`
}

// ReportArtifacts describes what the build delivered.
type ReportArtifacts struct {
	Fragments     int               `json:"fragments"`
	Archive       string            `json:"archive,omitempty"`
	ArchiveSHA256 string            `json:"archive_sha256,omitempty"`
	ArchiveBytes  int64             `json:"archive_bytes"`
	Generated     string            `json:"generated,omitempty"`
	Standalone    *StandaloneResult `json:"standalone,omitempty"`
}

// NewBuildReport composes a BuildReport from a result, the run error,
// and a metrics snapshot.
func NewBuildReport(result *BuildResult, runErr error, snap metrics.Snapshot) *BuildReport {
	report := &BuildReport{
		BuildID:     result.Meta.BuildID,
		Package:     result.Meta.PackageName,
		Mode:        result.Meta.Mode,
		Platform:    result.Meta.Platform,
		Outcome:     result.Outcome,
		State:       result.State,
		States:      result.States,
		FailedStage: result.FailedStage,
		Message:     "build completed successfully",
		ExitCode:    ExitCodeFor(runErr),
		DurationMs:  result.Duration.Milliseconds(),
		Metrics:     &snap,
	}
	if runErr != nil {
		report.Message = runErr.Error()
		var toolErr *ToolError
		if errors.As(runErr, &toolErr) {
			report.ToolStderr = string(toolErr.Stderr)
		}
	}
	if result.State != types.StateInit {
		report.Artifacts = &ReportArtifacts{
			Fragments:     len(result.Manifest),
			Archive:       result.ArchivePath,
			ArchiveSHA256: result.ArchiveSHA256,
			ArchiveBytes:  result.ArchiveBytes,
			Generated:     result.ArtifactPath,
			Standalone:    result.Standalone,
		}
	}
	return report
}

// WriteBuildReport writes the report as JSON to the specified path.
// If path is "-", writes to stderr.
func WriteBuildReport(report *BuildReport, path string) error {
	if path == "" {
		return errors.New("report path must not be empty")
	}
	if path == "-" {
		if err := writeBuildReportTo(report, os.Stderr); err != nil {
			return fmt.Errorf("failed to write report to stderr: %w", err)
		}
		return nil
	}

	data, err := marshalReport(report)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report to %s: %w", path, err)
	}
	return nil
}

// writeBuildReportTo writes report JSON to any writer.
func writeBuildReportTo(report *BuildReport, w io.Writer) error {
	data, err := marshalReport(report)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func marshalReport(report *BuildReport) ([]byte, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}
	return append(data, '\n'), nil
}
