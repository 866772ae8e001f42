// Package types defines core domain types for the icupack build pipeline.
//
//nolint:revive // types is a common Go package naming convention
package types

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// BuildMode selects between a main-library build and a test-data build.
type BuildMode string

const (
	// BuildModeMain builds the library's data archive.
	BuildModeMain BuildMode = "main"
	// BuildModeTestData builds a test-data archive against a pre-built core archive.
	BuildModeTestData BuildMode = "testdata"
)

// CoreArchiveDir is the fragment-tree subdirectory seeded with the core
// archive during test-data builds. It is never packaged.
const CoreArchiveDir = "build"

// StandaloneFiles are compiler outputs delivered next to a test-data
// archive instead of inside it.
var StandaloneFiles = []string{"zoneinfo64.res", "nam.typ"}

// ParseBuildMode parses a build mode name.
func ParseBuildMode(s string) (BuildMode, error) {
	switch BuildMode(s) {
	case BuildModeMain:
		return BuildModeMain, nil
	case BuildModeTestData:
		return BuildModeTestData, nil
	default:
		return "", fmt.Errorf("unknown build mode %q (valid: main, testdata)", s)
	}
}

// ExcludedSubtrees returns the fragment-tree subtrees left out of the manifest.
func (m BuildMode) ExcludedSubtrees() []string {
	if m == BuildModeTestData {
		return []string{CoreArchiveDir}
	}
	return nil
}

// ErrInvalidConfig is matched by every ConfigError.
var ErrInvalidConfig = errors.New("invalid configuration")

// ConfigError reports a configuration problem detected before any
// working state is created.
type ConfigError struct {
	// Field is the configuration key at fault (e.g. "source_dir").
	Field string
	// Message describes the problem and, where possible, the fix.
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Is reports whether target is ErrInvalidConfig.
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}

// PipelineConfig is the immutable input to one pipeline run.
type PipelineConfig struct {
	// SourceDir is the resource source-data tree.
	SourceDir string
	// ToolDir holds the resource compiler, archiver and code emitter.
	ToolDir string
	// OutDir is the final output root.
	OutDir string
	// PackageName names the archive (e.g. "icudt79l").
	PackageName string
	// EntryName is the linker entry-point symbol base.
	EntryName string
	// IncludeCoreData is forwarded to the resource compiler.
	IncludeCoreData bool
	// Verbose echoes sub-tool stdout and passes verbose flags through.
	Verbose bool
	// ICUDataFile is the pre-built core archive. Required for test-data builds.
	ICUDataFile string
	// Mode selects the build flavor.
	Mode BuildMode
	// Platform selects the code-emission policy.
	Platform Platform
	// WorkRoot is the parent of the ephemeral working tree.
	// Empty means the OS temp directory.
	WorkRoot string
}

// Validate checks the configuration eagerly.
// Nothing has been created on disk when it returns an error.
func (c *PipelineConfig) Validate() error {
	if err := requireDir("source_dir", c.SourceDir, "--src-dir"); err != nil {
		return err
	}
	if err := requireDir("tool_dir", c.ToolDir, "--tool-dir"); err != nil {
		return err
	}
	if c.OutDir == "" {
		return &ConfigError{Field: "out_dir", Message: "must be set (use --out-dir)"}
	}
	if c.PackageName == "" {
		return &ConfigError{Field: "package_name", Message: "must be set (use --pkg-name)"}
	}
	if strings.ContainsAny(c.PackageName, `/\`) || c.PackageName == "." || c.PackageName == ".." {
		return &ConfigError{Field: "package_name", Message: fmt.Sprintf("%q must be a plain name, not a path", c.PackageName)}
	}
	if c.EntryName == "" {
		return &ConfigError{Field: "entry_name", Message: "must be set (use --entry-name)"}
	}
	if _, err := ParseBuildMode(string(c.Mode)); err != nil {
		return &ConfigError{Field: "mode", Message: err.Error()}
	}
	if !c.Platform.Valid() {
		return &ConfigError{Field: "platform", Message: fmt.Sprintf("unknown platform %q (valid: linux, darwin, windows, other-unix)", c.Platform)}
	}
	if c.Mode == BuildModeTestData {
		if c.ICUDataFile == "" {
			return &ConfigError{Field: "icu_data_file", Message: "required for test-data builds (use --icu-data-file)"}
		}
		info, err := os.Stat(c.ICUDataFile)
		if err != nil {
			return &ConfigError{Field: "icu_data_file", Message: fmt.Sprintf("%s: %v", c.ICUDataFile, err)}
		}
		if !info.Mode().IsRegular() {
			return &ConfigError{Field: "icu_data_file", Message: fmt.Sprintf("%s is not a regular file", c.ICUDataFile)}
		}
	}
	if c.WorkRoot != "" {
		if err := requireDir("work_dir", c.WorkRoot, "--work-dir"); err != nil {
			return err
		}
	}
	return nil
}

func requireDir(field, path, flag string) error {
	if path == "" {
		return &ConfigError{Field: field, Message: fmt.Sprintf("must be set (use %s)", flag)}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &ConfigError{Field: field, Message: fmt.Sprintf("directory does not exist: %s", path)}
		}
		return &ConfigError{Field: field, Message: err.Error()}
	}
	if !info.IsDir() {
		return &ConfigError{Field: field, Message: fmt.Sprintf("not a directory: %s", path)}
	}
	return nil
}

// BuildMeta identifies one pipeline run in logs, reports and records.
type BuildMeta struct {
	// BuildID is unique per run.
	BuildID string
	// PackageName is the archive being built.
	PackageName string
	// Mode is the build flavor.
	Mode BuildMode
	// Platform is the code-emission policy in force.
	Platform Platform
}

// Validate checks that the identity fields are populated.
func (m *BuildMeta) Validate() error {
	if m.BuildID == "" {
		return errors.New("build_id must be non-empty")
	}
	if m.PackageName == "" {
		return errors.New("package_name must be non-empty")
	}
	return nil
}
