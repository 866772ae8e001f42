package runtime

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/justapithecus/icupack/types"
)

// DefaultCompilerCommand runs the resource compiler as a Python module.
var DefaultCompilerCommand = []string{"python3", "-m", "icutools.databuilder"}

// ToolSet holds the three external tools a pipeline run invokes.
type ToolSet struct {
	Compiler ExternalTool
	Archiver ExternalTool
	Emitter  ExternalTool
}

// ResolveToolSet locates pkgdata and genccode under toolDir and builds
// process-backed tools. A missing executable is reported as a
// configuration error.
//
// The compiler is, in order: compilerCommand when non-empty, a
// databuilder executable in toolDir, or DefaultCompilerCommand. The
// Python fallback runs with PYTHONPATH set to the python tree that sits
// beside sourceDir, when one exists.
func ResolveToolSet(toolDir, sourceDir string, platform types.Platform, compilerCommand []string) (*ToolSet, error) {
	compiler := resolveCompiler(toolDir, sourceDir, platform, compilerCommand)

	archiver, err := findExecutable(toolDir, ToolArchiver, platform)
	if err != nil {
		return nil, err
	}
	emitter, err := findExecutable(toolDir, ToolEmitter, platform)
	if err != nil {
		return nil, err
	}

	return &ToolSet{
		Compiler: compiler,
		Archiver: NewProcessTool(archiver),
		Emitter:  NewProcessTool(emitter),
	}, nil
}

func resolveCompiler(toolDir, sourceDir string, platform types.Platform, command []string) *ProcessTool {
	if len(command) > 0 {
		return NewProcessTool(command...)
	}
	if path, err := findExecutable(toolDir, ToolCompiler, platform); err == nil {
		return NewProcessTool(path)
	}
	tool := NewProcessTool(DefaultCompilerCommand...)
	if dir := pythonDir(sourceDir); dir != "" {
		tool.Env = []string{"PYTHONPATH=" + pythonPath(dir)}
	}
	return tool
}

// pythonDir returns the icutools tree for an ICU data directory
// (<source>/data -> <source>/python), or "" if it is absent.
func pythonDir(sourceDir string) string {
	if sourceDir == "" {
		return ""
	}
	dir, err := filepath.Abs(filepath.Join(sourceDir, "..", "python"))
	if err != nil {
		return ""
	}
	if info, err := os.Stat(filepath.Join(dir, "icutools")); err != nil || !info.IsDir() {
		return ""
	}
	return dir
}

// pythonPath prepends dir to any inherited PYTHONPATH.
func pythonPath(dir string) string {
	if existing := os.Getenv("PYTHONPATH"); existing != "" {
		return dir + string(os.PathListSeparator) + existing
	}
	return dir
}

// findExecutable prefers the platform-suffixed name and falls back to the bare one.
func findExecutable(toolDir, name string, platform types.Platform) (string, error) {
	candidates := []string{filepath.Join(toolDir, name+platform.ExecutableSuffix())}
	if platform.ExecutableSuffix() != "" {
		candidates = append(candidates, filepath.Join(toolDir, name))
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && info.Mode().IsRegular() {
			return c, nil
		}
	}
	return "", &types.ConfigError{
		Field:   "tool_dir",
		Message: fmt.Sprintf("%s not found in %s", name, toolDir),
	}
}
