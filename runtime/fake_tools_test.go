package runtime

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/justapithecus/icupack/manifest"
	"github.com/justapithecus/icupack/types"
)

// fakeToolchain simulates databuilder, pkgdata and genccode on the real
// filesystem without spawning processes.
type fakeToolchain struct {
	mu    sync.Mutex
	calls []string
	args  map[string][]string

	// fragments are written under --out_dir by the compiler.
	fragments map[string]string
	// loose files are written under --tmp_dir by the compiler.
	loose map[string]string

	// failTool exits with failCode and failStderr instead of doing work.
	failTool   string
	failCode   int
	failStderr string

	// stdout/stderr chatter produced on success.
	stdout string
	stderr string

	// emitterSkipsOutput makes genccode exit 0 without writing its artifact.
	emitterSkipsOutput bool
	// panicIn panics inside the named tool.
	panicIn string

	// coreSeenAtCompile lists build/ contents when the compiler ran.
	coreSeenAtCompile []string
}

func newFakeToolchain(fragments map[string]string) *fakeToolchain {
	return &fakeToolchain{
		fragments: fragments,
		loose:     map[string]string{},
		args:      map[string][]string{},
	}
}

func (f *fakeToolchain) toolSet() *ToolSet {
	return &ToolSet{
		Compiler: ToolFunc(func(_ context.Context, args []string) (*ToolResult, error) {
			return f.run(ToolCompiler, args, f.compile)
		}),
		Archiver: ToolFunc(func(_ context.Context, args []string) (*ToolResult, error) {
			return f.run(ToolArchiver, args, f.archive)
		}),
		Emitter: ToolFunc(func(_ context.Context, args []string) (*ToolResult, error) {
			return f.run(ToolEmitter, args, f.emit)
		}),
	}
}

func (f *fakeToolchain) run(name string, args []string, work func([]string) error) (*ToolResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.args[name] = append([]string{}, args...)
	f.mu.Unlock()

	if f.panicIn == name {
		panic(name + " blew up")
	}
	if f.failTool == name {
		return &ToolResult{ExitCode: f.failCode, Stderr: []byte(f.failStderr)}, nil
	}
	if err := work(args); err != nil {
		return nil, err
	}
	return &ToolResult{Stdout: []byte(f.stdout), Stderr: []byte(f.stderr)}, nil
}

func (f *fakeToolchain) compile(args []string) error {
	outDir := argValue(args, "--out_dir")
	tmpDir := argValue(args, "--tmp_dir")

	if entries, err := os.ReadDir(filepath.Join(outDir, types.CoreArchiveDir)); err == nil {
		for _, e := range entries {
			f.coreSeenAtCompile = append(f.coreSeenAtCompile, e.Name())
		}
	}
	if err := writeFiles(outDir, f.fragments); err != nil {
		return err
	}
	return writeFiles(tmpDir, f.loose)
}

// archive concatenates the manifest-listed fragments in manifest order.
func (f *fakeToolchain) archive(args []string) error {
	src := argValue(args, "-s")
	dst := argValue(args, "-d")
	pkg := argValue(args, "-p")
	entries, err := manifest.Read(args[len(args)-1])
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	for _, e := range entries {
		data, err := os.ReadFile(filepath.Join(src, filepath.FromSlash(e)))
		if err != nil {
			return err
		}
		fmt.Fprintf(&buf, "%s\x00%s\x00", e, data)
	}
	return os.WriteFile(filepath.Join(dst, pkg+".dat"), buf.Bytes(), 0o644)
}

func (f *fakeToolchain) emit(args []string) error {
	if f.emitterSkipsOutput {
		return nil
	}
	flavor := types.AssemblyFlavor(argValue(args, "--assembly"))
	archive := args[len(args)-1]
	name := types.ArtifactName(archive, flavor)
	body := fmt.Sprintf("entry %s from %s\n", argValue(args, "--name"), filepath.Base(archive))
	return os.WriteFile(filepath.Join(argValue(args, "--destdir"), name), []byte(body), 0o644)
}

func (f *fakeToolchain) callOrder() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.calls...)
}

func (f *fakeToolchain) argsFor(tool string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.args[tool]
}

func argValue(args []string, flag string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

func writeFiles(root string, files map[string]string) error {
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			return err
		}
	}
	return nil
}

// archiveEntries decodes an archive written by the fake archiver.
func archiveEntries(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read archive: %v", err)
	}
	parts := strings.Split(string(data), "\x00")
	var names []string
	for i := 0; i+1 < len(parts); i += 2 {
		names = append(names, parts[i])
	}
	sort.Strings(names)
	return names
}

// testPipelineConfig returns a valid main-build config rooted in temp dirs.
func testPipelineConfig(t *testing.T) *types.PipelineConfig {
	t.Helper()
	base := t.TempDir()
	src := filepath.Join(base, "src")
	tools := filepath.Join(base, "bin")
	work := filepath.Join(base, "work")
	for _, d := range []string{src, tools, work} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	return &types.PipelineConfig{
		SourceDir:   src,
		ToolDir:     tools,
		OutDir:      filepath.Join(base, "out"),
		PackageName: "icudt79l",
		EntryName:   "icudt79",
		Mode:        types.BuildModeMain,
		Platform:    types.PlatformLinux,
		WorkRoot:    work,
	}
}

// withTestData switches cfg to a test-data build with a seeded core archive.
func withTestData(t *testing.T, cfg *types.PipelineConfig) {
	t.Helper()
	core := filepath.Join(t.TempDir(), "icudt79l.dat")
	if err := os.WriteFile(core, []byte("core archive"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg.Mode = types.BuildModeTestData
	cfg.PackageName = "testdata"
	cfg.EntryName = "testdata"
	cfg.ICUDataFile = core
}

func assertNotExist(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("%s should not exist (stat err = %v)", path, err)
	}
}

func assertExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("%s should exist: %v", path, err)
	}
}

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read %s: %v", dir, err)
	}
	if len(entries) != 0 {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("%s should be empty, has %v", dir, names)
	}
}
