package runtime

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/justapithecus/icupack/types"
)

// WorkingTree is the ephemeral directory tree one pipeline run works in.
//
//	<root>/out/<package>/         compiled fragments
//	<root>/out/<package>/build/   seeded core archive (test-data builds)
//	<root>/tmp/                   manifest, archive, loose compiler outputs
//
// Nothing outside the orchestrator may assume it outlives the run.
type WorkingTree struct {
	// Root is the ephemeral root directory.
	Root string
	// FragmentDir is out/<package>.
	FragmentDir string
	// TmpDir is tmp.
	TmpDir string

	packageName string
	once        sync.Once
	releaseErr  error
}

// AcquireWorkingTree creates a fresh working tree under parent.
// An empty parent means the OS temp directory. On error nothing is left behind.
func AcquireWorkingTree(parent, packageName string) (*WorkingTree, error) {
	root, err := os.MkdirTemp(parent, "icupack-")
	if err != nil {
		return nil, fmt.Errorf("create working root: %w", err)
	}

	tree := &WorkingTree{
		Root:        root,
		FragmentDir: filepath.Join(root, "out", packageName),
		TmpDir:      filepath.Join(root, "tmp"),
		packageName: packageName,
	}
	for _, dir := range []string{tree.FragmentDir, tree.TmpDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			_ = os.RemoveAll(root)
			return nil, fmt.Errorf("create working region: %w", err)
		}
	}
	return tree, nil
}

// CoreArchiveDir is the fragment subtree seeded for test-data builds.
func (w *WorkingTree) CoreArchiveDir() string {
	return filepath.Join(w.FragmentDir, types.CoreArchiveDir)
}

// ManifestPath is tmp/<package>.lst.
func (w *WorkingTree) ManifestPath() string {
	return filepath.Join(w.TmpDir, w.packageName+".lst")
}

// ArchivePath is tmp/<package>.dat.
func (w *WorkingTree) ArchivePath() string {
	return filepath.Join(w.TmpDir, w.packageName+".dat")
}

// Release removes the whole tree. It is safe to call more than once;
// later calls return the first result.
func (w *WorkingTree) Release() error {
	w.once.Do(func() {
		if err := os.RemoveAll(w.Root); err != nil {
			w.releaseErr = fmt.Errorf("remove working root: %w", err)
		}
	})
	return w.releaseErr
}
