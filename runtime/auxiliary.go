package runtime

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/justapithecus/icupack/iox"
	"github.com/justapithecus/icupack/log"
	"github.com/justapithecus/icupack/metrics"
)

// AuxiliaryCopier moves the extra files test-data builds need around the
// archive: the seeded core archive going in, the standalone files coming out.
type AuxiliaryCopier struct {
	logger    *log.Logger
	collector *metrics.Collector
}

// NewAuxiliaryCopier creates an AuxiliaryCopier.
func NewAuxiliaryCopier(logger *log.Logger, collector *metrics.Collector) *AuxiliaryCopier {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &AuxiliaryCopier{logger: logger, collector: collector}
}

// SeedCoreArchive copies coreArchive into dir, keeping its base name,
// and returns the destination path. The resource compiler reads it to
// resolve tailoring rules, so seeding must finish before compilation.
func (a *AuxiliaryCopier) SeedCoreArchive(coreArchive, dir string) (string, error) {
	dst := filepath.Join(dir, filepath.Base(coreArchive))
	if _, err := iox.CopyFile(coreArchive, dst); err != nil {
		return "", fmt.Errorf("seed core archive: %w", err)
	}
	a.logger.Debug("seeded core archive", map[string]any{
		"src": coreArchive,
		"dst": dst,
	})
	return dst, nil
}

// StandaloneResult lists which standalone files were delivered.
type StandaloneResult struct {
	Copied  []string `json:"copied"`
	Missing []string `json:"missing,omitempty"`
}

// CopyStandalone copies each named file from srcDir to destDir.
// A file absent from srcDir is a warning, not an error: not every
// configuration produces every optional output. Any other failure aborts.
func (a *AuxiliaryCopier) CopyStandalone(srcDir, destDir string, names []string) (*StandaloneResult, error) {
	result := &StandaloneResult{Copied: []string{}}
	for _, name := range names {
		src := filepath.Join(srcDir, name)
		if _, err := os.Stat(src); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				a.collector.IncStandaloneMissing()
				a.logger.Warn("standalone file not found", map[string]any{"file": src})
				result.Missing = append(result.Missing, name)
				continue
			}
			return result, fmt.Errorf("stat standalone file: %w", err)
		}

		dst := filepath.Join(destDir, name)
		if _, err := iox.CopyFile(src, dst); err != nil {
			return result, fmt.Errorf("copy standalone file %s: %w", name, err)
		}
		a.collector.IncStandaloneCopied()
		a.logger.Debug("copied standalone file", map[string]any{
			"src": src,
			"dst": dst,
		})
		result.Copied = append(result.Copied, name)
	}
	return result, nil
}
