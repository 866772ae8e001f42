package runtime

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/justapithecus/icupack/types"
)

// RecordFormatVersion is bumped on incompatible BuildRecord changes.
const RecordFormatVersion = 1

// BuildRecord fingerprints a successful build. It is msgpack-encoded and
// written with --record so a later `icupack inspect` can show exactly what
// an archive contains and verify it was not altered.
type BuildRecord struct {
	FormatVersion  int                  `msgpack:"format_version" json:"format_version" yaml:"format_version"`
	BuildID        string               `msgpack:"build_id" json:"build_id" yaml:"build_id"`
	PackageName    string               `msgpack:"package_name" json:"package_name" yaml:"package_name"`
	EntryName      string               `msgpack:"entry_name" json:"entry_name" yaml:"entry_name"`
	Mode           types.BuildMode      `msgpack:"mode" json:"mode" yaml:"mode"`
	Platform       types.Platform       `msgpack:"platform" json:"platform" yaml:"platform"`
	AssemblyFlavor types.AssemblyFlavor `msgpack:"assembly_flavor" json:"assembly_flavor" yaml:"assembly_flavor"`
	ArtifactName   string               `msgpack:"artifact_name" json:"artifact_name" yaml:"artifact_name"`
	ArchiveSHA256  string               `msgpack:"archive_sha256" json:"archive_sha256" yaml:"archive_sha256"`
	ArchiveBytes   int64                `msgpack:"archive_bytes" json:"archive_bytes" yaml:"archive_bytes"`
	Manifest       []string             `msgpack:"manifest" json:"manifest" yaml:"manifest"`
	ManifestSHA256 string               `msgpack:"manifest_sha256" json:"manifest_sha256" yaml:"manifest_sha256"`
	Standalone     []string             `msgpack:"standalone,omitempty" json:"standalone,omitempty" yaml:"standalone,omitempty"`
	CompletedAt    time.Time            `msgpack:"completed_at" json:"completed_at" yaml:"completed_at"`
	ToolVersion    string               `msgpack:"tool_version" json:"tool_version" yaml:"tool_version"`
}

// ErrDigestMismatch indicates an archive no longer matches its record.
var ErrDigestMismatch = errors.New("archive digest mismatch")

// NewBuildRecord creates a record from a successful result.
func NewBuildRecord(result *BuildResult, entryName string, completedAt time.Time) (*BuildRecord, error) {
	if result == nil || result.Outcome != types.OutcomeSuccess {
		return nil, errors.New("build record requires a successful build")
	}
	rec := &BuildRecord{
		FormatVersion:  RecordFormatVersion,
		BuildID:        result.Meta.BuildID,
		PackageName:    result.Meta.PackageName,
		EntryName:      entryName,
		Mode:           result.Meta.Mode,
		Platform:       result.Meta.Platform,
		AssemblyFlavor: result.Meta.Platform.AssemblyFlavor(),
		ArtifactName:   result.ArtifactName,
		ArchiveSHA256:  result.ArchiveSHA256,
		ArchiveBytes:   result.ArchiveBytes,
		Manifest:       append([]string{}, result.Manifest...),
		ManifestSHA256: ManifestSHA256(result.Manifest),
		CompletedAt:    completedAt.UTC(),
		ToolVersion:    types.Version,
	}
	if result.Standalone != nil {
		rec.Standalone = append([]string{}, result.Standalone.Copied...)
	}
	return rec, nil
}

// MarshalRecord encodes a record as msgpack.
func MarshalRecord(rec *BuildRecord) ([]byte, error) {
	data, err := msgpack.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode build record: %w", err)
	}
	return data, nil
}

// UnmarshalRecord decodes a msgpack record and checks its format version.
func UnmarshalRecord(data []byte) (*BuildRecord, error) {
	var rec BuildRecord
	if err := msgpack.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode build record: %w", err)
	}
	if rec.FormatVersion != RecordFormatVersion {
		return nil, fmt.Errorf("unsupported build record format %d (want %d)", rec.FormatVersion, RecordFormatVersion)
	}
	return &rec, nil
}

// WriteBuildRecord writes rec to path.
func WriteBuildRecord(rec *BuildRecord, path string) error {
	data, err := MarshalRecord(rec)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write build record to %s: %w", path, err)
	}
	return nil
}

// ReadBuildRecord reads a record written by WriteBuildRecord.
func ReadBuildRecord(path string) (*BuildRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read build record: %w", err)
	}
	return UnmarshalRecord(data)
}

// VerifyArchive recomputes the digest of archivePath and compares it
// with the record.
func (r *BuildRecord) VerifyArchive(archivePath string) error {
	digest, err := FileSHA256(archivePath)
	if err != nil {
		return fmt.Errorf("hash archive: %w", err)
	}
	if digest != r.ArchiveSHA256 {
		return fmt.Errorf("%w: %s has %s, record has %s", ErrDigestMismatch, archivePath, digest, r.ArchiveSHA256)
	}
	return nil
}
