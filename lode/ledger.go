package lode

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/justapithecus/lode/lode"
)

// LedgerDataset is the dataset id of the build ledger.
const LedgerDataset = "icupack-builds"

// ErrNoLedgerEntry is returned when no ledger row matches a query.
var ErrNoLedgerEntry = errors.New("no ledger entry found")

// ledgerPartitionKeys is the Hive layout of the ledger. Every row carries
// these keys as fields.
var ledgerPartitionKeys = []string{"package", "platform", "day", "build_id"}

// LedgerEntry is one row per build, successful or not.
type LedgerEntry struct {
	BuildID       string    `json:"build_id" yaml:"build_id"`
	Package       string    `json:"package" yaml:"package"`
	Platform      string    `json:"platform" yaml:"platform"`
	Mode          string    `json:"mode" yaml:"mode"`
	Outcome       string    `json:"outcome" yaml:"outcome"`
	State         string    `json:"state" yaml:"state"`
	FailedStage   string    `json:"failed_stage,omitempty" yaml:"failed_stage,omitempty"`
	ExitCode      int       `json:"exit_code" yaml:"exit_code"`
	ArtifactName  string    `json:"artifact_name,omitempty" yaml:"artifact_name,omitempty"`
	ArchiveSHA256 string    `json:"archive_sha256,omitempty" yaml:"archive_sha256,omitempty"`
	ArchiveBytes  int64     `json:"archive_bytes,omitempty" yaml:"archive_bytes,omitempty"`
	Fragments     int       `json:"fragments" yaml:"fragments"`
	DurationMS    int64     `json:"duration_ms" yaml:"duration_ms"`
	CompletedAt   time.Time `json:"completed_at" yaml:"completed_at"`
	ToolVersion   string    `json:"tool_version,omitempty" yaml:"tool_version,omitempty"`
}

// Day is the ledger partition day (UTC).
func (e *LedgerEntry) Day() string {
	return e.CompletedAt.UTC().Format("2006-01-02")
}

func (e *LedgerEntry) toRecord() map[string]any {
	return map[string]any{
		"build_id":       e.BuildID,
		"package":        e.Package,
		"platform":       e.Platform,
		"day":            e.Day(),
		"mode":           e.Mode,
		"outcome":        e.Outcome,
		"state":          e.State,
		"failed_stage":   e.FailedStage,
		"exit_code":      e.ExitCode,
		"artifact_name":  e.ArtifactName,
		"archive_sha256": e.ArchiveSHA256,
		"archive_bytes":  e.ArchiveBytes,
		"fragments":      e.Fragments,
		"duration_ms":    e.DurationMS,
		"completed_at":   e.CompletedAt.UTC().Format(time.RFC3339Nano),
		"tool_version":   e.ToolVersion,
	}
}

func ledgerEntryFromRecord(rec map[string]any) LedgerEntry {
	e := LedgerEntry{
		BuildID:       toString(rec["build_id"]),
		Package:       toString(rec["package"]),
		Platform:      toString(rec["platform"]),
		Mode:          toString(rec["mode"]),
		Outcome:       toString(rec["outcome"]),
		State:         toString(rec["state"]),
		FailedStage:   toString(rec["failed_stage"]),
		ExitCode:      int(toInt64(rec["exit_code"])),
		ArtifactName:  toString(rec["artifact_name"]),
		ArchiveSHA256: toString(rec["archive_sha256"]),
		ArchiveBytes:  toInt64(rec["archive_bytes"]),
		Fragments:     int(toInt64(rec["fragments"])),
		DurationMS:    toInt64(rec["duration_ms"]),
		ToolVersion:   toString(rec["tool_version"]),
	}
	if ts, err := time.Parse(time.RFC3339Nano, toString(rec["completed_at"])); err == nil {
		e.CompletedAt = ts
	}
	return e
}

// Ledger appends build rows to a JSONL dataset.
type Ledger struct {
	ds lode.Dataset
}

// NewLedger opens the ledger dataset on factory.
func NewLedger(factory lode.StoreFactory) (*Ledger, error) {
	ds, err := lode.NewDataset(
		lode.DatasetID(LedgerDataset),
		factory,
		lode.WithHiveLayout(ledgerPartitionKeys...),
		lode.WithCodec(lode.NewJSONLCodec()),
	)
	if err != nil {
		return nil, wrapStorageError("init", LedgerDataset, err)
	}
	return &Ledger{ds: ds}, nil
}

// Append writes one row.
func (l *Ledger) Append(ctx context.Context, entry LedgerEntry) error {
	if entry.BuildID == "" || entry.Package == "" {
		return errors.New("ledger entry requires build_id and package")
	}
	_, err := l.ds.Write(ctx, []any{entry.toRecord()}, lode.Metadata{})
	return wrapStorageError("write", LedgerDataset, err)
}

// Latest returns the most recent row, optionally filtered by package.
func (l *Ledger) Latest(ctx context.Context, pkg string) (*LedgerEntry, error) {
	snapshots, err := l.ds.Snapshots(ctx)
	if err != nil {
		return nil, wrapStorageError("read", LedgerDataset, err)
	}

	for i := len(snapshots) - 1; i >= 0; i-- {
		snap := snapshots[i]
		if pkg != "" && !snapshotHasPartition(snap, "package", pkg) {
			continue
		}

		data, err := l.ds.Read(ctx, snap.ID)
		if err != nil {
			return nil, wrapStorageError("read", fmt.Sprintf("%s/%s", LedgerDataset, snap.ID), err)
		}
		for j := len(data) - 1; j >= 0; j-- {
			rec, ok := data[j].(map[string]any)
			if !ok {
				continue
			}
			entry := ledgerEntryFromRecord(rec)
			if pkg != "" && entry.Package != pkg {
				continue
			}
			return &entry, nil
		}
	}
	return nil, ErrNoLedgerEntry
}

// snapshotHasPartition reports whether any file in snap lives under an
// exact key=value path segment.
func snapshotHasPartition(snap *lode.DatasetSnapshot, key, value string) bool {
	if snap.Manifest == nil {
		return false
	}
	segment := key + "=" + value
	for _, f := range snap.Manifest.Files {
		for _, part := range strings.Split(f.Path, "/") {
			if part == segment {
				return true
			}
		}
	}
	return false
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// toInt64 accepts the numeric types JSON decoding may produce.
func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}
