package cmd

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v2"

	icupackconfig "github.com/justapithecus/icupack/cli/config"
	icupacklode "github.com/justapithecus/icupack/lode"
	"github.com/justapithecus/icupack/log"
	"github.com/justapithecus/icupack/metrics"
	"github.com/justapithecus/icupack/runtime"
	"github.com/justapithecus/icupack/types"
)

// recordObjectName is the published name of the msgpack build record.
const recordObjectName = "build.msgpack"

// publishChoice holds the resolved publish destination.
type publishChoice struct {
	store icupacklode.StoreConfig
}

// parsePublishConfig resolves the publish destination.
// Returns nil when publishing is not configured.
func parsePublishConfig(c *cli.Context, cfg *icupackconfig.Config) (*publishChoice, error) {
	backend := resolveString(c, "publish-backend", configVal(cfg, func(c *icupackconfig.Config) string { return c.Publish.Backend }))
	if backend == "" {
		return nil, nil
	}
	choice := &publishChoice{store: icupacklode.StoreConfig{
		Backend:      icupacklode.Backend(backend),
		Path:         resolveString(c, "publish-path", configVal(cfg, func(c *icupackconfig.Config) string { return c.Publish.Path })),
		Region:       resolveString(c, "publish-s3-region", configVal(cfg, func(c *icupackconfig.Config) string { return c.Publish.Region })),
		Endpoint:     resolveString(c, "publish-s3-endpoint", configVal(cfg, func(c *icupackconfig.Config) string { return c.Publish.Endpoint })),
		UsePathStyle: resolveBool(c, "publish-s3-path-style", configVal(cfg, func(c *icupackconfig.Config) bool { return c.Publish.S3PathStyle })),
	}}
	if err := choice.store.Validate(); err != nil {
		return nil, err
	}
	return choice, nil
}

// publishFiles lists the objects uploaded for a successful build.
func publishFiles(result *runtime.BuildResult, record *runtime.BuildRecord, outDir string) ([]icupacklode.PublishFile, error) {
	files := []icupacklode.PublishFile{
		{Name: filepath.Base(result.ArchivePath), Path: result.ArchivePath},
		{Name: result.ArtifactName, Path: result.ArtifactPath},
	}
	if record != nil {
		data, err := runtime.MarshalRecord(record)
		if err != nil {
			return nil, err
		}
		files = append(files, icupacklode.PublishFile{Name: recordObjectName, Data: data})
	}
	if s := result.Standalone; s != nil {
		dir := filepath.Join(outDir, "out", result.Meta.PackageName)
		for _, name := range s.Copied {
			files = append(files, icupacklode.PublishFile{Name: name, Path: filepath.Join(dir, name)})
		}
	}
	return files, nil
}

// publishBuild uploads the outputs of a successful build and appends a
// ledger entry for every build. Failures are logged and never change the
// exit code. Returns the object prefix when outputs were uploaded.
func publishBuild(ctx context.Context, choice *publishChoice, outDir string, result *runtime.BuildResult, record *runtime.BuildRecord, report *runtime.BuildReport, logger *log.Logger, collector *metrics.Collector) string {
	factory, err := icupacklode.NewStoreFactory(ctx, choice.store)
	if err != nil {
		logger.Error("failed to create publish store", map[string]any{"backend": string(choice.store.Backend), "error": err.Error()})
		collector.IncPublishFailure()
		return ""
	}

	var prefix string
	if report.Outcome == types.OutcomeSuccess {
		files, err := publishFiles(result, record, outDir)
		if err == nil {
			var published *icupacklode.PublishResult
			published, err = icupacklode.NewPublisher(factory, collector).Publish(ctx, result.Meta, files)
			if err == nil {
				prefix = published.Prefix
				logger.Info("published build outputs", map[string]any{"prefix": prefix, "objects": len(published.Keys)})
			}
		}
		if err != nil {
			logger.Error("failed to publish build outputs", map[string]any{"error": err.Error()})
		}
	}

	ledger, err := icupacklode.NewLedger(factory)
	if err == nil {
		err = ledger.Append(ctx, ledgerEntry(report, result, time.Now()))
	}
	if err != nil {
		var se *icupacklode.StorageError
		fields := map[string]any{"error": err.Error()}
		if errors.As(err, &se) {
			fields["kind"] = se.Kind.Error()
		}
		logger.Error("failed to append ledger entry", fields)
	}
	return prefix
}

func ledgerEntry(report *runtime.BuildReport, result *runtime.BuildResult, at time.Time) icupacklode.LedgerEntry {
	entry := icupacklode.LedgerEntry{
		BuildID:     report.BuildID,
		Package:     report.Package,
		Platform:    string(report.Platform),
		Mode:        string(report.Mode),
		Outcome:     string(report.Outcome),
		State:       string(report.State),
		FailedStage: string(report.FailedStage),
		ExitCode:    report.ExitCode,
		DurationMS:  report.DurationMs,
		CompletedAt: at,
		Fragments:   len(result.Manifest),
		ToolVersion: types.Version,
	}
	if a := report.Artifacts; a != nil {
		entry.ArchiveSHA256 = a.ArchiveSHA256
		entry.ArchiveBytes = a.ArchiveBytes
	}
	if report.Outcome == types.OutcomeSuccess {
		entry.ArtifactName = result.ArtifactName
	}
	return entry
}
