package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/justapithecus/icupack/iox"
	"github.com/justapithecus/icupack/log"
	"github.com/justapithecus/icupack/manifest"
	"github.com/justapithecus/icupack/metrics"
	"github.com/justapithecus/icupack/types"
)

// Stage names the step a pipeline failure happened in.
type Stage string

const (
	StageSetup    Stage = "setup"
	StageSeed     Stage = "seed"
	StageCompile  Stage = "compile"
	StageManifest Stage = "manifest"
	StageArchive  Stage = "archive"
	StageEmit     Stage = "emit"
	StageFinalize Stage = "finalize"
)

// StageError wraps a failure with the stage it happened in.
// errors.As still reaches a wrapped *ToolError.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// BuildConfig configures a single pipeline run.
type BuildConfig struct {
	// Pipeline is the validated-on-construction pipeline input.
	Pipeline *types.PipelineConfig
	// Tools are the external tools to invoke.
	Tools *ToolSet
	// BuildID identifies the run. Generated if empty.
	BuildID string
	// Stdout receives sub-tool stdout in verbose mode. Defaults to os.Stdout.
	Stdout io.Writer
	// Stderr receives sub-tool stderr. Defaults to os.Stderr.
	Stderr io.Writer
	// Logger overrides the default stderr JSON logger.
	Logger *log.Logger
	// Collector records build metrics. May be nil.
	Collector *metrics.Collector
}

// BuildResult is the outcome of one pipeline run.
type BuildResult struct {
	// Meta identifies the run.
	Meta types.BuildMeta
	// State is the last state reached.
	State types.BuildState
	// States lists every state entered, in order.
	States []types.BuildState
	// Outcome classifies how the run ended.
	Outcome types.OutcomeStatus
	// FailedStage is set when Outcome is not success.
	FailedStage Stage
	// Manifest holds the packaged fragment paths.
	Manifest []string
	// ArchivePath is the archive copied into the output directory.
	ArchivePath string
	// ArchiveSHA256 is the hex digest of the archive.
	ArchiveSHA256 string
	// ArchiveBytes is the archive size.
	ArchiveBytes int64
	// ArtifactName is the generated code file name.
	ArtifactName string
	// ArtifactPath is the generated code file in the output directory.
	ArtifactPath string
	// Standalone reports the standalone files of a test-data build.
	Standalone *StandaloneResult
	// WorkRoot is the ephemeral root used by the run. It no longer exists.
	WorkRoot string
	// Duration is the total run duration.
	Duration time.Duration
}

// PipelineOrchestrator runs compile, manifest, archive and emit in strict
// order inside one ephemeral working tree.
type PipelineOrchestrator struct {
	config    *types.PipelineConfig
	meta      types.BuildMeta
	out       Output
	logger    *log.Logger
	collector *metrics.Collector

	compiler *Compiler
	archiver *Archiver
	emitter  *Emitter
	aux      *AuxiliaryCopier
}

// NewPipelineOrchestrator validates the configuration and wires the stages.
// Configuration errors are returned as *types.ConfigError before anything
// touches the filesystem.
func NewPipelineOrchestrator(config *BuildConfig) (*PipelineOrchestrator, error) {
	if config.Pipeline == nil {
		return nil, &types.ConfigError{Field: "pipeline", Message: "must be set"}
	}
	if err := config.Pipeline.Validate(); err != nil {
		return nil, err
	}
	if config.Tools == nil || config.Tools.Compiler == nil || config.Tools.Archiver == nil || config.Tools.Emitter == nil {
		return nil, &types.ConfigError{Field: "tool_dir", Message: "compiler, archiver and emitter tools must all be resolved"}
	}

	buildID := config.BuildID
	if buildID == "" {
		buildID = uuid.NewString()
	}
	meta := types.BuildMeta{
		BuildID:     buildID,
		PackageName: config.Pipeline.PackageName,
		Mode:        config.Pipeline.Mode,
		Platform:    config.Pipeline.Platform,
	}
	if err := meta.Validate(); err != nil {
		return nil, fmt.Errorf("invalid build metadata: %w", err)
	}

	logger := config.Logger
	if logger == nil {
		logger = log.NewLogger(&meta)
	}
	out := Output{Stdout: config.Stdout, Stderr: config.Stderr, Verbose: config.Pipeline.Verbose}
	if out.Stdout == nil {
		out.Stdout = os.Stdout
	}
	if out.Stderr == nil {
		out.Stderr = os.Stderr
	}

	p := config.Pipeline
	return &PipelineOrchestrator{
		config:    p,
		meta:      meta,
		out:       out,
		logger:    logger,
		collector: config.Collector,
		compiler:  NewCompiler(config.Tools.Compiler, p.Platform, out, logger, config.Collector),
		archiver:  NewArchiver(config.Tools.Archiver, out, logger, config.Collector),
		emitter:   NewEmitter(config.Tools.Emitter, p.Platform, out, logger, config.Collector),
		aux:       NewAuxiliaryCopier(logger, config.Collector),
	}, nil
}

// Meta returns the build identity.
func (p *PipelineOrchestrator) Meta() types.BuildMeta {
	return p.meta
}

// Execute runs the pipeline end-to-end.
//
// The result is always non-nil. On failure the error is a *StageError and
// the result's State is Failed. The working tree is removed on every path,
// including panics and cancellation.
func (p *PipelineOrchestrator) Execute(ctx context.Context) (result *BuildResult, err error) {
	start := time.Now()
	result = &BuildResult{
		Meta:   p.meta,
		State:  types.StateInit,
		States: []types.BuildState{types.StateInit},
	}
	p.collector.IncBuildStarted()
	p.logger.Info("starting build", map[string]any{
		"source_dir": p.config.SourceDir,
		"out_dir":    p.config.OutDir,
		"entry_name": p.config.EntryName,
	})

	defer func() {
		result.Duration = time.Since(start)
		if r := recover(); r != nil {
			result.State = types.StateFailed
			result.States = append(result.States, types.StateFailed)
			p.collector.IncBuildFailed()
			p.logger.Error("build panicked", map[string]any{"panic": fmt.Sprint(r)})
			panic(r)
		}
		if err != nil {
			result.State = types.StateFailed
			result.States = append(result.States, types.StateFailed)
			result.Outcome = ClassifyError(err)
			var stageErr *StageError
			if errors.As(err, &stageErr) {
				result.FailedStage = stageErr.Stage
			}
			p.collector.IncBuildFailed()
			p.logger.Error("build failed", map[string]any{
				"stage":    string(result.FailedStage),
				"outcome":  string(result.Outcome),
				"error":    err.Error(),
				"duration": result.Duration.String(),
			})
			return
		}
		result.Outcome = types.OutcomeSuccess
		p.collector.IncBuildSucceeded()
		p.logger.Info("build completed", map[string]any{
			"state":     string(result.State),
			"fragments": len(result.Manifest),
			"artifact":  result.ArtifactName,
			"duration":  result.Duration.String(),
		})
	}()

	tree, err := AcquireWorkingTree(p.config.WorkRoot, p.config.PackageName)
	if err != nil {
		return result, &StageError{Stage: StageSetup, Err: err}
	}
	result.WorkRoot = tree.Root
	defer func() {
		if rerr := tree.Release(); rerr != nil {
			p.logger.Warn("working tree cleanup failed", map[string]any{
				"root":  tree.Root,
				"error": rerr.Error(),
			})
		}
	}()

	// Init -> Compiled
	if p.config.Mode == types.BuildModeTestData {
		if _, err := p.aux.SeedCoreArchive(p.config.ICUDataFile, tree.CoreArchiveDir()); err != nil {
			return result, &StageError{Stage: StageSeed, Err: err}
		}
	}
	if err := p.checkContext(ctx, StageCompile); err != nil {
		return result, err
	}
	if err := p.compiler.Compile(ctx, CompileRequest{
		SourceDir:       p.config.SourceDir,
		OutDir:          tree.FragmentDir,
		TmpDir:          tree.TmpDir,
		ToolDir:         p.config.ToolDir,
		IncludeCoreData: p.config.IncludeCoreData,
	}); err != nil {
		return result, &StageError{Stage: StageCompile, Err: err}
	}
	p.transition(result, types.StateCompiled)

	// Compiled -> Manifested. Built only now so it reflects the compiled tree.
	if err := p.checkContext(ctx, StageManifest); err != nil {
		return result, err
	}
	entries, err := manifest.BuildFile(tree.FragmentDir, p.config.Mode.ExcludedSubtrees(), tree.ManifestPath())
	if err != nil {
		return result, &StageError{Stage: StageManifest, Err: err}
	}
	result.Manifest = entries
	p.collector.SetFragmentsListed(len(entries))
	p.transition(result, types.StateManifested)

	// Manifested -> Archived
	if err := p.checkContext(ctx, StageArchive); err != nil {
		return result, err
	}
	archive, err := p.archiver.Package(ctx, tree.FragmentDir, tree.ManifestPath(), p.config.PackageName, tree.TmpDir)
	if err != nil {
		return result, &StageError{Stage: StageArchive, Err: err}
	}
	p.transition(result, types.StateArchived)

	// Archived -> Emitted
	if err := p.checkContext(ctx, StageEmit); err != nil {
		return result, err
	}
	if err := p.emit(ctx, result, archive); err != nil {
		return result, &StageError{Stage: StageEmit, Err: err}
	}
	p.transition(result, types.StateEmitted)

	if p.config.Mode != types.BuildModeTestData {
		return result, nil
	}

	// Emitted -> Finalized
	standaloneDir := filepath.Join(p.config.OutDir, "out", p.config.PackageName)
	standalone, err := p.aux.CopyStandalone(tree.TmpDir, standaloneDir, types.StandaloneFiles)
	result.Standalone = standalone
	if err != nil {
		return result, &StageError{Stage: StageFinalize, Err: err}
	}
	p.transition(result, types.StateFinalized)
	return result, nil
}

// emit generates linkable code, verifies it materialized, and delivers the
// archive next to it.
func (p *PipelineOrchestrator) emit(ctx context.Context, result *BuildResult, archive string) error {
	if err := os.MkdirAll(p.config.OutDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	name, err := p.emitter.Emit(ctx, archive, p.config.EntryName, p.config.OutDir)
	if err != nil {
		return err
	}
	artifact := filepath.Join(p.config.OutDir, name)
	if _, err := os.Stat(artifact); err != nil {
		return fmt.Errorf("%s: %w: %s", ToolEmitter, ErrArtifactMissing, artifact)
	}
	result.ArtifactName = name
	result.ArtifactPath = artifact

	finalArchive := filepath.Join(p.config.OutDir, p.config.PackageName+".dat")
	n, err := iox.CopyFile(archive, finalArchive)
	if err != nil {
		return fmt.Errorf("copy archive: %w", err)
	}
	if p.config.Mode == types.BuildModeTestData {
		nested := filepath.Join(p.config.OutDir, "out", p.config.PackageName+".dat")
		if _, err := iox.CopyFile(archive, nested); err != nil {
			return fmt.Errorf("copy archive: %w", err)
		}
	}

	digest, err := FileSHA256(finalArchive)
	if err != nil {
		return fmt.Errorf("hash archive: %w", err)
	}
	result.ArchivePath = finalArchive
	result.ArchiveBytes = n
	result.ArchiveSHA256 = digest
	p.collector.SetArchiveBytes(n)
	return nil
}

func (p *PipelineOrchestrator) transition(result *BuildResult, state types.BuildState) {
	result.State = state
	result.States = append(result.States, state)
	p.collector.IncStageCompleted(string(state))
	p.logger.Info("stage completed", map[string]any{"state": string(state)})
}

func (p *PipelineOrchestrator) checkContext(ctx context.Context, stage Stage) error {
	if err := ctx.Err(); err != nil {
		return &StageError{Stage: stage, Err: err}
	}
	return nil
}
