package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	goruntime "runtime"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	icupackconfig "github.com/justapithecus/icupack/cli/config"
	"github.com/justapithecus/icupack/iox"
	"github.com/justapithecus/icupack/log"
	"github.com/justapithecus/icupack/metrics"
	"github.com/justapithecus/icupack/runtime"
	"github.com/justapithecus/icupack/types"
)

// BuildCommand returns the main-library build command.
func BuildCommand() *cli.Command {
	return &cli.Command{
		Name:   "build",
		Usage:  "Compile, package and emit the main data library",
		Flags:  pipelineFlags(),
		Action: buildAction(types.BuildModeMain),
	}
}

// TestDataCommand returns the test-data build command.
func TestDataCommand() *cli.Command {
	flags := append(pipelineFlags(), &cli.StringFlag{
		Name:  "icu-data-file",
		Usage: "Pre-built core archive the test data is compiled against (required)",
	})
	return &cli.Command{
		Name:   "testdata",
		Usage:  "Build the test-data package and its standalone files",
		Flags:  flags,
		Action: buildAction(types.BuildModeTestData),
	}
}

// buildOptions is the fully resolved input of one build invocation.
type buildOptions struct {
	pipeline        *types.PipelineConfig
	compilerCommand []string
	timeout         time.Duration
	reportPath      string
	recordPath      string
	quiet           bool
	publish         *publishChoice
	notify          *notifyChoice
}

func buildAction(mode types.BuildMode) cli.ActionFunc {
	return func(c *cli.Context) error {
		cfg, err := icupackconfig.LoadOptional(c.String("config"), "")
		if err != nil {
			return cli.Exit(err.Error(), runtime.ExitCodeConfig)
		}
		opts, err := parseBuildOptions(c, cfg, mode)
		if err != nil {
			return cli.Exit(err.Error(), runtime.ExitCodeConfig)
		}
		return runBuild(c, opts)
	}
}

// parseBuildOptions resolves every option with flag > config > default
// precedence. Semantic validation of the pipeline is left to
// PipelineConfig.Validate.
func parseBuildOptions(c *cli.Context, cfg *icupackconfig.Config, mode types.BuildMode) (*buildOptions, error) {
	platform := types.DetectPlatform(goruntime.GOOS)
	if name := resolveString(c, "platform", configVal(cfg, func(c *icupackconfig.Config) string { return c.Platform })); name != "" {
		p, err := types.ParsePlatform(name)
		if err != nil {
			return nil, &types.ConfigError{Field: "platform", Message: err.Error()}
		}
		platform = p
	}

	pipeline := &types.PipelineConfig{
		SourceDir:       resolveString(c, "src-dir", configVal(cfg, func(c *icupackconfig.Config) string { return c.SourceDir })),
		ToolDir:         resolveString(c, "tool-dir", configVal(cfg, func(c *icupackconfig.Config) string { return c.ToolDir })),
		OutDir:          resolveString(c, "out-dir", configVal(cfg, func(c *icupackconfig.Config) string { return c.OutDir })),
		PackageName:     resolveString(c, "pkg-name", configVal(cfg, func(c *icupackconfig.Config) string { return c.PackageName })),
		EntryName:       resolveString(c, "entry-name", configVal(cfg, func(c *icupackconfig.Config) string { return c.EntryName })),
		IncludeCoreData: resolveBool(c, "include-uni-core-data", configVal(cfg, func(c *icupackconfig.Config) bool { return c.IncludeCoreData })),
		Verbose:         resolveBool(c, "verbose", configVal(cfg, func(c *icupackconfig.Config) bool { return c.Verbose })),
		WorkRoot:        resolveString(c, "work-dir", configVal(cfg, func(c *icupackconfig.Config) string { return c.WorkDir })),
		Mode:            mode,
		Platform:        platform,
	}
	if mode == types.BuildModeTestData {
		pipeline.ICUDataFile = resolveString(c, "icu-data-file", configVal(cfg, func(c *icupackconfig.Config) string { return c.ICUDataFile }))
	}

	publish, err := parsePublishConfig(c, cfg)
	if err != nil {
		return nil, err
	}
	notify, err := parseNotifyConfig(c, cfg)
	if err != nil {
		return nil, err
	}

	return &buildOptions{
		pipeline:        pipeline,
		compilerCommand: resolveCommand(c, "compiler-command", configVal(cfg, func(c *icupackconfig.Config) []string { return c.CompilerCommand })),
		timeout:         resolveDuration(c, "timeout", configVal(cfg, func(c *icupackconfig.Config) time.Duration { return c.Timeout.Duration })),
		reportPath:      c.String("report"),
		recordPath:      c.String("record"),
		quiet:           c.Bool("quiet"),
		publish:         publish,
		notify:          notify,
	}, nil
}

func runBuild(c *cli.Context, opts *buildOptions) error {
	p := opts.pipeline
	if err := p.Validate(); err != nil {
		return cli.Exit(err.Error(), runtime.ExitCodeConfig)
	}
	tools, err := runtime.ResolveToolSet(p.ToolDir, p.SourceDir, p.Platform, opts.compilerCommand)
	if err != nil {
		return cli.Exit(err.Error(), runtime.ExitCodeFor(err))
	}

	meta := types.BuildMeta{
		BuildID:     uuid.NewString(),
		PackageName: p.PackageName,
		Mode:        p.Mode,
		Platform:    p.Platform,
	}
	logger := log.NewLogger(&meta).WithOutput(c.App.ErrWriter)
	defer iox.DiscardErr(logger.Sync)
	collector := metrics.NewCollector(meta.PackageName, string(meta.Platform), string(meta.Mode), meta.BuildID)

	orchestrator, err := runtime.NewPipelineOrchestrator(&runtime.BuildConfig{
		Pipeline:  p,
		Tools:     tools,
		BuildID:   meta.BuildID,
		Stdout:    c.App.Writer,
		Stderr:    c.App.ErrWriter,
		Logger:    logger,
		Collector: collector,
	})
	if err != nil {
		return cli.Exit(err.Error(), runtime.ExitCodeFor(err))
	}

	// Set up context with signal handling
	parent := c.Context
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	if opts.timeout > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, opts.timeout)
		defer cancelTimeout()
	}

	result, runErr := orchestrator.Execute(ctx)
	completedAt := time.Now()

	// Post-build steps must not be cut short by the build's own deadline.
	postCtx := context.WithoutCancel(ctx)

	var record *runtime.BuildRecord
	var postErr error
	if runErr == nil {
		record, err = runtime.NewBuildRecord(result, p.EntryName, completedAt)
		if err != nil {
			postErr = err
		} else if opts.recordPath != "" {
			if err := runtime.WriteBuildRecord(record, opts.recordPath); err != nil {
				logger.Error("failed to write build record", map[string]any{"path": opts.recordPath, "error": err.Error()})
				postErr = err
			}
		}
	}

	report := runtime.NewBuildReport(result, runErr, collector.Snapshot())

	var publishPrefix string
	if opts.publish != nil {
		publishPrefix = publishBuild(postCtx, opts.publish, p.OutDir, result, record, report, logger, collector)
	}
	if opts.notify != nil {
		notifyBuild(postCtx, opts.notify, report, publishPrefix, logger, collector)
	}

	if opts.reportPath != "" {
		report.Metrics = ptr(collector.Snapshot())
		if err := runtime.WriteBuildReport(report, opts.reportPath); err != nil {
			logger.Error("failed to write build report", map[string]any{"path": opts.reportPath, "error": err.Error()})
			if postErr == nil {
				postErr = err
			}
		}
	}

	if !opts.quiet {
		printBuildResult(c.App.Writer, result, runErr)
	}

	if runErr != nil {
		return cli.Exit("", runtime.ExitCodeFor(runErr))
	}
	if postErr != nil {
		return cli.Exit(postErr.Error(), runtime.ExitCodeInternal)
	}
	return nil
}

func ptr[T any](v T) *T { return &v }

func printBuildResult(w io.Writer, result *runtime.BuildResult, runErr error) {
	_, _ = fmt.Fprintf(w, "\nbuild_id=%s, package=%s, mode=%s, platform=%s, outcome=%s, duration=%s\n",
		result.Meta.BuildID,
		result.Meta.PackageName,
		result.Meta.Mode,
		result.Meta.Platform,
		result.Outcome,
		result.Duration.Round(time.Millisecond),
	)

	_, _ = fmt.Fprintf(w, "\n=== Build Result ===\n")
	_, _ = fmt.Fprintf(w, "State:        %s\n", result.State)
	_, _ = fmt.Fprintf(w, "Fragments:    %d\n", len(result.Manifest))
	if runErr != nil {
		if result.FailedStage != "" {
			_, _ = fmt.Fprintf(w, "Failed Stage: %s\n", result.FailedStage)
		}
		_, _ = fmt.Fprintf(w, "Message:      %s\n", runErr)
		_, _ = fmt.Fprintf(w, "Exit Code:    %d\n", runtime.ExitCodeFor(runErr))
		return
	}

	_, _ = fmt.Fprintf(w, "Archive:      %s (%d bytes)\n", result.ArchivePath, result.ArchiveBytes)
	_, _ = fmt.Fprintf(w, "SHA-256:      %s\n", result.ArchiveSHA256)
	_, _ = fmt.Fprintf(w, "Artifact:     %s\n", result.ArtifactPath)

	if s := result.Standalone; s != nil {
		_, _ = fmt.Fprintf(w, "\n=== Standalone Files ===\n")
		_, _ = fmt.Fprintf(w, "Copied:       %s\n", joinOrNone(s.Copied))
		if len(s.Missing) > 0 {
			_, _ = fmt.Fprintf(w, "Missing:      %s\n", strings.Join(s.Missing, ", "))
		}
	}
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	return strings.Join(items, ", ")
}
