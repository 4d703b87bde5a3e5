package sitecmd

import (
	"context"
	"errors"
	"strings"

	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-folio/internal/collection"
	"github.com/goliatone/go-folio/internal/commands"
	"github.com/goliatone/go-folio/internal/generator"
	"github.com/goliatone/go-folio/internal/metrics"
	"github.com/goliatone/go-folio/internal/pipeline"
	"github.com/goliatone/go-folio/pkg/interfaces"
)

// ErrPipelineUnavailable is returned when the handler has no way to run a pass.
var ErrPipelineUnavailable = errors.New("site: pipeline is not configured")

// PipelineFactory returns the builder for one pass.
type PipelineFactory func(includeDrafts bool) pipeline.SnapshotBuilder

// ArtifactGenerator renders artifacts for a snapshot. *generator.Service
// satisfies it.
type ArtifactGenerator interface {
	Generate(ctx context.Context, snap *collection.Snapshot, opts generator.Options) (*generator.Result, error)
}

// GeneratorFactory returns the generator writing to outputDir; an empty
// outputDir selects the configured directory. A nil generator skips
// artifact generation.
type GeneratorFactory func(outputDir string) ArtifactGenerator

// BuildSiteHandler runs a pass and generates artifacts on top of the shared
// command handler.
type BuildSiteHandler struct {
	inner      *commands.Handler[BuildSiteCommand]
	cronConfig command.HandlerConfig
}

// HandlerConfig wires a BuildSiteHandler.
type HandlerConfig struct {
	Pipelines  PipelineFactory
	Generators GeneratorFactory
	// Publisher, when set, receives every successfully built snapshot that
	// used the configured draft setting. Passes that pull in drafts through
	// BuildSiteCommand.IncludeDrafts are not published.
	Publisher *pipeline.Publisher
	// IncludeDrafts is the configured draft setting; a command can only
	// widen it.
	IncludeDrafts bool
	Logger        interfaces.Logger
	// Schedule is an optional cron expression for periodic rebuilds.
	Schedule string
}

// NewBuildSiteHandler constructs a handler wired to cfg.
func NewBuildSiteHandler(cfg HandlerConfig, opts ...commands.HandlerOption[BuildSiteCommand]) *BuildSiteHandler {
	logger := commands.EnsureLogger(cfg.Logger)

	exec := func(ctx context.Context, msg BuildSiteCommand) error {
		if cfg.Pipelines == nil {
			return ErrPipelineUnavailable
		}
		includeDrafts := cfg.IncludeDrafts || msg.IncludeDrafts
		builder := cfg.Pipelines(includeDrafts)
		if builder == nil {
			return ErrPipelineUnavailable
		}

		snap, err := builder.Build(ctx)
		if err != nil {
			return err
		}
		published := cfg.Publisher != nil && includeDrafts == cfg.IncludeDrafts
		if published {
			cfg.Publisher.Publish(ctx, snap)
		}

		envelope := ResultEnvelope{
			Snapshot: snap,
			Metadata: map[string]any{
				"operation": "build",
				"documents": snap.Len(),
				"published": published,
			},
		}
		var gen ArtifactGenerator
		if cfg.Generators != nil {
			gen = cfg.Generators(strings.TrimSpace(msg.OutputDir))
		}
		if gen == nil {
			invokeCallback(msg.ResultCallback, envelope)
			return nil
		}

		result, err := gen.Generate(ctx, snap, generator.Options{DryRun: msg.DryRun})
		envelope.Result = result
		invokeCallback(msg.ResultCallback, envelope)
		if err != nil {
			return err
		}
		if result != nil && !result.DryRun {
			for _, artifact := range result.Artifacts {
				metrics.ObserveArtifact(string(artifact.Category), artifact.Skipped)
			}
		}
		return nil
	}

	handlerOpts := []commands.HandlerOption[BuildSiteCommand]{
		commands.WithLogger[BuildSiteCommand](logger),
		commands.WithOperation[BuildSiteCommand]("site.build"),
		commands.WithMessageFields(func(msg BuildSiteCommand) map[string]any {
			fields := map[string]any{}
			if msg.OutputDir != "" {
				fields["output_dir"] = msg.OutputDir
			}
			if msg.IncludeDrafts {
				fields["include_drafts"] = true
			}
			if msg.DryRun {
				fields["dry_run"] = true
			}
			return fields
		}),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &BuildSiteHandler{
		inner:      commands.NewHandler(exec, handlerOpts...),
		cronConfig: command.HandlerConfig{Expression: strings.TrimSpace(cfg.Schedule)},
	}
}

// Execute satisfies command.Commander[BuildSiteCommand].
func (h *BuildSiteHandler) Execute(ctx context.Context, msg BuildSiteCommand) error {
	return h.inner.Execute(ctx, msg)
}

// CronHandler satisfies command.CronCommand by running a default build.
func (h *BuildSiteHandler) CronHandler() func() error {
	return func() error {
		return h.Execute(context.Background(), BuildSiteCommand{})
	}
}

// CronOptions satisfies command.CronCommand. An empty expression means the
// handler is not scheduled.
func (h *BuildSiteHandler) CronOptions() command.HandlerConfig {
	return h.cronConfig
}

func invokeCallback(cb ResultCallback, envelope ResultEnvelope) {
	if cb != nil {
		cb(envelope)
	}
}
