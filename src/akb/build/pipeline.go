package build

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/google/uuid"

	"github.com/bitswalk/akb/src/akb/db"
	"github.com/bitswalk/akb/src/akb/download"
	"github.com/bitswalk/akb/src/akb/forge"
	"github.com/bitswalk/akb/src/akb/gitrepo"
	"github.com/bitswalk/akb/src/akb/notify"
	"github.com/bitswalk/akb/src/akb/profile"
	"github.com/bitswalk/akb/src/akb/runner"
	"github.com/bitswalk/akb/src/akb/storage"
	"github.com/bitswalk/akb/src/common/errors"
	"github.com/bitswalk/akb/src/common/paths"
)

// Fetcher downloads remote files
type Fetcher interface {
	Download(ctx context.Context, url, destDir string) (*download.Result, error)
	DownloadTo(ctx context.Context, url, dest string) (*download.Result, error)
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Git clones repositories and resolves commits
type Git interface {
	Clone(ctx context.Context, opts gitrepo.CloneOptions) error
	ShortHead(dir string) (string, error)
}

// Publisher creates a release
type Publisher interface {
	Publish(ctx context.Context, r forge.Release) (*forge.Published, error)
}

// Notifier announces a release
type Notifier interface {
	Notify(ctx context.Context, m notify.Message) error
}

// Recorder keeps the build history
type Recorder interface {
	Create(run *db.BuildRun) error
	MarkStageStarted(runID, stage string) error
	MarkStageCompleted(runID, stage string, durationMs int64) error
	MarkStageFailed(runID, stage, errMsg string) error
	MarkCompleted(runID string, res db.RunResult) error
	MarkFailed(runID, stage, errMsg string) error
}

// Deps are the collaborators of a pipeline. Runner is required; the
// others fall back to defaults or, for Store, Publisher, Notifier and
// Recorder, to being disabled.
type Deps struct {
	Runner    runner.Runner
	Fetcher   Fetcher
	Git       Git
	Sources   IntegrationSources
	Store     storage.Backend
	Publisher Publisher
	Notifier  Notifier
	Recorder  Recorder

	Getenv func(string) string
	Now    func() time.Time
	NumCPU int
}

// Request selects what to build
type Request struct {
	Project *profile.Profile
	// Branch is the variant label; empty means DefaultBranch
	Branch  string
	Release bool
	// WorkDir holds kernel_source and receives every output; empty means "."
	WorkDir string
}

// Pipeline runs the build stages in order, stopping at the first failure
type Pipeline struct {
	stages   []Stage
	recorder Recorder
}

// NewPipeline creates a pipeline from its collaborators
func NewPipeline(d Deps) (*Pipeline, error) {
	if d.Runner == nil {
		return nil, errors.ErrInternal.WithMessage("pipeline requires a runner")
	}
	if d.Fetcher == nil {
		d.Fetcher = download.NewDownloader(nil)
	}
	if d.Git == nil {
		d.Git = gitrepo.NewClient()
	}
	if d.Getenv == nil {
		d.Getenv = os.Getenv
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.NumCPU <= 0 {
		d.NumCPU = runtime.NumCPU()
	}
	sources := d.Sources.withDefaults()

	return &Pipeline{
		stages: []Stage{
			NewToolchainStage(d.Fetcher),
			NewEnvironmentStage(d.Runner, d.Getenv),
			NewIntegrateStage(d.Runner, d.Fetcher, d.Git, sources),
			NewVersionStage(d.Runner, d.Git),
			NewDefconfigStage(d.Runner),
			NewKconfigStage(d.Runner),
			NewStampStage(),
			NewCompileStage(d.Runner, d.NumCPU),
			NewPackageStage(d.Git, d.Now),
			NewPublishStage(d.Store),
			NewReleaseStage(d.Publisher, d.Notifier),
		},
		recorder: d.Recorder,
	}, nil
}

// Stages returns the stage names in execution order
func (p *Pipeline) Stages() []StageName {
	names := make([]StageName, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name()
	}
	return names
}

// Run executes one full build. The returned context reflects everything
// the pipeline produced up to the point it stopped.
func (p *Pipeline) Run(ctx context.Context, req Request) (*StageContext, error) {
	if req.Project == nil {
		return nil, errors.ErrInternal.WithMessage("no project given")
	}
	sc, err := newStageContext(req)
	if err != nil {
		return nil, err
	}

	log.Info("Starting build",
		"run_id", sc.RunID,
		"project", sc.Project.Key,
		"branch", sc.Branch,
		"variant", sc.Variant.Kind,
		"release", sc.Release,
		"workdir", sc.WorkDir,
	)

	if p.recorder != nil {
		if err := p.recorder.Create(&db.BuildRun{
			ID:      sc.RunID,
			Project: sc.Project.Key,
			Branch:  sc.Branch,
			Variant: sc.Variant.Suffix(),
			Release: sc.Release,
		}); err != nil {
			log.Warn("Failed to record build run, continuing without history", "run_id", sc.RunID, "error", err)
			p.recorder = nil
		}
	}

	if !paths.IsDir(sc.SourceDir) {
		err := errors.ErrSourceTreeMissing.WithMessagef("Kernel source not found at %s", sc.SourceDir)
		p.handleFailure(sc, "", err)
		return sc, err
	}

	for i, stage := range p.stages {
		name := stage.Name()
		p.recordStage(sc, name, func(r Recorder) error { return r.MarkStageStarted(sc.RunID, string(name)) })

		log.Info("Starting stage", "run_id", sc.RunID, "stage", name, "step", fmt.Sprintf("%d/%d", i+1, len(p.stages)))
		stageStart := time.Now()

		if err := stage.Validate(ctx, sc); err != nil {
			p.recordStage(sc, name, func(r Recorder) error { return r.MarkStageFailed(sc.RunID, string(name), err.Error()) })
			err = fmt.Errorf("stage %s validation failed: %w", name, err)
			p.handleFailure(sc, name, err)
			return sc, err
		}

		progress := func(percent int, message string) {
			log.Debug("Stage progress", "stage", name, "percent", percent, "message", message)
		}

		if err := stage.Execute(ctx, sc, progress); err != nil {
			p.recordStage(sc, name, func(r Recorder) error { return r.MarkStageFailed(sc.RunID, string(name), err.Error()) })
			err = fmt.Errorf("stage %s failed: %w", name, err)
			p.handleFailure(sc, name, err)
			return sc, err
		}

		durationMs := time.Since(stageStart).Milliseconds()
		p.recordStage(sc, name, func(r Recorder) error { return r.MarkStageCompleted(sc.RunID, string(name), durationMs) })
		log.Info("Stage completed", "run_id", sc.RunID, "stage", name, "duration_ms", durationMs)
	}

	log.Info("Build completed successfully",
		"run_id", sc.RunID,
		"archive", sc.ArchiveName,
		"size", sc.ArchiveSize,
		"release_tag", sc.ReleaseTag,
	)

	if p.recorder != nil {
		if err := p.recorder.MarkCompleted(sc.RunID, db.RunResult{
			ArchiveName:     sc.ArchiveName,
			ArchiveChecksum: sc.ArchiveChecksum,
			ArchiveSize:     sc.ArchiveSize,
			StorageKey:      sc.StorageKey,
			ReleaseTag:      sc.ReleaseTag,
			ReleaseURL:      sc.ReleaseURL,
		}); err != nil {
			log.Warn("Failed to mark build completed", "run_id", sc.RunID, "error", err)
		}
	}

	return sc, nil
}

func newStageContext(req Request) (*StageContext, error) {
	workDir := req.WorkDir
	if workDir == "" {
		workDir = "."
	}
	workDir, err := filepath.Abs(paths.Expand(workDir))
	if err != nil {
		return nil, errors.ErrInvalidSetting.WithMessagef("Invalid working directory %q", req.WorkDir).WithCause(err)
	}

	branch := req.Branch
	if branch == "" {
		branch = DefaultBranch
	}

	return &StageContext{
		RunID:     uuid.New().String(),
		Project:   req.Project,
		Branch:    branch,
		Variant:   ParseVariant(branch),
		Release:   req.Release,
		WorkDir:   workDir,
		SourceDir: filepath.Join(workDir, SourceDirName),
		Env:       map[string]string{},
	}, nil
}

func (p *Pipeline) recordStage(sc *StageContext, stage StageName, fn func(r Recorder) error) {
	if p.recorder == nil {
		return
	}
	if err := fn(p.recorder); err != nil {
		log.Warn("Failed to update build history", "run_id", sc.RunID, "stage", stage, "error", err)
	}
}

// handleFailure logs and records a failed build
func (p *Pipeline) handleFailure(sc *StageContext, stage StageName, err error) {
	log.Error("Build failed",
		"run_id", sc.RunID,
		"stage", stage,
		"error", err,
	)
	if p.recorder == nil {
		return
	}
	if recErr := p.recorder.MarkFailed(sc.RunID, string(stage), err.Error()); recErr != nil {
		log.Warn("Failed to mark build as failed", "run_id", sc.RunID, "error", recErr)
	}
}

// structured keeps errors that already carry a domain and classifies the
// rest under fallback.
func structured(err error, fallback *errors.Error) error {
	var e *errors.Error
	if errors.As(err, &e) {
		return err
	}
	return fallback.WithCause(err)
}
