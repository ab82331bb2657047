package build

import (
	"context"
	"fmt"
	"os"

	"github.com/bitswalk/akb/src/akb/profile"
	"github.com/bitswalk/akb/src/akb/runner"
	"github.com/bitswalk/akb/src/common/errors"
)

// CompileStage builds the kernel image.
//
// Reads: Project, SourceDir, Env, MakeArgs. After a successful build with
// the file method it truncates kernel_source/localversion.
type CompileStage struct {
	runner runner.Runner
	jobs   int
}

// NewCompileStage creates a new compile stage running jobs make jobs
func NewCompileStage(r runner.Runner, jobs int) *CompileStage {
	if jobs < 1 {
		jobs = 1
	}
	return &CompileStage{runner: r, jobs: jobs}
}

// Name returns the stage name
func (s *CompileStage) Name() StageName {
	return StageCompile
}

// Validate checks whether this stage can run
func (s *CompileStage) Validate(ctx context.Context, sc *StageContext) error {
	if len(sc.MakeArgs) == 0 {
		return errors.ErrInternal.WithMessage("make arguments not set - environment stage must run first")
	}
	return nil
}

// Execute runs make -j<jobs> <args>
func (s *CompileStage) Execute(ctx context.Context, sc *StageContext, progress ProgressFunc) error {
	progress(0, fmt.Sprintf("Compiling with %d jobs", s.jobs))

	args := append([]string{fmt.Sprintf("-j%d", s.jobs)}, sc.MakeArgs...)
	if _, err := s.runner.Run(ctx, runner.Cmd{
		Name: "make",
		Args: args,
		Dir:  sc.SourceDir,
		Env:  sc.Env,
	}); err != nil {
		return err
	}

	if sc.Project.VersionMethod() == profile.VersionFile {
		if err := os.WriteFile(sc.SourcePath(LocalversionFile), nil, 0644); err != nil {
			return errors.ErrProcessFailed.WithMessage("Failed to reset localversion file").WithCause(err)
		}
	}

	progress(100, "Kernel compiled")
	return nil
}
