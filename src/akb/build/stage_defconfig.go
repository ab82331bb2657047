package build

import (
	"context"

	"github.com/bitswalk/akb/src/akb/runner"
	"github.com/bitswalk/akb/src/common/errors"
)

// DefconfigStage generates out/.config from the profile's defconfig.
//
// Reads: Project, SourceDir, Env, MakeArgs.
type DefconfigStage struct {
	runner runner.Runner
}

// NewDefconfigStage creates a new defconfig stage
func NewDefconfigStage(r runner.Runner) *DefconfigStage {
	return &DefconfigStage{runner: r}
}

// Name returns the stage name
func (s *DefconfigStage) Name() StageName {
	return StageDefconfig
}

// Validate checks whether this stage can run
func (s *DefconfigStage) Validate(ctx context.Context, sc *StageContext) error {
	if sc.Project.Defconfig == "" {
		return errors.ErrInvalidProfile.WithMessagef("Project %s has no defconfig", sc.Project.Key)
	}
	if len(sc.MakeArgs) == 0 {
		return errors.ErrInternal.WithMessage("make arguments not set - environment stage must run first")
	}
	return nil
}

// Execute runs make <args> <defconfig>
func (s *DefconfigStage) Execute(ctx context.Context, sc *StageContext, progress ProgressFunc) error {
	progress(0, "Generating "+sc.Project.Defconfig)

	args := append(append([]string{}, sc.MakeArgs...), sc.Project.Defconfig)
	if _, err := s.runner.Run(ctx, runner.Cmd{
		Name: "make",
		Args: args,
		Dir:  sc.SourceDir,
		Env:  sc.Env,
	}); err != nil {
		return err
	}

	progress(100, "Configuration generated")
	return nil
}
