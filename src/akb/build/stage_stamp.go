package build

import (
	"context"
	"os"

	"github.com/bitswalk/akb/src/akb/profile"
	"github.com/bitswalk/akb/src/common/errors"
)

// StampStage embeds the build identifier into the kernel release string.
//
// Reads: Project, Localversion, CommitHash, SourceDir.
// Writes: MakeArgs and Env (param method) or kernel_source/localversion
// (file method).
type StampStage struct{}

// NewStampStage creates a new stamp stage
func NewStampStage() *StampStage {
	return &StampStage{}
}

// Name returns the stage name
func (s *StampStage) Name() StageName {
	return StageStamp
}

// Validate checks whether this stage can run
func (s *StampStage) Validate(ctx context.Context, sc *StageContext) error {
	if sc.Localversion == "" {
		return errors.ErrInternal.WithMessage("localversion not set - version stage must run first")
	}
	return nil
}

// Execute stamps the localversion
func (s *StampStage) Execute(ctx context.Context, sc *StageContext, progress ProgressFunc) error {
	switch sc.Project.VersionMethod() {
	case profile.VersionFile:
		stamp := sc.Localversion + "-g" + sc.CommitHash
		if err := os.WriteFile(sc.SourcePath(LocalversionFile), []byte(stamp), 0644); err != nil {
			return errors.ErrProcessFailed.WithMessage("Failed to write localversion file").WithCause(err)
		}
		log.Info("Localversion stamped", "method", profile.VersionFile, "value", stamp)
	default:
		sc.MakeArgs = append(sc.MakeArgs, "LOCALVERSION=")
		if sc.Env == nil {
			sc.Env = map[string]string{}
		}
		sc.Env["LOCALVERSION"] = sc.Localversion
		log.Info("Localversion stamped", "method", profile.VersionParam, "value", sc.Localversion)
	}

	progress(100, "Localversion stamped")
	return nil
}
