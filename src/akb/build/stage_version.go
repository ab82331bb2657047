package build

import (
	"context"

	"github.com/bitswalk/akb/src/akb/runner"
)

// VersionStage resolves the kernel version, the source tree commit and the
// build identifier.
//
// Reads: Project, Variant, SourceDir. Writes: KernelVersion, CommitHash,
// Localversion.
type VersionStage struct {
	runner runner.Runner
	git    Git
}

// NewVersionStage creates a new version stage
func NewVersionStage(r runner.Runner, g Git) *VersionStage {
	return &VersionStage{runner: r, git: g}
}

// Name returns the stage name
func (s *VersionStage) Name() StageName {
	return StageVersion
}

// Validate checks whether this stage can run
func (s *VersionStage) Validate(ctx context.Context, sc *StageContext) error {
	return nil
}

// Execute resolves the version fields
func (s *VersionStage) Execute(ctx context.Context, sc *StageContext, progress ProgressFunc) error {
	kver, err := s.runner.Run(ctx, runner.Cmd{
		Name:    "make",
		Args:    []string{"kernelversion"},
		Dir:     sc.SourceDir,
		Capture: true,
	})
	switch {
	case err != nil:
		log.Warn("Kernel version query failed", "error", err)
		kver = UnknownValue
	case kver == "":
		log.Warn("Kernel version query returned nothing")
		kver = UnknownValue
	}
	sc.KernelVersion = kver

	hash, err := s.git.ShortHead(sc.SourceDir)
	if err != nil || hash == "" {
		log.Warn("Unable to resolve source tree commit", "dir", sc.SourceDir, "error", err)
		hash = UnknownValue
	}
	sc.CommitHash = hash

	sc.Localversion = Identifier(sc.Project.LocalversionBase, sc.Variant)

	log.Info("Resolved build version",
		"kernel_version", sc.KernelVersion,
		"commit", sc.CommitHash,
		"localversion", sc.Localversion,
	)
	progress(100, "Version resolved")
	return nil
}

// Identifier returns "<localversion base>-<variant suffix>"
func Identifier(base string, v Variant) string {
	return base + "-" + v.Suffix()
}
