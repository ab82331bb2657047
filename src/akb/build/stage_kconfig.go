package build

import (
	"context"

	"github.com/bitswalk/akb/src/akb/kconfig"
	"github.com/bitswalk/akb/src/akb/profile"
	"github.com/bitswalk/akb/src/akb/runner"
	"github.com/bitswalk/akb/src/common/errors"
	"github.com/bitswalk/akb/src/common/paths"
)

// baselineDisables are turned off for every build
var baselineDisables = []string{
	"UH",
	"RKP",
	"KDP",
	"SECURITY_DEFEX",
	"INTEGRITY",
	"FIVE",
	"TRIM_UNUSED_KSYMS",
}

// DisableBatch returns every option to disable, in order: the baseline,
// then the profile's disable_security, then the variant's own.
func DisableBatch(p *profile.Profile, v Variant) []string {
	out := append([]string{}, baselineDisables...)
	out = append(out, p.DisableSecurity...)
	if v.Kind == VariantWildKSU {
		out = append(out, "KSU_KPROBES_HOOK", "KSU_SUSFS_SUS_SU")
	}
	return out
}

// ConfigSteps returns the .config edits of a build. Each step is one
// editor invocation; steps run in order. wildksu's enables come before
// the disable batch.
func ConfigSteps(p *profile.Profile, v Variant) [][]kconfig.Directive {
	var steps [][]kconfig.Directive

	if v.Kind == VariantWildKSU {
		steps = append(steps,
			kconfig.Enable("CONFIG_KSU_MANUAL_HOOK"),
			kconfig.Enable("CONFIG_SUSFS"),
		)
	}

	steps = append(steps, kconfig.Disable(DisableBatch(p, v)...))

	switch p.LTOMode() {
	case profile.LTOThin:
		steps = append(steps, append(kconfig.Enable("LTO_CLANG_THIN"), kconfig.Disable("LTO_CLANG_FULL")...))
	case profile.LTOFull:
		steps = append(steps, append(kconfig.Enable("LTO_CLANG_FULL"), kconfig.Disable("LTO_CLANG_THIN")...))
	}

	return steps
}

// KconfigStage mutates out/.config after the defconfig step. It drives the
// tree's scripts/config when present and edits the file natively otherwise.
//
// Reads: Project, Variant, SourceDir.
type KconfigStage struct {
	runner runner.Runner
}

// NewKconfigStage creates a new kconfig stage
func NewKconfigStage(r runner.Runner) *KconfigStage {
	return &KconfigStage{runner: r}
}

// Name returns the stage name
func (s *KconfigStage) Name() StageName {
	return StageKconfig
}

// Validate checks whether this stage can run
func (s *KconfigStage) Validate(ctx context.Context, sc *StageContext) error {
	if !paths.IsFile(sc.SourcePath(KernelConfigPath)) {
		return errors.ErrArtifactMissing.WithMessagef("Kernel config not found at %s - defconfig stage must run first", sc.SourcePath(KernelConfigPath))
	}
	return nil
}

// Execute applies every config step
func (s *KconfigStage) Execute(ctx context.Context, sc *StageContext, progress ProgressFunc) error {
	steps := ConfigSteps(sc.Project, sc.Variant)

	script := sc.SourcePath(ScriptsConfigPath)
	if paths.IsFile(script) {
		for i, step := range steps {
			progress(i*100/len(steps), "scripts/config "+step[0].Op.String())
			args := append([]string{"--file", KernelConfigPath}, kconfig.Args(step)...)
			if _, err := s.runner.Run(ctx, runner.Cmd{Name: script, Args: args, Dir: sc.SourceDir}); err != nil {
				return err
			}
		}
		log.Info("Kernel config updated", "editor", "scripts/config", "steps", len(steps))
		progress(100, "Kernel config updated")
		return nil
	}

	f, err := kconfig.Load(sc.SourcePath(KernelConfigPath))
	if err != nil {
		return errors.ErrArtifactMissing.WithCause(err)
	}
	for _, step := range steps {
		f.Apply(step...)
	}
	if err := f.Save(); err != nil {
		return errors.ErrProcessFailed.WithMessage("Failed to write kernel config").WithCause(err)
	}

	log.Info("Kernel config updated", "editor", "native", "steps", len(steps))
	progress(100, "Kernel config updated")
	return nil
}
