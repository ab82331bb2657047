package build

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	"github.com/bitswalk/akb/src/akb/download"
	"github.com/bitswalk/akb/src/akb/gitrepo"
	"github.com/bitswalk/akb/src/akb/kconfig"
	"github.com/bitswalk/akb/src/akb/runner"
	"github.com/bitswalk/akb/src/common/errors"
	"github.com/bitswalk/akb/src/common/paths"
)

const (
	susfsDirName       = "susfs4ksu"
	manualHookFileName = "manual-hook.patch"
)

type integrationFunc func(s *IntegrateStage, ctx context.Context, sc *StageContext) error

// integrations maps every variant kind to its integration procedure
var integrations = map[VariantKind]integrationFunc{
	VariantNone: noIntegration,
	VariantLKM:  noIntegration,
	VariantKSU: func(s *IntegrateStage, ctx context.Context, sc *StageContext) error {
		return s.runSetup(ctx, sc, s.sources.KSU)
	},
	VariantMKSU: func(s *IntegrateStage, ctx context.Context, sc *StageContext) error {
		return s.runSetup(ctx, sc, s.sources.MKSU)
	},
	VariantReSukiSU: func(s *IntegrateStage, ctx context.Context, sc *StageContext) error {
		return s.runSetup(ctx, sc, s.sources.ReSukiSU)
	},
	VariantWildKSU: (*IntegrateStage).integrateWildKSU,
}

func noIntegration(*IntegrateStage, context.Context, *StageContext) error {
	return nil
}

// IntegrateStage patches the selected variant into the kernel source tree.
//
// Reads: Variant, Project, SourceDir.
type IntegrateStage struct {
	runner  runner.Runner
	fetcher Fetcher
	git     Git
	sources IntegrationSources
}

// NewIntegrateStage creates a new integration stage
func NewIntegrateStage(r runner.Runner, f Fetcher, g Git, sources IntegrationSources) *IntegrateStage {
	return &IntegrateStage{runner: r, fetcher: f, git: g, sources: sources}
}

// Name returns the stage name
func (s *IntegrateStage) Name() StageName {
	return StageIntegrate
}

// Validate checks whether this stage can run
func (s *IntegrateStage) Validate(ctx context.Context, sc *StageContext) error {
	if _, ok := integrations[sc.Variant.Kind]; !ok {
		return errors.ErrInternal.WithMessagef("no integration registered for variant %q", sc.Variant.Kind)
	}
	return nil
}

// Execute runs the variant's integration
func (s *IntegrateStage) Execute(ctx context.Context, sc *StageContext, progress ProgressFunc) error {
	log.Info("Integrating variant", "branch", sc.Variant.Branch, "kind", sc.Variant.Kind)
	if err := integrations[sc.Variant.Kind](s, ctx, sc); err != nil {
		return err
	}
	progress(100, "Variant integrated")
	return nil
}

// runSetup fetches an installer over HTTPS and pipes it into bash
func (s *IntegrateStage) runSetup(ctx context.Context, sc *StageContext, script SetupScript) error {
	if err := download.RequireHTTPS(script.URL); err != nil {
		return err
	}

	body, err := s.fetcher.Fetch(ctx, script.URL)
	if err != nil {
		return err
	}

	log.Info("Running setup script", "url", script.URL, "arg", script.Arg)
	_, err = s.runner.Run(ctx, runner.Cmd{
		Name:  "bash",
		Args:  []string{"-s", script.Arg},
		Dir:   sc.SourceDir,
		Stdin: bytes.NewReader(body),
	})
	return err
}

func (s *IntegrateStage) integrateWildKSU(ctx context.Context, sc *StageContext) error {
	src := s.sources

	if err := s.runSetup(ctx, sc, src.WildKSU); err != nil {
		return err
	}

	susfsDir := sc.SourcePath(susfsDirName)
	if err := os.RemoveAll(susfsDir); err != nil {
		return errors.ErrCloneFailed.WithMessagef("Failed to clear %s", susfsDir).WithCause(err)
	}
	if err := s.git.Clone(ctx, gitrepo.CloneOptions{
		URL:    src.SusfsRepo,
		Branch: src.SusfsBranch,
		Depth:  1,
		Dest:   susfsDir,
	}); err != nil {
		return err
	}

	patches := filepath.Join(susfsDir, "kernel_patches")
	patchName := src.SusfsPatchName()
	if !paths.IsFile(filepath.Join(patches, patchName)) {
		return errors.ErrArtifactMissing.WithMessagef("%s not found in %s", patchName, src.SusfsRepo)
	}
	if err := paths.CopyFile(filepath.Join(patches, patchName), sc.SourcePath(patchName)); err != nil {
		return errors.ErrPatchFailed.WithCause(err)
	}
	for _, dir := range []string{"fs", filepath.Join("include", "linux")} {
		if err := paths.CopyTree(filepath.Join(patches, dir), sc.SourcePath(dir)); err != nil {
			return errors.ErrPatchFailed.WithMessagef("Failed to copy susfs %s sources", dir).WithCause(err)
		}
	}
	if err := s.applyPatch(ctx, sc, sc.SourcePath(patchName)); err != nil {
		return err
	}

	hook := sc.SourcePath(manualHookFileName)
	if _, err := s.fetcher.DownloadTo(ctx, src.ManualHookURL, hook); err != nil {
		return err
	}
	if err := s.applyPatch(ctx, sc, hook); err != nil {
		return err
	}

	if err := NamespaceHookFix.Apply(sc.SourceDir); err != nil {
		return err
	}

	defconfig := sc.SourcePath(DefconfigDir, sc.Project.Defconfig)
	if !paths.IsFile(defconfig) {
		log.Warn("Defconfig not found, skipping config append", "path", defconfig)
		return nil
	}
	return kconfig.AppendFragment(defconfig,
		kconfig.Option{Name: "KSU_KPROBES_HOOK", Value: "n"},
		kconfig.Option{Name: "KSU_SUSFS_SUS_SU", Value: "n"},
	)
}

// applyPatch applies a unified diff with patch -p1 --fuzz=3
func (s *IntegrateStage) applyPatch(ctx context.Context, sc *StageContext, patchFile string) error {
	f, err := os.Open(patchFile)
	if err != nil {
		return errors.ErrArtifactMissing.WithMessagef("Patch %s not found", patchFile).WithCause(err)
	}
	defer f.Close()

	log.Info("Applying patch", "patch", filepath.Base(patchFile))
	if _, err := s.runner.Run(ctx, runner.Cmd{
		Name:  "patch",
		Args:  []string{"-p1", "--fuzz=3"},
		Dir:   sc.SourceDir,
		Stdin: f,
	}); err != nil {
		return errors.ErrPatchFailed.WithMessagef("Failed to apply %s", filepath.Base(patchFile)).WithCause(err)
	}
	return nil
}
