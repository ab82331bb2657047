package build

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/bitswalk/akb/src/akb/archive"
	"github.com/bitswalk/akb/src/akb/gitrepo"
	"github.com/bitswalk/akb/src/common/errors"
	"github.com/bitswalk/akb/src/common/paths"
)

// templateExcludes are left out of the flashable archive
var templateExcludes = []string{
	".git*",
	".github*",
	"README.md",
	"LICENSE",
	"*.gitignore",
	"patch_linux",
	"tools/boot.img.lz4",
	"tools/libmagiskboot.so",
}

// ArchiveName returns the flashable archive file name
func ArchiveName(prefix, kernelVersion, localversion, timestamp string) string {
	return fmt.Sprintf("%s-%s-%s-%s.zip", prefix, kernelVersion, strings.TrimLeft(localversion, "-"), timestamp)
}

// PackageStage assembles the AnyKernel3 flashable zip.
//
// Reads: Project, KernelVersion, Localversion, WorkDir, SourceDir.
// Writes: Timestamp, ArchiveName, ArchivePath, ArchiveChecksum, ArchiveSize.
type PackageStage struct {
	git Git
	now func() time.Time
}

// NewPackageStage creates a new package stage
func NewPackageStage(g Git, now func() time.Time) *PackageStage {
	return &PackageStage{git: g, now: now}
}

// Name returns the stage name
func (s *PackageStage) Name() StageName {
	return StagePackage
}

// Validate checks whether this stage can run
func (s *PackageStage) Validate(ctx context.Context, sc *StageContext) error {
	if sc.KernelVersion == "" || sc.Localversion == "" {
		return errors.ErrInternal.WithMessage("version not resolved - version stage must run first")
	}
	return nil
}

// Execute clones the template, drops the image in and zips it
func (s *PackageStage) Execute(ctx context.Context, sc *StageContext, progress ProgressFunc) error {
	template := sc.Path(TemplateDirName)
	if err := os.RemoveAll(template); err != nil {
		return errors.ErrPackagingFailed.WithMessagef("Failed to remove %s", template).WithCause(err)
	}

	progress(0, "Cloning packaging template")
	if err := s.git.Clone(ctx, gitrepo.CloneOptions{
		URL:    sc.Project.AnyKernelRepo(),
		Branch: sc.Project.AnyKernelBranch(),
		Depth:  1,
		Dest:   template,
	}); err != nil {
		return err
	}

	image := sc.SourcePath(KernelImagePath)
	if !paths.IsFile(image) {
		return errors.ErrArtifactMissing.WithMessagef("Image not found at %s", image)
	}
	if err := paths.CopyFile(image, sc.Path(TemplateDirName, "Image")); err != nil {
		return errors.ErrPackagingFailed.WithMessage("Failed to copy kernel image").WithCause(err)
	}

	sc.Timestamp = s.now().Format(TimestampLayout)
	sc.ArchiveName = ArchiveName(sc.Project.ZipPrefix(), sc.KernelVersion, sc.Localversion, sc.Timestamp)
	sc.ArchivePath = sc.Path(sc.ArchiveName)

	progress(50, "Writing "+sc.ArchiveName)
	count, err := archive.WriteZip(template, sc.ArchivePath, archive.NewMatcher(templateExcludes...))
	if err != nil {
		return errors.ErrPackagingFailed.WithMessagef("Failed to write %s", sc.ArchiveName).WithCause(err)
	}

	sum, size, err := checksumFile(sc.ArchivePath)
	if err != nil {
		return errors.ErrPackagingFailed.WithMessage("Failed to checksum archive").WithCause(err)
	}
	sc.ArchiveChecksum = sum
	sc.ArchiveSize = size

	log.Info("Archive created",
		"archive", sc.ArchiveName,
		"files", count,
		"size", size,
		"sha256", sum,
	)
	progress(100, "Archive created")
	return nil
}

func checksumFile(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}
