package build

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bitswalk/akb/src/akb/archive"
	"github.com/bitswalk/akb/src/common/errors"
)

// ToolchainStage downloads the profile's toolchain archives and unpacks
// them into the working directory.
//
// Reads: Project, WorkDir.
type ToolchainStage struct {
	fetcher Fetcher
}

// NewToolchainStage creates a new toolchain stage
func NewToolchainStage(f Fetcher) *ToolchainStage {
	return &ToolchainStage{fetcher: f}
}

// Name returns the stage name
func (s *ToolchainStage) Name() StageName {
	return StageToolchain
}

// Validate checks whether this stage can run
func (s *ToolchainStage) Validate(ctx context.Context, sc *StageContext) error {
	return nil
}

// Execute provisions the toolchain. Without URLs nothing on disk changes.
func (s *ToolchainStage) Execute(ctx context.Context, sc *StageContext, progress ProgressFunc) error {
	urls := sc.Project.ToolchainURLs
	if len(urls) == 0 {
		log.Debug("No toolchain archives configured", "project", sc.Project.Key)
		progress(100, "No toolchain to provision")
		return nil
	}

	dlDir := sc.Path(ToolchainDirName)
	if err := os.RemoveAll(dlDir); err != nil {
		return fmt.Errorf("failed to clear %s: %w", dlDir, err)
	}
	if err := os.MkdirAll(dlDir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dlDir, err)
	}

	names := make([]string, 0, len(urls))
	for i, url := range urls {
		progress(i*80/len(urls), fmt.Sprintf("Downloading toolchain %d/%d", i+1, len(urls)))
		log.Info("Downloading toolchain", "url", url)

		res, err := s.fetcher.Download(ctx, url, dlDir)
		if err != nil {
			return err
		}
		names = append(names, filepath.Base(res.Path))
	}

	plan := archive.Detect(names)
	if plan.Convention == archive.ConventionNone {
		return errors.ErrExtractFailed.WithMessagef("No recognizable toolchain archive among %v", names)
	}

	progress(80, "Extracting toolchain")
	if err := archive.ExtractPlan(ctx, plan, dlDir, sc.WorkDir); err != nil {
		return errors.ErrExtractFailed.WithMessagef("Failed to extract toolchain (%s)", plan.Convention).WithCause(err)
	}

	if err := os.RemoveAll(dlDir); err != nil {
		return fmt.Errorf("failed to remove %s: %w", dlDir, err)
	}

	progress(100, "Toolchain ready")
	return nil
}
