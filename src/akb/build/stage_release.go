package build

import (
	"context"
	"fmt"

	"github.com/bitswalk/akb/src/akb/forge"
	"github.com/bitswalk/akb/src/akb/notify"
	"github.com/bitswalk/akb/src/common/errors"
	"github.com/bitswalk/akb/src/common/paths"
)

// ReleaseTag returns "<prefix>-<suffix>-<timestamp>"
func ReleaseTag(prefix, suffix, timestamp string) string {
	return fmt.Sprintf("%s-%s-%s", prefix, suffix, timestamp)
}

// ReleaseTitle returns "<prefix> <suffix> Build (<timestamp>)"
func ReleaseTitle(prefix, suffix, timestamp string) string {
	return fmt.Sprintf("%s %s Build (%s)", prefix, suffix, timestamp)
}

// ReleaseNotes returns the release body
func ReleaseNotes(branch, kernelVersion string) string {
	return fmt.Sprintf("Automated build for %s\nKernel Version: %s", branch, kernelVersion)
}

// ReleaseStage publishes a release with the archive and announces it.
// It only runs in release mode.
//
// Reads: Release, Project, Variant, Branch, KernelVersion, Timestamp,
// ArchivePath, ArchiveName. Writes: ReleaseTag, ReleaseURL.
type ReleaseStage struct {
	publisher Publisher
	notifier  Notifier
}

// NewReleaseStage creates a new release stage; both collaborators may be nil
func NewReleaseStage(p Publisher, n Notifier) *ReleaseStage {
	return &ReleaseStage{publisher: p, notifier: n}
}

// Name returns the stage name
func (s *ReleaseStage) Name() StageName {
	return StageRelease
}

// Validate checks whether this stage can run
func (s *ReleaseStage) Validate(ctx context.Context, sc *StageContext) error {
	if sc.Release && sc.Project.Repo == "" {
		return errors.ErrInvalidProfile.WithMessagef("Project %s has no release repository", sc.Project.Key)
	}
	return nil
}

// Execute creates the release and sends the notification
func (s *ReleaseStage) Execute(ctx context.Context, sc *StageContext, progress ProgressFunc) error {
	if !sc.Release {
		log.Debug("Release mode off, skipping release")
		progress(100, "Release skipped")
		return nil
	}

	prefix := sc.Project.ZipPrefix()
	suffix := sc.Variant.Suffix()
	tag := ReleaseTag(prefix, suffix, sc.Timestamp)

	if sc.ArchivePath == "" || !paths.IsFile(sc.ArchivePath) {
		return errors.ErrArchiveMissing
	}
	if s.publisher == nil {
		return errors.ErrReleaseToken.WithMessage("No release publisher configured (set release.token or GITHUB_TOKEN)")
	}

	progress(0, "Publishing release "+tag)
	pub, err := s.publisher.Publish(ctx, forge.Release{
		Repo:   sc.Project.Repo,
		Tag:    tag,
		Title:  ReleaseTitle(prefix, suffix, sc.Timestamp),
		Notes:  ReleaseNotes(sc.Branch, sc.KernelVersion),
		Assets: []string{sc.ArchivePath},
	})
	if err != nil {
		return structured(err, errors.ErrReleaseFailed)
	}
	sc.ReleaseTag = tag
	sc.ReleaseURL = pub.URL
	log.Info("Release published", "repo", sc.Project.Repo, "tag", tag, "url", pub.URL)

	progress(80, "Sending notification")
	msg := notify.Message{
		Tag:         tag,
		Project:     sc.Project.Key,
		Variant:     suffix,
		ArchiveName: sc.ArchiveName,
		ReleaseURL:  pub.URL,
	}
	if s.notifier == nil {
		log.Info("No notifier configured", "tag", tag)
	} else if err := s.notifier.Notify(ctx, msg); err != nil {
		return structured(err, errors.ErrNotifyFailed)
	}

	progress(100, "Release published")
	return nil
}
