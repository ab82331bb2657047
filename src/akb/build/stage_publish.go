package build

import (
	"context"

	"github.com/bitswalk/akb/src/akb/storage"
	"github.com/bitswalk/akb/src/common/errors"
)

// PublishStage uploads the archive and its checksum to the artifact store.
// It does nothing when no store is configured.
//
// Reads: Project, Variant, ArchiveName, ArchivePath, ArchiveChecksum.
// Writes: StorageKey.
type PublishStage struct {
	store storage.Backend
}

// NewPublishStage creates a new publish stage; store may be nil
func NewPublishStage(store storage.Backend) *PublishStage {
	return &PublishStage{store: store}
}

// Name returns the stage name
func (s *PublishStage) Name() StageName {
	return StagePublish
}

// Validate checks whether this stage can run
func (s *PublishStage) Validate(ctx context.Context, sc *StageContext) error {
	if s.store != nil && sc.ArchivePath == "" {
		return errors.ErrArchiveMissing.WithMessage("No archive to publish - package stage must run first")
	}
	return nil
}

// Execute uploads the archive
func (s *PublishStage) Execute(ctx context.Context, sc *StageContext, progress ProgressFunc) error {
	if s.store == nil {
		log.Debug("No artifact store configured, skipping upload")
		progress(100, "Upload skipped")
		return nil
	}

	key := storage.ArtifactKey(sc.Project.Key, sc.Variant.Suffix(), sc.ArchiveName)
	progress(0, "Uploading "+key)

	if err := storage.PublishArchive(ctx, s.store, key, sc.ArchivePath, sc.ArchiveChecksum); err != nil {
		return errors.ErrStorageUploadFailed.WithMessagef("Failed to publish %s to %s", sc.ArchiveName, s.store.Location()).WithCause(err)
	}
	sc.StorageKey = key

	log.Info("Archive published", "backend", s.store.Type(), "location", s.store.Location(), "key", key)
	progress(100, "Archive published")
	return nil
}
