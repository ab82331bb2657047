package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"
)

// PublishArchive uploads a local archive under key, checks the stored
// size, then writes a sha256sum-compatible sidecar next to it.
func PublishArchive(ctx context.Context, b Backend, key, localPath, checksum string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat archive: %w", err)
	}

	if err := b.Put(ctx, Object{
		Key:         key,
		Body:        f,
		Size:        st.Size(),
		ContentType: ContentTypeZip,
		SHA256:      checksum,
	}); err != nil {
		return err
	}

	info, err := b.Stat(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to verify %s: %w", key, err)
	}
	if info.Size != st.Size() {
		return fmt.Errorf("stored %s is %d bytes, expected %d", key, info.Size, st.Size())
	}

	sidecar := fmt.Sprintf("%s  %s\n", checksum, path.Base(key))
	return b.Put(ctx, Object{
		Key:         ChecksumKey(key),
		Body:        strings.NewReader(sidecar),
		Size:        int64(len(sidecar)),
		ContentType: ContentTypeChecksum,
	})
}
