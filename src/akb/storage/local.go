package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	securejoin "github.com/cyphar/filepath-securejoin"

	"github.com/bitswalk/akb/src/common/errors"
	"github.com/bitswalk/akb/src/common/paths"
)

// LocalConfig holds the local filesystem storage configuration
type LocalConfig struct {
	// BasePath is the root directory; "~" and environment variables are expanded
	BasePath string
}

// LocalBackend stores objects as files below a root directory
type LocalBackend struct {
	root string
}

// NewLocal creates the root directory if needed
func NewLocal(cfg LocalConfig) (*LocalBackend, error) {
	root := paths.Expand(cfg.BasePath)
	if root == "" {
		return nil, fmt.Errorf("local storage requires a path")
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", root, err)
	}
	return &LocalBackend{root: root}, nil
}

// resolve maps key below root; ".." and symlinks cannot escape it
func (b *LocalBackend) resolve(key string) (string, error) {
	p, err := securejoin.SecureJoin(b.root, filepath.FromSlash(key))
	if err != nil {
		return "", fmt.Errorf("invalid key %q: %w", key, err)
	}
	return p, nil
}

// Put writes obj to a temp file and renames it into place
func (b *LocalBackend) Put(ctx context.Context, obj Object) error {
	dest, err := b.resolve(obj.Key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", obj.Key, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", obj.Key, err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	written, err := io.Copy(tmp, obj.Body)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", obj.Key, err)
	}
	if obj.Size > 0 && written != obj.Size {
		return fmt.Errorf("size mismatch for %s: expected %d bytes, wrote %d", obj.Key, obj.Size, written)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", obj.Key, err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("failed to set mode of %s: %w", obj.Key, err)
	}
	return os.Rename(tmp.Name(), dest)
}

// Stat returns the size and modification time of a stored file
func (b *LocalBackend) Stat(ctx context.Context, key string) (*ObjectInfo, error) {
	p, err := b.resolve(key)
	if err != nil {
		return nil, err
	}
	st, err := os.Stat(p)
	if os.IsNotExist(err) {
		return nil, errors.ErrArtifactMissing.WithMessagef("Object %s not found in %s", key, b.root)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", p, err)
	}
	return &ObjectInfo{
		Key:          key,
		Size:         st.Size(),
		ContentType:  contentTypeOf(key),
		LastModified: st.ModTime(),
	}, nil
}

func contentTypeOf(key string) string {
	switch filepath.Ext(key) {
	case ".zip":
		return ContentTypeZip
	case ".sha256":
		return ContentTypeChecksum
	}
	return "application/octet-stream"
}

// Type returns TypeLocal
func (b *LocalBackend) Type() string {
	return TypeLocal
}

// Location returns the root directory
func (b *LocalBackend) Location() string {
	return b.root
}
