// Package storage provides the artifact stores built kernels can be
// published to: a local directory tree or an S3-compatible bucket.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"time"
)

// Backend is an artifact store
type Backend interface {
	// Put stores an object, replacing any object under the same key
	Put(ctx context.Context, obj Object) error

	// Stat returns the metadata of a stored object. A missing object is
	// reported as errors.ErrArtifactMissing.
	Stat(ctx context.Context, key string) (*ObjectInfo, error)

	// Type returns the backend type
	Type() string

	// Location returns a human-readable location description
	Location() string
}

// Object is an upload
type Object struct {
	Key         string
	Body        io.Reader
	Size        int64
	ContentType string

	// SHA256 is the hex digest of Body; empty when unknown
	SHA256 string
}

// ObjectInfo holds metadata about a stored object
type ObjectInfo struct {
	Key          string    `json:"key" yaml:"key"`
	Size         int64     `json:"size" yaml:"size"`
	ContentType  string    `json:"content_type,omitempty" yaml:"content_type,omitempty"`
	LastModified time.Time `json:"last_modified" yaml:"last_modified"`
}

// Backend types
const (
	TypeNone  = "none"
	TypeLocal = "local"
	TypeS3    = "s3"
)

// Content types of published objects
const (
	ContentTypeZip      = "application/zip"
	ContentTypeChecksum = "text/plain; charset=utf-8"
)

// Config holds the storage configuration
type Config struct {
	// Type is "none", "local" or "s3"
	Type  string
	Local LocalConfig
	S3    S3Config
}

// DefaultConfig returns the default configuration: no artifact store
func DefaultConfig() Config {
	return Config{
		Type:  TypeNone,
		Local: LocalConfig{BasePath: "~/.akb/artifacts"},
	}
}

// New creates a storage backend. Type "none" (or empty) yields a nil
// backend, which callers treat as publication disabled.
func New(cfg Config) (Backend, error) {
	switch cfg.Type {
	case TypeNone, "":
		return nil, nil
	case TypeLocal:
		return NewLocal(cfg.Local)
	case TypeS3:
		return NewS3(cfg.S3)
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}

// ArtifactKey returns the object key of a build archive
func ArtifactKey(project, suffix, archiveName string) string {
	return path.Join("builds", project, suffix, archiveName)
}

// ChecksumKey returns the key of the checksum sidecar of an object
func ChecksumKey(key string) string {
	return key + ".sha256"
}
