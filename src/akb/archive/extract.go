package archive

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/ulikunitz/xz"

	"github.com/bitswalk/akb/src/common/logs"
)

var log = logs.NewDefault()

// SetLogger sets the logger for the archive package
func SetLogger(l *logs.Logger) {
	if l != nil {
		log = l
	}
}

// Compression of a tar stream
type Compression int

const (
	Gzip Compression = iota
	XZ
)

// CompressionFor infers the compression of an archive from its file name.
// Split parts are gzip unless the base is an xz tarball.
func CompressionFor(name string) Compression {
	if strings.Contains(name, ".tar.xz") || strings.HasSuffix(name, ".txz") {
		return XZ
	}
	return Gzip
}

// ExtractPlan extracts every group of plan, found in srcDir, into destDir
func ExtractPlan(ctx context.Context, plan Plan, srcDir, destDir string) error {
	for _, group := range plan.Groups {
		parts := make([]string, len(group))
		for i, name := range group {
			parts[i] = filepath.Join(srcDir, name)
		}

		log.Info("Extracting toolchain", "convention", plan.Convention, "parts", len(parts), "first", group[0])
		if err := ExtractConcatenated(ctx, parts, CompressionFor(group[0]), destDir); err != nil {
			return err
		}
	}
	return nil
}

// ExtractConcatenated joins the parts in order into one compressed tar
// stream and extracts it into destDir.
func ExtractConcatenated(ctx context.Context, parts []string, c Compression, destDir string) error {
	if len(parts) == 0 {
		return fmt.Errorf("no archive parts given")
	}

	readers := make([]io.Reader, 0, len(parts))
	for _, p := range parts {
		f, err := os.Open(p)
		if err != nil {
			return fmt.Errorf("failed to open archive part: %w", err)
		}
		defer f.Close()
		readers = append(readers, f)
	}

	return Extract(ctx, io.MultiReader(readers...), c, destDir)
}

// ExtractFile extracts a single compressed tarball into destDir
func ExtractFile(ctx context.Context, path, destDir string) error {
	return ExtractConcatenated(ctx, []string{path}, CompressionFor(filepath.Base(path)), destDir)
}

// decompress wraps r in the reader for c
func decompress(r io.Reader, c Compression) (io.ReadCloser, error) {
	switch c {
	case Gzip:
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		return gz, nil
	case XZ:
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to create xz reader: %w", err)
		}
		return io.NopCloser(xr), nil
	default:
		return nil, fmt.Errorf("unsupported compression: %d", c)
	}
}

// Extract decompresses r and unpacks the tar stream into destDir.
// Entry names leaving destDir are rejected. Symlinks unpacked earlier are
// resolved inside destDir, so later entries cannot be written through them
// to the outside.
func Extract(ctx context.Context, r io.Reader, c Compression, destDir string) error {
	stream, err := decompress(r, c)
	if err != nil {
		return err
	}
	defer stream.Close()

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("failed to create destination: %w", err)
	}
	root := filepath.Clean(destDir)

	tr := tar.NewReader(stream)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read tar header: %w", err)
		}
		if err := writeEntry(root, hdr, tr); err != nil {
			return err
		}
	}
}

// within resolves name below root, rejecting names that climb out of it.
// Only the parent is resolved through symlinks; the final element is left
// as named so an existing link there can be replaced rather than followed.
func within(root, name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if clean == "." {
		return root, nil
	}
	if !filepath.IsLocal(clean) {
		return "", fmt.Errorf("invalid tar path: %s", name)
	}
	parent, err := securejoin.SecureJoin(root, filepath.Dir(clean))
	if err != nil {
		return "", err
	}
	return filepath.Join(parent, filepath.Base(clean)), nil
}

// removeExisting removes whatever non-directory entry sits at target
func removeExisting(target string) error {
	fi, err := os.Lstat(target)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if fi.IsDir() {
		return fmt.Errorf("%s is a directory", target)
	}
	return os.Remove(target)
}

func writeEntry(root string, hdr *tar.Header, body io.Reader) error {
	target, err := within(root, hdr.Name)
	if err != nil {
		return err
	}
	mode := os.FileMode(hdr.Mode).Perm()

	switch hdr.Typeflag {
	case tar.TypeDir:
		if fi, err := os.Lstat(target); err == nil && !fi.IsDir() {
			if err := os.Remove(target); err != nil {
				return fmt.Errorf("failed to replace %s: %w", hdr.Name, err)
			}
		}
		if err := os.MkdirAll(target, mode|0700); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		return nil
	case tar.TypeReg, tar.TypeSymlink, tar.TypeLink:
	default:
		log.Debug("Skipping tar entry", "name", hdr.Name, "type", hdr.Typeflag)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}
	if err := removeExisting(target); err != nil {
		return fmt.Errorf("failed to replace %s: %w", hdr.Name, err)
	}

	switch hdr.Typeflag {
	case tar.TypeSymlink:
		if err := os.Symlink(hdr.Linkname, target); err != nil {
			return fmt.Errorf("failed to create symlink: %w", err)
		}

	case tar.TypeLink:
		source, err := within(root, hdr.Linkname)
		if err != nil {
			return fmt.Errorf("invalid hard link target: %s", hdr.Linkname)
		}
		if err := os.Link(source, target); err != nil {
			return fmt.Errorf("failed to create hard link: %w", err)
		}

	default:
		out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
		if err != nil {
			return fmt.Errorf("failed to create file: %w", err)
		}
		if _, err := io.Copy(out, body); err != nil {
			out.Close()
			return fmt.Errorf("failed to write file: %w", err)
		}
		if err := out.Close(); err != nil {
			return fmt.Errorf("failed to write file: %w", err)
		}
	}
	return nil
}
