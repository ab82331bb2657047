package archive

import (
	"archive/zip"
	"compress/flate"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Matcher decides whether a relative path is excluded from a zip.
// Patterns follow zip -x: '*' matches any run of characters including '/',
// '?' matches one character, and the whole relative path must match.
type Matcher struct {
	patterns []*regexp.Regexp
}

// NewMatcher compiles exclusion patterns
func NewMatcher(patterns ...string) *Matcher {
	m := &Matcher{}
	for _, p := range patterns {
		var b strings.Builder
		b.WriteString("^")
		for _, r := range p {
			switch r {
			case '*':
				b.WriteString(".*")
			case '?':
				b.WriteString(".")
			default:
				b.WriteString(regexp.QuoteMeta(string(r)))
			}
		}
		b.WriteString("$")
		m.patterns = append(m.patterns, regexp.MustCompile(b.String()))
	}
	return m
}

// Match reports whether rel (slash-separated) is excluded
func (m *Matcher) Match(rel string) bool {
	for _, re := range m.patterns {
		if re.MatchString(rel) {
			return true
		}
	}
	return false
}

// WriteZip recursively compresses srcDir into dst with maximum deflate
// compression, skipping paths matched by exclude. Symlinks are followed.
// It returns the number of files written.
func WriteZip(srcDir, dst string, exclude *Matcher) (int, error) {
	out, err := os.Create(dst)
	if err != nil {
		return 0, fmt.Errorf("failed to create zip: %w", err)
	}

	zw := zip.NewWriter(out)
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, flate.BestCompression)
	})

	count := 0
	walkErr := filepath.Walk(srcDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if path == srcDir {
			return nil
		}

		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if info.Mode()&os.ModeSymlink != 0 {
			if info, err = os.Stat(path); err != nil {
				log.Warn("Skipping dangling symlink", "path", rel)
				return nil
			}
		}

		if info.IsDir() {
			if exclude != nil && exclude.Match(rel+"/") {
				return filepath.SkipDir
			}
			_, err := zw.CreateHeader(&zip.FileHeader{Name: rel + "/", Method: zip.Store})
			return err
		}

		if exclude != nil && exclude.Match(rel) {
			return nil
		}

		header, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}
		header.Name = rel
		header.Method = zip.Deflate

		w, err := zw.CreateHeader(header)
		if err != nil {
			return err
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		if _, err := io.Copy(w, f); err != nil {
			return err
		}
		count++
		return nil
	})

	if err := zw.Close(); err != nil && walkErr == nil {
		walkErr = err
	}
	if err := out.Close(); err != nil && walkErr == nil {
		walkErr = err
	}
	if walkErr != nil {
		os.Remove(dst)
		return 0, fmt.Errorf("failed to write zip: %w", walkErr)
	}
	return count, nil
}
