package archive

import (
	"archive/zip"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

var anyKernelExcludes = []string{
	".git*", ".github*", "README.md", "LICENSE", "*.gitignore",
	"patch_linux", "tools/boot.img.lz4", "tools/libmagiskboot.so",
}

func TestMatcher(t *testing.T) {
	m := NewMatcher(anyKernelExcludes...)

	excluded := []string{
		".git/", ".git/HEAD", ".gitignore", ".github/workflows/build.yml",
		"README.md", "LICENSE", "modules/.gitignore", "patch_linux",
		"tools/boot.img.lz4", "tools/libmagiskboot.so",
	}
	for _, p := range excluded {
		if !m.Match(p) {
			t.Errorf("Match(%q) = false, want true", p)
		}
	}

	kept := []string{
		"Image", "anykernel.sh", "tools/ak3-core.sh", "tools/busybox",
		"docs/README.md", "META-INF/com/google/android/update-binary",
	}
	for _, p := range kept {
		if m.Match(p) {
			t.Errorf("Match(%q) = true, want false", p)
		}
	}
}

func TestWriteZip(t *testing.T) {
	src := t.TempDir()
	files := []string{
		"Image", "anykernel.sh", "README.md", "LICENSE", "patch_linux",
		".git/HEAD", ".github/workflows/ci.yml", ".gitignore",
		"tools/ak3-core.sh", "tools/boot.img.lz4", "tools/libmagiskboot.so",
		"META-INF/com/google/android/update-binary",
	}
	for _, f := range files {
		p := filepath.Join(src, f)
		os.MkdirAll(filepath.Dir(p), 0755)
		os.WriteFile(p, []byte(f), 0644)
	}

	dst := filepath.Join(t.TempDir(), "Kernel.zip")
	n, err := WriteZip(src, dst, NewMatcher(anyKernelExcludes...))
	if err != nil {
		t.Fatalf("WriteZip() error = %v", err)
	}
	if n != 4 {
		t.Errorf("WriteZip() wrote %d files, want 4", n)
	}

	zr, err := zip.OpenReader(dst)
	if err != nil {
		t.Fatal(err)
	}
	defer zr.Close()

	var got []string
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		got = append(got, f.Name)
		if f.Method != zip.Deflate {
			t.Errorf("%s stored with method %d", f.Name, f.Method)
		}
	}
	sort.Strings(got)

	want := []string{"Image", "META-INF/com/google/android/update-binary", "anykernel.sh", "tools/ak3-core.sh"}
	if len(got) != len(want) {
		t.Fatalf("zip entries = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d = %q, want %q", i, got[i], want[i])
		}
	}
}
